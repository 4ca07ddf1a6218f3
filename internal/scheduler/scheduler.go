// Package scheduler runs periodic housekeeping jobs.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Job is one housekeeping task. Run reports how many items it removed.
type Job struct {
	Name  string
	Every time.Duration
	Run   func(ctx context.Context) (int64, error)
}

// Observer is notified of every successful run.
type Observer func(job string, removed int64)

type Scheduler struct {
	cron     *gocron.Scheduler
	logger   *zap.Logger
	observer Observer
	timeout  time.Duration

	mu      sync.Mutex
	running bool
}

func New(logger *zap.Logger, observer Observer) *Scheduler {
	cron := gocron.NewScheduler(time.UTC)
	cron.SingletonModeAll()
	return &Scheduler{
		cron:     cron,
		logger:   logger,
		observer: observer,
		timeout:  time.Minute,
	}
}

// Add registers a job. The first run happens one interval after Start.
func (s *Scheduler) Add(job Job) error {
	_, err := s.cron.Every(job.Every).WaitForSchedule().Tag(job.Name).Do(func() {
		s.execute(job)
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", job.Name, err)
	}
	s.logger.Info("job scheduled", zap.String("job", job.Name), zap.Duration("every", job.Every))
	return nil
}

func (s *Scheduler) execute(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	removed, err := job.Run(ctx)
	if err != nil {
		s.logger.Error("job failed", zap.String("job", job.Name), zap.Error(err))
		return
	}
	if s.observer != nil {
		s.observer(job.Name, removed)
	}
	if removed > 0 {
		s.logger.Info("job finished", zap.String("job", job.Name), zap.Int64("removed", removed))
	}
}

// RunNow executes every registered job once, synchronously.
func (s *Scheduler) RunNow() {
	s.cron.RunAll()
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.cron.StartAsync()
	s.running = true
	s.logger.Info("scheduler started", zap.Int("jobs", s.cron.Len()))
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.cron.Stop()
	s.running = false
	s.logger.Info("scheduler stopped")
}
