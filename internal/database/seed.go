package database

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"todo/internal/model"
	"todo/internal/repository"
)

// DefaultTags are created for every user by the seeder.
var DefaultTags = []model.Tag{
	{Name: "Work", Color: "#3498db"},
	{Name: "Personal", Color: "#2ecc71"},
	{Name: "Urgent", Color: "#e74c3c"},
	{Name: "Study", Color: "#9b59b6"},
	{Name: "Shopping", Color: "#f39c12"},
}

var sampleTitles = []string{
	"Prepare weekly report",
	"Review pull requests",
	"Buy groceries",
	"Call the dentist",
	"Read chapter 4",
	"Plan sprint backlog",
	"Renew gym membership",
	"Write blog post draft",
	"Fix the kitchen tap",
	"Book train tickets",
}

var (
	seedStatuses   = []model.TaskStatus{model.StatusPending, model.StatusInProgress, model.StatusCompleted}
	seedPriorities = []model.TaskPriority{model.PriorityLow, model.PriorityMedium, model.PriorityHigh}
)

type Seeder struct {
	users        *repository.UserRepository
	tags         *repository.TagRepository
	tasks        *repository.TaskRepository
	TasksPerUser int
	rnd          *rand.Rand
	now          func() time.Time
}

func NewSeeder(db *gorm.DB, tasksPerUser int) *Seeder {
	return &Seeder{
		users:        repository.NewUserRepository(db),
		tags:         repository.NewTagRepository(db),
		tasks:        repository.NewTaskRepository(db),
		TasksPerUser: tasksPerUser,
		rnd:          rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 42)),
		now:          time.Now,
	}
}

// Run gives every user without tags the default tag set and a batch of
// sample tasks, each carrying one to three of those tags.
func (s *Seeder) Run(ctx context.Context) error {
	users, err := s.users.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	for _, user := range users {
		count, err := s.tags.CountForOwner(ctx, user.ID)
		if err != nil {
			return err
		}
		if count > 0 {
			zap.L().Info("skipping seeded user", zap.String("user_id", user.ID.String()))
			continue
		}

		tagIDs := make([]uuid.UUID, 0, len(DefaultTags))
		for _, def := range DefaultTags {
			tag := model.Tag{UserID: user.ID, Name: def.Name, Color: def.Color}
			if err := s.tags.Create(ctx, &tag); err != nil {
				return fmt.Errorf("seed tag %s: %w", def.Name, err)
			}
			tagIDs = append(tagIDs, tag.ID)
		}

		for i := 0; i < s.TasksPerUser; i++ {
			task := s.sampleTask(user.ID)
			if err := s.tasks.Create(ctx, &task, s.pickTags(tagIDs)); err != nil {
				return fmt.Errorf("seed task: %w", err)
			}
		}
		zap.L().Info("seeded user",
			zap.String("user_id", user.ID.String()),
			zap.Int("tags", len(tagIDs)),
			zap.Int("tasks", s.TasksPerUser),
		)
	}
	return nil
}

func (s *Seeder) sampleTask(userID uuid.UUID) model.Task {
	description := "Generated sample task."
	due := model.NewDate(s.now().AddDate(0, 0, s.rnd.IntN(31)))
	return model.Task{
		UserID:      userID,
		Title:       sampleTitles[s.rnd.IntN(len(sampleTitles))],
		Description: &description,
		Status:      seedStatuses[s.rnd.IntN(len(seedStatuses))],
		Priority:    seedPriorities[s.rnd.IntN(len(seedPriorities))],
		DueDate:     &due,
	}
}

func (s *Seeder) pickTags(tagIDs []uuid.UUID) []uuid.UUID {
	n := 1 + s.rnd.IntN(min(3, len(tagIDs)))
	picked := append([]uuid.UUID(nil), tagIDs...)
	s.rnd.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	return picked[:n]
}
