package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"todo/internal/model"
	"todo/internal/repository"
)

type TaskRepositorySuite struct {
	suite.Suite
	ctx   context.Context
	tasks *repository.TaskRepository
	tags  *repository.TagRepository
	owner model.User
	other model.User
}

func TestTaskRepositorySuite(t *testing.T) {
	suite.Run(t, new(TaskRepositorySuite))
}

func (s *TaskRepositorySuite) SetupTest() {
	db := openSQLite(s.T())
	s.ctx = context.Background()
	s.tasks = repository.NewTaskRepository(db)
	s.tags = repository.NewTagRepository(db)
	s.owner = createUser(s.T(), db, "owner@example.com")
	s.other = createUser(s.T(), db, "other@example.com")
}

func (s *TaskRepositorySuite) newTag(owner uuid.UUID, name string) model.Tag {
	tag := model.Tag{UserID: owner, Name: name}
	s.Require().NoError(s.tags.Create(s.ctx, &tag))
	return tag
}

func (s *TaskRepositorySuite) newTask(task model.Task, tagIDs ...uuid.UUID) model.Task {
	if task.UserID == uuid.Nil {
		task.UserID = s.owner.ID
	}
	s.Require().NoError(s.tasks.Create(s.ctx, &task, tagIDs))
	return task
}

func ptr[T any](v T) *T { return &v }

func date(s string) *model.Date {
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		panic(err)
	}
	d := model.NewDate(t)
	return &d
}

func tagNames(task *model.Task) []string {
	names := make([]string, 0, len(task.Tags))
	for _, tag := range task.Tags {
		names = append(names, tag.Name)
	}
	return names
}

func (s *TaskRepositorySuite) TestCreateAppliesDefaultsAndAttachesTags() {
	work := s.newTag(s.owner.ID, "Work")
	home := s.newTag(s.owner.ID, "Home")

	task := s.newTask(model.Task{Title: "Write report"}, work.ID, home.ID)

	got, err := s.tasks.GetByID(s.ctx, s.owner.ID, task.ID)
	s.Require().NoError(err)
	s.Equal(model.StatusPending, got.Status)
	s.Equal(model.PriorityMedium, got.Priority)
	s.Nil(got.Description)
	s.Nil(got.DueDate)
	s.Equal([]string{"Home", "Work"}, tagNames(got))
	s.Equal([]string{"Home", "Work"}, tagNames(&task))
}

func (s *TaskRepositorySuite) TestNonOwnerGetsNotFound() {
	task := s.newTask(model.Task{Title: "Mine"})

	_, err := s.tasks.GetByID(s.ctx, s.other.ID, task.ID)
	s.ErrorIs(err, repository.ErrTaskNotFound)

	_, err = s.tasks.Update(s.ctx, s.other.ID, task.ID, repository.TaskUpdate{Title: ptr("Hijacked")})
	s.ErrorIs(err, repository.ErrTaskNotFound)

	err = s.tasks.Delete(s.ctx, s.other.ID, task.ID)
	s.ErrorIs(err, repository.ErrTaskNotFound)

	got, err := s.tasks.GetByID(s.ctx, s.owner.ID, task.ID)
	s.Require().NoError(err)
	s.Equal("Mine", got.Title)
}

func (s *TaskRepositorySuite) TestUpdateSyncsTags() {
	t1 := s.newTag(s.owner.ID, "one")
	t2 := s.newTag(s.owner.ID, "two")
	t3 := s.newTag(s.owner.ID, "three")
	task := s.newTask(model.Task{Title: "sync"}, t1.ID, t2.ID)

	got, err := s.tasks.Update(s.ctx, s.owner.ID, task.ID, repository.TaskUpdate{
		TagIDs:    []uuid.UUID{t2.ID, t3.ID},
		TagIDsSet: true,
	})
	s.Require().NoError(err)
	s.ElementsMatch([]string{"two", "three"}, tagNames(got))

	ids, err := s.tasks.TagIDs(s.ctx, task.ID)
	s.Require().NoError(err)
	s.ElementsMatch([]uuid.UUID{t2.ID, t3.ID}, ids)

	got, err = s.tasks.Update(s.ctx, s.owner.ID, task.ID, repository.TaskUpdate{TagIDs: []uuid.UUID{}, TagIDsSet: true})
	s.Require().NoError(err)
	s.Empty(got.Tags)
}

func (s *TaskRepositorySuite) TestUpdateOnlyTouchesPresentFields() {
	task := s.newTask(model.Task{
		Title:       "keep",
		Description: ptr("details"),
		DueDate:     date("2026-01-10"),
		Priority:    model.PriorityHigh,
	}, s.newTag(s.owner.ID, "kept").ID)

	got, err := s.tasks.Update(s.ctx, s.owner.ID, task.ID, repository.TaskUpdate{
		Status: ptr(model.StatusCompleted),
	})
	s.Require().NoError(err)
	s.Equal("keep", got.Title)
	s.Equal(model.StatusCompleted, got.Status)
	s.Equal(model.PriorityHigh, got.Priority)
	s.Require().NotNil(got.Description)
	s.Equal("details", *got.Description)
	s.Require().NotNil(got.DueDate)
	s.Equal("2026-01-10", got.DueDate.String())
	s.Equal([]string{"kept"}, tagNames(got))

	got, err = s.tasks.Update(s.ctx, s.owner.ID, task.ID, repository.TaskUpdate{
		DescriptionSet: true,
		DueDateSet:     true,
	})
	s.Require().NoError(err)
	s.Nil(got.Description)
	s.Nil(got.DueDate)
}

func (s *TaskRepositorySuite) TestDeleteDetachesTags() {
	tag := s.newTag(s.owner.ID, "temp")
	task := s.newTask(model.Task{Title: "gone"}, tag.ID)

	s.Require().NoError(s.tasks.Delete(s.ctx, s.owner.ID, task.ID))

	_, err := s.tasks.GetByID(s.ctx, s.owner.ID, task.ID)
	s.ErrorIs(err, repository.ErrTaskNotFound)
	s.NoError(s.tags.Delete(s.ctx, s.owner.ID, tag.ID), "tag is free once the task is gone")
}

func (s *TaskRepositorySuite) TestListFilters() {
	urgent := s.newTag(s.owner.ID, "Urgent")
	s.newTask(model.Task{Title: "late open", DueDate: date("2026-01-01"), Status: model.StatusPending})
	s.newTask(model.Task{Title: "late done", DueDate: date("2026-01-01"), Status: model.StatusCompleted})
	s.newTask(model.Task{Title: "future", DueDate: date("2026-02-01"), Priority: model.PriorityHigh}, urgent.ID)
	s.newTask(model.Task{Title: "Groceries", Description: ptr("buy MILK"), Status: model.StatusInProgress})
	s.newTask(model.Task{UserID: s.other.ID, Title: "foreign late", DueDate: date("2026-01-01")})

	titles := func(filter repository.TaskFilter) []string {
		page, err := s.tasks.List(s.ctx, s.owner.ID, filter, repository.PageRequest{})
		s.Require().NoError(err)
		out := make([]string, 0, len(page.Items))
		for _, task := range page.Items {
			out = append(out, task.Title)
		}
		return out
	}

	s.ElementsMatch([]string{"late open"}, titles(repository.TaskFilter{OverdueAsOf: date("2026-01-15")}))
	s.ElementsMatch([]string{"late open", "late done"}, titles(repository.TaskFilter{DueDate: date("2026-01-01")}))
	s.ElementsMatch([]string{"future"}, titles(repository.TaskFilter{TagID: urgent.ID}))
	s.ElementsMatch([]string{"future"}, titles(repository.TaskFilter{Priority: model.PriorityHigh}))
	s.ElementsMatch([]string{"Groceries"}, titles(repository.TaskFilter{Status: model.StatusInProgress}))
	s.ElementsMatch([]string{"Groceries"}, titles(repository.TaskFilter{Search: "milk"}))
	s.ElementsMatch([]string{"late open", "late done"}, titles(repository.TaskFilter{Search: "LATE"}))
	s.Empty(titles(repository.TaskFilter{Status: model.StatusCompleted, Priority: model.PriorityHigh}))
	s.Len(titles(repository.TaskFilter{}), 4)
}

func (s *TaskRepositorySuite) TestListPaginates() {
	for i := 0; i < 30; i++ {
		s.newTask(model.Task{Title: fmt.Sprintf("task %02d", i)})
	}

	first, err := s.tasks.List(s.ctx, s.owner.ID, repository.TaskFilter{}, repository.PageRequest{Page: 1, PerPage: 15})
	s.Require().NoError(err)
	second, err := s.tasks.List(s.ctx, s.owner.ID, repository.TaskFilter{}, repository.PageRequest{Page: 2, PerPage: 15})
	s.Require().NoError(err)
	third, err := s.tasks.List(s.ctx, s.owner.ID, repository.TaskFilter{}, repository.PageRequest{Page: 3, PerPage: 15})
	s.Require().NoError(err)

	s.EqualValues(30, first.Total)
	s.Len(first.Items, 15)
	s.Len(second.Items, 15)
	s.Empty(third.Items)

	seen := map[uuid.UUID]bool{}
	for _, task := range append(first.Items, second.Items...) {
		s.False(seen[task.ID], "pages must not overlap")
		seen[task.ID] = true
		s.NotNil(task.Tags)
	}
}

func (s *TaskRepositorySuite) TestListNewestFirst() {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	// inserted out of order so only created_at can explain the result
	for _, hour := range []int{2, 0, 3, 1} {
		s.newTask(model.Task{Title: fmt.Sprintf("task %d", hour), CreatedAt: base.Add(time.Duration(hour) * time.Hour)})
	}

	page, err := s.tasks.List(s.ctx, s.owner.ID, repository.TaskFilter{}, repository.PageRequest{Page: 1, PerPage: 15})
	s.Require().NoError(err)
	s.Require().Len(page.Items, 4)

	s.Equal("task 3", page.Items[0].Title)
	for i := 1; i < len(page.Items); i++ {
		s.True(page.Items[i-1].CreatedAt.After(page.Items[i].CreatedAt), "item %d is not older than item %d", i, i-1)
	}
}

func TestPageRequest_PerPageIsCapped(t *testing.T) {
	db := openSQLite(t)
	repo := repository.NewTaskRepository(db)
	owner := createUser(t, db, "cap@example.com")

	page, err := repo.List(context.Background(), owner.ID, repository.TaskFilter{}, repository.PageRequest{Page: 0, PerPage: 1000})
	require.NoError(t, err)
	assert.Equal(t, repository.MaxPerPage, page.PerPage)
	assert.Equal(t, 1, page.Page)
	assert.NotNil(t, page.Items)
}
