package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"todo/internal/model"
	"todo/internal/repository"
)

func TestTagRepository_CreateDefaultsColor(t *testing.T) {
	db := openSQLite(t)
	repo := repository.NewTagRepository(db)
	owner := createUser(t, db, "a@example.com")

	tag := &model.Tag{UserID: owner.ID, Name: "Work"}
	require.NoError(t, repo.Create(context.Background(), tag))

	got, err := repo.GetByID(context.Background(), owner.ID, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultTagColor, got.Color)
}

func TestTagRepository_OwnershipIsEnforced(t *testing.T) {
	db := openSQLite(t)
	repo := repository.NewTagRepository(db)
	ctx := context.Background()
	alice := createUser(t, db, "alice@example.com")
	bob := createUser(t, db, "bob@example.com")

	tag := &model.Tag{UserID: alice.ID, Name: "Private"}
	require.NoError(t, repo.Create(ctx, tag))

	_, err := repo.GetByID(ctx, bob.ID, tag.ID)
	assert.ErrorIs(t, err, repository.ErrTagNotFound)

	err = repo.Update(ctx, &model.Tag{ID: tag.ID, UserID: bob.ID, Name: "Stolen", Color: "#fff"})
	assert.ErrorIs(t, err, repository.ErrTagNotFound)

	err = repo.Delete(ctx, bob.ID, tag.ID)
	assert.ErrorIs(t, err, repository.ErrTagNotFound)

	got, err := repo.GetByID(ctx, alice.ID, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, "Private", got.Name)
}

func TestTagRepository_NameUniquePerOwner(t *testing.T) {
	db := openSQLite(t)
	repo := repository.NewTagRepository(db)
	ctx := context.Background()
	alice := createUser(t, db, "alice@example.com")
	bob := createUser(t, db, "bob@example.com")

	work := &model.Tag{UserID: alice.ID, Name: "Work"}
	require.NoError(t, repo.Create(ctx, work))

	taken, err := repo.NameTaken(ctx, alice.ID, "Work", uuid.Nil)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.NameTaken(ctx, alice.ID, "Work", work.ID)
	require.NoError(t, err)
	assert.False(t, taken, "a tag does not collide with itself")

	taken, err = repo.NameTaken(ctx, alice.ID, "work", uuid.Nil)
	require.NoError(t, err)
	assert.False(t, taken, "names are case-sensitive")

	taken, err = repo.NameTaken(ctx, bob.ID, "Work", uuid.Nil)
	require.NoError(t, err)
	assert.False(t, taken)
	require.NoError(t, repo.Create(ctx, &model.Tag{UserID: bob.ID, Name: "Work"}))

	err = repo.Create(ctx, &model.Tag{UserID: alice.ID, Name: "Work"})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestTagRepository_DeleteInUse(t *testing.T) {
	db := openSQLite(t)
	tags := repository.NewTagRepository(db)
	tasks := repository.NewTaskRepository(db)
	ctx := context.Background()
	owner := createUser(t, db, "a@example.com")

	used := &model.Tag{UserID: owner.ID, Name: "Used"}
	unused := &model.Tag{UserID: owner.ID, Name: "Unused"}
	require.NoError(t, tags.Create(ctx, used))
	require.NoError(t, tags.Create(ctx, unused))
	require.NoError(t, tasks.Create(ctx, &model.Task{UserID: owner.ID, Title: "t"}, []uuid.UUID{used.ID}))

	err := tags.Delete(ctx, owner.ID, used.ID)
	assert.ErrorIs(t, err, repository.ErrTagInUse)
	_, err = tags.GetByID(ctx, owner.ID, used.ID)
	assert.NoError(t, err)

	assert.NoError(t, tags.Delete(ctx, owner.ID, unused.ID))
	_, err = tags.GetByID(ctx, owner.ID, unused.ID)
	assert.ErrorIs(t, err, repository.ErrTagNotFound)
}

func TestTagRepository_ListSearchAndPaging(t *testing.T) {
	db := openSQLite(t)
	repo := repository.NewTagRepository(db)
	ctx := context.Background()
	owner := createUser(t, db, "a@example.com")
	other := createUser(t, db, "b@example.com")

	for i := 0; i < 12; i++ {
		require.NoError(t, repo.Create(ctx, &model.Tag{UserID: owner.ID, Name: fmt.Sprintf("tag-%02d", i)}))
	}
	require.NoError(t, repo.Create(ctx, &model.Tag{UserID: owner.ID, Name: "100%_done"}))
	require.NoError(t, repo.Create(ctx, &model.Tag{UserID: other.ID, Name: "tag-foreign"}))

	page, err := repo.List(ctx, owner.ID, "", repository.PageRequest{Page: 2, PerPage: 5})
	require.NoError(t, err)
	assert.EqualValues(t, 13, page.Total)
	assert.Len(t, page.Items, 5)
	assert.Equal(t, 2, page.Page)

	page, err = repo.List(ctx, owner.ID, "TAG-1", repository.PageRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	assert.Equal(t, repository.DefaultPerPage, page.PerPage)

	page, err = repo.List(ctx, owner.ID, "%_", repository.PageRequest{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1, "wildcards are matched literally")
	assert.Equal(t, "100%_done", page.Items[0].Name)
}

func TestTagRepository_ListNewestFirst(t *testing.T) {
	db := openSQLite(t)
	repo := repository.NewTagRepository(db)
	ctx := context.Background()
	owner := createUser(t, db, "a@example.com")

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	for _, hour := range []int{1, 3, 0, 2} {
		tag := &model.Tag{UserID: owner.ID, Name: fmt.Sprintf("tag-%d", hour), CreatedAt: base.Add(time.Duration(hour) * time.Hour)}
		require.NoError(t, repo.Create(ctx, tag))
	}

	page, err := repo.List(ctx, owner.ID, "", repository.PageRequest{})
	require.NoError(t, err)
	require.Len(t, page.Items, 4)

	names := make([]string, 0, len(page.Items))
	for _, tag := range page.Items {
		names = append(names, tag.Name)
	}
	assert.Equal(t, []string{"tag-3", "tag-2", "tag-1", "tag-0"}, names)
}

func TestTagRepository_OwnedIDs(t *testing.T) {
	db := openSQLite(t)
	repo := repository.NewTagRepository(db)
	ctx := context.Background()
	alice := createUser(t, db, "alice@example.com")
	bob := createUser(t, db, "bob@example.com")

	mine := &model.Tag{UserID: alice.ID, Name: "Mine"}
	theirs := &model.Tag{UserID: bob.ID, Name: "Theirs"}
	require.NoError(t, repo.Create(ctx, mine))
	require.NoError(t, repo.Create(ctx, theirs))

	owned, err := repo.OwnedIDs(ctx, alice.ID, []uuid.UUID{mine.ID, theirs.ID, uuid.New()})
	require.NoError(t, err)
	assert.True(t, owned[mine.ID])
	assert.False(t, owned[theirs.ID])
	assert.Len(t, owned, 1)
}
