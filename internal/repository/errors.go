package repository

import "todo/internal/apperror"

// Common repository errors
var (
	// ErrTaskNotFound is returned when no task with the id is owned by the caller
	ErrTaskNotFound = apperror.NotFound("task")

	// ErrTagNotFound is returned when no tag with the id is owned by the caller
	ErrTagNotFound = apperror.NotFound("tag")

	// ErrUserNotFound is returned when a user lookup by id misses
	ErrUserNotFound = apperror.NotFound("user")

	// ErrTagInUse is returned when deleting a tag that is still attached to a task
	ErrTagInUse = apperror.Conflict("Cannot delete this tag because it is associated with one or more tasks")
)
