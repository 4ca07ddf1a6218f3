// Package response builds the uniform JSON envelope every endpoint returns.
package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"todo/internal/apperror"
)

type Envelope struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Data       any         `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Errors     any         `json:"errors,omitempty"`
}

type Pagination struct {
	Total       int64 `json:"total"`
	PerPage     int   `json:"per_page"`
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
}

// LastPage is ceil(total/perPage), never below 1.
func LastPage(total int64, perPage int) int {
	if perPage <= 0 {
		return 1
	}
	last := int((total + int64(perPage) - 1) / int64(perPage))
	if last < 1 {
		return 1
	}
	return last
}

func Success(data any, message string) Envelope {
	if message == "" {
		message = "Success"
	}
	return Envelope{Success: true, Message: message, Data: data}
}

// Paginated wraps one page of already-mapped items with its pagination block.
func Paginated[R any](items []R, total int64, perPage, currentPage int, message string) Envelope {
	if items == nil {
		items = []R{}
	}
	env := Success(items, message)
	env.Pagination = &Pagination{
		Total:       total,
		PerPage:     perPage,
		CurrentPage: currentPage,
		LastPage:    LastPage(total, perPage),
	}
	return env
}

func Failure(message string, errs any) Envelope {
	if message == "" {
		message = "Error"
	}
	return Envelope{Success: false, Message: message, Errors: errs}
}

// FromError maps err to a status code and envelope. Unclassified errors are
// redacted to "Server Error" unless debug is set.
func FromError(err error, debug bool) (int, Envelope) {
	var appErr *apperror.Error
	if errors.As(err, &appErr) && appErr.Kind != apperror.KindUnclassified {
		status := apperror.Status(appErr.Kind)
		if appErr.Kind == apperror.KindValidation {
			return status, Failure(appErr.Message, appErr.Fields)
		}
		return status, Failure(appErr.Message, nil)
	}

	if !debug {
		return http.StatusInternalServerError, Failure("Server Error", nil)
	}

	details := map[string]any{"exception": fmt.Sprintf("%T", rootCause(err))}
	var panicErr *apperror.PanicError
	if errors.As(err, &panicErr) {
		details["file"] = panicErr.File
		details["line"] = panicErr.Line
		details["trace"] = panicErr.Stack
	}
	return http.StatusInternalServerError, Failure(err.Error(), details)
}

func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

// JSON writes a prepared envelope with status 200.
func JSON(c *gin.Context, env Envelope) {
	c.JSON(http.StatusOK, env)
}

func OK(c *gin.Context, data any, message string) {
	c.JSON(http.StatusOK, Success(data, message))
}

func Created(c *gin.Context, data any, message string) {
	c.JSON(http.StatusCreated, Success(data, message))
}

func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
