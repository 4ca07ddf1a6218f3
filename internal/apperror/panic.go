package apperror

import "fmt"

// PanicError carries a recovered panic together with where it happened.
type PanicError struct {
	Value any
	File  string
	Line  int
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}
