package command

import (
	"errors"
	"fmt"
)

// ErrEmptyProgram is returned when a Runner has no program name.
var ErrEmptyProgram = errors.New("program name cannot be empty")

// ExitError reports a program that launched but exited with a non-zero status.
// Launch failures are never wrapped in an ExitError.
type ExitError struct {
	Program string
	Status  int
	Stdout  []byte
	Stderr  []byte
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s failed with status code %d", e.Program, e.Status)
}

// IsExitError reports whether err is, or wraps, an *ExitError.
func IsExitError(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr)
}
