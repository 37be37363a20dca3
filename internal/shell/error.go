package shell

import (
	"errors"
	"fmt"
)

// ExitError carries the process exit code chosen by a command. It is
// also how a non-zero child exit code travels up to main without being
// treated as a failure.
type ExitError struct {
	ExitCode int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("shell exited with %d", e.ExitCode)
}

func NewExitError(exitCode int) *ExitError {
	return &ExitError{ExitCode: exitCode}
}

func ExitCode(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode, true
	}

	return 0, false
}

func IsExitError(err error) bool {
	_, ok := ExitCode(err)
	return ok
}
