package execution

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidTimeout = errors.New("invalid timeout")
	ErrNoCommand      = errors.New("no command given")
)

// Request describes a single command invocation. The request is owned by
// the caller and is not mutated by the executor.
type Request struct {
	// Dir is the working directory in which
	// the command should be executed
	Dir string `conf:"dir"`

	// Cmd is the path or name of the binary to execute
	Cmd string `conf:"cmd"`

	// Args is the command line passed to the binary, as a single
	// string. It is split on whitespace; no shell quoting or
	// expansion is applied.
	Args string `conf:"args"`

	// Env is a map of environment variables to inject into the
	// spawned process. The parent environment is not touched.
	Env map[string]string `conf:"env"`

	// Timeout is the wall-clock deadline for the invocation.
	// Zero means wait indefinitely.
	Timeout time.Duration `conf:"timeout"`
}

// Result holds the outcome of a completed invocation.
type Result struct {
	// ExitCode is the exit code reported by the OS once the
	// process has terminated.
	ExitCode int

	// Output is the combined stdout and stderr of the process,
	// line by line in arrival order. Order is preserved within
	// each stream but not between the two streams.
	Output string
}

// LaunchError reports that the OS could not create the process.
type LaunchError struct {
	Cmd string
	Err error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %q: %v", e.Cmd, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

func IsLaunchError(err error) bool {
	var launchErr *LaunchError
	return errors.As(err, &launchErr)
}

// TimeoutError reports that the process did not exit before the
// deadline. By the time it is returned, the process tree has already
// been terminated.
type TimeoutError struct {
	Cmd     string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%q did not exit within %s", e.Cmd, e.Timeout)
}

func IsTimeoutError(err error) bool {
	var timeoutErr *TimeoutError
	return errors.As(err, &timeoutErr)
}
