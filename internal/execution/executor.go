package execution

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Config carries the executor defaults.
type Config struct {
	// DefaultTimeout is applied to requests that do not carry
	// their own deadline. Zero means no deadline.
	DefaultTimeout time.Duration `conf:"default_timeout"`

	// MaxProcs is the maximum number of concurrent executions
	// when the executor is driven by the pooled dispatcher.
	MaxProcs int `conf:"max_procs"`
}

// Executor runs a single command to completion, capturing its combined
// output and enforcing an optional wall-clock deadline. A call to Start
// blocks the caller for the whole invocation; the spawned process and
// its capture goroutines are released on every return path.
type Executor struct {
	supervisor *timeoutSupervisor
	log        *zap.Logger
}

func NewExecutor(log *zap.Logger) *Executor {
	log = log.Named("executor")

	return &Executor{
		supervisor: newTimeoutSupervisor(log),
		log:        log,
	}
}

// Start launches the requested command and blocks until it exits or
// the deadline passes. On success it returns the real exit code and
// the fully captured output; a non-zero exit code is ordinary data,
// not an error. It fails with a LaunchError if the OS cannot create
// the process, and with a TimeoutError if the deadline expires, in
// which case the process tree has already been terminated.
func (e *Executor) Start(ctx context.Context, req Request) (Result, error) {
	if req.Cmd == "" {
		return Result{}, &LaunchError{Cmd: req.Cmd, Err: ErrNoCommand}
	}

	if req.Timeout < 0 {
		return Result{}, fmt.Errorf("%w: %s", ErrInvalidTimeout, req.Timeout)
	}

	if err := checkDir(req.Dir); err != nil {
		return Result{}, &LaunchError{Cmd: req.Cmd, Err: err}
	}

	// exit early if the context is already cancelled
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	args := splitArgs(req.Args)

	e.log.With(
		zap.String("cmd", req.Cmd),
		zap.Strings("args", args),
		zap.String("dir", req.Dir),
		zap.Duration("timeout", req.Timeout),
	).Debug("starting process")

	process, err := startProc(launchConfig{
		cmd:  req.Cmd,
		args: args,
		dir:  req.Dir,
		env:  req.Env,
	}, e.log)
	if err != nil {
		return Result{}, &LaunchError{Cmd: req.Cmd, Err: err}
	}

	if !e.supervisor.WaitForExit(ctx, process, req.Timeout) {
		// the tree has already been brought down, report why
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		return Result{}, &TimeoutError{Cmd: req.Cmd, Timeout: req.Timeout}
	}

	return Result{
		ExitCode: process.ExitCode(),
		Output:   process.Output(),
	}, nil
}

// splitArgs splits the single argument string on whitespace. There is
// no shell involved, so no quoting or expansion is applied.
func splitArgs(args string) []string {
	return strings.Fields(args)
}

func checkDir(dir string) error {
	if dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return fmt.Errorf("working directory %q is not a directory", dir)
	}

	return nil
}
