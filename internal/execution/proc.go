package execution

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// killGracePeriod is how long a process tree is given to exit after a
// graceful termination request before it is killed forcefully.
const killGracePeriod = 60 * time.Millisecond

// proc owns a single spawned OS process together with its two output
// capture goroutines. It is created, used and released within one
// Start call and never shared beyond that.
type proc struct {
	pid int
	cmd *exec.Cmd

	output  *combinedOutput
	capture sync.WaitGroup

	// done is closed once the process has been reaped and both
	// capture goroutines have drained. exitCode is only valid
	// after done is closed.
	done     chan struct{}
	exitCode int

	log *zap.Logger
}

type launchConfig struct {
	cmd  string
	args []string
	dir  string
	env  map[string]string
}

// startProc spawns the process described by config, redirecting its
// stdout and stderr into a shared combined buffer. The child inherits
// the parent environment with the configured variables appended, so an
// injected variable wins over an inherited one of the same name.
func startProc(config launchConfig, log *zap.Logger) (*proc, error) {
	cmd := exec.Command(config.cmd, config.args...)

	if config.dir != "" {
		cmd.Dir = config.dir
	}

	if len(config.env) > 0 {
		env := os.Environ()
		for k, v := range config.env {
			env = append(env, fmt.Sprintf("%s=%s", k, v))
		}
		cmd.Env = env
	}

	stdout, stderr, err := openPipes(cmd)
	if err != nil {
		return nil, err
	}

	// place the child in its own process group, so the whole
	// tree can be signalled on timeout
	initCmd(cmd)

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	log = log.Named("proc").With(zap.Int("pid", cmd.Process.Pid))

	process := &proc{
		pid:    cmd.Process.Pid,
		cmd:    cmd,
		output: &combinedOutput{},
		done:   make(chan struct{}),
		log:    log,
	}

	process.capture.Add(2)
	go func() {
		defer process.capture.Done()
		process.output.consume(stdout, log)
	}()
	go func() {
		defer process.capture.Done()
		process.output.consume(stderr, log)
	}()

	go func() {
		// drain both streams before reaping; cmd.Wait closes
		// the pipes once the process has exited
		process.capture.Wait()

		err := cmd.Wait()
		process.exitCode = exitStatus(err)

		log.Debug("process exited", zap.Int("exit_code", process.exitCode))

		close(process.done)
	}()

	return process, nil
}

// openPipes attaches capture pipes to both output streams. If the
// stderr pipe cannot be attached the stdout pipe is closed again, so a
// failed launch never leaks descriptors.
func openPipes(cmd *exec.Cmd) (stdout, stderr io.ReadCloser, err error) {
	stdout, err = cmd.StdoutPipe()
	if err != nil {
		return nil, nil, err
	}

	stderr, err = cmd.StderrPipe()
	if err != nil {
		stdout.Close()
		return nil, nil, err
	}

	return stdout, stderr, nil
}

// Pid returns the OS process id of the child.
func (p *proc) Pid() int {
	return p.pid
}

// Done returns a channel that is closed once the process has exited
// and its output has been fully captured.
func (p *proc) Done() <-chan struct{} {
	return p.done
}

// ExitCode returns the exit code of the process. Only valid after
// Done is closed.
func (p *proc) ExitCode() int {
	return p.exitCode
}

// Output returns the combined captured output. Only valid after Done
// is closed.
func (p *proc) Output() string {
	return p.output.String()
}

// Wait blocks until the process has exited and its output is complete.
func (p *proc) Wait() {
	<-p.done
}

// WaitFor blocks until the process has exited, or until timeout has
// passed. It reports whether the process exited in time.
func (p *proc) WaitFor(timeout time.Duration) bool {
	select {
	case <-p.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Terminate brings down the process and all of its descendants. It
// first requests a graceful stop, waits up to killGracePeriod, then
// escalates to a forceful kill and blocks until the process has been
// reaped. A process that is already gone counts as success.
func (p *proc) Terminate() error {
	select {
	case <-p.done:
		p.log.Debug("process already terminated")
		return nil
	default:
		// continue
	}

	p.signalTree(false)

	if p.WaitFor(killGracePeriod) {
		return nil
	}

	p.signalTree(true)

	p.Wait()

	return nil
}

// signalTree delivers a termination signal to the child's process
// group, best effort.
func (p *proc) signalTree(force bool) {
	log := p.log.With(zap.Bool("force", force))

	log.Info("terminating process tree")

	if err := p.killTree(force); err != nil {
		log.Error("failed to signal process tree", zap.Error(err))
	}
}

// exitStatus decodes the error returned by exec.Cmd.Wait into an
// integer exit code. A process killed by a signal is reported as
// 128+signo, following shell convention.
func exitStatus(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			if status.Signaled() {
				return 128 + int(status.Signal())
			}
			return status.ExitStatus()
		}
	}

	// could not determine the exit status, report a failure
	return 1
}
