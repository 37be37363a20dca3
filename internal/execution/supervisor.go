package execution

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// pollSliceCount is the number of slices a deadline is divided into.
// Each slice bounds the worst-case latency between the process exiting
// and the supervisor noticing.
const pollSliceCount = 20

// timeoutSupervisor drives the wait for a spawned process, enforcing
// an optional wall-clock deadline.
type timeoutSupervisor struct {
	log *zap.Logger
}

func newTimeoutSupervisor(log *zap.Logger) *timeoutSupervisor {
	return &timeoutSupervisor{
		log: log.Named("supervisor"),
	}
}

// WaitForExit blocks until the process has exited or the deadline has
// passed. A timeout of zero means no deadline. On deadline expiry the
// whole process tree is terminated before the method returns false.
// Cancelling ctx likewise terminates the tree and returns false.
func (s *timeoutSupervisor) WaitForExit(ctx context.Context, p *proc, timeout time.Duration) bool {
	if timeout <= 0 {
		return s.waitIndefinitely(ctx, p)
	}

	slice := pollSlice(timeout)

	var elapsed time.Duration
	for elapsed < timeout {
		select {
		case <-p.Done():
			return true
		case <-ctx.Done():
			s.terminate(p, "context cancelled")
			return false
		case <-time.After(slice):
			elapsed += slice
		}
	}

	// the process may exit in the same instant the final slice
	// fires; prefer the exit over a spurious timeout
	select {
	case <-p.Done():
		return true
	default:
	}

	s.terminate(p, "deadline expired")

	return false
}

func (s *timeoutSupervisor) waitIndefinitely(ctx context.Context, p *proc) bool {
	select {
	case <-p.Done():
		return true
	case <-ctx.Done():
		s.terminate(p, "context cancelled")
		return false
	}
}

func (s *timeoutSupervisor) terminate(p *proc, reason string) {
	s.log.With(
		zap.Int("pid", p.Pid()),
		zap.String("reason", reason),
	).Warn("terminating process tree")

	if err := p.Terminate(); err != nil {
		s.log.Error("failed to terminate process tree", zap.Error(err))
	}
}

// pollSlice computes the duration of one wait slice for the given
// deadline, with a floor of one millisecond to avoid busy-polling
// tiny timeouts.
func pollSlice(timeout time.Duration) time.Duration {
	slice := timeout / pollSliceCount
	if slice < time.Millisecond {
		slice = time.Millisecond
	}
	return slice
}
