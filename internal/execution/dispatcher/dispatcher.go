// Package dispatcher bounds the number of concurrent command
// executions. Executions are fanned out over a pool of executor slots;
// a request blocks until a slot is free. Spawned processes themselves
// are never pooled or reused.
package dispatcher

import (
	"context"
	"fmt"

	"github.com/jackc/puddle/v2"
	"github.com/testforge-dev/procrun/internal/execution"
	"go.uber.org/zap"
)

const defaultMaxProcs = 4

// Dispatcher hands execution requests to an executor, subject to a
// concurrency limit.
type Dispatcher interface {
	Dispatch(ctx context.Context, req execution.Request) (execution.Result, error)
}

type PooledDispatcher struct {
	pool *puddle.Pool[*execution.Executor]
	log  *zap.Logger
}

var _ Dispatcher = (*PooledDispatcher)(nil)

type PooledDispatcherParams struct {
	// MaxProcs is the maximum number of concurrent executions
	MaxProcs int

	// Log is the logger to use for the dispatcher
	Log *zap.Logger
}

func NewPooledDispatcher(params PooledDispatcherParams) (*PooledDispatcher, error) {
	maxProcs := params.MaxProcs
	if maxProcs <= 0 {
		maxProcs = defaultMaxProcs
	}

	log := params.Log.Named("dispatcher")

	pool, err := puddle.NewPool(&puddle.Config[*execution.Executor]{
		Constructor: func(ctx context.Context) (*execution.Executor, error) {
			return execution.NewExecutor(log), nil
		},
		// puddle calls the destructor unconditionally on destroy, so it
		// must be non-nil; executors hold no resources to release.
		Destructor: func(*execution.Executor) {},
		MaxSize:    int32(maxProcs),
	})
	if err != nil {
		return nil, fmt.Errorf("error creating executor pool: %w", err)
	}

	return &PooledDispatcher{
		pool: pool,
		log:  log,
	}, nil
}

// Dispatch acquires an executor slot, runs the request to completion
// and releases the slot. It blocks while all slots are busy.
func (d *PooledDispatcher) Dispatch(
	ctx context.Context,
	req execution.Request,
) (execution.Result, error) {
	resource, err := d.pool.Acquire(ctx)
	if err != nil {
		return execution.Result{}, fmt.Errorf("error acquiring executor: %w", err)
	}
	defer resource.Release()

	return resource.Value().Start(ctx, req)
}

// Close tears down the pool. Pending acquisitions fail with
// puddle.ErrClosedPool.
func (d *PooledDispatcher) Close() {
	d.pool.Close()
}
