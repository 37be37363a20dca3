package dispatcher_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testforge-dev/procrun/internal/execution"
	"github.com/testforge-dev/procrun/internal/execution/dispatcher"
	"go.uber.org/zap"
)

func TestPooledDispatcher_Dispatch(t *testing.T) {
	d, err := dispatcher.NewPooledDispatcher(dispatcher.PooledDispatcherParams{
		MaxProcs: 2,
		Log:      zap.NewNop(),
	})
	require.NoError(t, err)

	defer d.Close()

	res, err := d.Dispatch(context.Background(), execution.Request{
		Cmd:  "echo",
		Args: "hello",
	})
	require.NoError(t, err)

	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "hello\n", res.Output)
}

func TestPooledDispatcher_Dispatch_Concurrent(t *testing.T) {
	d, err := dispatcher.NewPooledDispatcher(dispatcher.PooledDispatcherParams{
		MaxProcs: 2,
		Log:      zap.NewNop(),
	})
	require.NoError(t, err)

	defer d.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			res, err := d.Dispatch(context.Background(), execution.Request{
				Cmd:  "echo",
				Args: "concurrent",
			})
			assert.NoError(t, err)
			assert.Equal(t, 0, res.ExitCode)
		}()
	}

	wg.Wait()
}

func TestPooledDispatcher_Dispatch_PropagatesErrors(t *testing.T) {
	d, err := dispatcher.NewPooledDispatcher(dispatcher.PooledDispatcherParams{
		MaxProcs: 1,
		Log:      zap.NewNop(),
	})
	require.NoError(t, err)

	defer d.Close()

	_, err = d.Dispatch(context.Background(), execution.Request{
		Cmd:     "sleep",
		Args:    "30",
		Timeout: 100 * time.Millisecond,
	})

	assert.True(t, execution.IsTimeoutError(err))
}
