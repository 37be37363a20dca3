package execution_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testforge-dev/procrun/internal/execution"
	"github.com/testforge-dev/procrun/util"
	"go.uber.org/zap"
)

// writeScript drops an executable shell script into a temp dir, so
// tests can run multi-statement commands without any shell quoting in
// the argument string.
func writeScript(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "script.sh")

	err := os.WriteFile(path, []byte("#!/bin/sh\n"+content), 0o755)
	require.NoError(t, err)

	return path
}

func TestExecutor_Start_ReturnsExitCode(t *testing.T) {
	e := execution.NewExecutor(zap.NewNop())

	script := writeScript(t, "exit 42\n")

	res, err := e.Start(context.Background(), execution.Request{Cmd: script})
	require.NoError(t, err)

	assert.Equal(t, 42, res.ExitCode)
}

func TestExecutor_Start_CapturesBothStreams(t *testing.T) {
	e := execution.NewExecutor(zap.NewNop())

	script := writeScript(t, `
echo stdout-1
echo stdout-2
echo stderr-1 1>&2
echo stdout-3
echo stderr-2 1>&2
`)

	res, err := e.Start(context.Background(), execution.Request{Cmd: script})
	require.NoError(t, err)

	lines := []string{"stdout-1", "stdout-2", "stdout-3", "stderr-1", "stderr-2"}

	// every line appears exactly once
	for _, line := range lines {
		assert.Equal(t, 1, strings.Count(res.Output, line+"\n"), "line %q", line)
	}

	// relative order is preserved within each stream
	assert.Less(t,
		strings.Index(res.Output, "stdout-1"),
		strings.Index(res.Output, "stdout-2"))
	assert.Less(t,
		strings.Index(res.Output, "stdout-2"),
		strings.Index(res.Output, "stdout-3"))
	assert.Less(t,
		strings.Index(res.Output, "stderr-1"),
		strings.Index(res.Output, "stderr-2"))
}

func TestExecutor_Start_PassesArguments(t *testing.T) {
	e := execution.NewExecutor(zap.NewNop())

	res, err := e.Start(context.Background(), execution.Request{
		Cmd:  "echo",
		Args: "hello world",
	})
	require.NoError(t, err)

	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "hello world\n", res.Output)
}

func TestExecutor_Start_UsesWorkingDirectory(t *testing.T) {
	e := execution.NewExecutor(zap.NewNop())

	dir := t.TempDir()

	res, err := e.Start(context.Background(), execution.Request{
		Cmd: "pwd",
		Dir: dir,
	})
	require.NoError(t, err)

	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)

	assert.Equal(t, resolved, strings.TrimSpace(res.Output))
}

func TestExecutor_Start_NoDeadlineWaitsForExit(t *testing.T) {
	e := execution.NewExecutor(zap.NewNop())

	script := writeScript(t, "sleep 0.2\nexit 3\n")

	res, err := e.Start(context.Background(), execution.Request{
		Cmd:     script,
		Timeout: 0,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, res.ExitCode)
}

func TestExecutor_Start_TimeoutKillsProcessTree(t *testing.T) {
	e := execution.NewExecutor(zap.NewNop())

	pidFile := filepath.Join(t.TempDir(), "grandchild.pid")

	script := writeScript(t, fmt.Sprintf("sleep 30 &\necho $! > %s\nwait\n", pidFile))

	start := time.Now()

	_, err := e.Start(context.Background(), execution.Request{
		Cmd:     script,
		Timeout: 200 * time.Millisecond,
	})

	require.Error(t, err)
	assert.True(t, execution.IsTimeoutError(err))

	// the deadline hit must be detected promptly, not after the
	// child would have exited on its own
	assert.Less(t, time.Since(start), 5*time.Second)

	data, err := os.ReadFile(pidFile)
	require.NoError(t, err)

	grandchild, err := strconv.Atoi(strings.TrimSpace(string(data)))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return !util.IsProcessAlive(grandchild)
	}, 2*time.Second, 10*time.Millisecond, "descendant survived the timeout")
}

func TestExecutor_Start_EnvIsProcessLocal(t *testing.T) {
	e := execution.NewExecutor(zap.NewNop())

	const key = "PROCRUN_TEST_MARKER"

	script := writeScript(t, "echo marker=$"+key+"\n")

	res, err := e.Start(context.Background(), execution.Request{
		Cmd: script,
		Env: map[string]string{key: "injected-value"},
	})
	require.NoError(t, err)

	// the child sees the variable
	assert.Contains(t, res.Output, "marker=injected-value")

	// the parent does not
	_, ok := os.LookupEnv(key)
	assert.False(t, ok)
}

func TestExecutor_Start_EnvOverridesInherited(t *testing.T) {
	e := execution.NewExecutor(zap.NewNop())

	const key = "PROCRUN_TEST_INHERITED"

	t.Setenv(key, "parent-value")

	script := writeScript(t, "echo marker=$"+key+"\n")

	res, err := e.Start(context.Background(), execution.Request{
		Cmd: script,
		Env: map[string]string{key: "child-value"},
	})
	require.NoError(t, err)

	assert.Contains(t, res.Output, "marker=child-value")
}

func TestExecutor_Start_LaunchErrorForMissingBinary(t *testing.T) {
	e := execution.NewExecutor(zap.NewNop())

	_, err := e.Start(context.Background(), execution.Request{
		Cmd: "definitely-not-a-real-binary",
	})

	require.Error(t, err)
	assert.True(t, execution.IsLaunchError(err))
	assert.False(t, execution.IsTimeoutError(err))
}

func TestExecutor_Start_LaunchErrorForMissingDir(t *testing.T) {
	e := execution.NewExecutor(zap.NewNop())

	_, err := e.Start(context.Background(), execution.Request{
		Cmd: "echo",
		Dir: "/definitely/not/a/real/dir",
	})

	require.Error(t, err)
	assert.True(t, execution.IsLaunchError(err))
}

func TestExecutor_Start_LaunchErrorForEmptyCommand(t *testing.T) {
	e := execution.NewExecutor(zap.NewNop())

	_, err := e.Start(context.Background(), execution.Request{})

	require.Error(t, err)
	assert.True(t, execution.IsLaunchError(err))
	assert.ErrorIs(t, err, execution.ErrNoCommand)
}

func TestExecutor_Start_RejectsNegativeTimeout(t *testing.T) {
	e := execution.NewExecutor(zap.NewNop())

	_, err := e.Start(context.Background(), execution.Request{
		Cmd:     "echo",
		Timeout: -time.Second,
	})

	assert.ErrorIs(t, err, execution.ErrInvalidTimeout)
}

func TestExecutor_Start_FailsIfContextCancelled(t *testing.T) {
	e := execution.NewExecutor(zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Start(ctx, execution.Request{Cmd: "echo"})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecutor_Start_SequentialRunsDoNotLeak(t *testing.T) {
	e := execution.NewExecutor(zap.NewNop())

	runs := 2000
	if testing.Short() {
		runs = 50
	}

	for i := 0; i < runs; i++ {
		res, err := e.Start(context.Background(), execution.Request{
			Cmd:  "echo",
			Args: "run",
		})
		require.NoError(t, err)
		require.Equal(t, 0, res.ExitCode)
	}
}
