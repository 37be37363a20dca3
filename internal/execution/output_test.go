package execution

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestCombinedOutput_AppendLine(t *testing.T) {
	out := &combinedOutput{}

	out.appendLine("first")
	out.appendLine("second")

	assert.Equal(t, "first\nsecond\n", out.String())
}

func TestCombinedOutput_DropsEmptyLines(t *testing.T) {
	out := &combinedOutput{}

	out.appendLine("")
	out.appendLine("data")
	out.appendLine("")

	assert.Equal(t, "data\n", out.String())
}

func TestCombinedOutput_Consume_PreservesStreamOrder(t *testing.T) {
	out := &combinedOutput{}

	out.consume(strings.NewReader("a\nb\nc\n"), zap.NewNop())

	assert.Equal(t, "a\nb\nc\n", out.String())
}

func TestCombinedOutput_ConcurrentAppends(t *testing.T) {
	out := &combinedOutput{}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		out.consume(strings.NewReader(strings.Repeat("stdout-line\n", 100)), zap.NewNop())
	}()
	go func() {
		defer wg.Done()
		out.consume(strings.NewReader(strings.Repeat("stderr-line\n", 100)), zap.NewNop())
	}()

	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	assert.Len(t, lines, 200)

	// appends are mutually exclusive, every line must be intact
	for _, line := range lines {
		assert.Contains(t, []string{"stdout-line", "stderr-line"}, line)
	}
}
