package execution

import (
	"bufio"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"
)

const (
	captureBufferSize  = 64 * 1024
	captureMaxLineSize = 1024 * 1024
)

// combinedOutput accumulates lines arriving from the stdout and stderr
// capture goroutines into one shared buffer. Appends are mutually
// exclusive, so a line from one stream is never interleaved with a line
// from the other. The relative order of lines between the two streams
// depends on arrival timing and is not defined.
type combinedOutput struct {
	mu  sync.Mutex
	buf strings.Builder
}

// appendLine appends a single line, with a trailing newline, to the
// combined buffer. Empty lines carry no data and are dropped.
func (o *combinedOutput) appendLine(line string) {
	if line == "" {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.buf.WriteString(line)
	o.buf.WriteByte('\n')
}

// String returns the accumulated output. Callers must not read it
// before the owning process has exited and its capture goroutines have
// drained.
func (o *combinedOutput) String() string {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.buf.String()
}

// consume reads r line by line until end of stream, appending each line
// to the combined buffer. It is run once per captured stream.
func (o *combinedOutput) consume(r io.Reader, log *zap.Logger) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, captureBufferSize), captureMaxLineSize)

	for scanner.Scan() {
		o.appendLine(scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		log.Error("failed to read from stream", zap.Error(err))
	}
}
