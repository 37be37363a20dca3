package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/testforge-dev/procrun/config"
	"github.com/testforge-dev/procrun/internal/execution"
	"github.com/testforge-dev/procrun/internal/execution/dispatcher"
	"github.com/testforge-dev/procrun/internal/handler"
	"github.com/testforge-dev/procrun/internal/handler/schema"
)

func newHandler(t *testing.T, cfg config.Config) *handler.ExecHandler {
	t.Helper()

	s, err := schema.NewRequestSchema()
	require.NoError(t, err)

	d, err := dispatcher.NewPooledDispatcher(dispatcher.PooledDispatcherParams{
		MaxProcs: cfg.Exec.MaxProcs,
		Log:      zap.NewNop(),
	})
	require.NoError(t, err)

	t.Cleanup(d.Close)

	return handler.NewExecHandler(handler.ExecHandlerParams{
		Dispatcher: d,
		Config:     cfg,
		Schema:     s,
		Log:        zap.NewNop(),
	})
}

func execute(h http.Handler, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/execute", strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	return w
}

func TestExecHandler_RunsCommand(t *testing.T) {
	h := newHandler(t, config.Config{})

	w := execute(h, `{"command":"echo","arguments":"hello world"}`, nil)

	require.Equal(t, http.StatusOK, w.Code)

	var res struct {
		ExitCode int    `json:"exit_code"`
		Output   string `json:"output"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))

	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "hello world\n", res.Output)
}

func TestExecHandler_NonZeroExitCodeIsNotAnError(t *testing.T) {
	h := newHandler(t, config.Config{})

	w := execute(h, `{"command":"false"}`, nil)

	require.Equal(t, http.StatusOK, w.Code)

	var res struct {
		ExitCode int `json:"exit_code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))

	assert.Equal(t, 1, res.ExitCode)
}

func TestExecHandler_RejectsInvalidBody(t *testing.T) {
	h := newHandler(t, config.Config{})

	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "not json"},
		{name: "missing command", body: `{"arguments":"foo"}`},
		{name: "unknown field", body: `{"command":"echo","shell":true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := execute(h, tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestExecHandler_RejectsWrongMethod(t *testing.T) {
	h := newHandler(t, config.Config{})

	req := httptest.NewRequest(http.MethodGet, "/execute", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestExecHandler_TimeoutMapsToGatewayTimeout(t *testing.T) {
	h := newHandler(t, config.Config{})

	w := execute(h, `{"command":"sleep","arguments":"30","timeout_ms":100}`, nil)

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}

func TestExecHandler_LaunchFailureMapsToUnprocessable(t *testing.T) {
	h := newHandler(t, config.Config{})

	w := execute(h, `{"command":"definitely-not-a-real-binary"}`, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestExecHandler_DefaultTimeoutApplies(t *testing.T) {
	h := newHandler(t, config.Config{
		Exec: execution.Config{DefaultTimeout: 100 * time.Millisecond},
	})

	w := execute(h, `{"command":"sleep","arguments":"30"}`, nil)

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}

func TestExecHandler_Auth(t *testing.T) {
	h := newHandler(t, config.Config{
		Auth: config.AuthConfig{Key: "secret"},
	})

	w := execute(h, `{"command":"echo"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = execute(h, `{"command":"echo"}`, map[string]string{"api-key": "secret"})
	assert.Equal(t, http.StatusOK, w.Code)
}
