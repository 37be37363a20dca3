package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/testforge-dev/procrun/config"
	"github.com/testforge-dev/procrun/internal/execution"
	"github.com/testforge-dev/procrun/internal/execution/dispatcher"
	"github.com/testforge-dev/procrun/internal/handler/schema"
)

type ExecHandlerParams struct {
	fx.In

	Dispatcher dispatcher.Dispatcher
	Config     config.Config
	Schema     *schema.Schema
	Log        *zap.Logger
}

func NewExecHandler(params ExecHandlerParams) *ExecHandler {
	return &ExecHandler{
		dispatcher: params.Dispatcher,
		config:     params.Config,
		schema:     params.Schema,
		log:        params.Log,
	}
}

// ExecHandler accepts execute requests over HTTP, validates them and
// hands them to the dispatcher. The child's exit code is passed
// through in the response body, never mapped onto an HTTP status.
type ExecHandler struct {
	dispatcher dispatcher.Dispatcher
	config     config.Config
	schema     *schema.Schema
	log        *zap.Logger
}

type ExecuteRequest struct {
	WorkingDir string            `json:"working_dir"`
	Command    string            `json:"command"`
	Arguments  string            `json:"arguments"`
	Env        map[string]string `json:"env"`
	TimeoutMs  int               `json:"timeout_ms"`
}

type ExecuteResponse struct {
	ExitCode int    `json:"exit_code"`
	Output   string `json:"output"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *ExecHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
	)

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Check for authorization
	if h.config.Auth.Key != "" && r.Header.Get("api-key") != h.config.Auth.Key {
		log.Debug("unauthorized request")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	// Read the body
	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("failed to read body", zap.Error(err))
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	result, err := h.schema.Validate(body)
	if err != nil {
		log.Debug("failed to validate body", zap.Error(err))
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !result.Valid() {
		log.Debug("request rejected by schema",
			zap.Any("violations", result.Errors()),
		)
		writeError(w, http.StatusBadRequest, result.Errors()[0].String())
		return
	}

	var request ExecuteRequest
	if err := json.Unmarshal(body, &request); err != nil {
		log.Debug("failed to decode body", zap.Error(err))
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	timeout := time.Duration(request.TimeoutMs) * time.Millisecond
	if request.TimeoutMs == 0 {
		timeout = h.config.Exec.DefaultTimeout
	}

	res, err := h.dispatcher.Dispatch(r.Context(), execution.Request{
		Dir:     request.WorkingDir,
		Cmd:     request.Command,
		Args:    request.Arguments,
		Env:     request.Env,
		Timeout: timeout,
	})

	switch {
	case execution.IsTimeoutError(err):
		log.Info("execution timed out", zap.String("cmd", request.Command))
		writeError(w, http.StatusGatewayTimeout, err.Error())
		return
	case execution.IsLaunchError(err):
		log.Info("execution failed to launch", zap.String("cmd", request.Command))
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		log.Error("execution failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "execution failed")
		return
	}

	writeJSON(w, http.StatusOK, ExecuteResponse{
		ExitCode: res.ExitCode,
		Output:   res.Output,
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	// encode errors past this point can only be logged by the
	// caller, the status line is already on the wire
	_ = json.NewEncoder(w).Encode(body)
}
