package handler

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/testforge-dev/procrun/config"
	"github.com/testforge-dev/procrun/internal/execution"
	"github.com/testforge-dev/procrun/internal/execution/dispatcher"
)

type RpcServerParams struct {
	fx.In

	Dispatcher dispatcher.Dispatcher
	Config     config.Config
	Log        *zap.Logger
}

// NewRpcServer exposes the execute operation over JSON-RPC 2.0, as
// the "exec_execute" method. The server speaks the same wire shapes
// as the http handler.
func NewRpcServer(params RpcServerParams) (*rpc.Server, error) {
	server := rpc.NewServer()

	service := &ExecService{
		dispatcher: params.Dispatcher,
		config:     params.Config,
		log:        params.Log.Named("rpc"),
	}

	if err := server.RegisterName("exec", service); err != nil {
		return nil, err
	}

	return server, nil
}

// ExecService is the receiver backing the "exec" JSON-RPC namespace.
type ExecService struct {
	dispatcher dispatcher.Dispatcher
	config     config.Config
	log        *zap.Logger
}

// Execute runs a single command to completion and returns its exit
// code and captured output. Launch and timeout failures surface as
// JSON-RPC errors; a non-zero exit code does not.
func (s *ExecService) Execute(ctx context.Context, req ExecuteRequest) (ExecuteResponse, error) {
	timeout := time.Duration(req.TimeoutMs) * time.Millisecond
	if req.TimeoutMs == 0 {
		timeout = s.config.Exec.DefaultTimeout
	}

	res, err := s.dispatcher.Dispatch(ctx, execution.Request{
		Dir:     req.WorkingDir,
		Cmd:     req.Command,
		Args:    req.Arguments,
		Env:     req.Env,
		Timeout: timeout,
	})
	if err != nil {
		s.log.Info("rpc execution failed",
			zap.String("cmd", req.Command),
			zap.Error(err),
		)
		return ExecuteResponse{}, err
	}

	return ExecuteResponse{
		ExitCode: res.ExitCode,
		Output:   res.Output,
	}, nil
}
