package handler

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/testforge-dev/procrun/config"
	"github.com/testforge-dev/procrun/internal/execution/dispatcher"
	"github.com/testforge-dev/procrun/internal/handler/schema"
)

func Module() fx.Option {
	return fx.Module("handler",
		fx.Provide(schema.NewRequestSchema),
		fx.Provide(NewDispatcher),
		fx.Provide(NewExecHandler),
		fx.Provide(NewRpcServer),
		fx.Provide(NewExecuteRoute),
		fx.Provide(NewRpcRoute),
		fx.Provide(NewHealthRoute),
	)
}

func NewDispatcher(cfg config.Config, log *zap.Logger) (dispatcher.Dispatcher, error) {
	return dispatcher.NewPooledDispatcher(dispatcher.PooledDispatcherParams{
		MaxProcs: cfg.Exec.MaxProcs,
		Log:      log,
	})
}
