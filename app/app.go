package app

import (
	"github.com/testforge-dev/procrun/config"
	"github.com/testforge-dev/procrun/internal/shell"
	"github.com/testforge-dev/procrun/util/conf"
	"github.com/testforge-dev/procrun/util/logging"
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"
)

// New assembles the fx shell shared by the long-running modes, with
// the parsed config taken from the cli context.
func New(ctx *cli.Context) (*shell.Shell, error) {
	log, err := logging.LoggerFromContext(ctx.Context)
	if err != nil {
		return nil, err
	}

	config, err := conf.GetConfigFromContext[config.Config](ctx.Context)
	if err != nil {
		return nil, err
	}

	sharedModule := fx.Module(
		"shared",
		// provide global config
		fx.Supply(config),
	)

	return shell.New(log, sharedModule), nil
}
