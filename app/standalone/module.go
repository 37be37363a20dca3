package standalone

import (
	"go.uber.org/fx"

	"github.com/testforge-dev/procrun/internal/handler"
	"github.com/testforge-dev/procrun/internal/server"
	"github.com/testforge-dev/procrun/util/logging"
)

func Module(config Config) fx.Option {
	return fx.Module(
		"serve",
		// rename logger for module
		logging.DecorateLogger("serve"),
		// provide handlers
		handler.Module(),
		// provide server
		server.Module(config.HttpConfig),
	)
}
