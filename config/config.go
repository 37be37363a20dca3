package config

import (
	"github.com/testforge-dev/procrun/internal/execution"
	"github.com/testforge-dev/procrun/util/conf"
)

type AuthConfig struct {
	// Key is the api key required on incoming requests.
	// An empty key disables authentication.
	Key string `conf:"key"`
}

type Config struct {
	// LogLevel is the log level for the application
	LogLevel string `conf:"log_level"`

	// LogFormat is the log format for the application
	LogFormat string `conf:"log_format"`

	// Auth configures request authentication for serve and
	// lambda mode
	Auth AuthConfig `conf:"auth"`

	// Exec configures the command executor
	Exec execution.Config `conf:"exec"`
}

var DefaultConfig = conf.DefaultConfig{
	"log_level":            "info",
	"log_format":           "production",
	"exec.default_timeout": "0s",
	"exec.max_procs":       4,
}
