package cmd

import (
	"fmt"
	"strings"

	"github.com/testforge-dev/procrun/config"
	"github.com/testforge-dev/procrun/internal/execution"
	"github.com/testforge-dev/procrun/internal/shell"
	"github.com/testforge-dev/procrun/util/conf"
	"github.com/testforge-dev/procrun/util/logging"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// timeoutExitCode is returned when the command is killed on deadline
// expiry, matching the convention of timeout(1).
const timeoutExitCode = 124

var (
	execCmdDescription = `The exec command runs a single command to completion, captures
its combined stdout and stderr, and prints the captured output
once the command has exited. procrun exits with the command's
own exit code.

If a deadline is given and the command does not exit in time,
the whole process tree spawned by the command is terminated and
procrun exits with code 124.`
	execCmd = &cli.Command{
		Name:        "exec",
		Usage:       "Run a single command with a deadline.",
		ArgsUsage:   "<command> [args...]",
		Description: execCmdDescription,
		Action:      execAction,
		Flags: []cli.Flag{
			&cli.PathFlag{
				Name:     "dir",
				Usage:    "the working directory for the command.",
				Aliases:  []string{"C"},
				Category: "exec",
				EnvVars:  []string{"PROCRUN_DIR"},
			},
			&cli.StringSliceFlag{
				Name:     "env",
				Usage:    "environment variables to inject, as KEY=VALUE.",
				Aliases:  []string{"e"},
				Category: "exec",
				EnvVars:  []string{"PROCRUN_ENV"},
			},
			&cli.StringSliceFlag{
				Name:     "env-file",
				Usage:    "dotenv files with environment variables to inject.",
				Category: "exec",
				EnvVars:  []string{"PROCRUN_ENV_FILE"},
			},
			&cli.DurationFlag{
				Name:     "timeout",
				Usage:    "wall-clock deadline for the command. 0 waits indefinitely.",
				Aliases:  []string{"t"},
				Category: "exec",
				EnvVars:  []string{"PROCRUN_TIMEOUT"},
			},
		},
	}
)

func execAction(ctx *cli.Context) error {
	log, err := logging.LoggerFromContext(ctx.Context)
	if err != nil {
		return err
	}

	cfg, err := conf.GetConfigFromContext[config.Config](ctx.Context)
	if err != nil {
		return err
	}

	if ctx.Args().Len() == 0 {
		return fmt.Errorf("no command given")
	}

	env, err := collectEnv(ctx)
	if err != nil {
		return err
	}

	timeout := cfg.Exec.DefaultTimeout
	if ctx.IsSet("timeout") {
		timeout = ctx.Duration("timeout")
	}

	request := execution.Request{
		Dir:     ctx.Path("dir"),
		Cmd:     ctx.Args().First(),
		Args:    strings.Join(ctx.Args().Tail(), " "),
		Env:     env,
		Timeout: timeout,
	}

	executor := execution.NewExecutor(log)

	result, err := executor.Start(ctx.Context, request)
	if execution.IsTimeoutError(err) {
		log.Error("command timed out", zap.Error(err))
		return shell.NewExitError(timeoutExitCode)
	}
	if err != nil {
		return err
	}

	fmt.Print(result.Output)

	if result.ExitCode != 0 {
		return shell.NewExitError(result.ExitCode)
	}

	return nil
}

// collectEnv merges env files and explicit KEY=VALUE pairs into the
// injected environment. Explicit pairs win over file entries.
func collectEnv(ctx *cli.Context) (map[string]string, error) {
	env := map[string]string{}

	if files := ctx.StringSlice("env-file"); len(files) > 0 {
		fileEnv, err := conf.ParseEnvFiles(files...)
		if err != nil {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
		for k, v := range fileEnv {
			env[k] = v
		}
	}

	for _, pair := range ctx.StringSlice("env") {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid env entry %q, expected KEY=VALUE", pair)
		}
		env[key] = value
	}

	return env, nil
}

func init() {
	rootApp.Commands = append(rootApp.Commands, execCmd)
}
