package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/raysh454/apiextract/internal/app"
	"github.com/raysh454/apiextract/internal/logging"
)

type globalFlags struct {
	configPath string
	logLevel   string
	noColor    bool
}

// globalState carries everything a subcommand needs from the process, so the
// commands can be driven from tests with a buffer for output.
type globalState struct {
	ctx    context.Context
	stdOut io.Writer
	stdErr io.Writer
	flags  globalFlags
}

func newGlobalState(ctx context.Context) *globalState {
	return &globalState{
		ctx:    ctx,
		stdOut: os.Stdout,
		stdErr: os.Stderr,
	}
}

func newRootCommand(gs *globalState) *cobra.Command {
	root := &cobra.Command{
		Use:           "apiextractor",
		Short:         "Capture the API URLs a web page calls while it loads",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			applyColor(gs.flags.noColor)
		},
	}
	root.SetOut(gs.stdOut)
	root.SetErr(gs.stdErr)
	root.PersistentFlags().AddFlagSet(rootCmdPersistentFlagSet(gs))

	root.AddCommand(
		getCmdServe(gs),
		getCmdExtract(gs),
		getCmdCrawl(gs),
		getCmdHistory(gs),
	)
	return root
}

func rootCmdPersistentFlagSet(gs *globalState) *pflag.FlagSet {
	flags := pflag.NewFlagSet("", pflag.ContinueOnError)
	flags.SortFlags = false
	flags.StringVarP(&gs.flags.configPath, "config", "c", "", "YAML config file; APIEXTRACT_* environment variables override it")
	flags.StringVar(&gs.flags.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	flags.BoolVar(&gs.flags.noColor, "no-color", false, "disable colored output")
	return flags
}

// loadConfig reads the config file and environment, then applies flag overrides.
func (gs *globalState) loadConfig() (*app.Config, error) {
	cfg, err := app.LoadConfig(gs.flags.configPath)
	if err != nil {
		return nil, err
	}
	if gs.flags.logLevel != "" {
		cfg.LogLevel = gs.flags.logLevel
	}
	return cfg, nil
}

func (gs *globalState) logger(cfg *app.Config, component string) (*logging.ZapLogger, error) {
	logger, err := logging.New(cfg.LoggingConfig(), component)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	return logger, nil
}
