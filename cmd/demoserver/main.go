// Command demoserver starts a demo site whose pages call same-origin JSON
// APIs, for trying the extractor locally.
// Usage: go run ./cmd/demoserver [--port 9999] [--version 1]
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/raysh454/apiextract/internal/demoserver"
	"github.com/raysh454/apiextract/internal/logging"
)

func main() {
	cfg := demoserver.DefaultConfig()

	flags := pflag.NewFlagSet("demoserver", pflag.ExitOnError)
	flags.IntVarP(&cfg.Port, "port", "p", cfg.Port, "port to listen on")
	flags.IntVar(&cfg.InitialVersion, "version", cfg.InitialVersion, "page version served at startup")
	flags.StringVar(&cfg.ThirdPartyURL, "third-party", cfg.ThirdPartyURL, "URL every page fetches outside the site")
	_ = flags.Parse(os.Args[1:])

	logCfg := logging.DefaultConfig()
	logCfg.Development = true
	logger, err := logging.New(logCfg, "demoserver")
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Port < 1 || cfg.Port > 65535 {
		logger.Error("invalid port", logging.Field{Key: "port", Value: cfg.Port})
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := demoserver.NewDemoServer(cfg, logger).Start(ctx); err != nil {
		logger.Error("server error", logging.Field{Key: "error", Value: err.Error()})
		stop()
		os.Exit(1)
	}
}
