// Command apiextractor serves the API URL extractor over HTTP and runs
// one-off captures and crawls from the terminal.
//
// Usage:
//
//	apiextractor serve [--config apiextract.yaml]
//	apiextractor extract [url]
//	apiextractor crawl [url]
//	apiextractor history
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gs := newGlobalState(ctx)
	if err := newRootCommand(gs).ExecuteContext(ctx); err != nil {
		printError(gs.stdErr, err)
		stop()
		os.Exit(1)
	}
}
