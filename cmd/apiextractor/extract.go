package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/raysh454/apiextract/internal/app"
	"github.com/raysh454/apiextract/internal/capture"
)

func getCmdExtract(gs *globalState) *cobra.Command {
	var asJSON bool

	extractCmd := &cobra.Command{
		Use:   "extract [url]",
		Short: "Capture the API URLs of one page",
		Long: `Capture the API URLs of one page.

  The page is loaded in headless Chrome and every XHR/fetch URL that starts
  with the page URL is printed. Without an argument the configured base URL
  is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := gs.loadConfig()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.BaseURL = args[0]
			}
			logger, err := gs.logger(cfg, "apiextractor")
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			orch, err := app.Build(cfg, logger)
			if err != nil {
				return err
			}
			defer orch.Close()

			rec, err := orch.Extract(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(gs.stdOut)
				enc.SetIndent("", "  ")
				return enc.Encode(rec)
			}
			printCapture(gs, rec)
			return nil
		},
	}
	extractCmd.Flags().BoolVar(&asJSON, "json", false, "print the capture record as JSON")
	return extractCmd
}

func printCapture(gs *globalState, rec *capture.Record) {
	w := gs.stdOut
	_, _ = fmt.Fprintf(w, "%s %s\n", grayColor.Sprint("page"), valueColor.Sprint(rec.Target))
	printList(w, "+", succColor, rec.URLs)
	_, _ = fmt.Fprintf(w, "%s API %s from %s requests and %s responses in %s\n",
		valueColor.Sprint(humanize.Comma(int64(len(rec.URLs)))),
		plural(len(rec.URLs), "URL", "URLs"),
		humanize.Comma(int64(rec.Requests)),
		humanize.Comma(int64(rec.Responses)),
		(time.Duration(rec.DurationMS) * time.Millisecond).String())
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
