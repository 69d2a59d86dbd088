package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/raysh454/apiextract/internal/app"
)

func getCmdCrawl(gs *globalState) *cobra.Command {
	var maxPages int

	crawlCmd := &cobra.Command{
		Use:   "crawl [url]",
		Short: "List the pages of a site that share its URL prefix",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := gs.loadConfig()
			if err != nil {
				return err
			}
			if maxPages > 0 {
				cfg.CrawlMaxPages = maxPages
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

			target := ""
			if len(args) == 1 {
				target = args[0]
			}
			res, err := orch.Crawl(cmd.Context(), target)
			if err != nil {
				return err
			}

			w := gs.stdOut
			printList(w, "+", succColor, res.Visited)
			printList(w, "x", failColor, res.Failed)
			_, _ = fmt.Fprintf(w, "%s %s visited, %s failed\n",
				valueColor.Sprint(humanize.Comma(int64(len(res.Visited)))),
				plural(len(res.Visited), "page", "pages"),
				humanize.Comma(int64(len(res.Failed))))
			return nil
		},
	}
	crawlCmd.Flags().IntVar(&maxPages, "max-pages", 0, "stop after this many pages, overrides CRAWL_MAX_PAGES")
	return crawlCmd
}
