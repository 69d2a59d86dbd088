package main

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/raysh454/apiextract/internal/store"
)

func getCmdHistory(gs *globalState) *cobra.Command {
	var limit int

	historyCmd := &cobra.Command{
		Use:   "history [from-id to-id]",
		Short: "List stored captures, or diff two of them",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return errors.New("expected no arguments or two capture IDs")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := gs.loadConfig()
			if err != nil {
				return err
			}
			if cfg.StorePath == "" {
				return errors.New("capture history is disabled, set APIEXTRACT_STORE_PATH")
			}
			st, err := store.Open(cfg.StorePath, nil)
			if err != nil {
				return err
			}
			defer st.Close()

			w := gs.stdOut
			if len(args) == 2 {
				d, err := st.Diff(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				printList(w, "+", succColor, d.Added)
				printList(w, "-", failColor, d.Removed)
				_, _ = fmt.Fprintf(w, "%d added, %d removed, %d unchanged\n",
					len(d.Added), len(d.Removed), len(d.Unchanged))
				return nil
			}

			recs, err := st.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, rec := range recs {
				_, _ = fmt.Fprintf(w, "%s  %-16s %s\n",
					valueColor.Sprint(rec.ID),
					grayColor.Sprint(humanize.Time(rec.StartedAt)),
					rec.Target)
			}
			return nil
		},
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of captures to list")
	return historyCmd
}
