package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/vidsim/internal/history"
	"github.com/five82/vidsim/internal/similarity"
	"github.com/five82/vidsim/internal/util"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent comparison results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := openHistory(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			entries, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if ctx.flags.json {
				return writeJSON(cmd, historyJSON(entries))
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No comparisons recorded yet.")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"When", "Source", "Reference", "Distorted", "SSIM", "Rating"},
				historyRows(entries),
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")
	return cmd
}

func historyRows(entries []history.Entry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		score := "-"
		rating := e.Rating
		if e.Score != nil {
			score = strconv.FormatFloat(*e.Score, 'f', 4, 64)
		} else if e.Error != "" {
			rating = "failed"
		}
		if r, err := similarity.ParseRating(e.Rating); err == nil {
			rating = r.Emoji() + " " + r.Label()
		}
		rows = append(rows, []string{
			e.CreatedAt.Local().Format(time.DateTime),
			titleCase(e.Source),
			util.GetFilename(e.Reference),
			util.GetFilename(e.Distorted),
			score,
			rating,
		})
	}
	return rows
}

type historyEntryJSON struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Source    string    `json:"source"`
	Reference string    `json:"reference"`
	Distorted string    `json:"distorted"`
	Score     *float64  `json:"score,omitempty"`
	Rating    string    `json:"rating,omitempty"`
	Error     string    `json:"error,omitempty"`
}

func historyJSON(entries []history.Entry) []historyEntryJSON {
	out := make([]historyEntryJSON, len(entries))
	for i, e := range entries {
		out[i] = historyEntryJSON(e)
	}
	return out
}
