package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"glyphcache/internal/export"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limitFlag int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent export run history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			ledger, err := export.OpenLedger(cfg.Paths.CacheDir)
			if err != nil {
				return fmt.Errorf("open run ledger: %w", err)
			}
			defer ledger.Close()

			records, err := ledger.List(cmd.Context(), limitFlag)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No export runs recorded")
				return nil
			}

			const stampLayout = "2006-01-02 15:04:05"
			rows := make([][]string, 0, len(records))
			for _, record := range records {
				filter := "-"
				if record.LengthFilter != nil {
					filter = fmt.Sprintf("%d", *record.LengthFilter)
				}
				rows = append(rows, []string{
					shortID(record.RunID),
					record.StartedAt.Local().Format(stampLayout),
					record.Outcome,
					filter,
					yesNo(record.Force),
					fmt.Sprintf("%d", record.Regenerated),
					fmt.Sprintf("%d", record.Skipped),
					fmt.Sprintf("%d", record.Failed),
					fmt.Sprintf("%d", record.Total),
					record.FinishedAt.Sub(record.StartedAt).Round(time.Millisecond).String(),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Run", "Started", "Outcome", "Length", "Forced", "Regenerated", "Skipped", "Failed", "Total", "Duration"},
				rows, 4, 6, 7, 8, 9, 10))
			return nil
		},
	}

	cmd.Flags().IntVar(&limitFlag, "limit", 20, "Maximum number of runs to show (0 for all)")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
