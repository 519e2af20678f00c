package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"glyphcache/internal/catalog"
	"glyphcache/internal/scaler"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the image cache tiers",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheWarmCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache tier usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := quietLogger()
			if err != nil {
				return err
			}
			coordinator := newCoordinator(cfg, logger)

			out := cmd.OutOrStdout()
			snapshot := coordinator.Stats()
			rows := [][]string{
				{"raw (L1)", fmt.Sprintf("%d", snapshot.RawHits), fmt.Sprintf("%d", snapshot.RawMisses), fmt.Sprintf("%.1f%%", snapshot.RawHitRate()*100)},
				{"scaled (L2)", fmt.Sprintf("%d", snapshot.ScaledHits), fmt.Sprintf("%d", snapshot.ScaledMisses), fmt.Sprintf("%.1f%%", snapshot.ScaledHitRate()*100)},
				{"disk", fmt.Sprintf("%d", snapshot.DiskHits), fmt.Sprintf("%d", snapshot.DiskMisses), fmt.Sprintf("%.1f%%", snapshot.DiskHitRate()*100)},
			}
			fmt.Fprintln(out, renderTable([]string{"Tier", "Hits", "Misses", "Hit rate"}, rows, 2, 3, 4))

			fmt.Fprintf(out, "Disk tier enabled: %s\n", yesNo(cfg.Cache.DiskEnabled))
			if disk := coordinator.Disk(); disk != nil && disk.Root() != "" {
				entries, bytes := disk.Usage()
				fmt.Fprintf(out, "Disk entries: %d (%s) under %s\n", entries, humanBytes(bytes), disk.Root())
			}
			return nil
		},
	}
}

func newCacheWarmCommand(ctx *commandContext) *cobra.Command {
	var columnsFlag int

	cmd := &cobra.Command{
		Use:   "warm",
		Short: "Pre-scale the catalog into the disk cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := quietLogger()
			if err != nil {
				return err
			}

			coordinator := newCoordinator(cfg, logger)
			scanner := catalog.NewScanner(cfg.Paths.ImagesDir, logger)
			descriptors, err := scanner.Scan(cmd.Context())
			if err != nil {
				return fmt.Errorf("scan catalog: %w", err)
			}

			layout := scaler.Layout{
				ColumnsPerRow: columnsFlag,
				ViewWidth:     cfg.Display.ViewWidth,
				Margin:        cfg.Display.Margin,
			}
			for _, desc := range descriptors {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				coordinator.GetDisplayImage(desc.Path, 1.0, layout)
			}

			snapshot := coordinator.Stats()
			fmt.Fprintf(cmd.OutOrStdout(), "Warmed %d catalog items (%d already cached on disk)\n",
				len(descriptors), snapshot.DiskHits)
			return nil
		},
	}

	cmd.Flags().IntVar(&columnsFlag, "columns", 2, "Grid columns the cells are sized for")
	return cmd
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var diskFlag bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear the in-memory cache tiers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := quietLogger()
			if err != nil {
				return err
			}
			coordinator := newCoordinator(cfg, logger)

			out := cmd.OutOrStdout()
			rawEvicted, scaledEvicted := coordinator.ClearAll()
			coordinator.ResetStats()
			fmt.Fprintf(out, "Cleared in-memory tiers (raw: %d, scaled: %d)\n", rawEvicted, scaledEvicted)

			if !diskFlag {
				return nil
			}
			removed, err := coordinator.ClearDisk()
			if err != nil {
				return fmt.Errorf("clear disk tier: %w", err)
			}
			fmt.Fprintf(out, "Removed %d persisted entries from the disk tier\n", removed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&diskFlag, "disk", false, "Also remove persisted disk tier entries")
	return cmd
}
