package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"glyphcache/internal/catalog"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	var lengthFlag int

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the words discovered in the images directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := quietLogger()
			if err != nil {
				return err
			}

			scanner := catalog.NewScanner(cfg.Paths.ImagesDir, logger)
			descriptors, err := scanner.Scan(cmd.Context())
			if err != nil {
				return fmt.Errorf("scan catalog: %w", err)
			}
			if cmd.Flags().Changed("length") {
				descriptors = catalog.FilterByLength(descriptors, lengthFlag)
			}

			words := catalog.Words(descriptors)
			if len(words) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No words found")
				return nil
			}

			rows := make([][]string, 0, len(words))
			for _, word := range words {
				rows = append(rows, []string{
					catalog.DisplayWord(word.Word),
					fmt.Sprintf("%d", word.Length),
					fmt.Sprintf("%d", word.Items),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Word", "Beats", "Items"}, rows, 2, 3))
			fmt.Fprintf(cmd.OutOrStdout(), "%d words, %d items\n", len(words), len(descriptors))
			return nil
		},
	}

	cmd.Flags().IntVar(&lengthFlag, "length", 0, "Show only words of this beat length")
	return cmd
}
