package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"glyphcache/internal/catalog"
	"glyphcache/internal/config"
	"glyphcache/internal/export"
	"glyphcache/internal/imaging"
	"glyphcache/internal/logging"
	"glyphcache/internal/memguard"
	"glyphcache/internal/render"
	"glyphcache/internal/scaler"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var lengthFlag int
	var forceFlag bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the word catalog as annotated PNG images",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			lock := flock.New(filepath.Join(cfg.Paths.LogDir, "glyphcache-export.lock"))
			ok, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire export lock: %w", err)
			}
			if !ok {
				return fmt.Errorf("another export run is already in progress")
			}
			defer func() { _ = lock.Unlock() }()

			// Logs go to the log file only so progress output owns the terminal.
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			ledger, err := export.OpenLedger(cfg.Paths.CacheDir)
			if err != nil {
				return fmt.Errorf("open run ledger: %w", err)
			}
			defer ledger.Close()

			engine := buildEngine(cfg, ledger, logger)

			opts := export.RunOptions{Force: forceFlag}
			if cmd.Flags().Changed("length") {
				opts.LengthFilter = &lengthFlag
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			go func() {
				if _, ok := <-sigCh; ok {
					fmt.Fprintln(cmd.ErrOrStderr(), "cancellation requested; finishing current batch")
					engine.Cancel()
				}
			}()

			stopProgress := startProgress(engine)
			result, runErr := engine.Run(cmd.Context(), opts)
			stopProgress()
			signal.Stop(sigCh)
			close(sigCh)

			printRunResult(cmd, result)
			return runErr
		},
	}

	cmd.Flags().IntVar(&lengthFlag, "length", 0, "Export only words of this beat length")
	cmd.Flags().BoolVar(&forceFlag, "force", false, "Regenerate every output regardless of freshness")
	return cmd
}

func buildEngine(cfg *config.Config, ledger *export.Ledger, logger *slog.Logger) *export.Engine {
	validator := imaging.NewValidator(imaging.Limits{
		MaxFileBytes: int64(cfg.Validation.MaxFileMB) * 1024 * 1024,
		MaxDimension: cfg.Validation.MaxDimension,
	}, logger)
	sc := scaler.New(logger)
	renderer := render.NewFileRenderer(validator, logger)
	governor := memguard.NewGovernor(memguard.Config{
		CeilingMB: float64(cfg.Memory.CeilingMB),
		Pause:     time.Duration(cfg.Memory.PauseMillis) * time.Millisecond,
	}, logger)
	scanner := catalog.NewScanner(cfg.Paths.ImagesDir, logger)

	return export.NewEngine(export.Config{
		ExportDir:       cfg.Paths.ExportDir,
		BatchSize:       cfg.Export.BatchSize,
		TargetWidth:     cfg.Export.TargetWidth,
		TargetHeight:    cfg.Export.TargetHeight,
		CheckEveryItems: cfg.Memory.CheckEveryItems,
		Options: render.Options{
			AddWordLabel:       cfg.Export.AddWordLabel,
			AddAuthor:          cfg.Export.AddAuthor,
			AddDate:            cfg.Export.AddDate,
			AddBeatNumbers:     cfg.Export.AddBeatNumbers,
			AddReversalSymbols: cfg.Export.AddReversalSymbols,
			AddDifficultyLevel: cfg.Export.AddDifficultyLevel,
			Author:             cfg.Export.Author,
		},
	}, scanner, renderer, sc, governor, ledger, logger)
}

// startProgress polls the engine and drives a terminal progress bar. The bar
// is created once the scan has produced a total; non-terminal stderr stays
// silent. The returned func stops the poller.
func startProgress(engine *export.Engine) func() {
	if !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		return func() {}
	}

	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		var bar *progressbar.ProgressBar
		ticker := time.NewTicker(150 * time.Millisecond)
		defer ticker.Stop()
		for {
			processed, total := engine.Progress()
			if bar == nil && total > 0 {
				bar = progressbar.NewOptions64(total,
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionSetDescription("exporting"),
					progressbar.OptionShowCount(),
					progressbar.OptionClearOnFinish(),
				)
			}
			if bar != nil {
				_ = bar.Set64(processed)
			}
			select {
			case <-done:
				if bar != nil {
					_ = bar.Set64(processed)
					_ = bar.Finish()
				}
				return
			case <-ticker.C:
			}
		}
	}()
	return func() {
		close(done)
		<-finished
	}
}

func printRunResult(cmd *cobra.Command, result export.Result) {
	rows := [][]string{{
		result.RunID,
		result.State.String(),
		fmt.Sprintf("%d", result.Counters.Regenerated),
		fmt.Sprintf("%d", result.Counters.Skipped),
		fmt.Sprintf("%d", result.Counters.Failed),
		fmt.Sprintf("%d", result.Counters.Total),
		result.Duration.Round(time.Millisecond).String(),
	}}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Run", "Outcome", "Regenerated", "Skipped", "Failed", "Total", "Duration"},
		rows, 3, 4, 5, 6, 7))
}
