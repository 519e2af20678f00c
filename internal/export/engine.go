package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"glyphcache/internal/catalog"
	"glyphcache/internal/logging"
	"glyphcache/internal/memguard"
	"glyphcache/internal/render"
	"glyphcache/internal/scaler"
)

// State is the engine's lifecycle position. Terminal states are final for a
// given run; Run resets to Scanning when invoked again.
type State int32

const (
	StateIdle State = iota
	StateScanning
	StateProcessing
	StateCompleted
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateProcessing:
		return "processing"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Counters is a point-in-time copy of the run tallies.
type Counters struct {
	Processed   int64
	Regenerated int64
	Skipped     int64
	Failed      int64
	Total       int64
}

// Config bounds one engine instance.
type Config struct {
	ExportDir       string
	BatchSize       int
	TargetWidth     int
	TargetHeight    int
	CheckEveryItems int
	Options         render.Options
}

// RunOptions select the work for one run.
type RunOptions struct {
	// LengthFilter keeps only words of this beat length when set.
	LengthFilter *int
	// Force regenerates every item regardless of staleness.
	Force bool
}

// Result is the final tally of one run.
type Result struct {
	RunID    string
	State    State
	Counters Counters
	Duration time.Duration
}

// Engine iterates the catalog in fixed-size batches, applying the staleness
// policy per item and isolating per-item failures. One Engine runs one job at
// a time on the caller's goroutine; Cancel and the progress getters are safe
// to call from other goroutines.
type Engine struct {
	cfg      Config
	scanner  *catalog.Scanner
	renderer render.Renderer
	scaler   *scaler.Scaler
	governor *memguard.Governor
	ledger   *Ledger
	logger   *slog.Logger

	state           atomic.Int32
	cancelRequested atomic.Bool

	processed   atomic.Int64
	regenerated atomic.Int64
	skipped     atomic.Int64
	failed      atomic.Int64
	total       atomic.Int64
}

// NewEngine wires an engine. The ledger may be nil to skip run history.
func NewEngine(cfg Config, scanner *catalog.Scanner, renderer render.Renderer, sc *scaler.Scaler, governor *memguard.Governor, ledger *Ledger, logger *slog.Logger) *Engine {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 15
	}
	if cfg.CheckEveryItems < 1 {
		cfg.CheckEveryItems = 5
	}
	if cfg.TargetWidth < 1 {
		cfg.TargetWidth = 1
	}
	if cfg.TargetHeight < 1 {
		cfg.TargetHeight = 1
	}
	return &Engine{
		cfg:      cfg,
		scanner:  scanner,
		renderer: renderer,
		scaler:   sc,
		governor: governor,
		ledger:   ledger,
		logger:   logging.NewComponentLogger(logger, "export"),
	}
}

// State returns the engine's current lifecycle position.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Cancel requests cooperative cancellation. The flag is observed between
// batches; the in-flight item completes first.
func (e *Engine) Cancel() {
	e.cancelRequested.Store(true)
}

// Progress returns processed and total item counts for progress reporting.
func (e *Engine) Progress() (processed, total int64) {
	return e.processed.Load(), e.total.Load()
}

// Counters returns a copy of the run tallies; readable at any time.
func (e *Engine) Counters() Counters {
	return Counters{
		Processed:   e.processed.Load(),
		Regenerated: e.regenerated.Load(),
		Skipped:     e.skipped.Load(),
		Failed:      e.failed.Load(),
		Total:       e.total.Load(),
	}
}

// Run executes one batch export job to a terminal state. Only a catalog scan
// failure is fatal; per-item errors are counted and the run continues.
func (e *Engine) Run(ctx context.Context, opts RunOptions) (Result, error) {
	runID := uuid.NewString()
	started := time.Now()
	logger := e.logger.With(logging.String(logging.FieldRunID, runID))

	e.resetCounters()
	e.cancelRequested.Store(false)
	e.state.Store(int32(StateScanning))

	descriptors, err := e.scanner.Scan(ctx)
	if err != nil {
		e.state.Store(int32(StateFailed))
		result := e.finish(ctx, logger, runID, started, opts)
		return result, fmt.Errorf("scan catalog: %w", err)
	}
	if opts.LengthFilter != nil {
		descriptors = catalog.FilterByLength(descriptors, *opts.LengthFilter)
	}
	e.total.Store(int64(len(descriptors)))

	logger.Info("export run started",
		logging.Int("item_count", len(descriptors)),
		logging.Int("batch_size", e.cfg.BatchSize),
		logging.Bool("force", opts.Force))

	e.state.Store(int32(StateProcessing))
	itemsSinceCheck := 0
	for start := 0; start < len(descriptors); start += e.cfg.BatchSize {
		end := min(start+e.cfg.BatchSize, len(descriptors))

		for _, desc := range descriptors[start:end] {
			if ctx.Err() != nil {
				break
			}
			e.processItem(ctx, logger, desc, opts.Force)
			itemsSinceCheck++
			if itemsSinceCheck >= e.cfg.CheckEveryItems {
				e.governor.MaybeCollect(ctx, false)
				itemsSinceCheck = 0
			}
		}

		// Batch boundary: force a collection pass, then observe cancellation.
		e.governor.MaybeCollect(ctx, true)
		if e.cancelRequested.Load() || ctx.Err() != nil {
			e.state.Store(int32(StateCancelled))
			return e.finish(ctx, logger, runID, started, opts), nil
		}
	}

	e.state.Store(int32(StateCompleted))
	return e.finish(ctx, logger, runID, started, opts), nil
}

func (e *Engine) processItem(ctx context.Context, logger *slog.Logger, desc catalog.SourceDescriptor, force bool) {
	if ctx.Err() != nil {
		return
	}

	outputPath := e.outputPath(desc)
	decision, reason := CheckStaleness(desc.Path, outputPath, force)
	if decision == DecisionSkip {
		e.skipped.Add(1)
		e.processed.Add(1)
		logger.Debug("skipped current output",
			logging.String(logging.FieldWord, desc.Word),
			logging.String("reason", reason))
		return
	}

	if err := e.regenerate(ctx, desc, outputPath); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// The batch boundary reports cancellation; the item is not counted.
			return
		}
		e.failed.Add(1)
		e.processed.Add(1)
		logging.ErrorWithContext(logger, "item export failed", "export_item_failed",
			logging.String(logging.FieldWord, desc.Word),
			logging.String(logging.FieldSourcePath, desc.Path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "item will be retried on the next run"))
		return
	}

	e.regenerated.Add(1)
	e.processed.Add(1)
	logger.Debug("regenerated output",
		logging.String(logging.FieldWord, desc.Word),
		logging.String("reason", reason))
}

func (e *Engine) regenerate(ctx context.Context, desc catalog.SourceDescriptor, outputPath string) error {
	img, err := e.renderer.Render(ctx, desc, e.cfg.Options)
	if err != nil {
		return err
	}

	scaled := e.scaler.ForExport(img, e.cfg.TargetWidth, e.cfg.TargetHeight)

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}

	srcInfo, err := os.Stat(desc.Path)
	if err != nil {
		return fmt.Errorf("fingerprint source: %w", err)
	}
	meta := Metadata{
		Sequence:          desc.Word,
		ExportOptions:     e.cfg.Options,
		ExportDate:        time.Now().UTC().Format(time.RFC3339),
		SourceMtimeUnixNs: srcInfo.ModTime().UnixNano(),
		SourceSize:        srcInfo.Size(),
	}
	data, err := meta.embedInto(buf.Bytes())
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("ensure output directory: %w", err)
	}
	tmp := fmt.Sprintf("%s.tmp-%d", outputPath, time.Now().UnixNano())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write output temp: %w", err)
	}
	if err := os.Rename(tmp, outputPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}

func (e *Engine) outputPath(desc catalog.SourceDescriptor) string {
	base := filepath.Base(desc.Path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(e.cfg.ExportDir, desc.Word, stem+".png")
}

func (e *Engine) finish(ctx context.Context, logger *slog.Logger, runID string, started time.Time, opts RunOptions) Result {
	finished := time.Now()
	counters := e.Counters()
	state := e.State()

	record := RunRecord{
		RunID:        runID,
		StartedAt:    started,
		FinishedAt:   finished,
		Outcome:      state.String(),
		LengthFilter: opts.LengthFilter,
		Force:        opts.Force,
		Processed:    counters.Processed,
		Regenerated:  counters.Regenerated,
		Skipped:      counters.Skipped,
		Failed:       counters.Failed,
		Total:        counters.Total,
	}
	if err := e.ledger.Record(context.WithoutCancel(ctx), record); err != nil {
		logging.WarnWithContext(logger, "failed to record export run", "ledger_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run will be missing from history"))
	}

	logger.Info("export run finished",
		logging.String("outcome", state.String()),
		logging.Int64("processed", counters.Processed),
		logging.Int64("regenerated", counters.Regenerated),
		logging.Int64("skipped", counters.Skipped),
		logging.Int64("failed", counters.Failed),
		logging.Int64("total", counters.Total),
		logging.Duration("duration", finished.Sub(started)))

	return Result{
		RunID:    runID,
		State:    state,
		Counters: counters,
		Duration: finished.Sub(started),
	}
}

func (e *Engine) resetCounters() {
	e.processed.Store(0)
	e.regenerated.Store(0)
	e.skipped.Store(0)
	e.failed.Store(0)
	e.total.Store(0)
}
