package export_test

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"glyphcache/internal/catalog"
	"glyphcache/internal/export"
	"glyphcache/internal/imaging"
	"glyphcache/internal/logging"
	"glyphcache/internal/memguard"
	"glyphcache/internal/render"
	"glyphcache/internal/scaler"
	"glyphcache/internal/testsupport"
)

type engineFixture struct {
	imagesDir string
	exportDir string
	ledger    *export.Ledger
	engine    *export.Engine
}

func newEngineFixture(t *testing.T, batchSize int, renderer render.Renderer) *engineFixture {
	t.Helper()

	base := t.TempDir()
	fixture := &engineFixture{
		imagesDir: filepath.Join(base, "images"),
		exportDir: filepath.Join(base, "export"),
	}
	if err := os.MkdirAll(fixture.imagesDir, 0o755); err != nil {
		t.Fatalf("mkdir images: %v", err)
	}

	ledger, err := export.OpenLedger(filepath.Join(base, "cache"))
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	t.Cleanup(func() { ledger.Close() })
	fixture.ledger = ledger

	logger := logging.NewNop()
	validator := imaging.NewValidator(imaging.Limits{MaxFileBytes: 10 << 20, MaxDimension: 4096}, logger)
	if renderer == nil {
		renderer = render.NewFileRenderer(validator, logger)
	}
	governor := memguard.NewGovernor(memguard.Config{CeilingMB: 100000, Pause: time.Millisecond}, logger)
	scanner := catalog.NewScanner(fixture.imagesDir, logger)

	fixture.engine = export.NewEngine(export.Config{
		ExportDir:       fixture.exportDir,
		BatchSize:       batchSize,
		TargetWidth:     64,
		TargetHeight:    64,
		CheckEveryItems: 2,
		Options:         render.Options{AddWordLabel: true},
	}, scanner, renderer, scaler.New(logger), governor, ledger, logger)
	return fixture
}

func (f *engineFixture) addItem(t *testing.T, word, name string) string {
	t.Helper()
	path := filepath.Join(f.imagesDir, word, name)
	testsupport.WritePNG(t, path, 48, 48)
	return path
}

func (f *engineFixture) outputFor(word, name string) string {
	stem := name[:len(name)-len(filepath.Ext(name))]
	return filepath.Join(f.exportDir, word, stem+".png")
}

func TestEngineRunCompletes(t *testing.T) {
	fixture := newEngineFixture(t, 2, nil)
	fixture.addItem(t, "AB", "v1.png")
	fixture.addItem(t, "AB", "v2.png")
	fixture.addItem(t, "CD", "v1.png")

	result, err := fixture.engine.Run(context.Background(), export.RunOptions{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.State != export.StateCompleted {
		t.Fatalf("expected completed, got %s", result.State)
	}
	if result.Counters.Total != 3 || result.Counters.Regenerated != 3 || result.Counters.Failed != 0 {
		t.Fatalf("unexpected counters: %+v", result.Counters)
	}
	if result.Counters.Processed != result.Counters.Regenerated+result.Counters.Skipped+result.Counters.Failed {
		t.Fatalf("tally invariant broken: %+v", result.Counters)
	}

	meta, err := export.ReadMetadata(fixture.outputFor("AB", "v1.png"))
	if err != nil {
		t.Fatalf("read metadata: %v", err)
	}
	if meta.Sequence != "AB" {
		t.Fatalf("unexpected sequence: %q", meta.Sequence)
	}
	if !meta.ExportOptions.AddWordLabel {
		t.Fatal("expected render options to survive the round trip")
	}
	if meta.SourceMtimeUnixNs == 0 || meta.SourceSize == 0 {
		t.Fatal("expected source fingerprint in metadata")
	}

	records, err := fixture.ledger.List(context.Background(), 0)
	if err != nil || len(records) != 1 {
		t.Fatalf("expected one ledger record: %v %v", records, err)
	}
	if records[0].RunID != result.RunID || records[0].Outcome != "completed" {
		t.Fatalf("unexpected ledger record: %+v", records[0])
	}
}

func TestEngineSecondRunSkips(t *testing.T) {
	fixture := newEngineFixture(t, 2, nil)
	fixture.addItem(t, "AB", "v1.png")
	fixture.addItem(t, "CD", "v1.png")

	if _, err := fixture.engine.Run(context.Background(), export.RunOptions{}); err != nil {
		t.Fatalf("first run: %v", err)
	}
	result, err := fixture.engine.Run(context.Background(), export.RunOptions{})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if result.Counters.Skipped != 2 || result.Counters.Regenerated != 0 {
		t.Fatalf("expected all skips on unchanged catalog: %+v", result.Counters)
	}

	forced, err := fixture.engine.Run(context.Background(), export.RunOptions{Force: true})
	if err != nil {
		t.Fatalf("forced run: %v", err)
	}
	if forced.Counters.Regenerated != 2 {
		t.Fatalf("expected force to regenerate everything: %+v", forced.Counters)
	}
}

func TestEngineIsolatesItemFailures(t *testing.T) {
	fixture := newEngineFixture(t, 2, nil)
	fixture.addItem(t, "AB", "good1.png")
	fixture.addItem(t, "CD", "good2.png")
	testsupport.WriteFile(t, filepath.Join(fixture.imagesDir, "XY", "corrupt.png"), 64)

	result, err := fixture.engine.Run(context.Background(), export.RunOptions{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.State != export.StateCompleted {
		t.Fatalf("one bad item must not fail the run, got %s", result.State)
	}
	if result.Counters.Failed != 1 || result.Counters.Regenerated != 2 {
		t.Fatalf("unexpected counters: %+v", result.Counters)
	}
	if _, err := os.Stat(fixture.outputFor("XY", "corrupt.png")); !os.IsNotExist(err) {
		t.Fatal("failed item must not leave an output file")
	}
}

func TestEngineLengthFilter(t *testing.T) {
	fixture := newEngineFixture(t, 2, nil)
	fixture.addItem(t, "AB", "v1.png")
	fixture.addItem(t, "ABC", "v1.png")

	length := 2
	result, err := fixture.engine.Run(context.Background(), export.RunOptions{LengthFilter: &length})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Counters.Total != 1 || result.Counters.Regenerated != 1 {
		t.Fatalf("expected only the 2-beat word: %+v", result.Counters)
	}
	if _, err := os.Stat(fixture.outputFor("ABC", "v1.png")); !os.IsNotExist(err) {
		t.Fatal("filtered item must not be exported")
	}
}

// cancellingRenderer requests cancellation during the first render so the run
// stops at the next batch boundary.
type cancellingRenderer struct {
	inner  render.Renderer
	engine *export.Engine
	once   sync.Once
}

func (r *cancellingRenderer) Render(ctx context.Context, desc catalog.SourceDescriptor, opts render.Options) (image.Image, error) {
	r.once.Do(func() { r.engine.Cancel() })
	return r.inner.Render(ctx, desc, opts)
}

func TestEngineCancellationStopsAtBatchBoundary(t *testing.T) {
	logger := logging.NewNop()
	validator := imaging.NewValidator(imaging.Limits{MaxFileBytes: 10 << 20, MaxDimension: 4096}, logger)
	renderer := &cancellingRenderer{inner: render.NewFileRenderer(validator, logger)}

	fixture := newEngineFixture(t, 2, renderer)
	renderer.engine = fixture.engine
	fixture.addItem(t, "AB", "v1.png")
	fixture.addItem(t, "CD", "v1.png")
	fixture.addItem(t, "EF", "v1.png")
	fixture.addItem(t, "GH", "v1.png")

	result, err := fixture.engine.Run(context.Background(), export.RunOptions{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.State != export.StateCancelled {
		t.Fatalf("expected cancelled, got %s", result.State)
	}
	// The in-flight batch completes; later batches never start.
	if result.Counters.Processed != 2 {
		t.Fatalf("expected exactly one batch processed, got %+v", result.Counters)
	}

	records, err := fixture.ledger.List(context.Background(), 0)
	if err != nil || len(records) != 1 {
		t.Fatalf("expected ledger record for cancelled run: %v %v", records, err)
	}
	if records[0].Outcome != "cancelled" {
		t.Fatalf("unexpected outcome: %q", records[0].Outcome)
	}
}

func TestEngineScanFailureIsFatal(t *testing.T) {
	fixture := newEngineFixture(t, 2, nil)
	if err := os.RemoveAll(fixture.imagesDir); err != nil {
		t.Fatalf("remove images dir: %v", err)
	}

	result, err := fixture.engine.Run(context.Background(), export.RunOptions{})
	if err == nil {
		t.Fatal("expected scan failure to be fatal")
	}
	if result.State != export.StateFailed {
		t.Fatalf("expected failed state, got %s", result.State)
	}
	if fixture.engine.State() != export.StateFailed {
		t.Fatalf("expected engine to report failed, got %s", fixture.engine.State())
	}
}
