package imagecache_test

import (
	"path/filepath"
	"testing"

	"glyphcache/internal/imagecache"
	"glyphcache/internal/imaging"
	"glyphcache/internal/logging"
	"glyphcache/internal/scaler"
	"glyphcache/internal/testsupport"
)

func newTestCoordinator(t *testing.T, diskRoot string) *imagecache.Coordinator {
	t.Helper()
	logger := logging.NewNop()
	validator := imaging.NewValidator(imaging.Limits{MaxFileBytes: 10 << 20, MaxDimension: 4096}, logger)
	return imagecache.NewCoordinator(imagecache.Options{
		RawCapacity:    8,
		ScaledCapacity: 8,
		DiskRoot:       diskRoot,
	}, validator, scaler.New(logger), logger)
}

func TestGetDisplayImagePopulatesTiers(t *testing.T) {
	root := t.TempDir()
	source := filepath.Join(root, "word", "item.png")
	testsupport.WritePNG(t, source, 300, 300)

	coordinator := newTestCoordinator(t, filepath.Join(root, "cache"))
	layout := scaler.Layout{ColumnsPerRow: 2, ViewWidth: 400, Margin: 10}

	first := coordinator.GetDisplayImage(source, 1.0, layout)
	if first == nil {
		t.Fatal("expected image")
	}
	// Cell is 400/2 - 20 = 180 square; a 300x300 source fills it exactly.
	if first.Bounds().Dx() != 180 || first.Bounds().Dy() != 180 {
		t.Fatalf("unexpected display size: %v", first.Bounds())
	}

	second := coordinator.GetDisplayImage(source, 1.0, layout)
	if second == nil {
		t.Fatal("expected cached image")
	}

	snapshot := coordinator.Stats()
	if snapshot.ScaledHits != 1 {
		t.Fatalf("expected one L2 hit on repeat lookup, got %d", snapshot.ScaledHits)
	}
	if snapshot.RawMisses != 1 {
		t.Fatalf("expected a single decode, got %d raw misses", snapshot.RawMisses)
	}
}

func TestGetDisplayImageServedFromDiskAfterMemoryClear(t *testing.T) {
	root := t.TempDir()
	source := filepath.Join(root, "word", "item.png")
	testsupport.WritePNG(t, source, 300, 300)

	coordinator := newTestCoordinator(t, filepath.Join(root, "cache"))
	layout := scaler.Layout{ColumnsPerRow: 2, ViewWidth: 400, Margin: 10}

	coordinator.GetDisplayImage(source, 1.0, layout)
	coordinator.ClearAll()

	coordinator.GetDisplayImage(source, 1.0, layout)
	snapshot := coordinator.Stats()
	if snapshot.DiskHits != 1 {
		t.Fatalf("expected disk hit after memory clear, got %d", snapshot.DiskHits)
	}
}

func TestGetDisplayImagePlaceholderOnMissingSource(t *testing.T) {
	coordinator := newTestCoordinator(t, "")
	layout := scaler.Layout{ColumnsPerRow: 2, ViewWidth: 400, Margin: 10}

	img := coordinator.GetDisplayImage("/nonexistent/item.png", 1.0, layout)
	if img == nil {
		t.Fatal("display path must never return nil")
	}
	if img.Bounds().Dx() != 180 || img.Bounds().Dy() != 180 {
		t.Fatalf("placeholder must match the requested cell: %v", img.Bounds())
	}
}

func TestGetExportImageBypassesScaledTiers(t *testing.T) {
	root := t.TempDir()
	source := filepath.Join(root, "word", "item.png")
	testsupport.WritePNG(t, source, 300, 150)

	coordinator := newTestCoordinator(t, filepath.Join(root, "cache"))

	img := coordinator.GetExportImage(source, 600, 600)
	// Aspect fit inside 600x600 from 300x150 lands on 600x300.
	if img.Bounds().Dx() != 600 || img.Bounds().Dy() != 300 {
		t.Fatalf("unexpected export size: %v", img.Bounds())
	}

	snapshot := coordinator.Stats()
	if snapshot.ScaledHits != 0 || snapshot.ScaledMisses != 0 {
		t.Fatalf("export path must not touch L2: hits=%d misses=%d", snapshot.ScaledHits, snapshot.ScaledMisses)
	}
	if entries, _ := coordinator.Disk().Usage(); entries != 0 {
		t.Fatalf("export path must not populate disk tier, found %d entries", entries)
	}

	coordinator.GetExportImage(source, 600, 600)
	if hits := coordinator.Stats().RawHits; hits != 1 {
		t.Fatalf("expected L1 reuse for repeated export decode, got %d hits", hits)
	}
}

func TestClearDiskRemovesPersistedEntries(t *testing.T) {
	root := t.TempDir()
	source := filepath.Join(root, "word", "item.png")
	testsupport.WritePNG(t, source, 300, 300)

	coordinator := newTestCoordinator(t, filepath.Join(root, "cache"))
	layout := scaler.Layout{ColumnsPerRow: 2, ViewWidth: 400, Margin: 10}
	coordinator.GetDisplayImage(source, 1.0, layout)

	removed, err := coordinator.ClearDisk()
	if err != nil {
		t.Fatalf("clear disk: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 entry removed, got %d", removed)
	}
}
