package scaler_test

import (
	"image"
	"image/color"
	"testing"

	"glyphcache/internal/logging"
	"glyphcache/internal/scaler"
)

func TestComputeFitPreservesAspect(t *testing.T) {
	cases := []struct {
		name                   string
		origW, origH           int
		targetW, targetH       int
		expectedW, expectedH   int
	}{
		{"wide into square", 400, 200, 100, 100, 100, 50},
		{"tall into square", 200, 400, 100, 100, 50, 100},
		{"exact fit", 100, 100, 100, 100, 100, 100},
		{"upscale", 50, 25, 200, 200, 200, 100},
		{"extreme ratio clamps to one", 10000, 1, 100, 100, 100, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, h, err := scaler.ComputeFit(tc.origW, tc.origH, tc.targetW, tc.targetH)
			if err != nil {
				t.Fatalf("ComputeFit failed: %v", err)
			}
			if w != tc.expectedW || h != tc.expectedH {
				t.Fatalf("expected %dx%d, got %dx%d", tc.expectedW, tc.expectedH, w, h)
			}
			if w > tc.targetW || h > tc.targetH {
				t.Fatalf("fit %dx%d exceeds target box %dx%d", w, h, tc.targetW, tc.targetH)
			}
		})
	}
}

func TestComputeFitRejectsNonPositiveInput(t *testing.T) {
	if _, _, err := scaler.ComputeFit(0, 100, 50, 50); err == nil {
		t.Fatal("expected error for zero original width")
	}
	if _, _, err := scaler.ComputeFit(100, 100, -1, 50); err == nil {
		t.Fatal("expected error for negative target width")
	}
}

func TestLayoutNormalizedClampsColumns(t *testing.T) {
	layout := scaler.Layout{ColumnsPerRow: 9, ViewWidth: 800, Margin: 10}.Normalized()
	if layout.ColumnsPerRow != 4 {
		t.Fatalf("expected columns clamped to 4, got %d", layout.ColumnsPerRow)
	}
	layout = scaler.Layout{ColumnsPerRow: 0, ViewWidth: 800, Margin: 10}.Normalized()
	if layout.ColumnsPerRow != 1 {
		t.Fatalf("expected columns clamped to 1, got %d", layout.ColumnsPerRow)
	}
}

func TestCellSizeAppliesPageScale(t *testing.T) {
	sc := scaler.New(logging.NewNop())
	layout := scaler.Layout{ColumnsPerRow: 2, ViewWidth: 400, Margin: 10}

	w, h := sc.CellSize(layout, 1.0)
	if w != 180 || h != 180 {
		t.Fatalf("expected 180x180 cell, got %dx%d", w, h)
	}
	w, h = sc.CellSize(layout, 0.5)
	if w != 90 || h != 90 {
		t.Fatalf("expected 90x90 cell at half scale, got %dx%d", w, h)
	}
	// Degenerate page scale falls back to 1.0 instead of producing a zero cell.
	w, h = sc.CellSize(layout, 0)
	if w != 180 || h != 180 {
		t.Fatalf("expected fallback cell 180x180, got %dx%d", w, h)
	}
}

func TestForScreenLargeReduction(t *testing.T) {
	sc := scaler.New(logging.NewNop())
	src := image.NewRGBA(image.Rect(0, 0, 1600, 1600))
	layout := scaler.Layout{ColumnsPerRow: 2, ViewWidth: 400, Margin: 10}

	dst := sc.ForScreen(src, layout, 1.0)
	if dst.Bounds().Dx() != 180 || dst.Bounds().Dy() != 180 {
		t.Fatalf("expected 180x180, got %v", dst.Bounds())
	}
}

func TestForScreenReturnsSourceWhenAlreadyFitting(t *testing.T) {
	sc := scaler.New(logging.NewNop())
	src := image.NewRGBA(image.Rect(0, 0, 180, 180))
	layout := scaler.Layout{ColumnsPerRow: 2, ViewWidth: 400, Margin: 10}

	dst := sc.ForScreen(src, layout, 1.0)
	if dst != src {
		t.Fatal("expected identity return for exact-fit source")
	}
}

func TestForExportNilImageYieldsPlaceholder(t *testing.T) {
	sc := scaler.New(logging.NewNop())
	dst := sc.ForExport(nil, 320, 200)
	if dst == nil {
		t.Fatal("export scale must never return nil")
	}
	if dst.Bounds().Dx() != 320 || dst.Bounds().Dy() != 200 {
		t.Fatalf("placeholder must match requested size: %v", dst.Bounds())
	}
}

func TestPlaceholderIsVisiblyMarked(t *testing.T) {
	img := scaler.Placeholder(50, 50)
	if img.Bounds().Dx() != 50 || img.Bounds().Dy() != 50 {
		t.Fatalf("unexpected placeholder size: %v", img.Bounds())
	}

	center := img.At(25, 25)
	offDiagonal := img.At(10, 25)
	if sameColor(center, offDiagonal) {
		t.Fatal("expected the diagonal cross to differ from the fill")
	}
}

func TestPlaceholderClampsDegenerateSizes(t *testing.T) {
	img := scaler.Placeholder(0, -3)
	if img.Bounds().Dx() != 1 || img.Bounds().Dy() != 1 {
		t.Fatalf("expected 1x1 clamp, got %v", img.Bounds())
	}
}

func sameColor(a, b color.Color) bool {
	ar, ag, ab, aa := a.RGBA()
	br, bg, bb, ba := b.RGBA()
	return ar == br && ag == bg && ab == bb && aa == ba
}
