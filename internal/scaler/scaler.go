package scaler

import (
	"image"
	"log/slog"
	"math"

	xdraw "golang.org/x/image/draw"

	"glyphcache/internal/logging"
)

const (
	minColumns = 1
	maxColumns = 4

	// multiStepThreshold is the reduction ratio above which the screen path
	// halves repeatedly before the final precise resize.
	multiStepThreshold = 2.0
)

// Layout carries the display geometry a cell size is derived from.
type Layout struct {
	ColumnsPerRow int
	ViewWidth     int
	Margin        int
}

// Normalized clamps the layout to usable values: columns in [1,4], a positive
// view width, a non-negative margin.
func (l Layout) Normalized() Layout {
	if l.ColumnsPerRow < minColumns {
		l.ColumnsPerRow = minColumns
	}
	if l.ColumnsPerRow > maxColumns {
		l.ColumnsPerRow = maxColumns
	}
	if l.ViewWidth <= 0 {
		l.ViewWidth = 1200
	}
	if l.Margin < 0 {
		l.Margin = 0
	}
	return l
}

// Scaler produces scaled bitmaps for screen and export use.
type Scaler struct {
	logger *slog.Logger
}

// New builds a Scaler.
func New(logger *slog.Logger) *Scaler {
	return &Scaler{logger: logging.NewComponentLogger(logger, "scaler")}
}

// CellSize derives the target cell box for one image from the layout and the
// page scale factor. Cells are square; the aspect-fit happens inside the box.
func (s *Scaler) CellSize(layout Layout, pageScale float64) (int, int) {
	layout = layout.Normalized()
	if pageScale <= 0 || math.IsNaN(pageScale) || math.IsInf(pageScale, 0) {
		pageScale = 1.0
	}

	cell := layout.ViewWidth/layout.ColumnsPerRow - 2*layout.Margin
	cell = int(float64(cell) * pageScale)
	if cell < 1 {
		cell = 1
	}
	return cell, cell
}

// ForScreen scales img to fit the cell derived from layout and pageScale.
// Large reductions are performed in halving steps with a fast filter, then a
// final precise pass; small reductions and upscales are a single pass.
func (s *Scaler) ForScreen(img image.Image, layout Layout, pageScale float64) image.Image {
	cellW, cellH := s.CellSize(layout, pageScale)
	return s.scaleInto(img, cellW, cellH, true)
}

// ForExport scales img to fit the target box in a single high-quality pass.
// On any failure it returns a placeholder of the requested size instead of an
// error, so a batch export cannot be aborted by one bad image.
func (s *Scaler) ForExport(img image.Image, targetW, targetH int) image.Image {
	if targetW < 1 {
		targetW = 1
	}
	if targetH < 1 {
		targetH = 1
	}
	if img == nil {
		s.logger.Warn("export scale requested for nil image, substituting placeholder",
			logging.String(logging.FieldEventType, "scale_placeholder"))
		return Placeholder(targetW, targetH)
	}
	return s.scaleInto(img, targetW, targetH, false)
}

func (s *Scaler) scaleInto(img image.Image, targetW, targetH int, multiStep bool) image.Image {
	if img == nil {
		return Placeholder(targetW, targetH)
	}
	bounds := img.Bounds()
	fitW, fitH, err := ComputeFit(bounds.Dx(), bounds.Dy(), targetW, targetH)
	if err != nil {
		s.logger.Warn("scale failed, substituting placeholder",
			logging.String(logging.FieldEventType, "scale_placeholder"),
			logging.Error(err))
		return Placeholder(targetW, targetH)
	}
	if fitW == bounds.Dx() && fitH == bounds.Dy() {
		return img
	}

	current := img
	if multiStep {
		// Halve with a cheap filter while the remaining ratio is large; the
		// precise pass below lands on the exact dimensions.
		for ratio(current.Bounds().Dx(), fitW) > multiStepThreshold &&
			ratio(current.Bounds().Dy(), fitH) > multiStepThreshold {
			half := image.NewRGBA(image.Rect(0, 0, current.Bounds().Dx()/2, current.Bounds().Dy()/2))
			xdraw.ApproxBiLinear.Scale(half, half.Bounds(), current, current.Bounds(), xdraw.Over, nil)
			current = half
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, fitW, fitH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), current, current.Bounds(), xdraw.Over, nil)
	return dst
}

func ratio(from, to int) float64 {
	if to <= 0 {
		return 0
	}
	return float64(from) / float64(to)
}
