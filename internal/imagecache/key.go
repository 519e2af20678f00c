package imagecache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
)

// scalePrecision is the number of decimal places retained from the floating
// scale factor when building a Key. Keys built from factors that differ only
// below this precision compare equal, which keeps tiny float drift from
// producing cache-miss storms.
const scalePrecision = 3

// Key identifies one scaled rendering of one source image. Two keys are equal
// iff the source path, target geometry, column count, and rounded scale factor
// all match.
type Key struct {
	SourcePath    string
	TargetWidth   int
	TargetHeight  int
	ColumnsPerRow int

	scaleMilli int64
}

// NewKey builds a Key, rounding the scale factor to the fixed precision.
func NewKey(sourcePath string, targetWidth, targetHeight, columnsPerRow int, scaleFactor float64) Key {
	return Key{
		SourcePath:    sourcePath,
		TargetWidth:   targetWidth,
		TargetHeight:  targetHeight,
		ColumnsPerRow: columnsPerRow,
		scaleMilli:    roundScale(scaleFactor),
	}
}

func roundScale(factor float64) int64 {
	if math.IsNaN(factor) || math.IsInf(factor, 0) {
		return 0
	}
	shift := math.Pow10(scalePrecision)
	return int64(math.Round(factor * shift))
}

// ScaleFactor returns the rounded scale factor the key was built with.
func (k Key) ScaleFactor() float64 {
	return float64(k.scaleMilli) / math.Pow10(scalePrecision)
}

// String renders the canonical form of the key. The format feeds Hash and is
// stable across releases; do not reorder components.
func (k Key) String() string {
	return fmt.Sprintf("%s|%dx%d|c%d|s%d", k.SourcePath, k.TargetWidth, k.TargetHeight, k.ColumnsPerRow, k.scaleMilli)
}

// Hash returns the deterministic filename stem for the key's disk entries.
func (k Key) Hash() string {
	sum := sha256.Sum256([]byte(k.String()))
	return hex.EncodeToString(sum[:16])
}
