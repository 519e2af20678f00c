package scaler

import "fmt"

// ComputeFit returns the largest width/height that preserves the original
// aspect ratio while fitting entirely inside the target box. Results are
// floor-rounded but never zero for positive inputs.
func ComputeFit(originalW, originalH, targetW, targetH int) (int, int, error) {
	if originalW <= 0 || originalH <= 0 {
		return 0, 0, fmt.Errorf("compute fit: original dimensions %dx%d must be positive", originalW, originalH)
	}
	if targetW <= 0 || targetH <= 0 {
		return 0, 0, fmt.Errorf("compute fit: target dimensions %dx%d must be positive", targetW, targetH)
	}

	// Compare aspect ratios via cross-multiplication to stay in integers.
	var width, height int
	if originalW*targetH >= originalH*targetW {
		width = targetW
		height = originalH * targetW / originalW
	} else {
		height = targetH
		width = originalW * targetH / originalH
	}
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return width, height, nil
}
