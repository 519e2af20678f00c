package scaler

import (
	"image"
	"image/color"
	"image/draw"
)

var (
	placeholderFill   = color.RGBA{R: 0x2b, G: 0x2b, B: 0x2b, A: 0xff}
	placeholderBorder = color.RGBA{R: 0x8a, G: 0x8a, B: 0x8a, A: 0xff}
	placeholderCross  = color.RGBA{R: 0xc0, G: 0x3a, B: 0x3a, A: 0xff}
)

// Placeholder returns a deterministically-sized substitute bitmap: dark fill,
// light border, and a diagonal cross so it is unmistakable in a grid of real
// renders. Dimensions are clamped to at least 1x1.
func Placeholder(width, height int) *image.RGBA {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(placeholderFill), image.Point{}, draw.Src)

	for x := 0; x < width; x++ {
		img.SetRGBA(x, 0, placeholderBorder)
		img.SetRGBA(x, height-1, placeholderBorder)
	}
	for y := 0; y < height; y++ {
		img.SetRGBA(0, y, placeholderBorder)
		img.SetRGBA(width-1, y, placeholderBorder)
	}

	// Diagonals drawn in x so narrow images still show the cross.
	for x := 0; x < width; x++ {
		y := x * (height - 1) / max(width-1, 1)
		img.SetRGBA(x, y, placeholderCross)
		img.SetRGBA(x, height-1-y, placeholderCross)
	}
	return img
}
