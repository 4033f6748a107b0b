package sheet

import (
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/histogram"
)

// Histogram overlay dimensions, fixed to keep rendering byte-stable.
const (
	histWidth  = 255
	histHeight = 100
)

// BuildHistogram renders the per-channel intensity distribution of img
// as a 255x100 overlay raster. Each of the 256 buckets is scaled
// against the largest bucket across all three channels; traces draw
// bottom-up in red, green, then blue, later channels painting over
// earlier ones. Output is deterministic for identical input pixels.
func BuildHistogram(img image.Image) *image.RGBA {
	overlay := image.NewRGBA(image.Rect(0, 0, histWidth, histHeight))

	h := histogram.NewRGBAHistogram(img)
	chans := []struct {
		bins []int
		col  color.RGBA
	}{
		{h.R.Bins, color.RGBA{255, 0, 0, 255}},
		{h.G.Bins, color.RGBA{0, 255, 0, 255}},
		{h.B.Bins, color.RGBA{0, 0, 255, 255}},
	}

	max := 0
	for _, c := range chans {
		for _, v := range c.bins {
			if v > max {
				max = v
			}
		}
	}
	if max == 0 {
		return overlay
	}

	for x := 0; x < histWidth; x++ {
		for _, c := range chans {
			if x >= len(c.bins) {
				continue
			}
			barH := c.bins[x] * histHeight / max
			for y := histHeight - barH; y < histHeight; y++ {
				overlay.SetRGBA(x, y, c.col)
			}
		}
	}

	return overlay
}
