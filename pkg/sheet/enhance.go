package sheet

import (
	"image"
	"image/draw"

	"github.com/anthonynsimon/bild/effect"
)

// EnhanceOpts selects which enhancement passes run.
type EnhanceOpts struct {
	Sharpen      bool
	AutoContrast bool
}

// Enhance applies the enabled passes and returns a new raster. With
// everything disabled the input is returned unchanged.
func Enhance(img image.Image, opts EnhanceOpts) image.Image {
	if !opts.Sharpen && !opts.AutoContrast {
		return img
	}

	out := img
	if opts.Sharpen {
		out = effect.Sharpen(out)
	}
	if opts.AutoContrast {
		out = autoContrast(out)
	}
	return out
}

// autoContrast stretches each channel's intensity range linearly to
// [0, 255]. Flat channels are left alone.
func autoContrast(img image.Image) *image.RGBA {
	b := img.Bounds()
	src := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(src, src.Bounds(), img, b.Min, draw.Src)

	var lo, hi [3]int
	for c := 0; c < 3; c++ {
		lo[c] = 255
	}

	for i := 0; i < len(src.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			v := int(src.Pix[i+c])
			if v < lo[c] {
				lo[c] = v
			}
			if v > hi[c] {
				hi[c] = v
			}
		}
	}

	out := image.NewRGBA(src.Bounds())
	copy(out.Pix, src.Pix)
	for c := 0; c < 3; c++ {
		span := hi[c] - lo[c]
		if span <= 0 || span == 255 {
			continue
		}
		for i := c; i < len(out.Pix); i += 4 {
			out.Pix[i] = uint8((int(src.Pix[i]) - lo[c]) * 255 / span)
		}
	}

	return out
}
