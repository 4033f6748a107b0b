package sheet

import (
	"bytes"
	"image"
	"image/color"
	"testing"
)

func gradientImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), uint8((x + y) % 256), 255})
		}
	}
	return img
}

func TestBuildHistogramDimensions(t *testing.T) {
	h := BuildHistogram(gradientImage(320, 240))
	if h.Bounds().Dx() != histWidth || h.Bounds().Dy() != histHeight {
		t.Errorf("overlay bounds = %v, want %dx%d", h.Bounds(), histWidth, histHeight)
	}
}

func TestBuildHistogramDeterministic(t *testing.T) {
	a := BuildHistogram(gradientImage(320, 240))
	b := BuildHistogram(gradientImage(320, 240))

	if !bytes.Equal(a.Pix, b.Pix) {
		t.Error("identical input rasters produced different overlay bytes")
	}
}

func TestBuildHistogramSolidColor(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for i := range img.Pix {
		img.Pix[i] = 255
	}

	h := BuildHistogram(img)

	// Every pixel is white: all mass sits in bucket 255, which is
	// off-canvas (the overlay draws buckets 0-254), so the whole
	// overlay stays empty.
	if c := h.RGBAAt(0, histHeight-1); c.A != 0 {
		t.Errorf("column 0 should be empty, got %v", c)
	}
	if c := h.RGBAAt(254, 0); c.A != 0 {
		t.Errorf("column 254 top should be empty (bucket 255 is off-canvas), got %v", c)
	}
}

func TestBuildHistogramBlackImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 50, 50))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}

	h := BuildHistogram(img)

	// All mass in bucket 0: column 0 is a full-height trace, blue wins
	// the overdraw.
	got := h.RGBAAt(0, 0)
	want := color.RGBA{0, 0, 255, 255}
	if got != want {
		t.Errorf("column 0 = %v, want %v", got, want)
	}
	if c := h.RGBAAt(1, histHeight-1); c.A != 0 {
		t.Errorf("column 1 should be empty, got %v", c)
	}
}
