package sheet

import (
	"image"
	"image/color"
	"testing"
)

func TestEnhanceDisabledReturnsInput(t *testing.T) {
	img := gradientImage(64, 48)
	out := Enhance(img, EnhanceOpts{})

	if out != image.Image(img) {
		t.Error("disabled enhancement should return the input unchanged")
	}
}

func TestEnhanceReturnsNewRaster(t *testing.T) {
	img := gradientImage(64, 48)
	before := append([]byte(nil), img.Pix...)

	out := Enhance(img, EnhanceOpts{Sharpen: true, AutoContrast: true})

	if out == image.Image(img) {
		t.Error("enhancement should produce a new raster")
	}
	for i, b := range img.Pix {
		if before[i] != b {
			t.Fatal("enhancement mutated the input raster")
		}
	}
}

func TestAutoContrastStretches(t *testing.T) {
	// A narrow-range gray image: every channel spans [100, 150].
	img := image.NewRGBA(image.Rect(0, 0, 10, 1))
	for x := 0; x < 10; x++ {
		v := uint8(100 + x*5)
		img.SetRGBA(x, 0, color.RGBA{v, v, v, 255})
	}

	out := autoContrast(img)

	lo := out.RGBAAt(0, 0)
	hi := out.RGBAAt(9, 0)
	if lo.R != 0 || lo.G != 0 || lo.B != 0 {
		t.Errorf("minimum should stretch to 0, got %v", lo)
	}
	if hi.R != 255 || hi.G != 255 || hi.B != 255 {
		t.Errorf("maximum should stretch to 255, got %v", hi)
	}

	// Monotonicity across the ramp.
	prev := -1
	for x := 0; x < 10; x++ {
		v := int(out.RGBAAt(x, 0).R)
		if v < prev {
			t.Fatalf("stretch is not monotonic at x=%d: %d < %d", x, v, prev)
		}
		prev = v
	}
}

func TestAutoContrastFlatChannel(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetRGBA(x, y, color.RGBA{80, 80, 80, 255})
		}
	}

	out := autoContrast(img)
	if got := out.RGBAAt(2, 2); got != (color.RGBA{80, 80, 80, 255}) {
		t.Errorf("flat channels must be left alone, got %v", got)
	}
}
