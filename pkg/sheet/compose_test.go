package sheet

import (
	"bytes"
	"image/color"
	"image/jpeg"
	"testing"
)

func TestComposeProducesCanvasSizedJPEG(t *testing.T) {
	thumbs := mkThumbs(3, 180, 120)
	for _, th := range thumbs {
		th.Meta = MetadataRecord{DisplayName: "x.jpg", Model: "Test Cam", ISO: 100}
	}
	plan := Layout(thumbs, LayoutOpts{CanvasWidth: 600, ShowEXIF: true})

	bs, err := Compose(plan, 95, "#ff9c00")
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(bs))
	if err != nil {
		t.Fatalf("output is not a decodable JPEG: %v", err)
	}
	if cfg.Width != plan.W || cfg.Height != plan.H {
		t.Errorf("encoded %dx%d, plan wants %dx%d", cfg.Width, cfg.Height, plan.W, plan.H)
	}
}

func TestComposeEmptyPlan(t *testing.T) {
	plan := Layout(nil, LayoutOpts{CanvasWidth: 600})

	bs, err := Compose(plan, 95, "")
	if err != nil {
		t.Fatalf("an empty plan must still render a valid artifact: %v", err)
	}
	if _, err := jpeg.DecodeConfig(bytes.NewReader(bs)); err != nil {
		t.Errorf("empty sheet is not a decodable JPEG: %v", err)
	}
}

func TestComposeWithHistogram(t *testing.T) {
	th := mkThumb(300, 200)
	th.Hist = BuildHistogram(gradientImage(300, 200))
	plan := Layout([]*Thumbnail{th}, LayoutOpts{CanvasWidth: 600, ShowHistogram: true})

	bs, err := Compose(plan, 95, "#ff9c00")
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if len(bs) == 0 {
		t.Error("empty output")
	}
}

func TestComposeRejectsInvalidPlan(t *testing.T) {
	if _, err := Compose(&Plan{W: 0, H: 10}, 95, ""); err == nil {
		t.Error("zero-width plan should fail")
	}
}

func TestComposeInvalidCanvas(t *testing.T) {
	if _, _, err := newCanvas(0, 100); err == nil {
		t.Error("zero-width canvas should be rejected")
	}
	if _, _, err := newCanvas(100, -1); err == nil {
		t.Error("negative-height canvas should be rejected")
	}
}

func TestParseFontColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
	}{
		{"", defaultFontColor},
		{"#ff9c00", color.RGBA{0xff, 0x9c, 0x00, 0xff}},
		{"#ffffff", color.RGBA{0xff, 0xff, 0xff, 0xff}},
		{"not-a-color", defaultFontColor},
	}

	for _, tc := range tests {
		if got := parseFontColor(tc.in); got != tc.want {
			t.Errorf("parseFontColor(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
