package sheet

import (
	"fmt"
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mkThumb(w, h int) *Thumbnail {
	return &Thumbnail{Raster: image.NewRGBA(image.Rect(0, 0, w, h))}
}

func mkThumbs(n, w, h int) []*Thumbnail {
	ts := make([]*Thumbnail, n)
	for i := range ts {
		ts[i] = mkThumb(w, h)
		ts[i].Frame = i + 1
	}
	return ts
}

func rectOf(p Placed) image.Rectangle {
	return image.Rect(p.X, p.Y, p.X+p.W, p.Y+p.H)
}

// checkInvariants verifies the plan-level guarantees: no overlapping
// thumbnails, everything inside the canvas with the edge margin.
func checkInvariants(t *testing.T, p *Plan) {
	t.Helper()

	inner := image.Rect(edgeMargin, edgeMargin, p.W-edgeMargin, p.H-edgeMargin)
	for i, a := range p.Placed {
		ra := rectOf(a)
		if !ra.In(inner) {
			t.Errorf("placed[%d] %v escapes canvas %dx%d (margin %d)", i, ra, p.W, p.H, edgeMargin)
		}
		for j, b := range p.Placed[i+1:] {
			if ra.Overlaps(rectOf(b)) {
				t.Errorf("placed[%d] %v overlaps placed[%d] %v", i, ra, i+1+j, rectOf(b))
			}
		}
	}
}

func TestLayoutRowFill(t *testing.T) {
	tests := []struct {
		name     string
		thumbs   []*Thumbnail
		width    int
		wantRows []int // thumbnails per row
	}{
		{
			name:     "three per row",
			thumbs:   mkThumbs(5, 180, 120),
			width:    600,
			wantRows: []int{3, 2},
		},
		{
			name:     "one per row at full width",
			thumbs:   mkThumbs(3, 600, 400),
			width:    600,
			wantRows: []int{1, 1, 1},
		},
		{
			name:     "single thumbnail",
			thumbs:   mkThumbs(1, 300, 200),
			width:    600,
			wantRows: []int{1},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := Layout(tc.thumbs, LayoutOpts{CanvasWidth: tc.width, ShowEXIF: true})
			checkInvariants(t, p)

			gotRows := []int{}
			lastY := -1
			for _, pl := range p.Placed {
				if pl.Y != lastY {
					gotRows = append(gotRows, 0)
					lastY = pl.Y
				}
				gotRows[len(gotRows)-1]++
			}
			if diff := cmp.Diff(tc.wantRows, gotRows); diff != "" {
				t.Errorf("row occupancy mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLayoutPreservesOrder(t *testing.T) {
	thumbs := mkThumbs(7, 250, 150)
	p := Layout(thumbs, LayoutOpts{CanvasWidth: 600})

	for i, pl := range p.Placed {
		if pl.Thumb.Frame != i+1 {
			t.Errorf("placed[%d] has frame %d, layout reordered input", i, pl.Thumb.Frame)
		}
	}
}

func TestLayoutVariableRowHeights(t *testing.T) {
	// A 600-wide canvas fits two 280s per row; heights differ so row
	// heights must too.
	thumbs := []*Thumbnail{
		mkThumb(280, 100),
		mkThumb(280, 220),
		mkThumb(280, 150),
		mkThumb(280, 150),
	}
	p := Layout(thumbs, LayoutOpts{CanvasWidth: 600, ShowEXIF: true})
	checkInvariants(t, p)

	if p.Placed[0].Y != p.Placed[1].Y {
		t.Fatalf("first two thumbnails should share a row: y=%d vs %d", p.Placed[0].Y, p.Placed[1].Y)
	}

	// Row height derives from the tallest member (220), not the first.
	band := LayoutOpts{ShowEXIF: true}.bandHeight()
	wantY := edgeMargin + 220 + band + cellGap
	if p.Placed[2].Y != wantY {
		t.Errorf("second row y = %d, want %d", p.Placed[2].Y, wantY)
	}

	// Labels anchor below the row's max height, aligned to each
	// thumbnail's left edge.
	for _, pl := range p.Placed[:2] {
		if pl.LabelX != pl.X {
			t.Errorf("label x %d not aligned to thumbnail x %d", pl.LabelX, pl.X)
		}
		if pl.LabelY != pl.Y+220+labelGap {
			t.Errorf("label y = %d, want %d", pl.LabelY, pl.Y+220+labelGap)
		}
	}
}

func TestLayoutWideThumbnailExpandsCanvas(t *testing.T) {
	thumbs := []*Thumbnail{mkThumb(800, 100)}
	p := Layout(thumbs, LayoutOpts{CanvasWidth: 600})
	checkInvariants(t, p)

	if want := 800 + 2*edgeMargin; p.W != want {
		t.Errorf("canvas width = %d, want %d", p.W, want)
	}
	if len(p.Placed) != 1 {
		t.Fatalf("placed = %d, want 1", len(p.Placed))
	}
}

func TestLayoutEmptyInput(t *testing.T) {
	p := Layout(nil, LayoutOpts{CanvasWidth: 600})

	if p.W != 600 {
		t.Errorf("canvas width = %d, want 600", p.W)
	}
	if p.H <= 0 {
		t.Errorf("canvas height = %d, want > 0", p.H)
	}
	if len(p.Placed) != 0 {
		t.Errorf("placed = %d, want 0", len(p.Placed))
	}
}

func TestLayoutHistogramBand(t *testing.T) {
	thumbs := mkThumbs(2, 280, 150)
	p := Layout(thumbs, LayoutOpts{CanvasWidth: 600, ShowEXIF: true, ShowHistogram: true})

	opts := p.Opts
	for i, pl := range p.Placed {
		wantY := pl.LabelY + opts.labelLines()*lineHeight + histGap
		if pl.HistY != wantY {
			t.Errorf("placed[%d] hist y = %d, want %d", i, pl.HistY, wantY)
		}
		if pl.HistX != pl.X {
			t.Errorf("placed[%d] hist x = %d, want %d", i, pl.HistX, pl.X)
		}
		// The band must fit inside the canvas.
		if pl.HistY+histHeight > p.H-edgeMargin {
			t.Errorf("placed[%d] histogram band escapes canvas", i)
		}
	}
}

func TestLayoutLabelLines(t *testing.T) {
	tests := []struct {
		opts LayoutOpts
		want int
	}{
		{LayoutOpts{}, 1},
		{LayoutOpts{ShowEXIF: true}, 2},
		{LayoutOpts{ShowEXIF: true, CustomText: "proof"}, 3},
		{LayoutOpts{CustomText: "proof"}, 2},
	}

	for i, tc := range tests {
		if got := tc.opts.labelLines(); got != tc.want {
			t.Errorf("case %d: labelLines() = %d, want %d", i, got, tc.want)
		}
	}
}

func TestLayoutTitleBand(t *testing.T) {
	with := Layout(mkThumbs(1, 300, 200), LayoutOpts{CanvasWidth: 600, Title: "May 1st, 2025"})
	without := Layout(mkThumbs(1, 300, 200), LayoutOpts{CanvasWidth: 600})

	if with.Placed[0].Y != without.Placed[0].Y+titleBand {
		t.Errorf("title should push content down by %d: %d vs %d", titleBand, with.Placed[0].Y, without.Placed[0].Y)
	}
	if with.H != without.H+titleBand {
		t.Errorf("title should grow canvas by %d: %d vs %d", titleBand, with.H, without.H)
	}
}

func TestLayoutDeterministic(t *testing.T) {
	mk := func() *Plan {
		thumbs := []*Thumbnail{}
		for i := 0; i < 9; i++ {
			thumbs = append(thumbs, mkThumb(200, 100+10*i))
		}
		return Layout(thumbs, LayoutOpts{CanvasWidth: 600, ShowEXIF: true, ShowHistogram: true})
	}

	a, b := mk(), mk()
	if diff := cmp.Diff(a, b, cmp.Comparer(func(x, y *Thumbnail) bool {
		return fmt.Sprint(x.Raster.Bounds()) == fmt.Sprint(y.Raster.Bounds())
	})); diff != "" {
		t.Errorf("identical inputs produced different plans (-a +b):\n%s", diff)
	}
}
