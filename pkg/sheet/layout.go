package sheet

// Layout geometry constants. Values track the original sheet styling
// and are compiled in; only the canvas width is configurable.
const (
	// edgeMargin is the minimum clearance between any placed thumbnail
	// and the canvas edge.
	edgeMargin = 10
	// cellGap separates thumbnails within a row and rows from each
	// other.
	cellGap = 20
	// lineHeight is the vertical pitch of one metadata text line.
	lineHeight = 15
	// labelGap separates a thumbnail from its text block.
	labelGap = 4
	// histGap separates the text block from the histogram band.
	histGap = 6
	// titleBand is the height reserved for a sheet-level title line.
	titleBand = 24
)

// LayoutOpts control row sizing and which per-thumbnail bands exist.
type LayoutOpts struct {
	// CanvasWidth is the target sheet width; the canvas grows when a
	// single thumbnail (plus edge margins) cannot fit it.
	CanvasWidth int

	ShowHistogram bool
	ShowEXIF      bool
	ShowFilename  bool
	CustomText    string

	// Title, when non-empty, reserves a band at the top of the sheet.
	Title string
}

// labelLines is the number of text lines drawn beneath each thumbnail.
func (o LayoutOpts) labelLines() int {
	n := 1 // header: date or filename, plus frame number
	if o.ShowEXIF {
		n++
	}
	if o.CustomText != "" {
		n++
	}
	return n
}

// bandHeight is the per-thumbnail space below the raster: text block
// plus optional histogram band.
func (o LayoutOpts) bandHeight() int {
	h := labelGap + o.labelLines()*lineHeight
	if o.ShowHistogram {
		h += histGap + histHeight
	}
	return h
}

// Placed is one thumbnail with its computed sheet position.
type Placed struct {
	Thumb *Thumbnail

	// X, Y, W, H bound the thumbnail raster on the canvas.
	X, Y, W, H int

	// LabelX, LabelY anchor the text block, left-aligned to the
	// thumbnail.
	LabelX, LabelY int

	// HistX, HistY anchor the histogram band; meaningful only when the
	// plan was built with ShowHistogram.
	HistX, HistY int
}

// Plan is a computed sheet layout.
type Plan struct {
	W, H int

	Placed []Placed

	Title          string
	TitleX, TitleY int

	Opts LayoutOpts
}

// Layout partitions thumbs into rows and computes every placement.
// Thumbnails share a common width but not height, so each row is as
// tall as its tallest member plus the text/histogram band. Input order
// is preserved; row breaking is the only structural decision.
func Layout(thumbs []*Thumbnail, opts LayoutOpts) *Plan {
	canvasW := opts.CanvasWidth
	for _, t := range thumbs {
		if w := t.Raster.Bounds().Dx() + 2*edgeMargin; w > canvasW {
			canvasW = w
		}
	}

	top := edgeMargin
	p := &Plan{W: canvasW, Opts: opts, Title: opts.Title}
	if opts.Title != "" {
		p.TitleX = edgeMargin
		p.TitleY = top
		top += titleBand
	}

	if len(thumbs) == 0 {
		p.H = top + edgeMargin
		return p
	}

	band := opts.bandHeight()
	y := top

	var row []*Thumbnail
	rowW := 0

	flush := func() {
		if len(row) == 0 {
			return
		}

		maxH := 0
		for _, t := range row {
			if h := t.Raster.Bounds().Dy(); h > maxH {
				maxH = h
			}
		}

		x := edgeMargin
		for _, t := range row {
			w, h := t.Raster.Bounds().Dx(), t.Raster.Bounds().Dy()
			pl := Placed{
				Thumb:  t,
				X:      x,
				Y:      y,
				W:      w,
				H:      h,
				LabelX: x,
				LabelY: y + maxH + labelGap,
			}
			if opts.ShowHistogram {
				pl.HistX = x
				pl.HistY = pl.LabelY + opts.labelLines()*lineHeight + histGap
			}
			p.Placed = append(p.Placed, pl)
			x += w + cellGap
		}

		y += maxH + band + cellGap
		row = nil
		rowW = 0
	}

	for _, t := range thumbs {
		w := t.Raster.Bounds().Dx()
		needed := rowW + w
		if len(row) > 0 {
			needed += cellGap
		}

		if len(row) > 0 && needed > canvasW-2*edgeMargin {
			flush()
			needed = w
		}

		row = append(row, t)
		rowW = needed
	}
	flush()

	// The loop leaves a trailing cellGap after the last row; the bottom
	// edge only needs edgeMargin.
	p.H = y - cellGap + edgeMargin
	return p
}
