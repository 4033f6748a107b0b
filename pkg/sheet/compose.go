package sheet

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
	mmap "github.com/edsrzf/mmap-go"
	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"k8s.io/klog/v2"
)

// histAlpha is the opacity applied to the histogram overlay when it is
// pasted over the sheet.
const histAlpha = 128

// mmapThreshold is the canvas buffer size above which the pixel buffer
// is backed by a disk-backed memory map instead of the heap.
const mmapThreshold = 64 << 20

var defaultFontColor = color.RGBA{R: 0xff, G: 0x9c, B: 0x00, A: 0xff}

// Compose renders a layout plan to encoded JPEG bytes.
func Compose(p *Plan, quality int, fontColor string) ([]byte, error) {
	canvas, cleanup, err := newCanvas(p.W, p.H)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	// Background fill.
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.RGBA{0, 0, 0, 255}), image.Point{}, draw.Src)

	fc := parseFontColor(fontColor)

	if p.Title != "" {
		drawText(canvas, p.TitleX, p.TitleY+lineHeight-3, p.Title, fc)
	}

	for _, pl := range p.Placed {
		draw.Draw(canvas, image.Rect(pl.X, pl.Y, pl.X+pl.W, pl.Y+pl.H), pl.Thumb.Raster, pl.Thumb.Raster.Bounds().Min, draw.Src)

		drawLabel(canvas, pl, p.Opts, fc)

		if p.Opts.ShowHistogram && pl.Thumb.Hist != nil {
			drawHistogram(canvas, pl)
		}
	}

	var buf bytes.Buffer
	enc := imgio.JPEGEncoder(quality)
	if err := enc(&buf, canvas); err != nil {
		return nil, fmt.Errorf("jpeg encode: %w", err)
	}

	return buf.Bytes(), nil
}

// drawLabel renders the text block beneath one thumbnail: a header line
// (date or filename, frame number right-aligned), then the EXIF line
// and custom text when enabled.
func drawLabel(dst *image.RGBA, pl Placed, opts LayoutOpts, fc color.RGBA) {
	line := 0
	baseline := func() int {
		line++
		return pl.LabelY + line*lineHeight - 3
	}

	y := baseline()
	drawText(dst, pl.LabelX, y, pl.Thumb.Meta.headerText(opts.ShowFilename), fc)
	if pl.Thumb.Frame > 0 {
		frame := fmt.Sprintf("%03d", pl.Thumb.Frame)
		drawText(dst, pl.LabelX+pl.W-textWidth(frame), y, frame, fc)
	}

	if opts.ShowEXIF {
		if ln := pl.Thumb.Meta.exifLine(); ln != "" {
			drawText(dst, pl.LabelX, baseline(), ln, fc)
		} else {
			line++
		}
	}

	if opts.CustomText != "" {
		drawText(dst, pl.LabelX, baseline(), opts.CustomText, fc)
	}
}

// drawHistogram scales the overlay to the thumbnail width and blends it
// in at a fixed alpha.
func drawHistogram(dst *image.RGBA, pl Placed) {
	h := pl.Thumb.Hist
	if h.Bounds().Dx() != pl.W {
		h = transform.Resize(h, pl.W, histHeight, transform.Linear)
	}

	rect := image.Rect(pl.HistX, pl.HistY, pl.HistX+pl.W, pl.HistY+histHeight)
	mask := image.NewUniform(color.Alpha{A: histAlpha})
	draw.DrawMask(dst, rect, h, h.Bounds().Min, mask, image.Point{}, draw.Over)
}

// drawText draws one line with the fixed bitmap face. y is the text
// baseline.
func drawText(dst *image.RGBA, x, y int, s string, c color.RGBA) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// textWidth is the rendered width of s in the fixed face.
func textWidth(s string) int {
	return basicfont.Face7x13.Advance * len(s)
}

// parseFontColor parses a hex color, falling back to the stock amber on
// bad input.
func parseFontColor(s string) color.RGBA {
	if s == "" {
		return defaultFontColor
	}
	c, err := colorful.Hex(s)
	if err != nil {
		klog.Warningf("bad font color %q, using default: %v", s, err)
		return defaultFontColor
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

// newCanvas allocates the sheet raster. Large canvases are backed by a
// disk-backed memory map so huge sheets do not blow out the heap; the
// cleanup func releases the mapping and its temp file.
func newCanvas(w, h int) (*image.RGBA, func(), error) {
	if w <= 0 || h <= 0 {
		return nil, nil, fmt.Errorf("unsupported canvas size %dx%d", w, h)
	}

	size := w * h * 4
	if size < mmapThreshold {
		return image.NewRGBA(image.Rect(0, 0, w, h)), func() {}, nil
	}

	tmp, err := os.CreateTemp("", "rawsheet-canvas-*.tmp")
	if err != nil {
		return nil, nil, fmt.Errorf("create temp file: %w", err)
	}

	if err := tmp.Truncate(int64(size)); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, nil, fmt.Errorf("truncate: %w", err)
	}

	mapped, err := mmap.Map(tmp, mmap.RDWR, 0)
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, nil, fmt.Errorf("mmap: %w", err)
	}

	canvas := &image.RGBA{
		Pix:    mapped,
		Stride: w * 4,
		Rect:   image.Rect(0, 0, w, h),
	}

	cleanup := func() {
		if err := mapped.Unmap(); err != nil {
			klog.Warningf("unmap: %v", err)
		}
		tmp.Close()
		os.Remove(tmp.Name())
	}

	return canvas, cleanup, nil
}
