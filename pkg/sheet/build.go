package sheet

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/barasher/go-exiftool"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// Skip records one input file that was dropped from the run.
type Skip struct {
	Path   string
	Reason string
}

// RunResult summarizes a completed batch.
type RunResult struct {
	// Sheets and Exports count written artifacts.
	Sheets  int
	Exports int
	// Written lists every artifact produced, in output order.
	Written []Artifact
	// Skips lists inputs that failed, with reasons.
	Skips []Skip
	// Manifest is the ordered gallery manifest (gallery mode only).
	Manifest []GalleryEntry
}

// result carries one file through the parallel phase. Slots keep input
// order so frame assignment stays deterministic no matter which worker
// finishes first.
type result struct {
	src        SourceImage
	thumb      *Thumbnail
	skip       *Skip
	accent     string
	exportPath string
}

// Run executes one batch: enumerate, normalize in parallel, assign
// frames, lay out and composite sheets, then optional exports and
// gallery. Per-file failures are downgraded to warnings; only preflight
// problems return an error.
func Run(ctx context.Context, c *Config) (*RunResult, error) {
	if err := preflight(c); err != nil {
		return nil, err
	}

	srcs, err := Find(c.InDir)
	if err != nil {
		return nil, &ConfigError{Reason: "unreadable input directory", Err: err}
	}
	klog.Infof("found %d source images in %s", len(srcs), c.InDir)

	dec := c.Decoder
	if dec == nil {
		dec = &DcrawDecoder{Timeout: c.DecodeTimeout}
	}

	if dd, ok := dec.(*DcrawDecoder); ok && hasRAW(srcs) {
		if err := dd.Preflight(); err != nil {
			return nil, err
		}
	}

	et, err := exiftool.NewExiftool()
	if err != nil {
		klog.Warningf("exiftool unavailable, metadata will be blank: %v", err)
		et = nil
	} else {
		defer et.Close()
	}

	results := normalizeAll(ctx, c, srcs, dec, et)

	// Barrier: frame numbers are a pure function of (sorted names,
	// decode failures), assigned in one serial pass after the join.
	thumbs := []*Thumbnail{}
	skips := []Skip{}
	frame := 0
	for i := range results {
		r := &results[i]
		if r.skip != nil {
			skips = append(skips, *r.skip)
			continue
		}
		frame++
		r.thumb.Frame = frame
		thumbs = append(thumbs, r.thumb)
	}

	res := &RunResult{Skips: skips}

	galleryDir := ""
	if c.GalleryName != "" {
		galleryDir = galleryFolder(outRoot(c), batchDate(thumbs), c.GalleryName)
	}
	namer := NewNamer(c, galleryDir)

	if err := os.MkdirAll(namer.Dir, 0o755); err != nil {
		return nil, &ConfigError{Reason: "unwritable output directory", Err: err}
	}

	writeSheets(c, namer, thumbs, res)

	if c.Export || c.GalleryName != "" {
		exportAll(ctx, c, namer, results, dec, res)
	}

	if c.GalleryName != "" {
		writeGallery(c, namer, results, res)
	}

	logSummary(res)
	return res, nil
}

// preflight validates configuration before any file is touched.
func preflight(c *Config) error {
	if c.InDir == "" {
		return &ConfigError{Reason: "input directory is required"}
	}
	if st, err := os.Stat(c.InDir); err != nil || !st.IsDir() {
		return &ConfigError{Reason: fmt.Sprintf("input directory %q is not a readable directory", c.InDir), Err: err}
	}
	if c.Width <= 0 {
		return &ConfigError{Reason: fmt.Sprintf("width %d out of range", c.Width)}
	}
	if c.Quality < 1 || c.Quality > 100 {
		return &ConfigError{Reason: fmt.Sprintf("quality %d out of range 1-100", c.Quality)}
	}
	switch c.Style {
	case StyleSingle, StyleStrip, StyleGrid, "":
	default:
		return &ConfigError{Reason: fmt.Sprintf("unknown style %q", c.Style)}
	}
	if c.GalleryName != "" {
		// Gallery implies export + rename, and manifests reference one
		// sheet per frame.
		c.Export = true
		c.Rename = true
		c.Style = StyleSingle
	}
	if thumbWidth(c) < 1 {
		return &ConfigError{Reason: fmt.Sprintf("width %d too small for %s style", c.Width, c.Style)}
	}
	if c.Workers < 1 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	return nil
}

// thumbWidth is the normalized thumbnail width for the active style.
// Single sheets and vertical strips use the full canvas width; grids
// split the canvas into two columns.
func thumbWidth(c *Config) int {
	if c.Style == StyleGrid {
		return (c.Width - 2*edgeMargin - cellGap) / 2
	}
	return c.Width
}

// normalizeAll runs the per-file parallel phase: decode, landscape
// normalization, metadata, histogram, enhancement. Results land in a
// position-indexed slice; no shared mutable state crosses workers
// except the exiftool pipe, which is serialized.
func normalizeAll(ctx context.Context, c *Config, srcs []SourceImage, dec Decoder, et *exiftool.Exiftool) []result {
	results := make([]result, len(srcs))
	tw := thumbWidth(c)

	var etMu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.Workers)

	for i, src := range srcs {
		i, src := i, src
		g.Go(func() error {
			r := &results[i]
			r.src = src

			img, err := Normalize(ctx, src, tw, dec)
			if err != nil {
				klog.Warningf("skipping %s: %v", src.Path, err)
				r.skip = &Skip{Path: src.Path, Reason: err.Error()}
				return nil
			}

			meta := MetadataRecord{DisplayName: filepath.Base(src.Path)}
			if et != nil {
				etMu.Lock()
				meta, err = readMeta(src.Path, et)
				etMu.Unlock()
				if err != nil {
					// Partial record: render blank fields, keep going.
					klog.Warningf("metadata unavailable for %s: %v", src.Path, err)
					meta = MetadataRecord{DisplayName: filepath.Base(src.Path)}
				}
			}

			var hist *image.RGBA
			if c.Histogram {
				hist = BuildHistogram(img)
			}

			img = Enhance(img, EnhanceOpts{Sharpen: c.Sharpen, AutoContrast: c.Sharpen})

			r.thumb = &Thumbnail{
				Raster:     img,
				Meta:       meta,
				Hist:       hist,
				SourcePath: src.Path,
			}

			if c.GalleryName != "" {
				r.accent = accentColor(img)
			}

			return nil
		})
	}

	// Workers never return errors; failures are recorded per slot.
	_ = g.Wait()
	return results
}

// writeSheets groups thumbnails per the active style, lays out each
// group, composites, and writes. An encode failure skips that sheet
// only.
func writeSheets(c *Config, namer Namer, thumbs []*Thumbnail, res *RunResult) {
	if len(thumbs) == 0 {
		klog.Infof("no images to lay out")
		return
	}

	per := c.Style.framesPerSheet()

	for start := 0; start < len(thumbs); start += per {
		end := start + per
		if end > len(thumbs) {
			end = len(thumbs)
		}
		group := thumbs[start:end]

		opts := LayoutOpts{
			CanvasWidth:   c.Width,
			ShowHistogram: c.Histogram,
			ShowEXIF:      c.ShowEXIF,
			ShowFilename:  c.ShowFilename,
			CustomText:    c.CustomText,
		}
		if len(group) > 1 {
			opts.Title = dateRange(group)
		}

		frames := make([]int, len(group))
		for i, t := range group {
			frames[i] = t.Frame
		}
		path := namer.SheetPath(frames, filepath.Base(group[0].SourcePath))

		plan := Layout(group, opts)

		bs, err := Compose(plan, c.Quality, c.FontColor)
		if err != nil {
			klog.Warningf("skipping sheet: %v", &EncodeError{Path: path, Err: err})
			continue
		}

		if err := os.WriteFile(path, bs, 0o644); err != nil {
			klog.Warningf("write %s: %v", path, err)
			continue
		}

		klog.Infof("wrote %s (%d frames)", path, len(group))
		res.Sheets++
		res.Written = append(res.Written, Artifact{Path: path, Kind: KindSheet})
	}
}

// dateRange renders a sheet title covering a group's capture dates.
func dateRange(group []*Thumbnail) string {
	var lo, hi time.Time
	for _, t := range group {
		when := t.Meta.Taken
		if when.IsZero() {
			continue
		}
		if lo.IsZero() || when.Before(lo) {
			lo = when
		}
		if when.After(hi) {
			hi = when
		}
	}
	if lo.IsZero() {
		return ""
	}
	if lo.Format("2006-01-02") == hi.Format("2006-01-02") {
		return formatTakenDate(lo)
	}
	return formatTakenDate(lo) + " - " + formatTakenDate(hi)
}

// batchDate is the earliest capture date in the batch, falling back to
// the current date, used to name the gallery folder.
func batchDate(thumbs []*Thumbnail) time.Time {
	var lo time.Time
	for _, t := range thumbs {
		when := t.Meta.Taken
		if when.IsZero() {
			continue
		}
		if lo.IsZero() || when.Before(lo) {
			lo = when
		}
	}
	if lo.IsZero() {
		return time.Now()
	}
	return lo
}

func outRoot(c *Config) string {
	if c.OutDir != "" {
		return c.OutDir
	}
	return c.InDir
}

func hasRAW(srcs []SourceImage) bool {
	for _, s := range srcs {
		if s.Class == ClassRAW {
			return true
		}
	}
	return false
}

func logSummary(res *RunResult) {
	klog.Infof("run complete: %d sheets, %d exports, %d skipped", res.Sheets, res.Exports, len(res.Skips))
	for _, s := range res.Skips {
		klog.Warningf("skipped %s: %s", s.Path, s.Reason)
	}
}
