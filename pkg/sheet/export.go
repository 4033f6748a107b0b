package sheet

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
	"github.com/otiai10/copy"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// exportWidth caps the long-form export size.
const exportWidth = 2000

// exportQuality is fixed; the CLI quality flag only affects sheets.
const exportQuality = 95

// exportAll writes a <=2000px JPEG per successfully normalized source.
// JPEG sources already within the cap are copied verbatim instead of
// being re-encoded.
func exportAll(ctx context.Context, c *Config, namer Namer, results []result, dec Decoder, res *RunResult) {
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.Workers)

	for i := range results {
		r := &results[i]
		if r.thumb == nil {
			continue
		}

		g.Go(func() error {
			dst := namer.ExportPath(r.thumb.Frame, filepath.Base(r.src.Path))

			if err := exportOne(ctx, r.src, dst, dec); err != nil {
				klog.Warningf("export failed for %s: %v", r.src.Path, err)
				return nil
			}

			mu.Lock()
			res.Exports++
			res.Written = append(res.Written, Artifact{Path: dst, Kind: KindExport})
			r.exportPath = dst
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
}

// exportOne produces one export artifact at dst.
func exportOne(ctx context.Context, src SourceImage, dst string, dec Decoder) error {
	if copyable(src) {
		klog.V(1).Infof("copying %s verbatim to %s", src.Path, dst)
		if err := copy.Copy(src.Path, dst); err != nil {
			return fmt.Errorf("copy: %w", err)
		}
		return nil
	}

	var img image.Image
	var err error
	switch src.Class {
	case ClassRAW:
		img, err = dec.Decode(ctx, src.Path)
	default:
		img, err = decodeStandard(src.Path)
	}
	if err != nil {
		return err
	}

	b := img.Bounds()
	if b.Dx() > exportWidth {
		h := int(math.Round(float64(b.Dy()) * exportWidth / float64(b.Dx())))
		img = transform.Resize(img, exportWidth, h, transform.Lanczos)
	}

	// Gentler sharpening than sheets get; exports are viewed large.
	img = effect.UnsharpMask(img, 1, 1)

	var buf bytes.Buffer
	if err := imgio.JPEGEncoder(exportQuality)(&buf, img); err != nil {
		return &EncodeError{Path: dst, Err: err}
	}
	if err := os.WriteFile(dst, buf.Bytes(), 0o644); err != nil {
		return &EncodeError{Path: dst, Err: err}
	}

	return nil
}

// copyable reports whether an export can be a verbatim copy: a JPEG
// already at or under the export width.
func copyable(src SourceImage) bool {
	ext := strings.ToLower(filepath.Ext(src.Path))
	if ext != ".jpg" && ext != ".jpeg" {
		return false
	}

	f, err := os.Open(src.Path)
	if err != nil {
		return false
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return false
	}

	return cfg.Width <= exportWidth && cfg.Height <= exportWidth
}
