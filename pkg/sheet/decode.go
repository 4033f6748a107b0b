package sheet

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/anthonynsimon/bild/imgio"
	"k8s.io/klog/v2"

	// TIFF sources decode through the stdlib registry.
	_ "golang.org/x/image/tiff"
)

// Decoder turns a RAW source file into a raster. It exists as an
// interface so the batch pipeline can be tested without an external
// decode tool.
type Decoder interface {
	Decode(ctx context.Context, path string) (image.Image, error)
}

// DcrawDecoder shells out to dcraw, reading the PNM it emits on stdout.
type DcrawDecoder struct {
	// Timeout bounds a single decode so one corrupt file cannot stall
	// the batch.
	Timeout time.Duration
}

// Decode runs `dcraw -c path` and decodes the emitted PNM stream.
func (d *DcrawDecoder) Decode(ctx context.Context, path string) (image.Image, error) {
	timeout := d.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	klog.V(1).Infof("running dcraw -c %s", path)
	cmd := exec.CommandContext(ctx, "dcraw", "-c", path)

	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	if err := cmd.Run(); err != nil {
		return nil, &DecodeError{Path: path, Err: fmt.Errorf("dcraw: %w (%s)", err, strings.TrimSpace(errb.String()))}
	}

	img, err := decodePNM(bytes.NewReader(out.Bytes()))
	if err != nil {
		return nil, &DecodeError{Path: path, Err: fmt.Errorf("dcraw output: %w", err)}
	}

	return img, nil
}

// Preflight verifies dcraw is callable. Only required when the input
// set contains RAW files.
func (d *DcrawDecoder) Preflight() error {
	if _, err := exec.LookPath("dcraw"); err != nil {
		return &ConfigError{Reason: "dcraw not found in PATH (required for RAW input)", Err: err}
	}
	return nil
}

// decodeStandard opens a non-RAW source in-process.
func decodeStandard(path string) (image.Image, error) {
	if strings.ToLower(filepath.Ext(path)) == ".ppm" {
		f, err := os.Open(path)
		if err != nil {
			return nil, &DecodeError{Path: path, Err: err}
		}
		defer f.Close()

		img, err := decodePNM(f)
		if err != nil {
			return nil, &DecodeError{Path: path, Err: err}
		}
		return img, nil
	}

	img, err := imgio.Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	return img, nil
}

// maxPNMPixels caps the decoded raster size. Large enough for any
// current sensor, small enough that a corrupt header cannot trigger a
// multi-gigabyte allocation.
const maxPNMPixels = 1 << 28

// decodePNM reads a binary PNM (P5 grayscale or P6 RGB) stream, the
// format dcraw emits. Neither the stdlib nor x/image decode PNM.
func decodePNM(r io.Reader) (image.Image, error) {
	br := bufio.NewReader(r)

	magic, err := pnmToken(br)
	if err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if magic != "P5" && magic != "P6" {
		return nil, fmt.Errorf("unsupported PNM magic %q", magic)
	}

	var w, h, maxVal int
	for _, dst := range []*int{&w, &h, &maxVal} {
		tok, err := pnmToken(br)
		if err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
		if _, err := fmt.Sscanf(tok, "%d", dst); err != nil {
			return nil, fmt.Errorf("parse header token %q: %w", tok, err)
		}
	}

	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%d", w, h)
	}
	// Division form avoids overflowing w*h on a hostile header.
	if w > maxPNMPixels/h {
		return nil, fmt.Errorf("dimensions %dx%d exceed the %d pixel limit", w, h, maxPNMPixels)
	}
	if maxVal <= 0 || maxVal > 65535 {
		return nil, fmt.Errorf("invalid maxval %d", maxVal)
	}

	channels := 3
	if magic == "P5" {
		channels = 1
	}
	bytesPer := 1
	if maxVal > 255 {
		bytesPer = 2
	}

	raw := make([]byte, w*h*channels*bytesPer)
	if _, err := io.ReadFull(br, raw); err != nil {
		return nil, fmt.Errorf("read pixels: %w", err)
	}

	sample := func(i int) uint8 {
		if bytesPer == 1 {
			return uint8(int(raw[i]) * 255 / maxVal)
		}
		v := int(raw[i*2])<<8 | int(raw[i*2+1])
		return uint8(v * 255 / maxVal)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * channels
			var c color.RGBA
			if channels == 1 {
				g := sample(i)
				c = color.RGBA{g, g, g, 255}
			} else {
				c = color.RGBA{sample(i), sample(i + 1), sample(i + 2), 255}
			}
			img.SetRGBA(x, y, c)
		}
	}

	return img, nil
}

// pnmToken returns the next whitespace-delimited header token, skipping
// '#' comments.
func pnmToken(br *bufio.Reader) (string, error) {
	var sb strings.Builder
	for {
		b, err := br.ReadByte()
		if err != nil {
			if err == io.EOF && sb.Len() > 0 {
				return sb.String(), nil
			}
			return "", err
		}

		switch {
		case b == '#':
			if _, err := br.ReadString('\n'); err != nil {
				return "", err
			}
		case b == ' ' || b == '\t' || b == '\n' || b == '\r':
			if sb.Len() > 0 {
				return sb.String(), nil
			}
		default:
			sb.WriteByte(b)
		}
	}
}
