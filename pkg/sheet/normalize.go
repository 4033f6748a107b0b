package sheet

import (
	"context"
	"image"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/transform"
	"github.com/rwcarlsen/goexif/exif"
	"k8s.io/klog/v2"
)

// Normalize decodes a source image and returns a landscape-normalized
// raster resized to exactly width pixels wide. The returned raster
// never needs further rotation.
func Normalize(ctx context.Context, src SourceImage, width int, dec Decoder) (image.Image, error) {
	var img image.Image
	var err error

	switch src.Class {
	case ClassRAW:
		img, err = dec.Decode(ctx, src.Path)
	default:
		img, err = decodeStandard(src.Path)
	}
	if err != nil {
		return nil, err
	}

	if portraitFramed(img, src.Path) {
		klog.V(1).Infof("rotating portrait image to landscape: %s", filepath.Base(src.Path))
		img = transform.Rotate(img, 90, &transform.RotationOptions{ResizeBounds: true})
	}

	return resizeToWidth(img, width), nil
}

// portraitFramed reports whether a decoded raster represents a
// portrait-framed photo: either its pixels are taller than wide, or the
// camera stored it landscape with a 90/270 orientation tag.
func portraitFramed(img image.Image, path string) bool {
	b := img.Bounds()
	if b.Dy() > b.Dx() {
		return true
	}
	return rotatedOrientation(path)
}

// rotatedOrientation reads the EXIF Orientation tag and reports whether
// it indicates a 90 or 270 degree rotation. Mirrored variants (5, 7)
// count too; auto-rotation only normalizes the long edge, it never
// mirrors.
func rotatedOrientation(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".tif" && ext != ".tiff" {
		return false
	}

	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		klog.V(2).Infof("no exif orientation for %s: %v", path, err)
		return false
	}

	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return false
	}

	o, err := tag.Int(0)
	if err != nil {
		return false
	}

	return o >= 5 && o <= 8
}

// resizeToWidth scales img so its width is exactly w, height rounded to
// the nearest pixel, aspect preserved.
func resizeToWidth(img image.Image, w int) image.Image {
	b := img.Bounds()
	if b.Dx() == w {
		return img
	}
	h := int(math.Round(float64(b.Dy()) * float64(w) / float64(b.Dx())))
	if h < 1 {
		h = 1
	}
	return transform.Resize(img, w, h, transform.Lanczos)
}
