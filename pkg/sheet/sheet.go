// Package sheet turns a directory of RAW and standard photos into
// annotated contact sheets, optional full-size exports, and an optional
// HTML gallery.
package sheet

import (
	"image"
	"runtime"
	"time"
)

// Style selects how thumbnails are grouped onto sheets.
type Style string

const (
	// StyleSingle produces one sheet per source image.
	StyleSingle Style = "single"
	// StyleStrip groups 4 consecutive frames per sheet.
	StyleStrip Style = "strip"
	// StyleGrid groups 10 consecutive frames per sheet.
	StyleGrid Style = "grid"
)

// framesPerSheet returns how many frames share a sheet for a style.
func (s Style) framesPerSheet() int {
	switch s {
	case StyleStrip:
		return 4
	case StyleGrid:
		return 10
	default:
		return 1
	}
}

// Config holds configuration for a contact sheet run.
type Config struct {
	InDir  string
	OutDir string

	// Width is the thumbnail (and minimum canvas) width in pixels.
	Width int
	// Quality is the JPEG quality for encoded artifacts (1-100).
	Quality int

	Histogram    bool
	ShowEXIF     bool
	Sharpen      bool
	ShowFilename bool
	CustomText   string

	// Rename numbers output files by frame instead of source name.
	Rename bool
	// Export writes a 2000px-wide JPEG next to each sheet.
	Export bool
	// GalleryName, when set, enables HTML gallery mode (implies
	// Export and Rename) and names the gallery folder.
	GalleryName string

	Style     Style
	FontColor string

	Workers       int
	DecodeTimeout time.Duration

	// Decoder handles RAW decoding. Nil selects the dcraw decoder.
	Decoder Decoder
}

// DefaultConfig returns a Config with the stock defaults applied.
func DefaultConfig() *Config {
	return &Config{
		Width:         600,
		Quality:       95,
		ShowEXIF:      true,
		Sharpen:       true,
		Style:         StyleSingle,
		FontColor:     "#ff9c00",
		Workers:       runtime.GOMAXPROCS(0),
		DecodeTimeout: 60 * time.Second,
	}
}

// FormatClass describes how a source file is decoded.
type FormatClass int

const (
	// ClassStandard is decoded in-process (JPEG, TIFF, PPM).
	ClassStandard FormatClass = iota
	// ClassRAW routes through the external decoder.
	ClassRAW
)

// SourceImage is one enumerated input file.
type SourceImage struct {
	Path  string
	Class FormatClass
}

// MetadataRecord holds capture attributes for one source image. Every
// field is optional; absent fields render blank.
type MetadataRecord struct {
	Make        string
	Model       string
	Lens        string
	ISO         int64
	Shutter     string
	Aperture    float64
	FocalLength string

	// Taken is the parsed capture time; zero when absent or unparsable.
	Taken time.Time
	// TakenRaw preserves the tag text verbatim for display when Taken
	// could not be parsed (partial timestamps included).
	TakenRaw string

	DisplayName string
}

// Thumbnail is a normalized raster plus its metadata and frame index.
type Thumbnail struct {
	Raster image.Image
	Meta   MetadataRecord
	// Frame is 1-based and unique within a run.
	Frame int
	// Hist is the pre-rendered histogram overlay, nil when disabled.
	Hist *image.RGBA

	// SourcePath is the originating file, used for naming and export.
	SourcePath string
}

// ArtifactKind tags what an output artifact is.
type ArtifactKind int

const (
	KindSheet ArtifactKind = iota
	KindExport
	KindGalleryPage
)

// Artifact is one written output file.
type Artifact struct {
	Path string
	Kind ArtifactKind
}
