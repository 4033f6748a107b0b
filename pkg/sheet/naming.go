package sheet

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Namer computes output paths. Paths are a pure function of the active
// flags, frame numbers, and source basenames, so a run with unchanged
// inputs always produces the same names; existing files with the same
// name are overwritten.
type Namer struct {
	// Dir is the directory artifacts land in: `<out>/cs` normally, the
	// gallery folder in gallery mode.
	Dir string
	// Rename numbers artifacts by frame instead of source basename.
	Rename bool
}

// NewNamer builds the namer for a run. galleryDir is empty outside
// gallery mode.
func NewNamer(c *Config, galleryDir string) Namer {
	if galleryDir != "" {
		return Namer{Dir: galleryDir, Rename: true}
	}

	out := c.OutDir
	if out == "" {
		out = c.InDir
	}
	return Namer{Dir: filepath.Join(out, "cs"), Rename: c.Rename}
}

// SheetPath names a contact sheet covering the given frames. Sheets
// holding a single frame use the source basename (or the frame number
// with rename); grouped sheets are always named by their frame range.
// In plain mode two sources sharing a stem (a.jpg and a.tif) map to the
// same output name and the later frame wins; rename mode sidesteps
// this.
func (n Namer) SheetPath(frames []int, base string) string {
	switch {
	case len(frames) > 1:
		return filepath.Join(n.Dir, fmt.Sprintf("%03d-%03d_cs.jpg", frames[0], frames[len(frames)-1]))
	case n.Rename && len(frames) == 1:
		return filepath.Join(n.Dir, fmt.Sprintf("%03d_cs.jpg", frames[0]))
	default:
		return filepath.Join(n.Dir, stripExt(base)+"_cs.jpg")
	}
}

// ExportPath names the full-size export for one frame.
func (n Namer) ExportPath(frame int, base string) string {
	if n.Rename {
		return filepath.Join(n.Dir, fmt.Sprintf("%03d.jpg", frame))
	}
	return filepath.Join(n.Dir, stripExt(base)+".jpg")
}

// GalleryPagePath names the gallery index page.
func (n Namer) GalleryPagePath() string {
	return filepath.Join(n.Dir, "index.html")
}

// ManifestPath names the machine-readable gallery manifest.
func (n Namer) ManifestPath() string {
	return filepath.Join(n.Dir, "manifest.json")
}

// galleryFolder names the gallery output folder: "<date> <name>".
func galleryFolder(out string, date time.Time, name string) string {
	return filepath.Join(out, fmt.Sprintf("%s %s", date.Format("2006-01-02"), name))
}

func stripExt(base string) string {
	return strings.TrimSuffix(base, filepath.Ext(base))
}
