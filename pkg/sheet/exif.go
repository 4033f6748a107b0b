package sheet

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/barasher/go-exiftool"
	"k8s.io/klog/v2"
)

var exifDate = "2006:01:02 15:04:05"

// readMeta extracts a MetadataRecord for path. Missing or unparsable
// tags leave fields absent; only a total extraction failure is an error.
func readMeta(path string, et *exiftool.Exiftool) (MetadataRecord, error) {
	m := MetadataRecord{DisplayName: filepath.Base(path)}

	fis := et.ExtractMetadata(path)
	fi := fis[0]
	if fi.Err != nil {
		return m, &MetadataError{Path: path, Err: fi.Err}
	}

	var err error

	m.Make, err = fi.GetString("Make")
	if err != nil {
		klog.V(1).Infof("unable to get make for %s: %v", path, err)
	}

	m.Model, err = fi.GetString("Model")
	if err != nil {
		klog.V(1).Infof("unable to get model for %s: %v", path, err)
	}

	m.Lens, err = fi.GetString("LensModel")
	if err != nil {
		klog.V(2).Infof("unable to get lens for %s: %v", path, err)
	}

	m.ISO, err = fi.GetInt("ISO")
	if err != nil {
		klog.V(1).Infof("unable to get ISO for %s: %v", path, err)
	}

	m.Shutter, err = fi.GetString("ShutterSpeed")
	if err != nil {
		klog.V(1).Infof("unable to get shutter speed for %s: %v", path, err)
	}

	m.Aperture, err = fi.GetFloat("Aperture")
	if err != nil {
		klog.V(1).Infof("unable to get aperture for %s: %v", path, err)
	}

	m.FocalLength, err = fi.GetString("FocalLength")
	if err != nil {
		klog.V(2).Infof("unable to get focal length for %s: %v", path, err)
	}
	m.FocalLength = strings.ReplaceAll(m.FocalLength, ".0", "")

	ds, err := fi.GetString("DateTimeOriginal")
	if err != nil {
		ds, err = fi.GetString("DateTime")
	}
	if err != nil {
		klog.V(1).Infof("unable to get date time for %s: %v", path, err)
		return m, nil
	}

	m.TakenRaw = ds
	t, err := time.Parse(exifDate, ds)
	if err != nil {
		// Partial timestamps stay verbatim in TakenRaw for display.
		klog.V(1).Infof("unparsable date %q for %s: %v", ds, path, err)
		return m, nil
	}
	m.Taken = t

	return m, nil
}

// headerText is the single line drawn above the EXIF block: the capture
// date by default, the filename when showFilename is set or no date is
// available.
func (m MetadataRecord) headerText(showFilename bool) string {
	if showFilename {
		return m.DisplayName
	}
	if !m.Taken.IsZero() {
		return formatTakenDate(m.Taken)
	}
	if m.TakenRaw != "" {
		return m.TakenRaw
	}
	return m.DisplayName
}

// formatTakenDate renders a capture time as e.g. "May 6th, 2025".
func formatTakenDate(t time.Time) string {
	day := t.Day()
	suffix := "th"
	switch {
	case day >= 11 && day <= 13:
		suffix = "th"
	case day%10 == 1:
		suffix = "st"
	case day%10 == 2:
		suffix = "nd"
	case day%10 == 3:
		suffix = "rd"
	}
	return fmt.Sprintf("%s %d%s, %d", t.Month(), day, suffix, t.Year())
}

// exifLine renders the camera/ISO/shutter/aperture summary beneath a
// thumbnail. Absent fields are omitted rather than placeheld.
func (m MetadataRecord) exifLine() string {
	parts := []string{}

	if m.Model != "" {
		parts = append(parts, m.Model)
	}

	if m.ISO > 0 {
		parts = append(parts, fmt.Sprintf("ISO %d", m.ISO))
	}

	if m.Shutter != "" {
		s := m.Shutter
		if strings.Contains(s, "/") && !strings.HasSuffix(s, "s") {
			s += "s"
		}
		parts = append(parts, s)
	}

	if m.Aperture > 0 {
		parts = append(parts, fmt.Sprintf("f/%s", trimFloat(m.Aperture)))
	}

	return strings.Join(parts, "    ")
}

// trimFloat formats a float without trailing zeros (2.8 not 2.80).
func trimFloat(f float64) string {
	s := fmt.Sprintf("%.1f", f)
	s = strings.TrimSuffix(s, ".0")
	return s
}
