package sheet

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/karrick/godirwalk"
	"k8s.io/klog/v2"
)

// rawExts are vendor RAW formats routed through the external decoder.
var rawExts = map[string]bool{
	".cr2": true,
	".cr3": true,
	".nef": true,
	".arw": true,
	".dng": true,
	".raf": true,
	".orf": true,
	".rw2": true,
	".pef": true,
	".srw": true,
}

// stdExts are formats decoded in-process.
var stdExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".tif":  true,
	".tiff": true,
	".ppm":  true,
}

// classify returns the format class for a path, or false when the
// extension is not recognized.
func classify(path string) (FormatClass, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case rawExts[ext]:
		return ClassRAW, true
	case stdExts[ext]:
		return ClassStandard, true
	}
	return ClassStandard, false
}

// isGenerated reports whether a path looks like our own output.
func isGenerated(path string) bool {
	base := filepath.Base(path)
	noExt := strings.TrimSuffix(base, filepath.Ext(base))
	return strings.HasSuffix(noExt, "_cs")
}

// Find enumerates recognized source images in the top level of root,
// sorted lexicographically by filename so frame numbering is stable
// regardless of filesystem iteration order.
func Find(root string) ([]SourceImage, error) {
	found := []SourceImage{}

	err := godirwalk.Walk(root, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if path != root && filepath.Base(path)[0] == '.' {
				return godirwalk.SkipThis
			}

			if de.IsDir() {
				// Top level only: skip the cs output folder and any
				// other subdirectory.
				if path != root {
					return godirwalk.SkipThis
				}
				return nil
			}

			class, ok := classify(path)
			if !ok {
				klog.V(1).Infof("skipping unrecognized file %s", path)
				return nil
			}

			if isGenerated(path) {
				klog.V(1).Infof("skipping generated file %s", path)
				return nil
			}

			klog.V(1).Infof("found %s", path)
			found = append(found, SourceImage{Path: path, Class: class})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	sort.Slice(found, func(i, j int) bool {
		return filepath.Base(found[i].Path) < filepath.Base(found[j].Path)
	})

	return found, nil
}
