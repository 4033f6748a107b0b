package sheet

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"image"
	"os"
	"path/filepath"

	"github.com/cenkalti/dominantcolor"
	"k8s.io/klog/v2"
)

//go:embed assets/gallery.tmpl
var galleryTmpl string

//go:embed assets/style.css
var styleText string

// GalleryEntry is one row of the gallery manifest, in frame order.
type GalleryEntry struct {
	Frame int `json:"frame"`
	// SheetPath and ExportPath are relative to the gallery folder.
	SheetPath  string         `json:"sheet"`
	ExportPath string         `json:"export,omitempty"`
	Meta       MetadataRecord `json:"meta"`
	// Accent is the frame's dominant color as a hex string, used for
	// page styling.
	Accent string `json:"accent,omitempty"`
}

// accentColor extracts the dominant color of a raster as hex.
func accentColor(img image.Image) string {
	return dominantcolor.Hex(dominantcolor.Find(img))
}

// writeGallery emits the manifest and index page for gallery mode.
func writeGallery(c *Config, namer Namer, results []result, res *RunResult) {
	entries := []GalleryEntry{}
	for i := range results {
		r := &results[i]
		if r.thumb == nil {
			continue
		}

		e := GalleryEntry{
			Frame:     r.thumb.Frame,
			SheetPath: relToDir(namer.Dir, namer.SheetPath([]int{r.thumb.Frame}, filepath.Base(r.src.Path))),
			Meta:      r.thumb.Meta,
			Accent:    r.accent,
		}
		if r.exportPath != "" {
			e.ExportPath = relToDir(namer.Dir, r.exportPath)
		}
		entries = append(entries, e)
	}
	res.Manifest = entries

	mbs, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		klog.Errorf("marshal manifest: %v", err)
		return
	}
	mp := namer.ManifestPath()
	if err := os.WriteFile(mp, mbs, 0o644); err != nil {
		klog.Warningf("write %s: %v", mp, err)
	} else {
		res.Written = append(res.Written, Artifact{Path: mp, Kind: KindGalleryPage})
	}

	bs, err := renderGallery(c.GalleryName, entries)
	if err != nil {
		klog.Errorf("render gallery: %v", err)
		return
	}

	p := namer.GalleryPagePath()
	klog.Infof("writing gallery index to %s", p)
	if err := os.WriteFile(p, bs, 0o644); err != nil {
		klog.Warningf("write %s: %v", p, err)
		return
	}
	res.Written = append(res.Written, Artifact{Path: p, Kind: KindGalleryPage})
}

// renderGallery renders the index page from the manifest.
func renderGallery(name string, entries []GalleryEntry) ([]byte, error) {
	tmpl, err := template.New("gallery").Funcs(tmplFunctions()).Parse(galleryTmpl)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	data := struct {
		Name    string
		Entries []GalleryEntry
		Style   template.CSS
	}{
		Name:    name,
		Entries: entries,
		Style:   template.CSS(styleText),
	}

	var tpl bytes.Buffer
	if err := tmpl.Execute(&tpl, data); err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}

	return tpl.Bytes(), nil
}

// tmplFunctions are functions available to the gallery template.
func tmplFunctions() template.FuncMap {
	return template.FuncMap{
		"Odd": func(i int) bool {
			return i%2 == 1
		},
	}
}

func relToDir(dir, path string) string {
	r, err := filepath.Rel(dir, path)
	if err != nil {
		return path
	}
	return r
}
