// rawsheet generates annotated contact sheets from a directory of RAW
// and standard photos.
package main

import (
	"context"
	"flag"
	"net/http"
	"sync"
	"time"

	_ "image/jpeg"
	_ "image/png"

	"k8s.io/klog/v2"

	"github.com/fsnotify/fsnotify"
	"github.com/rawsheet/rawsheet/pkg/sheet"
)

var (
	inDir         = flag.String("in", "", "input directory (or set via first positional argument)")
	outDir        = flag.String("out", "", "output directory (defaults to the input directory)")
	width         = flag.Int("width", 600, "contact sheet width in pixels")
	quality       = flag.Int("quality", 95, "JPEG quality (1-100)")
	histogram     = flag.Bool("histogram", false, "overlay an RGB histogram on each thumbnail")
	noEXIF        = flag.Bool("no-exif", false, "disable the EXIF information line")
	noSharpen     = flag.Bool("no-sharpen", false, "disable sharpening and auto-contrast")
	customText    = flag.String("custom-text", "", "extra text line drawn under each thumbnail")
	showFilename  = flag.Bool("show-filename", false, "show the filename instead of the capture date")
	rename        = flag.Bool("rename", false, "name output files by frame number")
	export        = flag.Bool("export", false, "also export 2000px wide JPEGs")
	gallery       = flag.String("gallery", "", "HTML gallery name (implies -export and -rename)")
	style         = flag.String("style", "single", "sheet style: single, strip, or grid")
	fontColor     = flag.String("font-color", "#ff9c00", "annotation color as a hex string")
	workers       = flag.Int("workers", 0, "parallel workers (0 = number of CPUs)")
	decodeTimeout = flag.Duration("decode-timeout", 60*time.Second, "per-file external decode timeout")
	watchFlag     = flag.Bool("watch", false, "watch the input directory and regenerate on changes")
	listen        = flag.Bool("listen", false, "serve the output directory via HTTP")
	addr          = flag.String("addr", "localhost:12800", "host:port to bind to in listen mode")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	in := *inDir
	if in == "" {
		in = flag.Arg(0)
	}
	if in == "" {
		klog.Exitf("--in (or a positional input directory) is required")
	}

	c := sheet.DefaultConfig()
	c.InDir = in
	c.OutDir = *outDir
	c.Width = *width
	c.Quality = *quality
	c.Histogram = *histogram
	c.ShowEXIF = !*noEXIF
	c.Sharpen = !*noSharpen
	c.CustomText = *customText
	c.ShowFilename = *showFilename
	c.Rename = *rename
	c.Export = *export
	c.GalleryName = *gallery
	c.Style = sheet.Style(*style)
	c.FontColor = *fontColor
	if *workers > 0 {
		c.Workers = *workers
	}
	c.DecodeTimeout = *decodeTimeout

	res, err := sheet.Run(context.Background(), c)
	if err != nil {
		klog.Exitf("run failed: %v", err)
	}

	// Per-file failures are warnings, not process failures.
	klog.Infof("%d sheets written, %d files skipped", res.Sheets, len(res.Skips))

	var wg sync.WaitGroup
	if *watchFlag {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := watch(c); err != nil {
				klog.Errorf("watch failed: %v", err)
			}
		}()
	}

	if *listen {
		wg.Add(1)
		go func() {
			defer wg.Done()
			serve(outRoot(c), *addr)
		}()
	}

	wg.Wait()
}

func outRoot(c *sheet.Config) string {
	if c.OutDir != "" {
		return c.OutDir
	}
	return c.InDir
}

// serve serves the generated output via HTTP for previewing.
func serve(path string, addr string) {
	fs := http.FileServer(http.Dir(path))
	http.Handle("/", fs)

	klog.Infof("Listening on %s...", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		klog.Exitf("listen failed: %v", err)
	}
}

// watch regenerates sheets whenever the input directory changes.
func watch(c *sheet.Config) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(c.InDir); err != nil {
		return err
	}

	klog.Infof("watching %s ...", c.InDir)
	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				klog.Infof("change detected: %s", event)
				if _, err := sheet.Run(context.Background(), c); err != nil {
					klog.Errorf("rebuild failed: %v", err)
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			klog.Errorf("watch error: %v", err)
		}
	}
}
