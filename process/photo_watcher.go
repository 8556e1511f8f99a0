package main

import (
	"flag"
	"log"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
)

// Normalizes product photos dropped into the uploads directory: oversized
// originals are downscaled toward the byte budget and every photo gets a
// width-bounded thumbnail next to it. Safe to rerun; processed files are
// detected by their existing thumbnail.

var verbose bool

const (
	thumbWidth = 320
	maxBytes   = 1_000_000 // budget for stored originals
)

func main() {
	_ = godotenv.Load()
	dirFlag := flag.String("dir", defaultPhotoDir(), "directory to scan for product photos")
	watch := flag.Bool("watch", false, "watch directory for new files")
	workers := flag.Int("workers", 0, "worker pool size (default NumCPU)")
	flag.BoolVar(&verbose, "verbose", false, "verbose per-file logging")
	flag.Parse()

	files := listImageFiles(*dirFlag)
	log.Printf("Scanning %d files (workers=%d)", len(files), effectiveWorkers(*workers))
	runWorkerPool(*dirFlag, files, effectiveWorkers(*workers))

	if *watch {
		if err := watchDirectory(*dirFlag, effectiveWorkers(*workers)); err != nil {
			log.Fatalf("watch failed: %v", err)
		}
	}
}

func defaultPhotoDir() string {
	base := os.Getenv("UPLOAD_BASE")
	if base == "" {
		base = "uploads"
	}
	return filepath.Join(base, "products")
}

func effectiveWorkers(w int) int {
	if w <= 0 {
		return runtime.NumCPU()
	}
	return w
}

func logV(format string, args ...any) {
	if verbose {
		log.Printf(format, args...)
	}
}

func listImageFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !isSupportedExt(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

func isSupportedExt(name string) bool {
	// ignore generated thumbnails to avoid recursive processing
	if strings.Contains(name, ".thumb.") {
		return false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif":
		return true
	}
	return false
}

func watchDirectory(dir string, workers int) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}
	log.Printf("Watching %s (debounced) ...", dir)

	fileCh := make(chan string, 256)
	go func() {
		// simple debounce map of pending files
		pending := map[string]time.Time{}
		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					close(fileCh)
					return
				}
				if ev.Op&fsnotify.Create == fsnotify.Create {
					name := filepath.Base(ev.Name)
					if !isSupportedExt(name) {
						continue
					}
					pending[name] = time.Now()
				}
			case <-ticker.C:
				now := time.Now()
				for name, t := range pending {
					if now.Sub(t) > 300*time.Millisecond { // stable
						fileCh <- name
						delete(pending, name)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					close(fileCh)
					return
				}
				log.Printf("watch error: %v", err)
			}
		}
	}()

	go runWorkerPool(dir, nil, workers, fileCh)
	// block forever (Ctrl+C to exit)
	select {}
}

// runWorkerPool feeds the initial file list plus any extra channels into a
// fixed pool of workers.
func runWorkerPool(dir string, initial []string, workers int, extraCh ...<-chan string) {
	fileCh := make(chan string, 1024)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range fileCh {
				processSingleFile(dir, name)
			}
		}()
	}
	go func() {
		for _, f := range initial {
			fileCh <- f
		}
		for _, ch := range extraCh {
			go func(c <-chan string) {
				for n := range c {
					fileCh <- n
				}
			}(ch)
		}
		// if no extraCh (scan only) close when done
		if len(extraCh) == 0 {
			close(fileCh)
		}
	}()
	if len(extraCh) == 0 {
		wg.Wait()
	}
}

// processSingleFile downscales an oversized photo in place and ensures its
// thumbnail exists. Idempotent per file.
func processSingleFile(dir, name string) {
	full := filepath.Join(dir, name)
	thumb := thumbPath(full)

	if err := shrinkToBudget(full); err != nil {
		log.Printf("WARN shrink %s: %v", name, err)
	}
	if _, err := os.Stat(thumb); err == nil {
		logV("SKIP thumbnail exists %s", name)
		return
	}
	img, err := imaging.Open(full)
	if err != nil {
		log.Printf("WARN decode %s: %v", name, err)
		return
	}
	if img.Bounds().Dx() > thumbWidth {
		img = imaging.Resize(img, thumbWidth, 0, imaging.Lanczos)
	}
	if err := imaging.Save(img, thumb); err != nil {
		log.Printf("WARN thumbnail %s: %v", name, err)
		return
	}
	log.Printf("THUMB wrote %s", filepath.Base(thumb))
}

// shrinkToBudget resizes a photo whose file size exceeds maxBytes. Scale is
// estimated from sqrt(max/current) since size roughly tracks pixel area.
func shrinkToBudget(fullPath string) error {
	fi, err := os.Stat(fullPath)
	if err != nil {
		return err
	}
	if fi.Size() <= maxBytes {
		return nil
	}
	img, err := imaging.Open(fullPath)
	if err != nil {
		return err
	}
	scale := math.Sqrt(float64(maxBytes) / float64(fi.Size()))
	if scale > 0.95 {
		scale = 0.95
	}
	if scale < 0.1 { // avoid absurd downscale
		scale = 0.1
	}
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	newW := int(math.Max(1, math.Round(float64(w)*scale)))
	newH := int(math.Max(1, math.Round(float64(h)*scale)))
	img = imaging.Resize(img, newW, newH, imaging.Lanczos)
	if err := imaging.Save(img, fullPath); err != nil {
		return err
	}
	// If still over budget, one more uniform 80% pass
	if fi2, err2 := os.Stat(fullPath); err2 == nil && fi2.Size() > maxBytes {
		if img2, errOpen := imaging.Open(fullPath); errOpen == nil {
			img2 = imaging.Resize(img2, int(float64(img2.Bounds().Dx())*0.8), 0, imaging.Lanczos)
			_ = imaging.Save(img2, fullPath)
		}
	}
	return nil
}

func thumbPath(srcPath string) string {
	ext := filepath.Ext(srcPath)
	return strings.TrimSuffix(srcPath, ext) + ".thumb" + ext
}
