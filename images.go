package snapcatalog

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// Image is one screenshot ready to be sent to the vision model.
type Image struct {
	Name      string
	Data      []byte
	MediaType string    // e.g. "image/png"
	Captured  time.Time // zero when the image carries no capture metadata

	// Dropped is why the loader set this image aside, or "" when it goes to
	// the vision model. Run skips dropped images and lists them in the report.
	Dropped string
}

// DataURL returns the image encoded as a data: URI.
func (img Image) DataURL() string {
	return EncodeDataURL(img.Data, img.MediaType)
}

// Blob is a named byte slice from an upload set.
type Blob struct {
	Filename string
	Data     []byte
}

// MediaType infers the media type of an image file. The file extension wins;
// content sniffing is the fallback. Returns "" for non-images.
func MediaType(name string, data []byte) string {
	if ext := strings.ToLower(path.Ext(name)); ext != "" {
		if mt := mime.TypeByExtension(ext); strings.HasPrefix(mt, "image/") {
			return stripParams(mt)
		}
	}
	if len(data) == 0 {
		return ""
	}
	if mt := http.DetectContentType(data); strings.HasPrefix(mt, "image/") {
		return stripParams(mt)
	}
	return ""
}

// stripParams turns "image/jpeg; charset=utf-8" into "image/jpeg".
func stripParams(ct string) string {
	if idx := strings.IndexByte(ct, ';'); idx >= 0 {
		ct = ct[:idx]
	}
	return strings.TrimSpace(ct)
}

// isHidden reports whether any element of a slash path starts with a dot
// (".DS_Store", ".thumbnails/x.png").
func isHidden(p string) bool {
	for _, el := range strings.Split(p, "/") {
		if strings.HasPrefix(el, ".") && el != "." {
			return true
		}
	}
	return false
}

// LoadDir reads every image under dir matching cfg.ImagePattern.
// Hidden files and non-images are skipped.
func (cfg *Config) LoadDir(dir string) ([]Image, error) {
	cfg.defaults()
	return cfg.loadFS(os.DirFS(dir), dir)
}

func (cfg *Config) loadFS(fsys fs.FS, label string) ([]Image, error) {
	matches, err := doublestar.Glob(fsys, cfg.ImagePattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", label, err)
	}
	slices.Sort(matches)

	blobs := make([]Blob, 0, len(matches))
	for _, m := range matches {
		if isHidden(m) {
			continue
		}
		data, err := fs.ReadFile(fsys, m)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", m, err)
		}
		blobs = append(blobs, Blob{Filename: m, Data: data})
	}
	return cfg.LoadBlobs(blobs)
}

// LoadBlobs turns an upload set into images. Hidden files are ignored.
// Blobs that are not images, fail validation or repeat an earlier blob are
// returned with Dropped set, after the usable images.
func (cfg *Config) LoadBlobs(blobs []Blob) ([]Image, error) {
	cfg.defaults()

	images := make([]Image, 0, len(blobs))
	for _, b := range blobs {
		if isHidden(path.Base(b.Filename)) {
			continue
		}
		img := Image{Name: b.Filename, Data: b.Data, MediaType: MediaType(b.Filename, b.Data)}
		if img.MediaType == "" {
			img.Dropped = "not an image"
		}
		images = append(images, img)
	}
	return cfg.prepare(images), nil
}

// LoadURLs downloads remote images. Rejected downloads come back with
// Dropped set to the reason.
func (cfg *Config) LoadURLs(ctx context.Context, urls []string) ([]Image, error) {
	cfg.defaults()

	images := make([]Image, 0, len(urls))
	for _, u := range urls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := cfg.download(ctx, u, DownloadOpts{})
		if err != nil {
			images = append(images, Image{Name: u, Dropped: err.Error()})
			continue
		}
		images = append(images, Image{Name: u, Data: r.Data, MediaType: r.MIMEType})
	}
	return cfg.prepare(images), nil
}

// prepare validates, deduplicates and orders a loaded batch. Usable images
// come first, ordered by capture time when every one has it; dropped images
// follow in input order.
//
// Stages:
//  1. ValidateImage: decodable, wide enough
//  2. dedup: byte-identical copies always, look-alikes with DedupImages
//  3. capture metadata: order by capture time
func (cfg *Config) prepare(images []Image) []Image {
	seen := map[[sha256.Size]byte]string{}
	similar := &dedupFilter{}

	var kept, dropped []Image
	for _, img := range images {
		if img.Dropped == "" {
			img.Dropped = cfg.screen(img, seen, similar)
		}
		if img.Dropped != "" {
			slog.Warn("snapcatalog: screenshot dropped", "file", img.Name, "reason", img.Dropped)
			dropped = append(dropped, img)
			continue
		}
		if meta := ExtractCaptureMetadata(img.Data, img.MediaType); meta != nil {
			img.Captured = meta.Captured
		}
		kept = append(kept, img)
	}

	if allCaptured(kept) {
		slices.SortStableFunc(kept, func(a, b Image) int {
			return a.Captured.Compare(b.Captured)
		})
	}
	return append(kept, dropped...)
}

// screen returns why img should be dropped, or "".
func (cfg *Config) screen(img Image, seen map[[sha256.Size]byte]string, similar *dedupFilter) string {
	if !cfg.ValidateImage(img) {
		return "invalid image"
	}
	sum := sha256.Sum256(img.Data)
	if first, ok := seen[sum]; ok {
		return "identical to " + first
	}
	seen[sum] = img.Name
	if cfg.DedupImages && similar.isDuplicate(img.Data) {
		return "looks like an earlier screenshot"
	}
	return ""
}

func allCaptured(images []Image) bool {
	for _, img := range images {
		if img.Captured.IsZero() {
			return false
		}
	}
	return len(images) > 1
}

// Usable returns the images that were not dropped.
func Usable(images []Image) []Image {
	out := make([]Image, 0, len(images))
	for _, img := range images {
		if img.Dropped == "" {
			out = append(out, img)
		}
	}
	return out
}
