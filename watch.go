package snapcatalog

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// DefaultQuietPeriod is how long the inbox must stay quiet before a batch runs.
const DefaultQuietPeriod = 2 * time.Second

// InboxHandler processes one batch of newly arrived image paths.
type InboxHandler func(ctx context.Context, paths []string) error

// WatchInbox watches dir and its subdirectories for new screenshots matching
// cfg.ImagePattern and calls handle with every path that arrived since the
// last batch, once the directory has been quiet for quiet. Batches run one at
// a time. Each path is handed over once per watch: a handler error is logged
// and the paths are not retried, and later writes to a handled path are
// ignored. WatchInbox returns when ctx is done.
func (cfg *Config) WatchInbox(ctx context.Context, dir string, quiet time.Duration, handle InboxHandler) error {
	cfg.defaults()
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := cfg.watchTree(watcher, dir, dir, nil); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	slog.Info("snapcatalog: watching inbox", "dir", dir, "pattern", cfg.ImagePattern)

	pending := map[string]bool{}
	handled := map[string]bool{}
	timer := time.NewTimer(quiet)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("snapcatalog: watcher error", "error", err.Error())

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
				// Files may land in a new folder before its watch is added.
				if err := cfg.watchTree(watcher, dir, ev.Name, pending); err != nil {
					slog.Warn("snapcatalog: cannot watch folder", "dir", ev.Name, "error", err.Error())
				}
				timer.Reset(quiet)
				continue
			}
			if handled[ev.Name] || !cfg.inboxMatch(dir, ev.Name) {
				continue
			}
			pending[ev.Name] = true
			timer.Reset(quiet)

		case <-timer.C:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				if _, err := os.Stat(p); err == nil && !handled[p] {
					paths = append(paths, p)
				}
			}
			clear(pending)
			if len(paths) == 0 {
				continue
			}
			slices.Sort(paths)
			for _, p := range paths {
				handled[p] = true
			}

			slog.Info("snapcatalog: inbox batch", "files", len(paths))
			if err := handle(ctx, paths); err != nil {
				slog.Error("snapcatalog: inbox batch failed", "files", len(paths), "error", err.Error())
			}
		}
	}
}

// watchTree adds root and every non-hidden folder below it to watcher. When
// pending is non-nil, matching files already inside are added to it.
func (cfg *Config) watchTree(watcher *fsnotify.Watcher, dir, root string, pending map[string]bool) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			if pending != nil && cfg.inboxMatch(dir, p) {
				pending[p] = true
			}
			return nil
		}
		if p != root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		return watcher.Add(p)
	})
}

// inboxMatch reports whether path (inside dir) matches the image pattern and
// is not hidden.
func (cfg *Config) inboxMatch(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if isHidden(rel) {
		return false
	}
	ok, err := doublestar.Match(cfg.ImagePattern, rel)
	return err == nil && ok
}

// LoadFiles reads the given image files as one batch.
func (cfg *Config) LoadFiles(paths []string) ([]Image, error) {
	blobs := make([]Blob, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		blobs = append(blobs, Blob{Filename: filepath.Base(p), Data: data})
	}
	return cfg.LoadBlobs(blobs)
}
