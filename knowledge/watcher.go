package knowledge

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher reloads the knowledge base when policy files change on disk.
// Changes are debounced and content-hashed so editor save storms and
// touch-without-change events do not trigger reloads.
type Watcher struct {
	sourcesDir string
	debounce   time.Duration
	watcher    *fsnotify.Watcher
	loader     *Loader
	base       *Base
	logger     *slog.Logger

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	hashMu sync.RWMutex
	hashes map[string]string

	reloads atomic.Int64
}

// NewWatcher creates a watcher that feeds loader output into base.
// debounce <= 0 gets the default.
func NewWatcher(sourcesDir string, debounce time.Duration, loader *Loader, base *Base, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		sourcesDir: sourcesDir,
		debounce:   debounce,
		watcher:    fsw,
		loader:     loader,
		base:       base,
		logger:     logger,
		pending:    make(map[string]fsnotify.Op),
		hashes:     make(map[string]string),
	}, nil
}

// Start begins watching. The processing goroutine exits with ctx.
func (w *Watcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.sourcesDir, 0755); err != nil {
		return err
	}
	if err := w.addWatchesRecursive(w.sourcesDir); err != nil {
		return err
	}

	go w.processEvents(ctx)

	w.logger.Info("Policy watcher started",
		"sources_dir", w.sourcesDir,
		"debounce", w.debounce)

	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

// Reloads returns the number of reloads triggered by file changes.
func (w *Watcher) Reloads() int64 {
	return w.reloads.Load()
}

// addWatchesRecursive adds watches to all non-hidden directories.
func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}

		base := filepath.Base(path)
		if strings.HasPrefix(base, ".") && path != root {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory",
				"path", path,
				"error", err)
		}
		return nil
	})
}

// processEvents drains fsnotify events with debouncing.
func (w *Watcher) processEvents(ctx context.Context) {
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending()
		}
	}
}

// handleFSEvent records a single change for the next flush.
func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	path := event.Name
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".md" && ext != ".html" {
		// New subdirectories need their own watch.
		if event.Has(fsnotify.Create) {
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				w.handleNewDirectory(path)
			}
		}
		return
	}

	w.pendingMu.Lock()
	w.pending[path] = event.Op
	w.pendingMu.Unlock()
}

// handleNewDirectory adds a watch to a newly created directory.
func (w *Watcher) handleNewDirectory(path string) {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return
	}
	if err := w.watcher.Add(path); err != nil {
		w.logger.Warn("Failed to watch new directory",
			"path", path,
			"error", err)
	}
}

// flushPending checks accumulated changes and reloads once if any file
// actually changed content.
func (w *Watcher) flushPending() {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	toCheck := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	changed := false
	for path, op := range toCheck {
		if op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) {
			w.hashMu.Lock()
			delete(w.hashes, path)
			w.hashMu.Unlock()
			changed = true
			continue
		}

		content, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				changed = true
			}
			continue
		}

		sum := sha256.Sum256(content)
		newHash := hex.EncodeToString(sum[:])

		w.hashMu.Lock()
		oldHash, had := w.hashes[path]
		w.hashes[path] = newHash
		w.hashMu.Unlock()

		if !had || oldHash != newHash {
			changed = true
		}
	}

	if !changed {
		return
	}

	w.reload()
}

// reload re-reads the sources directory into the base.
func (w *Watcher) reload() {
	docs, err := w.loader.Load()
	if err != nil {
		w.logger.Error("Policy reload failed", "error", err)
		return
	}
	w.base.SetDocuments(docs)
	w.reloads.Add(1)
}
