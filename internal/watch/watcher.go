// Package watch rebuilds the corpus when input files change.
package watch

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long changes accumulate before a rebuild.
const DefaultDebounce = 500 * time.Millisecond

// Config configures a Watcher.
type Config struct {
	// Patterns are the input globs; only matching files trigger rebuilds.
	Patterns []string
	// Debounce is how long to wait for more changes before rebuilding.
	Debounce time.Duration
	// Ignore lists files that never trigger a rebuild, such as the output
	// corpus when it lives next to the inputs.
	Ignore []string
}

// RebuildFunc is called once per debounced batch with the changed paths,
// sorted. Deleted files are included.
type RebuildFunc func(ctx context.Context, changed []string) error

// Watcher watches the directories under the input patterns.
type Watcher struct {
	cfg      Config
	patterns []string
	ignore   map[string]bool
	fsw      *fsnotify.Watcher
	logger   *slog.Logger

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	hashes map[string]uint64
}

// New creates a Watcher. Patterns are made absolute so they match the
// absolute paths fsnotify reports.
func New(cfg Config, logger *slog.Logger) (*Watcher, error) {
	if len(cfg.Patterns) == 0 {
		return nil, errors.New("watch: no input patterns")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}

	patterns := make([]string, 0, len(cfg.Patterns))
	for _, p := range cfg.Patterns {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, filepath.ToSlash(abs))
	}
	ignore := make(map[string]bool, len(cfg.Ignore))
	for _, p := range cfg.Ignore {
		if p == "" {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			ignore[abs] = true
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		cfg:      cfg,
		patterns: patterns,
		ignore:   ignore,
		fsw:      fsw,
		logger:   logger.With("component", "watch"),
		pending:  make(map[string]fsnotify.Op),
		hashes:   make(map[string]uint64),
	}, nil
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run watches until ctx is done, calling fn after each debounced batch of
// relevant changes. A failing rebuild is logged and watching continues.
func (w *Watcher) Run(ctx context.Context, fn RebuildFunc) error {
	for _, root := range w.roots() {
		if err := w.addWatchesRecursive(root); err != nil {
			return err
		}
	}
	w.seedHashes()

	w.logger.Info("watching inputs", "patterns", w.cfg.Patterns, "debounce", w.cfg.Debounce)

	ticker := time.NewTicker(w.cfg.Debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleFSEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)

		case <-ticker.C:
			changed := w.flushPending()
			if len(changed) == 0 {
				continue
			}
			w.logger.Info("inputs changed", "files", len(changed))
			if err := fn(ctx, changed); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				w.logger.Error("rebuild failed", "error", err)
			}
		}
	}
}

// roots returns the static directory prefix of every pattern.
func (w *Watcher) roots() []string {
	seen := make(map[string]bool)
	var roots []string
	for _, p := range w.patterns {
		base, _ := doublestar.SplitPattern(p)
		dir := filepath.FromSlash(base)
		if info, err := os.Stat(dir); err == nil && !info.IsDir() {
			dir = filepath.Dir(dir)
		}
		if !seen[dir] {
			seen[dir] = true
			roots = append(roots, dir)
		}
	}
	return roots
}

func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", err)
		} else {
			w.logger.Debug("watching directory", "path", path)
		}
		return nil
	})
}

// matches reports whether path is an input file.
func (w *Watcher) matches(path string) bool {
	if w.ignore[path] {
		return false
	}
	// Temp files from atomic writers.
	if base := filepath.Base(path); strings.HasPrefix(base, ".") {
		return false
	}
	slash := filepath.ToSlash(path)
	for _, p := range w.patterns {
		if ok, _ := doublestar.Match(p, slash); ok {
			return true
		}
	}
	return false
}

// seedHashes records the current content of every input so that a write
// that leaves a file unchanged does not trigger a rebuild.
func (w *Watcher) seedHashes() {
	for _, p := range w.patterns {
		matches, err := doublestar.FilepathGlob(filepath.FromSlash(p))
		if err != nil {
			continue
		}
		for _, m := range matches {
			if h, ok := fileHash(m); ok {
				w.hashes[m] = h
			}
		}
	}
}

func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	path := event.Name

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			w.handleNewDirectory(path)
			return
		}
	}
	if !w.matches(path) {
		return
	}

	w.pendingMu.Lock()
	w.pending[path] |= event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("input change detected", "path", path, "op", event.Op.String())
}

func (w *Watcher) handleNewDirectory(path string) {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return
	}
	if err := w.addWatchesRecursive(path); err != nil {
		w.logger.Warn("failed to watch new directory", "path", path, "error", err)
	}
}

// flushPending drains accumulated changes and returns the paths whose
// content actually changed.
func (w *Watcher) flushPending() []string {
	w.pendingMu.Lock()
	toProcess := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	var changed []string
	for path := range toProcess {
		h, ok := fileHash(path)
		if !ok {
			// Removed, renamed away or unreadable.
			if _, had := w.hashes[path]; had {
				delete(w.hashes, path)
				changed = append(changed, path)
			}
			continue
		}
		if old, had := w.hashes[path]; had && old == h {
			continue
		}
		w.hashes[path] = h
		changed = append(changed, path)
	}
	sort.Strings(changed)
	return changed
}

func fileHash(path string) (uint64, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	return xxhash.Sum64(data), true
}
