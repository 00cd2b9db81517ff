// Package watch reports batches of changed source files under a project root.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pterm/pterm"

	"github.com/meysamhadeli/codaiscan/utils"
)

// DefaultDebounce is how long the watcher waits after the last change
// before delivering a batch (save + format produce several events).
const DefaultDebounce = 750 * time.Millisecond

// Watcher watches every non-ignored directory under a root.
type Watcher struct {
	root     string
	ignores  *utils.GitIgnoreCache
	fs       *fsnotify.Watcher
	debounce time.Duration
	logger   *pterm.Logger
}

// NewWatcher registers root and its non-ignored subdirectories. A
// non-positive debounce uses DefaultDebounce.
func NewWatcher(root string, debounce time.Duration, logger *pterm.Logger) (*Watcher, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid root path: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = pterm.DefaultLogger.WithLevel(pterm.LogLevelDisabled)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	w := &Watcher{
		root:     absRoot,
		ignores:  utils.NewGitIgnoreCache(absRoot),
		fs:       fw,
		debounce: debounce,
		logger:   logger,
	}
	if err := w.addTree(absRoot); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.ignored(path) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) ignored(abs string) bool {
	rel, err := filepath.Rel(w.root, abs)
	if err != nil {
		return true
	}
	return w.ignores.IsIgnored(filepath.ToSlash(rel))
}

// Run delivers changed paths, relative to the root and sorted, to onChange
// until ctx is done. onChange runs on the watcher goroutine; events that
// arrive meanwhile form the next batch.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context, paths []string)) error {
	defer w.fs.Close()

	pending := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if rel, ok := w.handle(event); ok {
				pending[rel] = true
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", w.logger.Args("error", err))

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}
			sort.Strings(batch)
			pending = make(map[string]bool)
			w.logger.Debug("changes detected", w.logger.Args("files", len(batch)))
			onChange(ctx, batch)
		}
	}
}

// handle filters one event down to a changed, existing, non-ignored file.
// New directories are added to the watch list.
func (w *Watcher) handle(event fsnotify.Event) (string, bool) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return "", false
	}
	if w.ignored(event.Name) {
		return "", false
	}
	info, err := os.Stat(event.Name)
	if err != nil {
		return "", false
	}
	if info.IsDir() {
		if err := w.addTree(event.Name); err != nil {
			w.logger.Warn("failed to watch new directory", w.logger.Args("path", event.Name, "error", err))
		}
		return "", false
	}
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
