// Package watch runs continuous sync: it observes the configured vault
// roots with fsnotify and fires a debounced callback per changed note file.
package watch

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/metamechanic/notesync/internal/logging"
	"github.com/metamechanic/notesync/internal/model"
)

// ignoredDirs are directory names never watched: platform internals and
// build output churn constantly without holding notes.
var ignoredDirs = map[string]bool{
	".obsidian": true,
	".trash":    true,
	".quarto":   true,
	"_site":     true,
	"_freeze":   true,
	".git":      true,
	"logseq":    true,
}

// Event is one debounced note change.
type Event struct {
	Platform model.Platform
	Path     string
}

// Watcher observes vault roots and emits debounced note-change events.
type Watcher struct {
	roots    map[model.Platform]string
	debounce time.Duration
	handler  func(Event)

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// New builds a watcher over the given platform roots. The handler runs on
// its own goroutine after a path has been quiet for the debounce window.
func New(roots map[model.Platform]string, debounce time.Duration, handler func(Event)) *Watcher {
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	return &Watcher{
		roots:    roots,
		debounce: debounce,
		handler:  handler,
		timers:   make(map[string]*time.Timer),
	}
}

// Run watches until the context is canceled. New subdirectories are added
// to the watch set as they appear.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	for platform, root := range w.roots {
		if err := addRecursive(fsw, root); err != nil {
			logging.Warn("vault root not watchable",
				logging.Platform(string(platform)),
				logging.Path(root),
				logging.Err(err))
		}
	}

	for {
		select {
		case <-ctx.Done():
			w.cancelTimers()
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fsw, event)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logging.Warn("watch error", logging.Err(err))
		}
	}
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, event fsnotify.Event) {
	if event.Op&fsnotify.Create != 0 {
		// A new directory needs its own watch before files land in it.
		if addRecursive(fsw, event.Name) == nil {
			logging.Debug("watching new directory", logging.Path(event.Name))
		}
	}

	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}
	if !isNoteFile(event.Name) {
		return
	}
	platform, ok := w.platformFor(event.Name)
	if !ok {
		return
	}

	w.schedule(Event{Platform: platform, Path: event.Name})
}

// schedule (re)arms the path's debounce timer so a burst of writes to one
// note fires the handler once.
func (w *Watcher) schedule(ev Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.timers[ev.Path]; ok {
		timer.Stop()
	}
	w.timers[ev.Path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, ev.Path)
		w.mu.Unlock()

		logging.Debug("note changed",
			logging.Platform(string(ev.Platform)),
			logging.Path(ev.Path))
		w.handler(ev)
	})
}

func (w *Watcher) cancelTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.timers {
		timer.Stop()
		delete(w.timers, path)
	}
}

// platformFor maps an event path back to the vault root containing it.
func (w *Watcher) platformFor(path string) (model.Platform, bool) {
	for platform, root := range w.roots {
		rel, err := filepath.Rel(root, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		return platform, true
	}
	return "", false
}

// isNoteFile matches the extensions sync cares about, skipping hidden and
// temporary files editors leave behind.
func isNoteFile(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	switch filepath.Ext(base) {
	case ".md", ".qmd":
		return true
	default:
		return false
	}
}

// addRecursive watches dir and every non-ignored subdirectory.
func addRecursive(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if ignoredDirs[d.Name()] && path != dir {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
}
