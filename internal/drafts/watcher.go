package drafts

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/scribe/internal/checksum"
	"github.com/starford/scribe/internal/storage"
)

// Dir is a drafts provider rooted at a real directory.
type Dir interface {
	storage.Provider
	Root() string
	Rel(abs string) (string, error)
}

const reconcileDelay = 200 * time.Millisecond

// Watch starts an fsnotify watcher on the drafts root and applies file
// changes until ctx is cancelled.
//
// New directories are added to the watch list as they appear. Renames
// remove the old document at once and schedule a short reconciliation pass
// that picks up the new path.
func Watch(ctx context.Context, dir Dir, imp Importer, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, dir.Root()); err != nil {
		return err
	}
	logger.Info("drafts: watcher started", slog.String("root", dir.Root()))

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time
	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
			return
		}
		reconcileTimer.Reset(reconcileDelay)
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("drafts: watcher stopped")
			return nil

		case <-reconcileCh:
			if err := Sync(ctx, dir, imp, logger); err != nil {
				logger.Warn("drafts: reconcile failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			handleEvent(ctx, w, dir, imp, logger, ev, scheduleReconcile)

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("drafts: watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

func handleEvent(ctx context.Context, w *fsnotify.Watcher, dir Dir, imp Importer, logger *slog.Logger,
	ev fsnotify.Event, scheduleReconcile func()) {
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := addDirsRecursive(w, ev.Name); err != nil {
				logger.Warn("drafts: add new dir failed", slog.String("path", ev.Name), slog.String("error", err.Error()))
			}
			// Files may land in the directory before it is watched.
			scheduleReconcile()
			return
		}
	}

	name := filepath.Base(ev.Name)
	if strings.HasPrefix(name, ".") || !storage.IsDraft(name) {
		return
	}
	rel, err := dir.Rel(ev.Name)
	if err != nil {
		return
	}

	switch {
	case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
		if err := importFile(ctx, dir, imp, rel); err != nil {
			logger.Warn("drafts: import failed", slog.String("path", rel), slog.String("error", err.Error()))
			return
		}
		logger.Debug("drafts: imported", slog.String("path", rel), slog.String("op", ev.Op.String()))

	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		// Rename fires on the old path only; the new path arrives as a
		// Create when it stays under a watched directory.
		if err := imp.RemoveDraft(ctx, rel); err != nil {
			logger.Warn("drafts: remove failed", slog.String("path", rel), slog.String("error", err.Error()))
		} else {
			logger.Debug("drafts: removed", slog.String("path", rel))
		}
		if ev.Has(fsnotify.Rename) {
			scheduleReconcile()
		}
	}
}

// addDirsRecursive adds root and all its non-hidden subdirectories to the
// watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}

func sumOf(data []byte) string {
	return checksum.Sum(data)
}
