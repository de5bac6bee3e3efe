package drafts

import (
	"context"
	"log/slog"

	"github.com/starford/scribe/internal/storage"
)

// Importer applies draft changes to the document store.
type Importer interface {
	// ImportDraft creates or refreshes the document backed by path. sum is
	// the checksum of the file content.
	ImportDraft(ctx context.Context, path string, d *Draft, sum string) error
	// RemoveDraft deletes the document backed by path, if any.
	RemoveDraft(ctx context.Context, path string) error
	// DraftSources maps every imported path to the checksum it was imported
	// with.
	DraftSources(ctx context.Context) (map[string]string, error)
}

// Sync walks the drafts directory and brings the store up to date:
//   - new/changed files are parsed and imported
//   - documents whose file is gone are removed
func Sync(ctx context.Context, files storage.Provider, imp Importer, logger *slog.Logger) error {
	metas, err := files.List("")
	if err != nil {
		return err
	}
	known, err := imp.DraftSources(ctx)
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}
		if known[m.Path] == m.Checksum {
			continue
		}
		if err := importFile(ctx, files, imp, m.Path); err != nil {
			logger.Warn("drafts: import failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		logger.Debug("drafts: imported", slog.String("path", m.Path))
	}

	for p := range known {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := imp.RemoveDraft(ctx, p); err != nil {
			logger.Warn("drafts: remove failed", slog.String("path", p), slog.String("error", err.Error()))
		} else {
			logger.Debug("drafts: removed stale", slog.String("path", p))
		}
	}
	return nil
}

func importFile(ctx context.Context, files storage.Provider, imp Importer, path string) error {
	data, err := files.Read(path)
	if err != nil {
		return err
	}
	return imp.ImportDraft(ctx, path, Parse(path, data), sumOf(data))
}
