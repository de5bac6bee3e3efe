package docservice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/starford/scribe/internal/apperr"
	"github.com/starford/scribe/internal/checksum"
	"github.com/starford/scribe/internal/codec"
	"github.com/starford/scribe/internal/document"
	"github.com/starford/scribe/internal/drafts"
	"github.com/starford/scribe/internal/store"
)

var _ drafts.Importer = (*Service)(nil)

// ImportDraft creates or refreshes the document backed by the draft at path.
// A file whose checksum matches the last import or write-back is skipped.
func (s *Service) ImportDraft(ctx context.Context, path string, d *drafts.Draft, sum string) error {
	existing, err := s.store.GetBySource(ctx, path)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	if existing != nil && existing.SourceSum == sum {
		return nil
	}

	st, err := codec.FromMarkdown(d.Body)
	if err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}
	content, err := codec.ToJSON(st)
	if err != nil {
		return err
	}

	row := store.Document{ID: uuid.NewString(), Kind: store.KindDraft, SourcePath: path}
	event := "created"
	if existing != nil {
		row, event = *existing, "updated"
	}
	if d.Kind != "" {
		row.Kind = d.Kind
	}
	row.Title = d.Title
	row.Content = content
	row.PlainText = codec.PlainTextOf(st)
	row.Checksum = checksum.String(content)
	row.SourceSum = sum
	row.Version++
	row.UpdatedAt = time.Now().UTC()

	if err := s.store.Upsert(ctx, row); err != nil {
		return err
	}
	s.pub.PublishDocumentEvent(event, row.ID)
	return nil
}

// RemoveDraft deletes the document imported from path. A path that was
// never imported is not an error.
func (s *Service) RemoveDraft(ctx context.Context, path string) error {
	existing, err := s.store.GetBySource(ctx, path)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, existing.ID); err != nil {
		return err
	}
	s.closeSessionsFor(existing.ID)
	s.pub.PublishDocumentEvent("deleted", existing.ID)
	return nil
}

// DraftSources maps every imported draft path to its file checksum.
func (s *Service) DraftSources(ctx context.Context) (map[string]string, error) {
	sources, err := s.store.AllSources(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(sources))
	for p, src := range sources {
		out[p] = src.Checksum
	}
	return out, nil
}

type frontmatter struct {
	Title string `yaml:"title"`
	Kind  string `yaml:"kind,omitempty"`
}

// draftBytes renders st as a Markdown draft with a YAML frontmatter header.
func draftBytes(title, kind string, st *document.EditorState) ([]byte, error) {
	body, err := codec.ToMarkdown(st)
	if err != nil {
		return nil, err
	}
	fm := frontmatter{Title: title}
	if kind != store.KindDraft {
		fm.Kind = kind
	}
	header, err := yaml.Marshal(fm)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(header)
	buf.WriteString("---\n\n")
	buf.WriteString(body)
	return buf.Bytes(), nil
}
