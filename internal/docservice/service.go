// Package docservice coordinates stored documents, rendering and editing
// sessions.
package docservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/starford/scribe/internal/apperr"
	"github.com/starford/scribe/internal/checksum"
	"github.com/starford/scribe/internal/codec"
	"github.com/starford/scribe/internal/document"
	"github.com/starford/scribe/internal/sse"
	"github.com/starford/scribe/internal/storage"
	"github.com/starford/scribe/internal/store"
)

// Publisher receives document and session events.
type Publisher interface {
	PublishDocumentEvent(kind, id string)
	PublishChange(c sse.Change)
}

type nopPublisher struct{}

func (nopPublisher) PublishDocumentEvent(string, string) {}
func (nopPublisher) PublishChange(sse.Change)            {}

// Options tunes a Service. Zero values fall back to the defaults.
type Options struct {
	HTML            codec.HTMLOptions
	HistoryDepth    int
	Highlight       bool
	RenderTTL       time.Duration
	SessionTTL      time.Duration
	CleanupInterval time.Duration
	// Drafts, when set, receives Markdown write-backs for draft-backed
	// documents and loses the file when such a document is deleted.
	Drafts    storage.Provider
	Publisher Publisher
	Logger    *slog.Logger
}

// Document is the full representation of a stored document. Content holds
// the JSON editor state.
type Document struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Checksum   string    `json:"checksum"`
	Version    int64     `json:"version"`
	SourcePath string    `json:"source_path,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Summary is a lightweight item in a list response.
type Summary struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Checksum  string    `json:"checksum"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateInput describes a new document.
type CreateInput struct {
	Title   string
	Kind    string
	Format  Format
	Content string
}

// UpdateInput changes a document. Nil fields are left as they are. A
// non-empty IfMatch must equal the current checksum.
type UpdateInput struct {
	Title   *string
	Format  Format
	Content *string
	IfMatch string
}

// Service coordinates the store, the render cache and editing sessions.
type Service struct {
	store    store.Store
	drafts   storage.Provider
	pub      Publisher
	log      *slog.Logger
	opts     Options
	renders  *cache.Cache
	sessions *cache.Cache
}

// NewService creates a new document service.
func NewService(st store.Store, opts Options) *Service {
	if opts.HistoryDepth <= 0 {
		opts.HistoryDepth = 100
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * time.Minute
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = 5 * time.Minute
	}
	s := &Service{
		store:  st,
		drafts: opts.Drafts,
		pub:    opts.Publisher,
		log:    opts.Logger,
		opts:   opts,
	}
	if s.pub == nil {
		s.pub = nopPublisher{}
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if opts.RenderTTL > 0 {
		s.renders = cache.New(opts.RenderTTL, 2*opts.RenderTTL)
	}
	s.sessions = cache.New(opts.SessionTTL, opts.CleanupInterval)
	s.sessions.OnEvicted(func(id string, v any) {
		if sess, ok := v.(*session); ok {
			sess.close()
			s.log.Debug("session closed", slog.String("session_id", id))
		}
	})
	return s
}

// Create stores a new document.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Document, error) {
	st, err := Decode(in.Format, in.Content)
	if err != nil {
		return nil, err
	}
	title := in.Title
	if title == "" {
		title = deriveTitle(st)
	}
	kind := in.Kind
	if kind == "" {
		kind = store.KindDocument
	}
	row := store.Document{ID: uuid.NewString(), Kind: kind, Title: title}
	doc, err := s.persist(ctx, row, st)
	if err != nil {
		return nil, err
	}
	s.pub.PublishDocumentEvent("created", doc.ID)
	return doc, nil
}

// Get returns one document.
func (s *Service) Get(ctx context.Context, id string) (*Document, error) {
	row, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toDocument(row), nil
}

// Update replaces the title and/or content of a document with optimistic
// concurrency on the checksum.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*Document, error) {
	row, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.IfMatch != "" && in.IfMatch != row.Checksum {
		return nil, apperr.ErrConflict
	}

	var st *document.EditorState
	if in.Content != nil {
		if st, err = Decode(in.Format, *in.Content); err != nil {
			return nil, err
		}
	} else {
		st = codec.Load(row.Content).State
	}
	if in.Title != nil {
		if *in.Title == "" {
			return nil, fmt.Errorf("%w: title must not be empty", apperr.ErrInvalidInput)
		}
		row.Title = *in.Title
	}

	doc, err := s.persist(ctx, *row, st)
	if err != nil {
		return nil, err
	}
	s.pub.PublishDocumentEvent("updated", doc.ID)
	return doc, nil
}

// Delete removes a document, its draft file and any open sessions on it.
func (s *Service) Delete(ctx context.Context, id string) error {
	row, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	if row.SourcePath != "" && s.drafts != nil {
		if err := s.drafts.Delete(row.SourcePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("draft delete failed", slog.String("path", row.SourcePath), slog.String("error", err.Error()))
		}
	}
	s.closeSessionsFor(id)
	s.pub.PublishDocumentEvent("deleted", id)
	return nil
}

// List returns paginated document summaries.
func (s *Service) List(ctx context.Context, q store.ListQuery) ([]Summary, int, error) {
	rows, total, err := s.store.List(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	items := make([]Summary, len(rows))
	for i, r := range rows {
		items[i] = Summary{
			ID:        r.ID,
			Kind:      r.Kind,
			Title:     r.Title,
			Checksum:  r.Checksum,
			Version:   r.Version,
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search delegates full-text search to the store.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]store.SearchResult, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", apperr.ErrInvalidInput)
	}
	return s.store.Search(ctx, query, limit)
}

// HTML renders a stored document. Output is cached per document checksum.
func (s *Service) HTML(ctx context.Context, id string) (string, error) {
	row, err := s.store.Get(ctx, id)
	if err != nil {
		return "", err
	}
	key := row.ID + ":" + row.Checksum
	if s.renders != nil {
		if v, ok := s.renders.Get(key); ok {
			return v.(string), nil
		}
	}
	out, err := codec.ToHTMLWithOptions(codec.Load(row.Content).State, s.opts.HTML)
	if err != nil {
		return "", err
	}
	if s.renders != nil {
		s.renders.SetDefault(key, out)
	}
	return out, nil
}

// Export renders a stored document in format f.
func (s *Service) Export(ctx context.Context, id string, f Format) (string, error) {
	if f == FormatHTML {
		return s.HTML(ctx, id)
	}
	row, err := s.store.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return Encode(codec.Load(row.Content).State, f, s.opts.HTML)
}

// Rendered is the outcome of Render.
type Rendered struct {
	Output string       `json:"output"`
	Source codec.Source `json:"source"`
	// Warning explains why a structured payload fell back to a lower tier.
	Warning string `json:"warning,omitempty"`
}

// Render loads an arbitrary persisted payload with the fallback loader and
// renders it in format to. It never fails on malformed input.
func (s *Service) Render(_ context.Context, payload string, to Format) (*Rendered, error) {
	loaded := codec.Load(payload)
	out, err := Encode(loaded.State, to, s.opts.HTML)
	if err != nil {
		return nil, err
	}
	r := &Rendered{Output: out, Source: loaded.Source}
	if loaded.Err != nil {
		r.Warning = loaded.Err.Error()
	}
	return r, nil
}

// persist writes st as the content of row, bumping its version, and mirrors
// draft-backed documents back to their file.
func (s *Service) persist(ctx context.Context, row store.Document, st *document.EditorState) (*Document, error) {
	content, err := codec.ToJSON(st)
	if err != nil {
		return nil, err
	}
	row.Content = content
	row.PlainText = codec.PlainTextOf(st)
	row.Checksum = checksum.String(content)
	row.Version++
	row.UpdatedAt = time.Now().UTC()

	if row.SourcePath != "" && s.drafts != nil {
		data, err := draftBytes(row.Title, row.Kind, st)
		if err != nil {
			return nil, err
		}
		if err := s.drafts.Write(row.SourcePath, data); err != nil {
			return nil, fmt.Errorf("write draft: %w", err)
		}
		row.SourceSum = checksum.Sum(data)
	}

	if err := s.store.Upsert(ctx, row); err != nil {
		return nil, err
	}
	return s.Get(ctx, row.ID)
}

func toDocument(r *store.Document) *Document {
	return &Document{
		ID:         r.ID,
		Kind:       r.Kind,
		Title:      r.Title,
		Content:    r.Content,
		Checksum:   r.Checksum,
		Version:    r.Version,
		SourcePath: r.SourcePath,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}
