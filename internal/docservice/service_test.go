package docservice

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/scribe/internal/apperr"
	"github.com/starford/scribe/internal/codec"
	"github.com/starford/scribe/internal/document"
	"github.com/starford/scribe/internal/drafts"
	"github.com/starford/scribe/internal/editor"
	"github.com/starford/scribe/internal/sse"
	"github.com/starford/scribe/internal/storage"
	"github.com/starford/scribe/internal/store"
	"github.com/starford/scribe/internal/testutil"
)

type recorder struct {
	mu      sync.Mutex
	events  []string
	changes []sse.Change
}

func (r *recorder) PublishDocumentEvent(kind, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, kind+":"+id)
}

func (r *recorder) PublishChange(c sse.Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
}

func newService(t *testing.T, drafts storage.Provider) (*Service, *recorder) {
	t.Helper()
	rec := &recorder{}
	svc := NewService(testutil.TestDB(t), Options{
		Highlight: true,
		RenderTTL: time.Minute,
		Drafts:    drafts,
		Publisher: rec,
	})
	return svc, rec
}

// firstTextKey finds the key of the first text node in a keyed JSON state.
func firstTextKey(t *testing.T, state string) document.Key {
	t.Helper()
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(state), &doc))
	var walk func(n map[string]any) string
	walk = func(n map[string]any) string {
		if n["type"] == "text" {
			k, _ := n["key"].(string)
			return k
		}
		children, _ := n["children"].([]any)
		for _, c := range children {
			if m, ok := c.(map[string]any); ok {
				if k := walk(m); k != "" {
					return k
				}
			}
		}
		return ""
	}
	key := walk(doc["root"].(map[string]any))
	require.NotEmpty(t, key)
	return document.Key(key)
}

func TestCreateInEveryFormat(t *testing.T) {
	svc, rec := newService(t, nil)
	ctx := context.Background()

	tests := []struct {
		format  Format
		content string
		want    string
	}{
		{FormatMarkdown, "# Plan\n\nShip **it**", "<h1>Plan</h1>"},
		{FormatHTML, "<p>Hello <em>there</em></p>", "<em>there</em>"},
		{FormatText, "line one\nline two", "<p>line two</p>"},
		{FormatAuto, `{"text":"from a text field"}`, "from a text field"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			doc, err := svc.Create(ctx, CreateInput{Format: tt.format, Content: tt.content})
			require.NoError(t, err)
			assert.Equal(t, int64(1), doc.Version)
			assert.Equal(t, store.KindDocument, doc.Kind)
			assert.NotEmpty(t, doc.Checksum)

			_, err = codec.FromJSON(doc.Content)
			require.NoError(t, err)

			html, err := svc.HTML(ctx, doc.ID)
			require.NoError(t, err)
			assert.Contains(t, html, tt.want)
		})
	}
	assert.Len(t, rec.events, len(tests))
}

func TestCreateDerivesTitle(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()

	doc, err := svc.Create(ctx, CreateInput{Format: FormatMarkdown, Content: "## Weekly sync\n\nnotes"})
	require.NoError(t, err)
	assert.Equal(t, "Weekly sync", doc.Title)

	doc, err = svc.Create(ctx, CreateInput{Format: FormatText, Content: strings.Repeat("x", 200)})
	require.NoError(t, err)
	assert.Equal(t, 80, len([]rune(doc.Title)))

	doc, err = svc.Create(ctx, CreateInput{})
	require.NoError(t, err)
	assert.Equal(t, "Untitled", doc.Title)
}

func TestCreateRejectsMalformedJSON(t *testing.T) {
	svc, _ := newService(t, nil)
	_, err := svc.Create(context.Background(), CreateInput{Format: FormatJSON, Content: `{"root":{"type":"paragraph"}}`})
	assert.ErrorIs(t, err, document.ErrMalformedDocument)

	_, err = svc.Create(context.Background(), CreateInput{Format: "docx"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestUpdate(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()
	doc, err := svc.Create(ctx, CreateInput{Title: "T", Format: FormatText, Content: "first"})
	require.NoError(t, err)

	content := "second"
	updated, err := svc.Update(ctx, doc.ID, UpdateInput{Format: FormatText, Content: &content, IfMatch: doc.Checksum})
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)
	assert.NotEqual(t, doc.Checksum, updated.Checksum)
	assert.Equal(t, "T", updated.Title)

	_, err = svc.Update(ctx, doc.ID, UpdateInput{Format: FormatText, Content: &content, IfMatch: doc.Checksum})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	title := "Renamed"
	renamed, err := svc.Update(ctx, doc.ID, UpdateInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", renamed.Title)
	assert.Equal(t, updated.Checksum, renamed.Checksum)

	empty := ""
	_, err = svc.Update(ctx, doc.ID, UpdateInput{Title: &empty})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = svc.Update(ctx, "missing", UpdateInput{Title: &title})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDelete(t *testing.T) {
	svc, rec := newService(t, nil)
	ctx := context.Background()
	doc, err := svc.Create(ctx, CreateInput{Format: FormatText, Content: "bye"})
	require.NoError(t, err)
	view, err := svc.OpenSession(ctx, doc.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, doc.ID))
	_, err = svc.Get(ctx, doc.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.Session(ctx, view.ID)
	assert.ErrorIs(t, err, apperr.ErrSessionNotFound)
	assert.Contains(t, rec.events, "deleted:"+doc.ID)
	assert.ErrorIs(t, svc.Delete(ctx, doc.ID), apperr.ErrNotFound)
}

func TestListAndSearch(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()
	_, err := svc.Create(ctx, CreateInput{Title: "Apples", Format: FormatText, Content: "crunchy fruit"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{Title: "Bread", Format: FormatText, Content: "sourdough loaf"})
	require.NoError(t, err)

	items, total, err := svc.List(ctx, store.ListQuery{Sort: "title"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, "Apples", items[0].Title)

	hits, err := svc.Search(ctx, "sourdough", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Bread", hits[0].Title)

	_, err = svc.Search(ctx, "", 10)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestExport(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()
	doc, err := svc.Create(ctx, CreateInput{Format: FormatMarkdown, Content: "# Title\n\n- a\n- b"})
	require.NoError(t, err)

	md, err := svc.Export(ctx, doc.ID, FormatMarkdown)
	require.NoError(t, err)
	assert.Contains(t, md, "# Title")
	assert.Contains(t, md, "- a\n- b")

	text, err := svc.Export(ctx, doc.ID, FormatText)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "Title\n"))
}

func TestRenderFallbacks(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()

	r, err := svc.Render(ctx, "<p>legacy <b>html</b></p>", FormatHTML)
	require.NoError(t, err)
	assert.Equal(t, codec.SourceHTML, r.Source)
	assert.Contains(t, r.Output, "<strong>html</strong>")

	r, err = svc.Render(ctx, `{"unknown": true}`, FormatText)
	require.NoError(t, err)
	assert.Equal(t, codec.SourceRaw, r.Source)
	assert.NotEmpty(t, r.Warning)

	_, err = svc.Render(ctx, "x", "pdf")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestSessionLifecycle(t *testing.T) {
	svc, rec := newService(t, nil)
	ctx := context.Background()
	doc, err := svc.Create(ctx, CreateInput{Format: FormatText, Content: "hello world"})
	require.NoError(t, err)

	view, err := svc.OpenSession(ctx, doc.ID)
	require.NoError(t, err)
	assert.False(t, view.Dirty)
	assert.False(t, view.CanUndo)
	key := firstTextKey(t, view.State)

	view, err = svc.Dispatch(ctx, view.ID, editor.CmdFormatText, document.Span(key, 0, key, 5), editor.Payload{"format": "bold"})
	require.NoError(t, err)
	assert.True(t, view.Dirty)
	assert.True(t, view.CanUndo)
	assert.Contains(t, view.HTML, "<strong>hello</strong>")
	require.Len(t, rec.changes, 1)
	assert.Equal(t, editor.CmdFormatText, rec.changes[0].Command)
	assert.Equal(t, doc.ID, rec.changes[0].DocumentID)

	view, err = svc.Undo(ctx, view.ID)
	require.NoError(t, err)
	assert.False(t, view.Dirty)
	assert.True(t, view.CanRedo)

	view, err = svc.Redo(ctx, view.ID)
	require.NoError(t, err)
	assert.True(t, view.Dirty)

	saved, err := svc.SaveSession(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), saved.Version)
	html, err := svc.HTML(ctx, doc.ID)
	require.NoError(t, err)
	assert.Contains(t, html, "<strong>hello</strong>")

	view, err = svc.Session(ctx, view.ID)
	require.NoError(t, err)
	assert.False(t, view.Dirty)

	require.NoError(t, svc.CloseSession(ctx, view.ID))
	assert.ErrorIs(t, svc.CloseSession(ctx, view.ID), apperr.ErrSessionNotFound)
	_, err = svc.Undo(ctx, view.ID)
	assert.ErrorIs(t, err, apperr.ErrSessionNotFound)
}

func TestSessionCommandErrors(t *testing.T) {
	svc, rec := newService(t, nil)
	ctx := context.Background()
	doc, err := svc.Create(ctx, CreateInput{Format: FormatText, Content: "hello"})
	require.NoError(t, err)
	view, err := svc.OpenSession(ctx, doc.ID)
	require.NoError(t, err)

	_, err = svc.Dispatch(ctx, view.ID, editor.CmdFormatText, document.Caret("nope", 0), editor.Payload{"format": "bold"})
	assert.ErrorIs(t, err, document.ErrStaleSelection)
	_, err = svc.Dispatch(ctx, view.ID, editor.CmdSetImageAlignment, nil, editor.Payload{"alignment": "left"})
	assert.ErrorIs(t, err, document.ErrNotApplicable)
	_, err = svc.Select(ctx, view.ID, document.Caret("nope", 0))
	assert.ErrorIs(t, err, document.ErrStaleSelection)
	assert.Empty(t, rec.changes)

	after, err := svc.Session(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, view.Version, after.Version)
}

func TestSaveSessionConflict(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()
	doc, err := svc.Create(ctx, CreateInput{Format: FormatText, Content: "base"})
	require.NoError(t, err)
	view, err := svc.OpenSession(ctx, doc.ID)
	require.NoError(t, err)
	_, err = svc.Dispatch(ctx, view.ID, editor.CmdFormatHeading, nil, editor.Payload{"level": 1})
	require.NoError(t, err)

	other := "changed elsewhere"
	_, err = svc.Update(ctx, doc.ID, UpdateInput{Format: FormatText, Content: &other})
	require.NoError(t, err)

	_, err = svc.SaveSession(ctx, view.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestSessionExpires(t *testing.T) {
	rec := &recorder{}
	svc := NewService(testutil.TestDB(t), Options{
		SessionTTL:      50 * time.Millisecond,
		CleanupInterval: 10 * time.Millisecond,
		Publisher:       rec,
	})
	ctx := context.Background()
	doc, err := svc.Create(ctx, CreateInput{Format: FormatText, Content: "x"})
	require.NoError(t, err)
	view, err := svc.OpenSession(ctx, doc.ID)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return svc.sessions.ItemCount() == 0 }, time.Second, 20*time.Millisecond)
	_, err = svc.Session(ctx, view.ID)
	assert.ErrorIs(t, err, apperr.ErrSessionNotFound)
}

func TestDraftImport(t *testing.T) {
	_, files := testutil.TestDrafts(t)
	svc, rec := newService(t, files)
	ctx := context.Background()

	require.NoError(t, files.Write("plan.md", []byte("---\ntitle: Plan\n---\n# Goals\n\n- ship\n")))
	require.NoError(t, drafts.Sync(ctx, files, svc, discardLogger()))

	row, err := svc.store.GetBySource(ctx, "plan.md")
	require.NoError(t, err)
	assert.Equal(t, "Plan", row.Title)
	assert.Equal(t, store.KindDraft, row.Kind)
	assert.Contains(t, row.PlainText, "ship")
	require.Len(t, rec.events, 1)
	assert.Equal(t, "created:"+row.ID, rec.events[0])

	// Same bytes again are skipped.
	data, err := files.Read("plan.md")
	require.NoError(t, err)
	require.NoError(t, svc.ImportDraft(ctx, "plan.md", drafts.Parse("plan.md", data), row.SourceSum))
	assert.Len(t, rec.events, 1)

	require.NoError(t, svc.RemoveDraft(ctx, "plan.md"))
	_, err = svc.Get(ctx, row.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	require.NoError(t, svc.RemoveDraft(ctx, "never-imported.md"))
}

func TestDraftWriteBack(t *testing.T) {
	_, files := testutil.TestDrafts(t)
	svc, _ := newService(t, files)
	ctx := context.Background()

	require.NoError(t, files.Write("notes.md", []byte("# Notes\n\nfirst\n")))
	require.NoError(t, drafts.Sync(ctx, files, svc, discardLogger()))
	row, err := svc.store.GetBySource(ctx, "notes.md")
	require.NoError(t, err)

	content := "# Notes\n\nsecond"
	doc, err := svc.Update(ctx, row.ID, UpdateInput{Format: FormatMarkdown, Content: &content})
	require.NoError(t, err)

	data, err := files.Read("notes.md")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "---\ntitle: Notes\n---\n"))
	assert.Contains(t, string(data), "second")

	// The watcher re-reading our own write is a no-op.
	sources, err := svc.DraftSources(ctx)
	require.NoError(t, err)
	require.NoError(t, svc.ImportDraft(ctx, "notes.md", drafts.Parse("notes.md", data), sources["notes.md"]))
	again, err := svc.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.Version, again.Version)

	require.NoError(t, svc.Delete(ctx, doc.ID))
	_, err = files.Read("notes.md")
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatAuto, "MD": FormatMarkdown, " html ": FormatHTML, "json": FormatJSON} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("rtf")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
