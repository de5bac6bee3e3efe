package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/scribe/internal/apperr"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "scribe-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	require.NoError(t, db.conn.QueryRow(`SELECT count(*) FROM documents`).Scan(&count))
	assert.Zero(t, count)
}

func TestUpsertAndGet(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	doc := Document{ID: "d1", Title: "Hello", Content: `{"root":{}}`, PlainText: "hello world", Checksum: "abc"}
	require.NoError(t, db.Upsert(ctx, doc))

	got, err := db.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "Hello", got.Title)
	assert.Equal(t, KindDocument, got.Kind)
	assert.Equal(t, int64(1), got.Version)
	assert.Empty(t, got.SourcePath)
	assert.False(t, got.CreatedAt.IsZero())

	doc.Title, doc.Checksum, doc.Version = "Hello again", "def", 2
	require.NoError(t, db.Upsert(ctx, doc))
	got, err = db.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "Hello again", got.Title)
	assert.Equal(t, int64(2), got.Version)
}

func TestGetMissing(t *testing.T) {
	db := testDB(t)
	_, err := db.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, db.Delete(context.Background(), "nope"), apperr.ErrNotFound)
}

func TestDelete(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	require.NoError(t, db.Upsert(ctx, Document{ID: "gone", PlainText: "vanishing content"}))
	require.NoError(t, db.Delete(ctx, "gone"))

	_, err := db.Get(ctx, "gone")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	results, err := db.Search(ctx, "vanishing", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSourcePaths(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	require.NoError(t, db.Upsert(ctx, Document{ID: "a", Kind: KindDraft, SourcePath: "notes/a.md", SourceSum: "1", Checksum: "x"}))
	require.NoError(t, db.Upsert(ctx, Document{ID: "b"}))

	got, err := db.GetBySource(ctx, "notes/a.md")
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID)

	sources, err := db.AllSources(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]Source{"notes/a.md": {ID: "a", Checksum: "1"}}, sources)
}

func TestList(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, title := range []string{"beta", "Alpha", "gamma"} {
		kind := KindDocument
		if i == 2 {
			kind = KindDraft
		}
		require.NoError(t, db.Upsert(ctx, Document{
			ID: title, Title: title, Kind: kind,
			CreatedAt: base, UpdatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	docs, total, err := db.List(ctx, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, docs, 3)
	assert.Equal(t, "gamma", docs[0].ID)

	docs, _, err = db.List(ctx, ListQuery{Sort: "title"})
	require.NoError(t, err)
	assert.Equal(t, "Alpha", docs[0].ID)

	docs, total, err = db.List(ctx, ListQuery{Kind: KindDraft})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "gamma", docs[0].ID)

	docs, total, err = db.List(ctx, ListQuery{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, docs, 1)
	assert.Equal(t, "Alpha", docs[0].ID)
}

func TestSearch(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	require.NoError(t, db.Upsert(ctx, Document{ID: "s", Title: "Search Me", PlainText: "uniqueword appears here"}))
	require.NoError(t, db.Upsert(ctx, Document{ID: "t", Title: "Other", PlainText: "nothing"}))

	results, err := db.Search(ctx, "uniqueword", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "s", results[0].ID)
	assert.NotEmpty(t, results[0].Snippet)
}
