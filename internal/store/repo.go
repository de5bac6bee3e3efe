package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/scribe/internal/apperr"
)

// Document kinds.
const (
	KindDocument = "document"
	KindDraft    = "draft"
)

// Document is a row in the documents table. Content holds the JSON editor
// state.
type Document struct {
	ID         string
	Kind       string
	Title      string
	Content    string
	PlainText  string
	Checksum   string
	Version    int64
	SourcePath string
	// SourceSum is the checksum of the draft file the document was last
	// imported from.
	SourceSum  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Source is the stored fingerprint of a draft-backed document.
type Source struct {
	ID       string
	Checksum string
}

// SearchResult represents one search hit.
type SearchResult struct {
	ID      string
	Title   string
	Snippet string
}

// ListQuery selects a page of documents. Sort is "updated" (default,
// newest first), "created" or "title".
type ListQuery struct {
	Limit  int
	Offset int
	Kind   string
	Sort   string
}

const documentColumns = `id, kind, title, content, plain_text, checksum, version, source_path, source_sum, created_at, updated_at`

// Upsert inserts or replaces a document and its FTS entry within a
// transaction.
func (db *DB) Upsert(ctx context.Context, d Document) error {
	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = now
	}
	if d.Kind == "" {
		d.Kind = KindDocument
	}
	if d.Version == 0 {
		d.Version = 1
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind        = excluded.kind,
			title       = excluded.title,
			content     = excluded.content,
			plain_text  = excluded.plain_text,
			checksum    = excluded.checksum,
			version     = excluded.version,
			source_path = excluded.source_path,
			source_sum  = excluded.source_sum,
			updated_at  = excluded.updated_at
	`, d.ID, d.Kind, d.Title, d.Content, d.PlainText, d.Checksum, d.Version,
		nullString(d.SourcePath), d.SourceSum, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("store: upsert document: %w", err)
	}
	if err := ftsUpsert(tx, d.ID, d.Title, d.PlainText); err != nil {
		return err
	}
	return tx.Commit()
}

// Get returns the document with id or apperr.ErrNotFound.
func (db *DB) Get(ctx context.Context, id string) (*Document, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	return scanDocument(row)
}

// GetBySource returns the document imported from sourcePath.
func (db *DB) GetBySource(ctx context.Context, sourcePath string) (*Document, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE source_path = ?`, sourcePath)
	return scanDocument(row)
}

// Delete removes a document and its FTS entry. Deleting a missing document
// reports apperr.ErrNotFound.
func (db *DB) Delete(ctx context.Context, id string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, id)
	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("store: document %s: %w", id, apperr.ErrNotFound)
	}
	return tx.Commit()
}

// List returns one page of documents and the total count matching q.Kind.
func (db *DB) List(ctx context.Context, q ListQuery) ([]Document, int, error) {
	if q.Limit <= 0 {
		q.Limit = 50
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	order := "updated_at DESC"
	switch q.Sort {
	case "created":
		order = "created_at DESC"
	case "title":
		order = "title COLLATE NOCASE ASC"
	}

	where, args := "", []any{}
	if q.Kind != "" {
		where, args = " WHERE kind = ?", append(args, q.Kind)
	}

	var total int
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM documents`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("store: count documents: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents`+where+` ORDER BY `+order+`, id LIMIT ? OFFSET ?`,
		append(args, q.Limit, q.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list documents: %w", err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *d)
	}
	return out, total, rows.Err()
}

// AllSources maps every draft source path to its document id and the
// checksum of the file it was imported from.
func (db *DB) AllSources(ctx context.Context) (map[string]Source, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT source_path, id, source_sum FROM documents WHERE source_path IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("store: all sources: %w", err)
	}
	defer rows.Close()
	out := make(map[string]Source)
	for rows.Next() {
		var path string
		var s Source
		if err := rows.Scan(&path, &s.ID, &s.Checksum); err != nil {
			return nil, err
		}
		out[path] = s
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (*Document, error) {
	var d Document
	var source sql.NullString
	err := s.Scan(&d.ID, &d.Kind, &d.Title, &d.Content, &d.PlainText, &d.Checksum, &d.Version,
		&source, &d.SourceSum, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: scan document: %w", err)
	}
	d.SourcePath = source.String
	return &d, nil
}

func scanResults(rows *sql.Rows) ([]SearchResult, error) {
	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ID, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
