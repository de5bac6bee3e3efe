package store

import "context"

// Store is the persistence surface the document service depends on.
type Store interface {
	Upsert(ctx context.Context, d Document) error
	Get(ctx context.Context, id string) (*Document, error)
	GetBySource(ctx context.Context, sourcePath string) (*Document, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, q ListQuery) ([]Document, int, error)
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
	AllSources(ctx context.Context) (map[string]Source, error)
}

var _ Store = (*DB)(nil)
