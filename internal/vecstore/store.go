package vecstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mallikj2/genai-file-search/internal/model"
	appErr "github.com/mallikj2/genai-file-search/internal/pkg/errors"
)

// Store is the vector index behind one category per collection. Query and
// Sample return entries without their embeddings.
type Store interface {
	// Upsert inserts or replaces entries keyed by (document id, seq). The
	// whole batch is applied atomically. The collection is created on first
	// use and its dimension is fixed by that first batch.
	Upsert(ctx context.Context, collection string, entries []model.IndexEntry) error
	// ReplaceDocument upserts the given entries and prunes stored entries of
	// the same document with seq >= len(entries), atomically. Entries must
	// belong to documentID and be densely numbered from 0. An empty slice
	// removes the document from the collection.
	ReplaceDocument(ctx context.Context, collection string, documentID string, entries []model.IndexEntry) error
	// Query returns at most topK entries ordered by ascending cosine
	// distance to vector, ties broken by insertion order.
	Query(ctx context.Context, collection string, vector []float32, topK int) ([]model.ScoredEntry, error)
	// Sample returns up to limit entries ordered by (document id, seq).
	Sample(ctx context.Context, collection string, limit int) ([]model.IndexEntry, error)
	// DeleteDocument removes all entries of a document. Unknown documents
	// and collections are a no-op.
	DeleteDocument(ctx context.Context, collection string, documentID string) error
	// DropCollection removes the collection and everything in it.
	DropCollection(ctx context.Context, collection string) error
}

type StoreFactory func(db *sql.DB) (Store, error)

var storeFactories = make(map[string]StoreFactory)

func Register(name string, factory StoreFactory) {
	storeFactories[strings.ToLower(name)] = factory
}

func New(name string, db *sql.DB) (Store, error) {
	factory, ok := storeFactories[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("vector store not registered: %s", name)
	}
	return factory(db)
}

// validateEntries checks a batch for empty vectors and mixed dimensions and
// returns the batch dimension.
func validateEntries(entries []model.IndexEntry) (int, error) {
	dim := 0
	for i, entry := range entries {
		if entry.DocumentID == "" {
			return 0, fmt.Errorf("%w: entry %d has no document id", appErr.ErrInvalid, i)
		}
		if entry.Seq < 0 {
			return 0, fmt.Errorf("%w: entry %d has negative seq", appErr.ErrInvalid, i)
		}
		if len(entry.Embedding) == 0 {
			return 0, fmt.Errorf("%w: entry %d has an empty embedding", appErr.ErrInvalid, i)
		}
		if dim == 0 {
			dim = len(entry.Embedding)
		} else if len(entry.Embedding) != dim {
			return 0, fmt.Errorf("%w: entry %d has dimension %d, batch started with %d", appErr.ErrInvalid, i, len(entry.Embedding), dim)
		}
	}
	return dim, nil
}

// validateDocumentEntries additionally pins every entry to documentID with
// seq equal to its position, which is what makes the seq >= len(entries)
// prune in ReplaceDocument exact.
func validateDocumentEntries(documentID string, entries []model.IndexEntry) (int, error) {
	dim, err := validateEntries(entries)
	if err != nil {
		return 0, err
	}
	for i, entry := range entries {
		if entry.DocumentID != documentID {
			return 0, fmt.Errorf("%w: entry %d belongs to document %s, not %s", appErr.ErrInvalid, i, entry.DocumentID, documentID)
		}
		if entry.Seq != i {
			return 0, fmt.Errorf("%w: entry %d has seq %d, entries must be densely numbered from 0", appErr.ErrInvalid, i, entry.Seq)
		}
	}
	return dim, nil
}
