package vecstore

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/mallikj2/genai-file-search/internal/model"
	appErr "github.com/mallikj2/genai-file-search/internal/pkg/errors"
)

func init() {
	Register("memory", func(_ *sql.DB) (Store, error) {
		return NewMemory(), nil
	})
}

// memoryStore is a brute-force in-memory index. It mirrors the pgvector
// backend exactly, including insertion-order tie breaking, so tests written
// against one hold for the other.
type memoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

type memoryCollection struct {
	dimension int
	nextOrd   int64
	entries   map[entryKey]*memoryEntry
}

type entryKey struct {
	documentID string
	seq        int
}

type memoryEntry struct {
	content   string
	embedding []float32
	ord       int64
}

func NewMemory() Store {
	return &memoryStore{collections: make(map[string]*memoryCollection)}
}

func (s *memoryStore) Upsert(ctx context.Context, collection string, entries []model.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}
	dim, err := validateEntries(entries)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	col, err := s.ensureCollectionLocked(collection, dim)
	if err != nil {
		return err
	}
	col.upsert(entries)
	return nil
}

func (s *memoryStore) ReplaceDocument(ctx context.Context, collection string, documentID string, entries []model.IndexEntry) error {
	dim, err := validateDocumentEntries(documentID, entries)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.collections[collection]
	if !ok {
		if len(entries) == 0 {
			return nil
		}
		col, err = s.ensureCollectionLocked(collection, dim)
		if err != nil {
			return err
		}
	} else if len(entries) > 0 && dim != col.dimension {
		return fmt.Errorf("%w: batch dimension %d, collection %s holds %d", appErr.ErrInvalid, dim, collection, col.dimension)
	}
	col.upsert(entries)
	for key := range col.entries {
		if key.documentID == documentID && key.seq >= len(entries) {
			delete(col.entries, key)
		}
	}
	return nil
}

func (s *memoryStore) Query(ctx context.Context, collection string, vector []float32, topK int) ([]model.ScoredEntry, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top_k must be positive, got %d", appErr.ErrInvalidQueryParams, topK)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	col, ok := s.collections[collection]
	if !ok {
		return nil, fmt.Errorf("%w: %s", appErr.ErrCollectionNotFound, collection)
	}
	if len(vector) != col.dimension {
		return nil, fmt.Errorf("%w: query vector has dimension %d, collection %s holds %d", appErr.ErrInvalidQueryParams, len(vector), collection, col.dimension)
	}
	type scored struct {
		key      entryKey
		entry    *memoryEntry
		distance float64
	}
	candidates := make([]scored, 0, len(col.entries))
	for key, entry := range col.entries {
		candidates = append(candidates, scored{
			key:      key,
			entry:    entry,
			distance: cosineDistance(vector, entry.embedding),
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		return candidates[i].entry.ord < candidates[j].entry.ord
	})
	if topK > len(candidates) {
		topK = len(candidates)
	}
	results := make([]model.ScoredEntry, 0, topK)
	for _, c := range candidates[:topK] {
		results = append(results, model.ScoredEntry{
			IndexEntry: model.IndexEntry{
				DocumentID: c.key.documentID,
				Seq:        c.key.seq,
				Content:    c.entry.content,
			},
			Distance: float32(c.distance),
		})
	}
	return results, nil
}

func (s *memoryStore) Sample(ctx context.Context, collection string, limit int) ([]model.IndexEntry, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", appErr.ErrInvalidQueryParams, limit)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	col, ok := s.collections[collection]
	if !ok {
		return nil, fmt.Errorf("%w: %s", appErr.ErrCollectionNotFound, collection)
	}
	results := make([]model.IndexEntry, 0, len(col.entries))
	for key, entry := range col.entries {
		results = append(results, model.IndexEntry{
			DocumentID: key.documentID,
			Seq:        key.seq,
			Content:    entry.content,
		})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].DocumentID != results[j].DocumentID {
			return results[i].DocumentID < results[j].DocumentID
		}
		return results[i].Seq < results[j].Seq
	})
	if limit < len(results) {
		results = results[:limit]
	}
	return results, nil
}

func (s *memoryStore) DeleteDocument(ctx context.Context, collection string, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.collections[collection]
	if !ok {
		return nil
	}
	for key := range col.entries {
		if key.documentID == documentID {
			delete(col.entries, key)
		}
	}
	return nil
}

func (s *memoryStore) DropCollection(ctx context.Context, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, collection)
	return nil
}

func (s *memoryStore) ensureCollectionLocked(collection string, dim int) (*memoryCollection, error) {
	col, ok := s.collections[collection]
	if !ok {
		col = &memoryCollection{
			dimension: dim,
			entries:   make(map[entryKey]*memoryEntry),
		}
		s.collections[collection] = col
		return col, nil
	}
	if dim != col.dimension {
		return nil, fmt.Errorf("%w: batch dimension %d, collection %s holds %d", appErr.ErrInvalid, dim, collection, col.dimension)
	}
	return col, nil
}

// upsert keeps the original ord of a replaced key so replacement does not
// change tie-break order.
func (c *memoryCollection) upsert(entries []model.IndexEntry) {
	for _, entry := range entries {
		key := entryKey{documentID: entry.DocumentID, seq: entry.Seq}
		embedding := make([]float32, len(entry.Embedding))
		copy(embedding, entry.Embedding)
		if existing, ok := c.entries[key]; ok {
			existing.content = entry.Content
			existing.embedding = embedding
			continue
		}
		c.entries[key] = &memoryEntry{
			content:   entry.Content,
			embedding: embedding,
			ord:       c.nextOrd,
		}
		c.nextOrd++
	}
}

func cosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
