package vecstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mallikj2/genai-file-search/internal/model"
	appErr "github.com/mallikj2/genai-file-search/internal/pkg/errors"
)

func entry(docID string, seq int, content string, embedding ...float32) model.IndexEntry {
	return model.IndexEntry{DocumentID: docID, Seq: seq, Content: content, Embedding: embedding}
}

func TestMemoryQueryRanksBySimilarity(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, "col", []model.IndexEntry{
		entry("doc-1", 0, "x axis", 1, 0, 0),
		entry("doc-1", 1, "y axis", 0, 1, 0),
		entry("doc-2", 0, "xy diagonal", 1, 1, 0),
	}))

	results, err := store.Query(ctx, "col", []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.Equal(t, "x axis", results[0].Content)
	require.InDelta(t, 0, float64(results[0].Distance), 1e-6)
	require.Equal(t, "xy diagonal", results[1].Content)
	require.Equal(t, "y axis", results[2].Content)
	for i := 1; i < len(results); i++ {
		require.GreaterOrEqual(t, results[i].Distance, results[i-1].Distance)
	}
}

func TestMemoryQueryTopKCapsResults(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, "col", []model.IndexEntry{
		entry("doc-1", 0, "a", 1, 0),
		entry("doc-1", 1, "b", 0, 1),
	}))

	results, err := store.Query(ctx, "col", []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)

	results, err = store.Query(ctx, "col", []float32{1, 0}, 100)
	require.NoError(t, err)
	require.Len(t, results, 2)
}

func TestMemoryQueryValidation(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	_, err := store.Query(ctx, "col", []float32{1}, 0)
	require.ErrorIs(t, err, appErr.ErrInvalidQueryParams)

	_, err = store.Query(ctx, "missing", []float32{1}, 5)
	require.ErrorIs(t, err, appErr.ErrCollectionNotFound)

	require.NoError(t, store.Upsert(ctx, "col", []model.IndexEntry{entry("doc-1", 0, "a", 1, 0, 0)}))
	_, err = store.Query(ctx, "col", []float32{1, 0}, 5)
	require.ErrorIs(t, err, appErr.ErrInvalidQueryParams)
}

func TestMemoryQueryBreaksTiesByInsertionOrder(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, "col", []model.IndexEntry{
		entry("doc-b", 0, "inserted first", 1, 0),
		entry("doc-a", 0, "inserted second", 1, 0),
	}))

	results, err := store.Query(ctx, "col", []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Equal(t, "inserted first", results[0].Content)
	require.Equal(t, "inserted second", results[1].Content)
}

func TestMemoryReplaceKeepsInsertionOrder(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, "col", []model.IndexEntry{
		entry("doc-1", 0, "old text", 1, 0),
		entry("doc-2", 0, "challenger", 1, 0),
	}))
	// Re-upserting doc-1 must not demote it behind doc-2 on ties.
	require.NoError(t, store.Upsert(ctx, "col", []model.IndexEntry{
		entry("doc-1", 0, "new text", 1, 0),
	}))

	results, err := store.Query(ctx, "col", []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Equal(t, "new text", results[0].Content)
	require.Equal(t, "challenger", results[1].Content)
}

func TestMemoryUpsertDimensionChecks(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	err := store.Upsert(ctx, "col", []model.IndexEntry{
		entry("doc-1", 0, "a", 1, 0),
		entry("doc-1", 1, "b", 1, 0, 0),
	})
	require.ErrorIs(t, err, appErr.ErrInvalid)

	require.NoError(t, store.Upsert(ctx, "col", []model.IndexEntry{entry("doc-1", 0, "a", 1, 0)}))
	err = store.Upsert(ctx, "col", []model.IndexEntry{entry("doc-2", 0, "c", 1, 0, 0)})
	require.ErrorIs(t, err, appErr.ErrInvalid)

	err = store.Upsert(ctx, "col", []model.IndexEntry{{DocumentID: "doc-3", Seq: 0, Content: "d"}})
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestMemoryReplaceDocumentPrunesStaleEntries(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, "col", []model.IndexEntry{
		entry("doc-1", 0, "a", 1, 0),
		entry("doc-1", 1, "b", 0, 1),
		entry("doc-1", 2, "c", 1, 1),
		entry("doc-2", 0, "other", 0, 1),
	}))

	require.NoError(t, store.ReplaceDocument(ctx, "col", "doc-1", []model.IndexEntry{
		entry("doc-1", 0, "a2", 1, 0),
	}))

	sample, err := store.Sample(ctx, "col", 10)
	require.NoError(t, err)
	require.Len(t, sample, 2)
	require.Equal(t, "a2", sample[0].Content)
	require.Equal(t, "other", sample[1].Content)
}

func TestMemoryReplaceDocumentValidation(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	err := store.ReplaceDocument(ctx, "col", "doc-1", []model.IndexEntry{
		entry("doc-2", 0, "stranger", 1, 0),
	})
	require.ErrorIs(t, err, appErr.ErrInvalid)

	err = store.ReplaceDocument(ctx, "col", "doc-1", []model.IndexEntry{
		entry("doc-1", 3, "gap", 1, 0),
	})
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestMemoryReplaceDocumentEmptyRemovesDocument(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	// Unknown collection with nothing to write is a no-op.
	require.NoError(t, store.ReplaceDocument(ctx, "col", "doc-1", nil))

	require.NoError(t, store.Upsert(ctx, "col", []model.IndexEntry{
		entry("doc-1", 0, "a", 1, 0),
		entry("doc-2", 0, "b", 0, 1),
	}))
	require.NoError(t, store.ReplaceDocument(ctx, "col", "doc-1", nil))

	sample, err := store.Sample(ctx, "col", 10)
	require.NoError(t, err)
	require.Len(t, sample, 1)
	require.Equal(t, "doc-2", sample[0].DocumentID)
}

func TestMemoryDeleteDocument(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, "col", []model.IndexEntry{
		entry("doc-1", 0, "a", 1, 0),
		entry("doc-1", 1, "b", 0, 1),
		entry("doc-2", 0, "keep", 1, 1),
	}))

	require.NoError(t, store.DeleteDocument(ctx, "col", "doc-1"))
	require.NoError(t, store.DeleteDocument(ctx, "col", "doc-1"))
	require.NoError(t, store.DeleteDocument(ctx, "missing", "doc-1"))

	sample, err := store.Sample(ctx, "col", 10)
	require.NoError(t, err)
	require.Len(t, sample, 1)
	require.Equal(t, "doc-2", sample[0].DocumentID)
}

func TestMemoryDropCollection(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, "col", []model.IndexEntry{entry("doc-1", 0, "a", 1, 0)}))

	require.NoError(t, store.DropCollection(ctx, "col"))
	require.NoError(t, store.DropCollection(ctx, "col"))

	_, err := store.Query(ctx, "col", []float32{1, 0}, 5)
	require.ErrorIs(t, err, appErr.ErrCollectionNotFound)
}

func TestMemorySampleOrdersByDocumentAndSeq(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, "col", []model.IndexEntry{
		entry("doc-b", 1, "b1", 1, 0),
		entry("doc-a", 1, "a1", 0, 1),
		entry("doc-b", 0, "b0", 1, 1),
		entry("doc-a", 0, "a0", 1, 0),
	}))

	sample, err := store.Sample(ctx, "col", 3)
	require.NoError(t, err)
	require.Len(t, sample, 3)
	require.Equal(t, "a0", sample[0].Content)
	require.Equal(t, "a1", sample[1].Content)
	require.Equal(t, "b0", sample[2].Content)

	_, err = store.Sample(ctx, "col", 0)
	require.ErrorIs(t, err, appErr.ErrInvalidQueryParams)
	_, err = store.Sample(ctx, "missing", 5)
	require.ErrorIs(t, err, appErr.ErrCollectionNotFound)
}

func TestMemoryUpsertDoesNotAliasCallerSlices(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	vec := []float32{1, 0}
	require.NoError(t, store.Upsert(ctx, "col", []model.IndexEntry{entry("doc-1", 0, "a", vec...)}))
	vec[0] = 0
	vec[1] = 1

	results, err := store.Query(ctx, "col", []float32{1, 0}, 1)
	require.NoError(t, err)
	require.InDelta(t, 0, float64(results[0].Distance), 1e-6)
}
