package embedcache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mallikj2/genai-file-search/internal/model"
)

type fakeStore struct {
	entries map[string][]float32
	lookups int
	saves   []*model.EmbeddingCache
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[string][]float32)}
}

func (f *fakeStore) GetMany(ctx context.Context, modelName, taskType string, contentHashes []string) (map[string][]float32, error) {
	f.lookups++
	found := make(map[string][]float32)
	for _, hash := range contentHashes {
		if values, ok := f.entries[modelName+"|"+taskType+"|"+hash]; ok {
			found[hash] = values
		}
	}
	return found, nil
}

func (f *fakeStore) Save(ctx context.Context, item *model.EmbeddingCache) error {
	f.entries[item.ModelName+"|"+item.TaskType+"|"+item.ContentHash] = item.Embedding
	f.saves = append(f.saves, item)
	return nil
}

func TestDBEmbedderBatchesLookups(t *testing.T) {
	inner := &fakeEmbedder{}
	store := newFakeStore()
	emb := WrapDBCacheToEmbedder(inner, store)
	ctx := context.Background()

	first, err := emb.EmbedTexts(ctx, []string{"a", "bb", "ccc"}, "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	require.Len(t, first, 3)
	require.Equal(t, 1, store.lookups, "one batch lookup per call")
	require.Len(t, inner.calls, 1)
	require.Len(t, store.saves, 3)
}

func TestDBEmbedderServesHitsWithoutBackend(t *testing.T) {
	inner := &fakeEmbedder{}
	store := newFakeStore()
	emb := WrapDBCacheToEmbedder(inner, store)
	ctx := context.Background()

	_, err := emb.EmbedTexts(ctx, []string{"a", "bb"}, "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	require.Len(t, inner.calls, 1)

	second, err := emb.EmbedTexts(ctx, []string{"a", "bb", "new"}, "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	require.Len(t, second, 3)
	require.Len(t, inner.calls, 2)
	require.Equal(t, []string{"new"}, inner.calls[1], "hits must not reach the backend")
	require.Equal(t, float32(1), second[0][0])
	require.Equal(t, float32(2), second[1][0])
}

func TestDBEmbedderSeparatesTaskTypes(t *testing.T) {
	inner := &fakeEmbedder{}
	store := newFakeStore()
	emb := WrapDBCacheToEmbedder(inner, store)
	ctx := context.Background()

	_, err := emb.EmbedTexts(ctx, []string{"same"}, "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	_, err = emb.EmbedTexts(ctx, []string{"same"}, "RETRIEVAL_QUERY")
	require.NoError(t, err)
	require.Len(t, inner.calls, 2, "task types must not share cache rows")
}
