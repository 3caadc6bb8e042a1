package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mallikj2/genai-file-search/internal/pkg/errcode"
	"github.com/mallikj2/genai-file-search/test/testutil"
)

func TestSearchQueryRanking(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	categoryID := createCategory(t, router, testutil.UniqueID("cat-search"))
	defer doJSON(t, router, http.MethodDelete, "/api/v1/categories/"+categoryID, nil)

	alphaDoc := ingestDocument(t, router, categoryID, "alpha.txt", "the alpha release ships in March")
	ingestDocument(t, router, categoryID, "beta.txt", "the beta build is still unstable")

	result := doJSON(t, router, http.MethodPost, "/api/v1/search/query", map[string]interface{}{
		"query":       "status of alpha",
		"category_id": categoryID,
	})
	require.Equal(t, 0, result.Code)
	require.Equal(t, "status of alpha", result.Data["query"])
	passages, _ := result.Data["passages"].([]interface{})
	require.Len(t, passages, 2)

	first, _ := passages[0].(map[string]interface{})
	require.Equal(t, alphaDoc, first["document_id"])
	score, _ := first["score"].(float64)
	require.InDelta(t, 1.0, score, 1e-9)

	second, _ := passages[1].(map[string]interface{})
	secondScore, _ := second["score"].(float64)
	require.InDelta(t, 0.5, secondScore, 1e-9)

	limited := doJSON(t, router, http.MethodPost, "/api/v1/search/query", map[string]interface{}{
		"query":       "status of alpha",
		"category_id": categoryID,
		"top_k":       1,
	})
	require.Equal(t, 0, limited.Code)
	passages, _ = limited.Data["passages"].([]interface{})
	require.Len(t, passages, 1)
}

func TestSearchQueryValidation(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	categoryID := createCategory(t, router, testutil.UniqueID("cat-search-val"))
	defer doJSON(t, router, http.MethodDelete, "/api/v1/categories/"+categoryID, nil)

	emptyQuery := doJSON(t, router, http.MethodPost, "/api/v1/search/query", map[string]interface{}{
		"query":       "   ",
		"category_id": categoryID,
	})
	require.Equal(t, errcode.ErrEmptyInput, emptyQuery.Code)

	unknownCategory := doJSON(t, router, http.MethodPost, "/api/v1/search/query", map[string]interface{}{
		"query":       "anything",
		"category_id": "no-such-category",
	})
	require.Equal(t, errcode.ErrCategoryNotFound, unknownCategory.Code)

	badTopK := doJSON(t, router, http.MethodPost, "/api/v1/search/query", map[string]interface{}{
		"query":       "anything",
		"category_id": categoryID,
		"top_k":       -1,
	})
	require.Equal(t, errcode.ErrInvalidQueryParams, badTopK.Code)

	hugeTopK := doJSON(t, router, http.MethodPost, "/api/v1/search/query", map[string]interface{}{
		"query":       "anything",
		"category_id": categoryID,
		"top_k":       51,
	})
	require.Equal(t, errcode.ErrInvalidQueryParams, hugeTopK.Code)
}

func TestQAAnswersFromIndex(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	categoryID := createCategory(t, router, testutil.UniqueID("cat-qa"))
	defer doJSON(t, router, http.MethodDelete, "/api/v1/categories/"+categoryID, nil)

	docID := ingestDocument(t, router, categoryID, "alpha.txt", "the alpha rollout finished on Friday")

	result := doJSON(t, router, http.MethodPost, "/api/v1/search/qa", map[string]interface{}{
		"question":    "when did alpha finish",
		"category_id": categoryID,
	})
	require.Equal(t, 0, result.Code)
	require.Equal(t, "generated answer", result.Data["answer"])
	chunkIDs, _ := result.Data["chunk_ids"].([]interface{})
	require.Len(t, chunkIDs, 1)
	require.Equal(t, docID+":0", chunkIDs[0])
}

func TestQAEmptyCategory(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	categoryID := createCategory(t, router, testutil.UniqueID("cat-qa-empty"))
	defer doJSON(t, router, http.MethodDelete, "/api/v1/categories/"+categoryID, nil)

	result := doJSON(t, router, http.MethodPost, "/api/v1/search/qa", map[string]interface{}{
		"question":    "is anything in here",
		"category_id": categoryID,
	})
	require.Equal(t, 0, result.Code)
	require.Equal(t, "I couldn't find relevant information to answer your question.", result.Data["answer"])
	chunkIDs, _ := result.Data["chunk_ids"].([]interface{})
	require.Empty(t, chunkIDs)
}

func TestSummarizeCategory(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	categoryID := createCategory(t, router, testutil.UniqueID("cat-sum"))
	defer doJSON(t, router, http.MethodDelete, "/api/v1/categories/"+categoryID, nil)

	ingestDocument(t, router, categoryID, "alpha.txt", "the alpha milestone recap")
	ingestDocument(t, router, categoryID, "beta.txt", "the beta milestone recap")

	result := doJSON(t, router, http.MethodPost, "/api/v1/search/summarize", map[string]interface{}{
		"category_id": categoryID,
	})
	require.Equal(t, 0, result.Code)
	require.Equal(t, categoryID, result.Data["category_id"])
	require.Equal(t, "generated answer", result.Data["summary"])
	require.Equal(t, float64(2), result.Data["chunk_count"])

	tooShort := doJSON(t, router, http.MethodPost, "/api/v1/search/summarize", map[string]interface{}{
		"category_id": categoryID,
		"max_length":  99,
	})
	require.Equal(t, errcode.ErrInvalidQueryParams, tooShort.Code)
}

func TestSummarizeEmptyCategoryStatic(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	categoryID := createCategory(t, router, testutil.UniqueID("cat-sum-empty"))
	defer doJSON(t, router, http.MethodDelete, "/api/v1/categories/"+categoryID, nil)

	result := doJSON(t, router, http.MethodPost, "/api/v1/search/summarize", map[string]interface{}{
		"category_id": categoryID,
	})
	require.Equal(t, 0, result.Code)
	require.Equal(t, "No documents found in this category.", result.Data["summary"])
	require.Equal(t, float64(0), result.Data["chunk_count"])
}
