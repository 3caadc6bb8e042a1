package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mallikj2/genai-file-search/internal/pkg/errcode"
	"github.com/mallikj2/genai-file-search/test/testutil"
)

func TestCategoryLifecycle(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	name := testutil.UniqueID("cat-lifecycle")
	created := doJSON(t, router, http.MethodPost, "/api/v1/categories", map[string]string{
		"name":        name,
		"description": "integration fixture",
	})
	require.Equal(t, 0, created.Code)
	id, _ := created.Data["id"].(string)
	require.NotEmpty(t, id)
	require.Equal(t, name, created.Data["name"])
	require.Equal(t, "integration fixture", created.Data["description"])

	got := doJSON(t, router, http.MethodGet, "/api/v1/categories/"+id, nil)
	require.Equal(t, 0, got.Code)
	require.Equal(t, name, got.Data["name"])
	require.Equal(t, float64(0), got.Data["document_count"])
	require.Equal(t, float64(0), got.Data["indexed_count"])

	list := doJSON(t, router, http.MethodGet, "/api/v1/categories", nil)
	require.Equal(t, 0, list.Code)
	categories, _ := list.Data["categories"].([]interface{})
	found := false
	for _, raw := range categories {
		category, _ := raw.(map[string]interface{})
		if category["id"] == id {
			found = true
			break
		}
	}
	require.True(t, found, "created category missing from list")

	deleted := doJSON(t, router, http.MethodDelete, "/api/v1/categories/"+id, nil)
	require.Equal(t, 0, deleted.Code)

	missing := doJSON(t, router, http.MethodGet, "/api/v1/categories/"+id, nil)
	require.Equal(t, errcode.ErrCategoryNotFound, missing.Code)
}

func TestCategoryCreateValidation(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	empty := doJSON(t, router, http.MethodPost, "/api/v1/categories", map[string]string{"name": "   "})
	require.Equal(t, errcode.ErrInvalid, empty.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/categories", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
	var malformed apiResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &malformed))
	require.Equal(t, errcode.ErrInvalid, malformed.Code)
}

func TestCategoryDuplicateName(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	name := testutil.UniqueID("cat-dup")
	id := createCategory(t, router, name)
	defer doJSON(t, router, http.MethodDelete, "/api/v1/categories/"+id, nil)

	dup := doJSON(t, router, http.MethodPost, "/api/v1/categories", map[string]string{"name": name})
	require.Equal(t, errcode.ErrConflict, dup.Code)
}

func TestCategoryDeleteUnknown(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	missing := doJSON(t, router, http.MethodDelete, "/api/v1/categories/no-such-category", nil)
	require.Equal(t, errcode.ErrCategoryNotFound, missing.Code)
}
