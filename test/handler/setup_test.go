package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/webapi"

	"github.com/mallikj2/genai-file-search/internal/chunk"
	"github.com/mallikj2/genai-file-search/internal/config"
	"github.com/mallikj2/genai-file-search/internal/extract"
	"github.com/mallikj2/genai-file-search/internal/filestore"
	"github.com/mallikj2/genai-file-search/internal/handler"
	"github.com/mallikj2/genai-file-search/internal/ingest"
	"github.com/mallikj2/genai-file-search/internal/middleware"
	"github.com/mallikj2/genai-file-search/internal/repo"
	"github.com/mallikj2/genai-file-search/internal/retrieval"
	"github.com/mallikj2/genai-file-search/internal/service"
	"github.com/mallikj2/genai-file-search/internal/vecstore"
	"github.com/mallikj2/genai-file-search/test/testutil"
)

// keywordEmbedder projects texts onto a two-dimensional basis keyed on
// marker words, so chunk/query similarity in these tests is deterministic:
// texts mentioning "alpha" land on one axis, "beta" on the other.
type keywordEmbedder struct{}

func (keywordEmbedder) EmbedTexts(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		lower := strings.ToLower(text)
		switch {
		case strings.Contains(lower, "alpha"):
			out = append(out, []float32{1, 0})
		case strings.Contains(lower, "beta"):
			out = append(out, []float32{0, 1})
		default:
			out = append(out, []float32{0.7071, 0.7071})
		}
	}
	return out, nil
}

func (keywordEmbedder) ModelName() string { return "test-embed" }

type staticGenerator struct {
	reply string
}

func (g staticGenerator) Generate(ctx context.Context, prompt string, maxOutputTokens int) (string, error) {
	return g.reply, nil
}

func setupRouter(t *testing.T) (http.Handler, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, cleanup := testutil.OpenTestDB(t)
	categoryRepo := repo.NewCategoryRepo(db)
	documentRepo := repo.NewDocumentRepo(db)
	taskRepo := repo.NewTaskRepo(db)

	tmpDir, err := os.MkdirTemp("", "genai-upload-*")
	require.NoError(t, err)

	payloads, err := filestore.New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{
			"dir": tmpDir,
		},
	})
	require.NoError(t, err)

	index := vecstore.NewPgVector(db)
	registry := extract.NewRegistry(
		extract.NewPlainText(),
		extract.NewMarkdown(),
		extract.NewJSON(),
		extract.NewXML(),
		extract.NewCSV(),
	)

	pipeline := ingest.NewPipeline(documentRepo, taskRepo, payloads, registry, keywordEmbedder{}, index,
		chunk.Config{MaxChars: 1000, OverlapChars: 100})
	dispatcher := ingest.NewDispatcher(pipeline, 2, 16)
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher.Start(workerCtx)

	categoryService := service.NewCategoryService(categoryRepo, documentRepo, index, payloads)
	documentService := service.NewDocumentService(documentRepo, taskRepo, categoryRepo,
		payloads, index, registry, dispatcher, 10)
	searchEngine := retrieval.NewEngine(categoryRepo, keywordEmbedder{}, staticGenerator{reply: "generated answer"}, index,
		retrieval.Config{
			DefaultTopK:         5,
			MaxTopK:             50,
			MaxContextChars:     4000,
			SummarizeChunkLimit: 20,
			SummaryMaxWords:     500,
		})

	deps := handler.RouterDeps{
		Categories: handler.NewCategoryHandler(categoryService),
		Documents:  handler.NewDocumentHandler(documentService),
		Tasks:      handler.NewTaskHandler(documentService),
		Search:     handler.NewSearchHandler(searchEngine),
	}

	router, err := webapi.NewEngine(
		"/api/v1",
		"",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(nil),
		),
	)
	require.NoError(t, err)

	return router, func() {
		dispatcher.Stop()
		stopWorkers()
		cleanup()
		_ = os.RemoveAll(tmpDir)
	}
}

type apiResponse struct {
	Code int                    `json:"code"`
	Msg  string                 `json:"msg"`
	Data map[string]interface{} `json:"data"`
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) apiResponse {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
	var result apiResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	return result
}

func uploadDocument(t *testing.T, router http.Handler, categoryID, filename, content string) apiResponse {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("category_id", categoryID))
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
	var result apiResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	return result
}

func createCategory(t *testing.T, router http.Handler, name string) string {
	t.Helper()
	result := doJSON(t, router, http.MethodPost, "/api/v1/categories", map[string]string{"name": name})
	require.Equal(t, 0, result.Code)
	id, _ := result.Data["id"].(string)
	require.NotEmpty(t, id)
	return id
}

// ingestDocument uploads content and waits for the background pipeline to
// finish with it, returning the document id.
func ingestDocument(t *testing.T, router http.Handler, categoryID, filename, content string) string {
	t.Helper()
	result := uploadDocument(t, router, categoryID, filename, content)
	require.Equal(t, 0, result.Code)
	doc, _ := result.Data["document"].(map[string]interface{})
	task, _ := result.Data["task"].(map[string]interface{})
	docID, _ := doc["id"].(string)
	taskID, _ := task["id"].(string)
	require.NotEmpty(t, docID)
	require.NotEmpty(t, taskID)
	status := waitForTask(t, router, taskID)
	require.Equal(t, "success", status)
	return docID
}

func waitForTask(t *testing.T, router http.Handler, taskID string) string {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		result := doJSON(t, router, http.MethodGet, "/api/v1/tasks/"+taskID, nil)
		require.Equal(t, 0, result.Code)
		status, _ := result.Data["status"].(string)
		if status == "success" || status == "failure" {
			return status
		}
		time.Sleep(25 * time.Millisecond)
	}
	t.Fatalf("task %s did not reach a terminal status", taskID)
	return ""
}
