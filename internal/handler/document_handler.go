package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/mallikj2/genai-file-search/internal/pkg/errcode"
	"github.com/mallikj2/genai-file-search/internal/pkg/response"
	"github.com/mallikj2/genai-file-search/internal/service"
)

type DocumentHandler struct {
	documents *service.DocumentService
}

func NewDocumentHandler(documents *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// Upload accepts a multipart form with the payload under "file" and the
// target category under "category_id". The reply carries both the document
// and the queued task so callers can poll either.
func (h *DocumentHandler) Upload(c *gin.Context) {
	categoryID := c.PostForm("category_id")
	if categoryID == "" {
		response.Error(c, errcode.ErrInvalid, "category_id is required")
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "file is required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "failed to open file")
		return
	}
	defer file.Close()

	doc, task, err := h.documents.Upload(c.Request.Context(), categoryID, fileHeader.Filename, fileHeader.Size, file)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"document": doc, "task": task})
}

func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.documents.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, doc)
}

func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.documents.List(c.Request.Context(), c.Query("category_id"),
		parseUintQuery(c, "limit"), parseUintQuery(c, "offset"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"documents": docs})
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.documents.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

func (h *DocumentHandler) Reingest(c *gin.Context) {
	task, err := h.documents.Reingest(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"task": task})
}
