package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/mallikj2/genai-file-search/internal/pkg/response"
	"github.com/mallikj2/genai-file-search/internal/service"
)

type TaskHandler struct {
	documents *service.DocumentService
}

func NewTaskHandler(documents *service.DocumentService) *TaskHandler {
	return &TaskHandler{documents: documents}
}

func (h *TaskHandler) Get(c *gin.Context) {
	task, err := h.documents.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, task)
}

func (h *TaskHandler) Cancel(c *gin.Context) {
	task, err := h.documents.CancelTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, task)
}
