package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/mallikj2/genai-file-search/internal/pkg/errcode"
	"github.com/mallikj2/genai-file-search/internal/pkg/response"
	"github.com/mallikj2/genai-file-search/internal/retrieval"
)

type SearchHandler struct {
	engine *retrieval.Engine
}

func NewSearchHandler(engine *retrieval.Engine) *SearchHandler {
	return &SearchHandler{engine: engine}
}

type searchRequest struct {
	Query      string `json:"query"`
	CategoryID string `json:"category_id"`
	TopK       int    `json:"top_k"`
}

func (h *SearchHandler) Query(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	result, err := h.engine.Search(c.Request.Context(), req.CategoryID, req.Query, req.TopK)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

type qaRequest struct {
	Question   string `json:"question"`
	CategoryID string `json:"category_id"`
	TopK       int    `json:"top_k"`
}

func (h *SearchHandler) QA(c *gin.Context) {
	var req qaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	answer, err := h.engine.Answer(c.Request.Context(), req.CategoryID, req.Question, req.TopK)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, answer)
}

type summarizeRequest struct {
	CategoryID string `json:"category_id"`
	MaxLength  int    `json:"max_length"`
}

func (h *SearchHandler) Summarize(c *gin.Context) {
	var req summarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	summary, err := h.engine.Summarize(c.Request.Context(), req.CategoryID, req.MaxLength)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, summary)
}
