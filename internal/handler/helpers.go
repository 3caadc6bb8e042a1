package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/mallikj2/genai-file-search/internal/ai"
	"github.com/mallikj2/genai-file-search/internal/pkg/errcode"
	appErr "github.com/mallikj2/genai-file-search/internal/pkg/errors"
	"github.com/mallikj2/genai-file-search/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", c.GetString("request_id")),
		zap.Error(err))
	response.Error(c, codeOf(err), err.Error())
}

// codeOf maps the error taxonomy onto business codes. Specific sentinels go
// first; the generic ones catch whatever the specific checks let through.
func codeOf(err error) int {
	switch {
	case errors.Is(err, appErr.ErrCategoryNotFound):
		return errcode.ErrCategoryNotFound
	case errors.Is(err, appErr.ErrCollectionNotFound):
		return errcode.ErrCollectionNotFound
	case errors.Is(err, appErr.ErrUnsupportedFormat):
		return errcode.ErrUnsupportedFormat
	case errors.Is(err, appErr.ErrExtraction):
		return errcode.ErrExtractionFailed
	case errors.Is(err, appErr.ErrInvalidChunkConfig):
		return errcode.ErrInvalidChunkConfig
	case errors.Is(err, appErr.ErrEmptyInput):
		return errcode.ErrEmptyInput
	case errors.Is(err, appErr.ErrInvalidQueryParams):
		return errcode.ErrInvalidQueryParams
	case errors.Is(err, appErr.ErrRateLimited):
		return errcode.ErrRateLimited
	case errors.Is(err, appErr.ErrTimeout):
		return errcode.ErrTimeout
	case errors.Is(err, appErr.ErrEmbeddingBackend):
		return errcode.ErrEmbeddingBackend
	case errors.Is(err, appErr.ErrCancelled):
		return errcode.ErrCancelled
	case errors.Is(err, ai.ErrUnavailable):
		return errcode.ErrAIUnavailable
	case errors.Is(err, appErr.ErrNotFound):
		return errcode.ErrNotFound
	case errors.Is(err, appErr.ErrInvalid):
		return errcode.ErrInvalid
	case errors.Is(err, appErr.ErrConflict):
		return errcode.ErrConflict
	case errors.Is(err, appErr.ErrTooMany):
		return errcode.ErrTooMany
	default:
		return errcode.ErrInternal
	}
}

func parseUintQuery(c *gin.Context, name string) uint {
	if value := c.Query(name); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return uint(parsed)
		}
	}
	return 0
}
