package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mallikj2/genai-file-search/internal/middleware"
	"github.com/mallikj2/genai-file-search/internal/pkg/response"
)

type RouterDeps struct {
	Categories *CategoryHandler
	Documents  *DocumentHandler
	Tasks      *TaskHandler
	Search     *SearchHandler
	// MinQueryInterval throttles the search endpoints per (ip, route) when
	// positive.
	MinQueryInterval time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/healthz", func(c *gin.Context) {
		response.Success(c, gin.H{"status": "ok"})
	})

	api.POST("/categories", deps.Categories.Create)
	api.GET("/categories", deps.Categories.List)
	api.GET("/categories/:id", deps.Categories.Get)
	api.DELETE("/categories/:id", deps.Categories.Delete)

	api.POST("/documents", deps.Documents.Upload)
	api.GET("/documents", deps.Documents.List)
	api.GET("/documents/:id", deps.Documents.Get)
	api.DELETE("/documents/:id", deps.Documents.Delete)
	api.POST("/documents/:id/reingest", deps.Documents.Reingest)

	api.GET("/tasks/:id", deps.Tasks.Get)
	api.POST("/tasks/:id/cancel", deps.Tasks.Cancel)

	search := api.Group("/search")
	if deps.MinQueryInterval > 0 {
		search.Use(middleware.RateLimit(deps.MinQueryInterval))
	}
	search.POST("/query", deps.Search.Query)
	search.POST("/qa", deps.Search.QA)
	search.POST("/summarize", deps.Search.Summarize)
}
