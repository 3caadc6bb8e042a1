package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/mallikj2/genai-file-search/internal/ai"
	"github.com/mallikj2/genai-file-search/internal/chunk"
	"github.com/mallikj2/genai-file-search/internal/config"
	"github.com/mallikj2/genai-file-search/internal/db"
	"github.com/mallikj2/genai-file-search/internal/embedcache"
	"github.com/mallikj2/genai-file-search/internal/extract"
	"github.com/mallikj2/genai-file-search/internal/filestore"
	"github.com/mallikj2/genai-file-search/internal/handler"
	"github.com/mallikj2/genai-file-search/internal/ingest"
	"github.com/mallikj2/genai-file-search/internal/job"
	"github.com/mallikj2/genai-file-search/internal/middleware"
	"github.com/mallikj2/genai-file-search/internal/repo"
	"github.com/mallikj2/genai-file-search/internal/retrieval"
	"github.com/mallikj2/genai-file-search/internal/schedule"
	"github.com/mallikj2/genai-file-search/internal/service"
	"github.com/mallikj2/genai-file-search/internal/vecstore"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "genai-file-search",
		Short: "document search and QA server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			conn, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("file_store", cfg.FileStore.Type),
		zap.String("vector_store", cfg.VectorStore.Type),
		zap.String("ai_provider", cfg.AI.Provider),
	)

	categoryRepo := repo.NewCategoryRepo(conn)
	documentRepo := repo.NewDocumentRepo(conn)
	taskRepo := repo.NewTaskRepo(conn)
	embedCacheRepo := repo.NewEmbeddingCacheRepo(conn)

	payloads, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}
	index, err := vecstore.New(cfg.VectorStore.Type, conn)
	if err != nil {
		return fmt.Errorf("init vector store: %w", err)
	}

	providerArgs := cfg.AI.Data
	if providerArgs == nil {
		providerArgs = cfg.AI
	}
	provider, err := ai.NewProvider(cfg.AI.Provider, providerArgs)
	if err != nil {
		return fmt.Errorf("init ai provider: %w", err)
	}
	aiTimeout := time.Duration(cfg.AI.TimeoutSeconds) * time.Second
	embedder := ai.NewEmbedder(provider, ai.EmbedderConfig{
		Model:     cfg.AI.EmbedModel,
		Dimension: cfg.AI.EmbedDimension,
		BatchSize: cfg.AI.EmbedBatchSize,
		Timeout:   aiTimeout,
	})
	// Cache order matters: the LRU sits in front and absorbs repeats within
	// a process, the DB cache survives restarts and re-ingestions.
	embedder = embedcache.WrapDBCacheToEmbedder(embedder, embedCacheRepo)
	embedder = embedcache.WrapLruCacheToEmbedder(embedder, cfg.AI.CacheSize,
		time.Duration(cfg.AI.CacheTTLMin)*time.Minute)
	generator := ai.NewGenerator(provider, cfg.AI.Model, aiTimeout)
	ocr := ai.NewVisionOCR(provider, cfg.AI.VisionModel, aiTimeout)

	registry := extract.NewRegistry(
		extract.NewPlainText(),
		extract.NewMarkdown(),
		extract.NewJSON(),
		extract.NewXML(),
		extract.NewCSV(),
		extract.NewDocx(),
		extract.NewXlsx(),
		extract.NewPptx(),
		extract.NewPDF(nil),
		extract.NewImage(ocr),
	)

	pipeline := ingest.NewPipeline(documentRepo, taskRepo, payloads, registry, embedder, index, chunk.Config{
		MaxChars:     cfg.Chunking.MaxChars,
		OverlapChars: cfg.Chunking.OverlapChars,
	})
	dispatcher := ingest.NewDispatcher(pipeline, cfg.Ingest.Workers, cfg.Ingest.QueueSize)

	categoryService := service.NewCategoryService(categoryRepo, documentRepo, index, payloads)
	documentService := service.NewDocumentService(documentRepo, taskRepo, categoryRepo,
		payloads, index, registry, dispatcher, cfg.Ingest.MaxFileMB)

	engine := retrieval.NewEngine(categoryRepo, embedder, generator, index, retrieval.Config{
		DefaultTopK:         cfg.Retrieval.DefaultTopK,
		MaxTopK:             cfg.Retrieval.MaxTopK,
		MaxContextChars:     cfg.Retrieval.MaxContextChars,
		SummarizeChunkLimit: cfg.Retrieval.SummarizeChunkLimit,
		SummaryMaxWords:     cfg.Retrieval.SummaryMaxWords,
		AnswerMaxTokens:     cfg.Retrieval.AnswerMaxTokens,
		AnswerCacheSize:     cfg.AI.CacheSize,
		AnswerCacheTTL:      time.Duration(cfg.AI.CacheTTLMin) * time.Minute,
	})

	deps := handler.RouterDeps{
		Categories:       handler.NewCategoryHandler(categoryService),
		Documents:        handler.NewDocumentHandler(documentService),
		Tasks:            handler.NewTaskHandler(documentService),
		Search:           handler.NewSearchHandler(engine),
		MinQueryInterval: time.Duration(cfg.Retrieval.MinQueryIntervalMS) * time.Millisecond,
	}

	web, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	requeueJob := job.NewTaskRequeueJob(taskRepo, dispatcher,
		time.Duration(cfg.Ingest.StaleRequeueMin)*time.Minute, uint(cfg.Ingest.QueueSize))
	if err := requeueJob.Recover(ctx); err != nil {
		logutil.GetLogger(ctx).Warn("task recovery failed", zap.Error(err))
	}

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(requeueJob, "*/5 * * * *"); err != nil {
		return err
	}
	if err := scheduler.AddJob(job.NewTaskCleanupJob(taskRepo, cfg.Ingest.TaskRetentionDays), "0 3 * * *"); err != nil {
		return err
	}
	if err := scheduler.AddJob(job.NewEmbeddingCacheCleanupJob(embedCacheRepo, cfg.AI.EmbedCacheDays), "30 3 * * *"); err != nil {
		return err
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := web.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
