package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port          int               `json:"port"`
	LogConfig     logger.LogConfig  `json:"log_config"`
	Database      DatabaseConfig    `json:"database"`
	FileStore     FileStoreConfig   `json:"file_store"`
	AI            AIConfig          `json:"ai"`
	Chunking      ChunkingConfig    `json:"chunking"`
	Ingest        IngestConfig      `json:"ingest"`
	Retrieval     RetrievalConfig   `json:"retrieval"`
	VectorStore   VectorStoreConfig `json:"vector_store"`
	CORSAllowlist []string          `json:"cors_allowlist"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type VectorStoreConfig struct {
	Type string `json:"type"`
}

type AIConfig struct {
	Provider       string      `json:"provider"`
	Data           interface{} `json:"data"`
	Model          string      `json:"model"`
	VisionModel    string      `json:"vision_model"`
	EmbedModel     string      `json:"embed_model"`
	EmbedDimension int         `json:"embed_dimension"`
	EmbedBatchSize int         `json:"embed_batch_size"`
	TimeoutSeconds int         `json:"timeout_seconds"`
	MaxInputChars  int         `json:"max_input_chars"`
	CacheSize      int         `json:"cache_size"`
	CacheTTLMin    int         `json:"cache_ttl_min"`
	EmbedCacheDays int         `json:"embed_cache_days"`
}

type ChunkingConfig struct {
	MaxChars     int `json:"max_chars"`
	OverlapChars int `json:"overlap_chars"`
}

type IngestConfig struct {
	Workers           int `json:"workers"`
	QueueSize         int `json:"queue_size"`
	MaxFileMB         int `json:"max_file_mb"`
	StaleRequeueMin   int `json:"stale_requeue_min"`
	TaskRetentionDays int `json:"task_retention_days"`
}

type RetrievalConfig struct {
	DefaultTopK         int `json:"default_top_k"`
	MaxTopK             int `json:"max_top_k"`
	MaxContextChars     int `json:"max_context_chars"`
	SummarizeChunkLimit int `json:"summarize_chunk_limit"`
	SummaryMaxWords     int `json:"summary_max_words"`
	AnswerMaxTokens     int `json:"answer_max_tokens"`
	// MinQueryIntervalMS throttles the search endpoints per (ip, route).
	// Zero disables throttling.
	MinQueryIntervalMS int `json:"min_query_interval_ms"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() error {
	if cfg.Port == 0 {
		return fmt.Errorf("port is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "pgvector"
	}
	if cfg.AI.Provider == "" {
		return fmt.Errorf("ai.provider is required")
	}
	if cfg.AI.Model == "" {
		return fmt.Errorf("ai.model is required")
	}
	if cfg.AI.VisionModel == "" {
		cfg.AI.VisionModel = cfg.AI.Model
	}
	if cfg.AI.EmbedModel == "" {
		return fmt.Errorf("ai.embed_model is required")
	}
	if cfg.AI.EmbedDimension <= 0 {
		cfg.AI.EmbedDimension = 768
	}
	if cfg.AI.EmbedBatchSize <= 0 {
		cfg.AI.EmbedBatchSize = 32
	}
	if cfg.AI.TimeoutSeconds <= 0 {
		cfg.AI.TimeoutSeconds = 60
	}
	if cfg.AI.MaxInputChars <= 0 {
		cfg.AI.MaxInputChars = 100000
	}
	if cfg.AI.CacheSize <= 0 {
		cfg.AI.CacheSize = 10000
	}
	if cfg.AI.CacheTTLMin <= 0 {
		cfg.AI.CacheTTLMin = 120
	}
	if cfg.AI.EmbedCacheDays <= 0 {
		cfg.AI.EmbedCacheDays = 30
	}
	if cfg.Chunking.MaxChars == 0 {
		cfg.Chunking.MaxChars = 1000
	}
	if cfg.Chunking.OverlapChars == 0 {
		cfg.Chunking.OverlapChars = 200
	}
	if cfg.Chunking.MaxChars < 0 || cfg.Chunking.OverlapChars < 0 || cfg.Chunking.OverlapChars >= cfg.Chunking.MaxChars {
		return fmt.Errorf("chunking.overlap_chars must be >= 0 and < chunking.max_chars")
	}
	if cfg.Ingest.Workers <= 0 {
		cfg.Ingest.Workers = 4
	}
	if cfg.Ingest.QueueSize <= 0 {
		cfg.Ingest.QueueSize = 256
	}
	if cfg.Ingest.MaxFileMB <= 0 {
		cfg.Ingest.MaxFileMB = 50
	}
	if cfg.Ingest.StaleRequeueMin <= 0 {
		cfg.Ingest.StaleRequeueMin = 10
	}
	if cfg.Ingest.TaskRetentionDays <= 0 {
		cfg.Ingest.TaskRetentionDays = 7
	}
	if cfg.Retrieval.DefaultTopK <= 0 {
		cfg.Retrieval.DefaultTopK = 5
	}
	if cfg.Retrieval.MaxTopK <= 0 {
		cfg.Retrieval.MaxTopK = 50
	}
	if cfg.Retrieval.MaxContextChars <= 0 {
		cfg.Retrieval.MaxContextChars = 24000
	}
	if cfg.Retrieval.SummarizeChunkLimit <= 0 {
		cfg.Retrieval.SummarizeChunkLimit = 50
	}
	if cfg.Retrieval.SummaryMaxWords <= 0 {
		cfg.Retrieval.SummaryMaxWords = 500
	}
	if cfg.Retrieval.AnswerMaxTokens <= 0 {
		cfg.Retrieval.AnswerMaxTokens = 1024
	}
	return nil
}
