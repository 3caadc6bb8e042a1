package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	appErr "github.com/mallikj2/genai-file-search/internal/pkg/errors"
)

// IEmbedder binds a provider to one embedding model. Implementations return
// exactly one vector per input, in input order.
type IEmbedder interface {
	EmbedTexts(ctx context.Context, texts []string, taskType string) ([][]float32, error)
	ModelName() string
}

type EmbedderConfig struct {
	Model     string
	Dimension int
	BatchSize int
	Timeout   time.Duration
}

type embedder struct {
	provider IProvider
	cfg      EmbedderConfig
}

func NewEmbedder(p IProvider, cfg EmbedderConfig) IEmbedder {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 32
	}
	return &embedder{provider: p, cfg: cfg}
}

func (e *embedder) ModelName() string {
	return e.cfg.Model
}

// EmbedTexts validates inputs before any backend call, then embeds them in
// batches of at most BatchSize. A failure in any batch fails the whole call;
// partial results are never returned.
func (e *embedder) EmbedTexts(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, appErr.ErrEmptyInput
	}
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("%w: segment %d is blank", appErr.ErrEmptyInput, i)
		}
	}
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.cfg.BatchSize {
		end := start + e.cfg.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := e.embedBatch(ctx, texts[start:end], taskType)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

func (e *embedder) embedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}
	vectors, err := e.provider.Embed(ctx, e.cfg.Model, texts, taskType)
	if err != nil {
		return nil, classifyBackendErr(err, appErr.ErrEmbeddingBackend)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d vectors, got %d", appErr.ErrEmbeddingBackend, len(texts), len(vectors))
	}
	if e.cfg.Dimension > 0 {
		for i, vec := range vectors {
			if len(vec) != e.cfg.Dimension {
				return nil, fmt.Errorf("%w: vector %d has dimension %d, want %d", appErr.ErrEmbeddingBackend, i, len(vec), e.cfg.Dimension)
			}
		}
	}
	return vectors, nil
}
