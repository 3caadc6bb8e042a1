package retrieval

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/mallikj2/genai-file-search/internal/ai"
	"github.com/mallikj2/genai-file-search/internal/model"
	appErr "github.com/mallikj2/genai-file-search/internal/pkg/errors"
	"github.com/mallikj2/genai-file-search/internal/vecstore"
)

// Summaries accept an explicit word budget inside these bounds only.
const (
	minSummaryWords = 100
	maxSummaryWords = 2000
)

// summaryTokenFactor sizes the backend output-token cap from a word budget.
const summaryTokenFactor = 2

// CategoryStore is the slice of the category repository the engine needs.
type CategoryStore interface {
	GetByID(ctx context.Context, categoryID string) (*model.Category, error)
}

type Config struct {
	DefaultTopK         int
	MaxTopK             int
	MaxContextChars     int
	SummarizeChunkLimit int
	SummaryMaxWords     int
	AnswerMaxTokens     int
	AnswerCacheSize     int
	AnswerCacheTTL      time.Duration
}

func (c *Config) applyDefaults() {
	if c.DefaultTopK <= 0 {
		c.DefaultTopK = 5
	}
	if c.MaxTopK <= 0 {
		c.MaxTopK = 50
	}
	if c.MaxContextChars <= 0 {
		c.MaxContextChars = 24000
	}
	if c.SummarizeChunkLimit <= 0 {
		c.SummarizeChunkLimit = 50
	}
	if c.SummaryMaxWords <= 0 {
		c.SummaryMaxWords = 500
	}
	if c.AnswerMaxTokens <= 0 {
		c.AnswerMaxTokens = 1024
	}
}

// Engine is the retrieve-then-generate read path: embed the query, rank
// chunks from the category's collection, and either return them (Search) or
// feed them to the generation model (Answer, Summarize). It only reads the
// index; ingestion owns all writes.
type Engine struct {
	categories CategoryStore
	embedder   ai.IEmbedder
	generator  ai.IGenerator
	index      vecstore.Store
	cache      *expirable.LRU[string, string]
	cfg        Config
}

func NewEngine(categories CategoryStore, embedder ai.IEmbedder, generator ai.IGenerator, index vecstore.Store, cfg Config) *Engine {
	cfg.applyDefaults()
	e := &Engine{
		categories: categories,
		embedder:   embedder,
		generator:  generator,
		index:      index,
		cfg:        cfg,
	}
	if cfg.AnswerCacheSize > 0 && cfg.AnswerCacheTTL > 0 {
		e.cache = expirable.NewLRU[string, string](cfg.AnswerCacheSize, nil, cfg.AnswerCacheTTL)
	}
	return e
}

// Search returns the topK closest chunks with confidence scores. No
// generation call is involved.
func (e *Engine) Search(ctx context.Context, categoryID, query string, topK int) (*model.SearchResult, error) {
	query = strings.TrimSpace(query)
	passages, err := e.retrieve(ctx, categoryID, query, topK)
	if err != nil {
		return nil, err
	}
	return &model.SearchResult{Query: query, Passages: passages}, nil
}

// Answer builds a grounding prompt from the retrieved chunks and asks the
// generation model. Zero retrieved chunks short-circuit to a static
// insufficient-information answer without touching the backend. ChunkIDs
// lists exactly the chunks whose text made it into the prompt.
func (e *Engine) Answer(ctx context.Context, categoryID, question string, topK int) (*model.Answer, error) {
	question = strings.TrimSpace(question)
	passages, err := e.retrieve(ctx, categoryID, question, topK)
	if err != nil {
		return nil, err
	}
	if len(passages) == 0 {
		return &model.Answer{
			Question: question,
			Answer:   insufficientAnswer,
			ChunkIDs: []string{},
			Passages: []model.Passage{},
		}, nil
	}
	contextText, used := buildContext(passageTexts(passages), e.cfg.MaxContextChars)
	chunkIDs := make([]string, 0, used)
	for _, p := range passages[:used] {
		chunkIDs = append(chunkIDs, p.ChunkID)
	}
	prompt := fmt.Sprintf(qaPromptTemplate, insufficientAnswer, contextText, question)
	text, err := e.generate(ctx, cacheKey("qa", categoryID, question+"|"+contextText, topK), prompt, e.cfg.AnswerMaxTokens)
	if err != nil {
		return nil, err
	}
	return &model.Answer{
		Question: question,
		Answer:   text,
		ChunkIDs: chunkIDs,
		Passages: passages,
	}, nil
}

// Summarize samples up to SummarizeChunkLimit chunks across the whole
// category and asks the generation model for a bounded-length summary.
// maxWords == 0 picks the configured default.
func (e *Engine) Summarize(ctx context.Context, categoryID string, maxWords int) (*model.Summary, error) {
	if err := e.ensureCategory(ctx, categoryID); err != nil {
		return nil, err
	}
	if maxWords == 0 {
		maxWords = e.cfg.SummaryMaxWords
	}
	if maxWords < minSummaryWords || maxWords > maxSummaryWords {
		return nil, fmt.Errorf("%w: max_length must be between %d and %d",
			appErr.ErrInvalidQueryParams, minSummaryWords, maxSummaryWords)
	}
	entries, err := e.index.Sample(ctx, categoryID, e.cfg.SummarizeChunkLimit)
	if err != nil && !errors.Is(err, appErr.ErrCollectionNotFound) {
		return nil, err
	}
	if len(entries) == 0 {
		return &model.Summary{
			CategoryID: categoryID,
			Summary:    emptyCategorySummary,
			ChunkCount: 0,
		}, nil
	}
	texts := make([]string, 0, len(entries))
	for _, entry := range entries {
		texts = append(texts, entry.Content)
	}
	contextText, used := buildContext(texts, e.cfg.MaxContextChars)
	prompt := fmt.Sprintf(summaryPromptTemplate, maxWords, contextText)
	text, err := e.generate(ctx, cacheKey("summarize", categoryID, contextText, maxWords), prompt, maxWords*summaryTokenFactor)
	if err != nil {
		return nil, err
	}
	return &model.Summary{
		CategoryID: categoryID,
		Summary:    text,
		ChunkCount: used,
	}, nil
}

// retrieve embeds the query and ranks chunks. A category that exists but has
// nothing indexed yet yields an empty result, not an error; the callers
// decide what "no results" means.
func (e *Engine) retrieve(ctx context.Context, categoryID, query string, topK int) ([]model.Passage, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", appErr.ErrEmptyInput)
	}
	topK, err := e.resolveTopK(topK)
	if err != nil {
		return nil, err
	}
	if err := e.ensureCategory(ctx, categoryID); err != nil {
		return nil, err
	}
	vectors, err := e.embedder.EmbedTexts(ctx, []string{query}, ai.TaskTypeQuery)
	if err != nil {
		return nil, err
	}
	hits, err := e.index.Query(ctx, categoryID, vectors[0], topK)
	if err != nil {
		if errors.Is(err, appErr.ErrCollectionNotFound) {
			return []model.Passage{}, nil
		}
		return nil, err
	}
	passages := make([]model.Passage, 0, len(hits))
	for _, hit := range hits {
		passages = append(passages, model.Passage{
			ChunkID:    chunkID(hit.DocumentID, hit.Seq),
			DocumentID: hit.DocumentID,
			Seq:        hit.Seq,
			Text:       hit.Content,
			Score:      scoreFromDistance(hit.Distance),
		})
	}
	return passages, nil
}

func (e *Engine) resolveTopK(topK int) (int, error) {
	if topK == 0 {
		return e.cfg.DefaultTopK, nil
	}
	if topK < 0 || topK > e.cfg.MaxTopK {
		return 0, fmt.Errorf("%w: top_k must be between 1 and %d", appErr.ErrInvalidQueryParams, e.cfg.MaxTopK)
	}
	return topK, nil
}

func (e *Engine) ensureCategory(ctx context.Context, categoryID string) error {
	if strings.TrimSpace(categoryID) == "" {
		return fmt.Errorf("%w: category_id is required", appErr.ErrInvalidQueryParams)
	}
	if _, err := e.categories.GetByID(ctx, categoryID); err != nil {
		if errors.Is(err, appErr.ErrNotFound) {
			return fmt.Errorf("%w: %s", appErr.ErrCategoryNotFound, categoryID)
		}
		return err
	}
	return nil
}

func (e *Engine) generate(ctx context.Context, key, prompt string, maxTokens int) (string, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			logutil.GetLogger(ctx).Debug("answer cache hit", zap.String("key", key))
			return cached, nil
		}
	}
	text, err := e.generator.Generate(ctx, prompt, maxTokens)
	if err != nil {
		return "", err
	}
	if e.cache != nil {
		e.cache.Add(key, text)
	}
	return text, nil
}

// chunkID is the public identity of a chunk: document id plus its position.
func chunkID(documentID string, seq int) string {
	return documentID + ":" + strconv.Itoa(seq)
}

// scoreFromDistance maps cosine distance [0, 2] onto a confidence score
// [0, 1], rounded to two decimals. Lower distance means higher confidence.
func scoreFromDistance(distance float32) float64 {
	score := 1 - float64(distance)/2
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return math.Round(score*100) / 100
}

// cacheKey is content-addressed: it hashes the assembled context, so a
// re-ingested category stops serving stale cached answers immediately.
func cacheKey(mode, categoryID, content string, n int) string {
	sum := sha256.Sum256([]byte(mode + "|" + categoryID + "|" + content + "|" + strconv.Itoa(n)))
	return mode + ":" + hex.EncodeToString(sum[:])
}
