package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/mallikj2/genai-file-search/internal/ai"
	"github.com/mallikj2/genai-file-search/internal/chunk"
	"github.com/mallikj2/genai-file-search/internal/filestore"
	"github.com/mallikj2/genai-file-search/internal/model"
	appErr "github.com/mallikj2/genai-file-search/internal/pkg/errors"
	"github.com/mallikj2/genai-file-search/internal/vecstore"
)

// DocumentStore is the slice of the document repository the pipeline needs.
type DocumentStore interface {
	GetByID(ctx context.Context, docID string) (*model.Document, error)
	Transition(ctx context.Context, docID string, from, to string) error
	MarkIndexed(ctx context.Context, docID string, totalChunks int) error
	MarkTerminal(ctx context.Context, docID string, status, errMsg string) error
}

// TaskStore is the slice of the task repository the pipeline needs.
type TaskStore interface {
	GetByID(ctx context.Context, taskID string) (*model.Task, error)
	MarkRunning(ctx context.Context, taskID string) error
	Finish(ctx context.Context, taskID string, status, errMsg string) error
	CancelRequested(ctx context.Context, taskID string) (bool, error)
}

// Extractor is satisfied by *extract.Registry.
type Extractor interface {
	Extract(ctx context.Context, format string, data []byte) (string, error)
}

// Pipeline executes one ingestion task: load the stored payload, extract
// text, chunk it, embed the chunks and replace the document's entries in
// the vector index. Each stage persists the document status before doing
// its work, so a crash leaves the document parked in the stage it died in.
type Pipeline struct {
	documents DocumentStore
	tasks     TaskStore
	payloads  filestore.Store
	extractor Extractor
	embedder  ai.IEmbedder
	index     vecstore.Store
	chunkCfg  chunk.Config
}

func NewPipeline(documents DocumentStore, tasks TaskStore, payloads filestore.Store,
	extractor Extractor, embedder ai.IEmbedder, index vecstore.Store, chunkCfg chunk.Config) *Pipeline {
	return &Pipeline{
		documents: documents,
		tasks:     tasks,
		payloads:  payloads,
		extractor: extractor,
		embedder:  embedder,
		index:     index,
		chunkCfg:  chunkCfg,
	}
}

// Run drives one task to a terminal state and records the outcome on both
// the task and its document. The returned error reports why ingestion
// failed; bookkeeping has already happened by then.
func (p *Pipeline) Run(ctx context.Context, taskID string) error {
	logger := logutil.GetLogger(ctx).With(zap.String("task_id", taskID))
	task, err := p.tasks.GetByID(ctx, taskID)
	if err != nil {
		logger.Error("load task failed", zap.Error(err))
		return err
	}
	if model.IsTerminalTaskStatus(task.Status) {
		// Duplicate delivery, e.g. the requeue job re-enqueued a task a
		// worker had already picked up.
		return nil
	}
	doc, err := p.documents.GetByID(ctx, task.DocumentID)
	if err != nil {
		finishErr := fmt.Errorf("load document %s: %w", task.DocumentID, err)
		_ = p.tasks.Finish(detach(ctx), taskID, model.TaskStatusFailure, finishErr.Error())
		logger.Error("load document failed", zap.Error(err))
		return finishErr
	}
	if err := p.tasks.MarkRunning(ctx, taskID); err != nil {
		logger.Warn("task not claimable", zap.Error(err))
		return nil
	}
	logger = logger.With(zap.String("document_id", doc.ID), zap.String("category_id", doc.CategoryID))
	if err := p.process(ctx, task, doc); err != nil {
		docStatus := model.DocStatusFailed
		if errors.Is(err, appErr.ErrCancelled) {
			docStatus = model.DocStatusCancelled
		}
		// Bookkeeping must land even when ctx itself is what got cancelled.
		bg := detach(ctx)
		if terr := p.documents.MarkTerminal(bg, doc.ID, docStatus, err.Error()); terr != nil {
			logger.Warn("mark document terminal failed", zap.Error(terr))
		}
		if terr := p.tasks.Finish(bg, taskID, model.TaskStatusFailure, err.Error()); terr != nil {
			logger.Warn("finish task failed", zap.Error(terr))
		}
		logger.Error("ingestion failed", zap.String("status", docStatus), zap.Error(err))
		return err
	}
	logger.Info("ingestion finished")
	return nil
}

func (p *Pipeline) process(ctx context.Context, task *model.Task, doc *model.Document) error {
	logger := logutil.GetLogger(ctx)

	if err := p.checkCancelled(ctx, task.ID); err != nil {
		return err
	}
	if err := p.documents.Transition(ctx, doc.ID, model.DocStatusPending, model.DocStatusExtracting); err != nil {
		return fmt.Errorf("enter extracting: %w", err)
	}
	payload, err := p.readPayload(ctx, doc.StoredKey)
	if err != nil {
		return fmt.Errorf("%w: read payload: %v", appErr.ErrExtraction, err)
	}
	text, err := p.extractor.Extract(ctx, doc.Format, payload)
	if err != nil {
		return err
	}
	logger.Debug("extracted text", zap.String("document_id", doc.ID), zap.Int("chars", len(text)))

	if err := p.checkCancelled(ctx, task.ID); err != nil {
		return err
	}
	if err := p.documents.Transition(ctx, doc.ID, model.DocStatusExtracting, model.DocStatusChunking); err != nil {
		return fmt.Errorf("enter chunking: %w", err)
	}
	chunks, err := chunk.Split(text, p.chunkCfg)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return fmt.Errorf("%w: no chunks produced", appErr.ErrExtraction)
	}

	if err := p.checkCancelled(ctx, task.ID); err != nil {
		return err
	}
	if err := p.documents.Transition(ctx, doc.ID, model.DocStatusChunking, model.DocStatusEmbedding); err != nil {
		return fmt.Errorf("enter embedding: %w", err)
	}
	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		texts = append(texts, c.Text)
	}
	vectors, err := p.embedder.EmbedTexts(ctx, texts, ai.TaskTypeDocument)
	if err != nil {
		return err
	}

	if err := p.checkCancelled(ctx, task.ID); err != nil {
		return err
	}
	entries := make([]model.IndexEntry, 0, len(chunks))
	for i, c := range chunks {
		entries = append(entries, model.IndexEntry{
			DocumentID: doc.ID,
			Seq:        c.Seq,
			Content:    c.Text,
			Embedding:  vectors[i],
		})
	}
	// Replace, not append: a re-ingested document that shrank must not keep
	// stale tail chunks in the index.
	if err := p.index.ReplaceDocument(ctx, doc.CategoryID, doc.ID, entries); err != nil {
		return fmt.Errorf("index document: %w", err)
	}
	if err := p.documents.MarkIndexed(ctx, doc.ID, len(entries)); err != nil {
		return fmt.Errorf("mark indexed: %w", err)
	}
	if err := p.tasks.Finish(ctx, task.ID, model.TaskStatusSuccess, ""); err != nil {
		logger.Warn("finish task failed", zap.String("task_id", task.ID), zap.Error(err))
	}
	return nil
}

func (p *Pipeline) readPayload(ctx context.Context, key string) ([]byte, error) {
	rc, err := p.payloads.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// checkCancelled runs at every stage boundary. A user cancel request and a
// dispatcher shutdown both surface as ErrCancelled so the document parks in
// cancelled instead of half-done.
func (p *Pipeline) checkCancelled(ctx context.Context, taskID string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", appErr.ErrCancelled, err)
	}
	cancelled, err := p.tasks.CancelRequested(ctx, taskID)
	if err != nil {
		return err
	}
	if cancelled {
		return appErr.ErrCancelled
	}
	return nil
}

// detach keeps log fields and values but drops the deadline and cancel
// signal, so terminal bookkeeping survives a cancelled worker context.
func detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
