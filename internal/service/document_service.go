package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/mallikj2/genai-file-search/internal/extract"
	"github.com/mallikj2/genai-file-search/internal/filestore"
	"github.com/mallikj2/genai-file-search/internal/model"
	appErr "github.com/mallikj2/genai-file-search/internal/pkg/errors"
	"github.com/mallikj2/genai-file-search/internal/pkg/timeutil"
	"github.com/mallikj2/genai-file-search/internal/repo"
	"github.com/mallikj2/genai-file-search/internal/vecstore"
)

const (
	maxStoredNameChars = 100
	sniffLen           = 512
)

// Queue is where accepted uploads go to be processed. Enqueue never blocks;
// a saturated queue fails fast so the caller can compensate.
type Queue interface {
	Enqueue(taskID string) error
}

type DocumentService struct {
	documents    *repo.DocumentRepo
	tasks        *repo.TaskRepo
	categories   *repo.CategoryRepo
	payloads     filestore.Store
	index        vecstore.Store
	formats      *extract.Registry
	queue        Queue
	maxFileBytes int64
}

func NewDocumentService(documents *repo.DocumentRepo, tasks *repo.TaskRepo, categories *repo.CategoryRepo,
	payloads filestore.Store, index vecstore.Store, formats *extract.Registry, queue Queue, maxFileMB int) *DocumentService {
	if maxFileMB <= 0 {
		maxFileMB = 50
	}
	return &DocumentService{
		documents:    documents,
		tasks:        tasks,
		categories:   categories,
		payloads:     payloads,
		index:        index,
		formats:      formats,
		queue:        queue,
		maxFileBytes: int64(maxFileMB) << 20,
	}
}

// Upload stores the payload, registers the document as pending and queues an
// ingestion task. Everything is compensated on failure: a rejected or
// unqueueable upload leaves no rows and no payload behind.
func (s *DocumentService) Upload(ctx context.Context, categoryID, filename string, size int64, file filestore.ReadSeekCloser) (*model.Document, *model.Task, error) {
	if _, err := s.categories.GetByID(ctx, categoryID); err != nil {
		if appErr.IsNotFound(err) {
			return nil, nil, appErr.ErrCategoryNotFound
		}
		return nil, nil, err
	}
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return nil, nil, fmt.Errorf("%w: filename is required", appErr.ErrInvalid)
	}
	if size <= 0 {
		return nil, nil, fmt.Errorf("%w: empty upload", appErr.ErrInvalid)
	}
	if size > s.maxFileBytes {
		return nil, nil, fmt.Errorf("%w: file exceeds %d bytes", appErr.ErrInvalid, s.maxFileBytes)
	}

	format, err := s.detectFormat(filename, file)
	if err != nil {
		return nil, nil, err
	}

	docID := newID()
	storedKey := docID + "_" + sanitizeName(filename)
	if err := s.payloads.Save(ctx, storedKey, file, size); err != nil {
		return nil, nil, fmt.Errorf("save payload: %w", err)
	}

	now := timeutil.NowUnix()
	doc := &model.Document{
		ID:         docID,
		CategoryID: categoryID,
		Name:       filename,
		StoredKey:  storedKey,
		Format:     format,
		SizeBytes:  size,
		Status:     model.DocStatusPending,
		Ctime:      now,
		Mtime:      now,
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		s.discardPayload(ctx, storedKey)
		return nil, nil, err
	}
	task := &model.Task{
		ID:         newID(),
		DocumentID: doc.ID,
		Status:     model.TaskStatusQueued,
		Ctime:      now,
		Mtime:      now,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		s.discardDocument(ctx, doc)
		return nil, nil, err
	}
	if err := s.queue.Enqueue(task.ID); err != nil {
		s.discardDocument(ctx, doc)
		return nil, nil, err
	}
	logutil.GetLogger(ctx).Info("document queued for ingestion",
		zap.String("document_id", doc.ID),
		zap.String("category_id", categoryID),
		zap.String("format", format),
		zap.Int64("size_bytes", size),
		zap.String("task_id", task.ID))
	return doc, task, nil
}

func (s *DocumentService) Get(ctx context.Context, docID string) (*model.Document, error) {
	return s.documents.GetByID(ctx, docID)
}

func (s *DocumentService) List(ctx context.Context, categoryID string, limit, offset uint) ([]model.Document, error) {
	if categoryID != "" {
		if _, err := s.categories.GetByID(ctx, categoryID); err != nil {
			if appErr.IsNotFound(err) {
				return nil, appErr.ErrCategoryNotFound
			}
			return nil, err
		}
	}
	return s.documents.List(ctx, categoryID, limit, offset)
}

// Delete removes the document's vectors before its row so a partial failure
// never strands searchable chunks pointing at a deleted document. Payload
// removal comes last and is best effort.
func (s *DocumentService) Delete(ctx context.Context, docID string) error {
	doc, err := s.documents.GetByID(ctx, docID)
	if err != nil {
		return err
	}
	if err := s.index.DeleteDocument(ctx, doc.CategoryID, doc.ID); err != nil {
		return err
	}
	if err := s.documents.Delete(ctx, docID); err != nil && !appErr.IsNotFound(err) {
		return err
	}
	if err := s.payloads.Delete(ctx, doc.StoredKey); err != nil {
		logutil.GetLogger(ctx).Warn("failed to delete stored payload",
			zap.String("document_id", docID),
			zap.String("stored_key", doc.StoredKey),
			zap.Error(err))
	}
	return nil
}

// Reingest re-runs the pipeline over the stored payload. Only documents in a
// terminal status are eligible; an in-flight ingestion keeps exclusive
// ownership of the document until it parks it.
func (s *DocumentService) Reingest(ctx context.Context, docID string) (*model.Task, error) {
	doc, err := s.documents.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if !model.IsTerminalDocStatus(doc.Status) {
		return nil, fmt.Errorf("%w: document is %s", appErr.ErrConflict, doc.Status)
	}
	if err := s.documents.ResetPending(ctx, docID); err != nil {
		return nil, err
	}
	now := timeutil.NowUnix()
	task := &model.Task{
		ID:         newID(),
		DocumentID: docID,
		Status:     model.TaskStatusQueued,
		Ctime:      now,
		Mtime:      now,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	if err := s.queue.Enqueue(task.ID); err != nil {
		s.parkUnqueued(ctx, doc.ID, task.ID, err)
		return nil, err
	}
	logutil.GetLogger(ctx).Info("document queued for re-ingestion",
		zap.String("document_id", docID),
		zap.String("task_id", task.ID))
	return task, nil
}

func (s *DocumentService) GetTask(ctx context.Context, taskID string) (*model.Task, error) {
	return s.tasks.GetByID(ctx, taskID)
}

// CancelTask flips the cooperative cancel flag. The pipeline honors it at
// the next stage boundary; a task that finished in the meantime reports
// conflict rather than pretending to cancel.
func (s *DocumentService) CancelTask(ctx context.Context, taskID string) (*model.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if model.IsTerminalTaskStatus(task.Status) {
		return nil, fmt.Errorf("%w: task already %s", appErr.ErrConflict, task.Status)
	}
	if err := s.tasks.RequestCancel(ctx, taskID); err != nil {
		return nil, err
	}
	return s.tasks.GetByID(ctx, taskID)
}

// detectFormat sniffs the head of the upload and rewinds it. The extension
// wins when known; otherwise content detection decides.
func (s *DocumentService) detectFormat(filename string, file filestore.ReadSeekCloser) (string, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}
	format := extract.Detect(filename, head[:n])
	if format == "" || !s.formats.Supports(format) {
		return "", appErr.ErrUnsupportedFormat
	}
	return format, nil
}

// discardDocument compensates a failed upload: dropping the row cascades to
// its task rows, then the payload goes.
func (s *DocumentService) discardDocument(ctx context.Context, doc *model.Document) {
	logger := logutil.GetLogger(ctx)
	if err := s.documents.Delete(ctx, doc.ID); err != nil && !appErr.IsNotFound(err) {
		logger.Error("failed to roll back document row",
			zap.String("document_id", doc.ID), zap.Error(err))
	}
	s.discardPayload(ctx, doc.StoredKey)
}

func (s *DocumentService) discardPayload(ctx context.Context, storedKey string) {
	if err := s.payloads.Delete(ctx, storedKey); err != nil {
		logutil.GetLogger(ctx).Error("failed to roll back stored payload",
			zap.String("stored_key", storedKey), zap.Error(err))
	}
}

// parkUnqueued records an enqueue failure on both the task and the document
// so a re-ingestion that never reached the queue does not sit pending
// forever.
func (s *DocumentService) parkUnqueued(ctx context.Context, docID, taskID string, cause error) {
	logger := logutil.GetLogger(ctx)
	msg := cause.Error()
	if err := s.tasks.Finish(ctx, taskID, model.TaskStatusFailure, msg); err != nil {
		logger.Error("failed to park unqueued task",
			zap.String("task_id", taskID), zap.Error(err))
	}
	if err := s.documents.MarkTerminal(ctx, docID, model.DocStatusFailed, msg); err != nil {
		logger.Error("failed to park unqueued document",
			zap.String("document_id", docID), zap.Error(err))
	}
}

// sanitizeName flattens a user-supplied filename into something safe to use
// inside a stored key: path separators and control characters become
// underscores and overly long names are truncated.
func sanitizeName(filename string) string {
	var b strings.Builder
	runes := 0
	for _, r := range filename {
		if runes >= maxStoredNameChars {
			break
		}
		switch {
		case r == '/' || r == '\\' || unicode.IsControl(r) || unicode.IsSpace(r):
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
		runes++
	}
	name := strings.Trim(b.String(), "._")
	if name == "" {
		return "file"
	}
	return name
}
