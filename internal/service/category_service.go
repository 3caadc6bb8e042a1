package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/mallikj2/genai-file-search/internal/filestore"
	"github.com/mallikj2/genai-file-search/internal/model"
	appErr "github.com/mallikj2/genai-file-search/internal/pkg/errors"
	"github.com/mallikj2/genai-file-search/internal/pkg/timeutil"
	"github.com/mallikj2/genai-file-search/internal/repo"
	"github.com/mallikj2/genai-file-search/internal/vecstore"
)

const (
	maxCategoryNameChars        = 100
	maxCategoryDescriptionChars = 500
)

type CategoryService struct {
	categories *repo.CategoryRepo
	documents  *repo.DocumentRepo
	index      vecstore.Store
	payloads   filestore.Store
}

func NewCategoryService(categories *repo.CategoryRepo, documents *repo.DocumentRepo, index vecstore.Store, payloads filestore.Store) *CategoryService {
	return &CategoryService{categories: categories, documents: documents, index: index, payloads: payloads}
}

func (s *CategoryService) Create(ctx context.Context, name, description string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, appErr.ErrInvalid
	}
	if utf8.RuneCountInString(name) > maxCategoryNameChars {
		return nil, appErr.ErrInvalid
	}
	description = strings.TrimSpace(description)
	if utf8.RuneCountInString(description) > maxCategoryDescriptionChars {
		return nil, appErr.ErrInvalid
	}
	now := timeutil.NowUnix()
	category := &model.Category{
		ID:          newID(),
		Name:        name,
		Description: description,
		Ctime:       now,
		Mtime:       now,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CategoryService) Get(ctx context.Context, categoryID string) (*model.CategoryStats, error) {
	category, err := s.categories.GetByID(ctx, categoryID)
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil, appErr.ErrCategoryNotFound
		}
		return nil, err
	}
	counts, err := s.documents.CountByCategory(ctx)
	if err != nil {
		return nil, err
	}
	return statsFor(category, counts), nil
}

func (s *CategoryService) List(ctx context.Context) ([]model.CategoryStats, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.documents.CountByCategory(ctx)
	if err != nil {
		return nil, err
	}
	stats := make([]model.CategoryStats, 0, len(categories))
	for i := range categories {
		stats = append(stats, *statsFor(&categories[i], counts))
	}
	return stats, nil
}

// Delete removes the category, its vector collection, every document and
// task row under it, and the stored payloads. The vector collection goes
// first so a partial failure never leaves searchable chunks behind a
// missing category; payload deletion is best effort because the rows that
// reference the keys are already gone.
func (s *CategoryService) Delete(ctx context.Context, categoryID string) error {
	if _, err := s.categories.GetByID(ctx, categoryID); err != nil {
		if appErr.IsNotFound(err) {
			return appErr.ErrCategoryNotFound
		}
		return err
	}
	docs, err := s.documents.List(ctx, categoryID, 0, 0)
	if err != nil {
		return err
	}
	if err := s.index.DropCollection(ctx, categoryID); err != nil {
		return err
	}
	if err := s.categories.Delete(ctx, categoryID); err != nil {
		if appErr.IsNotFound(err) {
			return appErr.ErrCategoryNotFound
		}
		return err
	}
	logger := logutil.GetLogger(ctx)
	for _, doc := range docs {
		if err := s.payloads.Delete(ctx, doc.StoredKey); err != nil {
			logger.Warn("failed to delete stored payload",
				zap.String("category_id", categoryID),
				zap.String("document_id", doc.ID),
				zap.String("stored_key", doc.StoredKey),
				zap.Error(err))
		}
	}
	logger.Info("category deleted",
		zap.String("category_id", categoryID),
		zap.Int("documents", len(docs)))
	return nil
}

func statsFor(category *model.Category, counts map[string]repo.DocumentCounts) *model.CategoryStats {
	c := counts[category.ID]
	return &model.CategoryStats{
		Category:      *category,
		DocumentCount: c.Total,
		IndexedCount:  c.Indexed,
	}
}
