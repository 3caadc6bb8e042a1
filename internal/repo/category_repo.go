package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/mallikj2/genai-file-search/internal/model"
	"github.com/mallikj2/genai-file-search/internal/pkg/dbutil"
	appErr "github.com/mallikj2/genai-file-search/internal/pkg/errors"
)

type CategoryRepo struct {
	db *sql.DB
}

func NewCategoryRepo(db *sql.DB) *CategoryRepo {
	return &CategoryRepo{db: db}
}

func (r *CategoryRepo) Create(ctx context.Context, category *model.Category) error {
	data := map[string]interface{}{
		"id":          category.ID,
		"name":        category.Name,
		"description": category.Description,
		"ctime":       category.Ctime,
		"mtime":       category.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("categories", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *CategoryRepo) GetByID(ctx context.Context, categoryID string) (*model.Category, error) {
	sqlStr, args, err := builder.BuildSelect("categories", map[string]interface{}{"id": categoryID}, []string{
		"id", "name", "description", "ctime", "mtime",
	})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	return scanCategory(rows)
}

func (r *CategoryRepo) List(ctx context.Context) ([]model.Category, error) {
	sqlStr, args, err := builder.BuildSelect("categories", map[string]interface{}{"_orderby": "ctime asc"}, []string{
		"id", "name", "description", "ctime", "mtime",
	})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.Category, 0)
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *category)
	}
	return items, rows.Err()
}

func (r *CategoryRepo) Delete(ctx context.Context, categoryID string) error {
	sqlStr, args, err := builder.BuildDelete("categories", map[string]interface{}{"id": categoryID})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func scanCategory(rows *sql.Rows) (*model.Category, error) {
	var category model.Category
	if err := rows.Scan(&category.ID, &category.Name, &category.Description, &category.Ctime, &category.Mtime); err != nil {
		return nil, err
	}
	return &category, nil
}
