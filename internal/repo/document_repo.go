package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/mallikj2/genai-file-search/internal/model"
	"github.com/mallikj2/genai-file-search/internal/pkg/dbutil"
	appErr "github.com/mallikj2/genai-file-search/internal/pkg/errors"
	"github.com/mallikj2/genai-file-search/internal/pkg/timeutil"
)

var documentFields = []string{
	"id", "category_id", "name", "stored_key", "format", "size_bytes",
	"status", "error", "total_chunks", "ctime", "mtime",
}

// DocumentCounts aggregates per-category document counters.
type DocumentCounts struct {
	Total   int
	Indexed int
}

type DocumentRepo struct {
	db *sql.DB
}

func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

func (r *DocumentRepo) Create(ctx context.Context, doc *model.Document) error {
	data := map[string]interface{}{
		"id":           doc.ID,
		"category_id":  doc.CategoryID,
		"name":         doc.Name,
		"stored_key":   doc.StoredKey,
		"format":       doc.Format,
		"size_bytes":   doc.SizeBytes,
		"status":       doc.Status,
		"error":        doc.Error,
		"total_chunks": doc.TotalChunks,
		"ctime":        doc.Ctime,
		"mtime":        doc.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("documents", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		if dbutil.IsForeignKeyViolation(err) {
			return appErr.ErrCategoryNotFound
		}
		return err
	}
	return nil
}

func (r *DocumentRepo) GetByID(ctx context.Context, docID string) (*model.Document, error) {
	sqlStr, args, err := builder.BuildSelect("documents", map[string]interface{}{"id": docID}, documentFields)
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
	return scanDocument(rows)
}

// List returns documents newest first, optionally filtered by category.
// limit == 0 means no paging.
func (r *DocumentRepo) List(ctx context.Context, categoryID string, limit, offset uint) ([]model.Document, error) {
	where := map[string]interface{}{
		"_orderby": "ctime desc",
	}
	if categoryID != "" {
		where["category_id"] = categoryID
	}
	if limit > 0 {
		where["_limit"] = []uint{offset, limit}
	}
	sqlStr, args, err := builder.BuildSelect("documents", where, documentFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *doc)
	}
	return items, rows.Err()
}

// Transition moves a document from one status to the next. The update is a
// compare-and-set on the current status, so a concurrent delete or a
// competing worker surfaces as ErrConflict instead of silently winning.
func (r *DocumentRepo) Transition(ctx context.Context, docID string, from, to string) error {
	where := map[string]interface{}{
		"id":     docID,
		"status": from,
	}
	update := map[string]interface{}{
		"status": to,
		"mtime":  timeutil.NowUnix(),
	}
	sqlStr, args, err := builder.BuildUpdate("documents", where, update)
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
		return appErr.ErrConflict
	}
	return nil
}

// MarkIndexed records a successful ingestion run.
func (r *DocumentRepo) MarkIndexed(ctx context.Context, docID string, totalChunks int) error {
	where := map[string]interface{}{
		"id":     docID,
		"status": model.DocStatusEmbedding,
	}
	update := map[string]interface{}{
		"status":       model.DocStatusIndexed,
		"error":        "",
		"total_chunks": totalChunks,
		"mtime":        timeutil.NowUnix(),
	}
	sqlStr, args, err := builder.BuildUpdate("documents", where, update)
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
		return appErr.ErrConflict
	}
	return nil
}

// MarkTerminal force-moves a non-terminal document to failed or cancelled,
// keeping the error text verbatim for operators.
func (r *DocumentRepo) MarkTerminal(ctx context.Context, docID string, status, errMsg string) error {
	sqlStr := `
		UPDATE documents
		SET status = ?, error = ?, mtime = ?
		WHERE id = ? AND status NOT IN (?, ?, ?)
	`
	args := []interface{}{
		status, errMsg, timeutil.NowUnix(),
		docID, model.DocStatusIndexed, model.DocStatusFailed, model.DocStatusCancelled,
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
		return appErr.ErrConflict
	}
	return nil
}

// ResetPending rewinds a terminal document back to pending for re-ingestion.
// Documents still being processed are left alone.
func (r *DocumentRepo) ResetPending(ctx context.Context, docID string) error {
	sqlStr := `
		UPDATE documents
		SET status = ?, error = '', total_chunks = 0, mtime = ?
		WHERE id = ? AND status IN (?, ?, ?)
	`
	args := []interface{}{
		model.DocStatusPending, timeutil.NowUnix(),
		docID, model.DocStatusIndexed, model.DocStatusFailed, model.DocStatusCancelled,
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
		return appErr.ErrConflict
	}
	return nil
}

func (r *DocumentRepo) Delete(ctx context.Context, docID string) error {
	sqlStr, args, err := builder.BuildDelete("documents", map[string]interface{}{"id": docID})
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

// CountByCategory returns total and indexed document counts keyed by
// category id. Categories without documents are absent from the map.
func (r *DocumentRepo) CountByCategory(ctx context.Context) (map[string]DocumentCounts, error) {
	sqlStr := `
		SELECT category_id,
		       COUNT(*),
		       COUNT(*) FILTER (WHERE status = ?)
		FROM documents
		GROUP BY category_id
	`
	args := []interface{}{model.DocStatusIndexed}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[string]DocumentCounts)
	for rows.Next() {
		var categoryID string
		var item DocumentCounts
		if err := rows.Scan(&categoryID, &item.Total, &item.Indexed); err != nil {
			return nil, err
		}
		counts[categoryID] = item
	}
	return counts, rows.Err()
}

func scanDocument(rows *sql.Rows) (*model.Document, error) {
	var doc model.Document
	if err := rows.Scan(&doc.ID, &doc.CategoryID, &doc.Name, &doc.StoredKey, &doc.Format, &doc.SizeBytes,
		&doc.Status, &doc.Error, &doc.TotalChunks, &doc.Ctime, &doc.Mtime); err != nil {
		return nil, err
	}
	return &doc, nil
}
