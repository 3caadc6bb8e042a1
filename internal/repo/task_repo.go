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

var taskFields = []string{
	"id", "document_id", "status", "error", "cancel_requested", "ctime", "mtime",
}

type TaskRepo struct {
	db *sql.DB
}

func NewTaskRepo(db *sql.DB) *TaskRepo {
	return &TaskRepo{db: db}
}

func (r *TaskRepo) Create(ctx context.Context, task *model.Task) error {
	data := map[string]interface{}{
		"id":               task.ID,
		"document_id":      task.DocumentID,
		"status":           task.Status,
		"error":            task.Error,
		"cancel_requested": task.CancelRequested,
		"ctime":            task.Ctime,
		"mtime":            task.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("tasks", []map[string]interface{}{data})
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
			return appErr.ErrNotFound
		}
		return err
	}
	return nil
}

func (r *TaskRepo) GetByID(ctx context.Context, taskID string) (*model.Task, error) {
	sqlStr, args, err := builder.BuildSelect("tasks", map[string]interface{}{"id": taskID}, taskFields)
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
	return scanTask(rows)
}

// LatestByDocument returns the most recent task spawned for a document.
func (r *TaskRepo) LatestByDocument(ctx context.Context, docID string) (*model.Task, error) {
	where := map[string]interface{}{
		"document_id": docID,
		"_orderby":    "ctime desc",
		"_limit":      []uint{0, 1},
	}
	sqlStr, args, err := builder.BuildSelect("tasks", where, taskFields)
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
	return scanTask(rows)
}

// MarkRunning claims a queued task for a worker. A second worker claiming
// the same task loses the compare-and-set and gets ErrConflict.
func (r *TaskRepo) MarkRunning(ctx context.Context, taskID string) error {
	where := map[string]interface{}{
		"id":     taskID,
		"status": model.TaskStatusQueued,
	}
	update := map[string]interface{}{
		"status": model.TaskStatusRunning,
		"mtime":  timeutil.NowUnix(),
	}
	sqlStr, args, err := builder.BuildUpdate("tasks", where, update)
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

// Finish moves a live task to success or failure.
func (r *TaskRepo) Finish(ctx context.Context, taskID string, status, errMsg string) error {
	sqlStr := `
		UPDATE tasks
		SET status = ?, error = ?, mtime = ?
		WHERE id = ? AND status IN (?, ?)
	`
	args := []interface{}{
		status, errMsg, timeutil.NowUnix(),
		taskID, model.TaskStatusQueued, model.TaskStatusRunning,
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

// RequestCancel flags a live task so the pipeline stops at the next stage
// boundary. Terminal tasks cannot be cancelled.
func (r *TaskRepo) RequestCancel(ctx context.Context, taskID string) error {
	sqlStr := `
		UPDATE tasks
		SET cancel_requested = 1, mtime = ?
		WHERE id = ? AND status IN (?, ?)
	`
	args := []interface{}{
		timeutil.NowUnix(),
		taskID, model.TaskStatusQueued, model.TaskStatusRunning,
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

func (r *TaskRepo) CancelRequested(ctx context.Context, taskID string) (bool, error) {
	sqlStr, args := dbutil.Finalize("SELECT cancel_requested FROM tasks WHERE id = ?", []interface{}{taskID})
	var flag int
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&flag); err != nil {
		if err == sql.ErrNoRows {
			return false, appErr.ErrNotFound
		}
		return false, err
	}
	return flag != 0, nil
}

// Touch bumps the mtime of a still-queued task so the requeue job does not
// pick it up again right away.
func (r *TaskRepo) Touch(ctx context.Context, taskID string) error {
	sqlStr, args := dbutil.Finalize(
		"UPDATE tasks SET mtime = ? WHERE id = ? AND status = ?",
		[]interface{}{timeutil.NowUnix(), taskID, model.TaskStatusQueued},
	)
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// ListQueuedBefore returns queued tasks whose mtime is older than the cutoff,
// oldest first. These are tasks the in-memory queue lost, typically across a
// restart.
func (r *TaskRepo) ListQueuedBefore(ctx context.Context, cutoff int64, limit uint) ([]model.Task, error) {
	where := map[string]interface{}{
		"status":   model.TaskStatusQueued,
		"mtime <":  cutoff,
		"_orderby": "mtime asc",
	}
	if limit > 0 {
		where["_limit"] = []uint{0, limit}
	}
	sqlStr, args, err := builder.BuildSelect("tasks", where, taskFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *task)
	}
	return items, rows.Err()
}

// DeleteTerminalBefore removes finished tasks older than the cutoff and
// reports how many rows went away.
func (r *TaskRepo) DeleteTerminalBefore(ctx context.Context, cutoff int64) (int64, error) {
	sqlStr := `DELETE FROM tasks WHERE status IN (?, ?) AND mtime < ?`
	args := []interface{}{model.TaskStatusSuccess, model.TaskStatusFailure, cutoff}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanTask(rows *sql.Rows) (*model.Task, error) {
	var task model.Task
	if err := rows.Scan(&task.ID, &task.DocumentID, &task.Status, &task.Error, &task.CancelRequested,
		&task.Ctime, &task.Mtime); err != nil {
		return nil, err
	}
	return &task, nil
}
