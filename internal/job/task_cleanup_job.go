package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/mallikj2/genai-file-search/internal/repo"
)

// TaskCleanupJob prunes finished task rows. Documents keep their own status
// and error, so old task rows carry no information worth the table growth.
type TaskCleanupJob struct {
	tasks         *repo.TaskRepo
	retentionDays int
}

func NewTaskCleanupJob(tasks *repo.TaskRepo, retentionDays int) *TaskCleanupJob {
	return &TaskCleanupJob{tasks: tasks, retentionDays: retentionDays}
}

func (j *TaskCleanupJob) Name() string {
	return "task_cleanup"
}

func (j *TaskCleanupJob) Run(ctx context.Context) error {
	if j.tasks == nil {
		return nil
	}
	retentionDays := j.retentionDays
	if retentionDays <= 0 {
		retentionDays = 7
	}
	cutoff := time.Now().Add(-time.Duration(retentionDays) * 24 * time.Hour).Unix()
	deleted, err := j.tasks.DeleteTerminalBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if deleted > 0 {
		logutil.GetLogger(ctx).Info("pruned finished tasks", zap.Int64("count", deleted))
	}
	return nil
}
