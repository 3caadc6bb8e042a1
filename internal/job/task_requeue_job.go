package job

import (
	"context"
	"errors"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appErr "github.com/mallikj2/genai-file-search/internal/pkg/errors"
	"github.com/mallikj2/genai-file-search/internal/pkg/timeutil"
	"github.com/mallikj2/genai-file-search/internal/repo"
)

// Enqueuer is the slice of the ingest dispatcher the requeue job needs.
type Enqueuer interface {
	Enqueue(taskID string) error
}

// TaskRequeueJob feeds queued task rows back into the in-memory queue. The
// queue does not survive a restart; the rows do. Recover runs once at
// startup for everything still queued, Run sweeps periodically for tasks
// whose mtime went stale, which catches ids that were lost with the channel.
type TaskRequeueJob struct {
	tasks  *repo.TaskRepo
	queue  Enqueuer
	maxAge time.Duration
	batch  uint
}

func NewTaskRequeueJob(tasks *repo.TaskRepo, queue Enqueuer, maxAge time.Duration, batch uint) *TaskRequeueJob {
	if maxAge <= 0 {
		maxAge = 10 * time.Minute
	}
	if batch == 0 {
		batch = 256
	}
	return &TaskRequeueJob{tasks: tasks, queue: queue, maxAge: maxAge, batch: batch}
}

func (j *TaskRequeueJob) Name() string {
	return "task_requeue"
}

// Recover requeues queued tasks regardless of age. One batch only; anything
// beyond it ages into the periodic sweep.
func (j *TaskRequeueJob) Recover(ctx context.Context) error {
	return j.requeueBefore(ctx, timeutil.NowUnix()+1)
}

func (j *TaskRequeueJob) Run(ctx context.Context) error {
	return j.requeueBefore(ctx, time.Now().Add(-j.maxAge).Unix())
}

func (j *TaskRequeueJob) requeueBefore(ctx context.Context, cutoff int64) error {
	if j.tasks == nil || j.queue == nil {
		return nil
	}
	logger := logutil.GetLogger(ctx)
	tasks, err := j.tasks.ListQueuedBefore(ctx, cutoff, j.batch)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		return nil
	}
	requeued := 0
	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := j.queue.Enqueue(task.ID); err != nil {
			// A full queue is backpressure, not a failure; the rest of the
			// batch stays queued for the next sweep.
			if errors.Is(err, appErr.ErrTooMany) {
				logger.Info("requeue stopped on a full queue",
					zap.Int("requeued", requeued),
					zap.Int("remaining", len(tasks)-requeued))
				return nil
			}
			return err
		}
		// The mtime bump keeps the next sweep from double-queueing a task
		// that is already back in the channel.
		if err := j.tasks.Touch(ctx, task.ID); err != nil {
			logger.Warn("failed to touch requeued task",
				zap.String("task_id", task.ID), zap.Error(err))
		}
		requeued++
	}
	logger.Info("requeued stale tasks", zap.Int("count", requeued))
	return nil
}
