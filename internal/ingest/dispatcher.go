package ingest

import (
	"context"
	"fmt"
	"sync"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appErr "github.com/mallikj2/genai-file-search/internal/pkg/errors"
)

// Runner is what a worker executes per task. *Pipeline implements it.
type Runner interface {
	Run(ctx context.Context, taskID string) error
}

// Dispatcher fans queued task ids out to a fixed pool of workers over a
// bounded channel. A full channel rejects immediately instead of blocking
// the upload request; callers compensate and surface ErrTooMany.
type Dispatcher struct {
	runner  Runner
	queue   chan string
	workers int

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewDispatcher(runner Runner, workers, queueSize int) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Dispatcher{
		runner:  runner,
		queue:   make(chan string, queueSize),
		workers: workers,
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return
	}
	workerCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.running = true
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work(workerCtx, i)
	}
	logutil.GetLogger(ctx).Info("ingest dispatcher started",
		zap.Int("workers", d.workers), zap.Int("queue_size", cap(d.queue)))
}

// Enqueue hands a task id to the pool without blocking. ErrTooMany means the
// queue is saturated and the task was not accepted.
func (d *Dispatcher) Enqueue(taskID string) error {
	d.mu.Lock()
	running := d.running
	d.mu.Unlock()
	if !running {
		return fmt.Errorf("%w: dispatcher not running", appErr.ErrInternal)
	}
	select {
	case d.queue <- taskID:
		return nil
	default:
		return fmt.Errorf("%w: ingest queue full", appErr.ErrTooMany)
	}
}

// Stop cancels the worker context and waits for the pool to drain. In-flight
// tasks observe the cancellation at their next stage boundary and park as
// cancelled; ids still sitting in the channel stay queued in the database
// and are recovered on the next start.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	cancel := d.cancel
	d.mu.Unlock()
	cancel()
	d.wg.Wait()
}

func (d *Dispatcher) work(ctx context.Context, worker int) {
	defer d.wg.Done()
	logger := logutil.GetLogger(ctx).With(zap.Int("worker", worker))
	for {
		select {
		case <-ctx.Done():
			return
		case taskID := <-d.queue:
			if err := d.runner.Run(ctx, taskID); err != nil {
				logger.Error("task run failed", zap.String("task_id", taskID), zap.Error(err))
			}
		}
	}
}
