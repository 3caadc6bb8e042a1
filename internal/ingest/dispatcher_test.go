package ingest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	appErr "github.com/mallikj2/genai-file-search/internal/pkg/errors"
)

type recordingRunner struct {
	mu   sync.Mutex
	seen []string
	done chan struct{}
}

func newRecordingRunner() *recordingRunner {
	return &recordingRunner{done: make(chan struct{}, 16)}
}

func (r *recordingRunner) Run(ctx context.Context, taskID string) error {
	r.mu.Lock()
	r.seen = append(r.seen, taskID)
	r.mu.Unlock()
	r.done <- struct{}{}
	return nil
}

func (r *recordingRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}

// gatedRunner blocks inside Run until released, to hold a worker busy.
type gatedRunner struct {
	started chan string
	release chan struct{}
}

func newGatedRunner() *gatedRunner {
	return &gatedRunner{started: make(chan string, 16), release: make(chan struct{})}
}

func (g *gatedRunner) Run(ctx context.Context, taskID string) error {
	g.started <- taskID
	select {
	case <-g.release:
	case <-ctx.Done():
	}
	return nil
}

func TestDispatcherRunsEnqueuedTasks(t *testing.T) {
	runner := newRecordingRunner()
	d := NewDispatcher(runner, 2, 8)
	d.Start(context.Background())
	defer d.Stop()

	require.NoError(t, d.Enqueue("a"))
	require.NoError(t, d.Enqueue("b"))
	require.NoError(t, d.Enqueue("c"))
	for i := 0; i < 3; i++ {
		select {
		case <-runner.done:
		case <-time.After(2 * time.Second):
			t.Fatal("worker pool did not drain the queue")
		}
	}
	require.Equal(t, 3, runner.count())
}

func TestDispatcherRejectsWhenSaturated(t *testing.T) {
	runner := newGatedRunner()
	d := NewDispatcher(runner, 1, 1)
	d.Start(context.Background())
	defer d.Stop()

	require.NoError(t, d.Enqueue("busy"))
	select {
	case <-runner.started:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never picked up the first task")
	}
	require.NoError(t, d.Enqueue("waiting"), "one slot in the channel must still be free")
	err := d.Enqueue("overflow")
	require.ErrorIs(t, err, appErr.ErrTooMany)
	close(runner.release)
}

func TestDispatcherEnqueueAfterStop(t *testing.T) {
	runner := newRecordingRunner()
	d := NewDispatcher(runner, 1, 4)
	d.Start(context.Background())
	d.Stop()
	d.Stop() // idempotent

	require.Error(t, d.Enqueue("late"))
}

func TestDispatcherStopCancelsInflight(t *testing.T) {
	runner := newGatedRunner()
	d := NewDispatcher(runner, 1, 4)
	d.Start(context.Background())

	require.NoError(t, d.Enqueue("inflight"))
	select {
	case <-runner.started:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never picked up the task")
	}

	stopped := make(chan struct{})
	go func() {
		d.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop must cancel in-flight work instead of hanging")
	}
}
