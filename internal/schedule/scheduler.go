package schedule

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// Job is a unit of background maintenance the scheduler drives on a cron
// spec. Run must honor ctx cancellation; the scheduler passes the server's
// root context so jobs stop with the process.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// CronScheduler runs jobs on five-field cron specs. A job whose previous
// run is still in flight when the next tick fires is skipped, not queued,
// so a slow sweep never stacks up behind itself.
type CronScheduler struct {
	cron *cron.Cron
	ctx  context.Context
}

func NewCronScheduler() *CronScheduler {
	return &CronScheduler{
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cronLogger{}),
		)),
	}
}

func (c *CronScheduler) AddJob(job Job, spec string) error {
	logger := logutil.GetLogger(context.Background()).With(
		zap.String("job", job.Name()), zap.String("spec", spec))
	if _, err := c.cron.AddJob(spec, &timedRun{sched: c, job: job}); err != nil {
		logger.Error("schedule job failed", zap.Error(err))
		return err
	}
	logger.Info("job scheduled")
	return nil
}

func (c *CronScheduler) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	c.ctx = ctx
	c.cron.Start()
}

// Stop halts the ticker and waits for in-flight runs to return.
func (c *CronScheduler) Stop() {
	done := c.cron.Stop()
	<-done.Done()
}

// timedRun adapts a Job to cron.Job and wraps each run with timing and
// outcome logging.
type timedRun struct {
	sched *CronScheduler
	job   Job
}

func (t *timedRun) Run() {
	ctx := t.sched.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logutil.GetLogger(ctx).With(zap.String("job", t.job.Name()))
	start := time.Now()
	logger.Info("job started")
	if err := t.job.Run(ctx); err != nil {
		logger.Error("job finished", zap.Duration("cost", time.Since(start)), zap.Error(err))
		return
	}
	logger.Info("job finished", zap.Duration("cost", time.Since(start)))
}

// cronLogger feeds the cron library's own messages (tick skips, recovered
// panics) into the process logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logutil.GetLogger(context.Background()).Sugar().Infow(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logutil.GetLogger(context.Background()).Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
