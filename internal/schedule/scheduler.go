// Package schedule runs background maintenance jobs on cron specs.
package schedule

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type Scheduler interface {
	AddJob(job Job, spec string) error
	RunNow(ctx context.Context, name string) error
	Start(ctx context.Context)
	Stop()
}

type entry struct {
	job     Job
	spec    string
	id      cron.EntryID
	running atomic.Bool
}

// CronScheduler never runs two instances of the same job at once: a tick
// that fires while the previous run is in flight is skipped.
type CronScheduler struct {
	cron    *cron.Cron
	entries map[string]*entry
	ctx     context.Context
}

func NewCronScheduler() *CronScheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &CronScheduler{
		cron:    cron.New(cron.WithParser(parser)),
		entries: make(map[string]*entry),
	}
}

func (c *CronScheduler) AddJob(job Job, spec string) error {
	name := job.Name()
	logger := logutil.GetLogger(context.Background()).With(zap.String("job", name), zap.String("spec", spec))
	if _, ok := c.entries[name]; ok {
		return fmt.Errorf("job %s already scheduled", name)
	}
	e := &entry{job: job, spec: spec}
	id, err := c.cron.AddFunc(spec, func() {
		ctx := c.ctx
		if ctx == nil {
			ctx = context.Background()
		}
		_ = c.run(ctx, e)
	})
	if err != nil {
		logger.Error("schedule job failed", zap.Error(err))
		return err
	}
	e.id = id
	c.entries[name] = e
	logger.Info("job scheduled")
	return nil
}

// RunNow runs a scheduled job synchronously, outside its cron spec.
func (c *CronScheduler) RunNow(ctx context.Context, name string) error {
	e, ok := c.entries[name]
	if !ok {
		return fmt.Errorf("job %s not scheduled", name)
	}
	return c.run(ctx, e)
}

func (c *CronScheduler) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	c.ctx = ctx
	c.cron.Start()
}

func (c *CronScheduler) Stop() {
	ctx := c.cron.Stop()
	<-ctx.Done()
}

func (c *CronScheduler) run(ctx context.Context, e *entry) error {
	logger := logutil.GetLogger(ctx).With(
		zap.String("job", e.job.Name()),
		zap.String("spec", e.spec),
	)
	if !e.running.CompareAndSwap(false, true) {
		logger.Info("job skipped: still running")
		return nil
	}
	defer e.running.Store(false)

	start := time.Now()
	logger.Info("job started")
	err := e.job.Run(ctx)
	elapsed := time.Since(start)
	if err != nil {
		logger.Error("job finished", zap.Error(err), zap.Duration("duration", elapsed))
		return err
	}
	logger.Info("job finished", zap.Duration("duration", elapsed))
	return nil
}
