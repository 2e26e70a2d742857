package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Jojo244-329/server-app/apperrors"
	aws_pkg "github.com/Jojo244-329/server-app/pkg/aws"
	"go.uber.org/zap"
)

// TaskRunner runs best-effort side effects off the response path.
type TaskRunner interface {
	Go(task string, fn func(ctx context.Context) error)
}

// MetricsRecorder records counter metrics. *aws_pkg.MetricsClient satisfies it.
type MetricsRecorder interface {
	RecordCount(ctx context.Context, metricName string, dimensions map[string]string) error
}

// DispatcherOptions configures a Dispatcher. Only Logger is required.
type DispatcherOptions struct {
	Logger     *zap.Logger
	Timeout    time.Duration
	DeadLetter aws_pkg.QueueSender
	DLQURL     string
	Metrics    MetricsRecorder
}

// Dispatcher runs each task in its own goroutine with its own deadline.
// A failing or panicking task is logged and dead-lettered; it never affects
// other tasks or the request that scheduled it.
type Dispatcher struct {
	logger     *zap.Logger
	timeout    time.Duration
	deadLetter aws_pkg.QueueSender
	dlqURL     string
	metrics    MetricsRecorder

	wg sync.WaitGroup
}

type deadLetterRecord struct {
	Task     string    `json:"task"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failedAt"`
}

func NewDispatcher(opts DispatcherOptions) *Dispatcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Dispatcher{
		logger:     opts.Logger,
		timeout:    opts.Timeout,
		deadLetter: opts.DeadLetter,
		dlqURL:     opts.DLQURL,
		metrics:    opts.Metrics,
	}
}

// Go schedules fn and returns immediately. fn receives a context detached
// from any request, bounded by the dispatcher timeout.
func (d *Dispatcher) Go(task string, fn func(ctx context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		start := time.Now()
		if err := runTask(ctx, fn); err != nil {
			d.fail(task, err)
			return
		}
		d.logger.Info("Side effect delivered",
			zap.String("task", task),
			zap.Duration("duration", time.Since(start)),
		)
	}()
}

// Wait blocks until every scheduled task has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Shutdown waits for in-flight tasks or gives up when ctx is done.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("dispatcher shutdown: %w", ctx.Err())
	}
}

func runTask(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}

func (d *Dispatcher) fail(task string, err error) {
	appErr := apperrors.SideEffect(task, err)
	d.logger.Warn("Side effect failed", zap.String("task", task), zap.Error(appErr))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if d.metrics != nil {
		if err := d.metrics.RecordCount(ctx, aws_pkg.MetricSideEffectFailed, map[string]string{"Task": task}); err != nil {
			d.logger.Debug("Failed to record metric",
				zap.String("metric", aws_pkg.MetricSideEffectFailed), zap.String("task", task), zap.Error(err))
		}
	}

	if d.deadLetter == nil || d.dlqURL == "" {
		return
	}
	body, _ := json.Marshal(deadLetterRecord{Task: task, Error: err.Error(), FailedAt: time.Now().UTC()})
	if dlqErr := d.deadLetter.SendMessage(ctx, d.dlqURL, string(body), map[string]string{"task": task}); dlqErr != nil {
		d.logger.Error("Failed to dead-letter side effect", zap.String("task", task), zap.Error(dlqErr))
	}
}
