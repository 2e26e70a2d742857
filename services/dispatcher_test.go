package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	aws_pkg "github.com/Jojo244-329/server-app/pkg/aws"
	"github.com/Jojo244-329/server-app/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDispatcher_RunsTasksIndependently(t *testing.T) {
	metrics := newMockMetrics()
	queue := &mockQueue{}
	d := services.NewDispatcher(services.DispatcherOptions{
		Logger:     zap.NewNop(),
		Timeout:    time.Second,
		DeadLetter: queue,
		DLQURL:     "https://sqs.local/dlq",
		Metrics:    metrics,
	})

	var ran int32
	d.Go("fails", func(ctx context.Context) error { return errors.New("upstream down") })
	d.Go("panics", func(ctx context.Context) error { panic("boom") })
	d.Go("works", func(ctx context.Context) error {
		atomic.AddInt32(&ran, 1)
		return nil
	})
	d.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&ran))
	assert.Equal(t, 2, metrics.count(aws_pkg.MetricSideEffectFailed))
	require.Len(t, queue.bodies, 2)
	assert.Equal(t, "https://sqs.local/dlq", queue.queueURL)

	tasks := map[string]string{}
	for _, b := range queue.bodies {
		var rec map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(b), &rec))
		tasks[rec["task"].(string)] = rec["error"].(string)
		assert.NotEmpty(t, rec["failedAt"])
	}
	assert.Equal(t, "upstream down", tasks["fails"])
	assert.Contains(t, tasks["panics"], "boom")
}

func TestDispatcher_LogsMetricFailures(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	metrics := newMockMetrics()
	metrics.err = errors.New("throttled")
	d := services.NewDispatcher(services.DispatcherOptions{
		Logger:  zap.New(core),
		Timeout: time.Second,
		Metrics: metrics,
	})

	d.Go("purchase_event", func(ctx context.Context) error { return errors.New("upstream down") })
	d.Wait()

	assert.Equal(t, 1, metrics.count(aws_pkg.MetricSideEffectFailed))
	entries := logs.FilterMessage("Failed to record metric").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, aws_pkg.MetricSideEffectFailed, fields["metric"])
	assert.Equal(t, "purchase_event", fields["task"])
	assert.Equal(t, "throttled", fields["error"])
}

func TestDispatcher_TaskContextHasDeadline(t *testing.T) {
	d := services.NewDispatcher(services.DispatcherOptions{Timeout: time.Second})

	var ctxErr atomic.Value
	d.Go("detached", func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			ctxErr.Store(err)
		}
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return nil
	})
	d.Wait()

	assert.Nil(t, ctxErr.Load())
}

func TestDispatcher_TimeoutBoundsTask(t *testing.T) {
	queue := &mockQueue{}
	d := services.NewDispatcher(services.DispatcherOptions{
		Timeout:    20 * time.Millisecond,
		DeadLetter: queue,
		DLQURL:     "dlq",
	})

	d.Go("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	d.Wait()

	require.Len(t, queue.bodies, 1)
	assert.Contains(t, queue.bodies[0], "deadline exceeded")
}

func TestDispatcher_NoDeadLetterWithoutURL(t *testing.T) {
	queue := &mockQueue{}
	d := services.NewDispatcher(services.DispatcherOptions{DeadLetter: queue})

	d.Go("fails", func(ctx context.Context) error { return errors.New("x") })
	d.Wait()

	assert.Empty(t, queue.bodies)
}

func TestDispatcher_ShutdownHonoursContext(t *testing.T) {
	d := services.NewDispatcher(services.DispatcherOptions{Timeout: time.Second})

	release := make(chan struct{})
	d.Go("blocked", func(ctx context.Context) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, d.Shutdown(ctx))

	close(release)
	assert.NoError(t, d.Shutdown(context.Background()))
}
