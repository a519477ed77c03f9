package service

import (
	"coder_edu_progress/pkg/logger"
	"coder_edu_progress/pkg/monitoring"
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job 是一个后台副作用。ctx 与触发请求无关，带独立超时。
type Job func(ctx context.Context) error

type namedJob struct {
	name string
	fn   Job
}

// Dispatcher 是固定大小的后台工作池，用于成就评估与证书签发。
// 队列满时新开 goroutine 执行，任务不会被丢弃。
type Dispatcher struct {
	jobs    chan namedJob
	timeout time.Duration

	mu      sync.RWMutex
	closed  bool
	pending sync.WaitGroup
	workers sync.WaitGroup
}

func NewDispatcher(workers, queueSize int, timeout time.Duration) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}

	d := &Dispatcher{
		jobs:    make(chan namedJob, queueSize),
		timeout: timeout,
	}
	for i := 0; i < workers; i++ {
		d.workers.Add(1)
		go d.worker()
	}
	return d
}

func (d *Dispatcher) worker() {
	defer d.workers.Done()
	for job := range d.jobs {
		d.run(job)
	}
}

// Submit 提交任务；关闭后返回 false
func (d *Dispatcher) Submit(name string, fn Job) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		logger.Log.Warn("dispatcher closed, job rejected", zap.String("job", name))
		return false
	}

	d.pending.Add(1)
	job := namedJob{name: name, fn: fn}
	select {
	case d.jobs <- job:
	default:
		go d.run(job)
	}
	return true
}

func (d *Dispatcher) run(job namedJob) {
	defer d.pending.Done()

	ctx := context.Background()
	cancel := func() {}
	if d.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
	}
	defer cancel()

	start := time.Now()
	err := d.safeCall(ctx, job)
	monitoring.SideEffectDuration.WithLabelValues(job.name).Observe(time.Since(start).Seconds())

	if err != nil {
		monitoring.SideEffectFailures.WithLabelValues(job.name).Inc()
		logger.Log.Error("background job failed", zap.String("job", job.name), zap.Error(err))
	}
}

func (d *Dispatcher) safeCall(ctx context.Context, job namedJob) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in job %s: %v", job.name, r)
		}
	}()
	return job.fn(ctx)
}

// Wait 阻塞到当前已提交的任务全部完成
func (d *Dispatcher) Wait() {
	d.pending.Wait()
}

// Close 停止接收新任务并等待队列排空；ctx 到期时提前返回
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.workers.Wait()
		d.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
