package api

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrPoolTimeout is returned when no worker frees up within the acquire timeout.
	ErrPoolTimeout = errors.New("timeout waiting for an available worker")

	// ErrPoolClosed is returned by Acquire after Close.
	ErrPoolClosed = errors.New("worker pool is closed")
)

// WorkerPool bounds how many pipeline calls run at once.
type WorkerPool struct {
	slots   chan struct{}
	size    int
	timeout time.Duration

	mu     sync.Mutex
	closed bool

	metrics *poolMetrics
}

// PoolMetrics is a snapshot of pool activity.
type PoolMetrics struct {
	Size            int           `json:"pool_size"`
	InUse           int           `json:"workers_in_use"`
	TotalAcquired   int64         `json:"total_acquired"`
	TotalReleased   int64         `json:"total_released"`
	AcquireFailures int64         `json:"acquire_failures"`
	WaitTime        time.Duration `json:"wait_time_ns"`
}

type poolMetrics struct {
	mu sync.RWMutex
	PoolMetrics
}

// NewWorkerPool creates a pool of size workers. Acquire gives up after timeout.
// A size below 1 is raised to 1.
func NewWorkerPool(size int, timeout time.Duration) *WorkerPool {
	if size < 1 {
		size = 1
	}
	p := &WorkerPool{
		slots:   make(chan struct{}, size),
		size:    size,
		timeout: timeout,
		metrics: &poolMetrics{},
	}
	for i := 0; i < size; i++ {
		p.slots <- struct{}{}
	}
	return p
}

// Acquire blocks until a worker is free, the timeout elapses or ctx is done.
// Every successful Acquire must be paired with Release.
func (p *WorkerPool) Acquire(ctx context.Context) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return ErrPoolClosed
	}

	start := time.Now()
	defer func() {
		p.metrics.mu.Lock()
		p.metrics.WaitTime += time.Since(start)
		p.metrics.mu.Unlock()
	}()

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case <-p.slots:
		p.metrics.mu.Lock()
		p.metrics.InUse++
		p.metrics.TotalAcquired++
		p.metrics.mu.Unlock()
		return nil
	case <-timer.C:
		p.metrics.mu.Lock()
		p.metrics.AcquireFailures++
		p.metrics.mu.Unlock()
		return ErrPoolTimeout
	case <-ctx.Done():
		p.metrics.mu.Lock()
		p.metrics.AcquireFailures++
		p.metrics.mu.Unlock()
		return ctx.Err()
	}
}

// Release returns a worker to the pool.
func (p *WorkerPool) Release() {
	p.metrics.mu.Lock()
	p.metrics.InUse--
	p.metrics.TotalReleased++
	p.metrics.mu.Unlock()

	p.slots <- struct{}{}
}

// Do runs fn on a pooled worker.
func (p *WorkerPool) Do(ctx context.Context, fn func()) error {
	if err := p.Acquire(ctx); err != nil {
		return err
	}
	defer p.Release()
	fn()
	return nil
}

// Close makes further Acquire calls fail. Work already running is unaffected.
func (p *WorkerPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

// Metrics returns a snapshot of the pool counters.
func (p *WorkerPool) Metrics() PoolMetrics {
	p.metrics.mu.RLock()
	defer p.metrics.mu.RUnlock()
	m := p.metrics.PoolMetrics
	m.Size = p.size
	return m
}
