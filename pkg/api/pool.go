package api

import (
	"context"
	"sync/atomic"
	"time"
)

// WorkerPool limits concurrent work. Short requests (roll, move, query)
// and long-lived streams (SSE, WebSocket) have separate budgets so that
// watchers cannot starve players.
type WorkerPool struct {
	requestSem    chan struct{}
	streamSem     chan struct{}
	queuedRequest int64
	activeRequest int64
	activeStream  int64
	totalRequest  int64
	totalStream   int64
	rejected      int64
}

// PoolConfig configures the worker pool.
type PoolConfig struct {
	MaxRequests int // concurrent short requests (default 100)
	MaxStreams  int // concurrent event streams (default 64)
}

// DefaultPoolConfig returns a PoolConfig with sensible defaults.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxRequests: 100,
		MaxStreams:  64,
	}
}

// NewWorkerPool creates a new worker pool with the given configuration.
func NewWorkerPool(config PoolConfig) *WorkerPool {
	if config.MaxRequests <= 0 {
		config.MaxRequests = 100
	}
	if config.MaxStreams <= 0 {
		config.MaxStreams = 64
	}
	return &WorkerPool{
		requestSem: make(chan struct{}, config.MaxRequests),
		streamSem:  make(chan struct{}, config.MaxStreams),
	}
}

// Acquire waits for a request slot. It returns the context's error if
// the context ends first.
func (p *WorkerPool) Acquire(ctx context.Context) error {
	atomic.AddInt64(&p.queuedRequest, 1)
	defer atomic.AddInt64(&p.queuedRequest, -1)

	select {
	case p.requestSem <- struct{}{}:
		atomic.AddInt64(&p.activeRequest, 1)
		return nil
	case <-ctx.Done():
		atomic.AddInt64(&p.rejected, 1)
		return ctx.Err()
	}
}

// AcquireWithTimeout is Acquire bounded by timeout.
func (p *WorkerPool) AcquireWithTimeout(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.Acquire(ctx)
}

// Release returns a request slot.
func (p *WorkerPool) Release() {
	atomic.AddInt64(&p.activeRequest, -1)
	atomic.AddInt64(&p.totalRequest, 1)
	<-p.requestSem
}

// TryAcquireStream takes a stream slot without waiting. Streams hold
// their slot for the life of the connection, so a full pool refuses
// rather than queues.
func (p *WorkerPool) TryAcquireStream() bool {
	select {
	case p.streamSem <- struct{}{}:
		atomic.AddInt64(&p.activeStream, 1)
		return true
	default:
		atomic.AddInt64(&p.rejected, 1)
		return false
	}
}

// ReleaseStream returns a stream slot.
func (p *WorkerPool) ReleaseStream() {
	atomic.AddInt64(&p.activeStream, -1)
	atomic.AddInt64(&p.totalStream, 1)
	<-p.streamSem
}

// PoolStats is a point-in-time view of the pool.
type PoolStats struct {
	ActiveRequests int64 `json:"active_requests"`
	QueuedRequests int64 `json:"queued_requests"`
	ActiveStreams  int64 `json:"active_streams"`
	TotalRequests  int64 `json:"total_requests"`
	TotalStreams   int64 `json:"total_streams"`
	Rejected       int64 `json:"rejected"`
	MaxRequests    int   `json:"max_requests"`
	MaxStreams     int   `json:"max_streams"`
}

// Stats returns current pool statistics.
func (p *WorkerPool) Stats() PoolStats {
	return PoolStats{
		ActiveRequests: atomic.LoadInt64(&p.activeRequest),
		QueuedRequests: atomic.LoadInt64(&p.queuedRequest),
		ActiveStreams:  atomic.LoadInt64(&p.activeStream),
		TotalRequests:  atomic.LoadInt64(&p.totalRequest),
		TotalStreams:   atomic.LoadInt64(&p.totalStream),
		Rejected:       atomic.LoadInt64(&p.rejected),
		MaxRequests:    cap(p.requestSem),
		MaxStreams:     cap(p.streamSem),
	}
}
