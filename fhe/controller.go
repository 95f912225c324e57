package fhe

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds evaluation resource limits.
type Config struct {
	// MemoryLimitBytes is the hard limit for ciphertext working sets.
	// If 0, no hard limit is enforced (only tracking).
	MemoryLimitBytes int64

	// MaxConcurrentEvaluations is the number of circuit evaluations allowed
	// to run at once. If 0, defaults to 1.
	MaxConcurrentEvaluations int64

	// EvaluationsPerSec throttles row evaluations. If 0, unlimited.
	EvaluationsPerSec int64
}

// Controller meters the resources encrypted evaluation burns through:
// working-set memory, concurrent circuit evaluations, and evaluation rate.
type Controller struct {
	cfg Config

	// Memory
	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	// Concurrency
	evalSem *semaphore.Weighted

	// Rate
	limiter *rate.Limiter
}

// NewController creates a new evaluation controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxConcurrentEvaluations <= 0 {
		cfg.MaxConcurrentEvaluations = 1
	}

	c := &Controller{
		cfg:     cfg,
		evalSem: semaphore.NewWeighted(cfg.MaxConcurrentEvaluations),
	}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}

	if cfg.EvaluationsPerSec > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.EvaluationsPerSec), int(cfg.EvaluationsPerSec))
	}

	return c
}

// AcquireMemory reserves working-set memory. If a hard limit is configured
// and usage would exceed it, this blocks until memory is available or ctx is
// canceled.
func (c *Controller) AcquireMemory(ctx context.Context, bytes int64) error {
	if c == nil || bytes <= 0 {
		return nil
	}

	if c.memSem != nil {
		if err := c.memSem.Acquire(ctx, bytes); err != nil {
			return err
		}
	}

	c.memUsed.Add(bytes)
	return nil
}

// TryAcquireMemory reserves working-set memory without blocking.
func (c *Controller) TryAcquireMemory(bytes int64) bool {
	if c == nil || bytes <= 0 {
		return true
	}

	if c.memSem != nil {
		if !c.memSem.TryAcquire(bytes) {
			return false
		}
	}

	c.memUsed.Add(bytes)
	return true
}

// ReleaseMemory releases reserved working-set memory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}

	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the currently reserved working-set bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// AcquireEvaluation reserves a circuit evaluation slot. Blocks if all slots
// are busy.
func (c *Controller) AcquireEvaluation(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.evalSem.Acquire(ctx, 1)
}

// TryAcquireEvaluation reserves a circuit evaluation slot without blocking.
func (c *Controller) TryAcquireEvaluation() bool {
	if c == nil {
		return true
	}
	return c.evalSem.TryAcquire(1)
}

// ReleaseEvaluation releases a circuit evaluation slot.
func (c *Controller) ReleaseEvaluation() {
	if c == nil {
		return
	}
	c.evalSem.Release(1)
}

// AcquireThroughput waits until the rate limit admits n row evaluations.
func (c *Controller) AcquireThroughput(ctx context.Context, n int) error {
	if c == nil || c.limiter == nil {
		return nil
	}
	return c.limiter.WaitN(ctx, n)
}
