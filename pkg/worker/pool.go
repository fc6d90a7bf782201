package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"trends-go/pkg/logger"
	pmetrics "trends-go/pkg/metrics"
)

// PanicError wraps a value recovered from a panicking unit of work
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (pe *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", pe.Value)
}

// Pool runs indexed units of work with bounded concurrency.
// A failing unit never cancels its siblings.
type Pool struct {
	name    string
	limit   int
	metrics *PoolMetrics
	log     *logger.Logger
}

// NewPool creates a pool running at most limit units at once; limit < 1 means 1
func NewPool(name string, limit int) *Pool {
	if limit < 1 {
		limit = 1
	}
	return &Pool{
		name:    name,
		limit:   limit,
		metrics: NewPoolMetrics(),
		log:     logger.GetLogger().WithField("component", "worker_pool").WithField("pool", name),
	}
}

// Limit returns the concurrency bound
func (p *Pool) Limit() int {
	return p.limit
}

// Metrics returns the pool's counters
func (p *Pool) Metrics() *PoolMetrics {
	return p.metrics
}

// Run calls fn for every index in [0, n) and waits for all started units.
// Units not yet started when ctx is done are skipped. The returned error
// joins every unit error, or is ctx.Err() if nothing failed but work was skipped.
func (p *Pool) Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	if n <= 0 {
		return nil
	}

	var g errgroup.Group
	g.SetLimit(p.limit)

	var (
		mu   sync.Mutex
		errs []error
	)
	skipped := false

	p.log.WithFields(map[string]interface{}{
		"units": n,
		"limit": p.limit,
	}).Debug("Worker pool run started")

	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			skipped = true
			break
		}
		p.metrics.IncrementTasksSubmitted()
		g.Go(func() error {
			err := p.execute(ctx, i, fn)
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if skipped {
		return ctx.Err()
	}
	return nil
}

func (p *Pool) execute(ctx context.Context, i int, fn func(ctx context.Context, i int) error) (err error) {
	start := time.Now()
	p.metrics.enter()
	defer func() {
		p.metrics.leave()
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
			p.metrics.IncrementPanics()
			pmetrics.WorkerPanics.WithLabelValues(p.name).Inc()
			p.log.WithFields(map[string]interface{}{
				"unit":  i,
				"panic": r,
			}).Error("Unit of work panicked")
		}
		p.metrics.RecordResult(time.Since(start), err)
	}()

	return fn(ctx, i)
}
