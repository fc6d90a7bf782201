package pipeline

import (
	"context"
	"time"

	"trends-go/pkg/api"
	"trends-go/pkg/logger"
	"trends-go/pkg/metrics"
)

const (
	DefaultPollInterval = 15 * time.Second
	DefaultPollMaxWait  = 1800 * time.Second
)

// PollerConfig controls the completion loop
type PollerConfig struct {
	Interval time.Duration
	MaxWait  time.Duration
}

// ReadyHandler receives each batch of newly ready tasks before the next poll
type ReadyHandler func(ctx context.Context, ready []*Task)

// PollStats summarizes a poll loop
type PollStats struct {
	Cycles    int
	Errors    int
	Ready     int
	Abandoned int
	Elapsed   time.Duration
}

// Poller watches tasks_ready until every submitted task is ready or the deadline passes
type Poller struct {
	client  api.TaskAPI
	limiter *RateLimiter
	clock   Clock
	cfg     PollerConfig
	log     *logger.Logger
}

// NewPoller wires a poller; zero config values take defaults
func NewPoller(client api.TaskAPI, limiter *RateLimiter, clock Clock, cfg PollerConfig) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPollInterval
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = DefaultPollMaxWait
	}
	if clock == nil {
		clock = RealClock{}
	}
	return &Poller{
		client:  client,
		limiter: limiter,
		clock:   clock,
		cfg:     cfg,
		log:     logger.GetLogger().WithField("component", "poller"),
	}
}

// PollOnce returns every id the service reports ready, including ids from other runs
func (p *Poller) PollOnce(ctx context.Context) (map[string]struct{}, error) {
	if err := p.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	ids, err := p.client.TasksReady(ctx)
	if err != nil {
		return nil, err
	}
	ready := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		ready[id] = struct{}{}
	}
	return ready, nil
}

// Run polls immediately, then every interval. Matching Submitted tasks become
// Ready and are passed to onReady synchronously. When the deadline passes or
// ctx is done, tasks still Submitted become Abandoned.
func (p *Poller) Run(ctx context.Context, tasks []*Task, onReady ReadyHandler) PollStats {
	start := p.clock.Now()
	deadline := start.Add(p.cfg.MaxWait)
	stats := PollStats{}

	for {
		waiting := submittedTasks(tasks)
		if len(waiting) == 0 {
			break
		}
		if !p.clock.Now().Before(deadline) {
			p.log.WithFields(map[string]interface{}{
				"waiting":  len(waiting),
				"max_wait": p.cfg.MaxWait.String(),
			}).Warn("Poll deadline reached")
			break
		}
		if ctx.Err() != nil {
			break
		}

		stats.Cycles++
		ids, err := p.PollOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			stats.Errors++
			metrics.PollCyclesTotal.WithLabelValues("error").Inc()
			p.log.WithError(err).WithField("cycle", stats.Cycles).Warn("Ready poll failed, retrying next cycle")
		} else {
			metrics.PollCyclesTotal.WithLabelValues("success").Inc()
			batch := p.markReady(waiting, ids)
			stats.Ready += len(batch)

			p.log.WithFields(map[string]interface{}{
				"cycle":       stats.Cycles,
				"reported":    len(ids),
				"newly_ready": len(batch),
				"waiting":     len(waiting) - len(batch),
			}).Info("Poll cycle completed")

			if len(batch) > 0 && onReady != nil {
				onReady(ctx, batch)
			}
		}

		if len(submittedTasks(tasks)) == 0 {
			break
		}
		if err := p.clock.Sleep(ctx, p.cfg.Interval); err != nil {
			break
		}
	}

	now := p.clock.Now()
	for _, t := range submittedTasks(tasks) {
		t.setState(StateAbandoned, now)
		stats.Abandoned++
	}
	if stats.Abandoned > 0 {
		p.log.WithField("abandoned", stats.Abandoned).Warn("Tasks abandoned before completion")
	}
	stats.Elapsed = now.Sub(start)
	return stats
}

func (p *Poller) markReady(waiting []*Task, ids map[string]struct{}) []*Task {
	now := p.clock.Now()
	var batch []*Task
	for _, t := range waiting {
		if _, ok := ids[t.RemoteID]; ok {
			t.setState(StateReady, now)
			batch = append(batch, t)
		}
	}
	return batch
}

func submittedTasks(tasks []*Task) []*Task {
	var out []*Task
	for _, t := range tasks {
		if t.State == StateSubmitted {
			out = append(out, t)
		}
	}
	return out
}
