package pipeline

import (
	"context"
	"time"

	"trends-go/pkg/api"
	"trends-go/pkg/logger"
	"trends-go/pkg/worker"
)

const (
	DefaultFetchWorkers = 8
	DefaultFetchTimeout = 30 * time.Second
)

// FetcherConfig controls result retrieval
type FetcherConfig struct {
	Workers int
	Timeout time.Duration
}

// FetchedResult is one fetched task with its resolved keyword
type FetchedResult struct {
	Task    *Task
	Keyword string
	Payload *api.TaskPayload
	Err     error
}

// Fetcher retrieves completed tasks with bounded concurrency. Calls are not retried.
type Fetcher struct {
	client  api.TaskAPI
	limiter *RateLimiter
	clock   Clock
	cfg     FetcherConfig
	pool    *worker.Pool
	log     *logger.Logger
}

// NewFetcher wires a fetcher; zero config values take defaults
func NewFetcher(client api.TaskAPI, limiter *RateLimiter, clock Clock, cfg FetcherConfig) *Fetcher {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultFetchWorkers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultFetchTimeout
	}
	if clock == nil {
		clock = RealClock{}
	}
	return &Fetcher{
		client:  client,
		limiter: limiter,
		clock:   clock,
		cfg:     cfg,
		pool:    worker.NewPool("fetch", cfg.Workers),
		log:     logger.GetLogger().WithField("component", "fetcher"),
	}
}

// Pool exposes the fetch worker pool
func (f *Fetcher) Pool() *worker.Pool {
	return f.pool
}

// Fetch performs one rate-limited task_get
func (f *Fetcher) Fetch(ctx context.Context, remoteID string) (*api.TaskPayload, error) {
	if err := f.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	callCtx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()
	return f.client.TaskGet(callCtx, remoteID)
}

// FetchAll fetches every ready task. Each task ends Fetched or FetchFailed;
// one failure never affects the others. Results keep input order.
func (f *Fetcher) FetchAll(ctx context.Context, ready []*Task) []FetchedResult {
	results := make([]FetchedResult, len(ready))

	_ = f.pool.Run(ctx, len(ready), func(ctx context.Context, i int) error {
		task := ready[i]
		payload, err := f.Fetch(ctx, task.RemoteID)
		results[i] = FetchedResult{Task: task, Payload: payload, Err: err}

		if err != nil {
			task.LastError = err
			task.setState(StateFetchFailed, f.clock.Now())
			results[i].Keyword = task.Keyword
			f.log.WithFields(map[string]interface{}{
				"keyword": task.Keyword,
				"task_id": task.RemoteID,
			}).WithError(err).Warn("Task fetch failed")
			return err
		}

		results[i].Keyword = f.resolveKeyword(task, payload)
		task.setState(StateFetched, f.clock.Now())
		return nil
	})

	// tasks never started because ctx ended
	for i, task := range ready {
		if results[i].Task == nil {
			task.LastError = ctx.Err()
			task.setState(StateFetchFailed, f.clock.Now())
			results[i] = FetchedResult{Task: task, Keyword: task.Keyword, Err: ctx.Err()}
		}
	}
	return results
}

// resolveKeyword prefers the payload tag, then local bookkeeping, then a placeholder
func (f *Fetcher) resolveKeyword(task *Task, payload *api.TaskPayload) string {
	tag := ""
	if payload != nil {
		tag = payload.Tag
	}
	switch {
	case tag != "":
		if task.Keyword != "" && task.Keyword != tag {
			f.log.WithFields(map[string]interface{}{
				"tag":     tag,
				"keyword": task.Keyword,
				"task_id": task.RemoteID,
			}).Warn("Payload tag disagrees with submitted keyword, using tag")
		}
		return tag
	case task.Keyword != "":
		return task.Keyword
	default:
		return placeholderKeyword(task.RemoteID)
	}
}

func placeholderKeyword(remoteID string) string {
	suffix := remoteID
	if len(suffix) > 8 {
		suffix = suffix[len(suffix)-8:]
	}
	return "unknown_" + suffix
}
