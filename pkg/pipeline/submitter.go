package pipeline

import (
	"context"
	"fmt"

	"trends-go/pkg/api"
	"trends-go/pkg/logger"
	"trends-go/pkg/worker"
)

const (
	DefaultSubmitWorkers = 10
	MaxTasksPerPost      = 100
)

// SubmitterConfig controls task creation
type SubmitterConfig struct {
	Workers   int
	BatchSize int
	Request   api.RequestOptions
	Backoff   api.BackoffPolicy
}

// Submitter creates one remote task per keyword
type Submitter struct {
	client  api.TaskAPI
	limiter *RateLimiter
	retrier *api.Retrier
	clock   Clock
	cfg     SubmitterConfig
	pool    *worker.Pool
	log     *logger.Logger
}

// NewSubmitter wires a submitter; zero config values take defaults
func NewSubmitter(client api.TaskAPI, limiter *RateLimiter, clock Clock, cfg SubmitterConfig) *Submitter {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultSubmitWorkers
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1
	}
	if cfg.BatchSize > MaxTasksPerPost {
		cfg.BatchSize = MaxTasksPerPost
	}
	if cfg.Backoff.MaxAttempts == 0 {
		cfg.Backoff = api.DefaultBackoffPolicy()
	}
	if clock == nil {
		clock = RealClock{}
	}
	return &Submitter{
		client:  client,
		limiter: limiter,
		retrier: api.NewRetrier(cfg.Backoff).WithSleep(clock.Sleep),
		clock:   clock,
		cfg:     cfg,
		pool:    worker.NewPool("submit", cfg.Workers),
		log:     logger.GetLogger().WithField("component", "submitter"),
	}
}

// Pool exposes the submit worker pool
func (s *Submitter) Pool() *worker.Pool {
	return s.pool
}

// Submit creates a task for keyword and returns its remote id
func (s *Submitter) Submit(ctx context.Context, keyword string) (string, error) {
	task := NewTask(keyword)
	s.submitOne(ctx, task)
	if task.State != StateSubmitted {
		return "", task.LastError
	}
	return task.RemoteID, nil
}

// SubmitAll submits every keyword on the bounded pool and returns one task
// per keyword in input order. Failed submissions end in SubmitFailed.
func (s *Submitter) SubmitAll(ctx context.Context, keywords []string) []*Task {
	tasks := make([]*Task, len(keywords))
	for i, kw := range keywords {
		tasks[i] = NewTask(kw)
	}
	progress := logger.NewProgressReporter(len(tasks), "Submitting tasks")

	if s.cfg.BatchSize <= 1 {
		_ = s.pool.Run(ctx, len(tasks), func(ctx context.Context, i int) error {
			s.submitOne(ctx, tasks[i])
			progress.Done(tasks[i].State == StateSubmitted)
			return nil
		})
	} else {
		batches := chunk(tasks, s.cfg.BatchSize)
		_ = s.pool.Run(ctx, len(batches), func(ctx context.Context, i int) error {
			s.submitBatch(ctx, batches[i])
			for _, t := range batches[i] {
				progress.Done(t.State == StateSubmitted)
			}
			return nil
		})
	}

	// keywords skipped by cancellation never left Pending
	for _, t := range tasks {
		if t.State == StatePending {
			t.LastError = ctx.Err()
			t.setState(StateSubmitFailed, s.clock.Now())
		}
	}
	progress.Complete()
	return tasks
}

func (s *Submitter) submitOne(ctx context.Context, task *Task) {
	req := api.NewExploreRequest(task.Keyword, s.cfg.Request)

	var remoteID string
	attempts, err := s.retrier.Do(ctx, func(ctx context.Context, attempt int) error {
		if err := s.limiter.Acquire(ctx); err != nil {
			return err
		}
		posted, err := s.client.PostTasks(ctx, []api.TaskRequest{req})
		if err != nil {
			s.log.WithFields(map[string]interface{}{
				"keyword": task.Keyword,
				"attempt": attempt,
			}).WithError(err).Warn("Task submission attempt failed")
			return err
		}
		if len(posted) == 0 {
			return fmt.Errorf("%w: task_post returned no tasks", api.ErrMalformedPayload)
		}
		if !posted[0].Created() {
			return &api.RejectionError{HTTPStatus: 200, Code: posted[0].StatusCode, Message: posted[0].StatusMessage}
		}
		remoteID = posted[0].ID
		return nil
	})
	task.SubmitAttempts = attempts
	s.finish(task, remoteID, err)
}

// submitBatch posts several task objects in one call and matches answers back by tag.
// Tasks rejected with a retryable status are re-posted on the next attempt.
func (s *Submitter) submitBatch(ctx context.Context, batch []*Task) {
	pending := batch
	taskErrs := make(map[*Task]error, len(batch))

	_, err := s.retrier.Do(ctx, func(ctx context.Context, attempt int) error {
		if err := s.limiter.Acquire(ctx); err != nil {
			return err
		}
		reqs := make([]api.TaskRequest, len(pending))
		for i, t := range pending {
			reqs[i] = api.NewExploreRequest(t.Keyword, s.cfg.Request)
			t.SubmitAttempts++
			delete(taskErrs, t)
		}

		posted, err := s.client.PostTasks(ctx, reqs)
		if err != nil {
			s.log.WithFields(map[string]interface{}{
				"batch_size": len(pending),
				"attempt":    attempt,
			}).WithError(err).Warn("Batch submission attempt failed")
			return err
		}

		var retryErr error
		pending, retryErr = s.matchBatch(pending, posted, taskErrs)
		if len(pending) > 0 {
			s.log.WithFields(map[string]interface{}{
				"rejected": len(pending),
				"attempt":  attempt,
			}).WithError(retryErr).Warn("Batch tasks rejected")
		}
		return retryErr
	})

	for _, t := range pending {
		taskErr := taskErrs[t]
		if taskErr == nil {
			taskErr = err
		}
		s.finish(t, "", taskErr)
	}
}

// matchBatch settles created and permanently rejected tasks and returns those
// worth re-posting with the first of their errors
func (s *Submitter) matchBatch(pending []*Task, posted []api.PostedTask, taskErrs map[*Task]error) ([]*Task, error) {
	byTag := make(map[string]api.PostedTask, len(posted))
	for _, p := range posted {
		if p.Tag != "" {
			byTag[p.Tag] = p
		}
	}

	var retry []*Task
	var firstErr error
	for i, t := range pending {
		p, ok := byTag[t.Keyword]
		if !ok && i < len(posted) && posted[i].Tag == "" {
			p, ok = posted[i], true
		}

		var err error
		switch {
		case !ok:
			err = fmt.Errorf("%w: no task returned for keyword", api.ErrMalformedPayload)
		case !p.Created():
			err = &api.RejectionError{HTTPStatus: 200, Code: p.StatusCode, Message: p.StatusMessage}
		default:
			s.finish(t, p.ID, nil)
			continue
		}

		if !api.IsRetryable(err) {
			s.finish(t, "", err)
			continue
		}
		taskErrs[t] = err
		retry = append(retry, t)
		if firstErr == nil {
			firstErr = err
		}
	}
	return retry, firstErr
}

func (s *Submitter) finish(task *Task, remoteID string, err error) {
	if err != nil {
		task.LastError = err
		task.setState(StateSubmitFailed, s.clock.Now())
		s.log.WithFields(map[string]interface{}{
			"keyword":  task.Keyword,
			"attempts": task.SubmitAttempts,
		}).WithError(err).Error("Task submission failed, keyword dropped")
		return
	}
	task.RemoteID = remoteID
	task.setState(StateSubmitted, s.clock.Now())
	s.log.WithFields(map[string]interface{}{
		"keyword": task.Keyword,
		"task_id": remoteID,
	}).Debug("Task submitted")
}

func chunk(tasks []*Task, size int) [][]*Task {
	var out [][]*Task
	for start := 0; start < len(tasks); start += size {
		end := start + size
		if end > len(tasks) {
			end = len(tasks)
		}
		out = append(out, tasks[start:end])
	}
	return out
}
