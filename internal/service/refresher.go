package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"trends-go/pkg/logger"
	"trends-go/pkg/pipeline"
)

// ErrRefreshRunning is returned when a refresh is already in progress
var ErrRefreshRunning = errors.New("refresh already running")

// ErrNoKeywords is returned when the keyword source yields nothing
var ErrNoKeywords = errors.New("no keywords to process")

// RefreshStatus describes the refresher's state
type RefreshStatus struct {
	Running      bool      `json:"running"`
	LastStarted  time.Time `json:"last_started,omitempty"`
	LastFinished time.Time `json:"last_finished,omitempty"`
	LastError    string    `json:"last_error,omitempty"`
	LastRunID    string    `json:"last_run_id,omitempty"`
	Completion   string    `json:"completion,omitempty"`
}

// Refresher loads keywords and runs the pipeline, one run at a time
type Refresher struct {
	runner       PipelineRunner
	source       KeywordSource
	keywordsFile string
	now          func() time.Time
	log          *logger.Logger

	mu     sync.Mutex
	status RefreshStatus
}

func NewRefresher(runner PipelineRunner, source KeywordSource, keywordsFile string) *Refresher {
	return &Refresher{
		runner:       runner,
		source:       source,
		keywordsFile: keywordsFile,
		now:          time.Now,
		log:          logger.GetLogger().WithField("component", "refresher"),
	}
}

// Refresh runs one collection. Concurrent calls fail fast with ErrRefreshRunning.
func (r *Refresher) Refresh(ctx context.Context) (*pipeline.RunReport, error) {
	r.mu.Lock()
	if r.status.Running {
		r.mu.Unlock()
		return nil, ErrRefreshRunning
	}
	r.status.Running = true
	r.status.LastStarted = r.now()
	r.mu.Unlock()

	report, err := r.run(ctx)

	r.mu.Lock()
	r.status.Running = false
	r.status.LastFinished = r.now()
	r.status.LastError = ""
	if err != nil {
		r.status.LastError = err.Error()
	}
	if report != nil {
		r.status.LastRunID = report.Summary.RunID
		r.status.Completion = report.Summary.CompletionRate
	}
	r.mu.Unlock()

	if err != nil {
		r.log.WithError(err).Error("Refresh failed")
	}
	return report, err
}

func (r *Refresher) run(ctx context.Context) (*pipeline.RunReport, error) {
	kws, err := r.source.LoadFile(ctx, r.keywordsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load keywords: %w", err)
	}
	if len(kws) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoKeywords, r.keywordsFile)
	}

	r.log.WithFields(map[string]interface{}{
		"keywords": len(kws),
		"file":     r.keywordsFile,
	}).Info("Refresh started")
	return r.runner.Run(ctx, kws)
}

// Status returns a snapshot of the last refresh
func (r *Refresher) Status() RefreshStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}
