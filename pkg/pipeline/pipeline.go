package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"trends-go/pkg/api"
	"trends-go/pkg/extractor"
	"trends-go/pkg/logger"
	"trends-go/pkg/metrics"
	"trends-go/pkg/storage"
)

// Persister writes the run artifacts
type Persister interface {
	Persist(ctx context.Context, ds *storage.RunDataset, summary storage.RunSummary) (storage.PersistResult, error)
}

// Publisher forwards the website document downstream
type Publisher interface {
	Publish(ctx context.Context, site storage.WebsiteDataset) error
}

// Config groups per-phase settings
type Config struct {
	TimeRange  string
	RateLimit  int
	RateWindow time.Duration
	Submit     SubmitterConfig
	Poll       PollerConfig
	Fetch      FetcherConfig
}

// Deps are the collaborators of a pipeline. Limiter, Clock and Publisher are optional.
type Deps struct {
	Client    api.TaskAPI
	Extractor extractor.ResultExtractor
	Scores    Scorer
	Persister Persister
	Publisher Publisher
	Limiter   *RateLimiter
	Clock     Clock
}

// RunReport is the outcome of one run
type RunReport struct {
	Summary storage.RunSummary
	Dataset *storage.RunDataset
	Tasks   []*Task
	Files   storage.PersistResult
	Poll    PollStats
}

// Pipeline runs Submitter, Poller, Fetcher, Extractor and Aggregator in sequence
type Pipeline struct {
	submitter *Submitter
	poller    *Poller
	fetcher   *Fetcher
	extractor extractor.ResultExtractor
	scores    Scorer
	persister Persister
	publisher Publisher
	limiter   *RateLimiter
	clock     Clock
	cfg       Config
	log       *logger.Logger
}

// New wires a pipeline. One limiter is shared by every phase.
func New(deps Deps, cfg Config) *Pipeline {
	clock := deps.Clock
	if clock == nil {
		clock = RealClock{}
	}
	limiter := deps.Limiter
	if limiter == nil {
		limiter = NewRateLimiter(cfg.RateLimit, cfg.RateWindow, WithLimiterClock(clock))
	}
	cfg.Submit.Request.TimeRange = cfg.TimeRange

	return &Pipeline{
		submitter: NewSubmitter(deps.Client, limiter, clock, cfg.Submit),
		poller:    NewPoller(deps.Client, limiter, clock, cfg.Poll),
		fetcher:   NewFetcher(deps.Client, limiter, clock, cfg.Fetch),
		extractor: deps.Extractor,
		scores:    deps.Scores,
		persister: deps.Persister,
		publisher: deps.Publisher,
		limiter:   limiter,
		clock:     clock,
		cfg:       cfg,
		log:       logger.GetLogger().WithField("component", "pipeline"),
	}
}

// Limiter returns the shared rate limiter
func (p *Pipeline) Limiter() *RateLimiter {
	return p.limiter
}

// Run processes keywords end to end. Only a persistence failure is returned as an error.
func (p *Pipeline) Run(ctx context.Context, keywords []string) (*RunReport, error) {
	keywords = uniqueKeywords(keywords)
	runID := uuid.NewString()
	started := p.clock.Now()
	log := p.log.WithField("run_id", runID)

	log.WithFields(map[string]interface{}{
		"keywords":   len(keywords),
		"time_range": p.cfg.TimeRange,
	}).Info("Run started")

	tasks := p.submitter.SubmitAll(ctx, keywords)
	counts := CountByState(tasks)
	log.WithFields(map[string]interface{}{
		"submitted": counts[StateSubmitted],
		"failed":    counts[StateSubmitFailed],
	}).Info("Submission phase finished")

	agg := NewAggregator(p.scores)
	pollStats := p.poller.Run(ctx, tasks, func(ctx context.Context, ready []*Task) {
		p.collect(ctx, agg, ready)
	})

	finished := p.clock.Now()
	ds := agg.Dataset()
	summary := Summarize(SummaryInput{
		RunID:      runID,
		TimeRange:  p.cfg.TimeRange,
		TotalSeeds: len(keywords),
		Tasks:      tasks,
		Dataset:    ds,
		StartedAt:  started,
		FinishedAt: finished,
	})

	fields := map[string]interface{}{
		"keywords_with_data": summary.KeywordsWithData,
		"total_entries":      summary.TotalEntries,
		"completion":         summary.CompletionRate,
		"abandoned":          summary.Abandoned,
		"fetch_failures":     summary.FetchFailures,
	}
	if summary.KeywordsWithData < summary.TotalSeeds {
		log.WithFields(fields).Warn("Run completed partially")
	} else {
		log.WithFields(fields).Info("Run completed")
	}

	// persist even when interrupted so partial results survive
	persistCtx := context.WithoutCancel(ctx)
	files, err := p.persister.Persist(persistCtx, ds, summary)
	if err != nil {
		return nil, fmt.Errorf("failed to persist run %s: %w", runID, err)
	}

	if p.publisher != nil {
		if err := p.publisher.Publish(persistCtx, storage.BuildWebsite(ds, summary, finished)); err != nil {
			log.WithError(err).Warn("Publishing dataset failed")
		}
	}

	metrics.RecordRun(summary.KeywordsWithData, summary.TotalEntries, finished.Sub(started))
	return &RunReport{
		Summary: summary,
		Dataset: ds,
		Tasks:   tasks,
		Files:   files,
		Poll:    pollStats,
	}, nil
}

func (p *Pipeline) collect(ctx context.Context, agg *Aggregator, ready []*Task) {
	for _, res := range p.fetcher.FetchAll(ctx, ready) {
		if res.Err != nil {
			continue
		}
		entries := p.extractor.Extract(res.Payload)
		if !agg.Add(res.Keyword, entries) {
			p.log.WithFields(map[string]interface{}{
				"keyword": res.Keyword,
				"task_id": res.Task.RemoteID,
			}).Debug("No rising queries, keyword skipped")
		}
	}
}

// uniqueKeywords drops repeated seeds, keeping the first occurrence
func uniqueKeywords(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}
