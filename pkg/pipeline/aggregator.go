package pipeline

import (
	"fmt"
	"math"
	"sync"
	"time"

	"trends-go/pkg/extractor"
	"trends-go/pkg/storage"
)

// Scorer ranks seed keywords for output ordering
type Scorer interface {
	Score(keyword string) int
}

// Aggregator merges per-keyword results; safe for concurrent use
type Aggregator struct {
	mu      sync.Mutex
	results map[string]storage.KeywordResult
	scores  Scorer
}

func NewAggregator(scores Scorer) *Aggregator {
	return &Aggregator{
		results: make(map[string]storage.KeywordResult),
		scores:  scores,
	}
}

// Add stores entries for keyword, replacing any earlier result.
// Empty entries are not stored; it reports whether anything was kept.
func (a *Aggregator) Add(keyword string, entries []extractor.RisingQueryEntry) bool {
	if len(entries) == 0 {
		return false
	}
	score := 0
	if a.scores != nil {
		score = a.scores.Score(keyword)
	}
	kept := make([]extractor.RisingQueryEntry, len(entries))
	copy(kept, entries)

	a.mu.Lock()
	a.results[keyword] = storage.KeywordResult{Keyword: keyword, Score: score, Entries: kept}
	a.mu.Unlock()
	return true
}

// Len returns the number of keywords with data
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.results)
}

// Dataset returns an ordered snapshot
func (a *Aggregator) Dataset() *storage.RunDataset {
	a.mu.Lock()
	snapshot := make(map[string]storage.KeywordResult, len(a.results))
	for k, v := range a.results {
		snapshot[k] = v
	}
	a.mu.Unlock()
	return storage.NewRunDataset(snapshot)
}

// SummaryInput gathers what Summarize needs
type SummaryInput struct {
	RunID      string
	TimeRange  string
	TotalSeeds int
	Tasks      []*Task
	Dataset    *storage.RunDataset
	StartedAt  time.Time
	FinishedAt time.Time
}

// Summarize computes run statistics. Completion is keywords with data over total seeds.
func Summarize(in SummaryInput) storage.RunSummary {
	s := storage.RunSummary{
		RunID:      in.RunID,
		TimeRange:  in.TimeRange,
		StartedAt:  in.StartedAt,
		FinishedAt: in.FinishedAt,
		TotalSeeds: in.TotalSeeds,
	}
	if in.Dataset != nil {
		s.KeywordsWithData = in.Dataset.Len()
		s.TotalEntries = in.Dataset.TotalEntries()
	}

	for _, t := range in.Tasks {
		if t.RemoteID != "" {
			s.Submitted++
		}
		if !t.ReadyAt.IsZero() {
			s.Ready++
		}
		switch t.State {
		case StateSubmitFailed:
			s.SubmitFailures++
		case StateFetched:
			s.Fetched++
		case StateFetchFailed:
			s.FetchFailures++
		case StateAbandoned:
			s.Abandoned++
		}
	}

	if s.TotalSeeds > 0 {
		s.CompletionRatio = float64(s.KeywordsWithData) / float64(s.TotalSeeds)
	}
	s.CompletionRate = fmt.Sprintf("%.1f%%", s.CompletionRatio*100)
	if in.Dataset != nil {
		s.AverageScore = math.Round(in.Dataset.AverageScore()*10) / 10
	}
	return s
}
