package storage

import (
	"sort"
	"time"

	"trends-go/pkg/extractor"
)

// KeywordResult holds the rising entries of one seed keyword
type KeywordResult struct {
	Keyword string
	Score   int
	Entries []extractor.RisingQueryEntry
}

// RunDataset maps keywords to their results. Every key has at least one entry.
type RunDataset struct {
	Results map[string]KeywordResult
	Order   []string
}

// NewRunDataset drops empty results and orders keywords by score, then name
func NewRunDataset(results map[string]KeywordResult) *RunDataset {
	kept := make(map[string]KeywordResult, len(results))
	order := make([]string, 0, len(results))
	for kw, r := range results {
		if len(r.Entries) == 0 {
			continue
		}
		kept[kw] = r
		order = append(order, kw)
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := kept[order[i]], kept[order[j]]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return order[i] < order[j]
	})
	return &RunDataset{Results: kept, Order: order}
}

// Len returns the number of keywords with data
func (d *RunDataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Results)
}

// TotalEntries counts entries across all keywords
func (d *RunDataset) TotalEntries() int {
	if d == nil {
		return 0
	}
	total := 0
	for _, r := range d.Results {
		total += len(r.Entries)
	}
	return total
}

// AverageScore is the mean seed score over keywords with data
func (d *RunDataset) AverageScore() float64 {
	if d.Len() == 0 {
		return 0
	}
	sum := 0
	for _, r := range d.Results {
		sum += r.Score
	}
	return float64(sum) / float64(len(d.Results))
}

// RunSummary describes the outcome of one run
type RunSummary struct {
	RunID            string    `json:"run_id"`
	TimeRange        string    `json:"time_range"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
	TotalSeeds       int       `json:"total_seed_keywords"`
	Submitted        int       `json:"submitted"`
	SubmitFailures   int       `json:"submit_failures"`
	Ready            int       `json:"ready"`
	Fetched          int       `json:"fetched"`
	FetchFailures    int       `json:"fetch_failures"`
	Abandoned        int       `json:"abandoned"`
	KeywordsWithData int       `json:"keywords_with_rising"`
	TotalEntries     int       `json:"total_rising_queries"`
	CompletionRatio  float64   `json:"completion_ratio"`
	CompletionRate   string    `json:"completion_rate"`
	AverageScore     float64   `json:"avg_score"`
}

// WebsiteDataset is the trending_data.json document read by the dashboard
type WebsiteDataset struct {
	LastUpdated  string                    `json:"last_updated"`
	TotalSeeds   int                       `json:"total_seeds"`
	TotalQueries int                       `json:"total_queries"`
	Data         map[string]WebsiteKeyword `json:"data"`
	RunID        string                    `json:"run_id,omitempty"`
	TimeRange    string                    `json:"time_range,omitempty"`
	KeywordOrder []string                  `json:"keyword_order"`
}

// WebsiteKeyword holds one keyword's rising list in the website document
type WebsiteKeyword struct {
	Rising []extractor.RisingQueryEntry `json:"rising"`
}

// DetailedReport is the timestamped rising_only_trends_*.json document
type DetailedReport struct {
	Metadata     ReportMetadata         `json:"metadata"`
	Summary      RunSummary             `json:"summary"`
	SeedKeywords map[string]SeedKeyword `json:"seed_keywords"`
	KeywordOrder []string               `json:"keyword_order"`
}

// ReportMetadata describes when and how a report was produced
type ReportMetadata struct {
	Date        string `json:"date"`
	Timestamp   string `json:"timestamp"`
	TimeRange   string `json:"time_range"`
	RunID       string `json:"run_id"`
	Description string `json:"description"`
}

// SeedKeyword is one keyword's section of a detailed report
type SeedKeyword struct {
	Score              int                          `json:"score"`
	RisingQueriesCount int                          `json:"rising_queries_count"`
	RisingQueries      []extractor.RisingQueryEntry `json:"rising_queries"`
}
