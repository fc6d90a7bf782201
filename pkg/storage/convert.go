package storage

import (
	"sort"
	"time"

	"trends-go/pkg/extractor"
)

const reportDescription = "Rising queries per seed keyword from Google Trends explore"

// BuildWebsite renders a run into the dashboard document
func BuildWebsite(ds *RunDataset, summary RunSummary, now time.Time) WebsiteDataset {
	site := WebsiteDataset{
		LastUpdated:  timestamp(summary.FinishedAt, now),
		TotalSeeds:   summary.TotalSeeds,
		TotalQueries: ds.TotalEntries(),
		Data:         make(map[string]WebsiteKeyword, ds.Len()),
		RunID:        summary.RunID,
		TimeRange:    summary.TimeRange,
		KeywordOrder: []string{},
	}
	if ds == nil {
		return site
	}
	for _, kw := range ds.Order {
		site.Data[kw] = WebsiteKeyword{Rising: ds.Results[kw].Entries}
	}
	site.KeywordOrder = append(site.KeywordOrder, ds.Order...)
	return site
}

// BuildReport renders a run into the detailed timestamped report
func BuildReport(ds *RunDataset, summary RunSummary, now time.Time) DetailedReport {
	report := DetailedReport{
		Metadata: ReportMetadata{
			Date:        now.Format("2006-01-02"),
			Timestamp:   timestamp(summary.FinishedAt, now),
			TimeRange:   summary.TimeRange,
			RunID:       summary.RunID,
			Description: reportDescription,
		},
		Summary:      summary,
		SeedKeywords: make(map[string]SeedKeyword, ds.Len()),
		KeywordOrder: []string{},
	}
	if ds == nil {
		return report
	}
	for _, kw := range ds.Order {
		r := ds.Results[kw]
		report.SeedKeywords[kw] = SeedKeyword{
			Score:              r.Score,
			RisingQueriesCount: len(r.Entries),
			RisingQueries:      r.Entries,
		}
	}
	report.KeywordOrder = append(report.KeywordOrder, ds.Order...)
	return report
}

// ReportToWebsite rebuilds the dashboard document from a detailed report,
// keeping only keywords that have rising queries.
func ReportToWebsite(report *DetailedReport, now time.Time) WebsiteDataset {
	results := make(map[string]KeywordResult, len(report.SeedKeywords))
	for kw, seed := range report.SeedKeywords {
		if len(seed.RisingQueries) == 0 {
			continue
		}
		results[kw] = KeywordResult{Keyword: kw, Score: seed.Score, Entries: seed.RisingQueries}
	}
	ds := NewRunDataset(results)
	if len(report.KeywordOrder) > 0 {
		ds.Order = filterOrder(report.KeywordOrder, results)
	}

	summary := report.Summary
	if summary.TotalSeeds == 0 {
		summary.TotalSeeds = len(report.SeedKeywords)
	}
	if summary.RunID == "" {
		summary.RunID = report.Metadata.RunID
	}
	if summary.TimeRange == "" {
		summary.TimeRange = report.Metadata.TimeRange
	}

	site := BuildWebsite(ds, summary, now)
	if report.Metadata.Timestamp != "" {
		site.LastUpdated = report.Metadata.Timestamp
	}
	return site
}

// filterOrder keeps the report's order for keywords still present, appending any it missed
func filterOrder(order []string, results map[string]KeywordResult) []string {
	seen := make(map[string]bool, len(results))
	out := make([]string, 0, len(results))
	for _, kw := range order {
		if _, ok := results[kw]; ok && !seen[kw] {
			out = append(out, kw)
			seen[kw] = true
		}
	}
	var missing []string
	for kw := range results {
		if !seen[kw] {
			missing = append(missing, kw)
		}
	}
	sort.Strings(missing)
	return append(out, missing...)
}

// Entries returns the website document's rising lists in keyword order
func (w *WebsiteDataset) Entries() []KeywordEntries {
	order := w.KeywordOrder
	if len(order) == 0 {
		for kw := range w.Data {
			order = append(order, kw)
		}
		sort.Strings(order)
	}
	out := make([]KeywordEntries, 0, len(order))
	for _, kw := range order {
		if data, ok := w.Data[kw]; ok {
			out = append(out, KeywordEntries{Keyword: kw, Rising: data.Rising})
		}
	}
	return out
}

// KeywordEntries pairs a keyword with its rising list
type KeywordEntries struct {
	Keyword string                       `json:"keyword"`
	Rising  []extractor.RisingQueryEntry `json:"rising"`
}

func timestamp(t, fallback time.Time) string {
	if t.IsZero() {
		t = fallback
	}
	return t.Format(time.RFC3339)
}
