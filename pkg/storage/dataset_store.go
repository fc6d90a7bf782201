package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"trends-go/pkg/logger"
)

const (
	DefaultWebsiteKey = "trending_data.json"
	ReportPrefix      = "rising_only_trends_"

	reportTimeLayout = "20060102_150405"
)

// PersistResult names the artifacts written for a run
type PersistResult struct {
	WebsiteKey string `json:"website_key"`
	ReportKey  string `json:"report_key"`
}

// DatasetStore writes and reads the run artifacts on top of a Storage
type DatasetStore struct {
	storage    Storage
	websiteKey string
	now        func() time.Time
	log        *logger.Logger
}

// NewDatasetStore creates a store; an empty websiteKey uses trending_data.json
func NewDatasetStore(storage Storage, websiteKey string) *DatasetStore {
	if websiteKey == "" {
		websiteKey = DefaultWebsiteKey
	}
	return &DatasetStore{
		storage:    storage,
		websiteKey: websiteKey,
		now:        time.Now,
		log:        logger.GetLogger().WithField("component", "dataset_store"),
	}
}

// WithClock overrides the time source used for report names and timestamps
func (s *DatasetStore) WithClock(now func() time.Time) *DatasetStore {
	s.now = now
	return s
}

// WebsiteKey returns the key of the dashboard document
func (s *DatasetStore) WebsiteKey() string {
	return s.websiteKey
}

// ReportKey returns the report key for a given time
func ReportKey(t time.Time) string {
	return ReportPrefix + t.Format(reportTimeLayout) + ".json"
}

// Persist writes the detailed report, then the website document. Each save is
// atomic on its own but the pair is not: if the website save fails, the report
// written first stays in storage.
func (s *DatasetStore) Persist(ctx context.Context, ds *RunDataset, summary RunSummary) (PersistResult, error) {
	now := s.now()
	result := PersistResult{
		WebsiteKey: s.websiteKey,
		ReportKey:  ReportKey(now),
	}

	if err := s.storage.Save(ctx, result.ReportKey, BuildReport(ds, summary, now)); err != nil {
		return PersistResult{}, fmt.Errorf("failed to save report: %w", err)
	}
	if err := s.storage.Save(ctx, result.WebsiteKey, BuildWebsite(ds, summary, now)); err != nil {
		return PersistResult{}, fmt.Errorf("failed to save website dataset: %w", err)
	}

	s.log.WithFields(map[string]interface{}{
		"report":   result.ReportKey,
		"website":  result.WebsiteKey,
		"keywords": ds.Len(),
		"entries":  ds.TotalEntries(),
	}).Info("Run dataset persisted")
	return result, nil
}

// LoadWebsite reads the dashboard document
func (s *DatasetStore) LoadWebsite(ctx context.Context) (*WebsiteDataset, error) {
	var site WebsiteDataset
	if err := s.storage.Load(ctx, s.websiteKey, &site); err != nil {
		return nil, err
	}
	if site.Data == nil {
		site.Data = map[string]WebsiteKeyword{}
	}
	return &site, nil
}

// LatestReportKey finds the newest detailed report by its timestamped name
func (s *DatasetStore) LatestReportKey(ctx context.Context) (string, error) {
	keys, err := s.storage.List(ctx, ReportPrefix)
	if err != nil {
		return "", err
	}
	latest := ""
	for _, k := range keys {
		if strings.HasSuffix(k, ".json") && k > latest {
			latest = k
		}
	}
	if latest == "" {
		return "", fmt.Errorf("%w: no %s*.json report", ErrNotFound, ReportPrefix)
	}
	return latest, nil
}

// LoadReport reads a detailed report
func (s *DatasetStore) LoadReport(ctx context.Context, key string) (*DetailedReport, error) {
	var report DetailedReport
	if err := s.storage.Load(ctx, key, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// ConvertLatest rebuilds the website document from the newest report
func (s *DatasetStore) ConvertLatest(ctx context.Context) (*WebsiteDataset, string, error) {
	key, err := s.LatestReportKey(ctx)
	if err != nil {
		return nil, "", err
	}
	report, err := s.LoadReport(ctx, key)
	if err != nil {
		return nil, key, err
	}

	site := ReportToWebsite(report, s.now())
	if err := s.storage.Save(ctx, s.websiteKey, site); err != nil {
		return nil, key, fmt.Errorf("failed to save website dataset: %w", err)
	}

	s.log.WithFields(map[string]interface{}{
		"report":   key,
		"keywords": len(site.Data),
	}).Info("Website dataset rebuilt from report")
	return &site, key, nil
}

// ReportTime parses the timestamp embedded in a report key
func ReportTime(key string) (time.Time, bool) {
	stamp := strings.TrimSuffix(strings.TrimPrefix(key, ReportPrefix), ".json")
	t, err := time.ParseInLocation(reportTimeLayout, stamp, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
