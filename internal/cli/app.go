package cli

import (
	"fmt"

	"trends-go/internal/config"
	"trends-go/internal/handler"
	"trends-go/internal/service"
	"trends-go/pkg/api"
	"trends-go/pkg/backend"
	"trends-go/pkg/extractor"
	"trends-go/pkg/keywords"
	"trends-go/pkg/logger"
	"trends-go/pkg/pipeline"
	"trends-go/pkg/storage"
)

// NewDatasetStore opens the configured data directory
func NewDatasetStore(cfg *config.Config) (*storage.DatasetStore, error) {
	fs, err := storage.NewFileStorage(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open data dir: %w", err)
	}
	return storage.NewDatasetStore(fs, cfg.Storage.WebsiteFile), nil
}

// NewPipeline wires the remote client, extractor, scores and persistence
func NewPipeline(cfg *config.Config, store pipeline.Persister) (*pipeline.Pipeline, error) {
	if !cfg.HasCredentials() {
		return nil, fmt.Errorf("API credentials missing: set TRENDS_API_LOGIN and TRENDS_API_PASSWORD")
	}

	client := api.NewClient(cfg.API.BaseURL, cfg.API.Login, cfg.API.Password)
	deps := pipeline.Deps{
		Client:    client,
		Extractor: extractor.NewRisingExtractor(cfg.Fetch.MaxEntries, cfg.API.TimeRange, extractor.NewLinkBuilder(cfg.API.Geo, cfg.API.Language)),
		Scores:    keywords.NewScoreTable(nil),
		Persister: store,
	}

	publisher, err := NewPublisher(cfg)
	if err != nil {
		return nil, err
	}
	if publisher != nil {
		deps.Publisher = publisher
	}

	return pipeline.New(deps, pipelineConfig(cfg)), nil
}

func pipelineConfig(cfg *config.Config) pipeline.Config {
	return pipeline.Config{
		TimeRange:  cfg.API.TimeRange,
		RateLimit:  cfg.Limiter.Limit,
		RateWindow: cfg.Limiter.Window,
		Submit: pipeline.SubmitterConfig{
			Workers:   cfg.Submit.Workers,
			BatchSize: cfg.Submit.BatchSize,
			Request: api.RequestOptions{
				LocationName: cfg.API.Location,
				LanguageCode: cfg.API.Language,
			},
			Backoff: api.BackoffPolicy{
				MaxAttempts: cfg.Submit.MaxAttempts,
				BaseDelay:   cfg.Submit.BaseDelay,
				Factor:      cfg.Submit.Factor,
				MaxDelay:    cfg.Submit.MaxDelay,
			},
		},
		Poll: pipeline.PollerConfig{
			Interval: cfg.Poll.Interval,
			MaxWait:  cfg.Poll.MaxWait,
		},
		Fetch: pipeline.FetcherConfig{
			Workers: cfg.Fetch.Workers,
			Timeout: cfg.Fetch.Timeout,
		},
	}
}

// NewPublisher returns nil when no collector is configured
func NewPublisher(cfg *config.Config) (*backend.Client, error) {
	if !cfg.Backend.Enabled() {
		return nil, nil
	}
	client, err := backend.NewClient(cfg.Backend)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}
	return client, nil
}

// NewKeywordLoader applies the configured limit
func NewKeywordLoader(cfg *config.Config) *keywords.Loader {
	return keywords.NewLoader(keywords.LoadOptions{Limit: cfg.Keywords.Limit})
}

// BuildServer wires the dashboard. Without credentials it serves data read-only.
func BuildServer(cfg *config.Config) (*handler.Server, error) {
	store, err := NewDatasetStore(cfg)
	if err != nil {
		return nil, err
	}

	var refresher service.RefreshService
	if cfg.HasCredentials() {
		p, err := NewPipeline(cfg, store)
		if err != nil {
			return nil, err
		}
		refresher = service.NewRefresher(p, NewKeywordLoader(cfg), cfg.Keywords.File)
	} else {
		logger.GetLogger().Warn("API credentials not configured, refresh disabled")
	}

	return handler.NewServer(handler.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		StaticDir:    cfg.Server.StaticDir,
		StaleAfter:   cfg.Server.StaleAfter,
		RefreshCron:  cfg.Server.RefreshCron,
		RefreshStale: cfg.Server.RefreshStale,
		OpenBrowser:  cfg.Server.OpenBrowser,
	}, store, refresher), nil
}
