package service

import (
	"context"

	"trends-go/pkg/pipeline"
	"trends-go/pkg/storage"
)

// DatasetService reads persisted datasets
type DatasetService interface {
	LoadWebsite(ctx context.Context) (*storage.WebsiteDataset, error)
	ConvertLatest(ctx context.Context) (*storage.WebsiteDataset, string, error)
}

// RefreshService runs a collection and reports on the last one
type RefreshService interface {
	Refresh(ctx context.Context) (*pipeline.RunReport, error)
	Status() RefreshStatus
}

// PipelineRunner runs one collection over a keyword set
type PipelineRunner interface {
	Run(ctx context.Context, keywords []string) (*pipeline.RunReport, error)
}

// KeywordSource yields the seed keywords for a run
type KeywordSource interface {
	LoadFile(ctx context.Context, path string) ([]string, error)
}
