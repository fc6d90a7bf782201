package backend

import (
	"time"

	"trends-go/pkg/storage"
)

const (
	DefaultBatchSize   = 50
	DefaultTimeout     = 60 * time.Second
	DefaultConcurrency = 3
	BatchPath          = "/api/v1/rising-trends/batch"
)

// TrendsBatch is one POST body: a slice of the website dataset
type TrendsBatch struct {
	RunID       string                   `json:"run_id,omitempty"`
	TimeRange   string                   `json:"time_range,omitempty"`
	LastUpdated string                   `json:"last_updated"`
	Batch       int                      `json:"batch"`
	Batches     int                      `json:"batches"`
	Keywords    []storage.KeywordEntries `json:"keywords"`
}

// Response is the collector's reply
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// Config holds collector settings
type Config struct {
	BaseURL     string        `mapstructure:"url"`
	APIKey      string        `mapstructure:"api_key"`
	BatchSize   int           `mapstructure:"batch_size"` // keywords per request
	Concurrency int           `mapstructure:"concurrency"`
	EnableGzip  bool          `mapstructure:"enable_gzip"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// Enabled reports whether a collector is configured
func (c Config) Enabled() bool {
	return c.BaseURL != ""
}
