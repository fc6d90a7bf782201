package backend

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"trends-go/pkg/logger"
	"trends-go/pkg/metrics"
	"trends-go/pkg/storage"
	"trends-go/pkg/worker"
)

// ErrNoAPIKey is returned when a collector URL is set without a key
var ErrNoAPIKey = errors.New("backend API key is required - set TRENDS_BACKEND_API_KEY")

// Client publishes website datasets to a downstream collector
type Client struct {
	config Config
	client *fasthttp.Client
	pool   *worker.Pool
	log    *logger.Logger
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying fasthttp client
func WithHTTPClient(hc *fasthttp.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// NewClient creates a collector client
func NewClient(config Config, opts ...Option) (*Client, error) {
	if config.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBatchSize
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultConcurrency
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	c := &Client{
		config: config,
		client: &fasthttp.Client{
			ReadTimeout:         config.Timeout,
			WriteTimeout:        config.Timeout,
			MaxConnsPerHost:     config.Concurrency * 2,
			MaxIdleConnDuration: 90 * time.Second,
		},
		pool: worker.NewPool("backend", config.Concurrency),
		log:  logger.GetLogger().WithField("component", "backend_client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Publish splits the dataset into keyword batches and posts them concurrently.
// An empty dataset is still posted once so the collector sees the run.
func (c *Client) Publish(ctx context.Context, site storage.WebsiteDataset) error {
	batches := c.split(site)

	c.log.WithFields(map[string]interface{}{
		"keywords":      len(site.Data),
		"batch_size":    c.config.BatchSize,
		"total_batches": len(batches),
	}).Info("Publishing dataset to backend")

	err := c.pool.Run(ctx, len(batches), func(ctx context.Context, i int) error {
		resp, err := c.SubmitBatch(ctx, batches[i])
		if err != nil {
			return fmt.Errorf("batch %d: %w", batches[i].Batch, err)
		}
		if resp.Code != 0 {
			return fmt.Errorf("batch %d: backend returned code %d: %s", batches[i].Batch, resp.Code, resp.Message)
		}
		return nil
	})

	if err != nil {
		metrics.PublishTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to publish dataset: %w", err)
	}
	metrics.PublishTotal.WithLabelValues("success").Inc()
	c.log.WithField("total_batches", len(batches)).Info("Dataset published")
	return nil
}

func (c *Client) split(site storage.WebsiteDataset) []TrendsBatch {
	entries := site.Entries()
	total := (len(entries) + c.config.BatchSize - 1) / c.config.BatchSize
	if total == 0 {
		total = 1
	}

	batches := make([]TrendsBatch, 0, total)
	for i := 0; i < total; i++ {
		start := i * c.config.BatchSize
		end := min(start+c.config.BatchSize, len(entries))
		batches = append(batches, TrendsBatch{
			RunID:       site.RunID,
			TimeRange:   site.TimeRange,
			LastUpdated: site.LastUpdated,
			Batch:       i + 1,
			Batches:     total,
			Keywords:    append([]storage.KeywordEntries{}, entries[start:end]...),
		})
	}
	return batches
}

// SubmitBatch posts a single batch, gzip-compressed when enabled
func (c *Client) SubmitBatch(ctx context.Context, batch TrendsBatch) (*Response, error) {
	jsonData, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal batch: %w", err)
	}

	body := jsonData
	if c.config.EnableGzip {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(jsonData); err != nil {
			zw.Close()
			return nil, fmt.Errorf("failed to write to gzip: %w", err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("failed to close gzip writer: %w", err)
		}
		body = buf.Bytes()

		c.log.WithFields(map[string]interface{}{
			"original_size":     len(jsonData),
			"compressed_size":   len(body),
			"compression_ratio": fmt.Sprintf("%.2f%%", float64(len(body))/float64(len(jsonData))*100),
		}).Debug("Batch compressed with GZIP")
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.config.BaseURL + BatchPath)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("X-API-Key", c.config.APIKey)
	if c.config.EnableGzip {
		req.Header.Set("Content-Encoding", "gzip")
	}
	req.SetBody(body)

	timeout := c.config.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
	}
	if err := c.client.DoTimeout(req, resp, timeout); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("backend returned status %d: %s", resp.StatusCode(), truncate(resp.Body(), 200))
	}

	var out Response
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	c.log.WithFields(map[string]interface{}{
		"batch":         batch.Batch,
		"keywords":      len(batch.Keywords),
		"response_code": out.Code,
	}).Debug("Batch submitted")
	return &out, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
