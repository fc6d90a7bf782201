package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/valyala/fasthttp"

	"trends-go/pkg/logger"
	"trends-go/pkg/metrics"
)

const (
	DefaultBaseURL = "https://api.dataforseo.com/v3/keywords_data/google_trends/explore"

	defaultSubmitTimeout  = 60 * time.Second
	defaultRequestTimeout = 30 * time.Second
)

// Client talks to the explore task endpoints with Basic auth
type Client struct {
	baseURL        string
	authHeader     string
	httpClient     *fasthttp.Client
	submitTimeout  time.Duration
	requestTimeout time.Duration
	log            *logger.Logger
	secLog         *logger.SecurityLogger

	totalRequests  uint64
	failedRequests uint64
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying fasthttp client
func WithHTTPClient(hc *fasthttp.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeouts sets per-call timeouts for task_post and for the read endpoints
func WithTimeouts(submit, request time.Duration) Option {
	return func(c *Client) {
		if submit > 0 {
			c.submitTimeout = submit
		}
		if request > 0 {
			c.requestTimeout = request
		}
	}
}

// NewClient creates an API client. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL, login, password string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		authHeader:     "Basic " + base64.StdEncoding.EncodeToString([]byte(login+":"+password)),
		submitTimeout:  defaultSubmitTimeout,
		requestTimeout: defaultRequestTimeout,
		log:            logger.GetLogger().WithField("component", "api_client"),
		secLog:         logger.NewSecurityLogger(),
		httpClient: &fasthttp.Client{
			Name:                "trends-go/1.0",
			MaxConnsPerHost:     64,
			MaxIdleConnDuration: 90 * time.Second,
			ReadTimeout:         defaultSubmitTimeout,
			WriteTimeout:        defaultSubmitTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PostTasks submits task objects in one call and returns one PostedTask per element
func (c *Client) PostTasks(ctx context.Context, tasks []TaskRequest) ([]PostedTask, error) {
	if len(tasks) == 0 {
		return nil, fmt.Errorf("no tasks to post")
	}
	body, err := json.Marshal(tasks)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tasks: %w", err)
	}

	env, err := c.do(ctx, fasthttp.MethodPost, "/task_post", body, c.submitTimeout)
	if err != nil {
		return nil, err
	}
	if err := env.Err(); err != nil {
		return nil, err
	}

	posted := make([]PostedTask, 0, len(env.Tasks))
	for _, t := range env.Tasks {
		posted = append(posted, PostedTask{
			ID:            t.ID,
			Tag:           t.Data.Tag,
			StatusCode:    t.StatusCode,
			StatusMessage: t.StatusMessage,
		})
	}
	return posted, nil
}

// TasksReady lists ids of every completed task not yet collected, including other runs'
func (c *Client) TasksReady(ctx context.Context) ([]string, error) {
	env, err := c.do(ctx, fasthttp.MethodGet, "/tasks_ready", nil, c.requestTimeout)
	if err != nil {
		return nil, err
	}
	if err := env.Err(); err != nil {
		return nil, err
	}

	var ids []string
	for _, t := range env.Tasks {
		if len(t.Result) == 0 {
			continue
		}
		var results []struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(t.Result, &results); err != nil {
			c.log.WithError(err).Debug("Skipping unreadable tasks_ready entry")
			continue
		}
		for _, r := range results {
			if r.ID != "" {
				ids = append(ids, r.ID)
			}
		}
	}
	return ids, nil
}

// TaskGet retrieves a completed task
func (c *Client) TaskGet(ctx context.Context, id string) (*TaskPayload, error) {
	if id == "" {
		return nil, fmt.Errorf("empty task id")
	}
	env, err := c.do(ctx, fasthttp.MethodGet, "/task_get/"+url.PathEscape(id), nil, c.requestTimeout)
	if err != nil {
		return nil, err
	}
	if err := env.Err(); err != nil {
		return nil, err
	}
	if len(env.Tasks) == 0 {
		return nil, ErrEmptyResult
	}

	task := env.Tasks[0]
	if task.StatusCode != StatusOK {
		return nil, &RejectionError{HTTPStatus: env.HTTPStatus, Code: task.StatusCode, Message: task.StatusMessage}
	}
	if !task.HasResult() {
		return nil, ErrEmptyResult
	}

	taskID := task.ID
	if taskID == "" {
		taskID = id
	}
	return &TaskPayload{
		ID:       taskID,
		Tag:      task.Data.Tag,
		Keywords: task.Data.Keywords,
		Result:   task.Result,
	}, nil
}

// Stats returns the total and failed request counters
func (c *Client) Stats() (total, failed uint64) {
	return atomic.LoadUint64(&c.totalRequests), atomic.LoadUint64(&c.failedRequests)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, timeout time.Duration) (Envelope, error) {
	if err := ctx.Err(); err != nil {
		return Envelope{}, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	atomic.AddUint64(&c.totalRequests, 1)
	endpoint := strings.SplitN(strings.TrimPrefix(path, "/"), "/", 2)[0]
	started := time.Now()

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(method)
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	if err := c.httpClient.DoTimeout(req, resp, timeout); err != nil {
		atomic.AddUint64(&c.failedRequests, 1)
		metrics.RecordAPICall(endpoint, started, err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Envelope{}, ctxErr
		}
		c.secLog.SafeError("API request failed", err, map[string]interface{}{
			"endpoint": c.baseURL + path,
		})
		return Envelope{}, &TransportError{Endpoint: endpoint, Err: err}
	}

	env := Decode(resp.StatusCode(), resp.Body())
	callErr := env.Err()
	if callErr != nil {
		atomic.AddUint64(&c.failedRequests, 1)
	}
	metrics.RecordAPICall(endpoint, started, callErr)

	c.log.WithFields(map[string]interface{}{
		"endpoint":    endpoint,
		"http_status": env.HTTPStatus,
		"kind":        env.Kind.String(),
		"duration_ms": time.Since(started).Milliseconds(),
	}).Debug("API call completed")
	return env, nil
}
