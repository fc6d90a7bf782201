package handler

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"trends-go/internal/service"
	"trends-go/pkg/logger"
	"trends-go/pkg/storage"
)

// PortRange is how many consecutive ports are tried from the configured one
const PortRange = 10

// ServerConfig controls the dashboard server
type ServerConfig struct {
	Host         string
	Port         int
	StaticDir    string
	StaleAfter   time.Duration
	RefreshCron  string
	RefreshStale bool
	OpenBrowser  bool
	BrowserDelay time.Duration
}

// Server serves the website dataset, run status and metrics
type Server struct {
	app       *fiber.App
	cfg       ServerConfig
	datasets  service.DatasetService
	refresher service.RefreshService
	cron      *cron.Cron
	now       func() time.Time
	opener    func(url string) error
	log       *logger.Logger

	addr string
}

// StatusResponse is the /api/status body
type StatusResponse struct {
	Status      string                 `json:"status"`
	Timestamp   string                 `json:"timestamp"`
	HasData     bool                   `json:"has_data"`
	LastUpdated string                 `json:"last_updated,omitempty"`
	AgeSeconds  int64                  `json:"age_seconds,omitempty"`
	Stale       bool                   `json:"stale"`
	Keywords    int                    `json:"keywords"`
	Queries     int                    `json:"queries"`
	Refresh     *service.RefreshStatus `json:"refresh,omitempty"`
}

// TrendsResponse is the /api/trends body
type TrendsResponse struct {
	LastUpdated  string                   `json:"last_updated"`
	TimeRange    string                   `json:"time_range,omitempty"`
	TotalSeeds   int                      `json:"total_seeds"`
	TotalQueries int                      `json:"total_queries"`
	Keywords     []storage.KeywordEntries `json:"keywords"`
}

// NewServer builds the fiber app. refresher may be nil, disabling refresh features.
func NewServer(cfg ServerConfig, datasets service.DatasetService, refresher service.RefreshService) *Server {
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 24 * time.Hour
	}
	if cfg.BrowserDelay <= 0 {
		cfg.BrowserDelay = time.Second
	}

	s := &Server{
		cfg:       cfg,
		datasets:  datasets,
		refresher: refresher,
		now:       time.Now,
		opener:    OpenBrowser,
		log:       logger.GetLogger().WithField("component", "dashboard"),
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})
	app.Use(recover.New())

	app.Get("/trending_data.json", s.handleWebsite)
	app.Get("/api/trends", s.handleTrends)
	app.Get("/api/status", s.handleStatus)
	app.Post("/api/refresh", s.handleRefresh)
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	if cfg.StaticDir != "" {
		if info, err := os.Stat(cfg.StaticDir); err == nil && info.IsDir() {
			app.Static("/", cfg.StaticDir, fiber.Static{Index: "index.html"})
		} else {
			s.log.WithField("static_dir", cfg.StaticDir).Warn("Static directory not found, serving API only")
		}
	}

	s.app = app
	return s
}

// App exposes the fiber app
func (s *Server) App() *fiber.App {
	return s.app
}

// Addr is the bound address once Start has listened
func (s *Server) Addr() string {
	return s.addr
}

func (s *Server) loadWebsite(ctx context.Context) (*storage.WebsiteDataset, error) {
	site, err := s.datasets.LoadWebsite(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fiber.NewError(fiber.StatusNotFound, "no trending data yet")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}
	return site, nil
}

func (s *Server) handleWebsite(c *fiber.Ctx) error {
	site, err := s.loadWebsite(c.UserContext())
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderCacheControl, "no-cache")
	return c.JSON(site)
}

func (s *Server) handleTrends(c *fiber.Ctx) error {
	site, err := s.loadWebsite(c.UserContext())
	if err != nil {
		return err
	}

	entries := site.Entries()
	if kw := c.Query("keyword"); kw != "" {
		filtered := entries[:0]
		for _, e := range entries {
			if e.Keyword == kw {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}

	return c.JSON(TrendsResponse{
		LastUpdated:  site.LastUpdated,
		TimeRange:    site.TimeRange,
		TotalSeeds:   site.TotalSeeds,
		TotalQueries: site.TotalQueries,
		Keywords:     entries,
	})
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	now := s.now()
	resp := StatusResponse{
		Status:    "ok",
		Timestamp: now.Format(time.RFC3339),
	}
	if s.refresher != nil {
		st := s.refresher.Status()
		resp.Refresh = &st
	}

	site, err := s.datasets.LoadWebsite(c.UserContext())
	switch {
	case errors.Is(err, storage.ErrNotFound):
		resp.Status = "empty"
		resp.Stale = true
	case err != nil:
		return fmt.Errorf("failed to load dataset: %w", err)
	default:
		resp.HasData = true
		resp.LastUpdated = site.LastUpdated
		resp.Keywords = len(site.Data)
		resp.Queries = site.TotalQueries
		if updated, ok := parseUpdated(site.LastUpdated); ok {
			resp.AgeSeconds = int64(now.Sub(updated).Seconds())
		}
		resp.Stale = IsStale(site, now, s.cfg.StaleAfter)
		if resp.Stale {
			resp.Status = "stale"
		}
	}
	return c.JSON(resp)
}

func (s *Server) handleRefresh(c *fiber.Ctx) error {
	if s.refresher == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "refresh is not configured")
	}
	if s.refresher.Status().Running {
		return fiber.NewError(fiber.StatusConflict, service.ErrRefreshRunning.Error())
	}
	go s.refresh("api")
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "refresh started"})
}

func (s *Server) refresh(trigger string) {
	log := s.log.WithField("trigger", trigger)
	log.Info("Refreshing trending data")
	report, err := s.refresher.Refresh(context.Background())
	if errors.Is(err, service.ErrRefreshRunning) {
		log.Debug("Refresh skipped, one is already running")
		return
	}
	if err != nil {
		return
	}
	log.WithFields(map[string]interface{}{
		"run_id":     report.Summary.RunID,
		"completion": report.Summary.CompletionRate,
	}).Info("Trending data refreshed")
}

// IsStale reports whether the dataset is older than maxAge or undated
func IsStale(site *storage.WebsiteDataset, now time.Time, maxAge time.Duration) bool {
	if site == nil {
		return true
	}
	updated, ok := parseUpdated(site.LastUpdated)
	if !ok {
		return true
	}
	return now.Sub(updated) > maxAge
}

func parseUpdated(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Listen binds the first free port in [Port, Port+PortRange)
func (s *Server) Listen() (net.Listener, error) {
	var lastErr error
	for port := s.cfg.Port; port < s.cfg.Port+PortRange; port++ {
		addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(port))
		ln, err := net.Listen("tcp", addr)
		if err == nil {
			if port != s.cfg.Port {
				s.log.WithFields(map[string]interface{}{
					"requested": s.cfg.Port,
					"port":      port,
				}).Warn("Port in use, using next free port")
			}
			s.addr = ln.Addr().String()
			return ln, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("no free port in %d-%d: %w", s.cfg.Port, s.cfg.Port+PortRange-1, lastErr)
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}

	if err := s.startBackground(ctx); err != nil {
		ln.Close()
		return err
	}

	url := "http://" + s.addr
	s.log.WithField("url", url).Info("Dashboard server started")
	if s.cfg.OpenBrowser {
		go s.openAfterDelay(ctx, url)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listener(ln)
	}()

	select {
	case err := <-errCh:
		s.stopCron()
		return err
	case <-ctx.Done():
	}

	s.log.Info("Shutting down dashboard server")
	s.stopCron()
	if err := s.app.ShutdownWithTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return <-errCh
}

// startBackground checks freshness and starts the cron refresh schedule
func (s *Server) startBackground(ctx context.Context) error {
	if s.refresher == nil {
		return nil
	}

	if s.cfg.RefreshStale {
		site, err := s.datasets.LoadWebsite(ctx)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.log.WithError(err).Warn("Could not read dataset for freshness check")
		}
		if err == nil && !IsStale(site, s.now(), s.cfg.StaleAfter) {
			s.log.WithField("last_updated", site.LastUpdated).Info("Trending data is fresh")
		} else {
			s.log.WithField("max_age", s.cfg.StaleAfter.String()).Warn("Trending data missing or stale, refreshing in background")
			go s.refresh("stale")
		}
	}

	if s.cfg.RefreshCron != "" {
		s.cron = cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))
		if _, err := s.cron.AddFunc(s.cfg.RefreshCron, func() { s.refresh("cron") }); err != nil {
			return fmt.Errorf("invalid refresh schedule %q: %w", s.cfg.RefreshCron, err)
		}
		s.cron.Start()
		s.log.WithField("schedule", s.cfg.RefreshCron).Info("Scheduled refresh enabled")
	}
	return nil
}

func (s *Server) stopCron() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

func (s *Server) openAfterDelay(ctx context.Context, url string) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(s.cfg.BrowserDelay):
	}
	if err := s.opener(url); err != nil {
		s.log.WithError(err).Warn("Could not open browser")
	}
}
