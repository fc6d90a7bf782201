package logger

import (
	"fmt"
	"sync"
	"time"
)

// ProgressReporter logs throttled progress for one pipeline phase
type ProgressReporter struct {
	mu          sync.Mutex
	total       int
	current     int
	failed      int
	description string
	interval    time.Duration
	startTime   time.Time
	lastReport  time.Time
	reported    int
	logger      *Logger
}

// NewProgressReporter creates a reporter that logs at most once every 5 seconds
func NewProgressReporter(total int, description string) *ProgressReporter {
	now := time.Now()
	return &ProgressReporter{
		total:       total,
		description: description,
		interval:    5 * time.Second,
		startTime:   now,
		lastReport:  now,
		reported:    -1,
		logger:      GetLogger().WithField("component", "progress"),
	}
}

// Done records one finished unit; ok=false counts it as a failure
func (pr *ProgressReporter) Done(ok bool) {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	pr.current++
	if !ok {
		pr.failed++
	}
	now := time.Now()
	if now.Sub(pr.lastReport) >= pr.interval || pr.current >= pr.total {
		pr.report()
		pr.lastReport = now
	}
}

// Complete logs the final state unless the last report already showed it
func (pr *ProgressReporter) Complete() {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	if pr.reported == pr.current {
		return
	}
	pr.report()
}

// Snapshot returns finished and failed counts
func (pr *ProgressReporter) Snapshot() (current, failed, total int) {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	return pr.current, pr.failed, pr.total
}

// must be called with lock held
func (pr *ProgressReporter) report() {
	var percentage float64
	if pr.total > 0 {
		percentage = float64(pr.current) / float64(pr.total) * 100
	}
	elapsed := time.Since(pr.startTime)

	var eta string
	if pr.current > 0 && pr.current < pr.total {
		remaining := time.Duration(pr.total-pr.current) * (elapsed / time.Duration(pr.current))
		eta = fmt.Sprintf(" (ETA: %s)", remaining.Round(time.Second))
	}

	pr.reported = pr.current
	pr.logger.WithFields(map[string]interface{}{
		"current": pr.current,
		"failed":  pr.failed,
		"total":   pr.total,
		"elapsed": elapsed.Round(time.Millisecond).String(),
	}).Info(fmt.Sprintf("%s: %d/%d (%.1f%%)%s", pr.description, pr.current, pr.total, percentage, eta))
}
