package worker

import (
	"sync/atomic"
	"time"
)

// PoolMetrics tracks per-pool counters and durations
type PoolMetrics struct {
	TasksSubmitted atomic.Uint64
	TasksCompleted atomic.Uint64
	TasksFailed    atomic.Uint64
	Panics         atomic.Uint64

	TotalDuration atomic.Uint64 // nanoseconds
	MaxDuration   atomic.Uint64 // nanoseconds

	InFlight    atomic.Int64
	MaxInFlight atomic.Int64

	StartTime time.Time
}

// NewPoolMetrics creates a zeroed metrics instance
func NewPoolMetrics() *PoolMetrics {
	return &PoolMetrics{StartTime: time.Now()}
}

func (pm *PoolMetrics) IncrementTasksSubmitted() {
	pm.TasksSubmitted.Add(1)
}

func (pm *PoolMetrics) IncrementPanics() {
	pm.Panics.Add(1)
}

// enter and leave track the in-flight high-water mark
func (pm *PoolMetrics) enter() {
	current := pm.InFlight.Add(1)
	for {
		peak := pm.MaxInFlight.Load()
		if current <= peak || pm.MaxInFlight.CompareAndSwap(peak, current) {
			return
		}
	}
}

func (pm *PoolMetrics) leave() {
	pm.InFlight.Add(-1)
}

// RecordResult records the outcome and duration of one unit
func (pm *PoolMetrics) RecordResult(duration time.Duration, err error) {
	if err != nil {
		pm.TasksFailed.Add(1)
	} else {
		pm.TasksCompleted.Add(1)
	}

	nanos := uint64(duration.Nanoseconds())
	pm.TotalDuration.Add(nanos)
	for {
		current := pm.MaxDuration.Load()
		if nanos <= current || pm.MaxDuration.CompareAndSwap(current, nanos) {
			break
		}
	}
}

// GetSnapshot returns a point-in-time copy
func (pm *PoolMetrics) GetSnapshot() MetricsSnapshot {
	completed := pm.TasksCompleted.Load()
	failed := pm.TasksFailed.Load()

	var avg time.Duration
	if finished := completed + failed; finished > 0 {
		avg = time.Duration(pm.TotalDuration.Load() / finished)
	}

	return MetricsSnapshot{
		TasksSubmitted:  pm.TasksSubmitted.Load(),
		TasksCompleted:  completed,
		TasksFailed:     failed,
		Panics:          pm.Panics.Load(),
		MaxInFlight:     pm.MaxInFlight.Load(),
		AverageDuration: avg,
		MaxDuration:     time.Duration(pm.MaxDuration.Load()),
		Uptime:          time.Since(pm.StartTime),
	}
}

// MetricsSnapshot is a point-in-time view of PoolMetrics
type MetricsSnapshot struct {
	TasksSubmitted  uint64        `json:"tasks_submitted"`
	TasksCompleted  uint64        `json:"tasks_completed"`
	TasksFailed     uint64        `json:"tasks_failed"`
	Panics          uint64        `json:"panics"`
	MaxInFlight     int64         `json:"max_in_flight"`
	AverageDuration time.Duration `json:"average_duration"`
	MaxDuration     time.Duration `json:"max_duration"`
	Uptime          time.Duration `json:"uptime"`
}
