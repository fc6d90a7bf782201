package pipeline

import (
	"time"

	"trends-go/pkg/metrics"
)

// TaskState is the lifecycle position of a remote task
type TaskState int

const (
	StatePending TaskState = iota
	StateSubmitted
	StateSubmitFailed
	StateReady
	StateFetched
	StateFetchFailed
	StateAbandoned
)

func (s TaskState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateSubmitted:
		return "submitted"
	case StateSubmitFailed:
		return "submit_failed"
	case StateReady:
		return "ready"
	case StateFetched:
		return "fetched"
	case StateFetchFailed:
		return "fetch_failed"
	case StateAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// Terminal reports states no component moves a task out of
func (s TaskState) Terminal() bool {
	switch s {
	case StateSubmitFailed, StateFetched, StateFetchFailed, StateAbandoned:
		return true
	}
	return false
}

// Task tracks one keyword through the remote lifecycle.
// Submitter writes Submitted/SubmitFailed, Poller writes Ready/Abandoned,
// Fetcher writes Fetched/FetchFailed. Phases hand tasks over sequentially.
type Task struct {
	Keyword        string
	RemoteID       string
	State          TaskState
	SubmitAttempts int
	LastError      error

	SubmittedAt time.Time
	ReadyAt     time.Time
	FinishedAt  time.Time
}

// NewTask returns a pending task
func NewTask(keyword string) *Task {
	return &Task{Keyword: keyword, State: StatePending}
}

func (t *Task) setState(s TaskState, at time.Time) {
	t.State = s
	switch s {
	case StateSubmitted:
		t.SubmittedAt = at
	case StateReady:
		t.ReadyAt = at
	default:
		if s.Terminal() {
			t.FinishedAt = at
		}
	}
	metrics.RecordTaskState(s.String())
}

// CountByState tallies tasks per state
func CountByState(tasks []*Task) map[TaskState]int {
	counts := make(map[TaskState]int)
	for _, t := range tasks {
		counts[t.State]++
	}
	return counts
}
