package logger

import (
	"strings"
	"testing"
)

func newTestReporter(total int, out *strings.Builder) *ProgressReporter {
	pr := NewProgressReporter(total, "Fetching")
	pr.logger = NewWithWriter(Config{Level: "info", Format: "json"}, out)
	return pr
}

func TestProgressReporter_CompleteAfterFinalDone(t *testing.T) {
	var out strings.Builder
	pr := newTestReporter(2, &out)

	pr.Done(true)
	pr.Done(false)
	pr.Complete()

	if n := strings.Count(out.String(), "Fetching: 2/2 (100.0%)"); n != 1 {
		t.Errorf("expected one completion line, got %d:\n%s", n, out.String())
	}
	if current, failed, total := pr.Snapshot(); current != 2 || failed != 1 || total != 2 {
		t.Errorf("unexpected snapshot %d/%d/%d", current, failed, total)
	}
}

func TestProgressReporter_CompleteBeforeTotal(t *testing.T) {
	var out strings.Builder
	pr := newTestReporter(3, &out)

	pr.Done(true)
	pr.Complete()

	if !strings.Contains(out.String(), "Fetching: 1/3 (33.3%)") {
		t.Errorf("expected final state to be logged, got:\n%s", out.String())
	}
}

func TestProgressReporter_CompleteWithNoWork(t *testing.T) {
	var out strings.Builder
	pr := newTestReporter(0, &out)

	pr.Complete()

	if !strings.Contains(out.String(), "Fetching: 0/0 (0.0%)") {
		t.Errorf("expected empty phase to be logged, got:\n%s", out.String())
	}
}
