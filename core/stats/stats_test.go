package stats_test

import (
	"bytes"
	"testing"

	"go.uber.org/zap/zaptest"

	"example.com/ppsdo/core/config"
	"example.com/ppsdo/core/discipline"
	"example.com/ppsdo/core/stats"
)

func TestRecorderSummary(t *testing.T) {
	log := zaptest.NewLogger(t)
	cfg := config.DefaultLoop()
	r := stats.New(log, cfg.ReferenceFrequency)
	l, err := discipline.New(log, cfg, discipline.WithObserver(r))
	if err != nil {
		t.Fatalf("discipline.New failed: %v", err)
	}

	// Errors 0, 0, 0, 0, +10, -20, then one noise period.
	for _, raw := range []int64{
		9_999_999, 9_999_999, 9_999_999, 9_999_999,
		9_999_989, 10_000_019, 123,
	} {
		l.Edge(raw)
	}
	for i := 0; i < 1000; i++ {
		l.Tick(false)
	}

	s := r.Summary()
	if s.Edges != 7 {
		t.Errorf("Edges = %d, want 7", s.Edges)
	}
	if s.Accepted != 6 {
		t.Errorf("Accepted = %d, want 6", s.Accepted)
	}
	if s.Rejected != 1 {
		t.Errorf("Rejected = %d, want 1", s.Rejected)
	}
	if s.LockedAt != 4 {
		t.Errorf("LockedAt = %d, want 4", s.LockedAt)
	}
	if s.Max != 20 {
		t.Errorf("Max = %d, want 20", s.Max)
	}
	if s.P50 != 0 {
		t.Errorf("P50 = %d, want 0", s.P50)
	}
	if s.Mean != 5 {
		t.Errorf("Mean = %v, want 5", s.Mean)
	}
	if s.Timeouts != 0 {
		t.Errorf("Timeouts = %d, want 0", s.Timeouts)
	}
	if s.Steps == 0 {
		t.Errorf("Steps = 0, want > 0")
	}

	var buf bytes.Buffer
	if err := r.Print(&buf); err != nil {
		t.Fatalf("Print failed: %v", err)
	}
	if buf.Len() == 0 {
		t.Errorf("Print wrote nothing")
	}
}

func TestRecorderNeverLocked(t *testing.T) {
	cfg := config.DefaultLoop()
	r := stats.New(nil, cfg.ReferenceFrequency)
	l, err := discipline.New(nil, cfg, discipline.WithObserver(r))
	if err != nil {
		t.Fatalf("discipline.New failed: %v", err)
	}
	for i := 0; i < 8; i++ {
		l.Edge(9_999_000)
	}
	if s := r.Summary(); s.LockedAt != 0 {
		t.Errorf("LockedAt = %d, want 0", s.LockedAt)
	}
}
