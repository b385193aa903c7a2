// Package stats keeps the distribution of the period errors seen by a
// discipline loop.
package stats

import (
	"io"

	"github.com/HdrHistogram/hdrhistogram-go"
	"go.uber.org/zap"

	"example.com/ppsdo/base/tickmath"
	"example.com/ppsdo/base/zaplog"

	"example.com/ppsdo/core/discipline"
)

const significantFigures = 3

// Recorder records the magnitude of every accepted period error in an HDR
// histogram.
type Recorder struct {
	log *zap.Logger
	hg  *hdrhistogram.Histogram

	rejected uint64
	timeouts uint64
	steps    uint64
	edges    uint64
	lockedAt uint64
}

var _ discipline.Observer = (*Recorder)(nil)

// New returns a Recorder for a loop running at reference frequency ref. The
// largest accepted error is bounded by the noise window, ref/1000.
func New(log *zap.Logger, ref int64) *Recorder {
	if ref <= 0 {
		panic("unexpected reference frequency")
	}
	if log == nil {
		log = zaplog.Logger()
	}
	return &Recorder{
		log: log,
		hg:  hdrhistogram.New(1, max(2, ref/1000+1), significantFigures),
	}
}

func (r *Recorder) ObserveEdge(o discipline.Outcome, s discipline.Snapshot) {
	r.edges++
	if r.lockedAt == 0 && s.Locked {
		r.lockedAt = r.edges
	}
	if o.Class != discipline.Accepted {
		r.rejected++
		return
	}
	err := r.hg.RecordValue(tickmath.Abs(o.Error))
	if err != nil {
		r.log.Info("failed to record period error", zap.Int64("error", o.Error), zap.Error(err))
	}
}

func (r *Recorder) ObserveTimeout(discipline.Snapshot) {
	r.timeouts++
}

func (r *Recorder) ObserveStep(discipline.Step) {
	r.steps++
}

type Summary struct {
	Edges    uint64
	Accepted int64
	Rejected uint64
	Timeouts uint64
	Steps    uint64
	// LockedAt is the 1-based index of the edge on which lock was first
	// reached, 0 if never.
	LockedAt uint64

	Mean   float64
	StdDev float64
	P50    int64
	P90    int64
	P99    int64
	Max    int64
}

// Summary returns the error distribution in ticks, by magnitude.
func (r *Recorder) Summary() Summary {
	return Summary{
		Edges:    r.edges,
		Accepted: r.hg.TotalCount(),
		Rejected: r.rejected,
		Timeouts: r.timeouts,
		Steps:    r.steps,
		LockedAt: r.lockedAt,
		Mean:     r.hg.Mean(),
		StdDev:   r.hg.StdDev(),
		P50:      r.hg.ValueAtQuantile(50),
		P90:      r.hg.ValueAtQuantile(90),
		P99:      r.hg.ValueAtQuantile(99),
		Max:      r.hg.Max(),
	}
}

// Print writes the percentile distribution of the error magnitudes to w.
func (r *Recorder) Print(w io.Writer) error {
	_, err := r.hg.PercentilesPrint(w, 1, 1.0)
	return err
}
