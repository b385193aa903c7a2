package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"example.com/ppsdo/base/floats"
	"example.com/ppsdo/base/metrics"
	"example.com/ppsdo/base/tickmath"

	"example.com/ppsdo/core/discipline"
)

// Monitor exports loop events as Prometheus metrics and keeps a median
// estimate of the frequency offset over the last accepted periods.
type Monitor struct {
	ref int64

	edges             prometheus.Counter
	accepted          prometheus.Counter
	rejected          prometheus.Counter
	timeouts          prometheus.Counter
	clampSaturations  prometheus.Counter
	adjustSaturations prometheus.Counter
	increments        prometheus.Counter
	decrements        prometheus.Counter
	locked            prometheus.Gauge
	adjust            prometheus.Gauge
	lastError         prometheus.Gauge
	offset            prometheus.Gauge

	window []float64
	next   int
	full   bool
}

var _ discipline.Observer = (*Monitor)(nil)

// New registers the loop metrics with reg. window is the number of accepted
// periods in the frequency offset estimate.
func New(reg prometheus.Registerer, ref int64, window int) *Monitor {
	if ref <= 0 {
		panic("unexpected reference frequency")
	}
	if window <= 0 {
		panic("unexpected monitor window")
	}
	f := promauto.With(reg)
	return &Monitor{
		ref: ref,
		edges: f.NewCounter(prometheus.CounterOpts{
			Name: metrics.LoopEdgesN,
			Help: metrics.LoopEdgesH,
		}),
		accepted: f.NewCounter(prometheus.CounterOpts{
			Name: metrics.LoopEdgesAcceptedN,
			Help: metrics.LoopEdgesAcceptedH,
		}),
		rejected: f.NewCounter(prometheus.CounterOpts{
			Name: metrics.LoopEdgesRejectedN,
			Help: metrics.LoopEdgesRejectedH,
		}),
		timeouts: f.NewCounter(prometheus.CounterOpts{
			Name: metrics.LoopTimeoutsN,
			Help: metrics.LoopTimeoutsH,
		}),
		clampSaturations: f.NewCounter(prometheus.CounterOpts{
			Name: metrics.LoopClampSaturationsN,
			Help: metrics.LoopClampSaturationsH,
		}),
		adjustSaturations: f.NewCounter(prometheus.CounterOpts{
			Name: metrics.LoopAdjustSaturationsN,
			Help: metrics.LoopAdjustSaturationsH,
		}),
		increments: f.NewCounter(prometheus.CounterOpts{
			Name: metrics.ActuatorStepsIncrementN,
			Help: metrics.ActuatorStepsIncrementH,
		}),
		decrements: f.NewCounter(prometheus.CounterOpts{
			Name: metrics.ActuatorStepsDecrementN,
			Help: metrics.ActuatorStepsDecrementH,
		}),
		locked: f.NewGauge(prometheus.GaugeOpts{
			Name: metrics.LoopLockedN,
			Help: metrics.LoopLockedH,
		}),
		adjust: f.NewGauge(prometheus.GaugeOpts{
			Name: metrics.LoopAdjustN,
			Help: metrics.LoopAdjustH,
		}),
		lastError: f.NewGauge(prometheus.GaugeOpts{
			Name: metrics.LoopLastErrorN,
			Help: metrics.LoopLastErrorH,
		}),
		offset: f.NewGauge(prometheus.GaugeOpts{
			Name: metrics.LoopFrequencyOffsetN,
			Help: metrics.LoopFrequencyOffsetH,
		}),
		window: make([]float64, window),
	}
}

func (m *Monitor) ObserveEdge(o discipline.Outcome, s discipline.Snapshot) {
	m.edges.Inc()
	switch o.Class {
	case discipline.Accepted:
		m.accepted.Inc()
		// A period longer than nominal means the oscillator runs fast.
		m.window[m.next] = tickmath.PPM(-o.Error, m.ref)
		m.next++
		if m.next == len(m.window) {
			m.next = 0
			m.full = true
		}
		m.offset.Set(m.FrequencyOffset())
	case discipline.NoiseRejected:
		m.rejected.Inc()
	}
	if o.ClampSaturated {
		m.clampSaturations.Inc()
	}
	if o.AdjustSaturated {
		m.adjustSaturations.Inc()
	}
	m.setState(s)
}

func (m *Monitor) ObserveTimeout(s discipline.Snapshot) {
	m.timeouts.Inc()
	m.setState(s)
}

func (m *Monitor) ObserveStep(s discipline.Step) {
	switch s {
	case discipline.StepIncrement:
		m.increments.Inc()
	case discipline.StepDecrement:
		m.decrements.Inc()
	}
}

func (m *Monitor) setState(s discipline.Snapshot) {
	if s.Locked {
		m.locked.Set(1)
	} else {
		m.locked.Set(0)
	}
	m.adjust.Set(float64(s.Adjust))
	m.lastError.Set(float64(s.LastError))
}

// FrequencyOffset returns the median offset of the oscillator from the
// reference over the recent accepted periods, in ppm. It is 0 before the
// first accepted period.
func (m *Monitor) FrequencyOffset() float64 {
	n := m.next
	if m.full {
		n = len(m.window)
	}
	if n == 0 {
		return 0
	}
	return floats.Median(m.window[:n])
}
