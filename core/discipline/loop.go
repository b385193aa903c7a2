package discipline

import (
	"go.uber.org/zap"

	"example.com/ppsdo/base/zaplog"

	"example.com/ppsdo/core/config"
)

type counters struct {
	edges             uint64
	accepted          uint64
	noiseRejected     uint64
	timeouts          uint64
	clampSaturations  uint64
	adjustSaturations uint64
	increments        uint64
	decrements        uint64
}

// Loop owns the complete discipline state. Tick is the per-tick entry point,
// Edge the per-edge one; both must be called from a single goroutine.
type Loop struct {
	log *zap.Logger
	cfg config.Loop
	act Actuator
	obs Observer

	sync    EdgeSynchronizer
	counter periodCounter
	eval    evaluator
	lock    lockDetector
	integ   rateIntegrator
	spread  phaseStepSpreader

	lastError int64
	timedOut  bool
	stats     counters
}

type Option func(l *Loop)

// WithActuator forwards every non-zero step to a.
func WithActuator(a Actuator) Option {
	return func(l *Loop) { l.act = a }
}

func WithObserver(obs ...Observer) Option {
	return func(l *Loop) { l.obs = Observers(obs...) }
}

func New(log *zap.Logger, cfg config.Loop, opts ...Option) (*Loop, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zaplog.Logger()
	}
	minCount, maxCount := cfg.NoiseWindow()
	minLocked, maxLocked := cfg.LockWindow()
	l := &Loop{
		log:     log,
		cfg:     cfg,
		obs:     nopObserver{},
		sync:    newEdgeSynchronizer(cfg.SyncStages),
		counter: periodCounter{maxCount: maxCount},
		eval: evaluator{
			ref:      cfg.ReferenceFrequency,
			minCount: minCount,
			maxCount: maxCount,
		},
		lock: lockDetector{
			minLocked: minLocked,
			maxLocked: maxLocked,
		},
		integ: rateIntegrator{
			minAdjust: cfg.MinAdjust,
			maxAdjust: cfg.MaxAdjust,
		},
		spread: phaseStepSpreader{threshold: cfg.Threshold()},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

func (l *Loop) Config() config.Loop {
	return l.cfg
}

// Sample feeds one sample of the asynchronous reference pulse line through
// the edge synchronizer and runs one tick.
func (l *Loop) Sample(level bool) Step {
	return l.Tick(l.sync.Sample(level))
}

// Tick runs one tick of the loop. If edge is set, the period counter is
// captured and evaluated by Edge before the step spreader runs, so a new
// correction rate takes effect on the edge tick itself.
func (l *Loop) Tick(edge bool) Step {
	if edge {
		l.timedOut = false
		l.Edge(l.counter.capture())
	} else if l.counter.advance() {
		l.timeout()
	}
	s := l.spread.step(l.integ.adjust)
	switch s {
	case StepIncrement:
		l.stats.increments++
	case StepDecrement:
		l.stats.decrements++
	default:
		return s
	}
	if l.act != nil {
		l.act.PhaseStep(s)
	}
	l.obs.ObserveStep(s)
	return s
}

func (l *Loop) timeout() {
	wasLocked := l.lock.locked()
	l.lock.reset()
	if l.timedOut {
		return
	}
	l.timedOut = true
	l.stats.timeouts++
	l.log.Warn("reference edge missing",
		zap.Int64("count", l.counter.count),
		zap.Uint64("timeouts", l.stats.timeouts),
	)
	if wasLocked {
		l.log.Info("lock lost", zap.String("reason", "timeout"))
	}
	l.obs.ObserveTimeout(l.Snapshot())
}

// Edge evaluates one measured period. It updates the lock detector on every
// call and the correction rate only for periods within the noise window. Edge
// does not touch the period counter; Tick(true) captures it and calls Edge.
func (l *Loop) Edge(raw int64) Outcome {
	wasLocked := l.lock.locked()
	l.stats.edges++
	l.lock.observe(raw)

	o := Outcome{Measurement: Measurement{RawCount: raw}}
	err, ok := l.eval.evaluate(raw)
	if !ok {
		o.Class = NoiseRejected
		l.stats.noiseRejected++
	} else {
		o.Class = Accepted
		l.stats.accepted++
		l.lastError = err
		o.Error = err
		o.Clamped, o.ClampSaturated = clampError(err, l.cfg.MaxError)
		_, o.AdjustSaturated = l.integ.integrate(o.Clamped)
		if o.ClampSaturated {
			l.stats.clampSaturations++
			l.log.Warn("period error clamped",
				zap.Int64("error", err),
				zap.Int64("clamped", o.Clamped),
			)
		}
		if o.AdjustSaturated {
			l.stats.adjustSaturations++
			l.log.Warn("correction rate saturated",
				zap.Int64("adjust", l.integ.adjust),
				zap.Int64("min", l.cfg.MinAdjust),
				zap.Int64("max", l.cfg.MaxAdjust),
			)
		}
	}
	o.Adjust = l.integ.adjust
	o.Locked = l.lock.locked()

	l.log.Debug("discipline iteration",
		zap.Stringer("class", o.Class),
		zap.Int64("raw", raw),
		zap.Int64("error", o.Error),
		zap.Int64("clamped", o.Clamped),
		zap.Int64("adjust", o.Adjust),
		zap.Int64("phase", l.spread.acc),
		zap.Uint8("lock", l.lock.count),
	)
	switch {
	case o.Locked && !wasLocked:
		l.log.Info("lock acquired", zap.Int64("adjust", o.Adjust))
	case !o.Locked && wasLocked:
		reason := "lock_window"
		if o.Class == NoiseRejected {
			reason = "noise"
		}
		l.log.Info("lock lost", zap.String("reason", reason), zap.Int64("raw", raw))
	}

	l.obs.ObserveEdge(o, l.Snapshot())
	return o
}

func (l *Loop) Locked() bool {
	return l.lock.locked()
}

// Status returns the 16-bit telemetry word, see EncodeStatus.
func (l *Loop) Status() uint16 {
	return EncodeStatus(l.lock.locked(), l.lastError)
}

func (l *Loop) Snapshot() Snapshot {
	return Snapshot{
		Adjust:    l.integ.adjust,
		Phase:     l.spread.acc,
		LastError: l.lastError,
		LockCount: l.lock.count,
		Locked:    l.lock.locked(),
		Counter:   l.counter.count,
		TimedOut:  l.timedOut,

		Edges:             l.stats.edges,
		Accepted:          l.stats.accepted,
		NoiseRejected:     l.stats.noiseRejected,
		Timeouts:          l.stats.timeouts,
		ClampSaturations:  l.stats.clampSaturations,
		AdjustSaturations: l.stats.adjustSaturations,
		Increments:        l.stats.increments,
		Decrements:        l.stats.decrements,
	}
}
