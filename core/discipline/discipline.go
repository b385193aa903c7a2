// Package discipline implements the control loop that steers a free-running
// oscillator onto a once-per-second reference pulse.
//
// The loop runs entirely in the tick domain of the oscillator it disciplines.
// Once per tick the driver calls Sample (raw pulse line) or Tick (already
// synchronized edge); the loop counts ticks between edges, turns each period
// into a signed error, integrates accepted errors into a coarse correction
// rate and spreads that rate into single phase steps, at most one per tick.
//
// A Loop has exactly one writer. None of its methods block.
package discipline

// Step is a phase step command for the actuator.
type Step int8

const (
	StepNone      Step = 0
	StepIncrement Step = 1
	StepDecrement Step = -1
)

func (s Step) String() string {
	switch s {
	case StepNone:
		return "none"
	case StepIncrement:
		return "increment"
	case StepDecrement:
		return "decrement"
	}
	return "unsupported"
}

// Actuator applies phase steps to the disciplined oscillator.
type Actuator interface {
	PhaseStep(s Step)
}

// Class classifies a reference period.
type Class uint8

const (
	Accepted Class = iota
	NoiseRejected
)

func (c Class) String() string {
	switch c {
	case Accepted:
		return "accepted"
	case NoiseRejected:
		return "noise_rejected"
	}
	return "unsupported"
}

// Measurement is the tick count captured at a synchronized edge.
type Measurement struct {
	RawCount int64
}

// Outcome is the result of evaluating one Measurement.
type Outcome struct {
	Measurement
	Class Class
	// Error and Clamped are only meaningful for accepted periods.
	Error           int64
	Clamped         int64
	ClampSaturated  bool
	AdjustSaturated bool
	Adjust          int64
	Locked          bool
}

// Snapshot is a read-only copy of the loop state.
type Snapshot struct {
	Adjust    int64
	Phase     int64
	LastError int64
	LockCount uint8
	Locked    bool
	Counter   int64
	TimedOut  bool

	Edges             uint64
	Accepted          uint64
	NoiseRejected     uint64
	Timeouts          uint64
	ClampSaturations  uint64
	AdjustSaturations uint64
	Increments        uint64
	Decrements        uint64
}

// Observer receives loop events. Calls happen on the driver's goroutine,
// synchronously with the tick that caused them.
type Observer interface {
	ObserveEdge(o Outcome, s Snapshot)
	ObserveTimeout(s Snapshot)
	ObserveStep(s Step)
}

type nopObserver struct{}

func (nopObserver) ObserveEdge(Outcome, Snapshot) {}
func (nopObserver) ObserveTimeout(Snapshot)       {}
func (nopObserver) ObserveStep(Step)              {}

type multiObserver []Observer

func (m multiObserver) ObserveEdge(o Outcome, s Snapshot) {
	for _, x := range m {
		x.ObserveEdge(o, s)
	}
}

func (m multiObserver) ObserveTimeout(s Snapshot) {
	for _, x := range m {
		x.ObserveTimeout(s)
	}
}

func (m multiObserver) ObserveStep(s Step) {
	for _, x := range m {
		x.ObserveStep(s)
	}
}

// Observers fans events out to every non-nil observer in obs.
func Observers(obs ...Observer) Observer {
	var m multiObserver
	for _, o := range obs {
		if o != nil {
			m = append(m, o)
		}
	}
	switch len(m) {
	case 0:
		return nopObserver{}
	case 1:
		return m[0]
	default:
		return m
	}
}
