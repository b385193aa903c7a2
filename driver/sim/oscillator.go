// Package sim simulates a free-running oscillator and its PPS reference so
// that a discipline loop can be run in closed loop without hardware.
//
// Time is kept in sub-ticks, subTicks per oscillator tick. A phase step
// shortens or lengthens the current tick by one sub-tick.
package sim

import (
	"context"
	"errors"
	"math"

	"example.com/ppsdo/core/config"
	"example.com/ppsdo/core/discipline"
)

// Number of ticks between context checks in Run.
const checkInterval = 1 << 16

var errPeriods = errors.New("simulated run too long")

type Oscillator struct {
	subTicks int64
	period   int64
	width    int64
	start    int64
	now      int64
	ticks    int64
	dropouts map[int64]struct{}
}

func New(loop config.Loop, s config.Simulation) (*Oscillator, error) {
	nominal := loop.ReferenceFrequency * s.SubTicks
	offset := int64(math.Round(float64(nominal) * float64(s.OffsetPPB) / 1e9))
	o := &Oscillator{
		subTicks: s.SubTicks,
		period:   nominal + offset,
		width:    s.PulseWidth * s.SubTicks,
		dropouts: make(map[int64]struct{}, len(s.Dropouts)),
	}
	if o.period <= 0 || o.width <= 0 || o.width >= o.period {
		panic("unexpected simulation parameters")
	}
	o.start = o.period / 2
	o.now = o.start
	if int64(s.Periods) > (math.MaxInt64-o.start)/o.period-1 {
		return nil, errPeriods
	}
	for _, p := range s.Dropouts {
		o.dropouts[int64(p)] = struct{}{}
	}
	return o, nil
}

// Level returns the reference pulse line at the current tick.
func (o *Oscillator) Level() bool {
	if o.now%o.period >= o.width {
		return false
	}
	// The run starts half a period before the first pulse.
	_, dropped := o.dropouts[o.now/o.period-1]
	return !dropped
}

// Advance ends the current tick. A decrement lengthens the tick, so the
// oscillator falls behind the reference.
func (o *Oscillator) Advance(s discipline.Step) {
	o.now += o.subTicks - int64(s)
	o.ticks++
}

func (o *Oscillator) Ticks() int64 {
	return o.ticks
}

// Run drives l with the pulse line until periods reference pulses have been
// emitted and seen by the loop.
func (o *Oscillator) Run(ctx context.Context, l *discipline.Loop, periods int) error {
	end := o.start + int64(periods)*o.period
	if periods > 0 {
		// Cover the synchronizer latency after the last pulse.
		end += o.width
	}
	for i := 0; o.now < end; i++ {
		if i%checkInterval == 0 {
			err := ctx.Err()
			if err != nil {
				return err
			}
		}
		o.Advance(l.Sample(o.Level()))
	}
	return nil
}
