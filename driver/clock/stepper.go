package clock

import (
	"time"

	"go.uber.org/zap"

	"example.com/ppsdo/core/discipline"
)

// PhaseStepper applies every phase step to the system clock as an offset of
// StepSize.
type PhaseStepper struct {
	Log      *zap.Logger
	StepSize time.Duration
}

var _ discipline.Actuator = (*PhaseStepper)(nil)

func (c *PhaseStepper) PhaseStep(s discipline.Step) {
	if s == discipline.StepNone {
		return
	}
	c.step(time.Duration(s) * c.StepSize)
}

// LogStepper only logs phase steps and keeps their net offset.
type LogStepper struct {
	Log      *zap.Logger
	StepSize time.Duration
	offset   time.Duration
}

var _ discipline.Actuator = (*LogStepper)(nil)

func (c *LogStepper) PhaseStep(s discipline.Step) {
	if s == discipline.StepNone {
		return
	}
	c.offset += time.Duration(s) * c.StepSize
	c.Log.Debug("phase step",
		zap.Stringer("step", s),
		zap.Duration("offset", c.offset),
	)
}

// Offset returns the sum of all steps applied so far.
func (c *LogStepper) Offset() time.Duration {
	return c.offset
}
