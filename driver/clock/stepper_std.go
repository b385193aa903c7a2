//go:build !linux

package clock

import (
	"time"

	"go.uber.org/zap"
)

func (c *PhaseStepper) step(offset time.Duration) {
	c.Log.Debug("PhaseStepper.step, not yet implemented", zap.Duration("offset", offset))
}
