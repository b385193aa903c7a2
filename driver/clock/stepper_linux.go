//go:build linux

package clock

import (
	"time"

	"go.uber.org/zap"

	"golang.org/x/sys/unix"

	"example.com/ppsdo/base/unixutil"
)

func (c *PhaseStepper) step(offset time.Duration) {
	c.Log.Debug("stepping clock", zap.Duration("offset", offset))
	tx := unix.Timex{
		Modes: unix.ADJ_SETOFFSET | unix.ADJ_NANO,
		Time:  unixutil.TimevalFromNsec(offset.Nanoseconds()),
	}
	_, err := unix.ClockAdjtime(unix.CLOCK_REALTIME, &tx)
	if err != nil {
		c.Log.Fatal("unix.ClockAdjtime failed", zap.Error(err))
	}
}
