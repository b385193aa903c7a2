package discipline

import (
	"example.com/ppsdo/base/tickmath"
)

// clampError bounds the contribution of a single period to the integrator.
func clampError(err, maxErr int64) (int64, bool) {
	return tickmath.Clamp(err, -maxErr, maxErr)
}

// rateIntegrator holds the coarse correction rate. It changes once per
// accepted period, never per tick.
type rateIntegrator struct {
	adjust    int64
	minAdjust int64
	maxAdjust int64
}

func (r *rateIntegrator) integrate(clamped int64) (int64, bool) {
	var saturated bool
	r.adjust, saturated = tickmath.SatAdd(r.adjust, clamped, r.minAdjust, r.maxAdjust)
	return r.adjust, saturated
}
