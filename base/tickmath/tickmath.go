package tickmath

import (
	"math"
	"time"
)

// Clamp bounds x to [lo, hi] and reports whether x had to be saturated.
func Clamp(x, lo, hi int64) (int64, bool) {
	if lo > hi {
		panic("unexpected clamp bounds")
	}
	switch {
	case x < lo:
		return lo, true
	case x > hi:
		return hi, true
	default:
		return x, false
	}
}

// SatAdd returns x+y clamped to [lo, hi] without intermediate wraparound.
func SatAdd(x, y, lo, hi int64) (int64, bool) {
	if y > 0 && x > math.MaxInt64-y {
		return hi, true
	}
	if y < 0 && x < math.MinInt64-y {
		return lo, true
	}
	return Clamp(x+y, lo, hi)
}

func Abs(x int64) int64 {
	if x == math.MinInt64 {
		panic("unexpected value")
	}
	if x < 0 {
		return -x
	}
	return x
}

// PPM converts an error of n ticks over one reference period of ref ticks
// into parts per million.
func PPM(n, ref int64) float64 {
	if ref <= 0 {
		panic("unexpected reference frequency")
	}
	return float64(n) * 1e6 / float64(ref)
}

// Duration converts a tick count into wall time at ref ticks per second.
func Duration(ticks, ref int64) time.Duration {
	if ref <= 0 {
		panic("unexpected reference frequency")
	}
	return time.Duration(float64(ticks) / float64(ref) * float64(time.Second))
}
