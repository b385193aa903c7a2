package floats

import (
	"slices"
)

func midpoint(x, y float64) float64 {
	return x + (y-x)/2.0
}

// Median returns the median of fs without reordering fs.
func Median(fs []float64) float64 {
	n := len(fs)
	if n == 0 {
		panic("unexpected number of values")
	}
	s := slices.Clone(fs)
	slices.Sort(s)
	i := n / 2
	if n%2 != 0 {
		return s[i]
	}
	return midpoint(s[i-1], s[i])
}
