package discipline

type evaluator struct {
	ref      int64
	minCount int64
	maxCount int64
}

// evaluate turns a raw period count into a signed frequency error. Counts
// outside the noise window yield ok == false.
//
// A period of exactly ref ticks captures ref-1, since the edge tick itself
// resets the counter instead of incrementing it.
func (e evaluator) evaluate(raw int64) (err int64, ok bool) {
	if raw < e.minCount || raw > e.maxCount {
		return 0, false
	}
	return (e.ref - 1) - raw, true
}
