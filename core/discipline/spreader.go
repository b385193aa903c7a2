package discipline

// phaseStepSpreader converts the rate adjust/threshold into single steps,
// evenly spaced, carrying the fractional remainder in acc so that no rounding
// error accumulates across periods.
type phaseStepSpreader struct {
	threshold int64
	acc       int64
}

func (p *phaseStepSpreader) step(adjust int64) Step {
	sum := p.acc + adjust
	var s Step
	switch {
	case sum < 0:
		p.acc = sum + p.threshold
		s = StepDecrement
	case sum >= p.threshold:
		p.acc = sum - p.threshold
		s = StepIncrement
	default:
		p.acc = sum
		s = StepNone
	}
	if p.acc < 0 || p.acc >= p.threshold {
		panic("unexpected phase accumulator")
	}
	return s
}
