package discipline

const (
	lockCountBits = 3
	// LockThreshold is the number of consecutive in-window periods needed
	// for lock. It is the top bit of the lock counter.
	LockThreshold = 1 << (lockCountBits - 1)
)

type lockDetector struct {
	minLocked int64
	maxLocked int64
	count     uint8
}

func (d *lockDetector) observe(raw int64) {
	if raw < d.minLocked || raw > d.maxLocked {
		d.count = 0
		return
	}
	if d.count&LockThreshold == 0 {
		d.count++
	}
}

func (d *lockDetector) reset() {
	d.count = 0
}

// locked tests the saturation bit, not count == LockThreshold.
func (d *lockDetector) locked() bool {
	return d.count&LockThreshold != 0
}
