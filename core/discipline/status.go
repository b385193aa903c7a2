package discipline

import (
	"example.com/ppsdo/base/tickmath"
)

const (
	statusLockBit   = 1 << 15
	statusErrorBits = 15
	statusErrorMask = 1<<statusErrorBits - 1
	statusErrorMax  = 1<<(statusErrorBits-1) - 1
	statusErrorMin  = -1 << (statusErrorBits - 1)
)

// EncodeStatus packs the lock flag into bit 15 and the last period error into
// bits 14-0 as a 15-bit two's complement value. Errors beyond that range
// saturate so the sign is never lost.
func EncodeStatus(locked bool, lastError int64) uint16 {
	e, _ := tickmath.Clamp(lastError, statusErrorMin, statusErrorMax)
	w := uint16(e) & statusErrorMask
	if locked {
		w |= statusLockBit
	}
	return w
}

func DecodeStatus(w uint16) (locked bool, lastError int16) {
	return w&statusLockBit != 0, int16(w<<1) >> 1
}
