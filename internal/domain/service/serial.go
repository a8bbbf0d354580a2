package service

import (
	"fmt"
	"math"

	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/domain/valueobject"
)

// Drift is the plain absolute difference of two serials. It does not apply
// RFC 1982 sequence-space arithmetic, so a wrapped serial reads as a very
// large drift.
func Drift(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}

func Classify(drift, maxDrift uint32) valueobject.Outcome {
	switch {
	case drift == 0:
		return valueobject.OutcomeInSync
	case drift <= maxDrift:
		return valueobject.OutcomeDriftWarning
	default:
		return valueobject.OutcomeDriftCritical
	}
}

// NextSerial returns max(a, b) + 1 and refuses to wrap past 2^32-1.
func NextSerial(a, b uint32) (uint32, error) {
	m := max(a, b)
	if m == math.MaxUint32 {
		return 0, fmt.Errorf("%w: serial %d cannot be advanced", domain.ErrSerialExhausted, m)
	}
	return m + 1, nil
}

// ToSerial validates an externally supplied serial.
func ToSerial(v int64) (uint32, error) {
	if v < 0 || v > math.MaxUint32 {
		return 0, fmt.Errorf("%w: serial %d out of range", domain.ErrInvalidInput, v)
	}
	return uint32(v), nil
}
