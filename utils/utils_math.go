package utils

import (
	"math"

	safemath "github.com/ethereum/go-ethereum/common/math"
)

// SaturatingAdd returns a+b, or math.MaxUint64 on overflow
func SaturatingAdd(a, b uint64) uint64 {
	sum, overflow := safemath.SafeAdd(a, b)
	if overflow {
		return math.MaxUint64
	}
	return sum
}

// SaturatingSub returns a-b, or 0 when b > a
func SaturatingSub(a, b uint64) uint64 {
	diff, underflow := safemath.SafeSub(a, b)
	if underflow {
		return 0
	}
	return diff
}

// SaturatingMul returns a*b, or math.MaxUint64 on overflow
func SaturatingMul(a, b uint64) uint64 {
	prod, overflow := safemath.SafeMul(a, b)
	if overflow {
		return math.MaxUint64
	}
	return prod
}

// FloatToFee truncates f toward zero into a fee amount.
// NaN and negative values map to 0, values beyond uint64 clamp to math.MaxUint64.
func FloatToFee(f float64) uint64 {
	if math.IsNaN(f) || f <= 0 {
		return 0
	}
	if f >= math.MaxUint64 {
		return math.MaxUint64
	}
	return uint64(f)
}
