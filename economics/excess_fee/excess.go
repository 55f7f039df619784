// Package excess_fee splits overpayment across the addresses of a work unit
// and grows reserved fees with consumed capacity
package excess_fee

import (
	"math"

	"feeEmulator/utils"
)

// Distribute splits excess across addresses in proportion to their required fees.
// Each share is truncated, so the shares may sum to less than excess.
// A zero total yields zero shares.
func Distribute(excess uint64, required []uint64) []uint64 {
	shares := make([]uint64, len(required))

	var total float64
	for _, r := range required {
		total += float64(r)
	}
	if total == 0 || excess == 0 {
		return shares
	}

	for i, r := range required {
		shares[i] = utils.FloatToFee(float64(excess) * (float64(r) / total))
	}
	return shares
}

// Compound grows amount by base^(cu/scale), truncating toward zero
func Compound(amount, cu uint64, base, scale float64) uint64 {
	if amount == 0 || cu == 0 || scale <= 0 {
		return amount
	}
	return utils.FloatToFee(float64(amount) * math.Pow(base, float64(cu)/scale))
}
