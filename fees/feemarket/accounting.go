package feemarket

import "feeEmulator/utils"

// RewardedCU is the capacity credited to executors across all settlements
func (t *BaseFeeTracker) RewardedCU() uint64 {
	return t.rewardedCU
}

// TotalSuppliedFee is the sum of offered fees of all admitted work units
func (t *BaseFeeTracker) TotalSuppliedFee() uint64 {
	return t.totalSuppliedFee
}

// CollectedFee is the fee paid out to executors at the floor rate
func (t *BaseFeeTracker) CollectedFee() uint64 {
	return utils.SaturatingMul(t.rewardedCU, t.config.MinimumBaseFeeRate)
}

// BurntFee is the supplied fee not collected. It saturates at zero, so
// CollectedFee+BurntFee equals TotalSuppliedFee only while rewards stay
// within what was supplied.
func (t *BaseFeeTracker) BurntFee() uint64 {
	return utils.SaturatingSub(t.totalSuppliedFee, t.CollectedFee())
}
