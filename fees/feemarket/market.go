package feemarket

import "fmt"

// LocalFeeMarket is the pricing state of one address.
// Markets are created on the first committed admission touching the address
// and are never deleted.
type LocalFeeMarket struct {
	RequiredFeeRate uint64 // rate last charged for this address
	ReservedFee     uint64 // credit carried forward from past overpayment
	Clock           uint64 // tracker clock when this address was last released
	ResetCounter    uint64 // congestion epoch in which RequiredFeeRate was set
	Freq            uint64 // occurrences in the recency window
	IsActive        bool   // touched by a currently active work unit
}

func newLocalFeeMarket(cfg *Config, epoch uint64) *LocalFeeMarket {
	return &LocalFeeMarket{
		RequiredFeeRate: cfg.MinimumBaseFeeRate,
		ReservedFee:     cfg.InitialReservedFee,
		ResetCounter:    epoch,
	}
}

func (m LocalFeeMarket) String() string {
	return fmt.Sprintf("market{rate=%d reserved=%d clock=%d epoch=%d freq=%d active=%t}",
		m.RequiredFeeRate, m.ReservedFee, m.Clock, m.ResetCounter, m.Freq, m.IsActive)
}
