package params

import (
	"fmt"

	"feeEmulator/fees"
	"feeEmulator/fees/feemarket"
)

// GetFeeMarketConfig creates a fee market configuration from global parameters
func GetFeeMarketConfig() *feemarket.Config {
	return &feemarket.Config{
		CongestionThreshold: CongestionThreshold,
		RecentTxCount:       RecentTxCount,
		MaxActiveTxs:        MaxActiveTxs,
		CUToPower:           CUToPower,
		MinimumBaseFeeRate:  MinimumBaseFeeRate,
		InitialReservedFee:  InitialReservedFee,
		CompoundingBase:     CompoundingBase,
		CompoundingScale:    CompoundingScale,
	}
}

// NewFeeMarketLane creates an execution lane from global parameters
func NewFeeMarketLane(id int) (*fees.Lane, error) {
	config := GetFeeMarketConfig()
	if err := feemarket.ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("fee market config: %w", err)
	}
	return fees.NewLane(id, config), nil
}
