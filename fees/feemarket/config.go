// Package feemarket implements per-address congestion pricing: a local fee
// market per touched address, a global congestion detector and the
// admission/settlement protocol that keeps the two consistent.
package feemarket

import (
	"fmt"
)

// Config holds the pricing policy of a BaseFeeTracker
type Config struct {
	CongestionThreshold int     // Active count (including the candidate) at or above which the tracker is congested
	RecentTxCount       int     // Capacity of the recency window
	MaxActiveTxs        int     // Maximum simultaneously active work units
	CUToPower           float64 // Capacity units that double a rate under congestion
	MinimumBaseFeeRate  uint64  // Fee-rate floor and uncongested baseline
	InitialReservedFee  uint64  // Reserved fee of a freshly created market
	CompoundingBase     float64 // Reserved-fee growth base per compounding period
	CompoundingScale    float64 // Capacity units per compounding period
}

// DefaultConfig returns the default fee market policy
func DefaultConfig() *Config {
	return &Config{
		CongestionThreshold: 0, // congested from the first admission
		RecentTxCount:       5,
		MaxActiveTxs:        5,
		CUToPower:           50000,
		MinimumBaseFeeRate:  5000,
		InitialReservedFee:  0,
		CompoundingBase:     1.06,
		CompoundingScale:    1000000,
	}
}

// ValidateConfig checks that a configuration is usable
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.CongestionThreshold < 0 {
		return fmt.Errorf("CongestionThreshold must be non-negative, got %d", cfg.CongestionThreshold)
	}
	if cfg.RecentTxCount <= 0 {
		return fmt.Errorf("RecentTxCount must be positive, got %d", cfg.RecentTxCount)
	}
	if cfg.MaxActiveTxs <= 0 {
		return fmt.Errorf("MaxActiveTxs must be positive, got %d", cfg.MaxActiveTxs)
	}
	if cfg.CUToPower <= 0 {
		return fmt.Errorf("CUToPower must be positive, got %v", cfg.CUToPower)
	}
	if cfg.MinimumBaseFeeRate == 0 {
		return fmt.Errorf("MinimumBaseFeeRate must be positive")
	}
	if cfg.CompoundingBase < 1 {
		return fmt.Errorf("CompoundingBase must be at least 1, got %v", cfg.CompoundingBase)
	}
	if cfg.CompoundingScale <= 0 {
		return fmt.Errorf("CompoundingScale must be positive, got %v", cfg.CompoundingScale)
	}
	return nil
}
