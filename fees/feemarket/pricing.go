package feemarket

import (
	"math"

	"feeEmulator/core"
	"feeEmulator/economics/excess_fee"
	"feeEmulator/utils"
)

// heatUp doubles rate for every CUToPower capacity units requested
func (cfg *Config) heatUp(rate, cu uint64) uint64 {
	return utils.FloatToFee(float64(rate) * math.Pow(2, float64(cu)/cfg.CUToPower))
}

// coolDown halves rate for every CUToPower units of idle capacity per
// non-conflicting group
func (cfg *Config) coolDown(rate, cu, groups uint64) uint64 {
	if groups == 0 {
		groups = 1
	}
	return utils.FloatToFee(float64(rate) / math.Pow(2, float64(cu)/float64(groups)/cfg.CUToPower))
}

func (cfg *Config) compound(reserved, cu uint64) uint64 {
	return excess_fee.Compound(reserved, cu, cfg.CompoundingBase, cfg.CompoundingScale)
}

// AddressQuote is the provisional price of one touched address
type AddressQuote struct {
	Addr            utils.Address
	RequiredFeeRate uint64
	ReservedFee     uint64 // after compounding over the idle time
	RequiredFee     uint64 // RequiredFeeRate * RequestedCU
}

// Quote is the provisional outcome of admitting a work unit now.
// Computing a quote never mutates the tracker.
type Quote struct {
	TxID       core.TxID
	Addrs      []AddressQuote
	Offered    uint64          // SuppliedFeeRate * RequestedCU
	Required   uint64          // minimum payment for admission
	State      CongestionState // congestion state after admission
	IsNewGroup bool            // no touched address is in the recency window
}

// Sufficient reports whether the offered fee covers the minimum payment
func (q *Quote) Sufficient() bool {
	return q.Offered >= q.Required
}

// Excess is the part of the offered fee above the minimum payment
func (q *Quote) Excess() uint64 {
	return utils.SaturatingSub(q.Offered, q.Required)
}

// price computes the quote for tx against addrs; must be called with a
// non-empty, de-duplicated address set
func (t *BaseFeeTracker) price(tx *core.Transaction, addrs []utils.Address) *Quote {
	cfg := t.config
	next := t.state.Next(t.activeCount+1, cfg.CongestionThreshold)

	q := &Quote{
		TxID:       tx.ID,
		Addrs:      make([]AddressQuote, 0, len(addrs)),
		Offered:    tx.SuppliedFee(),
		State:      next,
		IsNewGroup: true,
	}

	for _, addr := range addrs {
		market, ok := t.markets[addr]
		if !ok {
			// provisional market, only materialized on commit
			market = newLocalFeeMarket(cfg, next.ResetCounter)
			market.Clock = t.clock
		}
		if market.Freq > 0 {
			q.IsNewGroup = false
		}

		idle := utils.SaturatingSub(t.clock, market.Clock)
		reserved := cfg.compound(market.ReservedFee, idle)

		rate := cfg.MinimumBaseFeeRate
		if next.IsCongested && market.ResetCounter == next.ResetCounter {
			cooled := cfg.coolDown(market.RequiredFeeRate, idle, t.groupCount)
			if cooled < cfg.MinimumBaseFeeRate {
				cooled = cfg.MinimumBaseFeeRate
			}
			rate = cfg.heatUp(cooled, tx.RequestedCU)
		}

		required := utils.SaturatingMul(rate, tx.RequestedCU)
		q.Addrs = append(q.Addrs, AddressQuote{
			Addr:            addr,
			RequiredFeeRate: rate,
			ReservedFee:     reserved,
			RequiredFee:     required,
		})

		// reserved fees only offset the minimum once the tracker was already congested
		if t.state.IsCongested {
			required = utils.SaturatingSub(required, reserved)
		}
		q.Required = utils.SaturatingAdd(q.Required, required)
	}

	return q
}
