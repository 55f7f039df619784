package feemarket

import (
	"github.com/bits-and-blooms/bitset"
	"github.com/ethereum/go-ethereum/log"

	"feeEmulator/core"
	"feeEmulator/economics/excess_fee"
	"feeEmulator/fees/recency"
	"feeEmulator/utils"
)

// an empty active set larger than this is shrunk back to one word
const compactActiveAbove = 1 << 16

// BaseFeeTracker prices and admits work units against per-address fee markets.
// It is not safe for concurrent use; wrap it in a fees.Lane when shared.
type BaseFeeTracker struct {
	config *Config
	state  CongestionState

	clock            uint64 // total capacity released so far
	groupCount       uint64 // non-conflicting groups in the recency window
	rewardedCU       uint64
	totalSuppliedFee uint64

	active      *bitset.BitSet // TxIDs currently measured
	activeCount int
	markets     map[utils.Address]*LocalFeeMarket
	window      *recency.Window

	logger log.Logger
}

// NewBaseFeeTracker creates a tracker. A nil config selects DefaultConfig.
// The config is expected to have passed ValidateConfig.
//
// Active TxIDs are kept in a bitset, so while a unit is measured the set
// holds one bit per ID up to the largest active TxID (512 MiB near
// MaxUint32). Sources should assign IDs densely. The set is compacted
// whenever it empties.
func NewBaseFeeTracker(cfg *Config) *BaseFeeTracker {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := *cfg
	return &BaseFeeTracker{
		config:  &c,
		active:  bitset.New(64),
		markets: make(map[utils.Address]*LocalFeeMarket),
		window:  recency.NewWindow(c.RecentTxCount),
		logger:  log.New("module", "feemarket"),
	}
}

// SetLogger replaces the tracker logger
func (t *BaseFeeTracker) SetLogger(logger log.Logger) {
	t.logger = logger
}

// Config returns a copy of the tracker policy
func (t *BaseFeeTracker) Config() Config {
	return *t.config
}

// Quote computes what admitting tx right now would cost, without mutating the tracker
func (t *BaseFeeTracker) Quote(tx *core.Transaction) (*Quote, error) {
	addrs := utils.DedupAddresses(tx.Addrs)
	if len(addrs) == 0 {
		return nil, ErrNoAddress
	}
	return t.price(tx, addrs), nil
}

// StartMeasuring admits tx. On any error the tracker is left unchanged.
func (t *BaseFeeTracker) StartMeasuring(tx *core.Transaction) error {
	_, err := t.Admit(tx)
	return err
}

// Admit is StartMeasuring returning the quote it priced. The quote is nil
// when tx was rejected before pricing.
func (t *BaseFeeTracker) Admit(tx *core.Transaction) (*Quote, error) {
	if t.activeCount+1 > t.config.MaxActiveTxs {
		return nil, ErrTooManyActiveThreadCount
	}
	addrs := utils.DedupAddresses(tx.Addrs)
	if len(addrs) == 0 {
		return nil, ErrNoAddress
	}
	if t.active.Test(uint(tx.ID)) {
		return nil, ErrAlreadyMeasuring
	}
	for _, addr := range addrs {
		if market, ok := t.markets[addr]; ok && market.IsActive {
			return nil, ErrAlreadyActive
		}
	}

	q := t.price(tx, addrs)
	if !q.Sufficient() {
		t.logger.Trace("Rejected work unit", "tx", tx.ID, "offered", q.Offered, "required", q.Required)
		return q, &InsufficientSuppliedFeeError{Offered: q.Offered, Required: q.Required}
	}

	t.commit(tx, q)
	return q, nil
}

// commit applies an accepted quote
func (t *BaseFeeTracker) commit(tx *core.Transaction, q *Quote) {
	if q.State != t.state {
		t.logger.Debug("Congestion state changed", "congested", q.State.IsCongested,
			"epoch", q.State.ResetCounter, "active", t.activeCount+1)
	}
	t.state = q.State
	t.active.Set(uint(tx.ID))
	t.activeCount++
	if q.IsNewGroup {
		t.groupCount++
	}
	t.totalSuppliedFee = utils.SaturatingAdd(t.totalSuppliedFee, q.Offered)

	required := make([]uint64, len(q.Addrs))
	for i, aq := range q.Addrs {
		required[i] = aq.RequiredFee
	}
	shares := excess_fee.Distribute(q.Excess(), required)

	addrs := make([]utils.Address, len(q.Addrs))
	for i, aq := range q.Addrs {
		market, ok := t.markets[aq.Addr]
		if !ok {
			market = newLocalFeeMarket(t.config, q.State.ResetCounter)
			market.Clock = t.clock
			t.markets[aq.Addr] = market
		}

		reserved := aq.ReservedFee
		if q.State.IsCongested {
			reserved = utils.SaturatingSub(reserved, aq.RequiredFee)
		}
		reserved = utils.SaturatingAdd(reserved, shares[i])
		reserved = t.config.compound(reserved, tx.RequestedCU)

		market.RequiredFeeRate = aq.RequiredFeeRate
		market.ReservedFee = reserved
		market.ResetCounter = q.State.ResetCounter
		market.Freq++
		market.IsActive = true
		addrs[i] = aq.Addr
	}

	if oldest, evicted := t.window.Push(addrs); evicted {
		t.evict(oldest)
	}

	t.logger.Trace("Admitted work unit", "tx", tx.ID, "offered", q.Offered, "required", q.Required,
		"congested", q.State.IsCongested, "groups", t.groupCount)
}

// evict releases the window slot of an expired address set. Every address
// is decremented; the group closes only when all of them drop to zero.
func (t *BaseFeeTracker) evict(addrs []utils.Address) {
	allZero := true
	for _, addr := range addrs {
		market, ok := t.markets[addr]
		if !ok {
			continue
		}
		if market.Freq > 0 {
			market.Freq--
		}
		if market.Freq != 0 {
			allZero = false
		}
	}
	if allZero && t.groupCount > 0 {
		t.groupCount--
	}
}

// StopMeasuring settles an active tx with the reported outcome
func (t *BaseFeeTracker) StopMeasuring(tx *core.Transaction, outcome core.Outcome) error {
	if !t.active.Test(uint(tx.ID)) {
		return ErrNotMeasured
	}
	t.active.Clear(uint(tx.ID))
	t.activeCount--
	if t.activeCount == 0 && t.active.Len() > compactActiveAbove {
		t.active.Compact()
	}

	t.clock = utils.SaturatingAdd(t.clock, tx.RequestedCU)
	addrs := utils.DedupAddresses(tx.Addrs)
	for _, addr := range addrs {
		if market, ok := t.markets[addr]; ok {
			market.Clock = t.clock
			market.IsActive = false
		}
	}

	rewarded := utils.SaturatingMul(uint64(len(addrs)), outcome.RewardedCU(tx.RequestedCU))
	t.rewardedCU = utils.SaturatingAdd(t.rewardedCU, rewarded)

	t.logger.Trace("Settled work unit", "tx", tx.ID, "outcome", outcome, "rewarded", rewarded, "clock", t.clock)
	return nil
}

// HeatUp applies the congestion increase for cu requested capacity units
func (t *BaseFeeTracker) HeatUp(rate, cu uint64) uint64 {
	return t.config.heatUp(rate, cu)
}

// CoolDown applies the idle decay for cu released capacity units, scaled by
// the current non-conflicting group count
func (t *BaseFeeTracker) CoolDown(rate, cu uint64) uint64 {
	return t.config.coolDown(rate, cu, t.groupCount)
}

func (t *BaseFeeTracker) IsCongested() bool { return t.state.IsCongested }

func (t *BaseFeeTracker) ResetCounter() uint64 { return t.state.ResetCounter }

func (t *BaseFeeTracker) Clock() uint64 { return t.clock }

func (t *BaseFeeTracker) NonconflictingGroupCount() uint64 { return t.groupCount }

func (t *BaseFeeTracker) ActiveTxCount() int { return t.activeCount }

// IsMeasuring reports whether id is currently active
func (t *BaseFeeTracker) IsMeasuring(id core.TxID) bool {
	return t.active.Test(uint(id))
}

// Market returns a copy of the market for addr, if it exists
func (t *BaseFeeTracker) Market(addr utils.Address) (LocalFeeMarket, bool) {
	market, ok := t.markets[addr]
	if !ok {
		return LocalFeeMarket{}, false
	}
	return *market, true
}

// MarketCount returns the number of addresses with a fee market
func (t *BaseFeeTracker) MarketCount() int {
	return len(t.markets)
}

// RecentTxs returns the recency window contents, oldest first
func (t *BaseFeeTracker) RecentTxs() [][]utils.Address {
	return t.window.Entries()
}

// Stats is a point-in-time snapshot of tracker state
type Stats struct {
	IsCongested      bool
	ResetCounter     uint64
	Clock            uint64
	Groups           uint64
	ActiveTxs        int
	Markets          int
	RecentTxs        int
	RewardedCU       uint64
	TotalSuppliedFee uint64
	CollectedFee     uint64
	BurntFee         uint64
}

// Stats returns a snapshot of the tracker counters
func (t *BaseFeeTracker) Stats() Stats {
	return Stats{
		IsCongested:      t.state.IsCongested,
		ResetCounter:     t.state.ResetCounter,
		Clock:            t.clock,
		Groups:           t.groupCount,
		ActiveTxs:        t.activeCount,
		Markets:          len(t.markets),
		RecentTxs:        t.window.Len(),
		RewardedCU:       t.rewardedCU,
		TotalSuppliedFee: t.totalSuppliedFee,
		CollectedFee:     t.CollectedFee(),
		BurntFee:         t.BurntFee(),
	}
}
