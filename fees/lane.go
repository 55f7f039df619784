// Package fees provides execution lanes, each owning one fee market tracker
package fees

import (
	"sync"

	"github.com/ethereum/go-ethereum/log"

	"feeEmulator/core"
	"feeEmulator/fees/feemarket"
	"feeEmulator/utils"
)

// Lane serializes access to one BaseFeeTracker.
// The scheduler and metric scrapes may call into the same lane concurrently.
type Lane struct {
	ID      int
	mu      sync.Mutex
	tracker *feemarket.BaseFeeTracker
}

// NewLane creates a lane with its own tracker. A nil config selects the defaults.
func NewLane(id int, cfg *feemarket.Config) *Lane {
	tracker := feemarket.NewBaseFeeTracker(cfg)
	tracker.SetLogger(log.New("module", "feemarket", "lane", id))
	return &Lane{
		ID:      id,
		tracker: tracker,
	}
}

// StartMeasuring admits tx on this lane
func (l *Lane) StartMeasuring(tx *core.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tracker.StartMeasuring(tx)
}

// Admit admits tx on this lane and returns the quote it was priced at
func (l *Lane) Admit(tx *core.Transaction) (*feemarket.Quote, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tracker.Admit(tx)
}

// StopMeasuring settles tx on this lane
func (l *Lane) StopMeasuring(tx *core.Transaction, outcome core.Outcome) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tracker.StopMeasuring(tx, outcome)
}

// Quote prices tx without admitting it
func (l *Lane) Quote(tx *core.Transaction) (*feemarket.Quote, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tracker.Quote(tx)
}

// Stats returns a snapshot of the lane's tracker
func (l *Lane) Stats() feemarket.Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tracker.Stats()
}

// Market returns a copy of the fee market for addr
func (l *Lane) Market(addr utils.Address) (feemarket.LocalFeeMarket, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tracker.Market(addr)
}

// FreeSlots returns how many more work units the lane can admit right now
func (l *Lane) FreeSlots() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	free := l.tracker.Config().MaxActiveTxs - l.tracker.ActiveTxCount()
	if free < 0 {
		return 0
	}
	return free
}

// Config returns the lane's pricing policy
func (l *Lane) Config() feemarket.Config {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tracker.Config()
}
