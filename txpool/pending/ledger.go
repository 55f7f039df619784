// Package pending tracks work units admitted to a lane but not yet settled
package pending

import (
	"fmt"
	"sort"
	"sync"

	"feeEmulator/core"
	"feeEmulator/utils"
)

// Pending represents an admitted work unit awaiting settlement
// Created when the lane accepts StartMeasuring
// Settled when the executor reports an outcome
type Pending struct {
	TxID         core.TxID
	Attempt      int    // admission attempt that succeeded, starting at 1
	RequestedCU  uint64 // capacity requested
	AddrCount    int    // number of touched addresses
	FloorRate    uint64 // minimum base fee rate of the lane
	Offered      uint64 // fee offered at admission
	Required     uint64 // minimum payment at admission
	ResetCounter uint64 // congestion epoch at admission
	IsCongested  bool   // congestion state after admission
	AdmittedSeq  uint64 // scheduler step that admitted the unit
}

// CreditFunc receives the capacity rewarded for a settled unit and the fee
// collected for it at the floor rate
type CreditFunc func(id core.TxID, rewardedCU uint64, collectedFee uint64)

// Ledger maintains the set of pending work units.
// A TxID is unique only while pending; once settled it may be admitted again.
type Ledger struct {
	mu           sync.RWMutex
	pending      map[core.TxID]*Pending // TxID -> Pending entry
	settled      map[core.TxID]uint64   // TxID -> AdmittedSeq of its last settled admission
	settledCount int
}

// NewLedger creates a new pending admission ledger
func NewLedger() *Ledger {
	return &Ledger{
		pending: make(map[core.TxID]*Pending),
		settled: make(map[core.TxID]uint64),
	}
}

// Add records an admitted work unit
// Returns error if the TxID is already pending, or if this same admission
// (TxID and AdmittedSeq) was already settled
func (l *Ledger) Add(p *Pending) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.pending[p.TxID]; exists {
		return fmt.Errorf("work unit %d already pending", p.TxID)
	}
	if seq, ok := l.settled[p.TxID]; ok {
		if seq == p.AdmittedSeq {
			return fmt.Errorf("work unit %d admitted at step %d already settled", p.TxID, seq)
		}
		delete(l.settled, p.TxID)
	}

	l.pending[p.TxID] = p
	return nil
}

// Get retrieves a pending entry by TxID
func (l *Ledger) Get(id core.TxID) (*Pending, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	p, exists := l.pending[id]
	return p, exists
}

// Settle closes a pending work unit with its execution outcome
// The credit function receives the rewarded capacity across all touched
// addresses and the fee collected for it
// Returns error if the TxID is not pending
func (l *Ledger) Settle(id core.TxID, outcome core.Outcome, credit CreditFunc) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, exists := l.pending[id]
	if !exists {
		if _, ok := l.settled[id]; ok {
			return fmt.Errorf("work unit %d already settled", id)
		}
		return fmt.Errorf("work unit %d not found in pending ledger", id)
	}

	rewarded := utils.SaturatingMul(uint64(p.AddrCount), outcome.RewardedCU(p.RequestedCU))
	if credit != nil {
		credit(id, rewarded, utils.SaturatingMul(rewarded, p.FloorRate))
	}

	l.settled[id] = p.AdmittedSeq
	l.settledCount++
	delete(l.pending, id)

	return nil
}

// IsPending checks if a work unit is still pending
func (l *Ledger) IsPending(id core.TxID) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, exists := l.pending[id]
	return exists
}

// IsSettled checks if the last admission of a work unit has been settled
func (l *Ledger) IsSettled(id core.TxID) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, ok := l.settled[id]
	return ok
}

// GetPendingCount returns the number of pending work units
func (l *Ledger) GetPendingCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.pending)
}

// GetSettledCount returns the number of settlements, counting each
// admission of a reused TxID separately
func (l *Ledger) GetSettledCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.settledCount
}

// GetAllPending returns a snapshot of all pending work units ordered by TxID
func (l *Ledger) GetAllPending() []*Pending {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*Pending, 0, len(l.pending))
	for _, p := range l.pending {
		// Create a copy to avoid concurrent modification
		pCopy := *p
		result = append(result, &pCopy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].TxID < result[j].TxID })
	return result
}

// Stale lists pending work units admitted before the given scheduler step.
// A unit that stays pending keeps its addresses locked in the lane.
func (l *Ledger) Stale(beforeSeq uint64) []*Pending {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var result []*Pending
	for _, p := range l.pending {
		if p.AdmittedSeq < beforeSeq {
			pCopy := *p
			result = append(result, &pCopy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].TxID < result[j].TxID })
	return result
}

// Reset clears all pending and settled records (for testing)
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.pending = make(map[core.TxID]*Pending)
	l.settled = make(map[core.TxID]uint64)
	l.settledCount = 0
}

// Stats returns statistics about the ledger
type Stats struct {
	PendingCount  int
	SettledCount  int
	TotalOffered  uint64 // Total offered fee of pending work units
	TotalRequired uint64 // Total minimum payment of pending work units
}

// GetStats returns current ledger statistics
func (l *Ledger) GetStats() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stats := Stats{
		PendingCount: len(l.pending),
		SettledCount: l.settledCount,
	}

	for _, p := range l.pending {
		stats.TotalOffered = utils.SaturatingAdd(stats.TotalOffered, p.Offered)
		stats.TotalRequired = utils.SaturatingAdd(stats.TotalRequired, p.Required)
	}

	return stats
}
