package message

import (
	"time"

	"feeEmulator/core"
)

// FeeQuote carries what a lane required of a submission. A submitter whose
// offer fell short uses it to resubmit.
type FeeQuote struct {
	TxID         core.TxID
	RequestedCU  uint64
	Offered      uint64 // fee offered by the rejected submission
	Required     uint64 // minimum payment at the time of rejection
	ResetCounter uint64 // congestion epoch the quote was priced in
	IsCongested  bool
	Timestamp    time.Time
}

// NewFeeQuote creates a fee quote for a rejected submission
func NewFeeQuote(tx *core.Transaction, offered, required, resetCounter uint64, congested bool) *FeeQuote {
	return &FeeQuote{
		TxID:         tx.ID,
		RequestedCU:  tx.RequestedCU,
		Offered:      offered,
		Required:     required,
		ResetCounter: resetCounter,
		IsCongested:  congested,
		Timestamp:    time.Now(),
	}
}

// RequiredFeeRate is the smallest per-unit rate that covers Required
func (q *FeeQuote) RequiredFeeRate() uint64 {
	if q.RequestedCU == 0 {
		return 0
	}
	rate := q.Required / q.RequestedCU
	if q.Required%q.RequestedCU != 0 {
		rate++
	}
	return rate
}

// Shortfall is how much the rejected offer was missing
func (q *FeeQuote) Shortfall() uint64 {
	if q.Offered >= q.Required {
		return 0
	}
	return q.Required - q.Offered
}
