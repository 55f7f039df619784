// Definition of the work unit admitted against the fee markets

package core

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"log"

	"feeEmulator/utils"
)

// TxID identifies a work unit. Unique while the unit is active.
type TxID uint32

// Transaction is one request for capacity against a set of addresses.
// It is immutable once constructed; resubmissions use WithFeeRate.
type Transaction struct {
	ID              TxID
	RequestedCU     uint64          // capacity units requested (compute budget)
	SuppliedFeeRate uint64          // fee offered per capacity unit
	Addrs           []utils.Address // non-empty ordered set of touched addresses
}

// NewTransaction creates a work unit, dropping repeated addresses
func NewTransaction(id TxID, requestedCU, suppliedFeeRate uint64, addrs []utils.Address) *Transaction {
	return &Transaction{
		ID:              id,
		RequestedCU:     requestedCU,
		SuppliedFeeRate: suppliedFeeRate,
		Addrs:           utils.DedupAddresses(addrs),
	}
}

// SuppliedFee returns the total offered fee, saturating on overflow
func (tx *Transaction) SuppliedFee() uint64 {
	return utils.SaturatingMul(tx.SuppliedFeeRate, tx.RequestedCU)
}

// WithFeeRate returns a copy of tx offering a different fee rate
func (tx *Transaction) WithFeeRate(rate uint64) *Transaction {
	addrs := make([]utils.Address, len(tx.Addrs))
	copy(addrs, tx.Addrs)
	return &Transaction{
		ID:              tx.ID,
		RequestedCU:     tx.RequestedCU,
		SuppliedFeeRate: rate,
		Addrs:           addrs,
	}
}

func (tx *Transaction) String() string {
	return fmt.Sprintf("tx#%d{cu=%d rate=%d addrs=%d}", tx.ID, tx.RequestedCU, tx.SuppliedFeeRate, len(tx.Addrs))
}

// Encode transaction for storing
func (tx *Transaction) Encode() []byte {
	var buff bytes.Buffer

	enc := gob.NewEncoder(&buff)
	err := enc.Encode(tx)
	if err != nil {
		log.Panic(err)
	}

	return buff.Bytes()
}

// DecodeTx decodes a transaction produced by Encode
func DecodeTx(to_decode []byte) (*Transaction, error) {
	var tx Transaction

	decoder := gob.NewDecoder(bytes.NewReader(to_decode))
	if err := decoder.Decode(&tx); err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}

	return &tx, nil
}

// Outcome is what the runtime reports when a work unit finishes
type Outcome struct {
	Failed   bool
	ActualCU uint64 // capacity consumed before failing; ignored on success
}

// Succeeded reports full consumption of the requested capacity
func Succeeded() Outcome {
	return Outcome{}
}

// Failed reports a failed or partial execution that consumed actualCU
func Failed(actualCU uint64) Outcome {
	return Outcome{Failed: true, ActualCU: actualCU}
}

// RewardedCU returns the capacity rewarded per touched address:
// the full request on success, half of the consumed capacity on failure
func (o Outcome) RewardedCU(requestedCU uint64) uint64 {
	if o.Failed {
		return o.ActualCU / 2
	}
	return requestedCU
}

func (o Outcome) String() string {
	if o.Failed {
		return fmt.Sprintf("failed(%d)", o.ActualCU)
	}
	return "succeeded"
}
