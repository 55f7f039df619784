package core

import (
	"math"
	"testing"

	"feeEmulator/utils"
)

// TestNewTransaction_Dedup tests that repeated addresses are dropped
func TestNewTransaction_Dedup(t *testing.T) {
	a, b := utils.AddressFromUint(7), utils.AddressFromUint(8)
	tx := NewTransaction(3, 200, 5000, []utils.Address{a, b, a})

	if len(tx.Addrs) != 2 {
		t.Fatalf("expected 2 addresses after dedup, got %d", len(tx.Addrs))
	}
	if tx.Addrs[0] != a || tx.Addrs[1] != b {
		t.Errorf("address order not preserved: %v", tx.Addrs)
	}
}

// TestTransaction_SuppliedFee tests offered fee computation
func TestTransaction_SuppliedFee(t *testing.T) {
	tx := NewTransaction(1, 200, 5013, []utils.Address{utils.AddressFromUint(1)})
	if got := tx.SuppliedFee(); got != 1002600 {
		t.Errorf("SuppliedFee() = %d, want 1002600", got)
	}

	huge := NewTransaction(2, math.MaxUint64, 2, []utils.Address{utils.AddressFromUint(1)})
	if got := huge.SuppliedFee(); got != math.MaxUint64 {
		t.Errorf("SuppliedFee() should saturate, got %d", got)
	}
}

// TestTransaction_WithFeeRate tests that resubmission copies do not alias
func TestTransaction_WithFeeRate(t *testing.T) {
	tx := NewTransaction(3, 200, 5013, []utils.Address{utils.AddressFromUint(7)})
	bumped := tx.WithFeeRate(5026)

	if bumped.SuppliedFeeRate != 5026 || tx.SuppliedFeeRate != 5013 {
		t.Errorf("fee rates wrong: original=%d bumped=%d", tx.SuppliedFeeRate, bumped.SuppliedFeeRate)
	}
	if bumped.ID != tx.ID || bumped.RequestedCU != tx.RequestedCU {
		t.Error("WithFeeRate should keep identity and capacity")
	}

	bumped.Addrs[0] = utils.AddressFromUint(9)
	if tx.Addrs[0] != utils.AddressFromUint(7) {
		t.Error("WithFeeRate copy aliases the original address slice")
	}
}

// TestTransaction_EncodeDecode tests gob round trip used by the receipt store
func TestTransaction_EncodeDecode(t *testing.T) {
	tx := NewTransaction(42, 300, 6000, []utils.Address{utils.AddressFromUint(1), utils.AddressFromUint(2)})

	decoded, err := DecodeTx(tx.Encode())
	if err != nil {
		t.Fatalf("DecodeTx failed: %v", err)
	}
	if decoded.ID != tx.ID || decoded.SuppliedFeeRate != tx.SuppliedFeeRate || len(decoded.Addrs) != 2 {
		t.Errorf("decoded transaction mismatch: got %v, want %v", decoded, tx)
	}

	if _, err := DecodeTx([]byte("garbage")); err == nil {
		t.Error("DecodeTx should fail on garbage input")
	}
}

// TestOutcome_RewardedCU tests reward per address for both outcomes
func TestOutcome_RewardedCU(t *testing.T) {
	if got := Succeeded().RewardedCU(200); got != 200 {
		t.Errorf("Succeeded().RewardedCU(200) = %d, want 200", got)
	}
	if got := Failed(100).RewardedCU(200); got != 50 {
		t.Errorf("Failed(100).RewardedCU(200) = %d, want 50", got)
	}
	if got := Failed(1).RewardedCU(200); got != 0 {
		t.Errorf("Failed(1).RewardedCU(200) = %d, want 0", got)
	}
}

// TestPriorityTxPool_Order tests fee-rate ordering with FIFO ties
func TestPriorityTxPool_Order(t *testing.T) {
	pool := NewPriorityTxPool()
	addr := []utils.Address{utils.AddressFromUint(1)}

	pool.AddTx2Pool(NewTransaction(1, 100, 5000, addr))
	pool.AddTxs2Pool([]*Transaction{
		NewTransaction(2, 100, 9000, addr),
		NewTransaction(3, 100, 5000, addr),
		NewTransaction(4, 100, 7000, addr),
	})

	if pool.GetTxQueueLen() != 4 {
		t.Fatalf("queue length = %d, want 4", pool.GetTxQueueLen())
	}

	packed := pool.PackTxs(3)
	wantIDs := []TxID{2, 4, 1}
	if len(packed) != len(wantIDs) {
		t.Fatalf("packed %d txs, want %d", len(packed), len(wantIDs))
	}
	for i, id := range wantIDs {
		if packed[i].ID != id {
			t.Errorf("packed[%d].ID = %d, want %d", i, packed[i].ID, id)
		}
	}

	rest := pool.PackTxs(10)
	if len(rest) != 1 || rest[0].ID != 3 {
		t.Errorf("remaining txs = %v, want only tx 3", rest)
	}
	if pool.GetTxQueueLen() != 0 {
		t.Errorf("pool should be empty, has %d", pool.GetTxQueueLen())
	}
}
