package pending

import (
	"testing"

	"feeEmulator/core"
)

func newPending(id core.TxID, seq uint64) *Pending {
	return &Pending{
		TxID:        id,
		Attempt:     1,
		RequestedCU: 200,
		AddrCount:   2,
		FloorRate:   5000,
		Offered:     1200000,
		Required:    1002600,
		IsCongested: true,
		AdmittedSeq: seq,
	}
}

// TestLedger_AddAndGet tests basic add and get operations
func TestLedger_AddAndGet(t *testing.T) {
	ledger := NewLedger()

	p := newPending(7, 1)
	if err := ledger.Add(p); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}

	retrieved, exists := ledger.Get(7)
	if !exists {
		t.Fatal("Get() failed: pending not found")
	}
	if retrieved.Offered != p.Offered || retrieved.Required != p.Required {
		t.Errorf("fee mismatch: got %d/%d, want %d/%d", retrieved.Offered, retrieved.Required, p.Offered, p.Required)
	}
	if !ledger.IsPending(7) || ledger.IsSettled(7) {
		t.Error("entry should be pending and not settled")
	}
}

// TestLedger_AddDuplicate tests adding duplicate entries
func TestLedger_AddDuplicate(t *testing.T) {
	ledger := NewLedger()

	if err := ledger.Add(newPending(1, 1)); err != nil {
		t.Fatalf("First Add() failed: %v", err)
	}
	if err := ledger.Add(newPending(1, 2)); err == nil {
		t.Error("Second Add() should have failed")
	}
}

// TestLedger_Settle tests settlement and credit amounts
func TestLedger_Settle(t *testing.T) {
	ledger := NewLedger()
	ledger.Add(newPending(1, 1))
	ledger.Add(newPending(2, 1))

	var gotCU, gotFee uint64
	credit := func(id core.TxID, rewardedCU, collectedFee uint64) {
		gotCU += rewardedCU
		gotFee += collectedFee
	}

	if err := ledger.Settle(1, core.Succeeded(), credit); err != nil {
		t.Fatalf("Settle() failed: %v", err)
	}
	// 2 addresses x 200 CU at 5000
	if gotCU != 400 || gotFee != 2000000 {
		t.Errorf("credit after success = %d CU / %d fee, want 400 / 2000000", gotCU, gotFee)
	}

	gotCU, gotFee = 0, 0
	if err := ledger.Settle(2, core.Failed(100), credit); err != nil {
		t.Fatalf("Settle() failed: %v", err)
	}
	// 2 addresses x 50 CU at 5000
	if gotCU != 100 || gotFee != 500000 {
		t.Errorf("credit after failure = %d CU / %d fee, want 100 / 500000", gotCU, gotFee)
	}

	if ledger.GetPendingCount() != 0 || ledger.GetSettledCount() != 2 {
		t.Errorf("counts = %d pending / %d settled, want 0 / 2", ledger.GetPendingCount(), ledger.GetSettledCount())
	}
}

// TestLedger_DoubleSettlement tests that settlement happens exactly once
func TestLedger_DoubleSettlement(t *testing.T) {
	ledger := NewLedger()
	ledger.Add(newPending(1, 1))

	if err := ledger.Settle(1, core.Succeeded(), nil); err != nil {
		t.Fatalf("first Settle() failed: %v", err)
	}
	if err := ledger.Settle(1, core.Succeeded(), nil); err == nil {
		t.Error("second Settle() should fail")
	}
	if err := ledger.Add(newPending(1, 1)); err == nil {
		t.Error("Add() of an already settled admission should fail")
	}
	if err := ledger.Settle(99, core.Succeeded(), nil); err == nil {
		t.Error("Settle() of an unknown work unit should fail")
	}
}

// TestLedger_ReuseAfterSettlement tests that a TxID can be admitted again once settled
func TestLedger_ReuseAfterSettlement(t *testing.T) {
	ledger := NewLedger()
	if err := ledger.Add(newPending(3, 1)); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	if err := ledger.Settle(3, core.Succeeded(), nil); err != nil {
		t.Fatalf("Settle() failed: %v", err)
	}

	if err := ledger.Add(newPending(3, 2)); err != nil {
		t.Fatalf("re-Add() after settlement failed: %v", err)
	}
	if !ledger.IsPending(3) || ledger.IsSettled(3) {
		t.Error("re-admitted unit should be pending and not settled")
	}

	var gotCU uint64
	if err := ledger.Settle(3, core.Succeeded(), func(_ core.TxID, cu, _ uint64) { gotCU = cu }); err != nil {
		t.Fatalf("second Settle() failed: %v", err)
	}
	if gotCU != 400 {
		t.Errorf("second settlement credited %d CU, want 400", gotCU)
	}
	if ledger.GetSettledCount() != 2 || ledger.GetPendingCount() != 0 {
		t.Errorf("counts = %d pending / %d settled, want 0 / 2", ledger.GetPendingCount(), ledger.GetSettledCount())
	}
	if stats := ledger.GetStats(); stats.SettledCount != 2 {
		t.Errorf("stats settled = %d, want 2", stats.SettledCount)
	}
}

// TestLedger_StaleAndStats tests stale listing and aggregate statistics
func TestLedger_StaleAndStats(t *testing.T) {
	ledger := NewLedger()
	ledger.Add(newPending(3, 1))
	ledger.Add(newPending(1, 2))
	ledger.Add(newPending(2, 5))

	stale := ledger.Stale(3)
	if len(stale) != 2 || stale[0].TxID != 1 || stale[1].TxID != 3 {
		t.Errorf("Stale(3) = %v, want units 1 and 3", stale)
	}

	all := ledger.GetAllPending()
	if len(all) != 3 || all[0].TxID != 1 {
		t.Errorf("GetAllPending() not ordered by TxID: %v", all)
	}
	all[0].Offered = 0
	if p, _ := ledger.Get(1); p.Offered == 0 {
		t.Error("GetAllPending() should return copies")
	}

	stats := ledger.GetStats()
	if stats.PendingCount != 3 || stats.TotalOffered != 3600000 || stats.TotalRequired != 3007800 {
		t.Errorf("unexpected stats %+v", stats)
	}

	ledger.Reset()
	if ledger.GetPendingCount() != 0 {
		t.Error("Reset() should clear the ledger")
	}
}
