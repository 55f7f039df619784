package excess_fee

import (
	"math"
	"testing"
)

// TestDistribute_Proportional tests proportional split with truncation
func TestDistribute_Proportional(t *testing.T) {
	tests := []struct {
		name     string
		excess   uint64
		required []uint64
		want     []uint64
	}{
		{"single address", 200000, []uint64{1000000}, []uint64{200000}},
		{"equal split", 200000, []uint64{500000, 500000}, []uint64{100000, 100000}},
		{"uneven split", 100, []uint64{1, 2}, []uint64{33, 66}},
		{"zero excess", 0, []uint64{10, 20}, []uint64{0, 0}},
		{"zero required", 500, []uint64{0, 0}, []uint64{0, 0}},
		{"no addresses", 500, nil, []uint64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distribute(tt.excess, tt.required)
			if len(got) != len(tt.want) {
				t.Fatalf("Distribute length = %d, want %d", len(got), len(tt.want))
			}
			var sum uint64
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("share[%d] = %d, want %d", i, got[i], tt.want[i])
				}
				sum += got[i]
			}
			if sum > tt.excess {
				t.Errorf("shares sum %d exceeds excess %d", sum, tt.excess)
			}
		})
	}
}

// TestCompound tests reserved-fee growth
func TestCompound(t *testing.T) {
	// 1.06^(200/1e6) = 1.0000116538...
	if got := Compound(200000, 200, 1.06, 1e6); got != 200002 {
		t.Errorf("Compound(200000, 200) = %d, want 200002", got)
	}
	// one full period
	if got := Compound(1000000, 1000000, 1.06, 1e6); got != 1060000 {
		t.Errorf("Compound over one period = %d, want 1060000", got)
	}
	if got := Compound(0, 500, 1.06, 1e6); got != 0 {
		t.Errorf("Compound of zero = %d, want 0", got)
	}
	if got := Compound(12345, 0, 1.06, 1e6); got != 12345 {
		t.Errorf("Compound with zero cu = %d, want 12345", got)
	}
	if got := Compound(math.MaxUint64, 1e12, 1.06, 1e6); got != math.MaxUint64 {
		t.Errorf("Compound should clamp, got %d", got)
	}
}
