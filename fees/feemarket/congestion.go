package feemarket

// CongestionState is the global congestion flag with its epoch counter.
// The epoch advances each time congestion clears, which invalidates the
// heated rates of every market priced in an earlier epoch.
type CongestionState struct {
	IsCongested  bool
	ResetCounter uint64
}

// Next returns the state after the active count becomes updatedActive
func (s CongestionState) Next(updatedActive, threshold int) CongestionState {
	switch {
	case s.IsCongested && updatedActive < threshold:
		return CongestionState{IsCongested: false, ResetCounter: s.ResetCounter + 1}
	case !s.IsCongested && updatedActive >= threshold:
		return CongestionState{IsCongested: true, ResetCounter: s.ResetCounter}
	default:
		return s
	}
}
