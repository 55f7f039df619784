package message

import (
	"fmt"
	"time"

	"feeEmulator/core"
)

// Phase of a work unit in its admission lifecycle
type Phase string

const (
	PhaseAdmit  Phase = "admit"
	PhaseReject Phase = "reject"
	PhaseSettle Phase = "settle"
)

// AdmissionRecord describes one admission attempt or settlement on a lane
type AdmissionRecord struct {
	Lane         int
	TxID         core.TxID
	Phase        Phase
	Attempt      int
	RequestedCU  uint64
	AddrCount    int
	OfferedRate  uint64
	Offered      uint64
	Required     uint64 // minimum payment; zero when rejected before pricing
	Reason       string // error kind on rejection
	ResetCounter uint64
	IsCongested  bool
	Outcome      core.Outcome // settle only
	RewardedCU   uint64       // settle only
	Timestamp    time.Time
}

func (r *AdmissionRecord) String() string {
	switch r.Phase {
	case PhaseReject:
		return fmt.Sprintf("lane %d %s tx#%d attempt %d: %s (offered %d, required %d)",
			r.Lane, r.Phase, r.TxID, r.Attempt, r.Reason, r.Offered, r.Required)
	case PhaseSettle:
		return fmt.Sprintf("lane %d %s tx#%d: %s rewarded %d CU", r.Lane, r.Phase, r.TxID, r.Outcome, r.RewardedCU)
	default:
		return fmt.Sprintf("lane %d %s tx#%d attempt %d: offered %d, required %d, congested %t",
			r.Lane, r.Phase, r.TxID, r.Attempt, r.Offered, r.Required, r.IsCongested)
	}
}
