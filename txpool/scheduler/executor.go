package scheduler

import (
	"sync"

	"feeEmulator/core"
)

// Executor runs an admitted work unit and reports how it ended
type Executor interface {
	Execute(tx *core.Transaction) core.Outcome
}

// PlannedExecutor replays outcomes planned ahead of time, keyed by TxID.
// Units without a plan succeed.
type PlannedExecutor struct {
	mu   sync.Mutex
	plan map[core.TxID]core.Outcome
}

// NewPlannedExecutor creates an executor with no planned failures
func NewPlannedExecutor() *PlannedExecutor {
	return &PlannedExecutor{
		plan: make(map[core.TxID]core.Outcome),
	}
}

// Plan sets the outcome reported for id
func (e *PlannedExecutor) Plan(id core.TxID, outcome core.Outcome) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.plan[id] = outcome
}

func (e *PlannedExecutor) Execute(tx *core.Transaction) core.Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	if outcome, ok := e.plan[tx.ID]; ok {
		delete(e.plan, tx.ID)
		return outcome
	}
	return core.Succeeded()
}
