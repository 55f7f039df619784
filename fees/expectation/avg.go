// Package expectation tracks the rolling average required fee rate of each lane
package expectation

import (
	"sync"

	"feeEmulator/utils"
)

// Tracker maintains a sliding window of per-step average required fee rates per lane
type Tracker struct {
	WindowSize int              // Number of scheduler steps in the sliding window
	mu         sync.RWMutex     // Protects concurrent access
	windows    map[int][]uint64 // lane -> per-step average required fee rates
	stepCount  map[int]int      // lane -> number of steps recorded
	avg        map[int]uint64   // lane -> current expected fee rate
}

// NewTracker creates a tracker with the specified window size
func NewTracker(windowSize int) *Tracker {
	if windowSize <= 0 {
		windowSize = 16 // default window size
	}
	return &Tracker{
		WindowSize: windowSize,
		windows:    make(map[int][]uint64),
		stepCount:  make(map[int]int),
		avg:        make(map[int]uint64),
	}
}

// OnStepFinalized records the required fee rates of the units a lane admitted
// in one scheduler step. Steps that admitted nothing are ignored.
func (t *Tracker) OnStepFinalized(lane int, requiredRates []uint64) {
	if len(requiredRates) == 0 {
		return
	}

	var sum uint64
	for _, rate := range requiredRates {
		sum = utils.SaturatingAdd(sum, rate)
	}
	stepAvg := sum / uint64(len(requiredRates))

	t.mu.Lock()
	defer t.mu.Unlock()

	window := append(t.windows[lane], stepAvg)
	if len(window) > t.WindowSize {
		window = window[len(window)-t.WindowSize:]
	}
	t.windows[lane] = window
	t.stepCount[lane]++
	t.recomputeAvg(lane)
}

// recomputeAvg must be called with lock held
func (t *Tracker) recomputeAvg(lane int) {
	window := t.windows[lane]
	if len(window) == 0 {
		t.avg[lane] = 0
		return
	}

	var sum uint64
	for _, stepAvg := range window {
		sum = utils.SaturatingAdd(sum, stepAvg)
	}
	t.avg[lane] = sum / uint64(len(window))
}

// GetExpectedFeeRate returns the rolling average required fee rate of a lane,
// zero before its first admission
func (t *Tracker) GetExpectedFeeRate(lane int) uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.avg[lane]
}

// GetAllExpectedFeeRates returns a snapshot of every lane average
func (t *Tracker) GetAllExpectedFeeRates() map[int]uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snapshot := make(map[int]uint64, len(t.avg))
	for lane, avg := range t.avg {
		snapshot[lane] = avg
	}
	return snapshot
}

// GetStepCount returns the number of steps recorded for a lane
func (t *Tracker) GetStepCount(lane int) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.stepCount[lane]
}

// Reset clears the data of one lane
func (t *Tracker) Reset(lane int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.windows, lane)
	delete(t.stepCount, lane)
	delete(t.avg, lane)
}
