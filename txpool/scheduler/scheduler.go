// Package scheduler drives work units from a transaction pool through an
// execution lane: admission, fee bumps on rejection, execution and settlement
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"feeEmulator/core"
	"feeEmulator/fees"
	"feeEmulator/fees/expectation"
	"feeEmulator/fees/feemarket"
	"feeEmulator/message"
	"feeEmulator/txpool/pending"
)

// Observer receives every admission, rejection and settlement record
type Observer interface {
	ObserveAdmission(r *message.AdmissionRecord)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(r *message.AdmissionRecord)

func (f ObserverFunc) ObserveAdmission(r *message.AdmissionRecord) { f(r) }

// StepStats counts what happened during one or more scheduler steps
type StepStats struct {
	Packed   int
	Admitted int
	Rejected int
	Requeued int
	Dropped  int
	Settled  int
}

func (s *StepStats) add(o StepStats) {
	s.Packed += o.Packed
	s.Admitted += o.Admitted
	s.Rejected += o.Rejected
	s.Requeued += o.Requeued
	s.Dropped += o.Dropped
	s.Settled += o.Settled
}

// Scheduler admits pooled work units to a lane and settles them
type Scheduler struct {
	Lane     *fees.Lane
	Pool     core.TxPoolInterface
	Ledger   *pending.Ledger
	Executor Executor

	MaxRetries   int     // admission attempts per work unit before it is dropped
	FeeBumpLimit float64 // highest resubmission rate as a multiple of the first offered rate

	// Expectation, when set, receives the required fee rates admitted in each step
	Expectation *expectation.Tracker

	observers    []Observer
	attempts     map[core.TxID]int
	originalRate map[core.TxID]uint64
	seq          uint64
	total        StepStats
	logger       log.Logger
}

// NewScheduler creates a scheduler for lane fed from pool
func NewScheduler(lane *fees.Lane, pool core.TxPoolInterface, ledger *pending.Ledger, executor Executor) *Scheduler {
	if executor == nil {
		executor = NewPlannedExecutor()
	}
	return &Scheduler{
		Lane:         lane,
		Pool:         pool,
		Ledger:       ledger,
		Executor:     executor,
		MaxRetries:   32,
		FeeBumpLimit: 2.0,
		attempts:     make(map[core.TxID]int),
		originalRate: make(map[core.TxID]uint64),
		logger:       log.New("module", "scheduler", "lane", lane.ID),
	}
}

// AddObserver registers an observer for admission records
func (s *Scheduler) AddObserver(o Observer) {
	s.observers = append(s.observers, o)
}

func (s *Scheduler) notify(r *message.AdmissionRecord) {
	for _, o := range s.observers {
		o.ObserveAdmission(r)
	}
}

// Stats returns the totals over all steps so far
func (s *Scheduler) Stats() StepStats {
	return s.total
}

// Step packs as many work units as the lane has free slots, admits them,
// executes the admitted ones and settles each exactly once
func (s *Scheduler) Step() StepStats {
	s.seq++
	var stats StepStats

	free := s.Lane.FreeSlots()
	if free == 0 {
		s.logger.Warn("Lane has no free slots", "step", s.seq)
		return stats
	}
	txs := s.Pool.PackTxs(uint64(free))
	stats.Packed = len(txs)

	admitted := make([]*core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if s.admit(tx, &stats) {
			admitted = append(admitted, tx)
		}
	}

	if s.Expectation != nil {
		s.Expectation.OnStepFinalized(s.Lane.ID, s.requiredRates(admitted))
	}

	for _, tx := range admitted {
		s.settle(tx, &stats)
	}

	if stale := s.Ledger.Stale(s.seq + 1); len(stale) > 0 {
		s.logger.Warn("Work units left unsettled", "step", s.seq, "count", len(stale))
	}

	s.total.add(stats)
	return stats
}

// requiredRates returns the per-unit required fee rate of admitted pending units
func (s *Scheduler) requiredRates(admitted []*core.Transaction) []uint64 {
	rates := make([]uint64, 0, len(admitted))
	for _, tx := range admitted {
		if p, ok := s.Ledger.Get(tx.ID); ok {
			q := message.NewFeeQuote(tx, p.Offered, p.Required, p.ResetCounter, p.IsCongested)
			rates = append(rates, q.RequiredFeeRate())
		}
	}
	return rates
}

// admit tries one admission and handles the rejection; reports whether tx is now active
func (s *Scheduler) admit(tx *core.Transaction, stats *StepStats) bool {
	if _, ok := s.originalRate[tx.ID]; !ok {
		s.originalRate[tx.ID] = tx.SuppliedFeeRate
	}
	s.attempts[tx.ID]++
	attempt := s.attempts[tx.ID]

	record := &message.AdmissionRecord{
		Lane:        s.Lane.ID,
		TxID:        tx.ID,
		Attempt:     attempt,
		RequestedCU: tx.RequestedCU,
		AddrCount:   len(tx.Addrs),
		OfferedRate: tx.SuppliedFeeRate,
		Offered:     tx.SuppliedFee(),
		Timestamp:   time.Now(),
	}

	q, err := s.Lane.Admit(tx)
	if q != nil {
		record.Required = q.Required
		record.ResetCounter = q.State.ResetCounter
		record.IsCongested = q.State.IsCongested
	} else {
		st := s.Lane.Stats()
		record.ResetCounter = st.ResetCounter
		record.IsCongested = st.IsCongested
	}

	if err == nil {
		record.Phase = message.PhaseAdmit
		s.notify(record)
		stats.Admitted++

		cfg := s.Lane.Config()
		if lerr := s.Ledger.Add(&pending.Pending{
			TxID:         tx.ID,
			Attempt:      attempt,
			RequestedCU:  tx.RequestedCU,
			AddrCount:    len(q.Addrs),
			FloorRate:    cfg.MinimumBaseFeeRate,
			Offered:      q.Offered,
			Required:     q.Required,
			ResetCounter: q.State.ResetCounter,
			IsCongested:  q.State.IsCongested,
			AdmittedSeq:  s.seq,
		}); lerr != nil {
			s.logger.Warn("Pending ledger rejected admitted unit", "tx", tx.ID, "err", lerr)
		}
		return true
	}

	record.Phase = message.PhaseReject
	record.Reason = feemarket.ErrorKind(err)
	s.notify(record)
	stats.Rejected++

	switch {
	case errors.Is(err, feemarket.ErrAlreadyActive), errors.Is(err, feemarket.ErrTooManyActiveThreadCount):
		if attempt < s.MaxRetries {
			s.Pool.AddTx2Pool(tx)
			stats.Requeued++
			return false
		}
	case errors.Is(err, feemarket.ErrInsufficientSuppliedFee):
		if q == nil {
			break
		}
		quote := message.NewFeeQuote(tx, q.Offered, q.Required, q.State.ResetCounter, q.State.IsCongested)
		bumped := quote.RequiredFeeRate()
		limit := float64(s.originalRate[tx.ID]) * s.FeeBumpLimit
		if attempt < s.MaxRetries && float64(bumped) <= limit {
			s.logger.Trace("Resubmitting with higher fee rate", "tx", tx.ID, "from", tx.SuppliedFeeRate, "to", bumped)
			s.Pool.AddTx2Pool(tx.WithFeeRate(bumped))
			stats.Requeued++
			return false
		}
		s.logger.Debug("Fee bump exceeds limit", "tx", tx.ID, "required", bumped, "limit", limit)
	}

	s.logger.Debug("Dropped work unit", "tx", tx.ID, "reason", record.Reason, "attempts", attempt)
	s.forget(tx.ID)
	stats.Dropped++
	return false
}

// settle executes an admitted unit and releases it on the lane and in the ledger
func (s *Scheduler) settle(tx *core.Transaction, stats *StepStats) {
	outcome := s.Executor.Execute(tx)
	if err := s.Lane.StopMeasuring(tx, outcome); err != nil {
		s.logger.Error("Failed to release work unit", "tx", tx.ID, "err", err)
		return
	}

	record := &message.AdmissionRecord{
		Lane:        s.Lane.ID,
		TxID:        tx.ID,
		Phase:       message.PhaseSettle,
		Attempt:     s.attempts[tx.ID],
		RequestedCU: tx.RequestedCU,
		AddrCount:   len(tx.Addrs),
		OfferedRate: tx.SuppliedFeeRate,
		Offered:     tx.SuppliedFee(),
		Outcome:     outcome,
	}
	if p, ok := s.Ledger.Get(tx.ID); ok {
		record.Required = p.Required
		record.ResetCounter = p.ResetCounter
		record.IsCongested = p.IsCongested
	}

	if s.Ledger.IsPending(tx.ID) {
		if err := s.Ledger.Settle(tx.ID, outcome, func(_ core.TxID, cu, _ uint64) { record.RewardedCU = cu }); err != nil {
			s.logger.Warn("Failed to settle pending unit", "tx", tx.ID, "err", err)
		}
	}

	record.Timestamp = time.Now()
	s.notify(record)
	s.forget(tx.ID)
	stats.Settled++
}

func (s *Scheduler) forget(id core.TxID) {
	delete(s.attempts, id)
	delete(s.originalRate, id)
}

// Drain steps until the pool is empty or ctx is done
func (s *Scheduler) Drain(ctx context.Context) (StepStats, error) {
	var stats StepStats
	for s.Pool.GetTxQueueLen() > 0 {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		step := s.Step()
		stats.add(step)
		if step.Packed == 0 {
			break
		}
	}
	return stats, nil
}
