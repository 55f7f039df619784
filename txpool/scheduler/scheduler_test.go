package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"feeEmulator/core"
	"feeEmulator/fees"
	"feeEmulator/fees/expectation"
	"feeEmulator/fees/feemarket"
	"feeEmulator/message"
	"feeEmulator/txpool/pending"
	"feeEmulator/utils"
)

var hot = utils.AddressFromUint(0xA)

func newTestScheduler(cfg *feemarket.Config) (*Scheduler, *core.PriorityTxPool, *PlannedExecutor) {
	pool := core.NewPriorityTxPool()
	executor := NewPlannedExecutor()
	s := NewScheduler(fees.NewLane(0, cfg), pool, pending.NewLedger(), executor)
	return s, pool, executor
}

// TestScheduler_RequeueAndFeeBump tests conflict requeue followed by a fee bump
func TestScheduler_RequeueAndFeeBump(t *testing.T) {
	s, pool, _ := newTestScheduler(nil)

	var phases []message.Phase
	s.AddObserver(ObserverFunc(func(r *message.AdmissionRecord) {
		phases = append(phases, r.Phase)
	}))

	pool.AddTxs2Pool([]*core.Transaction{
		core.NewTransaction(1, 200, 5013, []utils.Address{hot}),
		core.NewTransaction(2, 200, 5013, []utils.Address{hot}),
	})

	stats, err := s.Drain(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, stats.Admitted)
	require.Equal(t, 2, stats.Settled)
	require.Equal(t, 2, stats.Rejected)
	require.Equal(t, 2, stats.Requeued)
	require.Zero(t, stats.Dropped)
	require.Equal(t, stats, s.Stats())

	require.Equal(t, []message.Phase{
		message.PhaseAdmit, message.PhaseReject, message.PhaseSettle,
		message.PhaseReject,
		message.PhaseAdmit, message.PhaseSettle,
	}, phases)

	laneStats := s.Lane.Stats()
	require.Equal(t, uint64(1002600+1005200), laneStats.TotalSuppliedFee)
	require.Zero(t, laneStats.ActiveTxs)
	require.Equal(t, 2, s.Ledger.GetSettledCount())
	require.Zero(t, s.Ledger.GetPendingCount())

	market, ok := s.Lane.Market(hot)
	require.True(t, ok)
	require.Equal(t, uint64(5026), market.RequiredFeeRate)
}

// TestScheduler_ReusedTxID tests that an ID settled in one drain can be admitted
// and settled again in a later one with full record details
func TestScheduler_ReusedTxID(t *testing.T) {
	s, pool, _ := newTestScheduler(nil)

	var admits, settles []*message.AdmissionRecord
	s.AddObserver(ObserverFunc(func(r *message.AdmissionRecord) {
		switch r.Phase {
		case message.PhaseAdmit:
			admits = append(admits, r)
		case message.PhaseSettle:
			settles = append(settles, r)
		}
	}))

	for i := 0; i < 2; i++ {
		pool.AddTx2Pool(core.NewTransaction(3, 200, 6000, []utils.Address{hot}))
		stats, err := s.Drain(context.Background())
		require.NoError(t, err)
		require.Equal(t, 1, stats.Admitted)
		require.Equal(t, 1, stats.Settled)
	}

	require.Len(t, admits, 2)
	require.Len(t, settles, 2)
	require.Equal(t, uint64(1002600), settles[0].Required)
	for i, r := range settles {
		require.Equal(t, uint64(200), r.RewardedCU, "settlement %d", i)
		require.Equal(t, admits[i].Required, r.Required, "settlement %d", i)
		require.NotZero(t, r.Required, "settlement %d", i)
	}

	require.Equal(t, uint64(400), s.Lane.Stats().RewardedCU)
	require.Equal(t, 2, s.Ledger.GetSettledCount())
	require.Zero(t, s.Ledger.GetPendingCount())
}

// TestScheduler_Expectation tests that each step reports the admitted required rates
func TestScheduler_Expectation(t *testing.T) {
	s, pool, _ := newTestScheduler(nil)
	s.Expectation = expectation.NewTracker(4)

	pool.AddTxs2Pool([]*core.Transaction{
		core.NewTransaction(1, 200, 5013, []utils.Address{hot}),
		core.NewTransaction(2, 200, 5013, []utils.Address{hot}),
	})
	_, err := s.Drain(context.Background())
	require.NoError(t, err)

	// 1002600/200 then 1005200/200; the all-reject step is skipped
	require.Equal(t, 2, s.Expectation.GetStepCount(0))
	require.Equal(t, uint64((5013+5026)/2), s.Expectation.GetExpectedFeeRate(0))
}

// TestScheduler_FeeBumpLimit tests that units are dropped past the bump limit
func TestScheduler_FeeBumpLimit(t *testing.T) {
	s, pool, _ := newTestScheduler(nil)
	s.FeeBumpLimit = 1.0

	pool.AddTxs2Pool([]*core.Transaction{
		core.NewTransaction(1, 200, 5013, []utils.Address{hot}),
		core.NewTransaction(2, 200, 5013, []utils.Address{hot}),
	})

	stats, err := s.Drain(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, stats.Admitted)
	require.Equal(t, 1, stats.Dropped)
	require.Zero(t, pool.GetTxQueueLen())
	require.False(t, s.Ledger.IsSettled(2))
}

// TestScheduler_MaxRetries tests dropping after repeated conflicts
func TestScheduler_MaxRetries(t *testing.T) {
	s, pool, _ := newTestScheduler(nil)
	s.MaxRetries = 1

	pool.AddTxs2Pool([]*core.Transaction{
		core.NewTransaction(1, 200, 6000, []utils.Address{hot}),
		core.NewTransaction(2, 200, 6000, []utils.Address{hot}),
	})

	stats := s.Step()
	require.Equal(t, 2, stats.Packed)
	require.Equal(t, 1, stats.Admitted)
	require.Equal(t, 1, stats.Dropped)
	require.Zero(t, stats.Requeued)
}

// TestScheduler_FailedExecution tests settlement of a planned failure
func TestScheduler_FailedExecution(t *testing.T) {
	s, pool, executor := newTestScheduler(nil)
	executor.Plan(1, core.Failed(100))

	var rewarded uint64
	s.AddObserver(ObserverFunc(func(r *message.AdmissionRecord) {
		if r.Phase == message.PhaseSettle {
			rewarded = r.RewardedCU
			require.True(t, r.Outcome.Failed)
		}
	}))

	pool.AddTx2Pool(core.NewTransaction(1, 200, 5013, []utils.Address{hot}))
	_, err := s.Drain(context.Background())
	require.NoError(t, err)

	require.Equal(t, uint64(50), rewarded)
	laneStats := s.Lane.Stats()
	require.Equal(t, uint64(50*5000), laneStats.CollectedFee)
	require.Equal(t, uint64(752600), laneStats.BurntFee)
	require.Equal(t, uint64(200), laneStats.Clock)
}

// TestScheduler_NoAddressDropped tests that malformed units are dropped
func TestScheduler_NoAddressDropped(t *testing.T) {
	s, pool, _ := newTestScheduler(nil)
	var reasons []string
	s.AddObserver(ObserverFunc(func(r *message.AdmissionRecord) {
		reasons = append(reasons, r.Reason)
	}))

	pool.AddTx2Pool(core.NewTransaction(1, 200, 5013, nil))
	stats := s.Step()
	require.Equal(t, 1, stats.Dropped)
	require.Equal(t, []string{"NoAddress"}, reasons)
}

// TestScheduler_DrainCancelled tests that Drain honours the context
func TestScheduler_DrainCancelled(t *testing.T) {
	s, pool, _ := newTestScheduler(nil)
	pool.AddTx2Pool(core.NewTransaction(1, 200, 5013, []utils.Address{hot}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Drain(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, pool.GetTxQueueLen())
}

// TestPlannedExecutor tests planned and default outcomes
func TestPlannedExecutor(t *testing.T) {
	e := NewPlannedExecutor()
	e.Plan(3, core.Failed(7))
	tx := core.NewTransaction(3, 10, 1, []utils.Address{hot})

	require.Equal(t, core.Failed(7), e.Execute(tx))
	require.Equal(t, core.Succeeded(), e.Execute(tx), "plans are consumed once")
}
