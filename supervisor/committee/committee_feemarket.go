// Package committee feeds work units from a source into the execution lanes
package committee

import (
	"context"
	"io"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/time/rate"

	"feeEmulator/core"
	"feeEmulator/ingest/ethcsv"
	"feeEmulator/txpool/scheduler"
)

// FeeMarketCommitteeModule reads work units in batches, injects them into the
// lane pools at a paced rate and drains every lane after each batch
type FeeMarketCommitteeModule struct {
	source     Source
	schedulers []*scheduler.Scheduler
	executor   *scheduler.PlannedExecutor

	dataTotalNum int
	nowDataNum   int
	batchDataNum int
	limiter      *rate.Limiter

	logger log.Logger
}

// NewFeeMarketCommitteeModule creates the module. Outcomes read from the
// source are planned on executor, which the schedulers must share.
// injectSpeed is in work units per second; zero or less disables pacing.
// dataNum of zero or less reads until the source ends.
func NewFeeMarketCommitteeModule(source Source, schedulers []*scheduler.Scheduler, executor *scheduler.PlannedExecutor,
	dataNum, batchNum, injectSpeed int) *FeeMarketCommitteeModule {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if injectSpeed > 0 {
		limiter = rate.NewLimiter(rate.Limit(injectSpeed), injectSpeed)
	}
	if batchNum <= 0 {
		batchNum = dataNum
	}
	return &FeeMarketCommitteeModule{
		source:       source,
		schedulers:   schedulers,
		executor:     executor,
		dataTotalNum: dataNum,
		batchDataNum: batchNum,
		limiter:      limiter,
		logger:       log.New("module", "committee"),
	}
}

// Injected returns the number of work units injected so far
func (m *FeeMarketCommitteeModule) Injected() int {
	return m.nowDataNum
}

// route picks the lane of a work unit from its first address
func (m *FeeMarketCommitteeModule) route(tx *core.Transaction) int {
	if len(tx.Addrs) == 0 {
		return 0
	}
	return ethcsv.MapLane(tx.Addrs[0].Hex(), len(m.schedulers))
}

// txSending paces txlist into the lane pools, then drains every lane
func (m *FeeMarketCommitteeModule) txSending(ctx context.Context, txlist []*core.Transaction, outcomes []core.Outcome) error {
	for i, tx := range txlist {
		if err := m.limiter.Wait(ctx); err != nil {
			return err
		}
		m.executor.Plan(tx.ID, outcomes[i])
		m.schedulers[m.route(tx)].Pool.AddTx2Pool(tx)
	}

	var wg sync.WaitGroup
	errs := make([]error, len(m.schedulers))
	for i, s := range m.schedulers {
		wg.Add(1)
		go func(i int, s *scheduler.Scheduler) {
			defer wg.Done()
			stats, err := s.Drain(ctx)
			errs[i] = err
			m.logger.Debug("Drained lane", "lane", s.Lane.ID, "admitted", stats.Admitted,
				"settled", stats.Settled, "dropped", stats.Dropped)
		}(i, s)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// MsgSendingControl reads the source until it ends or the total is reached,
// sending one batch at a time
func (m *FeeMarketCommitteeModule) MsgSendingControl(ctx context.Context) error {
	txlist := make([]*core.Transaction, 0, m.batchDataNum)
	outcomes := make([]core.Outcome, 0, m.batchDataNum)

	flush := func() error {
		if len(txlist) == 0 {
			return nil
		}
		if err := m.txSending(ctx, txlist, outcomes); err != nil {
			return err
		}
		m.logger.Info("Batch injected", "batch", len(txlist), "injected", m.nowDataNum, "total", m.dataTotalNum)
		txlist = make([]*core.Transaction, 0, m.batchDataNum)
		outcomes = make([]core.Outcome, 0, m.batchDataNum)
		return nil
	}

	for m.dataTotalNum <= 0 || m.nowDataNum < m.dataTotalNum {
		tx, outcome, err := m.source.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		txlist = append(txlist, tx)
		outcomes = append(outcomes, outcome)
		m.nowDataNum++

		if len(txlist) == m.batchDataNum {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}
