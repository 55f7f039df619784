// Package supervisor wires a complete emulation run: lanes, schedulers,
// workload injection, measurement, metrics and the receipt log
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"

	"feeEmulator/core"
	"feeEmulator/fees"
	"feeEmulator/fees/expectation"
	"feeEmulator/ingest/synthetic"
	"feeEmulator/metrics"
	"feeEmulator/params"
	"feeEmulator/storage/receipts"
	"feeEmulator/supervisor/committee"
	"feeEmulator/supervisor/measure"
	"feeEmulator/txpool/pending"
	"feeEmulator/txpool/scheduler"
)

// Supervisor owns every component of one run
type Supervisor struct {
	Lanes      []*fees.Lane
	Schedulers []*scheduler.Scheduler
	Measures   []measure.MeasureModule
	Expected   *expectation.Tracker
	Collector  *metrics.Collector
	Receipts   *receipts.Store

	comMod   *committee.FeeMarketCommitteeModule
	closers  []func() error
	executor *scheduler.PlannedExecutor
}

// NewSupervisor builds a run from the current params. Metrics are registered
// on reg when it is non-nil.
func NewSupervisor(reg prometheus.Registerer) (*Supervisor, error) {
	if params.LaneNum <= 0 {
		return nil, fmt.Errorf("lane count must be positive, got %d", params.LaneNum)
	}
	d := &Supervisor{
		executor: scheduler.NewPlannedExecutor(),
		Expected: expectation.NewTracker(params.ExpectationWindow),
		Measures: []measure.MeasureModule{
			measure.NewTestModule_FeeMarket(),
			measure.NewTestTxDetail(),
			measure.NewTestModule_FeeLatency(),
		},
	}

	if reg != nil {
		d.Collector = metrics.NewCollector(reg)
	}

	if err := os.MkdirAll(params.DatabaseWrite_path, 0o755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}
	store, err := receipts.Open(filepath.Join(params.DatabaseWrite_path, "receipts.db"))
	if err != nil {
		return nil, err
	}
	d.Receipts = store
	d.closers = append(d.closers, store.Close)

	for i := 0; i < params.LaneNum; i++ {
		lane, err := params.NewFeeMarketLane(i)
		if err != nil {
			d.Close()
			return nil, err
		}
		s := scheduler.NewScheduler(lane, core.NewPriorityTxPool(), pending.NewLedger(), d.executor)
		s.MaxRetries = params.MaxSchedulerRetries
		s.FeeBumpLimit = params.FeeBumpLimit
		s.Expectation = d.Expected
		for _, m := range d.Measures {
			s.AddObserver(scheduler.ObserverFunc(m.UpdateMeasureRecord))
		}
		s.AddObserver(store)
		if d.Collector != nil {
			s.AddObserver(d.Collector)
			if err := d.Collector.RegisterLane(lane); err != nil {
				d.Close()
				return nil, fmt.Errorf("register lane %d metrics: %w", i, err)
			}
		}
		d.Lanes = append(d.Lanes, lane)
		d.Schedulers = append(d.Schedulers, s)
	}

	if d.Collector != nil {
		ids := make([]int, len(d.Lanes))
		for i, lane := range d.Lanes {
			ids[i] = lane.ID
		}
		if err := d.Collector.RegisterExpectation(d.Expected, ids); err != nil {
			d.Close()
			return nil, fmt.Errorf("register expectation metrics: %w", err)
		}
	}

	source, err := d.newSource()
	if err != nil {
		d.Close()
		return nil, err
	}
	d.comMod = committee.NewFeeMarketCommitteeModule(source, d.Schedulers, d.executor,
		params.TotalDataSize, params.TxBatchSize, params.InjectSpeed)
	return d, nil
}

// newSource picks the synthetic scenario when one is set, the dataset file otherwise
func (d *Supervisor) newSource() (committee.Source, error) {
	if params.Scenario != "" {
		scenario, err := synthetic.ParseScenario(params.Scenario)
		if err != nil {
			return nil, err
		}
		cfg := synthetic.DefaultConfig(scenario)
		cfg.Seed = params.Seed
		cfg.BaseRate = params.MinimumBaseFeeRate
		if params.TotalDataSize <= 0 {
			return nil, errors.New("synthetic workload needs a positive total data size")
		}
		log.Info("Using synthetic workload", "scenario", scenario, "seed", cfg.Seed)
		return committee.NewSyntheticSource(cfg), nil
	}

	f, err := os.Open(params.DatasetFile)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	d.closers = append(d.closers, f.Close)
	log.Info("Replaying dataset", "file", params.DatasetFile, "unitWei", params.FeeRateUnitWei)
	return committee.NewCSVSource(f, params.FeeRateUnitWei), nil
}

// Run injects the workload, then writes every measurement
func (d *Supervisor) Run(ctx context.Context) error {
	err := d.comMod.MsgSendingControl(ctx)
	if err != nil {
		log.Warn("Injection stopped early", "injected", d.comMod.Injected(), "err", err)
	}

	for _, s := range d.Schedulers {
		st := s.Stats()
		ls := s.Lane.Stats()
		log.Info("Lane finished", "lane", s.Lane.ID, "admitted", st.Admitted, "rejected", st.Rejected,
			"dropped", st.Dropped, "settled", st.Settled, "epoch", ls.ResetCounter,
			"collected", ls.CollectedFee, "burnt", ls.BurntFee, "expectedRate", d.Expected.GetExpectedFeeRate(s.Lane.ID))
	}
	for _, m := range d.Measures {
		perEpoch, total := m.OutputRecord()
		log.Info("Measurement written", "name", m.OutputMetricName(), "entries", len(perEpoch), "total", total)
	}
	return err
}

// Injected returns the number of work units read from the source
func (d *Supervisor) Injected() int {
	return d.comMod.Injected()
}

// Close releases the receipt store and the dataset file
func (d *Supervisor) Close() error {
	var firstErr error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	d.closers = nil
	return firstErr
}
