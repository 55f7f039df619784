// Package metrics exposes admission activity and lane state as Prometheus metrics
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"feeEmulator/fees"
	"feeEmulator/fees/expectation"
	"feeEmulator/message"
)

const namespace = "feesim"

// Collector records admission records and samples lane state on scrape
type Collector struct {
	registry prometheus.Registerer

	admissions  *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	settlements *prometheus.CounterVec
	rewardedCU  *prometheus.CounterVec
	offeredRate *prometheus.HistogramVec
}

// NewCollector creates the collector and registers its metrics on reg
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		registry: reg,

		admissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "admissions_total",
				Help:      "Admission attempts by result",
			},
			[]string{"lane", "result"},
		),
		rejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rejections_total",
				Help:      "Rejected admission attempts by reason",
			},
			[]string{"lane", "reason"},
		),
		settlements: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "settlements_total",
				Help:      "Settled work units by outcome",
			},
			[]string{"lane", "outcome"},
		),
		rewardedCU: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rewarded_cu_total",
				Help:      "Capacity units rewarded across touched addresses",
			},
			[]string{"lane"},
		),
		offeredRate: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "offered_fee_rate",
				Help:      "Fee rate offered by admitted work units",
				Buckets:   prometheus.ExponentialBuckets(5000, 2, 12), // floor rate to ~10M
			},
			[]string{"lane"},
		),
	}
}

// ObserveAdmission records one admission record
func (c *Collector) ObserveAdmission(r *message.AdmissionRecord) {
	lane := strconv.Itoa(r.Lane)
	switch r.Phase {
	case message.PhaseAdmit:
		c.admissions.WithLabelValues(lane, "admitted").Inc()
		c.offeredRate.WithLabelValues(lane).Observe(float64(r.OfferedRate))
	case message.PhaseReject:
		c.admissions.WithLabelValues(lane, "rejected").Inc()
		c.rejections.WithLabelValues(lane, r.Reason).Inc()
	case message.PhaseSettle:
		outcome := "succeeded"
		if r.Outcome.Failed {
			outcome = "failed"
		}
		c.settlements.WithLabelValues(lane, outcome).Inc()
		c.rewardedCU.WithLabelValues(lane).Add(float64(r.RewardedCU))
	}
}

// RegisterLane adds gauges sampling lane.Stats() at scrape time
func (c *Collector) RegisterLane(lane *fees.Lane) error {
	labels := prometheus.Labels{"lane": strconv.Itoa(lane.ID)}
	gauges := []struct {
		name, help string
		value      func() float64
	}{
		{"congested", "1 when the lane is congested", func() float64 {
			if lane.Stats().IsCongested {
				return 1
			}
			return 0
		}},
		{"congestion_epoch", "Congestion reset counter", func() float64 { return float64(lane.Stats().ResetCounter) }},
		{"active_work_units", "Work units currently measured", func() float64 { return float64(lane.Stats().ActiveTxs) }},
		{"nonconflicting_groups", "Non-conflicting groups in the recency window", func() float64 { return float64(lane.Stats().Groups) }},
		{"clock_cu", "Capacity units released so far", func() float64 { return float64(lane.Stats().Clock) }},
		{"collected_fee", "Fee collected at the floor rate", func() float64 { return float64(lane.Stats().CollectedFee) }},
		{"burnt_fee", "Supplied fee not collected", func() float64 { return float64(lane.Stats().BurntFee) }},
		{"fee_markets", "Addresses with a fee market", func() float64 { return float64(lane.Stats().Markets) }},
	}

	for _, g := range gauges {
		gf := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "lane",
			Name:        g.name,
			Help:        g.help,
			ConstLabels: labels,
		}, g.value)
		if err := c.registry.Register(gf); err != nil {
			return err
		}
	}
	return nil
}

// RegisterExpectation adds an expected required fee rate gauge for each lane
func (c *Collector) RegisterExpectation(tracker *expectation.Tracker, lanes []int) error {
	for _, id := range lanes {
		id := id
		gf := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "lane",
			Name:        "expected_fee_rate",
			Help:        "Rolling average of admitted required fee rates",
			ConstLabels: prometheus.Labels{"lane": strconv.Itoa(id)},
		}, func() float64 { return float64(tracker.GetExpectedFeeRate(id)) })
		if err := c.registry.Register(gf); err != nil {
			return err
		}
	}
	return nil
}
