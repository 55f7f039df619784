// Package synthetic generates work units for named contention scenarios
package synthetic

import (
	"fmt"
	"math/rand"

	"feeEmulator/core"
	"feeEmulator/utils"
)

// Scenario names a demand pattern
type Scenario string

const (
	// ScenarioStable spreads moderate demand over the cold address set
	ScenarioStable Scenario = "stable"
	// ScenarioHot makes every work unit touch one of the hot addresses
	ScenarioHot Scenario = "hot"
	// ScenarioMixed alternates hot and low-demand phases
	ScenarioMixed Scenario = "mixed"
	// ScenarioEmpty is sustained low demand on single cold addresses
	ScenarioEmpty Scenario = "empty"
)

var validScenarios = []Scenario{ScenarioStable, ScenarioHot, ScenarioMixed, ScenarioEmpty}

// ParseScenario validates a scenario name
func ParseScenario(s string) (Scenario, error) {
	for _, valid := range validScenarios {
		if Scenario(s) == valid {
			return valid, nil
		}
	}
	return "", fmt.Errorf("invalid scenario '%s', must be one of: %v", s, validScenarios)
}

// Config holds the generator parameters
type Config struct {
	Scenario    Scenario
	Seed        int64
	HotAddrs    int     // size of the hot address set
	ColdAddrs   int     // size of the cold address set
	MaxAddrs    int     // most addresses a work unit touches
	MinCU       uint64  // smallest requested capacity
	MaxCU       uint64  // largest requested capacity
	BaseRate    uint64  // lowest offered fee rate
	RateSpread  float64 // offered rates fall in [BaseRate, BaseRate*(1+RateSpread)]
	FailureRate float64 // probability a work unit fails during execution
	PhaseLength int     // work units per phase in the mixed scenario
}

// DefaultConfig returns a generator configuration for scenario
func DefaultConfig(scenario Scenario) Config {
	return Config{
		Scenario:    scenario,
		Seed:        1,
		HotAddrs:    2,
		ColdAddrs:   64,
		MaxAddrs:    3,
		MinCU:       1000,
		MaxCU:       200000,
		BaseRate:    5000,
		RateSpread:  0.5,
		FailureRate: 0.05,
		PhaseLength: 50,
	}
}

// Generator produces an endless deterministic stream of work units
type Generator struct {
	cfg  Config
	rng  *rand.Rand
	hot  []utils.Address
	cold []utils.Address
	next core.TxID
}

// NewGenerator creates a generator; address sets are disjoint and stable across seeds
func NewGenerator(cfg Config) *Generator {
	if cfg.HotAddrs <= 0 {
		cfg.HotAddrs = 1
	}
	if cfg.ColdAddrs <= 0 {
		cfg.ColdAddrs = 1
	}
	if cfg.MaxAddrs <= 0 {
		cfg.MaxAddrs = 1
	}
	if cfg.MaxCU < cfg.MinCU {
		cfg.MaxCU = cfg.MinCU
	}
	if cfg.PhaseLength <= 0 {
		cfg.PhaseLength = 50
	}

	g := &Generator{
		cfg:  cfg,
		rng:  rand.New(rand.NewSource(cfg.Seed)),
		hot:  make([]utils.Address, cfg.HotAddrs),
		cold: make([]utils.Address, cfg.ColdAddrs),
	}
	for i := range g.hot {
		g.hot[i] = utils.AddressFromKey(fmt.Sprintf("hot-%d", i))
	}
	for i := range g.cold {
		g.cold[i] = utils.AddressFromKey(fmt.Sprintf("cold-%d", i))
	}
	return g
}

// HotAddresses returns the hot address set
func (g *Generator) HotAddresses() []utils.Address {
	out := make([]utils.Address, len(g.hot))
	copy(out, g.hot)
	return out
}

// Next returns the next work unit and the outcome its execution should report
func (g *Generator) Next() (*core.Transaction, core.Outcome) {
	id := g.next
	g.next++

	hot := false
	lowDemand := false
	switch g.cfg.Scenario {
	case ScenarioHot:
		hot = true
	case ScenarioMixed:
		hot = (int(id)/g.cfg.PhaseLength)%2 == 0
		lowDemand = !hot
	case ScenarioEmpty:
		lowDemand = true
	}

	var addrs []utils.Address
	if hot {
		addrs = append(addrs, g.hot[g.rng.Intn(len(g.hot))])
	}
	touched := 1
	if !lowDemand {
		touched = 1 + g.rng.Intn(g.cfg.MaxAddrs)
	}
	for len(addrs) < touched {
		addrs = append(addrs, g.cold[g.rng.Intn(len(g.cold))])
	}

	cu := g.cfg.MinCU
	rate := g.cfg.BaseRate
	if !lowDemand {
		if span := g.cfg.MaxCU - g.cfg.MinCU; span > 0 {
			cu += uint64(g.rng.Int63n(int64(span) + 1))
		}
		rate = utils.FloatToFee(float64(g.cfg.BaseRate) * (1 + g.rng.Float64()*g.cfg.RateSpread))
	}

	outcome := core.Succeeded()
	if g.rng.Float64() < g.cfg.FailureRate {
		outcome = core.Failed(uint64(g.rng.Int63n(int64(cu) + 1)))
	}

	return core.NewTransaction(id, cu, rate, addrs), outcome
}

// Batch returns the next n work units with their outcomes keyed by TxID
func (g *Generator) Batch(n int) ([]*core.Transaction, map[core.TxID]core.Outcome) {
	txs := make([]*core.Transaction, 0, n)
	outcomes := make(map[core.TxID]core.Outcome, n)
	for i := 0; i < n; i++ {
		tx, outcome := g.Next()
		txs = append(txs, tx)
		outcomes[tx.ID] = outcome
	}
	return txs, outcomes
}
