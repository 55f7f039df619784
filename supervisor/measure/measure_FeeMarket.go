package measure

import (
	"sort"
	"strconv"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"

	"feeEmulator/message"
)

// epochStats aggregates one congestion epoch of one lane
type epochStats struct {
	admitCount     int
	congestedCount int // admissions priced while congested
	rejectCount    int
	rejectReasons  map[string]int
	settleCount    int
	failCount      int

	offeredTotal  *uint256.Int // fees offered by admitted units
	requiredTotal *uint256.Int // minimum payments of admitted units
	admittedCU    uint64
	rewardedCU    uint64
}

func newEpochStats() *epochStats {
	return &epochStats{
		rejectReasons: make(map[string]int),
		offeredTotal:  new(uint256.Int),
		requiredTotal: new(uint256.Int),
	}
}

func (es *epochStats) avgRequiredRate() uint64 {
	if es.admittedCU == 0 {
		return 0
	}
	return new(uint256.Int).Div(es.requiredTotal, uint256.NewInt(es.admittedCU)).Uint64()
}

// TestModule_FeeMarket measures admissions, rejections and settlements per
// lane and congestion epoch (the lane tracker's reset counter)
type TestModule_FeeMarket struct {
	mu     sync.Mutex
	epochs map[int][]*epochStats // lane -> epochs indexed by reset counter
}

func NewTestModule_FeeMarket() *TestModule_FeeMarket {
	return &TestModule_FeeMarket{epochs: make(map[int][]*epochStats)}
}

func (tmf *TestModule_FeeMarket) OutputMetricName() string {
	return "FeeMarket_Epochs"
}

// epoch returns the stats of lane at epochid, must be called with mu held
func (tmf *TestModule_FeeMarket) epoch(lane, epochid int) *epochStats {
	list := tmf.epochs[lane]
	for len(list) <= epochid {
		list = append(list, newEpochStats())
	}
	tmf.epochs[lane] = list
	return list[epochid]
}

func (tmf *TestModule_FeeMarket) UpdateMeasureRecord(r *message.AdmissionRecord) {
	tmf.mu.Lock()
	defer tmf.mu.Unlock()

	es := tmf.epoch(r.Lane, int(r.ResetCounter))
	switch r.Phase {
	case message.PhaseAdmit:
		es.admitCount++
		if r.IsCongested {
			es.congestedCount++
		}
		es.offeredTotal.AddUint64(es.offeredTotal, r.Offered)
		es.requiredTotal.AddUint64(es.requiredTotal, r.Required)
		es.admittedCU += r.RequestedCU
	case message.PhaseReject:
		es.rejectCount++
		es.rejectReasons[r.Reason]++
	case message.PhaseSettle:
		es.settleCount++
		if r.Outcome.Failed {
			es.failCount++
		}
		es.rewardedCU += r.RewardedCU
	}
}

// sortedLanes must be called with mu held
func (tmf *TestModule_FeeMarket) sortedLanes() []int {
	lanes := make([]int, 0, len(tmf.epochs))
	for lane := range tmf.epochs {
		lanes = append(lanes, lane)
	}
	sort.Ints(lanes)
	return lanes
}

// OutputRecord writes the CSV and returns the average required fee rate of
// every (lane, epoch) row, lanes ascending then epochs ascending, together
// with the overall admission ratio
func (tmf *TestModule_FeeMarket) OutputRecord() (perEpochRate []float64, admitRatio float64) {
	tmf.writeToCSV()

	tmf.mu.Lock()
	defer tmf.mu.Unlock()

	admits, attempts := 0, 0
	for _, lane := range tmf.sortedLanes() {
		for _, es := range tmf.epochs[lane] {
			perEpochRate = append(perEpochRate, float64(es.avgRequiredRate()))
			admits += es.admitCount
			attempts += es.admitCount + es.rejectCount
		}
	}
	if attempts > 0 {
		admitRatio = float64(admits) / float64(attempts)
	}
	return
}

func (tmf *TestModule_FeeMarket) writeToCSV() {
	tmf.mu.Lock()
	defer tmf.mu.Unlock()

	fileName := tmf.OutputMetricName()
	measureName := []string{
		"LaneID",
		"EpochID",
		"Admitted",
		"Admitted while congested",
		"Rejected",
		"Rejection reasons",
		"Settled",
		"Failed",
		"Offered fee total",
		"Required fee total",
		"Admitted CU",
		"Avg required fee rate",
		"Rewarded CU",
	}

	var measureVals [][]string
	for _, lane := range tmf.sortedLanes() {
		for eid, es := range tmf.epochs[lane] {
			csvLine := []string{
				strconv.Itoa(lane),
				strconv.Itoa(eid),
				strconv.Itoa(es.admitCount),
				strconv.Itoa(es.congestedCount),
				strconv.Itoa(es.rejectCount),
				formatReasons(es.rejectReasons),
				strconv.Itoa(es.settleCount),
				strconv.Itoa(es.failCount),
				es.offeredTotal.ToBig().String(),
				es.requiredTotal.ToBig().String(),
				strconv.FormatUint(es.admittedCU, 10),
				strconv.FormatUint(es.avgRequiredRate(), 10),
				strconv.FormatUint(es.rewardedCU, 10),
			}
			measureVals = append(measureVals, csvLine)
		}
	}

	if err := WriteMetricsToCSV(fileName, measureName, measureVals); err != nil {
		log.Error("Failed to write measurement", "name", fileName, "err", err)
	}
}

// formatReasons renders "Kind:count" pairs in a stable order
func formatReasons(reasons map[string]int) string {
	kinds := make([]string, 0, len(reasons))
	for k := range reasons {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	out := ""
	for i, k := range kinds {
		if i > 0 {
			out += ";"
		}
		out += k + ":" + strconv.Itoa(reasons[k])
	}
	return out
}
