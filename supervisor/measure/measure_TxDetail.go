package measure

import (
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"feeEmulator/core"
	"feeEmulator/message"
)

type txKey struct {
	lane int
	id   core.TxID
}

// TxMetricDetail is the lifecycle of one work unit on one lane
type TxMetricDetail struct {
	Attempts         int
	FirstOfferedRate uint64
	LastOfferedRate  uint64
	Required         uint64
	ResetCounter     uint64
	IsCongested      bool
	LastReason       string

	FirstAttemptTimestamp, AdmitTimestamp, SettleTimestamp time.Time

	Settled    bool
	Outcome    core.Outcome
	RewardedCU uint64
}

// to test Tx detail
type TestTxDetail struct {
	mu      sync.Mutex
	details map[txKey]*TxMetricDetail
}

func NewTestTxDetail() *TestTxDetail {
	return &TestTxDetail{
		details: make(map[txKey]*TxMetricDetail),
	}
}

func (ttd *TestTxDetail) OutputMetricName() string {
	return "Tx_Details"
}

func (ttd *TestTxDetail) UpdateMeasureRecord(r *message.AdmissionRecord) {
	ttd.mu.Lock()
	defer ttd.mu.Unlock()

	key := txKey{lane: r.Lane, id: r.TxID}
	d, ok := ttd.details[key]
	if !ok {
		d = &TxMetricDetail{FirstOfferedRate: r.OfferedRate, FirstAttemptTimestamp: r.Timestamp}
		ttd.details[key] = d
	}

	switch r.Phase {
	case message.PhaseAdmit:
		d.Attempts = r.Attempt
		d.LastOfferedRate = r.OfferedRate
		d.Required = r.Required
		d.ResetCounter = r.ResetCounter
		d.IsCongested = r.IsCongested
		d.AdmitTimestamp = r.Timestamp
	case message.PhaseReject:
		d.Attempts = r.Attempt
		d.LastOfferedRate = r.OfferedRate
		d.LastReason = r.Reason
	case message.PhaseSettle:
		d.Settled = true
		d.Outcome = r.Outcome
		d.RewardedCU = r.RewardedCU
		d.SettleTimestamp = r.Timestamp
	}
}

// Detail returns a copy of what was recorded for id on lane
func (ttd *TestTxDetail) Detail(lane int, id core.TxID) (TxMetricDetail, bool) {
	ttd.mu.Lock()
	defer ttd.mu.Unlock()
	d, ok := ttd.details[txKey{lane: lane, id: id}]
	if !ok {
		return TxMetricDetail{}, false
	}
	return *d, true
}

// OutputRecord writes the CSV and returns the number of settled units
func (ttd *TestTxDetail) OutputRecord() (perEpoch []float64, settled float64) {
	ttd.writeToCSV()

	ttd.mu.Lock()
	defer ttd.mu.Unlock()
	for _, d := range ttd.details {
		if d.Settled {
			settled++
		}
	}
	return []float64{}, settled
}

func (ttd *TestTxDetail) writeToCSV() {
	ttd.mu.Lock()
	defer ttd.mu.Unlock()

	fileName := ttd.OutputMetricName()
	measureName := []string{
		"Lane",
		"TxID",
		"Attempts",
		"First offered fee rate",
		"Last offered fee rate",
		"Required fee",
		"Epoch",
		"Congested",
		"Last rejection (admitted -> nil)",
		"First attempt timestamp",
		"Admit timestamp",
		"Settle timestamp",
		"Admission latency (ms)",
		"Outcome",
		"Rewarded CU",
	}

	keys := make([]txKey, 0, len(ttd.details))
	for k := range ttd.details {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].lane != keys[j].lane {
			return keys[i].lane < keys[j].lane
		}
		return keys[i].id < keys[j].id
	})

	measureVals := make([][]string, 0, len(keys))
	for _, k := range keys {
		val := ttd.details[k]

		latency := ""
		if !val.AdmitTimestamp.IsZero() {
			latency = strconv.FormatInt(val.AdmitTimestamp.Sub(val.FirstAttemptTimestamp).Milliseconds(), 10)
		}
		reason := val.LastReason
		if !val.AdmitTimestamp.IsZero() {
			reason = ""
		}
		outcome := ""
		if val.Settled {
			outcome = val.Outcome.String()
		}

		csvLine := []string{
			strconv.Itoa(k.lane),
			strconv.FormatUint(uint64(k.id), 10),
			strconv.Itoa(val.Attempts),
			strconv.FormatUint(val.FirstOfferedRate, 10),
			strconv.FormatUint(val.LastOfferedRate, 10),
			strconv.FormatUint(val.Required, 10),
			strconv.FormatUint(val.ResetCounter, 10),
			strconv.FormatBool(val.IsCongested),
			reason,
			timestampToString(val.FirstAttemptTimestamp),
			timestampToString(val.AdmitTimestamp),
			timestampToString(val.SettleTimestamp),
			latency,
			outcome,
			strconv.FormatUint(val.RewardedCU, 10),
		}
		measureVals = append(measureVals, csvLine)
	}

	if err := WriteMetricsToCSV(fileName, measureName, measureVals); err != nil {
		log.Error("Failed to write measurement", "name", fileName, "err", err)
	}
}
