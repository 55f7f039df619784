package measure

import (
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"feeEmulator/message"
)

// FeeLatencyMetric pairs the fee a work unit finally paid with how long it
// waited for admission
type FeeLatencyMetric struct {
	Lane         int
	TxID         uint64
	OfferedRate  uint64
	Offered      uint64
	Attempts     int
	FirstAttempt time.Time
	AdmitTime    time.Time
	QueueLatency int64 // ms from first attempt to admission
}

// TestModule_FeeLatency relates offered fee rate to admission latency
type TestModule_FeeLatency struct {
	mu           sync.Mutex
	firstAttempt map[txKey]time.Time
	metrics      []*FeeLatencyMetric
}

func NewTestModule_FeeLatency() *TestModule_FeeLatency {
	return &TestModule_FeeLatency{
		firstAttempt: make(map[txKey]time.Time),
	}
}

func (tmfl *TestModule_FeeLatency) OutputMetricName() string {
	return "Fee_vs_Latency"
}

func (tmfl *TestModule_FeeLatency) UpdateMeasureRecord(r *message.AdmissionRecord) {
	tmfl.mu.Lock()
	defer tmfl.mu.Unlock()

	key := txKey{lane: r.Lane, id: r.TxID}
	switch r.Phase {
	case message.PhaseReject:
		if _, ok := tmfl.firstAttempt[key]; !ok {
			tmfl.firstAttempt[key] = r.Timestamp
		}
	case message.PhaseAdmit:
		first, ok := tmfl.firstAttempt[key]
		if !ok {
			first = r.Timestamp
		}
		delete(tmfl.firstAttempt, key)

		latency := r.Timestamp.Sub(first).Milliseconds()
		if latency < 0 {
			latency = 0
		}
		tmfl.metrics = append(tmfl.metrics, &FeeLatencyMetric{
			Lane:         r.Lane,
			TxID:         uint64(r.TxID),
			OfferedRate:  r.OfferedRate,
			Offered:      r.Offered,
			Attempts:     r.Attempt,
			FirstAttempt: first,
			AdmitTime:    r.Timestamp,
			QueueLatency: latency,
		})
	}
}

// OutputRecord writes the CSV and returns the mean admission attempts per fee
// rate quartile (cheapest first) and the overall mean latency in ms
func (tmfl *TestModule_FeeLatency) OutputRecord() (perQuartile []float64, avgLatency float64) {
	tmfl.writeToCSV()

	tmfl.mu.Lock()
	defer tmfl.mu.Unlock()

	sorted := tmfl.sortedByRate()
	perQuartile = make([]float64, 4)
	if len(sorted) == 0 {
		return perQuartile, 0
	}
	counts := make([]int, 4)
	var total int64
	for i, m := range sorted {
		q := i * 4 / len(sorted)
		perQuartile[q] += float64(m.Attempts)
		counts[q]++
		total += m.QueueLatency
	}
	for q := range perQuartile {
		if counts[q] > 0 {
			perQuartile[q] /= float64(counts[q])
		}
	}
	avgLatency = float64(total) / float64(len(sorted))
	return
}

// sortedByRate must be called with mu held
func (tmfl *TestModule_FeeLatency) sortedByRate() []*FeeLatencyMetric {
	sorted := make([]*FeeLatencyMetric, len(tmfl.metrics))
	copy(sorted, tmfl.metrics)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OfferedRate < sorted[j].OfferedRate
	})
	return sorted
}

func (tmfl *TestModule_FeeLatency) writeToCSV() {
	tmfl.mu.Lock()
	defer tmfl.mu.Unlock()

	fileName := tmfl.OutputMetricName()
	measureName := []string{
		"Lane",
		"TxID",
		"Offered fee rate",
		"Offered fee",
		"Attempts",
		"First attempt (ms)",
		"Admit time (ms)",
		"QueueLatency (ms)",
	}

	measureVals := make([][]string, 0, len(tmfl.metrics))
	for _, metric := range tmfl.sortedByRate() {
		csvLine := []string{
			strconv.Itoa(metric.Lane),
			strconv.FormatUint(metric.TxID, 10),
			strconv.FormatUint(metric.OfferedRate, 10),
			strconv.FormatUint(metric.Offered, 10),
			strconv.Itoa(metric.Attempts),
			timestampToString(metric.FirstAttempt),
			timestampToString(metric.AdmitTime),
			strconv.FormatInt(metric.QueueLatency, 10),
		}
		measureVals = append(measureVals, csvLine)
	}

	if err := WriteMetricsToCSV(fileName, measureName, measureVals); err != nil {
		log.Error("Failed to write measurement", "name", fileName, "err", err)
	}
}
