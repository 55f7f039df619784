package measure

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"feeEmulator/message"
	"feeEmulator/params"
)

// MeasureModule consumes admission records and writes its results at the end of a run
type MeasureModule interface {
	OutputMetricName() string
	UpdateMeasureRecord(r *message.AdmissionRecord)
	OutputRecord() ([]float64, float64)
}

// WriteMetricsToCSV writes header and rows to <DataWrite_path>/<fileName>.csv
func WriteMetricsToCSV(fileName string, header []string, rows [][]string) error {
	if err := os.MkdirAll(params.DataWrite_path, 0o755); err != nil {
		return fmt.Errorf("create result dir: %w", err)
	}
	path := filepath.Join(params.DataWrite_path, fileName+".csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Sync()
}

// zero time to empty string
func timestampToString(thisTime time.Time) string {
	if thisTime.IsZero() {
		return ""
	}
	return strconv.FormatInt(thisTime.UnixMilli(), 10)
}
