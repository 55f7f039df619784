package ethcsv

import (
	"encoding/csv"
	"errors"
	"io"
)

// Reader streams TxRows from an Ethereum CSV export
type Reader struct {
	csv  *csv.Reader
	line int
}

// NewReader wraps r. The header line, when present, is skipped.
func NewReader(r io.Reader) *Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	return &Reader{csv: cr}
}

// Next returns the next row, or io.EOF when the input is exhausted
func (r *Reader) Next() (TxRow, error) {
	for {
		data, err := r.csv.Read()
		if err != nil {
			return TxRow{}, err
		}
		r.line++
		row, err := ParseRow(data)
		if errors.Is(err, ErrHeaderRow) {
			continue
		}
		return row, err
	}
}

// Line returns the number of records read so far
func (r *Reader) Line() int {
	return r.line
}
