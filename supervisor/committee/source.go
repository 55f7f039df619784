package committee

import (
	"encoding/csv"
	"errors"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/log"

	"feeEmulator/core"
	"feeEmulator/ingest/ethcsv"
	"feeEmulator/ingest/synthetic"
)

// Source yields work units together with the outcome their execution should
// report. Next returns io.EOF when the source is exhausted.
type Source interface {
	Next() (*core.Transaction, core.Outcome, error)
}

// CSVSource replays an Ethereum transaction export
type CSVSource struct {
	reader  *ethcsv.Reader
	unit    *big.Int
	nextID  core.TxID
	skipped int
}

// NewCSVSource reads rows from r, converting gas prices to fee rates in units of unitWei
func NewCSVSource(r io.Reader, unitWei int64) *CSVSource {
	return &CSVSource{
		reader: ethcsv.NewReader(r),
		unit:   big.NewInt(unitWei),
	}
}

func (s *CSVSource) Next() (*core.Transaction, core.Outcome, error) {
	for {
		row, err := s.reader.Next()
		if err == io.EOF {
			return nil, core.Outcome{}, io.EOF
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return nil, core.Outcome{}, err
		}
		if err != nil {
			s.skip(err)
			continue
		}

		tx, outcome, err := ethcsv.ToTransaction(row, s.nextID, s.unit)
		if err != nil {
			s.skip(err)
			continue
		}
		s.nextID++
		return tx, outcome, nil
	}
}

func (s *CSVSource) skip(err error) {
	s.skipped++
	log.Debug("Skipped dataset row", "line", s.reader.Line(), "err", err)
}

// Skipped returns the number of rows that could not be turned into work units
func (s *CSVSource) Skipped() int {
	return s.skipped
}

// SyntheticSource draws work units from a scenario generator. It never ends.
type SyntheticSource struct {
	gen *synthetic.Generator
}

func NewSyntheticSource(cfg synthetic.Config) *SyntheticSource {
	return &SyntheticSource{gen: synthetic.NewGenerator(cfg)}
}

func (s *SyntheticSource) Next() (*core.Transaction, core.Outcome, error) {
	tx, outcome := s.gen.Next()
	return tx, outcome, nil
}
