// Package receipts keeps a bolt file of every admission record produced by a run
package receipts

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"time"

	"github.com/boltdb/bolt"
	"github.com/ethereum/go-ethereum/log"

	"feeEmulator/message"
)

var receiptsBucket = []byte("receipts")

// lanes write one record at a time, so batches rarely fill up
const batchDelay = 2 * time.Millisecond

// ErrStop ends ForEach early without reporting an error
var ErrStop = errors.New("stop iteration")

// Store appends admission records to a bolt database
type Store struct {
	db     *bolt.DB
	logger log.Logger
}

// Open opens or creates the receipt file at path
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open receipt store %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(receiptsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create receipts bucket: %w", err)
	}
	db.MaxBatchDelay = batchDelay
	return &Store{db: db, logger: log.New("module", "receipts", "path", path)}, nil
}

// Put appends r and returns its sequence number. Concurrent callers share
// bolt batch commits, so one call may wait up to the batch delay.
func (s *Store) Put(r *message.AdmissionRecord) (uint64, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(r); err != nil {
		return 0, fmt.Errorf("encode record: %w", err)
	}

	var seq uint64
	err := s.db.Batch(func(tx *bolt.Tx) error {
		b := tx.Bucket(receiptsBucket)
		var err error
		seq, err = b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(seqKey(seq), message.MergeMessage(message.CAdmission, buf.Bytes()))
	})
	if err != nil {
		return 0, fmt.Errorf("put record for tx %d: %w", r.TxID, err)
	}
	return seq, nil
}

// ObserveAdmission stores r, logging failures
func (s *Store) ObserveAdmission(r *message.AdmissionRecord) {
	if _, err := s.Put(r); err != nil {
		s.logger.Error("Failed to store admission record", "err", err)
	}
}

// ForEach calls fn for every stored record in insertion order.
// Returning ErrStop from fn ends the iteration.
func (s *Store) ForEach(fn func(seq uint64, r *message.AdmissionRecord) error) error {
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(receiptsBucket).ForEach(func(k, v []byte) error {
			msgType, content, err := message.SplitMessage(v)
			if err != nil {
				return fmt.Errorf("record %x: %w", k, err)
			}
			if msgType != message.CAdmission {
				s.logger.Warn("Skipping unknown record type", "key", k, "type", msgType)
				return nil
			}
			var r message.AdmissionRecord
			if err := gob.NewDecoder(bytes.NewReader(content)).Decode(&r); err != nil {
				return fmt.Errorf("decode record %x: %w", k, err)
			}
			return fn(binary.BigEndian.Uint64(k), &r)
		})
	})
	if errors.Is(err, ErrStop) {
		return nil
	}
	return err
}

// Count returns the number of stored records
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(receiptsBucket).Stats().KeyN
		return nil
	})
	return n, err
}

func (s *Store) Close() error {
	return s.db.Close()
}

func seqKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}
