// Package journal persists local advance state in a bbolt database under
// .git/gitmark/. It holds two things: the pending-advance marker that is
// written before a transaction is broadcast and cleared after the ledger
// records it, and an append-only log of broadcast attempts for auditing.
package journal

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var (
	bucketPending    = []byte("pending")
	bucketBroadcasts = []byte("broadcasts")
)

// keyPending is the single slot the pending marker occupies. At most one
// advance is in flight per repository.
var keyPending = []byte("current")

// DefaultPath is the journal location relative to the repository root.
const DefaultPath = ".git/gitmark/journal.db"

// PendingAdvance is written before broadcasting an advance transaction.
// If the process dies between broadcast and ledger append, the marker
// survives and the next run can reconcile instead of double-spending.
type PendingAdvance struct {
	CommitHash string
	TxHex      string
	TxID       string
	RecordURI  string
	CreatedAt  time.Time
}

// BroadcastEntry records one broadcast attempt.
type BroadcastEntry struct {
	TxID       string
	CommitHash string
	Accepted   bool
	Detail     string
	At         time.Time
}

// Store wraps the bbolt database.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the journal database at path. The parent
// directory is created if it does not exist.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("journal: create directory: %w", err)
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("journal: open db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketPending, bucketBroadcasts} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("journal: create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// PutPending writes the pending-advance marker. An existing marker is an
// error: the previous advance must be taken or reconciled first.
func (s *Store) PutPending(p *PendingAdvance) error {
	if p == nil {
		return fmt.Errorf("%w: pending advance", ErrNilParam)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketPending)
		if b.Get(keyPending) != nil {
			return ErrPendingExists
		}
		data, err := encodeGob(p)
		if err != nil {
			return fmt.Errorf("journal: encode pending: %w", err)
		}
		return b.Put(keyPending, data)
	})
}

// Pending returns the current pending marker, or ErrNoPending.
func (s *Store) Pending() (*PendingAdvance, error) {
	var p PendingAdvance
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketPending).Get(keyPending)
		if data == nil {
			return ErrNoPending
		}
		return decodeGob(data, &p)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// TakePending removes and returns the pending marker, or ErrNoPending.
func (s *Store) TakePending() (*PendingAdvance, error) {
	var p PendingAdvance
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketPending)
		data := b.Get(keyPending)
		if data == nil {
			return ErrNoPending
		}
		if err := decodeGob(data, &p); err != nil {
			return fmt.Errorf("journal: decode pending: %w", err)
		}
		return b.Delete(keyPending)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// RecordBroadcast appends a broadcast entry keyed by insertion order.
func (s *Store) RecordBroadcast(e *BroadcastEntry) error {
	if e == nil {
		return fmt.Errorf("%w: broadcast entry", ErrNilParam)
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketBroadcasts)
		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("journal: sequence: %w", err)
		}
		data, err := encodeGob(e)
		if err != nil {
			return fmt.Errorf("journal: encode broadcast: %w", err)
		}
		return b.Put(seqKey(seq), data)
	})
}

// Broadcasts returns all broadcast entries in insertion order.
func (s *Store) Broadcasts() ([]*BroadcastEntry, error) {
	var entries []*BroadcastEntry
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketBroadcasts).ForEach(func(_, v []byte) error {
			var e BroadcastEntry
			if err := decodeGob(v, &e); err != nil {
				return fmt.Errorf("journal: decode broadcast: %w", err)
			}
			entries = append(entries, &e)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// seqKey encodes a sequence number as an 8-byte big-endian key so
// cursor order matches insertion order.
func seqKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}

func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeGob(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
