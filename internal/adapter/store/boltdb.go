package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"clusterform/internal/domain"
	"clusterform/internal/port"
)

var (
	bucketValues  = []byte("values")
	bucketHistory = []byte("history")
	bucketMeta    = []byte("meta")
)

// BoltStore keeps last-used values and classification history in BoltDB.
type BoltStore struct {
	db           *bbolt.DB
	historyLimit int
}

var _ port.ValueStore = (*BoltStore)(nil)

// NewBoltStore opens (or creates) the state database. historyLimit caps
// the number of kept history entries; 0 keeps everything.
func NewBoltStore(path string, historyLimit int) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketValues, bucketHistory, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db, historyLimit: historyLimit}, nil
}

func (s *BoltStore) SaveValues(values domain.RawValues) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketValues)
		for name, value := range values {
			if err := b.Put([]byte(name), []byte(value)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) LoadValues() (domain.RawValues, error) {
	values := make(domain.RawValues)
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketValues).ForEach(func(k, v []byte) error {
			values[string(k)] = string(v)
			return nil
		})
	})
	return values, err
}

// AppendHistory stores entry under a time-ordered key. A missing ID or
// timestamp is filled in.
func (s *BoltStore) AppendHistory(entry domain.HistoryEntry) error {
	if entry.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate history id: %w", err)
		}
		entry.ID = id.String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketHistory)
		if err := b.Put([]byte(entry.ID), data); err != nil {
			return err
		}
		if s.historyLimit <= 0 {
			return nil
		}
		c := b.Cursor()
		n := 0
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			n++
		}
		for excess := n - s.historyLimit; excess > 0; excess-- {
			if k, _ := c.First(); k == nil {
				break
			}
			if err := c.Delete(); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) ListHistory(limit int) ([]domain.HistoryEntry, error) {
	var entries []domain.HistoryEntry
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketHistory).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(entries) >= limit {
				break
			}
			var entry domain.HistoryEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				continue
			}
			entries = append(entries, entry)
		}
		return nil
	})
	return entries, err
}

func (s *BoltStore) ClearHistory() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketHistory); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketHistory)
		return err
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
