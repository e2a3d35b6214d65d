package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"roomload/internal/runner"
	"roomload/internal/stats"
)

const (
	BucketRuns = "runs"
)

var ErrNotFound = errors.New("run not found")

// Record is one finished run as kept in history.
type Record struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Config    runner.Config `json:"config"`
	Summary   stats.Summary `json:"summary"`
}

type Store struct {
	db *bbolt.DB
}

// DefaultPath is ~/.roomload/history.db, or ./.roomload/history.db when
// the home directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".roomload", "history.db")
}

func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open history %s: %w", path, err)
	}

	// Initialize Buckets
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(BucketRuns))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Save(rec Record) error {
	if rec.ID == "" {
		return errors.New("record has no id")
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BucketRuns))

		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}

		return b.Put([]byte(rec.ID), data)
	})
}

// List returns all runs, newest first.
func (s *Store) List() ([]Record, error) {
	var items []Record

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BucketRuns))
		return b.ForEach(func(k, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decode run %s: %w", k, err)
			}
			items = append(items, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].Timestamp.After(items[j].Timestamp)
	})
	return items, nil
}

func (s *Store) Get(id string) (*Record, error) {
	var rec Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BucketRuns))
		v := b.Get([]byte(id))
		if v == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return json.Unmarshal(v, &rec)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
