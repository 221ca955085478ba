// Package journal persists aggregate decision counters.
//
// Only counters are stored (how many events were seen, denied,
// suppressed, opened), never per-decision records. The counters feed
// the stats command and survive restarts; decisions themselves do not.
package journal

import (
	"encoding/binary"
	"fmt"
	"sort"
	"sync"

	bolt "go.etcd.io/bbolt"

	"agentreveal/pkg/engine"
)

var bucketCounters = []byte("decision_counters")

// Journal records engine outcomes in a BoltDB bucket. It implements
// engine.Recorder.
type Journal struct {
	db *bolt.DB
	mu sync.Mutex
}

// Open opens (creating if needed) the journal database at path.
func Open(path string) (*Journal, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	j, err := New(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

// New wraps an existing BoltDB database.
func New(db *bolt.DB) (*Journal, error) {
	if err := db.Update(func(tx *bolt.Tx) error {
		_, createErr := tx.CreateBucketIfNotExists(bucketCounters)
		return createErr
	}); err != nil {
		return nil, fmt.Errorf("failed to create counters bucket: %w", err)
	}

	return &Journal{db: db}, nil
}

// Record implements engine.Recorder. Failures are swallowed: counter
// persistence is best-effort and must never disturb a decision flow.
func (j *Journal) Record(outcome engine.Outcome) {
	j.mu.Lock()
	defer j.mu.Unlock()

	_ = j.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCounters)
		key := []byte(outcome)

		var n uint64
		if data := b.Get(key); len(data) == 8 {
			n = binary.BigEndian.Uint64(data)
		}

		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, n+1)
		return b.Put(key, buf)
	})
}

// Counters returns a snapshot of all persisted counters.
func (j *Journal) Counters() (map[string]uint64, error) {
	counters := make(map[string]uint64)

	err := j.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCounters)
		return b.ForEach(func(k, v []byte) error {
			if len(v) == 8 {
				counters[string(k)] = binary.BigEndian.Uint64(v)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read counters: %w", err)
	}

	return counters, nil
}

// Names returns the counter names in sorted order, for stable output.
func (j *Journal) Names() ([]string, error) {
	counters, err := j.Counters()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(counters))
	for name := range counters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Reset clears all counters.
func (j *Journal) Reset() error {
	return j.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketCounters); err != nil {
			return fmt.Errorf("failed to delete counters bucket: %w", err)
		}
		_, err := tx.CreateBucket(bucketCounters)
		return err
	})
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}
