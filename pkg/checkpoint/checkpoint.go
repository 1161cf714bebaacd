package checkpoint

import (
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/edgesoc/sentinel/pkg/state"
)

var bucketObservations = []byte("observations")

// Store persists state snapshots to disk so the last recorded pipeline
// state survives a daemon restart and can be inspected while the daemon is
// down (sentinel status).
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the checkpoint database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketObservations)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create checkpoint bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save overwrites the persisted snapshot with snap.
func (s *Store) Save(snap map[string]state.Observation) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketObservations)
		for key, obs := range snap {
			data, err := json.Marshal(obs)
			if err != nil {
				return fmt.Errorf("failed to encode observation %s: %w", key, err)
			}
			if err := b.Put([]byte(key), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// Load returns the last persisted snapshot.
func (s *Store) Load() (map[string]state.Observation, error) {
	snap := make(map[string]state.Observation)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketObservations)
		return b.ForEach(func(k, v []byte) error {
			var obs state.Observation
			if err := json.Unmarshal(v, &obs); err != nil {
				return fmt.Errorf("failed to decode observation %s: %w", k, err)
			}
			snap[string(k)] = obs
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}
