package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/pfrederiksen/kickoff-watch/internal/match"
)

const (
	dbFileName = "kickoff-watch.db"

	bucketNotified = "notified"
	bucketSnapshot = "snapshot"

	snapshotKey = "latest"
)

// NotifiedMatch records when a match alert was sent
type NotifiedMatch struct {
	MatchID    string    `json:"matchId"`
	HomeTeam   string    `json:"homeTeam"`
	AwayTeam   string    `json:"awayTeam"`
	Kickoff    time.Time `json:"kickoff"`
	NotifiedAt time.Time `json:"notifiedAt"`
}

// Snapshot is the last schedule fetched by the watcher
type Snapshot struct {
	UpdatedAt time.Time     `json:"updatedAt"`
	Matches   []match.Match `json:"matches"`
}

// Storage handles persistence of watcher state
type Storage struct {
	db   *bolt.DB
	path string
}

// New opens (or creates) the database inside dataDir
func New(dataDir string) (*Storage, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	path := filepath.Join(dataDir, dbFileName)
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketNotified)); err != nil {
			return fmt.Errorf("creating notified bucket: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketSnapshot)); err != nil {
			return fmt.Errorf("creating snapshot bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Storage{db: db, path: path}, nil
}

// Path returns the database file path
func (s *Storage) Path() string {
	return s.path
}

// Close releases the database file lock
func (s *Storage) Close() error {
	return s.db.Close()
}

// IsNotified reports whether an alert was already sent for the match ID
func (s *Storage) IsNotified(matchID string) (bool, error) {
	var exists bool

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketNotified))
		exists = b.Get([]byte(matchID)) != nil
		return nil
	})

	return exists, err
}

// MarkNotified records that an alert for m was sent at the given time
func (s *Storage) MarkNotified(m match.Match, at time.Time) error {
	notified := NotifiedMatch{
		MatchID:    m.ID,
		HomeTeam:   m.HomeTeam,
		AwayTeam:   m.AwayTeam,
		Kickoff:    m.Kickoff,
		NotifiedAt: at,
	}

	data, err := json.Marshal(notified)
	if err != nil {
		return fmt.Errorf("marshaling notified match: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketNotified)).Put([]byte(m.ID), data)
	})
}

// GetAllNotified returns every recorded alert
func (s *Storage) GetAllNotified() ([]NotifiedMatch, error) {
	var all []NotifiedMatch

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketNotified))

		return b.ForEach(func(k, v []byte) error {
			var n NotifiedMatch
			if err := json.Unmarshal(v, &n); err != nil {
				return fmt.Errorf("parsing notified match %s: %w", k, err)
			}
			all = append(all, n)
			return nil
		})
	})

	return all, err
}

// Cleanup removes alerts for matches that kicked off before the given time
// and returns how many were removed
func (s *Storage) Cleanup(before time.Time) (int, error) {
	removed := 0

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketNotified))

		var keysToDelete [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var n NotifiedMatch
			if err := json.Unmarshal(v, &n); err != nil {
				return err
			}
			if n.Kickoff.Before(before) {
				keysToDelete = append(keysToDelete, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, key := range keysToDelete {
			if err := b.Delete(key); err != nil {
				return err
			}
		}
		removed = len(keysToDelete)
		return nil
	})

	return removed, err
}

// SaveSnapshot replaces the stored schedule snapshot
func (s *Storage) SaveSnapshot(matches []match.Match, at time.Time) error {
	data, err := json.Marshal(Snapshot{UpdatedAt: at.UTC(), Matches: matches})
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketSnapshot)).Put([]byte(snapshotKey), data)
	})
}

// LoadSnapshot returns the stored snapshot, or nil when none was saved yet
func (s *Storage) LoadSnapshot() (*Snapshot, error) {
	var snapshot *Snapshot

	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(bucketSnapshot)).Get([]byte(snapshotKey))
		if data == nil {
			return nil
		}
		snapshot = &Snapshot{}
		if err := json.Unmarshal(data, snapshot); err != nil {
			return fmt.Errorf("parsing snapshot: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return snapshot, nil
}
