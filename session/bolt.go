package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Comcast/chatflow/flow"

	bolt "go.etcd.io/bbolt"
)

var sessionsBucket = []byte("sessions")

// Bolt is a bbolt-backed Store: one bucket, one key per user id,
// states as a sorted JSON array.
type Bolt struct {
	Logger *slog.Logger

	filename string
	db       *bolt.DB
}

var _ Store = (*Bolt)(nil)

// NewBolt creates a store for the given file.  Call Open before use.
func NewBolt(filename string) *Bolt {
	return &Bolt{
		filename: filename,
	}
}

// Open opens the database file and creates the sessions bucket.
func (s *Bolt) Open() error {
	opts := &bolt.Options{
		Timeout: time.Second,
	}
	db, err := bolt.Open(s.filename, 0644, opts)
	if err != nil {
		return err
	}
	s.db = db
	return s.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionsBucket)
		return err
	})
}

// Close closes the database.
func (s *Bolt) Close() error {
	return s.db.Close()
}

func (s *Bolt) logf(msg string, args ...interface{}) {
	if s.Logger != nil {
		s.Logger.Debug(msg, args...)
	}
}

func (s *Bolt) Get(ctx context.Context, userID string) (flow.StateSet, error) {
	var states flow.StateSet
	err := s.db.View(func(tx *bolt.Tx) error {
		bs := tx.Bucket(sessionsBucket).Get([]byte(userID))
		if bs == nil {
			return nil
		}
		return json.Unmarshal(bs, &states)
	})
	if err != nil {
		return nil, err
	}
	if states == nil {
		return flow.RootSet(), nil
	}
	s.logf("session get", "user", userID, "states", states.Sorted())
	return states, nil
}

func (s *Bolt) Set(ctx context.Context, userID string, states flow.StateSet) error {
	bs, err := json.Marshal(states)
	if err != nil {
		return err
	}
	s.logf("session set", "user", userID, "states", states.Sorted())
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionsBucket).Put([]byte(userID), bs)
	})
}

func (s *Bolt) Delete(ctx context.Context, userID string) error {
	s.logf("session delete", "user", userID)
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionsBucket).Delete([]byte(userID))
	})
}
