/* Copyright 2026 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package graphstore keeps every applied graph so authors can review
// and roll back flow versions.
package graphstore

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/Comcast/chatflow/flow"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var graphsBucket = []byte("graphs")

// NotFound is returned by Get for an unknown version id.
var NotFound = errors.New("graph version not found")

// Record is one stored graph version.
type Record struct {
	ID        string      `json:"id"`
	CreatedAt time.Time   `json:"createdAt"`
	Graph     *flow.Graph `json:"graph,omitempty"`
}

// Store is a bbolt-backed graph version store.
type Store struct {
	filename string
	db       *bolt.DB
}

// NewStore creates a store for the given file.  Call Open before use.
func NewStore(filename string) *Store {
	return &Store{
		filename: filename,
	}
}

// Open opens the database file.
func (s *Store) Open() error {
	db, err := bolt.Open(s.filename, 0644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return err
	}
	s.db = db
	return s.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(graphsBucket)
		return err
	})
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores a graph under a fresh version id.
func (s *Store) Save(ctx context.Context, g *flow.Graph) (*Record, error) {
	rec := &Record{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Graph:     g,
	}
	bs, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(graphsBucket).Put([]byte(rec.ID), bs)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Get fetches one version, graph included.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	var rec *Record
	err := s.db.View(func(tx *bolt.Tx) error {
		bs := tx.Bucket(graphsBucket).Get([]byte(id))
		if bs == nil {
			return NotFound
		}
		rec = &Record{}
		return json.Unmarshal(bs, rec)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns version summaries (no graph bodies), newest first.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	acc := make([]Record, 0, 16)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(graphsBucket).ForEach(func(k, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			rec.Graph = nil
			acc = append(acc, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(acc, func(i, j int) bool {
		return acc[i].CreatedAt.After(acc[j].CreatedAt)
	})
	return acc, nil
}
