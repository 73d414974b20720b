// Package memory implements an in-memory record store for development and
// testing.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/redresslabs/redress/internal/rights"
)

// Store keeps post records per category in insertion order.
type Store struct {
	mu    sync.RWMutex
	posts map[rights.Category][]rights.Post
	index map[rights.Category]map[string]bool
}

// New constructs an empty Store.
func New() *Store {
	return &Store{
		posts: make(map[rights.Category][]rights.Post),
		index: make(map[rights.Category]map[string]bool),
	}
}

// Append stores the batch. IDs already present in the category partition are
// rejected so duplicate writes surface in tests instead of passing silently.
func (s *Store) Append(_ context.Context, category rights.Category, posts []rights.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.index[category]
	if ids == nil {
		ids = make(map[string]bool)
		s.index[category] = ids
	}
	for _, p := range posts {
		if ids[p.ID] {
			return fmt.Errorf("duplicate post %q in category %s", p.ID, category)
		}
	}
	for _, p := range posts {
		ids[p.ID] = true
		s.posts[category] = append(s.posts[category], p)
	}
	return nil
}

// Exists reports whether the category partition already holds the ID.
func (s *Store) Exists(_ context.Context, category rights.Category, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index[category][id], nil
}

// Scan visits the stored records in insertion order.
func (s *Store) Scan(ctx context.Context, category rights.Category, fn func(rights.Post) error) error {
	s.mu.RLock()
	snapshot := make([]rights.Post, len(s.posts[category]))
	copy(snapshot, s.posts[category])
	s.mu.RUnlock()

	for _, p := range snapshot {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(p); err != nil {
			return err
		}
	}
	return nil
}

// Count reports how many records a category holds.
func (s *Store) Count(category rights.Category) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.posts[category])
}

// Close implements rights.RecordStore; it performs no action.
func (s *Store) Close() error {
	return nil
}
