// Package memory implements an in-memory media store for development and
// testing.
package memory

import (
	"context"
	"fmt"
	"path"
	"sync"

	"github.com/redresslabs/redress/internal/rights"
)

// Object is one captured media blob.
type Object struct {
	ContentType string
	Data        []byte
}

// Store captures media blobs in memory, keyed by category/post/name.
type Store struct {
	mu      sync.RWMutex
	objects map[string]Object
}

// New constructs an empty Store.
func New() *Store {
	return &Store{objects: make(map[string]Object)}
}

// Put records the blob and returns a mem:// URI.
func (s *Store) Put(_ context.Context, category rights.Category, postID, name, contentType string, data []byte) (string, error) {
	if postID == "" || name == "" {
		return "", fmt.Errorf("post id and name are required")
	}
	key := path.Join(string(category), postID, name)

	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	s.objects[key] = Object{ContentType: contentType, Data: buf}
	return "mem://" + key, nil
}

// Get returns a captured blob by its category/post/name key.
func (s *Store) Get(key string) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	return obj, ok
}

// Len reports how many blobs were captured.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
