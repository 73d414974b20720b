// Package rotation tracks per-category keyword cursors across runs.
package rotation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/redresslabs/redress/internal/rights"
)

// State holds the rotation cursor for every category. Cursors index into the
// keyword catalogs, so catalog order is part of the persisted contract.
type State struct {
	mu      sync.Mutex
	path    string
	cursors map[rights.Category]int
}

// Load reads the cursor file at path. A missing file yields zero cursors,
// which is the first-run case, not an error. Cursors that fall outside the
// current catalog are wrapped back into range.
func Load(path string) (*State, error) {
	s := &State{path: path, cursors: make(map[rights.Category]int)}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read rotation state: %w", err)
	}
	var raw map[rights.Category]int
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode rotation state: %w", err)
	}
	for c, cur := range raw {
		if size := rights.CatalogSize(c); size > 0 {
			s.cursors[c] = ((cur % size) + size) % size
		}
	}
	return s, nil
}

// Peek returns the next n keywords for the category in catalog order,
// wrapping cyclically. It never advances the cursor; duplicates appear only
// when n exceeds the catalog size.
func (s *State) Peek(category rights.Category, n int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	catalog := rights.Keywords(category)
	if len(catalog) == 0 || n <= 0 {
		return nil
	}
	cur := s.cursors[category]
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, catalog[(cur+i)%len(catalog)])
	}
	return out
}

// Advance moves the category cursor forward by n positions. Callers advance
// by the longest successful prefix of the keywords they peeked, so a failed
// keyword comes up again on the next run.
func (s *State) Advance(category rights.Category, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	size := rights.CatalogSize(category)
	if size == 0 || n <= 0 {
		return
	}
	s.cursors[category] = (s.cursors[category] + n) % size
}

// Cursor reports the current position for a category.
func (s *State) Cursor(category rights.Category) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursors[category]
}

// Save writes the cursors to disk via a temp file and rename so a crash
// never leaves a truncated state file behind.
func (s *State) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(s.cursors, "", "  ")
	if err != nil {
		return fmt.Errorf("encode rotation state: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "rotation-*.json")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
