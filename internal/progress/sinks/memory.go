package sinks

import (
	"context"
	"sync"

	"github.com/redresslabs/redress/internal/progress"
)

const defaultMemoryLimit = 256

// MemorySink retains the most recent events in a fixed-size ring. The ops API
// serves its contents so operators can inspect a live run without a metrics
// stack; tests use it as a recording sink.
type MemorySink struct {
	mu     sync.Mutex
	limit  int
	events []progress.Event
}

// NewMemorySink constructs a MemorySink holding at most limit events.
func NewMemorySink(limit int) *MemorySink {
	if limit <= 0 {
		limit = defaultMemoryLimit
	}
	return &MemorySink{limit: limit}
}

// Consume appends the batch, discarding the oldest events past the limit.
func (s *MemorySink) Consume(_ context.Context, batch []progress.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, batch...)
	if over := len(s.events) - s.limit; over > 0 {
		s.events = append([]progress.Event(nil), s.events[over:]...)
	}
	return nil
}

// Events returns a copy of the retained events, oldest first.
func (s *MemorySink) Events() []progress.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]progress.Event(nil), s.events...)
}

// Len reports how many events are currently retained.
func (s *MemorySink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// Close implements the Sink interface; it performs no action.
func (s *MemorySink) Close(context.Context) error {
	return nil
}
