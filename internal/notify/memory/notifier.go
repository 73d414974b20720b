// Package memory provides an in-memory run notifier for tests and for runs
// where no broker is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/redresslabs/redress/internal/rights"
)

// Notifier records run summaries instead of publishing them.
type Notifier struct {
	mu        sync.Mutex
	summaries []rights.RunSummary
}

// Ensure Notifier implements rights.Notifier.
var _ rights.Notifier = (*Notifier)(nil)

// New constructs an empty Notifier.
func New() *Notifier {
	return &Notifier{}
}

// Notify appends the summary and returns a synthetic message ID.
func (n *Notifier) Notify(_ context.Context, summary rights.RunSummary) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.summaries = append(n.summaries, summary)
	return fmt.Sprintf("mem-%d", len(n.summaries)), nil
}

// Summaries returns a copy of everything notified so far.
func (n *Notifier) Summaries() []rights.RunSummary {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]rights.RunSummary(nil), n.summaries...)
}
