// Package system provides a real clock implementation.
package system

import (
	"time"

	"github.com/redresslabs/redress/internal/rights"
)

// Clock implements rights.Clock using time.Now.
type Clock struct{}

// Ensure Clock implements rights.Clock.
var _ rights.Clock = Clock{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}
