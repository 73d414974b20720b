// Package system exercises the real-time clock adapter.
package system

import (
	"testing"
	"time"

	"github.com/redresslabs/redress/internal/rights"
)

// TestNowIsUTC ensures timestamps carry the UTC location, since stamped
// directory and file names are derived from them.
func TestNowIsUTC(t *testing.T) {
	t.Parallel()

	var clk rights.Clock = New()

	lower := time.Now().UTC().Add(-time.Second)
	got := clk.Now()
	upper := time.Now().UTC().Add(time.Second)

	if got.Location() != time.UTC {
		t.Fatalf("Now() location = %v, want UTC", got.Location())
	}
	if got.Before(lower) || got.After(upper) {
		t.Fatalf("Now() = %v, want within [%v, %v]", got, lower, upper)
	}
}

// TestNowNeverGoesBackwards checks repeated reads are non-decreasing.
func TestNowNeverGoesBackwards(t *testing.T) {
	t.Parallel()

	clk := New()
	prev := clk.Now()
	for i := 0; i < 5; i++ {
		next := clk.Now()
		if next.Before(prev) {
			t.Fatalf("Now() went backwards: %v after %v", next, prev)
		}
		prev = next
	}
}
