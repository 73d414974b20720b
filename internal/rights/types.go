// Package rights defines core domain types and contracts shared across
// subsystems.
package rights

import (
	"fmt"
	"time"
)

// Category identifies one complaint vertical. The set is closed; records are
// partitioned by it end to end.
type Category string

// Complaint verticals covered by the collector.
const (
	CategoryMedicalBeauty Category = "medical_beauty"
	CategoryMaleHealth    Category = "male_health"
	CategoryGeneralRights Category = "general_rights"
)

// AllCategories returns the closed category set in canonical order.
func AllCategories() []Category {
	return []Category{CategoryMedicalBeauty, CategoryMaleHealth, CategoryGeneralRights}
}

// ParseCategory validates a category name supplied by config or CLI flags.
func ParseCategory(s string) (Category, error) {
	for _, c := range AllCategories() {
		if s == string(c) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// MediaKind distinguishes media attachment types.
type MediaKind string

// Media attachment kinds carried on posts.
const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// MediaRef points at one media attachment of a post.
type MediaRef struct {
	URL  string    `json:"url"`
	Kind MediaKind `json:"kind"`
}

// RawPost is a search hit as returned by the crawler service, before
// normalization. Fields may be blank or zero when the upstream payload is
// incomplete.
type RawPost struct {
	ID          string
	AuthorID    string
	AuthorName  string
	Title       string
	Body        string
	PublishedAt time.Time
	Likes       int
	Comments    int
	Favorites   int
	Media       []MediaRef
}

// Post is the record persisted for each collected complaint. Records are
// immutable once written; re-collection of a known ID is a no-op.
type Post struct {
	ID          string     `json:"id"`
	Category    Category   `json:"category"`
	Keyword     string     `json:"keyword"`
	AuthorID    string     `json:"author_id"`
	AuthorName  string     `json:"author_name"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	PublishedAt time.Time  `json:"published_at"`
	Likes       int        `json:"likes"`
	Comments    int        `json:"comments"`
	Favorites   int        `json:"favorites"`
	CollectedAt time.Time  `json:"collected_at"`
	Media       []MediaRef `json:"media,omitempty"`
}

// Engagement sums the interaction counters of a post.
func (p Post) Engagement() int {
	return p.Likes + p.Comments + p.Favorites
}

// OutcomeStatus represents the terminal state of one keyword collection.
type OutcomeStatus string

// Keyword outcome values recorded in run summaries.
const (
	OutcomeSucceeded OutcomeStatus = "succeeded"
	OutcomeFailed    OutcomeStatus = "failed"
)

// KeywordOutcome captures what one keyword pass produced. A failed search or
// a discarded batch is an outcome, never a run abort.
type KeywordOutcome struct {
	Keyword      string        `json:"keyword"`
	Status       OutcomeStatus `json:"status"`
	PostsFound   int           `json:"posts_found"`
	PostsNew     int           `json:"posts_new"`
	PostsSkipped int           `json:"posts_skipped,omitempty"`
	MediaSaved   int           `json:"media_saved"`
	MediaFailed  int           `json:"media_failed,omitempty"`
	DurationMs   int64         `json:"duration_ms"`
	Error        string        `json:"error,omitempty"`
}

// CategoryRun aggregates the keyword outcomes of one category in one run.
type CategoryRun struct {
	Category   Category         `json:"category"`
	Keywords   []KeywordOutcome `json:"keywords"`
	PostsFound int              `json:"posts_found"`
	PostsNew   int              `json:"posts_new"`
	MediaSaved int              `json:"media_saved"`
}

// FailedKeywords lists the keywords that did not complete, with reasons.
func (c CategoryRun) FailedKeywords() []KeywordOutcome {
	var failed []KeywordOutcome
	for _, k := range c.Keywords {
		if k.Status == OutcomeFailed {
			failed = append(failed, k)
		}
	}
	return failed
}

// RunMode selects between a single pass and the daily schedule loop.
type RunMode string

// Run modes accepted by the collect command.
const (
	ModeOnce     RunMode = "once"
	ModeSchedule RunMode = "schedule"
)

// RunStatus represents the terminal state of a collection run.
type RunStatus string

// Run status values persisted in run summaries.
const (
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// RunSummary is persisted after each run and published to subscribers.
type RunSummary struct {
	RunID      string        `json:"run_id"`
	Mode       RunMode       `json:"mode"`
	Status     RunStatus     `json:"status"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Categories []CategoryRun `json:"categories"`
	Error      string        `json:"error,omitempty"`
}

// TotalNew sums newly stored posts across all categories of the run.
func (s RunSummary) TotalNew() int {
	var n int
	for _, c := range s.Categories {
		n += c.PostsNew
	}
	return n
}

// StampLayout formats timestamps embedded in artifact file names.
const StampLayout = "20060102_150405"
