package analyzer

import (
	"time"

	"github.com/redresslabs/redress/internal/rights"
)

// Window restricts analysis to posts published inside [From, To]. Both bounds
// are inclusive; a zero bound leaves that side open.
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if !w.From.IsZero() && t.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && t.After(w.To) {
		return false
	}
	return true
}

// KeywordStat is one row of the weighted token table.
type KeywordStat struct {
	Token string  `json:"token"`
	Count int     `json:"count"`
	Score float64 `json:"score"`
}

// AuthorStat aggregates one author's posts and engagement inside the window.
type AuthorStat struct {
	AuthorID    string    `json:"author_id"`
	AuthorName  string    `json:"author_name"`
	Posts       int       `json:"posts"`
	Likes       int       `json:"likes"`
	Comments    int       `json:"comments"`
	Favorites   int       `json:"favorites"`
	Engagement  int       `json:"engagement"`
	FirstPostAt time.Time `json:"first_post_at"`
}

// TrendPoint is one day of post volume.
type TrendPoint struct {
	Date  string `json:"date"`
	Posts int    `json:"posts"`
}

// CategoryTrend is the daily volume series of one category.
type CategoryTrend struct {
	Category rights.Category `json:"category"`
	Points   []TrendPoint    `json:"points"`
}

// EngagementStats summarizes interaction counters across the corpus.
type EngagementStats struct {
	AvgLikes     float64 `json:"avg_likes"`
	MaxLikes     int     `json:"max_likes"`
	AvgComments  float64 `json:"avg_comments"`
	MaxComments  int     `json:"max_comments"`
	AvgFavorites float64 `json:"avg_favorites"`
	MaxFavorites int     `json:"max_favorites"`
}

// TopPost is one entry of the most-liked list.
type TopPost struct {
	ID       string          `json:"id"`
	Category rights.Category `json:"category"`
	Title    string          `json:"title"`
	Likes    int             `json:"likes"`
	Comments int             `json:"comments"`
}

// Snapshot is the full analysis result, serialized as snapshot.json in report
// bundles. All slices are pre-sorted so identical corpora produce identical
// output.
type Snapshot struct {
	GeneratedAt    time.Time               `json:"generated_at"`
	Window         Window                  `json:"window"`
	TotalPosts     int                     `json:"total_posts"`
	CategoryCounts map[rights.Category]int `json:"category_counts"`
	Keywords       []KeywordStat           `json:"keywords"`
	Authors        []AuthorStat            `json:"authors"`
	Trend          []CategoryTrend         `json:"trend"`
	Engagement     EngagementStats         `json:"engagement"`
	TopPosts       []TopPost               `json:"top_posts"`
}
