// Package analyzer turns stored complaint records into an analysis snapshot.
// Titles and bodies are segmented with gse; tokens found in the embedded
// industry dictionary score weight times count, everything else counts once
// per occurrence.
package analyzer

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-ego/gse"
	"go.uber.org/zap"

	"github.com/redresslabs/redress/internal/clock/system"
	"github.com/redresslabs/redress/internal/metrics"
	"github.com/redresslabs/redress/internal/rights"
)

// industryTokenFreq biases segmentation toward keeping dictionary terms whole.
const industryTokenFreq = 2000

// Config bounds the snapshot tables.
type Config struct {
	// TopKeywords caps the weighted token table.
	TopKeywords int
	// TopAuthors caps the author ranking.
	TopAuthors int
	// TopPosts caps the most-liked post list.
	TopPosts int
	// MinTokenRunes drops tokens shorter than this many runes.
	MinTokenRunes int
}

// Deps carries the analyzer's collaborators.
type Deps struct {
	Records rights.RecordStore
	Clock   rights.Clock
	Logger  *zap.Logger
}

// Analyzer scans stored posts and aggregates them into Snapshots.
type Analyzer struct {
	cfg     Config
	records rights.RecordStore
	seg     gse.Segmenter
	weights map[string]float64
	stop    map[string]bool
	clock   rights.Clock
	logger  *zap.Logger
}

// New loads the segmentation dictionaries and wires an Analyzer.
func New(cfg Config, deps Deps) (*Analyzer, error) {
	if deps.Records == nil {
		return nil, fmt.Errorf("analyzer requires a record store")
	}
	if cfg.TopKeywords <= 0 {
		cfg.TopKeywords = 100
	}
	if cfg.TopAuthors <= 0 {
		cfg.TopAuthors = 50
	}
	if cfg.TopPosts <= 0 {
		cfg.TopPosts = 10
	}
	if cfg.MinTokenRunes <= 0 {
		cfg.MinTokenRunes = 2
	}
	if deps.Clock == nil {
		deps.Clock = system.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	weights, err := parseIndustryDict(industryDictData)
	if err != nil {
		return nil, err
	}
	seg, err := gse.New()
	if err != nil {
		return nil, fmt.Errorf("load segmentation dictionary: %w", err)
	}
	for term := range weights {
		if err := seg.AddToken(term, industryTokenFreq); err != nil {
			return nil, fmt.Errorf("add dictionary term %q: %w", term, err)
		}
	}

	return &Analyzer{
		cfg:     cfg,
		records: deps.Records,
		seg:     seg,
		weights: weights,
		stop:    parseStopwords(stopwordData),
		clock:   deps.Clock,
		logger:  deps.Logger,
	}, nil
}

// Analyze scans the selected categories and builds a snapshot of the posts
// whose PublishedAt falls inside the window. An empty category list means all
// categories; an empty corpus yields a zero snapshot, not an error.
func (a *Analyzer) Analyze(ctx context.Context, categories []rights.Category, window Window) (*Snapshot, error) {
	if len(categories) == 0 {
		categories = rights.AllCategories()
	}
	started := time.Now()

	snap := &Snapshot{
		GeneratedAt:    a.clock.Now(),
		Window:         window,
		CategoryCounts: make(map[rights.Category]int, len(categories)),
	}

	tokens := make(map[string]int)
	authors := make(map[string]*AuthorStat)
	daily := make(map[rights.Category]map[string]int, len(categories))
	var eng engagementAccum
	var posts []TopPost

	for _, category := range categories {
		snap.CategoryCounts[category] = 0
		daily[category] = make(map[string]int)
		err := a.records.Scan(ctx, category, func(p rights.Post) error {
			if !window.Contains(p.PublishedAt) {
				return nil
			}
			snap.TotalPosts++
			snap.CategoryCounts[category]++
			a.countTokens(tokens, p.Title+"\n"+p.Body)
			accumAuthor(authors, p)
			daily[category][p.PublishedAt.UTC().Format("2006-01-02")]++
			eng.add(p)
			posts = append(posts, TopPost{
				ID:       p.ID,
				Category: category,
				Title:    titleOf(p),
				Likes:    p.Likes,
				Comments: p.Comments,
			})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s records: %w", category, err)
		}
	}

	snap.Keywords = a.rankTokens(tokens)
	snap.Authors = rankAuthors(authors, a.cfg.TopAuthors)
	snap.Trend = buildTrend(categories, daily)
	snap.Engagement = eng.stats()
	snap.TopPosts = rankPosts(posts, a.cfg.TopPosts)

	metrics.ObserveAnalysis(snap.TotalPosts, time.Since(started))
	a.logger.Info("analysis complete",
		zap.Int("posts", snap.TotalPosts),
		zap.Int("tokens", len(snap.Keywords)),
		zap.Duration("dur", time.Since(started)))
	return snap, nil
}

func (a *Analyzer) countTokens(counts map[string]int, text string) {
	for _, token := range a.seg.Cut(text, true) {
		token = strings.TrimSpace(token)
		if !a.keepToken(token) {
			continue
		}
		counts[token]++
	}
}

// keepToken applies the data-quality filters: minimum rune length, stopwords,
// and at least one letter so pure digits and punctuation runs drop out.
func (a *Analyzer) keepToken(token string) bool {
	if utf8.RuneCountInString(token) < a.cfg.MinTokenRunes {
		return false
	}
	if a.stop[token] {
		return false
	}
	for _, r := range token {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func (a *Analyzer) rankTokens(counts map[string]int) []KeywordStat {
	stats := make([]KeywordStat, 0, len(counts))
	for token, count := range counts {
		weight := a.weights[token]
		if weight == 0 {
			weight = 1
		}
		stats = append(stats, KeywordStat{
			Token: token,
			Count: count,
			Score: weight * float64(count),
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Score != stats[j].Score {
			return stats[i].Score > stats[j].Score
		}
		return stats[i].Token < stats[j].Token
	})
	if len(stats) > a.cfg.TopKeywords {
		stats = stats[:a.cfg.TopKeywords]
	}
	return stats
}

func accumAuthor(authors map[string]*AuthorStat, p rights.Post) {
	s := authors[p.AuthorID]
	if s == nil {
		s = &AuthorStat{
			AuthorID:    p.AuthorID,
			AuthorName:  p.AuthorName,
			FirstPostAt: p.PublishedAt,
		}
		authors[p.AuthorID] = s
	}
	s.Posts++
	s.Likes += p.Likes
	s.Comments += p.Comments
	s.Favorites += p.Favorites
	s.Engagement += p.Engagement()
	if p.PublishedAt.Before(s.FirstPostAt) {
		s.FirstPostAt = p.PublishedAt
	}
	if s.AuthorName == "" {
		s.AuthorName = p.AuthorName
	}
}

func rankAuthors(authors map[string]*AuthorStat, limit int) []AuthorStat {
	stats := make([]AuthorStat, 0, len(authors))
	for _, s := range authors {
		stats = append(stats, *s)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Posts != stats[j].Posts {
			return stats[i].Posts > stats[j].Posts
		}
		if stats[i].Engagement != stats[j].Engagement {
			return stats[i].Engagement > stats[j].Engagement
		}
		if !stats[i].FirstPostAt.Equal(stats[j].FirstPostAt) {
			return stats[i].FirstPostAt.Before(stats[j].FirstPostAt)
		}
		return stats[i].AuthorID < stats[j].AuthorID
	})
	if len(stats) > limit {
		stats = stats[:limit]
	}
	return stats
}

func buildTrend(categories []rights.Category, daily map[rights.Category]map[string]int) []CategoryTrend {
	trend := make([]CategoryTrend, 0, len(categories))
	for _, category := range categories {
		days := daily[category]
		points := make([]TrendPoint, 0, len(days))
		for date, n := range days {
			points = append(points, TrendPoint{Date: date, Posts: n})
		}
		sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
		trend = append(trend, CategoryTrend{Category: category, Points: points})
	}
	return trend
}

func rankPosts(posts []TopPost, limit int) []TopPost {
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].Likes != posts[j].Likes {
			return posts[i].Likes > posts[j].Likes
		}
		if posts[i].Comments != posts[j].Comments {
			return posts[i].Comments > posts[j].Comments
		}
		return posts[i].ID < posts[j].ID
	})
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts
}

// titleOf falls back to a body prefix for posts that carry no title, so the
// top-post tables never show blank rows.
func titleOf(p rights.Post) string {
	if p.Title != "" {
		return p.Title
	}
	runes := []rune(p.Body)
	if len(runes) > 24 {
		return string(runes[:24]) + "…"
	}
	return p.Body
}

type engagementAccum struct {
	posts        int
	likes        int
	comments     int
	favorites    int
	maxLikes     int
	maxComments  int
	maxFavorites int
}

func (e *engagementAccum) add(p rights.Post) {
	e.posts++
	e.likes += p.Likes
	e.comments += p.Comments
	e.favorites += p.Favorites
	if p.Likes > e.maxLikes {
		e.maxLikes = p.Likes
	}
	if p.Comments > e.maxComments {
		e.maxComments = p.Comments
	}
	if p.Favorites > e.maxFavorites {
		e.maxFavorites = p.Favorites
	}
}

func (e *engagementAccum) stats() EngagementStats {
	if e.posts == 0 {
		return EngagementStats{}
	}
	n := float64(e.posts)
	return EngagementStats{
		AvgLikes:     float64(e.likes) / n,
		MaxLikes:     e.maxLikes,
		AvgComments:  float64(e.comments) / n,
		MaxComments:  e.maxComments,
		AvgFavorites: float64(e.favorites) / n,
		MaxFavorites: e.maxFavorites,
	}
}
