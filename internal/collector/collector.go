// Package collector turns one keyword into stored records and media blobs. It
// owns the per-keyword pipeline: pacing, search, normalization, deduplication,
// transactional batch append, and failure-tolerant media capture.
package collector

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/redresslabs/redress/internal/clock/system"
	"github.com/redresslabs/redress/internal/media"
	"github.com/redresslabs/redress/internal/policy/pacing"
	"github.com/redresslabs/redress/internal/progress"
	"github.com/redresslabs/redress/internal/rights"
)

// Config controls per-keyword behavior.
type Config struct {
	// KeywordTimeout bounds one keyword's search, append, and media work.
	KeywordTimeout time.Duration
	// MediaEnabled toggles media download alongside records.
	MediaEnabled bool
}

// Deps carries the capabilities the collector drives.
type Deps struct {
	Searcher rights.Searcher
	Records  rights.RecordStore
	Media    rights.MediaStore
	Fetcher  rights.MediaFetcher
	Pacer    *pacing.Pacer
	Emitter  progress.Emitter
	Clock    rights.Clock
	Logger   *zap.Logger
}

// Collector executes the keyword pipeline against the wired capabilities.
type Collector struct {
	cfg      Config
	searcher rights.Searcher
	records  rights.RecordStore
	media    rights.MediaStore
	fetcher  rights.MediaFetcher
	pacer    *pacing.Pacer
	emitter  progress.Emitter
	clock    rights.Clock
	logger   *zap.Logger
}

// New wires a Collector. Searcher and Records are required; media capture is
// skipped unless both a store and a fetcher are supplied.
func New(cfg Config, deps Deps) (*Collector, error) {
	if deps.Searcher == nil {
		return nil, fmt.Errorf("collector requires a searcher")
	}
	if deps.Records == nil {
		return nil, fmt.Errorf("collector requires a record store")
	}
	if cfg.KeywordTimeout <= 0 {
		cfg.KeywordTimeout = 2 * time.Minute
	}
	if deps.Pacer == nil {
		deps.Pacer = pacing.New(pacing.Config{})
	}
	if deps.Clock == nil {
		deps.Clock = system.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Collector{
		cfg:      cfg,
		searcher: deps.Searcher,
		records:  deps.Records,
		media:    deps.Media,
		fetcher:  deps.Fetcher,
		pacer:    deps.Pacer,
		emitter:  deps.Emitter,
		clock:    deps.Clock,
		logger:   deps.Logger,
	}, nil
}

// Collect runs the full pipeline for one keyword and reports the outcome. It
// never returns an error: a keyword failure is an outcome, not a run abort.
// Cancellation is honored while pacing; once the search starts the keyword
// finishes on its own timeout so a stop request never tears work in half.
func (c *Collector) Collect(ctx context.Context, runID string, category rights.Category, keyword string) rights.KeywordOutcome {
	outcome := rights.KeywordOutcome{Keyword: keyword}

	waited, err := c.pacer.Wait(ctx)
	if err != nil {
		outcome.Status = rights.OutcomeFailed
		outcome.Error = err.Error()
		return outcome
	}
	if waited > time.Millisecond {
		c.logger.Debug("paced search",
			zap.String("keyword", keyword),
			zap.Duration("waited", waited))
	}

	started := c.clock.Now()
	c.emit(progress.Event{
		RunID:    runID,
		TS:       started,
		Stage:    progress.StageKeywordStart,
		Category: category,
		Keyword:  keyword,
	})

	workCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.KeywordTimeout)
	defer cancel()

	raws, err := c.searcher.Search(workCtx, keyword)
	if err != nil {
		return c.fail(runID, category, started, outcome, fmt.Errorf("search: %w", err))
	}
	outcome.PostsFound = len(raws)

	fresh, skipped, err := c.sift(workCtx, category, keyword, raws, started)
	if err != nil {
		return c.fail(runID, category, started, outcome, err)
	}
	outcome.PostsSkipped = skipped

	if len(fresh) > 0 {
		if err := c.records.Append(workCtx, category, fresh); err != nil {
			return c.fail(runID, category, started, outcome, fmt.Errorf("append batch: %w", err))
		}
	}
	outcome.PostsNew = len(fresh)

	if c.mediaEnabled() {
		outcome.MediaSaved, outcome.MediaFailed = c.captureMedia(workCtx, runID, category, fresh)
	}

	outcome.Status = rights.OutcomeSucceeded
	outcome.DurationMs = c.clock.Now().Sub(started).Milliseconds()
	c.emit(progress.Event{
		RunID:    runID,
		TS:       c.clock.Now(),
		Stage:    progress.StageKeywordDone,
		Category: category,
		Keyword:  keyword,
		Found:    int64(outcome.PostsFound),
		Fresh:    int64(outcome.PostsNew),
		Skipped:  int64(outcome.PostsSkipped),
		Dur:      time.Duration(outcome.DurationMs) * time.Millisecond,
	})
	c.logger.Info("keyword collected",
		zap.String("category", string(category)),
		zap.String("keyword", keyword),
		zap.Int("found", outcome.PostsFound),
		zap.Int("fresh", outcome.PostsNew),
		zap.Int("skipped", outcome.PostsSkipped),
		zap.Int("media_saved", outcome.MediaSaved))
	return outcome
}

// sift normalizes raw hits and drops everything the store already holds.
// Duplicates inside a single response batch count as skipped as well.
func (c *Collector) sift(ctx context.Context, category rights.Category, keyword string, raws []rights.RawPost, collectedAt time.Time) ([]rights.Post, int, error) {
	var fresh []rights.Post
	skipped := 0
	seen := make(map[string]struct{}, len(raws))
	for _, raw := range raws {
		post, ok := normalize(raw, category, keyword, collectedAt)
		if !ok {
			skipped++
			continue
		}
		if _, dup := seen[post.ID]; dup {
			skipped++
			continue
		}
		exists, err := c.records.Exists(ctx, category, post.ID)
		if err != nil {
			return nil, 0, fmt.Errorf("check existing post %s: %w", post.ID, err)
		}
		if exists {
			skipped++
			continue
		}
		seen[post.ID] = struct{}{}
		fresh = append(fresh, post)
	}
	return fresh, skipped, nil
}

// normalize applies the data-quality filter: a usable post has an ID and at
// least one of title or body. A zero publish time falls back to the collection
// time so trend bucketing never sees the zero year.
func normalize(raw rights.RawPost, category rights.Category, keyword string, collectedAt time.Time) (rights.Post, bool) {
	if raw.ID == "" {
		return rights.Post{}, false
	}
	if raw.Title == "" && raw.Body == "" {
		return rights.Post{}, false
	}
	publishedAt := raw.PublishedAt
	if publishedAt.IsZero() {
		publishedAt = collectedAt
	}
	post := rights.Post{
		ID:          raw.ID,
		Category:    category,
		Keyword:     keyword,
		AuthorID:    raw.AuthorID,
		AuthorName:  raw.AuthorName,
		Title:       raw.Title,
		Body:        raw.Body,
		PublishedAt: publishedAt.UTC(),
		Likes:       raw.Likes,
		Comments:    raw.Comments,
		Favorites:   raw.Favorites,
		CollectedAt: collectedAt.UTC(),
	}
	if len(raw.Media) > 0 {
		post.Media = append([]rights.MediaRef(nil), raw.Media...)
	}
	return post, true
}

// captureMedia downloads and stores every attachment of the fresh posts.
// Failures are counted and logged; they never invalidate the text records.
func (c *Collector) captureMedia(ctx context.Context, runID string, category rights.Category, posts []rights.Post) (saved, failed int) {
	for _, post := range posts {
		for idx, ref := range post.Media {
			data, contentType, err := c.fetcher.Fetch(ctx, ref.URL)
			if err != nil {
				failed++
				c.emitMedia(runID, category, progress.StageMediaFailed, 0, err.Error())
				c.logger.Warn("media fetch failed",
					zap.String("post_id", post.ID),
					zap.String("url", ref.URL),
					zap.Error(err))
				continue
			}
			name := strconv.Itoa(idx) + media.ExtensionFor(contentType, ref.Kind)
			uri, err := c.media.Put(ctx, category, post.ID, name, contentType, data)
			if err != nil {
				failed++
				c.emitMedia(runID, category, progress.StageMediaFailed, 0, err.Error())
				c.logger.Warn("media store failed",
					zap.String("post_id", post.ID),
					zap.String("name", name),
					zap.Error(err))
				continue
			}
			saved++
			c.emitMedia(runID, category, progress.StageMediaSaved, int64(len(data)), "")
			c.logger.Debug("media stored", zap.String("uri", uri))
		}
	}
	return saved, failed
}

func (c *Collector) fail(runID string, category rights.Category, started time.Time, outcome rights.KeywordOutcome, err error) rights.KeywordOutcome {
	outcome.Status = rights.OutcomeFailed
	outcome.Error = err.Error()
	outcome.DurationMs = c.clock.Now().Sub(started).Milliseconds()
	c.emit(progress.Event{
		RunID:    runID,
		TS:       c.clock.Now(),
		Stage:    progress.StageKeywordError,
		Category: category,
		Keyword:  outcome.Keyword,
		Dur:      time.Duration(outcome.DurationMs) * time.Millisecond,
		Note:     outcome.Error,
	})
	c.logger.Warn("keyword collection failed",
		zap.String("category", string(category)),
		zap.String("keyword", outcome.Keyword),
		zap.Error(err))
	return outcome
}

func (c *Collector) mediaEnabled() bool {
	return c.cfg.MediaEnabled && c.media != nil && c.fetcher != nil
}

func (c *Collector) emit(evt progress.Event) {
	if c.emitter == nil {
		return
	}
	c.emitter.Emit(evt)
}

func (c *Collector) emitMedia(runID string, category rights.Category, stage progress.Stage, bytes int64, note string) {
	c.emit(progress.Event{
		RunID:    runID,
		TS:       c.clock.Now(),
		Stage:    stage,
		Category: category,
		Bytes:    bytes,
		Note:     note,
	})
}
