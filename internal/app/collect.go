package app

import (
	"fmt"
	"time"

	"github.com/redresslabs/redress/internal/collector"
	"github.com/redresslabs/redress/internal/media"
	"github.com/redresslabs/redress/internal/platform"
	"github.com/redresslabs/redress/internal/policy/pacing"
	"github.com/redresslabs/redress/internal/rights"
	"github.com/redresslabs/redress/internal/scheduler"
)

// CollectOptions narrows a collection pass beyond the configured defaults.
// Zero values fall back to configuration.
type CollectOptions struct {
	// Categories selects the verticals to collect; empty means all.
	Categories []rights.Category
	// KeywordsPerRun overrides collect.keywords_per_run when positive.
	KeywordsPerRun int
	// DailyAt overrides schedule.at for schedule mode when non-zero.
	DailyAt time.Time
}

// Scheduler assembles the collection pipeline: platform client, pacer,
// media fetcher, collector, and the scheduler on top. The platform client
// is built here rather than in Build so analyze and serve never require a
// cookie.
func (a *App) Scheduler(opts CollectOptions) (*scheduler.Scheduler, error) {
	searcher, err := platform.New(platform.Config{
		BaseURL:   a.cfg.Platform.BaseURL,
		Cookie:    a.cfg.Platform.Cookie,
		UserAgent: a.cfg.Platform.UserAgent,
		Timeout:   time.Duration(a.cfg.Platform.TimeoutSeconds) * time.Second,
		PageLimit: a.cfg.Collect.PageLimit,
	})
	if err != nil {
		return nil, err
	}

	fetcher := media.NewFetcher(media.FetcherConfig{
		Timeout:   time.Duration(a.cfg.Platform.TimeoutSeconds) * time.Second,
		MaxBytes:  int64(a.cfg.Collect.MediaMaxMB) << 20,
		UserAgent: a.cfg.Platform.UserAgent,
	})
	pacer := pacing.New(pacing.Config{SearchInterval: a.cfg.SearchInterval()})

	col, err := collector.New(collector.Config{
		KeywordTimeout: a.cfg.KeywordTimeout(),
		MediaEnabled:   a.cfg.Collect.MediaEnabled,
	}, collector.Deps{
		Searcher: searcher,
		Records:  a.records,
		Media:    a.media,
		Fetcher:  fetcher,
		Pacer:    pacer,
		Emitter:  a.hub,
		Logger:   a.logger.Named("collector"),
	})
	if err != nil {
		return nil, fmt.Errorf("collector init failed: %w", err)
	}

	keywords := opts.KeywordsPerRun
	if keywords <= 0 {
		keywords = a.cfg.Collect.KeywordsPerRun
	}
	at := opts.DailyAt
	if at.IsZero() {
		hour, minute, err := a.cfg.ScheduleAt()
		if err != nil {
			return nil, err
		}
		at = time.Date(0, time.January, 1, hour, minute, 0, 0, time.Local)
	}

	sched, err := scheduler.New(scheduler.Config{
		Categories:     opts.Categories,
		KeywordsPerRun: keywords,
		CategoryPause:  a.cfg.CategoryPause(),
		DailyAt:        at,
		RunsDir:        a.cfg.RunsDir(),
	}, scheduler.Deps{
		Collector: col,
		Rotation:  a.rotation,
		Notifier:  a.notifier,
		Emitter:   a.hub,
		Logger:    a.logger.Named("scheduler"),
	})
	if err != nil {
		return nil, fmt.Errorf("scheduler init failed: %w", err)
	}
	return sched, nil
}
