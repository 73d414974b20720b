// Package scheduler drives collection runs: a single pass in once mode, a
// daily loop in schedule mode. It owns rotation state, run summaries, and the
// notifier publish; the per-keyword pipeline is delegated to the collector.
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/redresslabs/redress/internal/clock/system"
	"github.com/redresslabs/redress/internal/id/uuid"
	"github.com/redresslabs/redress/internal/metrics"
	"github.com/redresslabs/redress/internal/progress"
	"github.com/redresslabs/redress/internal/rights"
	"github.com/redresslabs/redress/internal/rotation"
)

// KeywordCollector abstracts the per-keyword pipeline so tests can drive the
// scheduler with a scripted collector.
type KeywordCollector interface {
	Collect(ctx context.Context, runID string, category rights.Category, keyword string) rights.KeywordOutcome
}

// Config controls run composition and the daily schedule.
type Config struct {
	// Categories selects the verticals for each pass; empty means all.
	Categories []rights.Category
	// KeywordsPerRun is how many keywords each category gets per pass.
	KeywordsPerRun int
	// CategoryPause spaces consecutive categories inside one pass.
	CategoryPause time.Duration
	// DailyAt is the wall-clock time for schedule mode; only its hour and
	// minute are used.
	DailyAt time.Time
	// RunsDir is where run summary JSON files land. Empty disables them.
	RunsDir string
}

// Deps carries the scheduler's collaborators.
type Deps struct {
	Collector KeywordCollector
	Rotation  *rotation.State
	Clock     rights.Clock
	IDs       rights.IDGenerator
	Notifier  rights.Notifier
	Emitter   progress.Emitter
	Logger    *zap.Logger
}

// Scheduler coordinates passes and persists what happened.
type Scheduler struct {
	cfg       Config
	collector KeywordCollector
	rotation  *rotation.State
	clock     rights.Clock
	ids       rights.IDGenerator
	notifier  rights.Notifier
	emitter   progress.Emitter
	logger    *zap.Logger
}

// New wires a Scheduler. Collector and Rotation are required.
func New(cfg Config, deps Deps) (*Scheduler, error) {
	if deps.Collector == nil {
		return nil, fmt.Errorf("scheduler requires a collector")
	}
	if deps.Rotation == nil {
		return nil, fmt.Errorf("scheduler requires rotation state")
	}
	if len(cfg.Categories) == 0 {
		cfg.Categories = rights.AllCategories()
	}
	if cfg.KeywordsPerRun <= 0 {
		cfg.KeywordsPerRun = 5
	}
	if deps.Clock == nil {
		deps.Clock = system.New()
	}
	if deps.IDs == nil {
		deps.IDs = uuid.NewUUIDGenerator()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Scheduler{
		cfg:       cfg,
		collector: deps.Collector,
		rotation:  deps.Rotation,
		clock:     deps.Clock,
		ids:       deps.IDs,
		notifier:  deps.Notifier,
		emitter:   deps.Emitter,
		logger:    deps.Logger,
	}, nil
}

// RunOnce executes a single pass over the configured categories.
func (s *Scheduler) RunOnce(ctx context.Context) (rights.RunSummary, error) {
	return s.runPass(ctx, rights.ModeOnce)
}

// RunSchedule loops daily passes at the configured wall-clock time until the
// context is canceled. Pass failures are logged and the loop continues; only
// cancellation ends it.
func (s *Scheduler) RunSchedule(ctx context.Context) error {
	for {
		next := nextOccurrence(s.clock.Now(), s.cfg.DailyAt)
		s.logger.Info("waiting for next run", zap.Time("next", next))
		if err := s.waitUntil(ctx, next); err != nil {
			return err
		}
		if _, err := s.runPass(ctx, rights.ModeSchedule); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error("scheduled run failed", zap.Error(err))
		}
	}
}

func (s *Scheduler) runPass(ctx context.Context, mode rights.RunMode) (rights.RunSummary, error) {
	runID, err := s.ids.NewID()
	if err != nil {
		return rights.RunSummary{}, fmt.Errorf("generate run id: %w", err)
	}
	summary := rights.RunSummary{
		RunID:     runID,
		Mode:      mode,
		StartedAt: s.clock.Now(),
	}
	metrics.RunStarted()
	defer metrics.RunFinished()
	s.emit(progress.Event{RunID: runID, TS: summary.StartedAt, Stage: progress.StageRunStart})
	s.logger.Info("run started",
		zap.String("run_id", runID),
		zap.String("mode", string(mode)))

	var stopErr error
	for i, category := range s.cfg.Categories {
		if err := ctx.Err(); err != nil {
			stopErr = err
			break
		}
		if i > 0 && s.cfg.CategoryPause > 0 {
			if err := s.pause(ctx, s.cfg.CategoryPause); err != nil {
				stopErr = err
				break
			}
		}
		summary.Categories = append(summary.Categories, s.runCategory(ctx, runID, category))
		if err := ctx.Err(); err != nil {
			stopErr = err
			break
		}
	}

	summary.FinishedAt = s.clock.Now()
	if stopErr != nil {
		summary.Status = rights.RunFailed
		summary.Error = fmt.Sprintf("run interrupted: %v", stopErr)
	} else {
		summary.Status = rights.RunCompleted
	}
	metrics.ObserveRun(string(summary.Status))

	if err := s.writeSummary(summary); err != nil {
		s.logger.Error("write run summary", zap.Error(err))
	}
	s.notify(summary)

	stage := progress.StageRunDone
	if summary.Status == rights.RunFailed {
		stage = progress.StageRunError
	}
	s.emit(progress.Event{
		RunID: runID,
		TS:    summary.FinishedAt,
		Stage: stage,
		Dur:   summary.FinishedAt.Sub(summary.StartedAt),
		Note:  summary.Error,
	})
	s.logger.Info("run finished",
		zap.String("run_id", runID),
		zap.String("status", string(summary.Status)),
		zap.Int("posts_new", summary.TotalNew()))
	return summary, stopErr
}

// runCategory collects the peeked keywords in order, then advances the
// rotation cursor by the longest successful prefix: a failed keyword and
// everything after it stay eligible for the next run.
func (s *Scheduler) runCategory(ctx context.Context, runID string, category rights.Category) rights.CategoryRun {
	run := rights.CategoryRun{Category: category}
	for _, keyword := range s.rotation.Peek(category, s.cfg.KeywordsPerRun) {
		if ctx.Err() != nil {
			break
		}
		outcome := s.collector.Collect(ctx, runID, category, keyword)
		run.Keywords = append(run.Keywords, outcome)
		run.PostsFound += outcome.PostsFound
		run.PostsNew += outcome.PostsNew
		run.MediaSaved += outcome.MediaSaved
	}

	advance := 0
	for _, outcome := range run.Keywords {
		if outcome.Status != rights.OutcomeSucceeded {
			break
		}
		advance++
	}
	if advance > 0 {
		s.rotation.Advance(category, advance)
	}
	if err := s.rotation.Save(); err != nil {
		// A lost cursor only means re-collecting known posts next run;
		// dedup keeps that harmless.
		s.logger.Warn("save rotation state", zap.Error(err))
	}
	return run
}

func (s *Scheduler) pause(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Scheduler) waitUntil(ctx context.Context, t time.Time) error {
	d := t.Sub(s.clock.Now())
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// nextOccurrence finds the next wall-clock occurrence of at's hour:minute
// strictly after now.
func nextOccurrence(now, at time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), at.Hour(), at.Minute(), 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (s *Scheduler) writeSummary(summary rights.RunSummary) error {
	if s.cfg.RunsDir == "" {
		return nil
	}
	if err := os.MkdirAll(s.cfg.RunsDir, 0o750); err != nil {
		return fmt.Errorf("create runs directory: %w", err)
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("encode run summary: %w", err)
	}
	name := fmt.Sprintf("run_%s_%s.json",
		summary.StartedAt.UTC().Format(rights.StampLayout), shortID(summary.RunID))
	if err := os.WriteFile(filepath.Join(s.cfg.RunsDir, name), data, 0o600); err != nil {
		return fmt.Errorf("write run summary: %w", err)
	}
	return nil
}

// notify publishes on a background context so a graceful stop still reports
// the interrupted run.
func (s *Scheduler) notify(summary rights.RunSummary) {
	if s.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	id, err := s.notifier.Notify(ctx, summary)
	if err != nil {
		s.logger.Warn("publish run summary", zap.Error(err))
		return
	}
	s.logger.Debug("run summary published", zap.String("message_id", id))
}

func (s *Scheduler) emit(evt progress.Event) {
	if s.emitter == nil {
		return
	}
	s.emitter.Emit(evt)
}

func shortID(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
