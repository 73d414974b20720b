package sinks

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/redresslabs/redress/internal/progress"
)

// PrometheusSink exports collection progress metrics via Prometheus. It owns
// all collectors for per-keyword outcomes, post dispositions, and media
// transfers. Run-level counters live in the metrics package; this sink only
// handles keyword and media stages.
type PrometheusSink struct {
	keywordsTotal   *prometheus.CounterVec
	keywordsRunning prometheus.Gauge
	postsTotal      *prometheus.CounterVec
	mediaTotal      *prometheus.CounterVec
	mediaBytes      *prometheus.CounterVec
	searchDuration  *prometheus.HistogramVec

	tracker *keywordTracker
}

// NewPrometheusSink registers the collectors against the provided registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		keywordsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "collector_keywords_total",
			Help: "Keyword passes completed partitioned by category and outcome.",
		}, []string{"category", "status"}),
		keywordsRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "collector_keywords_running",
			Help: "Current number of in-flight keyword passes.",
		}),
		postsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "collector_posts_total",
			Help: "Posts seen partitioned by category and disposition.",
		}, []string{"category", "disposition"}),
		mediaTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "collector_media_total",
			Help: "Media attachment downloads partitioned by category and result.",
		}, []string{"category", "result"}),
		mediaBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "collector_media_bytes_total",
			Help: "Bytes of media stored per category.",
		}, []string{"category"}),
		searchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "collector_search_duration_seconds",
			Help:    "Wall time per keyword pass partitioned by category.",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"category"}),
		tracker: newKeywordTracker(),
	}
	for _, collector := range []prometheus.Collector{
		s.keywordsTotal,
		s.keywordsRunning,
		s.postsTotal,
		s.mediaTotal,
		s.mediaBytes,
		s.searchDuration,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the Prometheus collectors using the provided batch. It is
// safe for concurrent use by multiple goroutines.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		s.consumeEvent(evt)
	}
	return nil
}

func (s *PrometheusSink) consumeEvent(evt progress.Event) {
	switch evt.Stage {
	case progress.StageKeywordStart, progress.StageKeywordDone, progress.StageKeywordError:
		s.handleKeywordEvent(evt)
	case progress.StageMediaSaved, progress.StageMediaFailed:
		s.handleMediaEvent(evt)
	}
}

func (s *PrometheusSink) handleKeywordEvent(evt progress.Event) {
	category := string(evt.Category)
	switch evt.Stage {
	case progress.StageKeywordStart:
		if s.tracker.start(trackerKey(evt)) {
			s.keywordsRunning.Inc()
		}
		return
	case progress.StageKeywordDone:
		s.keywordsTotal.WithLabelValues(category, "succeeded").Inc()
		s.addPosts(category, evt)
	case progress.StageKeywordError:
		s.keywordsTotal.WithLabelValues(category, "failed").Inc()
	}
	if evt.Dur > 0 {
		s.searchDuration.WithLabelValues(category).Observe(evt.Dur.Seconds())
	}
	if s.tracker.complete(trackerKey(evt)) {
		s.keywordsRunning.Dec()
	}
}

func trackerKey(evt progress.Event) string {
	return evt.RunID + "/" + string(evt.Category) + "/" + evt.Keyword
}

func (s *PrometheusSink) addPosts(category string, evt progress.Event) {
	if evt.Found > 0 {
		s.postsTotal.WithLabelValues(category, "found").Add(float64(evt.Found))
	}
	if evt.Fresh > 0 {
		s.postsTotal.WithLabelValues(category, "fresh").Add(float64(evt.Fresh))
	}
	if evt.Skipped > 0 {
		s.postsTotal.WithLabelValues(category, "skipped").Add(float64(evt.Skipped))
	}
}

func (s *PrometheusSink) handleMediaEvent(evt progress.Event) {
	category := string(evt.Category)
	switch evt.Stage {
	case progress.StageMediaSaved:
		s.mediaTotal.WithLabelValues(category, "saved").Inc()
		if evt.Bytes > 0 {
			s.mediaBytes.WithLabelValues(category).Add(float64(evt.Bytes))
		}
	case progress.StageMediaFailed:
		s.mediaTotal.WithLabelValues(category, "failed").Inc()
	}
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}

type keywordTracker struct {
	mu      sync.Mutex
	running map[string]struct{}
}

func newKeywordTracker() *keywordTracker {
	return &keywordTracker{running: make(map[string]struct{})}
}

func (t *keywordTracker) start(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.running[key]; ok {
		return false
	}
	t.running[key] = struct{}{}
	return true
}

func (t *keywordTracker) complete(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.running[key]; !ok {
		return false
	}
	delete(t.running, key)
	return true
}
