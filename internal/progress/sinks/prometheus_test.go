package sinks

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/redresslabs/redress/internal/progress"
	"github.com/redresslabs/redress/internal/rights"
)

// TestPrometheusSinkRecordsMetrics ensures counters and histograms are incremented from events.
func TestPrometheusSinkRecordsMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	sink, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	category := rights.CategoryMedicalBeauty
	batch := []progress.Event{
		{
			RunID:    "run-1",
			TS:       time.Now(),
			Stage:    progress.StageKeywordStart,
			Category: category,
			Keyword:  "医美 维权",
		},
		{
			RunID:    "run-1",
			TS:       time.Now().Add(2 * time.Second),
			Stage:    progress.StageMediaSaved,
			Category: category,
			Bytes:    2048,
		},
		{
			RunID:    "run-1",
			TS:       time.Now().Add(3 * time.Second),
			Stage:    progress.StageKeywordDone,
			Category: category,
			Keyword:  "医美 维权",
			Found:    10,
			Fresh:    6,
			Skipped:  4,
			Dur:      3 * time.Second,
		},
	}

	require.NoError(t, sink.Consume(context.Background(), batch))

	cat := string(category)
	require.Equal(t, 1.0, testutil.ToFloat64(sink.keywordsTotal.WithLabelValues(cat, "succeeded")))
	require.Equal(t, 0.0, testutil.ToFloat64(sink.keywordsTotal.WithLabelValues(cat, "failed")))
	require.Equal(t, 0.0, testutil.ToFloat64(sink.keywordsRunning))

	require.InDelta(t, 10.0, testutil.ToFloat64(sink.postsTotal.WithLabelValues(cat, "found")), 1e-9)
	require.InDelta(t, 6.0, testutil.ToFloat64(sink.postsTotal.WithLabelValues(cat, "fresh")), 1e-9)
	require.InDelta(t, 4.0, testutil.ToFloat64(sink.postsTotal.WithLabelValues(cat, "skipped")), 1e-9)

	require.Equal(t, 1.0, testutil.ToFloat64(sink.mediaTotal.WithLabelValues(cat, "saved")))
	require.InDelta(t, 2048.0, testutil.ToFloat64(sink.mediaBytes.WithLabelValues(cat)), 1e-9)
	require.Equal(t, 1, testutil.CollectAndCount(sink.searchDuration, "collector_search_duration_seconds"))
}

// TestPrometheusSinkTracksRunningKeywords verifies the gauge pairs start and terminal stages.
func TestPrometheusSinkTracksRunningKeywords(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	sink, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	start := progress.Event{
		RunID:    "run-2",
		TS:       time.Now(),
		Stage:    progress.StageKeywordStart,
		Category: rights.CategoryMaleHealth,
		Keyword:  "男科 曝光",
	}
	require.NoError(t, sink.Consume(context.Background(), []progress.Event{start}))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.keywordsRunning))

	// A duplicate start must not double-count the gauge.
	require.NoError(t, sink.Consume(context.Background(), []progress.Event{start}))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.keywordsRunning))

	fail := start
	fail.Stage = progress.StageKeywordError
	fail.Note = "rate limited"
	require.NoError(t, sink.Consume(context.Background(), []progress.Event{fail}))
	require.Equal(t, 0.0, testutil.ToFloat64(sink.keywordsRunning))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.keywordsTotal.WithLabelValues(string(rights.CategoryMaleHealth), "failed")))
}
