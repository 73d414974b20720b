package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/redresslabs/redress/internal/config"
	"github.com/redresslabs/redress/internal/rights"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		DataDir: t.TempDir(),
		Logging: config.LoggingConfig{Development: true, Level: "info"},
		Server:  config.ServerConfig{Port: 18080},
		Collect: config.CollectConfig{
			KeywordsPerRun:        2,
			PageLimit:             5,
			KeywordTimeoutSeconds: 5,
			MediaMaxMB:            1,
		},
		Schedule: config.ScheduleConfig{At: "03:00"},
		Platform: config.PlatformConfig{UserAgent: "redress-test", TimeoutSeconds: 5},
		Store:    config.StoreConfig{Provider: "memory"},
		Media:    config.MediaConfig{Provider: "noop"},
		Analysis: config.AnalysisConfig{TopKeywords: 10, TopAuthors: 5, TopPosts: 3, MinTokenRunes: 2},
	}
}

func TestBuildWithMemoryProviders(t *testing.T) {
	cfg := testConfig(t)

	a, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, a.Logger())
	require.NotNil(t, a.records)
	require.NotNil(t, a.media)
	require.NotNil(t, a.notifier)
	require.NotNil(t, a.rotation)
	require.NotNil(t, a.hub)
	require.NotNil(t, a.activity)

	require.NoError(t, a.Close(context.Background()))
}

func TestBuildCreatesXlsxTree(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Provider = "xlsx"

	a, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { require.NoError(t, a.Close(context.Background())) }()

	require.DirExists(t, cfg.ExcelDir())
}

func TestSchedulerRequiresCookie(t *testing.T) {
	cfg := testConfig(t)

	a, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { require.NoError(t, a.Close(context.Background())) }()

	_, err = a.Scheduler(CollectOptions{})
	require.Error(t, err)
	require.ErrorIs(t, err, rights.ErrSetup)
}

func TestSchedulerAssemblesPipeline(t *testing.T) {
	cfg := testConfig(t)
	cfg.Platform.BaseURL = "http://127.0.0.1:9"
	cfg.Platform.Cookie = "session=test"

	a, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { require.NoError(t, a.Close(context.Background())) }()

	sched, err := a.Scheduler(CollectOptions{
		Categories:     []rights.Category{rights.CategoryMedicalBeauty},
		KeywordsPerRun: 1,
	})
	require.NoError(t, err)
	require.NotNil(t, sched)
}

func TestAnalyzerAndReporter(t *testing.T) {
	cfg := testConfig(t)

	a, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { require.NoError(t, a.Close(context.Background())) }()

	an, err := a.Analyzer()
	require.NoError(t, err)
	require.NotNil(t, an)

	gen, err := a.Reporter("")
	require.NoError(t, err)
	require.NotNil(t, gen)
}

func TestServeOpsStopsOnCanceledContext(t *testing.T) {
	cfg := testConfig(t)
	// Port 0 binds an ephemeral port so test runs never collide.
	cfg.Server.Port = 0

	a, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { require.NoError(t, a.Close(context.Background())) }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() {
		done <- a.ServeOps(ctx, 0)
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("ServeOps did not stop after context cancellation")
	}
}
