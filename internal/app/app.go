// Package app initializes and holds the long-lived services behind every
// command, acting as a dependency injection container. Build wires the
// provider-selected stores, the notifier, rotation state, and the progress
// hub; the per-command pipelines are assembled on top of those in
// Scheduler, Analyzer, Reporter, and ServeOps.
package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/redresslabs/redress/internal/config"
	"github.com/redresslabs/redress/internal/logging"
	gcsmedia "github.com/redresslabs/redress/internal/media/gcs"
	localmedia "github.com/redresslabs/redress/internal/media/local"
	memorymedia "github.com/redresslabs/redress/internal/media/memory"
	"github.com/redresslabs/redress/internal/metrics"
	memorynotify "github.com/redresslabs/redress/internal/notify/memory"
	pubsubnotify "github.com/redresslabs/redress/internal/notify/pubsub"
	"github.com/redresslabs/redress/internal/progress"
	"github.com/redresslabs/redress/internal/progress/sinks"
	"github.com/redresslabs/redress/internal/rights"
	"github.com/redresslabs/redress/internal/rotation"
	memorystore "github.com/redresslabs/redress/internal/store/memory"
	pgstore "github.com/redresslabs/redress/internal/store/postgres"
	xlsxstore "github.com/redresslabs/redress/internal/store/xlsx"
)

// App holds the shared, long-lived services for the application.
type App struct {
	cfg    config.Config
	logger *zap.Logger

	records  rights.RecordStore
	media    rights.MediaStore
	notifier rights.Notifier
	rotation *rotation.State

	hub      *progress.Hub
	activity *sinks.MemorySink

	gcsMedia   *gcsmedia.Store
	pubsubSend *pubsubnotify.Notifier
}

// Build assembles the container from configuration. Any failure here occurs
// before the first network collection, so it is reported as a setup failure
// and maps to exit code 2.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	a, err := build(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", rights.ErrSetup, err)
	}
	return a, nil
}

func build(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}
	zap.ReplaceGlobals(logger)
	metrics.Init()

	a := &App{cfg: cfg, logger: logger}
	if err := a.setupRecords(ctx); err != nil {
		return nil, err
	}
	if err := a.setupMedia(ctx); err != nil {
		return nil, err
	}
	if err := a.setupNotifier(ctx); err != nil {
		return nil, err
	}
	a.rotation, err = rotation.Load(cfg.StateFile())
	if err != nil {
		return nil, fmt.Errorf("rotation state init failed: %w", err)
	}
	a.setupProgress(ctx)

	logger.Info("application services initialized",
		zap.String("data_dir", cfg.DataDir),
		zap.String("store", cfg.Store.Provider),
		zap.String("media", cfg.Media.Provider),
	)
	return a, nil
}

// Logger returns the shared zap logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

func (a *App) setupRecords(ctx context.Context) error {
	switch a.cfg.Store.Provider {
	case "postgres":
		a.logger.Info("using postgres record store", zap.String("table", a.cfg.Store.Table))
		store, err := pgstore.New(ctx, pgstore.Config{
			DSN:   a.cfg.Store.DSN,
			Table: a.cfg.Store.Table,
		})
		if err != nil {
			return fmt.Errorf("record store init failed: %w", err)
		}
		a.records = store
	case "memory":
		a.logger.Info("using in-memory record store")
		a.records = memorystore.New()
	default:
		a.logger.Info("using xlsx record store", zap.String("dir", a.cfg.ExcelDir()))
		store, err := xlsxstore.New(xlsxstore.Config{BaseDir: a.cfg.ExcelDir()})
		if err != nil {
			return fmt.Errorf("record store init failed: %w", err)
		}
		a.records = store
	}
	return nil
}

func (a *App) setupMedia(ctx context.Context) error {
	switch a.cfg.Media.Provider {
	case "gcs":
		a.logger.Info("using GCS media store", zap.String("bucket", a.cfg.Media.GCSBucket))
		store, err := gcsmedia.Connect(ctx, gcsmedia.Config{
			Bucket: a.cfg.Media.GCSBucket,
			Prefix: a.cfg.Media.Prefix,
		})
		if err != nil {
			return fmt.Errorf("gcs media store init failed: %w", err)
		}
		a.gcsMedia = store
		a.media = store
	case "noop":
		a.logger.Info("using in-memory media store")
		a.media = memorymedia.New()
	default:
		a.logger.Info("using local media store", zap.String("dir", a.cfg.MediaDir()))
		store, err := localmedia.New(localmedia.Config{BaseDir: a.cfg.MediaDir()})
		if err != nil {
			return fmt.Errorf("local media store init failed: %w", err)
		}
		a.media = store
	}
	return nil
}

func (a *App) setupNotifier(ctx context.Context) error {
	if !a.cfg.PubSub.Enabled {
		a.logger.Info("run notifications retained in memory")
		a.notifier = memorynotify.New()
		return nil
	}
	notifier, err := pubsubnotify.Connect(ctx, a.cfg.PubSub.ProjectID, a.cfg.PubSub.TopicName)
	if err != nil {
		return fmt.Errorf("pubsub notifier init failed: %w", err)
	}
	a.logger.Info("pubsub notifier initialized",
		zap.String("project", a.cfg.PubSub.ProjectID),
		zap.String("topic", a.cfg.PubSub.TopicName),
	)
	a.pubsubSend = notifier
	a.notifier = notifier
	return nil
}

// The Prometheus sink registers process-global collectors, so it is built at
// most once even when tests construct several Apps.
var (
	promOnce sync.Once
	promSink *sinks.PrometheusSink
	promErr  error
)

func prometheusSink() (*sinks.PrometheusSink, error) {
	promOnce.Do(func() {
		promSink, promErr = sinks.NewPrometheusSink(prometheus.DefaultRegisterer)
	})
	return promSink, promErr
}

func (a *App) setupProgress(ctx context.Context) {
	a.activity = sinks.NewMemorySink(0)
	sinkList := []progress.Sink{
		sinks.NewLogSink(a.logger.Named("progress_log")),
		a.activity,
	}
	if sink, err := prometheusSink(); err == nil {
		sinkList = append(sinkList, sink)
	} else {
		a.logger.Warn("prometheus progress sink unavailable", zap.Error(err))
	}
	a.hub = progress.NewHub(progress.Config{
		BaseContext: ctx,
		Logger:      a.logger.Named("progress_hub"),
	}, sinkList...)
}

// Close flushes and releases everything Build opened.
func (a *App) Close(ctx context.Context) error {
	a.closeInfrastructure(ctx)
	a.closeObservability()
	a.logger.Info("shutdown complete")
	return nil
}

func (a *App) closeInfrastructure(ctx context.Context) {
	if a.hub != nil {
		if err := a.hub.Close(ctx); err != nil {
			a.logger.Warn("progress hub close failed", zap.Error(err))
		}
	}
	if a.pubsubSend != nil {
		if err := a.pubsubSend.Close(); err != nil {
			a.logger.Warn("pubsub notifier close failed", zap.Error(err))
		}
	}
	if a.records != nil {
		if err := a.records.Close(); err != nil {
			a.logger.Warn("record store close failed", zap.Error(err))
		}
	}
	if a.gcsMedia != nil {
		if err := a.gcsMedia.Close(); err != nil {
			a.logger.Warn("gcs media store close failed", zap.Error(err))
		}
	}
}

func (a *App) closeObservability() {
	if err := a.logger.Sync(); err != nil {
		a.logger.Warn("logger sync failed", zap.Error(err))
	}
}
