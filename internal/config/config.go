// Package config loads and validates collector configuration via Viper.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	DataDir  string         `mapstructure:"data_dir"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Server   ServerConfig   `mapstructure:"server"`
	Collect  CollectConfig  `mapstructure:"collect"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Platform PlatformConfig `mapstructure:"platform"`
	Store    StoreConfig    `mapstructure:"store"`
	Media    MediaConfig    `mapstructure:"media"`
	PubSub   PubSubConfig   `mapstructure:"pubsub"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// ServerConfig controls the ops HTTP server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// CollectConfig governs the per-run collection pipeline.
type CollectConfig struct {
	KeywordsPerRun        int  `mapstructure:"keywords_per_run"`
	PageLimit             int  `mapstructure:"page_limit"`
	SearchIntervalSeconds int  `mapstructure:"search_interval_seconds"`
	CategoryPauseSeconds  int  `mapstructure:"category_pause_seconds"`
	KeywordTimeoutSeconds int  `mapstructure:"keyword_timeout_seconds"`
	MediaEnabled          bool `mapstructure:"media_enabled"`
	MediaMaxMB            int  `mapstructure:"media_max_mb"`
}

// ScheduleConfig sets the daily run time for schedule mode.
type ScheduleConfig struct {
	At string `mapstructure:"at"`
}

// PlatformConfig configures the crawler service client.
type PlatformConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	Cookie         string `mapstructure:"cookie"`
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// StoreConfig selects and configures the record store backend.
type StoreConfig struct {
	Provider string `mapstructure:"provider"`
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
}

// MediaConfig selects and configures the media blob backend.
type MediaConfig struct {
	Provider  string `mapstructure:"provider"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// PubSubConfig holds metadata for run summary notifications.
type PubSubConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// AnalysisConfig bounds the analyzer output tables.
type AnalysisConfig struct {
	TopKeywords   int `mapstructure:"top_keywords"`
	TopAuthors    int `mapstructure:"top_authors"`
	TopPosts      int `mapstructure:"top_posts"`
	MinTokenRunes int `mapstructure:"min_token_runes"`
}

// Load builds a Config from disk/environment. A .env file in the working
// directory is folded into the environment first; its absence is fine.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("REDRESS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "./data")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("server.port", 8080)
	v.SetDefault("collect.keywords_per_run", 5)
	v.SetDefault("collect.page_limit", 20)
	v.SetDefault("collect.search_interval_seconds", 15)
	v.SetDefault("collect.category_pause_seconds", 45)
	v.SetDefault("collect.keyword_timeout_seconds", 120)
	v.SetDefault("collect.media_enabled", true)
	v.SetDefault("collect.media_max_mb", 32)
	v.SetDefault("schedule.at", "03:00")
	v.SetDefault("platform.user_agent", "redress-collector/0.1")
	v.SetDefault("platform.timeout_seconds", 20)
	v.SetDefault("store.provider", "xlsx")
	v.SetDefault("store.table", "posts")
	v.SetDefault("media.provider", "local")
	v.SetDefault("media.prefix", "media")
	v.SetDefault("analysis.top_keywords", 100)
	v.SetDefault("analysis.top_authors", 50)
	v.SetDefault("analysis.top_posts", 10)
	v.SetDefault("analysis.min_token_runes", 2)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must be set")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Collect.KeywordsPerRun <= 0 {
		return fmt.Errorf("collect.keywords_per_run must be > 0")
	}
	if c.Collect.KeywordTimeoutSeconds <= 0 {
		return fmt.Errorf("collect.keyword_timeout_seconds must be > 0")
	}
	if c.Platform.TimeoutSeconds <= 0 {
		return fmt.Errorf("platform.timeout_seconds must be > 0")
	}
	if _, _, err := c.ScheduleAt(); err != nil {
		return err
	}
	switch c.Store.Provider {
	case "xlsx", "memory":
	case "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn must be set when store.provider is postgres")
		}
	default:
		return fmt.Errorf("unknown store.provider %q", c.Store.Provider)
	}
	switch c.Media.Provider {
	case "local", "noop":
	case "gcs":
		if c.Media.GCSBucket == "" {
			return fmt.Errorf("media.gcs_bucket must be set when media.provider is gcs")
		}
	default:
		return fmt.Errorf("unknown media.provider %q", c.Media.Provider)
	}
	if c.PubSub.Enabled && (c.PubSub.ProjectID == "" || c.PubSub.TopicName == "") {
		return fmt.Errorf("pubsub.project_id and pubsub.topic_name must be set when pubsub is enabled")
	}
	if c.Analysis.MinTokenRunes < 1 {
		return fmt.Errorf("analysis.min_token_runes must be >= 1")
	}
	return nil
}

// ScheduleAt parses schedule.at into an hour/minute pair.
func (c Config) ScheduleAt() (hour, minute int, err error) {
	at, err := time.Parse("15:04", c.Schedule.At)
	if err != nil {
		return 0, 0, fmt.Errorf("schedule.at must be HH:MM: %w", err)
	}
	return at.Hour(), at.Minute(), nil
}

// KeywordTimeout converts the per-keyword limit into a duration.
func (c Config) KeywordTimeout() time.Duration {
	return time.Duration(c.Collect.KeywordTimeoutSeconds) * time.Second
}

// SearchInterval is the politeness spacing between keyword searches.
func (c Config) SearchInterval() time.Duration {
	return time.Duration(c.Collect.SearchIntervalSeconds) * time.Second
}

// CategoryPause is the spacing between category passes within a run.
func (c Config) CategoryPause() time.Duration {
	return time.Duration(c.Collect.CategoryPauseSeconds) * time.Second
}

// Paths derived from the data root. Every artifact the system writes lives
// under one of these.

// ExcelDir is the root of the per-category record tree.
func (c Config) ExcelDir() string { return filepath.Join(c.DataDir, "excel") }

// MediaDir is the root of the per-category media tree.
func (c Config) MediaDir() string { return filepath.Join(c.DataDir, "media") }

// StateFile holds the keyword rotation cursors.
func (c Config) StateFile() string { return filepath.Join(c.DataDir, "state", "rotation.json") }

// RunsDir holds per-run summary files.
func (c Config) RunsDir() string { return filepath.Join(c.DataDir, "runs") }

// AnalysisDir is the root for report bundles.
func (c Config) AnalysisDir() string { return filepath.Join(c.DataDir, "analysis") }
