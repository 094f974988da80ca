// Package config loads and validates scraper configuration via Viper.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Output   OutputConfig
	Scrape   ScrapeConfig
	Renderer RendererConfig
	Mirror   MirrorConfig
	PubSub   PubSubConfig
	Index    IndexConfig
	Metrics  MetricsConfig
	Logging  LoggingConfig
}

// OutputConfig sets where snapshots land on disk.
type OutputConfig struct {
	Dir string
}

// ScrapeConfig governs per-batch scraping behavior.
type ScrapeConfig struct {
	Timeout     time.Duration
	Screenshot  bool
	Extractors  []string
	Workers     int
	Force       bool
	RaiseErrors bool
}

// RendererConfig configures the headless rendering subsystem.
type RendererConfig struct {
	UserAgent   string
	MaxParallel int
	DomainQPS   float64
}

// MirrorConfig selects an optional blob mirror backend.
type MirrorConfig struct {
	Backend string
	Bucket  string
	BaseDir string
}

// PubSubConfig holds metadata for snapshot event publishing.
type PubSubConfig struct {
	ProjectID string
	Topic     string
}

// IndexConfig controls the optional Postgres snapshot index.
type IndexConfig struct {
	DSN   string
	Table string
}

// MetricsConfig sets the operational HTTP listener address.
type MetricsConfig struct {
	Addr string
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool
}

// Load constructs a Config by reading from Viper.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Output: OutputConfig{
			Dir: v.GetString("output.dir"),
		},
		Scrape: ScrapeConfig{
			Timeout:     time.Duration(v.GetInt("scrape.timeout_seconds")) * time.Second,
			Screenshot:  v.GetBool("scrape.screenshot"),
			Extractors:  v.GetStringSlice("scrape.extractors"),
			Workers:     v.GetInt("scrape.workers"),
			Force:       v.GetBool("scrape.force"),
			RaiseErrors: v.GetBool("scrape.raise_errors"),
		},
		Renderer: RendererConfig{
			UserAgent:   v.GetString("renderer.user_agent"),
			MaxParallel: v.GetInt("renderer.max_parallel"),
			DomainQPS:   v.GetFloat64("renderer.domain_qps"),
		},
		Mirror: MirrorConfig{
			Backend: v.GetString("mirror.backend"),
			Bucket:  v.GetString("mirror.bucket"),
			BaseDir: v.GetString("mirror.base_dir"),
		},
		PubSub: PubSubConfig{
			ProjectID: v.GetString("pubsub.project_id"),
			Topic:     v.GetString("pubsub.topic"),
		},
		Index: IndexConfig{
			DSN:   v.GetString("index.dsn"),
			Table: v.GetString("index.table"),
		},
		Metrics: MetricsConfig{
			Addr: v.GetString("metrics.addr"),
		},
		Logging: LoggingConfig{
			Development: v.GetBool("logging.development"),
		},
	}
	return cfg, cfg.Validate()
}

// Validate checks for obviously bad configuration combinations.
func (c Config) Validate() error {
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir must be set")
	}
	if c.Scrape.Timeout <= 0 {
		return fmt.Errorf("scrape.timeout_seconds must be > 0")
	}
	if len(c.Scrape.Extractors) == 0 {
		return fmt.Errorf("scrape.extractors must include at least one extractor")
	}
	if c.Scrape.Workers <= 0 {
		return fmt.Errorf("scrape.workers must be > 0")
	}
	if c.Renderer.UserAgent == "" {
		return fmt.Errorf("renderer.user_agent must be set")
	}
	if c.Renderer.MaxParallel <= 0 {
		return fmt.Errorf("renderer.max_parallel must be > 0")
	}
	if c.Renderer.DomainQPS < 0 {
		return fmt.Errorf("renderer.domain_qps must be >= 0")
	}
	switch c.Mirror.Backend {
	case "", "memory":
	case "local":
		if c.Mirror.BaseDir == "" {
			return fmt.Errorf("mirror.base_dir must be set for the local backend")
		}
	case "gcs":
		if c.Mirror.Bucket == "" {
			return fmt.Errorf("mirror.bucket must be set for the gcs backend")
		}
	default:
		return fmt.Errorf("unknown mirror backend %q", c.Mirror.Backend)
	}
	if c.PubSub.Topic != "" && c.PubSub.ProjectID == "" {
		return fmt.Errorf("pubsub.project_id must be set when pubsub.topic is set")
	}
	if c.Index.DSN != "" && c.Index.Table == "" {
		return fmt.Errorf("index.table must be set when index.dsn is set")
	}
	return nil
}
