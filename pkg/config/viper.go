// Package config initializes the application's configuration. It uses Viper
// to merge settings from a config file, environment variables, and
// command-line flags into a single view.
package config

import (
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/policylab/policyscrape/internal/logging"
)

// InitConfig sets search paths, defaults, and environment bindings. It is
// designed to be called once at startup, before any config keys are read.
func InitConfig() {
	viper.SetConfigName("config")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/policyscrape/")
	viper.AddConfigPath("$HOME/.policyscrape")

	const defaultUA = "PolicyScrape/1.0 (+https://github.com/policylab/policyscrape)"
	viper.SetDefault("output.dir", ".")
	viper.SetDefault("scrape.timeout_seconds", 30)
	viper.SetDefault("scrape.screenshot", false)
	viper.SetDefault("scrape.extractors", []string{"text"})
	viper.SetDefault("scrape.workers", 1)
	viper.SetDefault("scrape.force", false)
	viper.SetDefault("scrape.raise_errors", false)

	viper.SetDefault("renderer.user_agent", defaultUA)
	viper.SetDefault("renderer.max_parallel", 2)
	viper.SetDefault("renderer.domain_qps", 0.5)

	viper.SetDefault("mirror.backend", "")
	viper.SetDefault("mirror.bucket", "")
	viper.SetDefault("mirror.base_dir", "")

	viper.SetDefault("pubsub.project_id", "")
	viper.SetDefault("pubsub.topic", "")

	viper.SetDefault("index.dsn", "")
	viper.SetDefault("index.table", "snapshots")

	viper.SetDefault("metrics.addr", "")
	viper.SetDefault("logging.development", true)

	viper.SetEnvPrefix("POLICYSCRAPE") // e.g. POLICYSCRAPE_SCRAPE_WORKERS=8
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logging.L.Debug("config file not found; using defaults and environment")
		} else {
			logging.L.Error("error reading config file", zap.Error(err))
		}
	} else {
		logging.L.Info("using config file", zap.String("path", viper.ConfigFileUsed()))
	}
}
