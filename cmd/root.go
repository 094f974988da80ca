// Package cmd defines the CLI commands for the policyscrape executable.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/policylab/policyscrape/internal/logging"
	"github.com/policylab/policyscrape/pkg/config"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policyscrape",
		Short: "A scraper and archiver for privacy policy pages.",
		Long: `policyscrape fetches privacy policy pages with a headless browser,
runs pluggable content extractors over the rendered markup, and archives
one dated snapshot per page per day.`,
	}

	cobra.OnInitialize(func() {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		}
		config.InitConfig()
	})

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	cmd.AddCommand(newScrapeCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := logging.InitLogger(true); err != nil {
		panic(err)
	}
	if err := newRootCmd().Execute(); err != nil {
		logging.L.Fatal("command execution failed", zap.Error(err))
	}
}
