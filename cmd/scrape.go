package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/policylab/policyscrape/internal/api"
	"github.com/policylab/policyscrape/internal/archive"
	"github.com/policylab/policyscrape/internal/batch"
	"github.com/policylab/policyscrape/internal/clock/system"
	"github.com/policylab/policyscrape/internal/config"
	"github.com/policylab/policyscrape/internal/extract"
	collyfetcher "github.com/policylab/policyscrape/internal/fetcher/colly"
	"github.com/policylab/policyscrape/internal/hash/sha256"
	"github.com/policylab/policyscrape/internal/id/uuid"
	postgresindex "github.com/policylab/policyscrape/internal/index/postgres"
	"github.com/policylab/policyscrape/internal/logging"
	"github.com/policylab/policyscrape/internal/metrics"
	"github.com/policylab/policyscrape/internal/pipeline"
	"github.com/policylab/policyscrape/internal/policy"
	gcppublisher "github.com/policylab/policyscrape/internal/publisher/pubsub"
	"github.com/policylab/policyscrape/internal/renderer/headless"
	gcsstorage "github.com/policylab/policyscrape/internal/storage/gcs"
	localstorage "github.com/policylab/policyscrape/internal/storage/local"
	memorystorage "github.com/policylab/policyscrape/internal/storage/memory"
)

// newScrapeCmd creates and configures the 'scrape' subcommand.
func newScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape <urls-file>",
		Short: "Scrapes and archives the policies listed in a file",
		Long: `Reads one URL per line from the given file, fetches each policy,
runs the configured extractors, and writes a dated snapshot under the
output directory. URLs already scraped today are skipped unless --force
is set.`,
		Args: cobra.ExactArgs(1),
		RunE: runScrapeCommand,
	}

	flags := cmd.Flags()
	flags.StringP("output_dir", "o", ".", "directory snapshots are written under")
	flags.IntP("timeout", "t", 30, "per-URL fetch timeout in seconds")
	flags.BoolP("screenshot", "s", false, "capture a full-page screenshot")
	flags.StringSliceP("extractors", "e", []string{"text"}, "extractors to run over each page")
	flags.IntP("workers", "w", 1, "number of concurrent scrape workers")
	flags.BoolP("force", "f", false, "scrape even if a snapshot exists for today")
	flags.BoolP("raise_errors", "r", false, "abort the batch on the first per-URL failure")
	flags.BoolP("verbose", "v", true, "development-style logging")
	flags.String("metrics_addr", "", "address for the health/metrics listener (empty disables it)")

	for key, name := range map[string]string{
		"output.dir":             "output_dir",
		"scrape.timeout_seconds": "timeout",
		"scrape.screenshot":      "screenshot",
		"scrape.extractors":      "extractors",
		"scrape.workers":         "workers",
		"scrape.force":           "force",
		"scrape.raise_errors":    "raise_errors",
		"logging.development":    "verbose",
		"metrics.addr":           "metrics_addr",
	} {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}

	return cmd
}

func runScrapeCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush
	logging.L = logger

	urls, err := readURLFile(args[0])
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return fmt.Errorf("no URLs found in %s", args[0])
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()
	if cfg.Metrics.Addr != "" {
		srv := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           api.NewServer().Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if serveErr := srv.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
				logger.Warn("metrics listener failed", zap.Error(serveErr))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	store, err := archive.NewStore(cfg.Output.Dir, logger)
	if err != nil {
		return fmt.Errorf("init archive store: %w", err)
	}

	renderer, err := headless.New(headless.Config{
		MaxParallel: cfg.Renderer.MaxParallel,
		UserAgent:   cfg.Renderer.UserAgent,
		DomainQPS:   cfg.Renderer.DomainQPS,
	}, logger)
	if err != nil {
		return fmt.Errorf("init renderer: %w", err)
	}
	defer renderer.Close()

	static := collyfetcher.New(collyfetcher.Config{UserAgent: cfg.Renderer.UserAgent}, logger)

	deps := pipeline.Deps{
		Renderer: renderer,
		Static:   static,
		Registry: extract.Default(),
		Store:    store,
		Hasher:   sha256.New(),
		Clock:    system.New(),
		IDGen:    uuid.New(),
		Logger:   logger,
	}

	if mirror, mirrorErr := buildMirror(ctx, cfg, logger); mirrorErr != nil {
		return mirrorErr
	} else if mirror != nil {
		deps.Mirror = mirror
	}

	if cfg.PubSub.Topic != "" {
		publisher, pubErr := gcppublisher.New(ctx, cfg.PubSub.ProjectID, cfg.PubSub.Topic)
		if pubErr != nil {
			return fmt.Errorf("init publisher: %w", pubErr)
		}
		defer func() {
			if closeErr := publisher.Close(); closeErr != nil {
				logger.Warn("close publisher", zap.Error(closeErr))
			}
		}()
		deps.Publisher = publisher
		deps.Topic = cfg.PubSub.Topic
	}

	if cfg.Index.DSN != "" {
		index, idxErr := postgresindex.NewSnapshotStore(ctx, postgresindex.SnapshotStoreConfig{
			DSN:   cfg.Index.DSN,
			Table: cfg.Index.Table,
		})
		if idxErr != nil {
			return fmt.Errorf("init snapshot index: %w", idxErr)
		}
		defer index.Close()
		deps.Index = index
	}

	pipe, err := pipeline.New(deps)
	if err != nil {
		return fmt.Errorf("init pipeline: %w", err)
	}

	runner := batch.New(pipe, uuid.New(), logger)
	opts := pipeline.Options{
		Screenshot:   cfg.Scrape.Screenshot,
		Timeout:      cfg.Scrape.Timeout,
		Extractors:   cfg.Scrape.Extractors,
		Force:        cfg.Scrape.Force,
		StrictErrors: cfg.Scrape.RaiseErrors,
	}

	started := time.Now()
	records, runErr := runner.Run(ctx, urls, cfg.Scrape.Workers, opts)
	logSummary(logger, records, time.Since(started))

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("run batch: %w", runErr)
	}
	return nil
}

func buildMirror(ctx context.Context, cfg config.Config, logger *zap.Logger) (policy.BlobStore, error) {
	switch cfg.Mirror.Backend {
	case "":
		return nil, nil
	case "memory":
		return memorystorage.New(), nil
	case "local":
		mirror, err := localstorage.New(localstorage.Config{BaseDir: cfg.Mirror.BaseDir})
		if err != nil {
			return nil, fmt.Errorf("init local mirror: %w", err)
		}
		return mirror, nil
	case "gcs":
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("init gcs client: %w", err)
		}
		mirror, err := gcsstorage.New(client, gcsstorage.Config{Bucket: cfg.Mirror.Bucket})
		if err != nil {
			return nil, fmt.Errorf("init gcs mirror: %w", err)
		}
		logger.Info("mirroring snapshots to gcs", zap.String("bucket", cfg.Mirror.Bucket))
		return mirror, nil
	default:
		return nil, fmt.Errorf("unknown mirror backend %q", cfg.Mirror.Backend)
	}
}

// readURLFile loads one URL per line, ignoring blanks and # comments.
func readURLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open url file: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read url file: %w", err)
	}
	return urls, nil
}

func logSummary(logger *zap.Logger, records []policy.Record, elapsed time.Duration) {
	counts := make(map[policy.State]int)
	for _, rec := range records {
		counts[rec.State]++
	}
	logger.Info("batch finished",
		zap.Int("urls", len(records)),
		zap.Int("persisted", counts[policy.StatePersisted]),
		zap.Int("skipped", counts[policy.StateSkipped]),
		zap.Int("failed", counts[policy.StateFailed]),
		zap.Duration("elapsed", elapsed),
	)
}
