// Package postgres provides the Postgres-backed snapshot index.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/policylab/policyscrape/internal/policy"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// SnapshotStoreConfig controls the Postgres connection pool.
type SnapshotStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// SnapshotStore writes one row per persisted snapshot so researchers can
// query the archive with SQL.
type SnapshotStore struct {
	pool  execCloser
	table string
}

// NewSnapshotStore connects a store using the provided config.
func NewSnapshotStore(ctx context.Context, cfg SnapshotStoreConfig) (*SnapshotStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("index.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "snapshots"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &SnapshotStore{pool: pool, table: table}, nil
}

// NewSnapshotStoreWithPool constructs a store from an existing pool
// (primarily for testing).
func NewSnapshotStoreWithPool(pool execCloser, table string) (*SnapshotStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "snapshots"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &SnapshotStore{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *SnapshotStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// StoreSnapshot inserts one snapshot row.
func (s *SnapshotStore) StoreSnapshot(ctx context.Context, rec policy.SnapshotRecord) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("snapshot index is not configured")
	}
	if rec.ID == "" {
		return fmt.Errorf("snapshot id is required")
	}
	extractorsJSON, err := json.Marshal(stringSliceOrEmpty(rec.Extractors))
	if err != nil {
		return fmt.Errorf("marshal extractors: %w", err)
	}
	filesJSON, err := json.Marshal(stringSliceOrEmpty(rec.Files))
	if err != nil {
		return fmt.Errorf("marshal files: %w", err)
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	batch_id,
	url,
	archive_key,
	scraped_at,
	content_type,
	content_sha256,
	extractors,
	files,
	recorded_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10
)`, s.table)

	args := []any{
		rec.ID,
		rec.BatchID,
		rec.URL,
		rec.ArchiveKey,
		rec.ScrapedAt,
		rec.ContentType,
		rec.ContentHash,
		extractorsJSON,
		filesJSON,
		rec.RecordedAt,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

func stringSliceOrEmpty(values []string) []string {
	if len(values) == 0 {
		return []string{}
	}
	return values
}
