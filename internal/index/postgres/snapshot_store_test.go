package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/policylab/policyscrape/internal/policy"
)

func TestStoreSnapshotInsertsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewSnapshotStoreWithPool(mock, "snapshots")
	require.NoError(t, err)

	now := time.Unix(1700000000, 0).UTC()
	rec := policy.SnapshotRecord{
		ID:          "uuid-v7",
		BatchID:     "batch-1",
		URL:         "https://example.com/privacy",
		ArchiveKey:  "example_com_0123456789",
		ScrapedAt:   "20260824",
		ContentType: "html",
		ContentHash: "abc123",
		Extractors:  []string{"text", "keywords"},
		Files:       []string{"20260824.html", "20260824.json", "20260824.meta"},
		RecordedAt:  now,
	}

	mock.ExpectExec("INSERT INTO snapshots").
		WithArgs(
			rec.ID,
			rec.BatchID,
			rec.URL,
			rec.ArchiveKey,
			rec.ScrapedAt,
			rec.ContentType,
			rec.ContentHash,
			[]byte(`["text","keywords"]`),
			[]byte(`["20260824.html","20260824.json","20260824.meta"]`),
			rec.RecordedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = store.StoreSnapshot(context.Background(), rec)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreSnapshotRequiresID(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewSnapshotStoreWithPool(mock, "snapshots")
	require.NoError(t, err)

	err = store.StoreSnapshot(context.Background(), policy.SnapshotRecord{})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewSnapshotStoreWithPoolValidatesTable(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewSnapshotStoreWithPool(mock, "snapshots; DROP TABLE users")
	require.Error(t, err)
}
