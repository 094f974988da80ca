package archive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/policylab/policyscrape/internal/policy"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), nil)
	require.NoError(t, err)
	return store
}

func TestPersistWritesArtifacts(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	snap := Snapshot{
		URL:         "https://example.com/privacy",
		ContentType: "html",
		Markup:      "<html><body>policy</body></html>",
		Screenshot:  []byte{0x89, 0x50, 0x4e, 0x47},
		Content:     policy.ExtractedContent{{Name: "text", Value: "policy"}},
		Extractors:  []string{"text"},
		ContentHash: "abc123",
	}

	files, err := store.Persist("example_com_0123456789", "20260824", snap)
	require.NoError(t, err)

	wantExts := []string{".html", ".png", ".json", ".meta"}
	require.Len(t, files, len(wantExts))
	for i, ext := range wantExts {
		require.Equal(t, "20260824"+ext, filepath.Base(files[i]))
		_, statErr := os.Stat(files[i])
		require.NoError(t, statErr)
	}

	meta, err := store.ReadMetadata("example_com_0123456789", "20260824")
	require.NoError(t, err)
	require.Equal(t, snap.URL, meta.URL)
	require.Equal(t, "20260824", meta.ScrapedAt)
	require.Equal(t, []string{"text"}, meta.Extractors)
	require.Equal(t, "abc123", meta.ContentSHA256)
}

func TestPersistPDFKeepsRawBody(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	snap := Snapshot{
		URL:         "https://example.com/privacy.pdf",
		ContentType: "pdf",
		Raw:         []byte("%PDF-1.7 fake"),
	}

	files, err := store.Persist("example_com_abcdef0123", "20260824", snap)
	require.NoError(t, err)
	require.Len(t, files, 2)
	require.Equal(t, "20260824.pdf", filepath.Base(files[0]))
	require.Equal(t, "20260824.meta", filepath.Base(files[1]))
}

func TestExistsMatchesDateOnly(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	key := "example_com_0011223344"
	_, err := store.Persist(key, "20260823", Snapshot{Markup: "<html></html>"})
	require.NoError(t, err)

	require.True(t, store.Exists(key, "20260823"))
	require.False(t, store.Exists(key, "20260824"))
	require.False(t, store.Exists("other_key_0000000000", "20260823"))
}

func TestShouldScrape(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	key := "example_com_5566778899"
	require.True(t, store.ShouldScrape(key, "20260824", false))

	_, err := store.Persist(key, "20260824", Snapshot{Markup: "<html></html>"})
	require.NoError(t, err)

	require.False(t, store.ShouldScrape(key, "20260824", false))
	require.True(t, store.ShouldScrape(key, "20260824", true), "force must always scrape")
	require.True(t, store.ShouldScrape(key, "20260825", false), "a new day must scrape")
}

func TestLatestTextPicksNewestSnapshot(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	key := "example_com_aabbccddee"
	for _, day := range []struct{ date, text string }{
		{"20260101", "old text"},
		{"20261231", "new text"},
		{"20260615", "middle text"},
	} {
		_, err := store.Persist(key, day.date, Snapshot{
			Content: policy.ExtractedContent{{Name: "text", Value: day.text}},
		})
		require.NoError(t, err)
	}

	date, text, ok := store.LatestText(key)
	require.True(t, ok)
	require.Equal(t, "20261231", date)
	require.Equal(t, "new text", text)
}

func TestLatestTextMissing(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	_, _, ok := store.LatestText("never_seen_0000000000")
	require.False(t, ok)

	// A snapshot with no content file has no text to compare against.
	_, err := store.Persist("no_content_0000000000", "20260824", Snapshot{Markup: "<html></html>"})
	require.NoError(t, err)
	_, _, ok = store.LatestText("no_content_0000000000")
	require.False(t, ok)
}
