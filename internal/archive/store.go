// Package archive manages the on-disk snapshot layout: one directory per
// archive key, one dated file set per UTC scrape day.
package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/policylab/policyscrape/internal/policy"
)

// Metadata is the sidecar record written alongside every snapshot.
type Metadata struct {
	URL           string   `json:"url"`
	ArchiveKey    string   `json:"archive_key"`
	ScrapedAt     string   `json:"scraped_at"`
	ContentType   string   `json:"content_type"`
	Extractors    []string `json:"extractors"`
	ContentSHA256 string   `json:"content_sha256,omitempty"`
}

// Snapshot is the set of artifacts persisted for one archive key on one day.
type Snapshot struct {
	URL         string
	ContentType string
	Markup      string
	Raw         []byte
	Screenshot  []byte
	Content     policy.ExtractedContent
	Extractors  []string
	ContentHash string
}

// Store implements the dated snapshot archive under a root directory.
type Store struct {
	root   string
	logger *zap.Logger
}

// NewStore creates the root directory if needed and returns a Store.
func NewStore(root string, logger *zap.Logger) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("archive root is required")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, &policy.StorageError{Op: "mkdir", Path: root, Err: err}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{root: root, logger: logger}, nil
}

// Root returns the archive root directory.
func (s *Store) Root() string { return s.root }

// Exists reports whether any snapshot file for the given date is already
// present under the archive key.
func (s *Store) Exists(key, date string) bool {
	entries, err := os.ReadDir(filepath.Join(s.root, key))
	if err != nil {
		return false
	}
	prefix := date + "."
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), prefix) {
			return true
		}
	}
	return false
}

// ShouldScrape is the sole staleness policy: scrape when forced, or when no
// snapshot exists yet for the given calendar date.
func (s *Store) ShouldScrape(key, date string, force bool) bool {
	return force || !s.Exists(key, date)
}

// Persist writes the snapshot's artifacts and returns the paths written. The
// metadata file goes last, so it never claims success for missing content.
// A same-date persist overwrites the previous files.
func (s *Store) Persist(key, date string, snap Snapshot) ([]string, error) {
	dir := filepath.Join(s.root, key)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, &policy.StorageError{Op: "mkdir", Path: dir, Err: err}
	}

	var written []string
	write := func(ext string, data []byte) error {
		target := filepath.Join(dir, date+ext)
		if err := os.WriteFile(target, data, 0o600); err != nil {
			return &policy.StorageError{Op: "write", Path: target, Err: err}
		}
		written = append(written, target)
		return nil
	}

	if snap.Markup != "" {
		if err := write(".html", []byte(snap.Markup)); err != nil {
			return nil, err
		}
	}
	if snap.ContentType == "pdf" && len(snap.Raw) > 0 {
		if err := write(".pdf", snap.Raw); err != nil {
			return nil, err
		}
	}
	if snap.ContentType == "plain" && len(snap.Raw) > 0 {
		if err := write(".txt", snap.Raw); err != nil {
			return nil, err
		}
	}
	if len(snap.Screenshot) > 0 {
		if err := write(".png", snap.Screenshot); err != nil {
			return nil, err
		}
	}
	if len(snap.Content) > 0 {
		payload, err := json.MarshalIndent(snap.Content, "", "  ")
		if err != nil {
			return nil, &policy.StorageError{Op: "marshal", Path: dir, Err: err}
		}
		if err := write(".json", payload); err != nil {
			return nil, err
		}
	}

	meta := Metadata{
		URL:           snap.URL,
		ArchiveKey:    key,
		ScrapedAt:     date,
		ContentType:   snap.ContentType,
		Extractors:    snap.Extractors,
		ContentSHA256: snap.ContentHash,
	}
	payload, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, &policy.StorageError{Op: "marshal", Path: dir, Err: err}
	}
	if err := write(".meta", payload); err != nil {
		return nil, err
	}

	s.logger.Debug("snapshot persisted",
		zap.String("archive_key", key),
		zap.String("date", date),
		zap.Int("files", len(written)),
	)
	return written, nil
}

// ReadMetadata loads the metadata sidecar for one snapshot.
func (s *Store) ReadMetadata(key, date string) (Metadata, error) {
	target := filepath.Join(s.root, key, date+".meta")
	data, err := os.ReadFile(target)
	if err != nil {
		return Metadata{}, &policy.StorageError{Op: "read", Path: target, Err: err}
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}, &policy.StorageError{Op: "decode", Path: target, Err: err}
	}
	return meta, nil
}

// LatestText returns the "text" field of the newest stored content file for
// the key, with its date. ok is false when no usable content exists.
func (s *Store) LatestText(key string) (date string, text string, ok bool) {
	dir := filepath.Join(s.root, key)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", "", false
	}
	var dates []string
	for _, entry := range entries {
		if name, found := strings.CutSuffix(entry.Name(), ".json"); found {
			dates = append(dates, name)
		}
	}
	if len(dates) == 0 {
		return "", "", false
	}
	// Snapshot names are YYYYMMDD, so lexical order is date order.
	sort.Strings(dates)
	latest := dates[len(dates)-1]

	data, err := os.ReadFile(filepath.Join(dir, latest+".json"))
	if err != nil {
		return "", "", false
	}
	var content map[string]any
	if err := json.Unmarshal(data, &content); err != nil {
		s.logger.Warn("unreadable content file",
			zap.String("archive_key", key),
			zap.String("date", latest),
			zap.Error(err),
		)
		return "", "", false
	}
	value, found := content["text"].(string)
	if !found {
		return "", "", false
	}
	return latest, value, true
}
