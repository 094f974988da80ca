// Package pipeline runs one policy URL through classify, fetch, extract and
// persist, producing an immutable record per run.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/policylab/policyscrape/internal/archive"
	"github.com/policylab/policyscrape/internal/clock/system"
	"github.com/policylab/policyscrape/internal/extract"
	"github.com/policylab/policyscrape/internal/metrics"
	"github.com/policylab/policyscrape/internal/policy"
)

// Options enumerates the per-run knobs mapped from the command surface.
type Options struct {
	Screenshot bool
	Timeout    time.Duration
	Extractors []string
	Force      bool
	// StrictErrors propagates per-URL fetch/parse failures instead of
	// converting them into FAILED records.
	StrictErrors bool
	// BatchID tags log fields and snapshot events for one batch run.
	BatchID string
}

// Deps wires the pipeline's collaborators. Renderer and Store are required;
// Static, Mirror, Publisher and Index are optional.
type Deps struct {
	Renderer  policy.Renderer
	Static    policy.Renderer
	Registry  *extract.Registry
	Store     *archive.Store
	Hasher    policy.Hasher
	Clock     policy.Clock
	IDGen     policy.IDGenerator
	Mirror    policy.BlobStore
	Publisher policy.Publisher
	Topic     string
	Index     policy.SnapshotIndex
	Logger    *zap.Logger
}

// Pipeline executes the per-URL state machine.
type Pipeline struct {
	deps   Deps
	logger *zap.Logger
}

// New constructs a Pipeline.
func New(deps Deps) (*Pipeline, error) {
	if deps.Renderer == nil {
		return nil, fmt.Errorf("renderer is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("archive store is required")
	}
	if deps.Registry == nil {
		deps.Registry = extract.Default()
	}
	if deps.Clock == nil {
		deps.Clock = system.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Pipeline{deps: deps, logger: deps.Logger}, nil
}

// Run takes one URL to a terminal state. The returned error is non-nil only
// when the batch must stop: storage failures, unknown extractors, and (under
// strict mode) fetch and parse failures. All other failures end as a FAILED
// record with a nil error.
func (p *Pipeline) Run(ctx context.Context, rawURL string, opts Options) (policy.Record, error) {
	rec := policy.NewRecord(rawURL)
	info := policy.Classify(rawURL)
	rec = rec.WithInfo(info)

	key := info.ArchiveKey()
	date := p.deps.Clock.Today()
	log := p.logger.With(
		zap.String("url", rawURL),
		zap.String("archive_key", key),
		zap.String("batch_id", opts.BatchID),
	)

	if !p.deps.Store.ShouldScrape(key, date, opts.Force) {
		log.Warn("already scraped today, skipping")
		metrics.ObserveSnapshot("skipped")
		return rec.Skipped("already scraped today"), nil
	}

	page, err := p.fetch(ctx, info, opts)
	if err != nil {
		return p.failURL(rec, log, err, opts)
	}
	rec = rec.WithPage(page)

	content, err := p.deps.Registry.Run(opts.Extractors, page.Markup)
	if err != nil {
		var parseErr *policy.ParseError
		if errors.As(err, &parseErr) {
			return p.failURL(rec, log, err, opts)
		}
		// Unknown extractor names are a configuration error, not a
		// per-URL condition.
		metrics.ObserveSnapshot("failed")
		return rec.Failed(err), err
	}
	rec = rec.WithContent(content)

	if !opts.Force {
		// An empty extraction (PDFs, image-only pages) says nothing about
		// whether the document changed, so it never counts as "unchanged".
		if prevDate, prevText, ok := p.deps.Store.LatestText(key); ok && prevText != "" {
			if newText, found := content.Get("text"); found {
				if text, isString := newText.(string); isString && text == prevText {
					log.Warn("policy unchanged, skipping", zap.String("since", prevDate))
					metrics.ObserveSnapshot("skipped")
					return rec.Skipped(fmt.Sprintf("unchanged since %s", prevDate)), nil
				}
			}
		}
	}

	snap := archive.Snapshot{
		URL:         rawURL,
		ContentType: p.contentType(info, page),
		Markup:      page.Markup,
		Raw:         page.Raw,
		Screenshot:  page.Screenshot,
		Content:     content,
		Extractors:  opts.Extractors,
		ContentHash: p.contentHash(page),
	}
	files, err := p.deps.Store.Persist(key, date, snap)
	if err != nil {
		log.Error("persist failed", zap.Error(err))
		metrics.ObserveSnapshot("failed")
		return rec.Failed(err), err
	}
	rec = rec.WithSaved(files)
	log.Info("snapshot saved", zap.Int("files", len(files)), zap.String("date", date))
	metrics.ObserveSnapshot("persisted")

	p.afterPersist(ctx, log, rec, key, date, snap, files, opts)
	return rec, nil
}

func (p *Pipeline) fetch(ctx context.Context, info policy.UrlInfo, opts Options) (policy.RenderedPage, error) {
	renderer := p.deps.Renderer
	req := policy.FetchRequest{URL: info.URL, Timeout: opts.Timeout, Screenshot: opts.Screenshot}
	if info.ContentType != "html" && p.deps.Static != nil {
		// PDF and plain-text documents bypass the browser.
		renderer = p.deps.Static
		req.Screenshot = false
	}
	start := time.Now()
	page, err := renderer.Fetch(ctx, req)
	if err != nil {
		var netErr *policy.NetworkError
		if !errors.As(err, &netErr) {
			err = &policy.NetworkError{URL: info.URL, Err: err}
		}
		return policy.RenderedPage{}, err
	}
	metrics.ObserveFetchDuration(p.contentType(info, page), time.Since(start))
	return page, nil
}

// failURL converts a fetch or parse failure into a FAILED record, or
// propagates it under strict mode.
func (p *Pipeline) failURL(rec policy.Record, log *zap.Logger, err error, opts Options) (policy.Record, error) {
	metrics.ObserveSnapshot("failed")
	if opts.StrictErrors {
		return rec.Failed(err), err
	}
	log.Warn("scrape failed, skipping", zap.Error(err))
	return rec.Failed(err), nil
}

func (p *Pipeline) contentType(info policy.UrlInfo, page policy.RenderedPage) string {
	if page.ContentType != "" {
		return page.ContentType
	}
	return info.ContentType
}

func (p *Pipeline) contentHash(page policy.RenderedPage) string {
	if p.deps.Hasher == nil {
		return ""
	}
	data := []byte(page.Markup)
	if len(data) == 0 {
		data = page.Raw
	}
	if len(data) == 0 {
		return ""
	}
	digest, err := p.deps.Hasher.Hash(data)
	if err != nil {
		return ""
	}
	return digest
}

// afterPersist runs the best-effort hooks: blob mirror, event publish,
// snapshot index. Their failures are logged and never change the record.
func (p *Pipeline) afterPersist(
	ctx context.Context,
	log *zap.Logger,
	rec policy.Record,
	key string,
	date string,
	snap archive.Snapshot,
	files []string,
	opts Options,
) {
	if p.deps.Mirror != nil {
		for _, file := range files {
			data, err := os.ReadFile(file)
			if err != nil {
				log.Warn("mirror read failed", zap.String("file", file), zap.Error(err))
				continue
			}
			objectPath := key + "/" + filepath.Base(file)
			if _, err := p.deps.Mirror.PutObject(ctx, objectPath, mirrorContentType(file), bytes.NewReader(data)); err != nil {
				log.Warn("mirror upload failed", zap.String("file", file), zap.Error(err))
			}
		}
	}

	if p.deps.Publisher != nil && p.deps.Topic != "" {
		payload := map[string]any{
			"url":          rec.URL,
			"archive_key":  key,
			"date":         date,
			"files":        baseNames(files),
			"batch_id":     opts.BatchID,
			"content_hash": snap.ContentHash,
		}
		if _, err := p.deps.Publisher.Publish(ctx, p.deps.Topic, payload); err != nil {
			log.Warn("snapshot event publish failed", zap.Error(err))
		}
	}

	if p.deps.Index != nil {
		id := ""
		if p.deps.IDGen != nil {
			if generated, err := p.deps.IDGen.NewID(); err == nil {
				id = generated
			}
		}
		row := policy.SnapshotRecord{
			ID:          id,
			BatchID:     opts.BatchID,
			URL:         rec.URL,
			ArchiveKey:  key,
			ScrapedAt:   date,
			ContentType: snap.ContentType,
			ContentHash: snap.ContentHash,
			Extractors:  opts.Extractors,
			Files:       baseNames(files),
			RecordedAt:  p.deps.Clock.Now(),
		}
		if err := p.deps.Index.StoreSnapshot(ctx, row); err != nil {
			log.Warn("snapshot index insert failed", zap.Error(err))
		}
	}
}

func baseNames(files []string) []string {
	out := make([]string, 0, len(files))
	for _, file := range files {
		out = append(out, filepath.Base(file))
	}
	return out
}

func mirrorContentType(file string) string {
	switch filepath.Ext(file) {
	case ".html":
		return "text/html; charset=utf-8"
	case ".json", ".meta":
		return "application/json"
	case ".png":
		return "image/png"
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
