// Package policy defines the core types shared across the scrape pipeline.
package policy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// State represents the lifecycle position of a policy record.
type State string

// Record states. Persisted, Skipped and Failed are terminal.
const (
	StateCreated    State = "created"
	StateClassified State = "classified"
	StateSkipped    State = "skipped"
	StateFetched    State = "fetched"
	StateExtracted  State = "extracted"
	StatePersisted  State = "persisted"
	StateFailed     State = "failed"
)

// SnapshotDateLayout is the calendar-date format used for snapshot file names.
// Archive granularity is one UTC day, not a timestamp.
const SnapshotDateLayout = "20060102"

// FetchRequest captures everything a Renderer needs to fetch one URL.
type FetchRequest struct {
	URL        string
	Timeout    time.Duration
	Screenshot bool
}

// RenderedPage is the result of one fetch attempt.
type RenderedPage struct {
	// Markup is the rendered page source for textual documents.
	Markup string
	// Raw carries the unrendered response body for non-HTML documents
	// (PDF, plain text); empty for browser-rendered pages.
	Raw []byte
	// Screenshot holds PNG bytes when a screenshot was requested and taken.
	Screenshot []byte
	// ContentType is "html", "pdf", "plain" or "other" as reported by the
	// fetch; may refine the extension-based guess from Classify.
	ContentType string
	FetchedAt   time.Time
}

// ExtractedField is one named extractor output.
type ExtractedField struct {
	Name  string
	Value any
}

// ExtractedContent is an ordered list of extractor outputs. It marshals to a
// JSON object whose keys follow the order extractors were requested in.
type ExtractedContent []ExtractedField

// Get returns the value produced by the named extractor.
func (c ExtractedContent) Get(name string) (any, bool) {
	for _, f := range c {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Names returns the extractor names in output order.
func (c ExtractedContent) Names() []string {
	names := make([]string, 0, len(c))
	for _, f := range c {
		names = append(names, f.Name)
	}
	return names
}

// MarshalJSON renders the content as a JSON object preserving field order.
func (c ExtractedContent) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, fmt.Errorf("marshal field name %q: %w", f.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal field %q: %w", f.Name, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// SnapshotRecord is one row handed to a SnapshotIndex after a persist.
type SnapshotRecord struct {
	ID          string
	BatchID     string
	URL         string
	ArchiveKey  string
	ScrapedAt   string
	ContentType string
	ContentHash string
	Extractors  []string
	Files       []string
	RecordedAt  time.Time
}
