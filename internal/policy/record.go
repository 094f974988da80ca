package policy

// Record is the aggregate result of one pipeline run. Each stage returns a
// new copy with one more field populated, so partial states stay inspectable
// and records are safe to hand across worker boundaries.
type Record struct {
	URL        string
	Info       UrlInfo
	State      State
	Page       *RenderedPage
	Content    ExtractedContent
	SavedFiles []string
	SkipReason string
	Err        error
}

// NewRecord starts a record for the given URL.
func NewRecord(rawURL string) Record {
	return Record{URL: rawURL, State: StateCreated}
}

// WithInfo attaches the URL classification.
func (r Record) WithInfo(info UrlInfo) Record {
	r.Info = info
	r.State = StateClassified
	return r
}

// WithPage attaches the fetched page.
func (r Record) WithPage(page RenderedPage) Record {
	r.Page = &page
	r.State = StateFetched
	return r
}

// WithContent attaches the extraction output.
func (r Record) WithContent(content ExtractedContent) Record {
	r.Content = content
	r.State = StateExtracted
	return r
}

// WithSaved marks the record persisted, listing the artifacts written.
func (r Record) WithSaved(files []string) Record {
	r.SavedFiles = files
	r.State = StatePersisted
	return r
}

// Skipped ends the record without a scrape.
func (r Record) Skipped(reason string) Record {
	r.SkipReason = reason
	r.State = StateSkipped
	return r
}

// Failed ends the record with the given error.
func (r Record) Failed(err error) Record {
	r.Err = err
	r.State = StateFailed
	return r
}

// Terminal reports whether the record reached a final state.
func (r Record) Terminal() bool {
	switch r.State {
	case StatePersisted, StateSkipped, StateFailed:
		return true
	default:
		return false
	}
}
