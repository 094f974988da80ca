// Package extract implements the pluggable content extractors applied to
// rendered page markup.
package extract

import (
	"fmt"
	"sort"
	"sync"

	"github.com/policylab/policyscrape/internal/policy"
)

// Func is a pure transformation from page markup to a structured value.
type Func func(markup string) (any, error)

// Registry maps extractor names to functions. Lookups are validated against
// the closed set of registered names; there is no silent fallthrough.
type Registry struct {
	mu  sync.RWMutex
	fns map[string]Func
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{fns: make(map[string]Func)}
}

// Default returns a registry with the built-in extractors registered.
func Default() *Registry {
	r := NewRegistry()
	r.Register("text", func(markup string) (any, error) {
		return Text(markup)
	})
	r.Register("google_docs", func(markup string) (any, error) {
		return GoogleDocs(markup)
	})
	r.Register("keywords", func(markup string) (any, error) {
		return Keywords(markup)
	})
	return r
}

// Register adds or replaces a named extractor.
func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fns[name] = fn
}

// Names lists the registered extractor names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.fns))
	for name := range r.fns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run applies the named extractors to the markup in the given order. All
// names are resolved before any extractor runs, so an unknown name fails
// without partial work. A failing extractor aborts the whole extraction,
// wrapped as *policy.ParseError; partial structured output is never returned.
func (r *Registry) Run(names []string, markup string) (policy.ExtractedContent, error) {
	r.mu.RLock()
	fns := make([]Func, 0, len(names))
	for _, name := range names {
		fn, ok := r.fns[name]
		if !ok {
			r.mu.RUnlock()
			return nil, fmt.Errorf("%w: %q", policy.ErrUnknownExtractor, name)
		}
		fns = append(fns, fn)
	}
	r.mu.RUnlock()

	content := make(policy.ExtractedContent, 0, len(names))
	for i, fn := range fns {
		value, err := fn(markup)
		if err != nil {
			return nil, &policy.ParseError{Extractor: names[i], Err: err}
		}
		content = append(content, policy.ExtractedField{Name: names[i], Value: value})
	}
	return content, nil
}
