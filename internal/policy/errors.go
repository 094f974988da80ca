package policy

import (
	"errors"
	"fmt"
)

// ErrUnknownExtractor marks a request for an extractor name that was never
// registered. It is a configuration error and always propagates.
var ErrUnknownExtractor = errors.New("unknown extractor")

// NetworkError wraps any transport-level failure during a fetch (timeout,
// DNS, connection refused, unrenderable response).
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network i/o for %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ParseError wraps an extractor failure, carrying the extractor name and the
// original cause. Extraction is all-or-nothing per URL.
type ParseError struct {
	Extractor string
	Err       error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("extractor %q: %v", e.Extractor, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StorageError wraps a filesystem failure in the archive. It is treated as
// environment-fatal for the whole batch.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("archive %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
