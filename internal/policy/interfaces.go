package policy

import (
	"context"
	"io"
	"time"
)

// Renderer fetches one URL and returns the rendered page. Implementations
// report transport problems as *NetworkError.
type Renderer interface {
	Fetch(ctx context.Context, req FetchRequest) (RenderedPage, error)
}

// BlobStore mirrors archive artifacts to secondary storage and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

// Publisher pushes snapshot events to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// SnapshotIndex records one row per persisted snapshot for external queries.
type SnapshotIndex interface {
	StoreSnapshot(ctx context.Context, rec SnapshotRecord) error
}

// Hasher computes content digests.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock supplies the current time and the archive's snapshot date.
type Clock interface {
	Now() time.Time
	Today() string
}

// IDGenerator produces batch and snapshot IDs.
type IDGenerator interface {
	NewID() (string, error)
}
