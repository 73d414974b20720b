package rights

import (
	"context"
	"time"
)

// Searcher queries the crawler service for posts matching one keyword. The
// real platform mechanics live behind this boundary; errors wrap exactly one
// of ErrUnauthorized, ErrRateLimited or ErrNetwork.
type Searcher interface {
	Search(ctx context.Context, keyword string) ([]RawPost, error)
}

// RecordStore persists deduplicated post records partitioned by category.
// Append is all-or-nothing per batch. Scan visits the records present when
// the scan started and never observes a partial batch.
type RecordStore interface {
	Append(ctx context.Context, category Category, posts []Post) error
	Exists(ctx context.Context, category Category, id string) (bool, error)
	Scan(ctx context.Context, category Category, fn func(Post) error) error
	Close() error
}

// MediaStore writes media blobs into the category/post tree and returns a
// URI for the stored object.
type MediaStore interface {
	Put(ctx context.Context, category Category, postID, name, contentType string, data []byte) (string, error)
}

// MediaFetcher downloads one media attachment.
type MediaFetcher interface {
	Fetch(ctx context.Context, url string) (data []byte, contentType string, err error)
}

// Notifier pushes run summaries to Pub/Sub (or similar).
type Notifier interface {
	Notify(ctx context.Context, summary RunSummary) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
