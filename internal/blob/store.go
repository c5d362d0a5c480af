// Package blob is a minimal key/value object store with an S3-compatible
// backend for deployments and a SQLite backend for local development.
package blob

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when no object exists under the key.
var ErrNotFound = errors.New("blob: object not found")

// Object describes a stored object without its content.
type Object struct {
	Key         string
	ContentType string
	Size        int64
	UpdatedAt   time.Time
}

type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) (Object, error)
	Get(ctx context.Context, key string) (Object, []byte, error)
	List(ctx context.Context, prefix string) ([]Object, error)
	// Delete succeeds when the key does not exist.
	Delete(ctx context.Context, key string) error
}

// PublicURLer is implemented by stores whose objects are directly reachable
// over HTTP.
type PublicURLer interface {
	PublicURL(key string) (string, bool)
}
