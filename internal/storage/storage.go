// Package storage wraps the object store that holds video bytes and caption
// tracks. Everything above this package addresses objects by key only.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrObjectNotFound is returned by Get and Head when no object exists under the key.
var ErrObjectNotFound = errors.New("object not found")

// ObjectInfo is the metadata returned by a head operation.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// ObjectStore is the contract the rest of the application uses against the
// bucket. Implementations must be safe for concurrent use.
type ObjectStore interface {
	// Put writes data under key with the given content type, replacing any existing object.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Get opens the object for reading. Callers must close the returned reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Head returns the object's metadata, or ErrObjectNotFound.
	Head(ctx context.Context, key string) (*ObjectInfo, error)

	// PresignGet issues a URL granting read access to the object until expiry elapses.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}
