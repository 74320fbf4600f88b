// Package storage wraps the S3-compatible object store behind a small
// interface so pipeline stages can be exercised against an in-memory
// implementation.
package storage

import (
	"context"
)

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	Key  string
	Size int64
}

// ObjectStore is the surface pipeline stages use. The object store is the
// only synchronization point between stages; writes are last-writer-wins.
type ObjectStore interface {
	// EnsureBucket creates the bucket when it does not exist yet.
	EnsureBucket(ctx context.Context, bucket string) error

	// Put stores data under bucket/key, replacing any previous object.
	Put(ctx context.Context, bucket, key string, data []byte, contentType string) error

	// PutFile uploads a local file verbatim.
	PutFile(ctx context.Context, bucket, key, path string) error

	// Get returns the full content of bucket/key.
	Get(ctx context.Context, bucket, key string) ([]byte, error)

	// List returns all objects under a key prefix, sorted by key.
	List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
}
