// Package objectstore abstracts the key-value blob store the document
// repositories persist into.
//
// THE STORE CONTRACT:
// Four operations are all the application ever needs:
//   - Get: read the blob at a key
//   - Put: write a blob unconditionally (last writer wins)
//   - PutIfAbsent: write only if the key does not exist yet — the
//     "create-only" conditional write; this is the one concurrency primitive
//     in the whole system and the signup flow depends on it
//   - List: enumerate keys under a prefix
//
// A production deployment backs this with an object store that supports
// conditional writes (S3's If-None-Match, GCS preconditions, ...). Locally we
// ship a filesystem implementation, and tests use the in-memory one. All of
// them present exactly this interface, so the document store above never
// knows which it's talking to.
package objectstore

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get when the key does not exist.
	// Callers treat it as "empty state", not a failure.
	ErrNotFound = errors.New("objectstore: key not found")

	// ErrKeyExists is returned by PutIfAbsent when another writer got there
	// first. This is how a lost create race surfaces.
	ErrKeyExists = errors.New("objectstore: key already exists")
)

// Store is the minimal key-value blob interface.
//
// Keys are slash-separated paths ("users/3/profile.json"). Values are opaque
// bytes — the document layer above encodes/decodes JSON.
type Store interface {
	// Get returns the blob stored at key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores the blob at key, overwriting any existing value.
	Put(ctx context.Context, key string, data []byte) error

	// PutIfAbsent stores the blob only if key does not exist.
	// Returns ErrKeyExists if it does.
	PutIfAbsent(ctx context.Context, key string, data []byte) error

	// List returns all keys that start with prefix, in unspecified order.
	List(ctx context.Context, prefix string) ([]string, error)
}
