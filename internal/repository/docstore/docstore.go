// Package docstore implements the repository interfaces with one JSON
// document per logical resource in a key-value object store.
//
// KEY LAYOUT:
//
//	users/{id}/profile.json — one User
//	users/{id}/entries.json — that user's whole entry collection
//
// Every operation is a read-modify-write of a whole document. There is no
// partial update and no optimistic check on entry writes — concurrent writers
// to the same user's entries are last-writer-wins. The single place
// concurrency is handled is user creation, where a create-only write on the
// profile key arbitrates racing signups (see user.go).
//
// WHY DOCUMENTS AND NOT ROWS?
// The expected data volume is one person's meals. A whole collection fits
// comfortably in a single small blob, and a blob store is the cheapest
// durable thing to run. The sqlite sibling package exists for deployments
// that prefer a relational file over a bucket.
package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/sakif/food-diary/internal/objectstore"
	"github.com/sakif/food-diary/internal/repository"
)

// Store implements repository.Repository over an objectstore.Store.
type Store struct {
	objects objectstore.Store
	logger  *slog.Logger
}

// compile-time check that *Store implements the full repository
var _ repository.Repository = (*Store)(nil)

// New creates a document store on top of the given object store.
func New(objects objectstore.Store, logger *slog.Logger) *Store {
	return &Store{
		objects: objects,
		logger:  logger,
	}
}

// profileKey returns the object key for a user's profile document.
func profileKey(userID int64) string {
	return fmt.Sprintf("users/%d/profile.json", userID)
}

// entriesKey returns the object key for a user's entries document.
func entriesKey(userID int64) string {
	return fmt.Sprintf("users/%d/entries.json", userID)
}

// readJSON reads and decodes the document at key into v.
// objectstore.ErrNotFound passes through untouched so callers can decide
// whether "missing" means empty state or a real not-found.
func (s *Store) readJSON(ctx context.Context, key string, v any) error {
	data, err := s.objects.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("docstore: decoding %s: %w", key, err)
	}
	return nil
}

// writeJSON encodes v and writes it to key unconditionally.
func (s *Store) writeJSON(ctx context.Context, key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("docstore: encoding %s: %w", key, err)
	}
	return s.objects.Put(ctx, key, data)
}

// createJSON encodes v and writes it to key only if the key does not exist.
// Returns objectstore.ErrKeyExists if another writer got there first.
func (s *Store) createJSON(ctx context.Context, key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("docstore: encoding %s: %w", key, err)
	}
	return s.objects.PutIfAbsent(ctx, key, data)
}

// listUserIDs scans the users/ prefix and returns the IDs of every user that
// has a profile document. Keys that don't parse are skipped, not errors —
// the store may hold unrelated objects under users/.
func (s *Store) listUserIDs(ctx context.Context) ([]int64, error) {
	keys, err := s.objects.List(ctx, "users/")
	if err != nil {
		return nil, fmt.Errorf("docstore: listing users: %w", err)
	}

	ids := make([]int64, 0, len(keys))
	for _, key := range keys {
		// users/{id}/profile.json
		parts := strings.Split(key, "/")
		if len(parts) != 3 || parts[2] != "profile.json" {
			continue
		}
		id, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
