package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/sakif/food-diary/internal/model"
	"github.com/sakif/food-diary/internal/objectstore"
	"github.com/sakif/food-diary/internal/repository"
)

// readEntries loads a user's entries document. A missing document is empty
// state, not an error — users created before the paired-document invariant
// existed, or whose init write was lost, still behave correctly.
func (s *Store) readEntries(ctx context.Context, userID int64) (*model.EntriesDocument, error) {
	var doc model.EntriesDocument
	if err := s.readJSON(ctx, entriesKey(userID), &doc); err != nil {
		if errors.Is(err, objectstore.ErrNotFound) {
			return &model.EntriesDocument{Entries: []model.Entry{}}, nil
		}
		return nil, fmt.Errorf("docstore: reading entries for user %d: %w", userID, err)
	}
	if doc.Entries == nil {
		doc.Entries = []model.Entry{}
	}
	return &doc, nil
}

// writeEntries writes a user's entries document back unconditionally.
// No version check: concurrent writers to the same collection are
// last-writer-wins, an accepted gap at this system's scale.
func (s *Store) writeEntries(ctx context.Context, userID int64, doc *model.EntriesDocument) error {
	if err := s.writeJSON(ctx, entriesKey(userID), doc); err != nil {
		return fmt.Errorf("docstore: writing entries for user %d: %w", userID, err)
	}
	return nil
}

// GetEntries returns the user's entries, newest event first.
//
// The sort key is event_datetime (falling back to timestamp), compared as
// strings — ISO 8601 sorts lexicographically, and the server treats client
// timestamps as opaque. SliceStable keeps insertion order for equal keys.
func (s *Store) GetEntries(ctx context.Context, userID int64) ([]model.Entry, error) {
	doc, err := s.readEntries(ctx, userID)
	if err != nil {
		return nil, err
	}

	entries := doc.Entries
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].SortKey() > entries[j].SortKey()
	})
	return entries, nil
}

// CreateEntry appends a new entry to the user's collection.
//
// The ID is max-existing-entry-ID-plus-one WITHIN this user's collection
// (1 for an empty one) — entry IDs are never unique across users. The write
// back is unconditional; see writeEntries.
func (s *Store) CreateEntry(ctx context.Context, userID int64, timestamp, eventDatetime, text, photo string) (*model.Entry, error) {
	doc, err := s.readEntries(ctx, userID)
	if err != nil {
		return nil, err
	}

	var maxID int64
	for _, e := range doc.Entries {
		if e.ID > maxID {
			maxID = e.ID
		}
	}

	if eventDatetime == "" {
		eventDatetime = timestamp
	}

	entry := model.Entry{
		ID:            maxID + 1,
		UserID:        userID,
		Timestamp:     timestamp,
		EventDatetime: eventDatetime,
		Text:          text,
		Photo:         photo,
		Synced:        true,
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
	}

	doc.Entries = append(doc.Entries, entry)
	if err := s.writeEntries(ctx, userID, doc); err != nil {
		return nil, err
	}

	s.logger.Info("entry created",
		slog.Int64("userID", userID),
		slog.Int64("entryID", entry.ID),
	)
	return &entry, nil
}

// UpdateEntry applies the non-nil fields of upd to the matching entry.
// Returns false when the entry doesn't exist or belongs to another user;
// a missing collection is never created by an update.
func (s *Store) UpdateEntry(ctx context.Context, userID, entryID int64, upd repository.EntryUpdate) (bool, error) {
	doc, err := s.readEntries(ctx, userID)
	if err != nil {
		return false, err
	}

	for i := range doc.Entries {
		e := &doc.Entries[i]
		if e.ID != entryID || e.UserID != userID {
			continue
		}

		if upd.Text != nil {
			e.Text = *upd.Text
		}
		if upd.Photo != nil {
			e.Photo = *upd.Photo
		}
		if upd.EventDatetime != nil {
			e.EventDatetime = *upd.EventDatetime
		}
		e.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

		if err := s.writeEntries(ctx, userID, doc); err != nil {
			return false, err
		}

		s.logger.Info("entry updated",
			slog.Int64("userID", userID),
			slog.Int64("entryID", entryID),
		)
		return true, nil
	}

	return false, nil
}

// DeleteEntry removes the matching entry. Returns false (and writes nothing)
// when no entry matched.
func (s *Store) DeleteEntry(ctx context.Context, userID, entryID int64) (bool, error) {
	doc, err := s.readEntries(ctx, userID)
	if err != nil {
		return false, err
	}

	kept := doc.Entries[:0:0]
	for _, e := range doc.Entries {
		if e.ID == entryID && e.UserID == userID {
			continue
		}
		kept = append(kept, e)
	}

	if len(kept) == len(doc.Entries) {
		return false, nil
	}

	doc.Entries = kept
	if err := s.writeEntries(ctx, userID, doc); err != nil {
		return false, err
	}

	s.logger.Info("entry deleted",
		slog.Int64("userID", userID),
		slog.Int64("entryID", entryID),
	)
	return true, nil
}
