// Package service contains the business logic layer of the application.
//
// Handlers parse HTTP and write responses; this layer validates and applies
// defaults; the repository persists. The service takes the
// repository.EntryRepository interface, not a concrete backend, so the same
// logic runs over the document store, SQLite, or a test mock.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/food-diary/internal/apperror"
	"github.com/sakif/food-diary/internal/model"
	"github.com/sakif/food-diary/internal/repository"
)

// MaxTextLength caps entry text. Photos travel as data URIs and can be
// large; MaxPhotoLength keeps a single entry from growing the per-user
// document past what a whole-document read-modify-write can reasonably carry.
const (
	MaxTextLength  = 10000
	MaxPhotoLength = 5 * 1024 * 1024
)

// EntryService handles business logic for diary entries.
type EntryService struct {
	repo   repository.EntryRepository
	logger *slog.Logger
}

// NewEntryService creates an EntryService. The caller decides which
// repository implementation to inject.
func NewEntryService(repo repository.EntryRepository, logger *slog.Logger) *EntryService {
	return &EntryService{
		repo:   repo,
		logger: logger,
	}
}

// List returns the user's entries, newest event first.
func (s *EntryService) List(ctx context.Context, userID int64) ([]model.Entry, error) {
	entries, err := s.repo.GetEntries(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list entries",
			slog.Int64("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	return entries, nil
}

// Create validates and saves a new entry.
//
// Defaults mirror the client contract: a missing timestamp becomes server
// now(), a missing event_datetime becomes the timestamp. Text may be empty —
// a photo-only entry is valid.
func (s *EntryService) Create(ctx context.Context, userID int64, timestamp, eventDatetime, text, photo string) (*model.Entry, error) {
	if len(text) > MaxTextLength {
		return nil, apperror.ValidationFailed("text",
			fmt.Sprintf("text must be %d characters or less", MaxTextLength))
	}
	if len(photo) > MaxPhotoLength {
		return nil, apperror.ValidationFailed("photo", "photo is too large")
	}

	if timestamp == "" {
		timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	entry, err := s.repo.CreateEntry(ctx, userID, timestamp, eventDatetime, text, photo)
	if err != nil {
		s.logger.Error("failed to create entry",
			slog.Int64("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating entry: %w", err)
	}

	return entry, nil
}

// Update applies the provided fields to an entry the user owns.
// Returns apperror.ErrNotFound when the entry is missing or owned by someone
// else — the two cases are indistinguishable on purpose.
func (s *EntryService) Update(ctx context.Context, userID, entryID int64, upd repository.EntryUpdate) error {
	if upd.Text != nil && len(*upd.Text) > MaxTextLength {
		return apperror.ValidationFailed("text",
			fmt.Sprintf("text must be %d characters or less", MaxTextLength))
	}
	if upd.Photo != nil && len(*upd.Photo) > MaxPhotoLength {
		return apperror.ValidationFailed("photo", "photo is too large")
	}

	found, err := s.repo.UpdateEntry(ctx, userID, entryID, upd)
	if err != nil {
		s.logger.Error("failed to update entry",
			slog.Int64("userID", userID),
			slog.Int64("entryID", entryID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("updating entry: %w", err)
	}
	if !found {
		return apperror.NotFound("Entry")
	}
	return nil
}

// Delete removes an entry the user owns. Same not-found semantics as Update.
func (s *EntryService) Delete(ctx context.Context, userID, entryID int64) error {
	found, err := s.repo.DeleteEntry(ctx, userID, entryID)
	if err != nil {
		s.logger.Error("failed to delete entry",
			slog.Int64("userID", userID),
			slog.Int64("entryID", entryID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("deleting entry: %w", err)
	}
	if !found {
		return apperror.NotFound("Entry")
	}
	return nil
}
