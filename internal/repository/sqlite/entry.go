package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sakif/food-diary/internal/model"
	"github.com/sakif/food-diary/internal/repository"
)

// GetEntries returns the user's entries, newest event first.
//
// The sort key matches the document store: event_datetime, falling back to
// timestamp when it's empty, compared as strings. rowid ASC breaks ties in
// insertion order, same as a stable sort over an append-only list.
func (db *DB) GetEntries(ctx context.Context, userID int64) ([]model.Entry, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, timestamp, event_datetime, text, photo, synced, created_at, updated_at
		 FROM entries WHERE user_id = ?
		 ORDER BY (CASE WHEN event_datetime != '' THEN event_datetime ELSE timestamp END) DESC,
		          rowid ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing entries for user %d: %w", userID, err)
	}
	defer rows.Close()

	entries := []model.Entry{}
	for rows.Next() {
		var e model.Entry
		if err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.Timestamp,
			&e.EventDatetime,
			&e.Text,
			&e.Photo,
			&e.Synced,
			&e.CreatedAt,
			&e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating entries: %w", err)
	}

	return entries, nil
}

// CreateEntry inserts a new entry with the next per-user ID.
//
// The MAX(id)+1 allocation and the INSERT run in one transaction so two
// creates for the same user can't both read the same max. (The document
// store offers no such guarantee — SQLite gives it to us for free.)
func (db *DB) CreateEntry(ctx context.Context, userID int64, timestamp, eventDatetime, text, photo string) (*model.Entry, error) {
	if eventDatetime == "" {
		eventDatetime = timestamp
	}

	entry := model.Entry{
		UserID:        userID,
		Timestamp:     timestamp,
		EventDatetime: eventDatetime,
		Text:          text,
		Photo:         photo,
		Synced:        true,
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(id), 0) + 1 FROM entries WHERE user_id = ?`, userID,
	).Scan(&entry.ID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: allocating entry id for user %d: %w", userID, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO entries (user_id, id, timestamp, event_datetime, text, photo, synced, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.UserID,
		entry.ID,
		entry.Timestamp,
		entry.EventDatetime,
		entry.Text,
		entry.Photo,
		entry.Synced,
		entry.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: inserting entry for user %d: %w", userID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: committing entry insert: %w", err)
	}

	return &entry, nil
}

// UpdateEntry applies the non-nil fields of upd to the matching entry.
// Returns false when nothing matched (missing or not owned by userID).
func (db *DB) UpdateEntry(ctx context.Context, userID, entryID int64, upd repository.EntryUpdate) (bool, error) {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC().Format(time.RFC3339)}

	if upd.Text != nil {
		sets = append(sets, "text = ?")
		args = append(args, *upd.Text)
	}
	if upd.Photo != nil {
		sets = append(sets, "photo = ?")
		args = append(args, *upd.Photo)
	}
	if upd.EventDatetime != nil {
		sets = append(sets, "event_datetime = ?")
		args = append(args, *upd.EventDatetime)
	}

	args = append(args, userID, entryID)
	res, err := db.conn.ExecContext(ctx,
		fmt.Sprintf(`UPDATE entries SET %s WHERE user_id = ? AND id = ?`, strings.Join(sets, ", ")),
		args...,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: updating entry %d for user %d: %w", entryID, userID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: reading update result: %w", err)
	}
	return affected > 0, nil
}

// DeleteEntry removes the matching entry. Returns false when nothing matched.
func (db *DB) DeleteEntry(ctx context.Context, userID, entryID int64) (bool, error) {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM entries WHERE user_id = ? AND id = ?`,
		userID, entryID,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: deleting entry %d for user %d: %w", entryID, userID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: reading delete result: %w", err)
	}
	return affected > 0, nil
}
