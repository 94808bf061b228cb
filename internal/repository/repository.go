package repository

import (
	"context"

	"github.com/sakif/food-diary/internal/model"
)

// GitHubProfile carries the provider fields the upsert needs. The auth
// handler fills it from the OAuth user-info response.
type GitHubProfile struct {
	GitHubID  int64
	Username  string
	Name      string
	Email     string
	AvatarURL string
}

// EntryUpdate holds the fields an update may change. nil means "leave as is" —
// a client can clear text by sending the empty string, which is distinct from
// not sending the field at all.
type EntryUpdate struct {
	Text          *string
	Photo         *string
	EventDatetime *string
}

// UserRepository owns the User lifecycle. GetByGitHubID is an explicit
// method (not an ad-hoc scan at call sites) so each backend can use whatever
// secondary lookup it has.
type UserRepository interface {
	// CreateOrUpdateUser upserts by GitHub ID: first login creates the user
	// (and their empty entries collection), later logins refresh the mutable
	// profile fields and preserve ID and CreatedAt.
	CreateOrUpdateUser(ctx context.Context, profile GitHubProfile) (*model.User, error)

	// GetByID looks a user up by their local surrogate ID.
	// Returns apperror.ErrNotFound if no such user exists.
	GetByID(ctx context.Context, id int64) (*model.User, error)

	// GetByGitHubID looks a user up by the provider's ID.
	// Returns apperror.ErrNotFound if no such user exists.
	GetByGitHubID(ctx context.Context, githubID int64) (*model.User, error)
}

// EntryRepository owns per-user entry collections.
//
// Entry IDs are unique only within a user's collection. Update and Delete
// report "found" as a bool rather than an error: a missing entry is a normal
// outcome the handler maps to 404, not a storage failure.
type EntryRepository interface {
	// GetEntries returns the user's entries ordered by event_datetime
	// descending (falling back to timestamp), ties keeping insertion order.
	// A user with no entries document gets an empty list, not an error.
	GetEntries(ctx context.Context, userID int64) ([]model.Entry, error)

	// CreateEntry appends a new entry with the next per-user ID and
	// synced=true, and returns it.
	CreateEntry(ctx context.Context, userID int64, timestamp, eventDatetime, text, photo string) (*model.Entry, error)

	// UpdateEntry applies the non-nil fields of upd to the entry with the
	// given ID owned by userID. Returns false if no such entry exists.
	UpdateEntry(ctx context.Context, userID, entryID int64, upd EntryUpdate) (bool, error)

	// DeleteEntry removes the entry with the given ID owned by userID.
	// Returns false if no such entry exists.
	DeleteEntry(ctx context.Context, userID, entryID int64) (bool, error)
}

// Repository bundles both interfaces — each storage backend implements the
// whole thing.
type Repository interface {
	UserRepository
	EntryRepository
}
