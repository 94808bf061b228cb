package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/sakif/food-diary/internal/apperror"
	"github.com/sakif/food-diary/internal/model"
	"github.com/sakif/food-diary/internal/objectstore"
	"github.com/sakif/food-diary/internal/repository"
)

const (
	// createMaxRetries bounds how often a signup re-runs after losing the
	// create race. Persistent contention past this turns into a Conflict
	// error rather than looping forever.
	createMaxRetries = 5

	createRetryDelay = 20 * time.Millisecond
)

// CreateOrUpdateUser upserts a user by GitHub ID.
//
// THE SIGNUP RACE:
// New-user IDs are allocated as max-existing-ID-plus-one, derived by scanning
// the store. Two concurrent first logins can therefore compute the same ID.
// The profile write for a NEW user is create-only (PutIfAbsent): exactly one
// writer wins the key, the loser re-runs the whole operation — re-scan,
// re-allocate — and on the second pass either finds the winner's profile (if
// it was the same GitHub account) or a free ID. This is the only concurrency
// safety mechanism in the system and it leans entirely on the store's
// conditional write.
//
// Updates (user already known) are plain overwrites: ID and CreatedAt are
// preserved, the mutable profile fields and UpdatedAt are refreshed.
func (s *Store) CreateOrUpdateUser(ctx context.Context, profile repository.GitHubProfile) (*model.User, error) {
	var user *model.User

	backoff := retry.WithMaxRetries(createMaxRetries, retry.NewConstant(createRetryDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		u, err := s.createOrUpdateOnce(ctx, profile)
		if err != nil {
			if errors.Is(err, objectstore.ErrKeyExists) {
				// Lost the create race — retry from the top.
				s.logger.Warn("user create collided, retrying",
					slog.Int64("githubID", profile.GitHubID),
				)
				return retry.RetryableError(err)
			}
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		if errors.Is(err, objectstore.ErrKeyExists) {
			return nil, apperror.Conflict("user creation kept colliding, please retry")
		}
		return nil, err
	}

	return user, nil
}

// createOrUpdateOnce performs a single upsert attempt.
// Returns objectstore.ErrKeyExists when a new-user create loses the race.
func (s *Store) createOrUpdateOnce(ctx context.Context, profile repository.GitHubProfile) (*model.User, error) {
	existing, err := s.GetByGitHubID(ctx, profile.GitHubID)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()

	if existing != nil {
		// Known account — refresh the mutable fields, keep ID and CreatedAt.
		existing.Username = profile.Username
		existing.Name = profile.Name
		existing.Email = profile.Email
		existing.AvatarURL = profile.AvatarURL
		existing.UpdatedAt = now

		if err := s.writeJSON(ctx, profileKey(existing.ID), existing); err != nil {
			return nil, fmt.Errorf("docstore: updating user %d: %w", existing.ID, err)
		}

		s.logger.Info("user updated",
			slog.Int64("userID", existing.ID),
			slog.Int64("githubID", profile.GitHubID),
		)
		return existing, nil
	}

	// First login for this GitHub account.
	id, err := s.nextUserID(ctx)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:        id,
		GitHubID:  profile.GitHubID,
		Username:  profile.Username,
		Name:      profile.Name,
		Email:     profile.Email,
		AvatarURL: profile.AvatarURL,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Create-only write — the arbitration point for racing signups.
	if err := s.createJSON(ctx, profileKey(id), user); err != nil {
		return nil, err
	}

	// The paired entries document starts empty. This write is unconditional:
	// we own the ID now, nobody else can be initializing it.
	if err := s.writeJSON(ctx, entriesKey(id), model.EntriesDocument{Entries: []model.Entry{}}); err != nil {
		return nil, fmt.Errorf("docstore: initializing entries for user %d: %w", id, err)
	}

	s.logger.Info("user created",
		slog.Int64("userID", id),
		slog.Int64("githubID", profile.GitHubID),
	)
	return user, nil
}

// nextUserID allocates the next surrogate ID: max existing ID across all
// users, plus one. O(number of users), like GetByGitHubID — fine for the
// user counts this system is built for.
func (s *Store) nextUserID(ctx context.Context) (int64, error) {
	ids, err := s.listUserIDs(ctx)
	if err != nil {
		return 0, err
	}

	var maxID int64
	for _, id := range ids {
		if id > maxID {
			maxID = id
		}
	}
	return maxID + 1, nil
}

// GetByID reads a user's profile document directly.
func (s *Store) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	if err := s.readJSON(ctx, profileKey(id), &user); err != nil {
		if errors.Is(err, objectstore.ErrNotFound) {
			return nil, apperror.NotFound("user")
		}
		return nil, fmt.Errorf("docstore: getting user %d: %w", id, err)
	}
	return &user, nil
}

// GetByGitHubID finds a user by the provider's ID with a full scan: list all
// user directories, read each profile, filter. This is a linear stand-in for
// a secondary index, acceptable only because the expected user count is tiny.
func (s *Store) GetByGitHubID(ctx context.Context, githubID int64) (*model.User, error) {
	ids, err := s.listUserIDs(ctx)
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		user, err := s.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				// Profile vanished between list and read — skip.
				continue
			}
			return nil, err
		}
		if user.GitHubID == githubID {
			return user, nil
		}
	}

	return nil, apperror.NotFound("user")
}
