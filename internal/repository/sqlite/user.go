package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/sakif/food-diary/internal/apperror"
	"github.com/sakif/food-diary/internal/model"
	"github.com/sakif/food-diary/internal/repository"
)

// compile-time check that *DB implements the full repository
var _ repository.Repository = (*DB)(nil)

const (
	upsertMaxRetries = 5
	upsertRetryDelay = 20 * time.Millisecond
)

// CreateOrUpdateUser upserts a user by GitHub ID.
//
// The UNIQUE constraint on github_id is the relational equivalent of the
// document store's create-only write: when two first logins race, one INSERT
// wins and the other hits the constraint. The loser re-runs the operation and
// finds the winner's row on its next lookup, so both calls succeed with one
// persisted user.
func (db *DB) CreateOrUpdateUser(ctx context.Context, profile repository.GitHubProfile) (*model.User, error) {
	var user *model.User

	backoff := retry.WithMaxRetries(upsertMaxRetries, retry.NewConstant(upsertRetryDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		u, retryable, err := db.upsertOnce(ctx, profile)
		if err != nil {
			if retryable {
				return retry.RetryableError(err)
			}
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// upsertOnce performs a single upsert attempt. The bool result marks an
// INSERT that lost the github_id uniqueness race and should be retried.
func (db *DB) upsertOnce(ctx context.Context, profile repository.GitHubProfile) (*model.User, bool, error) {
	existing, err := db.GetByGitHubID(ctx, profile.GitHubID)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, false, err
	}

	now := time.Now().UTC()

	if existing != nil {
		// Known account — refresh the mutable fields, keep id and created_at.
		existing.Username = profile.Username
		existing.Name = profile.Name
		existing.Email = profile.Email
		existing.AvatarURL = profile.AvatarURL
		existing.UpdatedAt = now

		_, err = db.conn.ExecContext(ctx,
			`UPDATE users SET username = ?, name = ?, email = ?, avatar_url = ?, updated_at = ?
			 WHERE id = ?`,
			existing.Username,
			existing.Name,
			existing.Email,
			existing.AvatarURL,
			existing.UpdatedAt,
			existing.ID,
		)
		if err != nil {
			return nil, false, fmt.Errorf("sqlite: updating user %d: %w", existing.ID, err)
		}
		return existing, false, nil
	}

	user := &model.User{
		GitHubID:  profile.GitHubID,
		Username:  profile.Username,
		Name:      profile.Name,
		Email:     profile.Email,
		AvatarURL: profile.AvatarURL,
		CreatedAt: now,
		UpdatedAt: now,
	}

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (github_id, username, name, email, avatar_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.GitHubID,
		user.Username,
		user.Name,
		user.Email,
		user.AvatarURL,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		// Most likely the github_id UNIQUE constraint — another writer got
		// there between our lookup and this INSERT. Retry finds their row.
		return nil, true, fmt.Errorf("sqlite: inserting user (githubID=%d): %w", profile.GitHubID, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, false, fmt.Errorf("sqlite: reading new user id: %w", err)
	}
	user.ID = id

	return user, false, nil
}

// GetByID retrieves a user by their surrogate ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return db.getUser(ctx,
		`SELECT id, github_id, username, name, email, avatar_url, created_at, updated_at
		 FROM users WHERE id = ?`, id)
}

// GetByGitHubID retrieves a user by the provider's ID. The unique index on
// github_id makes this a direct lookup — no scan needed here.
func (db *DB) GetByGitHubID(ctx context.Context, githubID int64) (*model.User, error) {
	return db.getUser(ctx,
		`SELECT id, github_id, username, name, email, avatar_url, created_at, updated_at
		 FROM users WHERE github_id = ?`, githubID)
}

func (db *DB) getUser(ctx context.Context, query string, arg any) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx, query, arg).Scan(
		&u.ID,
		&u.GitHubID,
		&u.Username,
		&u.Name,
		&u.Email,
		&u.AvatarURL,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user")
		}
		return nil, fmt.Errorf("sqlite: getting user: %w", err)
	}

	return &u, nil
}
