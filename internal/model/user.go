// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered diary account.
//
// We use GitHub OAuth as the identity provider, so the external identifier is
// the GitHub user ID (an integer). The app assigns its own surrogate integer
// ID — that's what sessions and entry ownership reference, never the GitHub ID.
//
// WHY TWO IDS?
// The mapping github_id → id is established exactly once, at first login.
// Every later login looks the user up by GitHubID, refreshes the mutable
// profile fields, and keeps ID and CreatedAt untouched. Tying our primary key
// to a third party's numbering scheme would make that contract impossible to
// enforce.
//
// WHY Name/Email/AvatarURL string (not *string)?
// GitHub returns these fields empty when the user hides them. We use the empty
// string as the zero value rather than nullable pointers — simpler to work
// with and safe to display.
type User struct {
	ID        int64     `json:"id"`
	GitHubID  int64     `json:"github_id"`  // GitHub's numeric user ID
	Username  string    `json:"username"`   // GitHub login, e.g. "sakif"
	Name      string    `json:"name"`       // Display name (may be empty)
	Email     string    `json:"email"`      // Primary public email (may be empty)
	AvatarURL string    `json:"avatar_url"` // Profile picture URL
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PublicUser is the subset of User fields exposed over the API.
// GitHubID and Email stay server-side.
type PublicUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// Public returns the API-safe view of the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Name:      u.Name,
		AvatarURL: u.AvatarURL,
	}
}
