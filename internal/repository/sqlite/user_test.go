package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/food-diary/internal/apperror"
	"github.com/sakif/food-diary/internal/model"
	"github.com/sakif/food-diary/internal/repository"
)

// testProfile returns a GitHub profile for test users.
func testProfile(githubID int64, username string) repository.GitHubProfile {
	return repository.GitHubProfile{
		GitHubID:  githubID,
		Username:  username,
		Name:      "Test " + username,
		Email:     username + "@example.com",
		AvatarURL: "https://avatars.githubusercontent.com/u/123",
	}
}

// createTestUser is a test helper that upserts a user and fails the test if it errors.
func createTestUser(t *testing.T, db *DB, githubID int64, username string) *model.User {
	t.Helper()
	user, err := db.CreateOrUpdateUser(context.Background(), testProfile(githubID, username))
	if err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// =========================================================================
// UPSERT TESTS
// =========================================================================

func TestCreateOrUpdateUser_NewUser(t *testing.T) {
	db := newTestDB(t)

	user, err := db.CreateOrUpdateUser(context.Background(), testProfile(12345, "testuser"))
	if err != nil {
		t.Fatalf("CreateOrUpdateUser() error = %v", err)
	}

	if user.ID == 0 {
		t.Error("CreateOrUpdateUser() did not assign an ID")
	}
	if user.GitHubID != 12345 {
		t.Errorf("GitHubID = %d, want 12345", user.GitHubID)
	}
	if user.CreatedAt.IsZero() {
		t.Error("CreateOrUpdateUser() did not set CreatedAt")
	}

	// Verify it's actually in the DB
	found, err := db.GetByGitHubID(context.Background(), 12345)
	if err != nil {
		t.Fatalf("GetByGitHubID() after upsert: %v", err)
	}
	if found.Username != "testuser" {
		t.Errorf("Username = %q, want %q", found.Username, "testuser")
	}
}

func TestCreateOrUpdateUser_SecondLoginKeepsID(t *testing.T) {
	db := newTestDB(t)

	first := createTestUser(t, db, 66666, "original_login")

	// Second login — same GitHub account but updated profile
	second, err := db.CreateOrUpdateUser(context.Background(), testProfile(66666, "updated_login"))
	if err != nil {
		t.Fatalf("CreateOrUpdateUser() second login: %v", err)
	}

	// The internal ID must NOT have changed — same user, same ID
	if second.ID != first.ID {
		t.Errorf("second login changed user ID: got %d, want %d", second.ID, first.ID)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("second login changed CreatedAt: got %v, want %v", second.CreatedAt, first.CreatedAt)
	}

	// But the profile fields should be updated
	found, err := db.GetByGitHubID(context.Background(), 66666)
	if err != nil {
		t.Fatalf("GetByGitHubID() after second login: %v", err)
	}
	if found.Username != "updated_login" {
		t.Errorf("Username after upsert = %q, want %q", found.Username, "updated_login")
	}
}

func TestCreateOrUpdateUser_AssignsSequentialIDs(t *testing.T) {
	db := newTestDB(t)

	alice := createTestUser(t, db, 100, "alice")
	bob := createTestUser(t, db, 200, "bob")

	if alice.ID == bob.ID {
		t.Errorf("distinct accounts share ID %d", alice.ID)
	}
	if bob.ID != alice.ID+1 {
		t.Errorf("bob.ID = %d, want %d", bob.ID, alice.ID+1)
	}
}

// =========================================================================
// GET TESTS
// =========================================================================

func TestGetByID(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, 111, "getbyid_user")

	found, err := db.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}

	if found.ID != created.ID {
		t.Errorf("ID = %d, want %d", found.ID, created.ID)
	}
	if found.Username != "getbyid_user" {
		t.Errorf("Username = %q, want %q", found.Username, "getbyid_user")
	}
	if found.GitHubID != 111 {
		t.Errorf("GitHubID = %d, want 111", found.GitHubID)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetByID(context.Background(), 9999)

	if err == nil {
		t.Fatal("GetByID() should have returned an error for nonexistent ID")
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestGetByGitHubID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetByGitHubID(context.Background(), 999999999)

	if err == nil {
		t.Fatal("GetByGitHubID() should have returned an error for nonexistent github_id")
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByGitHubID() error = %v, want ErrNotFound", err)
	}
}
