package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/sakif/food-diary/internal/apperror"
	"github.com/sakif/food-diary/internal/model"
	"github.com/sakif/food-diary/internal/repository"
)

// =========================================================================
// MOCK REPOSITORY
// =========================================================================
//
// mockEntryRepo implements repository.EntryRepository in memory. The real
// backends have their own tests; here the mock lets us test the service
// logic alone — validation, defaults, and error mapping — and simulate
// storage failures the real backends can't produce on demand.

type mockEntryRepo struct {
	entries map[int64][]model.Entry // keyed by user ID
	nextID  int64
	// set to a non-nil error to simulate a storage failure
	err error
}

func newMockRepo() *mockEntryRepo {
	return &mockEntryRepo{entries: make(map[int64][]model.Entry)}
}

func (m *mockEntryRepo) GetEntries(_ context.Context, userID int64) ([]model.Entry, error) {
	if m.err != nil {
		return nil, m.err
	}
	return append([]model.Entry{}, m.entries[userID]...), nil
}

func (m *mockEntryRepo) CreateEntry(_ context.Context, userID int64, timestamp, eventDatetime, text, photo string) (*model.Entry, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.nextID++
	entry := model.Entry{
		ID:            m.nextID,
		UserID:        userID,
		Timestamp:     timestamp,
		EventDatetime: eventDatetime,
		Text:          text,
		Photo:         photo,
		Synced:        true,
	}
	m.entries[userID] = append(m.entries[userID], entry)
	return &entry, nil
}

func (m *mockEntryRepo) UpdateEntry(_ context.Context, userID, entryID int64, upd repository.EntryUpdate) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	for i := range m.entries[userID] {
		if m.entries[userID][i].ID == entryID {
			if upd.Text != nil {
				m.entries[userID][i].Text = *upd.Text
			}
			return true, nil
		}
	}
	return false, nil
}

func (m *mockEntryRepo) DeleteEntry(_ context.Context, userID, entryID int64) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	for i := range m.entries[userID] {
		if m.entries[userID][i].ID == entryID {
			m.entries[userID] = append(m.entries[userID][:i], m.entries[userID][i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// newTestService returns an EntryService wired with the given mock.
func newTestService(repo *mockEntryRepo) *EntryService {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewEntryService(repo, logger)
}

func strPtr(s string) *string { return &s }

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestCreate_DefaultsTimestamp(t *testing.T) {
	svc := newTestService(newMockRepo())

	entry, err := svc.Create(context.Background(), 1, "", "", "toast", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if entry.Timestamp == "" {
		t.Error("Create() did not default the timestamp")
	}
}

func TestCreate_AllowsEmptyText(t *testing.T) {
	svc := newTestService(newMockRepo())

	// A photo-only entry is valid — text is optional.
	_, err := svc.Create(context.Background(), 1, "2023-12-07T09:00", "", "", "data:image/png;base64,AAAA")
	if err != nil {
		t.Fatalf("Create() error = %v for a photo-only entry", err)
	}
}

func TestCreate_RejectsOversizedText(t *testing.T) {
	svc := newTestService(newMockRepo())

	long := strings.Repeat("x", MaxTextLength+1)
	_, err := svc.Create(context.Background(), 1, "", "", long, "")

	if err == nil {
		t.Fatal("Create() should reject text over the limit")
	}
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Create() error = %v, want ErrValidation", err)
	}
}

func TestCreate_RejectsOversizedPhoto(t *testing.T) {
	svc := newTestService(newMockRepo())

	huge := strings.Repeat("x", MaxPhotoLength+1)
	_, err := svc.Create(context.Background(), 1, "", "", "ok", huge)

	if err == nil {
		t.Fatal("Create() should reject a photo over the limit")
	}
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Create() error = %v, want ErrValidation", err)
	}
}

func TestCreate_RepositoryError(t *testing.T) {
	repo := newMockRepo()
	repo.err = errors.New("storage down")
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), 1, "", "", "toast", "")
	if err == nil {
		t.Fatal("Create() should propagate repository errors")
	}
	if errors.Is(err, apperror.ErrValidation) || errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Create() error = %v, want a plain wrapped error", err)
	}
}

// =========================================================================
// LIST TESTS
// =========================================================================

func TestList(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	svc.Create(context.Background(), 1, "2023-12-07T09:00", "", "a", "")
	svc.Create(context.Background(), 1, "2023-12-07T10:00", "", "b", "")
	svc.Create(context.Background(), 2, "2023-12-07T11:00", "", "other user", "")

	entries, err := svc.List(context.Background(), 1)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("List() = %d entries, want 2", len(entries))
	}
}

// =========================================================================
// UPDATE TESTS
// =========================================================================

func TestUpdate(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	entry, _ := svc.Create(context.Background(), 1, "2023-12-07T09:00", "", "before", "")

	err := svc.Update(context.Background(), 1, entry.ID, repository.EntryUpdate{Text: strPtr("after")})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	entries, _ := svc.List(context.Background(), 1)
	if entries[0].Text != "after" {
		t.Errorf("Text = %q, want %q", entries[0].Text, "after")
	}
}

func TestUpdate_NotFound(t *testing.T) {
	svc := newTestService(newMockRepo())

	err := svc.Update(context.Background(), 1, 99, repository.EntryUpdate{Text: strPtr("x")})
	if err == nil {
		t.Fatal("Update() should fail for a missing entry")
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestUpdate_RejectsOversizedText(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	entry, _ := svc.Create(context.Background(), 1, "2023-12-07T09:00", "", "ok", "")

	long := strings.Repeat("x", MaxTextLength+1)
	err := svc.Update(context.Background(), 1, entry.ID, repository.EntryUpdate{Text: &long})

	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Update() error = %v, want ErrValidation", err)
	}
}

// =========================================================================
// DELETE TESTS
// =========================================================================

func TestDelete(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	entry, _ := svc.Create(context.Background(), 1, "2023-12-07T09:00", "", "gone", "")

	if err := svc.Delete(context.Background(), 1, entry.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	entries, _ := svc.List(context.Background(), 1)
	if len(entries) != 0 {
		t.Errorf("List() = %d entries after delete, want 0", len(entries))
	}
}

func TestDelete_NotFound(t *testing.T) {
	svc := newTestService(newMockRepo())

	err := svc.Delete(context.Background(), 1, 99)
	if err == nil {
		t.Fatal("Delete() should fail for a missing entry")
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}
