package model

// Entry represents a single diary entry.
//
// Entry IDs are unique only within the owning user's collection — two users
// can both have an entry with ID 1. Ownership checks always pair the ID with
// UserID.
//
// Timestamp and EventDatetime are free-form strings supplied by the client
// (typically ISO 8601). The server never parses them; ordering is plain
// string comparison, which works for ISO 8601 because it sorts
// lexicographically. EventDatetime defaults to Timestamp when omitted, and is
// what listings sort on.
type Entry struct {
	ID            int64  `json:"id"`
	UserID        int64  `json:"user_id"`
	Timestamp     string `json:"timestamp"`
	EventDatetime string `json:"event_datetime"`
	Text          string `json:"text"`
	Photo         string `json:"photo,omitempty"` // data URI or external reference
	Synced        bool   `json:"synced"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at,omitempty"`
}

// SortKey is the value listings order by: EventDatetime, falling back to
// Timestamp when it was never set.
func (e *Entry) SortKey() string {
	if e.EventDatetime != "" {
		return e.EventDatetime
	}
	return e.Timestamp
}

// EntriesDocument is the top-level structure of a user's entries document —
// the whole collection is read and written as one JSON blob.
type EntriesDocument struct {
	Entries []Entry `json:"entries"`
}
