// Package handler contains the HTTP request handlers for the diary API.
// Handlers parse requests and write responses; business rules live in
// internal/service, persistence in internal/repository.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/food-diary/internal/auth"
	"github.com/sakif/food-diary/internal/repository"
	"github.com/sakif/food-diary/internal/service"
)

// EntryHandler manages CRUD over the authenticated user's diary entries.
// Every route it serves sits behind auth.RequireAuth, so the user ID is
// always present in the request context.
type EntryHandler struct {
	entries *service.EntryService
	logger  *slog.Logger
}

// NewEntryHandler creates an EntryHandler.
func NewEntryHandler(entries *service.EntryService, logger *slog.Logger) *EntryHandler {
	return &EntryHandler{entries: entries, logger: logger}
}

// createEntryRequest is the POST /api/entries body. All fields are optional:
// a missing timestamp becomes server now, a missing event_datetime follows
// the timestamp.
type createEntryRequest struct {
	Timestamp     string `json:"timestamp"`
	EventDatetime string `json:"event_datetime"`
	Text          string `json:"text"`
	Photo         string `json:"photo"`
}

// updateEntryRequest is the PUT /api/entries/{id} body. Pointer fields
// distinguish "not sent" (nil, leave as is) from "sent empty" (clear).
type updateEntryRequest struct {
	Text          *string `json:"text"`
	Photo         *string `json:"photo"`
	EventDatetime *string `json:"event_datetime"`
}

// HandleList returns the user's entries, newest event first.
//
// HTTP: GET /api/entries
func (h *EntryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	entries, err := h.entries.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

// HandleCreate saves a new entry.
//
// HTTP: POST /api/entries
// BODY: {"timestamp": "...", "event_datetime": "...", "text": "...", "photo": "..."}
func (h *EntryHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req createEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid entry JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body: " + err.Error()})
		return
	}

	entry, err := h.entries.Create(r.Context(), userID, req.Timestamp, req.EventDatetime, req.Text, req.Photo)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

// HandleUpdate applies the provided fields to an entry the user owns.
//
// HTTP: PUT /api/entries/{id}
//
// A missing entry — or one owned by someone else — is a 404 with
// {"error": "Entry not found"}; the two cases are indistinguishable to the
// caller.
func (h *EntryHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	entryID, ok := h.entryID(w, r)
	if !ok {
		return
	}

	var req updateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid entry JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body: " + err.Error()})
		return
	}

	err := h.entries.Update(r.Context(), userID, entryID, repository.EntryUpdate{
		Text:          req.Text,
		Photo:         req.Photo,
		EventDatetime: req.EventDatetime,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Entry updated successfully"})
}

// HandleDelete removes an entry the user owns.
//
// HTTP: DELETE /api/entries/{id}
func (h *EntryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	entryID, ok := h.entryID(w, r)
	if !ok {
		return
	}

	if err := h.entries.Delete(r.Context(), userID, entryID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Entry deleted successfully"})
}

// entryID parses the {id} URL parameter, writing a 400 on failure.
func (h *EntryHandler) entryID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid entry id"})
		return 0, false
	}
	return id, true
}
