// internal/handlers/tournament.go
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/arcadehall/pong-service/internal/tournament"
)

// Identity comes from the authentication collaborator; here it is the same
// opaque userId the game socket carries.
func requestUserID(r *http.Request) string {
	return r.URL.Query().Get("userId")
}

// CreateTournamentHandler builds an ephemeral in-memory tournament with the
// caller as host and first participant.
func CreateTournamentHandler(store *tournament.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := requestUserID(r)
		if userID == "" {
			http.Error(w, "missing userId", http.StatusBadRequest)
			return
		}

		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "bad tournament request payload", http.StatusBadRequest)
			return
		}
		if req.Name == "" {
			req.Name = "tournament"
		}

		t := tournament.New(req.Name, userID)
		store.Add(t)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(t)
	}
}

// JoinTournamentHandler adds the caller to an open tournament.
func JoinTournamentHandler(store *tournament.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := requestUserID(r)
		if userID == "" {
			http.Error(w, "missing userId", http.StatusBadRequest)
			return
		}

		var req struct {
			ID string `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad join request payload", http.StatusBadRequest)
			return
		}
		id, err := uuid.Parse(req.ID)
		if err != nil {
			http.Error(w, "invalid tournament id", http.StatusBadRequest)
			return
		}
		t, ok := store.Get(id)
		if !ok {
			http.Error(w, "tournament not found", http.StatusNotFound)
			return
		}

		if err := t.Join(userID); err != nil {
			status := http.StatusConflict
			if errors.Is(err, tournament.ErrAlreadyStarted) {
				status = http.StatusGone
			}
			http.Error(w, err.Error(), status)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(t)
	}
}

// StartTournamentHandler freezes the field and returns the round-robin
// schedule. Only the host may start.
func StartTournamentHandler(store *tournament.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := requestUserID(r)

		var req struct {
			ID string `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad start request payload", http.StatusBadRequest)
			return
		}
		id, err := uuid.Parse(req.ID)
		if err != nil {
			http.Error(w, "invalid tournament id", http.StatusBadRequest)
			return
		}
		t, ok := store.Get(id)
		if !ok {
			http.Error(w, "tournament not found", http.StatusNotFound)
			return
		}
		if t.HostID != userID {
			http.Error(w, "only the host may start the tournament", http.StatusForbidden)
			return
		}

		if err := t.Start(); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(t)
	}
}

// ListTournamentsHandler returns the in-memory store, mostly for the lobby UI.
func ListTournamentsHandler(store *tournament.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(store.List())
	}
}
