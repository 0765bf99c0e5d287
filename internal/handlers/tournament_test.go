// internal/handlers/tournament_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcadehall/pong-service/internal/tournament"
)

func postJSON(t *testing.T, h http.HandlerFunc, url, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", url, bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestTournamentCreateJoinStart(t *testing.T) {
	store := tournament.NewStore()

	w := postJSON(t, CreateTournamentHandler(store), "/tournament/create?userId=host", `{"name":"friday cup"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var created tournament.Tournament
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "friday cup", created.Name)
	assert.Equal(t, "host", created.HostID)
	require.Len(t, created.Players, 1)

	joinBody := `{"id":"` + created.ID.String() + `"}`
	w = postJSON(t, JoinTournamentHandler(store), "/tournament/join?userId=alice", joinBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Only the host may start.
	w = postJSON(t, StartTournamentHandler(store), "/tournament/start?userId=alice", joinBody)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = postJSON(t, StartTournamentHandler(store), "/tournament/start?userId=host", joinBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var started tournament.Tournament
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &started))
	assert.True(t, started.Started)
	assert.Len(t, started.Schedule, 1, "two players play exactly one match")

	// Joining after the start is gone.
	w = postJSON(t, JoinTournamentHandler(store), "/tournament/join?userId=bob", joinBody)
	assert.Equal(t, http.StatusGone, w.Code)
}

func TestTournamentCreateRequiresUser(t *testing.T) {
	store := tournament.NewStore()
	w := postJSON(t, CreateTournamentHandler(store), "/tournament/create", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTournamentJoinUnknownID(t *testing.T) {
	store := tournament.NewStore()
	w := postJSON(t, JoinTournamentHandler(store), "/tournament/join?userId=alice", `{"id":"6f0a0d82-22aa-4fd8-9f4e-27d72531bbbf"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = postJSON(t, JoinTournamentHandler(store), "/tournament/join?userId=alice", `{"id":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTournamentList(t *testing.T) {
	store := tournament.NewStore()
	store.Add(tournament.New("a", "h1"))
	store.Add(tournament.New("b", "h2"))

	req := httptest.NewRequest("GET", "/tournament/list", nil)
	w := httptest.NewRecorder()
	ListTournamentsHandler(store).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var list []tournament.Tournament
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 2)
}
