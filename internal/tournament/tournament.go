// internal/tournament/tournament.go

// Package tournament schedules round-robin Pong tournaments. Tournaments are
// ephemeral and in-memory; persistence of results belongs to the external
// match-history service.
package tournament

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAlreadyStarted = errors.New("tournament already started")
	ErrAlreadyJoined  = errors.New("player already joined")
	ErrTooFewPlayers  = errors.New("tournament needs at least 2 players")
)

// Pairing is one scheduled match between two participants.
type Pairing struct {
	Round   int    `json:"round"`
	Player1 string `json:"player1"`
	Player2 string `json:"player2"`
}

// Tournament is one ephemeral round-robin bracket.
type Tournament struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	HostID    string    `json:"hostId"`
	Players   []string  `json:"players"`
	Started   bool      `json:"started"`
	Schedule  []Pairing `json:"schedule,omitempty"`
	CreatedAt time.Time `json:"createdAt"`

	mu sync.Mutex
}

// New creates an open tournament with the host as its first participant.
func New(name, hostID string) *Tournament {
	return &Tournament{
		ID:        uuid.New(),
		Name:      name,
		HostID:    hostID,
		Players:   []string{hostID},
		CreatedAt: time.Now(),
	}
}

// Join adds a participant. Joining twice or after the start is refused.
func (t *Tournament) Join(playerID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Started {
		return ErrAlreadyStarted
	}
	for _, p := range t.Players {
		if p == playerID {
			return ErrAlreadyJoined
		}
	}
	t.Players = append(t.Players, playerID)
	return nil
}

// Start freezes the participant list and generates the schedule.
func (t *Tournament) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Started {
		return ErrAlreadyStarted
	}
	if len(t.Players) < 2 {
		return ErrTooFewPlayers
	}
	t.Schedule = RoundRobin(t.Players)
	t.Started = true
	return nil
}

// RoundRobin pairs every participant against every other exactly once using
// the circle method: one seat is fixed, the rest rotate each round. An odd
// field gets a rotating bye (the empty seat plays nobody).
func RoundRobin(players []string) []Pairing {
	seats := make([]string, len(players))
	copy(seats, players)
	if len(seats)%2 != 0 {
		seats = append(seats, "") // bye
	}
	n := len(seats)
	var schedule []Pairing
	for round := 0; round < n-1; round++ {
		for i := 0; i < n/2; i++ {
			a, b := seats[i], seats[n-1-i]
			if a == "" || b == "" {
				continue
			}
			schedule = append(schedule, Pairing{Round: round + 1, Player1: a, Player2: b})
		}
		// Rotate everything except seat 0.
		last := seats[n-1]
		copy(seats[2:], seats[1:n-1])
		seats[1] = last
	}
	return schedule
}

// Store is an in-memory registry of tournaments.
type Store struct {
	mu          sync.Mutex
	tournaments map[uuid.UUID]*Tournament
}

// NewStore returns an empty registry.
func NewStore() *Store {
	return &Store{tournaments: make(map[uuid.UUID]*Tournament)}
}

// Add registers a tournament.
func (s *Store) Add(t *Tournament) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tournaments[t.ID] = t
}

// Get retrieves a tournament if it exists.
func (s *Store) Get(id uuid.UUID) (*Tournament, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tournaments[id]
	return t, ok
}

// Delete removes a tournament.
func (s *Store) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tournaments, id)
}

// List returns every registered tournament.
func (s *Store) List() []*Tournament {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Tournament, 0, len(s.tournaments))
	for _, t := range s.tournaments {
		out = append(out, t)
	}
	return out
}
