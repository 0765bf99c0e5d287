// internal/game/manager.go
package game

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/arcadehall/pong-service/internal/history"
)

// Manager owns the room registry and the connection-to-assignment index. It
// is the single entry point the transport layer talks to: connect, input,
// disconnect. All registry state lives here, injected per instance, so tests
// get a clean world each time.
type Manager struct {
	mu          sync.Mutex
	rooms       map[uuid.UUID]*Room
	order       []uuid.UUID // creation order, for first-fit matchmaking
	assignments map[uuid.UUID]assignment

	settings Settings
	logger   *logrus.Logger
	rng      *rand.Rand
	recorder *history.Recorder
}

// assignment is the inverse index entry for one connection: which room it
// belongs to and which side it plays. Each connection maps to exactly one.
type assignment struct {
	roomID uuid.UUID
	side   Side
}

// NewManager builds an empty registry. The rand source seeds each room's
// serve randomness; pass a fixed-seed source in tests.
func NewManager(settings Settings, logger *logrus.Logger) *Manager {
	if logger == nil {
		logger = logrus.New()
	}
	return &Manager{
		rooms:       make(map[uuid.UUID]*Room),
		assignments: make(map[uuid.UUID]assignment),
		settings:    settings,
		logger:      logger,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetRand replaces the serve randomness source. Call before any connections
// arrive; intended for tests that need deterministic serves.
func (m *Manager) SetRand(rng *rand.Rand) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rng = rng
}

// SetRecorder attaches the match-history feed. A nil recorder is fine.
func (m *Manager) SetRecorder(rec *history.Recorder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recorder = rec
}

// Connect assigns an incoming connection to the first waiting room in
// creation order, or creates a new one when none is available. The new
// occupant immediately receives an acknowledgment naming its room, side and
// status; filling a room transitions it to playing and starts its tick loop.
func (m *Manager) Connect(c *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, dup := m.assignments[c.ID]; dup {
		m.logger.Warnf("connection %s already assigned; ignoring duplicate connect", c.ID)
		return
	}

	room := m.findAvailableLocked()
	var side Side
	var ack EventType
	if room == nil {
		room = m.createRoomLocked()
		side = SideLeft
		ack = EventRoomCreated
	} else {
		side = SideRight
		ack = EventRoomJoined
	}

	room.Mu.Lock()
	if !room.addPlayerLocked(side, c) {
		room.Mu.Unlock()
		return
	}
	m.assignments[c.ID] = assignment{roomID: room.ID, side: side}
	var opponentID string
	if opp := room.Players[side.Opponent()]; opp != nil {
		opponentID = opp.UserID
	}
	status := room.Status
	if len(room.Players) == 2 {
		status = StatusPlaying
	}
	c.send(Event{
		Type:       ack,
		RoomID:     room.ID.String(),
		Side:       side,
		Status:     status,
		UserID:     c.UserID,
		OpponentID: opponentID,
	})
	if len(room.Players) == 2 {
		room.beginPlayLocked()
	}
	room.Mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"room": room.ID,
		"side": side,
		"user": c.UserID,
	}).Info("player assigned")
}

// createRoomLocked registers a fresh waiting room and arms its idle timer.
func (m *Manager) createRoomLocked() *Room {
	room := newRoom(m.settings, m.logger, rand.New(rand.NewSource(m.rng.Int63())))
	room.publish = m.publishRecord
	m.rooms[room.ID] = room
	m.order = append(m.order, room.ID)
	if m.settings.WaitTTL > 0 {
		id := room.ID
		room.waitTimer = time.AfterFunc(m.settings.WaitTTL, func() { m.expireRoom(id) })
	}
	return room
}

// findAvailableLocked returns the oldest waiting room with a free side, or
// nil. First-fit in creation order; no load balancing.
func (m *Manager) findAvailableLocked() *Room {
	for _, id := range m.order {
		room := m.rooms[id]
		if room == nil {
			continue
		}
		if room.CurrentStatus() == StatusWaiting && room.occupants() < 2 {
			return room
		}
	}
	return nil
}

// HandleInput routes a directional input to the sender's room. Input from an
// unassigned connection is a no-op, not an error.
func (m *Manager) HandleInput(c *Client, dir Direction, pressed bool) {
	m.mu.Lock()
	a, ok := m.assignments[c.ID]
	room := m.rooms[a.roomID]
	m.mu.Unlock()
	if !ok || room == nil {
		m.logger.Debugf("input from unassigned connection %s ignored", c.ID)
		return
	}
	room.ApplyInput(a.side, dir, pressed)
}

// Disconnect handles both a voluntary leave_game and a transport-level close.
// The room decides what the departure means (silent teardown vs. forfeit);
// the manager drops the assignment and deregisters the room once it empties.
func (m *Manager) Disconnect(c *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assignments[c.ID]
	if !ok {
		return
	}
	delete(m.assignments, c.ID)
	room := m.rooms[a.roomID]
	if room == nil {
		return
	}
	if room.HandleLeave(a.side) {
		m.removeRoomLocked(room.ID)
	}
}

// expireRoom fires when a waiting room's idle TTL elapses. If the room is
// still opponent-less its occupant is released and the room deregistered.
func (m *Manager) expireRoom(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room := m.rooms[id]
	if room == nil || !room.expire() {
		return
	}
	for cid, a := range m.assignments {
		if a.roomID == id {
			delete(m.assignments, cid)
		}
	}
	m.removeRoomLocked(id)
}

func (m *Manager) removeRoomLocked(id uuid.UUID) {
	room := m.rooms[id]
	if room == nil {
		return
	}
	room.Stop()
	delete(m.rooms, id)
	for i, rid := range m.order {
		if rid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.logger.WithField("room", id).Info("room removed")
}

// RoomCount reports the number of registered rooms.
func (m *Manager) RoomCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms)
}

// LookupRoom returns the room a connection is assigned to, if any.
func (m *Manager) LookupRoom(c *Client) (*Room, Side, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assignments[c.ID]
	if !ok {
		return nil, "", false
	}
	room := m.rooms[a.roomID]
	if room == nil {
		return nil, "", false
	}
	return room, a.side, true
}

func (m *Manager) publishRecord(rec history.MatchRecord) {
	m.mu.Lock()
	recorder := m.recorder
	m.mu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := recorder.Publish(ctx, rec); err != nil {
		m.logger.Warnf("failed to publish match record for room %s: %v", rec.RoomID, err)
	}
}
