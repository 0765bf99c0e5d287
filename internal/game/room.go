// internal/game/room.go
package game

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/arcadehall/pong-service/internal/history"
)

// InputState is the last known continuous key state for one side. It is
// written by the input router and sampled by the tick engine; the paddle can
// never be commanded both ways at once.
type InputState struct {
	Up   bool
	Down bool
}

// Room holds the entire authoritative state for a single match. All fields
// below Mu are guarded by it; the tick goroutine, the input router and the
// disconnect path each take the lock, so no two mutations interleave.
type Room struct {
	ID        uuid.UUID
	CreatedAt time.Time

	Mu         sync.Mutex
	Status     Status
	Players    map[Side]*Client
	Ball       BallState
	Paddles    map[Side]float64
	Score      map[Side]int
	Inputs     map[Side]*InputState
	BallActive bool

	settings Settings
	logger   *logrus.Entry
	rng      *rand.Rand

	lastTick time.Time
	stop     chan struct{}
	stopOnce sync.Once

	// waitTimer expires an opponent-less waiting room; armed at creation when
	// Settings.WaitTTL > 0, disarmed when the room fills or empties.
	waitTimer *time.Timer

	// publish hands a match lifecycle record to the external history feed.
	// May be nil; invoked asynchronously, never while useful work waits.
	publish func(rec history.MatchRecord)
}

func newRoom(settings Settings, logger *logrus.Logger, rng *rand.Rand) *Room {
	r := &Room{
		ID:        uuid.New(),
		CreatedAt: time.Now(),
		Status:    StatusWaiting,
		Players:   make(map[Side]*Client, 2),
		Paddles:   map[Side]float64{SideLeft: 0, SideRight: 0},
		Score:     map[Side]int{SideLeft: 0, SideRight: 0},
		Inputs:    map[Side]*InputState{SideLeft: {}, SideRight: {}},
		settings:  settings,
		rng:       rng,
		stop:      make(chan struct{}),
	}
	r.logger = logger.WithField("room", r.ID)
	return r
}

// occupants returns the number of occupied sides.
func (r *Room) occupants() int {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	return len(r.Players)
}

// CurrentStatus returns the room status.
func (r *Room) CurrentStatus() Status {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	return r.Status
}

// addPlayerLocked seats a client. Seating a third occupant is an invariant
// violation and is refused rather than raised.
func (r *Room) addPlayerLocked(side Side, c *Client) bool {
	if len(r.Players) >= 2 || r.Players[side] != nil || r.Status != StatusWaiting {
		r.logger.Warnf("refusing to seat %s on %s side: status=%s occupants=%d", c.UserID, side, r.Status, len(r.Players))
		return false
	}
	r.Players[side] = c
	return true
}

// beginPlayLocked transitions waiting -> playing and starts the tick loop.
// Called exactly when the second side is assigned.
func (r *Room) beginPlayLocked() {
	if r.Status != StatusWaiting || len(r.Players) != 2 {
		return
	}
	if r.waitTimer != nil {
		r.waitTimer.Stop()
		r.waitTimer = nil
	}
	r.Status = StatusPlaying
	r.lastTick = time.Time{}
	r.logger.Infof("match started: %s vs %s", r.Players[SideLeft].UserID, r.Players[SideRight].UserID)
	r.record("game_started", "", false)
	r.broadcastLocked(Event{
		Type:      EventGameStarted,
		RoomID:    r.ID.String(),
		GameState: r.snapshotLocked(),
	})
	go r.run()
}

// run is the per-room tick loop. It owns no state directly; every tick takes
// the room lock, advances the simulation and broadcasts. It exits when the
// stop channel closes.
func (r *Room) run() {
	ticker := time.NewTicker(r.settings.tickInterval())
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case now := <-ticker.C:
			r.tick(now)
		}
	}
}

// Stop cancels the tick loop. Safe to call any number of times; the channel
// closes exactly once.
func (r *Room) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

func (r *Room) tick(now time.Time) {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	if r.Status != StatusPlaying {
		return
	}
	dt := 1.0 / float64(r.settings.TickRate)
	if !r.lastTick.IsZero() {
		dt = now.Sub(r.lastTick).Seconds()
	}
	r.lastTick = now
	r.stepLocked(dt)
	// A tick that ended the game already broadcast its terminal event; no
	// update must follow it.
	if r.Status == StatusPlaying {
		r.broadcastLocked(Event{Type: EventGameUpdate, GameState: r.snapshotLocked()})
	}
}

// ApplyInput records a directional key transition for one side. Messages for
// rooms that are not playing are no-ops. The first pressed directional input
// while the ball is dormant serves it.
func (r *Room) ApplyInput(side Side, dir Direction, pressed bool) {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	if r.Status != StatusPlaying {
		return
	}
	in := r.Inputs[side]
	if in == nil {
		return
	}
	switch dir {
	case DirUp:
		in.Up = pressed
		in.Down = false
	case DirDown:
		in.Down = pressed
		in.Up = false
	case DirStop:
		in.Up = false
		in.Down = false
	default:
		return
	}
	if pressed && dir != DirStop && !r.BallActive {
		r.serveLocked()
	}
}

// serveLocked activates the dormant ball: horizontal direction is a coin
// flip, the lateral component is drawn from the configured spread. This is
// the only nondeterministic moment in the simulation; the rand source is
// injected so tests can pin both branches.
func (r *Room) serveLocked() {
	vx := r.settings.BallSpeed
	if r.rng.Intn(2) == 0 {
		vx = -vx
	}
	r.Ball.VX = vx
	r.Ball.VY = (r.rng.Float64()*2 - 1) * r.settings.ServeSpread
	r.BallActive = true
}

// HandleLeave removes a side's occupant after a voluntary leave or transport
// close. A waiting room is torn down silently (there is no opponent to
// declare a winner); a playing room awards the remaining side a forfeit win.
// Returns true when the room is now empty and should be deregistered.
func (r *Room) HandleLeave(side Side) bool {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	leaver := r.Players[side]
	if leaver == nil {
		return len(r.Players) == 0
	}
	delete(r.Players, side)
	if r.waitTimer != nil {
		r.waitTimer.Stop()
		r.waitTimer = nil
	}
	switch r.Status {
	case StatusWaiting:
		r.logger.Infof("player %s left while waiting; room discarded", leaver.UserID)
	case StatusPlaying:
		// A fair live match cannot continue with a missing participant.
		r.logger.Infof("player %s left mid-match; %s wins by forfeit", leaver.UserID, side.Opponent())
		r.finishLocked(side.Opponent(), true)
	case StatusFinished:
		// Nothing to do; the terminal broadcast already fired.
	}
	return len(r.Players) == 0
}

// finishLocked transitions to the terminal state and emits exactly one
// termination broadcast. The status gate guarantees a score-based ending and
// a near-simultaneous disconnect can never double-fire.
func (r *Room) finishLocked(winner Side, byForfeit bool) {
	if r.Status == StatusFinished {
		return
	}
	r.Status = StatusFinished
	r.Stop()
	score := r.scoreStateLocked()
	if byForfeit {
		r.broadcastLocked(Event{
			Type:    EventEndGame,
			Message: "opponent left the game",
			Winner:  winner.Label(),
		})
	} else {
		r.broadcastLocked(Event{
			Type:       EventGameOver,
			Winner:     winner.Label(),
			FinalScore: &score,
		})
	}
	r.record("game_finished", winner.Label(), byForfeit)
}

// expire tears down a room whose opponent never arrived. The sole occupant is
// told the match is over with no winner declared.
func (r *Room) expire() bool {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	if r.Status != StatusWaiting {
		return false
	}
	r.logger.Info("waiting room expired without an opponent")
	r.Status = StatusFinished
	r.Stop()
	r.broadcastLocked(Event{
		Type:    EventEndGame,
		Message: "no opponent joined in time",
	})
	return true
}

// broadcastLocked sends an event to every occupied side. Delivery failures
// are a per-recipient concern handled inside the client's send function; one
// dead connection never blocks the other or the tick loop.
func (r *Room) broadcastLocked(ev Event) {
	for _, c := range r.Players {
		c.send(ev)
	}
}

func (r *Room) snapshotLocked() *GameState {
	score := r.scoreStateLocked()
	return &GameState{
		Ball:    r.Ball,
		Player1: PaddleState{Y: r.Paddles[SideLeft]},
		Player2: PaddleState{Y: r.Paddles[SideRight]},
		Score:   score,
	}
}

func (r *Room) scoreStateLocked() ScoreState {
	return ScoreState{Player1: r.Score[SideLeft], Player2: r.Score[SideRight]}
}

// record publishes a match lifecycle record to the history feed, if one is
// attached. Fire-and-forget; the simulation never waits on it.
func (r *Room) record(event, winner string, forfeit bool) {
	if r.publish == nil {
		return
	}
	rec := history.MatchRecord{
		RoomID:    r.ID,
		Event:     event,
		Winner:    winner,
		Forfeit:   forfeit,
		Score:     map[string]int{"player1": r.Score[SideLeft], "player2": r.Score[SideRight]},
		Timestamp: time.Now().Unix(),
	}
	if p := r.Players[SideLeft]; p != nil {
		rec.Player1 = p.UserID
	}
	if p := r.Players[SideRight]; p != nil {
		rec.Player2 = p.UserID
	}
	go r.publish(rec)
}
