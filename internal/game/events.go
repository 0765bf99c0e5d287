// internal/game/events.go
package game

// Side identifies one of the two participants in a room.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == SideLeft {
		return SideRight
	}
	return SideLeft
}

// Label returns the wire name for a side: left is "player1", right is "player2".
func (s Side) Label() string {
	if s == SideLeft {
		return "player1"
	}
	return "player2"
}

// Status is the room lifecycle state.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Direction is a paddle movement command from a client.
type Direction string

const (
	DirUp   Direction = "up"
	DirDown Direction = "down"
	DirStop Direction = "stop"
)

// EventType discriminates outbound messages.
type EventType string

const (
	EventRoomCreated EventType = "room_created"
	EventRoomJoined  EventType = "room_joined"
	EventGameStarted EventType = "game_started"
	EventGameUpdate  EventType = "game_update"
	EventGoal        EventType = "goal"
	EventGameOver    EventType = "game_over"
	EventEndGame     EventType = "end_game"
)

// BallState is the ball's position and velocity in table-relative units.
type BallState struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`
}

// PaddleState is a paddle's vertical offset from the table center.
type PaddleState struct {
	Y float64 `json:"y"`
}

// ScoreState carries both sides' scores keyed by wire name.
type ScoreState struct {
	Player1 int `json:"player1"`
	Player2 int `json:"player2"`
}

// GameState is the full per-tick snapshot broadcast to both participants.
type GameState struct {
	Ball    BallState   `json:"ball"`
	Player1 PaddleState `json:"player1"`
	Player2 PaddleState `json:"player2"`
	Score   ScoreState  `json:"score"`
}

// Event is the closed union of every outbound message. The Type field selects
// which of the optional fields are populated; everything else is omitted from
// the encoded JSON.
type Event struct {
	Type       EventType   `json:"type"`
	RoomID     string      `json:"roomId,omitempty"`
	Side       Side        `json:"side,omitempty"`
	Status     Status      `json:"status,omitempty"`
	UserID     string      `json:"userId,omitempty"`
	OpponentID string      `json:"opponentId,omitempty"`
	GameState  *GameState  `json:"gameState,omitempty"`
	Scorer     string      `json:"scorer,omitempty"`
	Score      *ScoreState `json:"score,omitempty"`
	Winner     string      `json:"winner,omitempty"`
	FinalScore *ScoreState `json:"finalScore,omitempty"`
	Message    string      `json:"message,omitempty"`
}
