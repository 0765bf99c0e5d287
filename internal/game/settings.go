// internal/game/settings.go
package game

import "time"

// Settings holds the tunable simulation parameters for a room. Speeds are
// table-relative units per tick at the nominal 60 Hz rate; integration scales
// them by deltaTime*60 so motion stays consistent under tick jitter.
type Settings struct {
	WinScore int // score threshold that ends the match

	TickRate int // simulation ticks per second

	TableWidth  float64 // extent along the ball's forward (x) axis
	TableDepth  float64 // extent along the lateral (y) axis
	WallMargin  float64 // reflection margin inside the top/bottom edges
	PaddleDepth float64 // paddle extent along the lateral axis
	PaddleGap   float64 // distance of each paddle plane from its table edge

	BallSpeed   float64
	PaddleSpeed float64
	ServeSpread float64 // max magnitude of the randomized serve vy
	Deflect     float64 // lateral velocity added at full paddle-edge contact

	// WaitTTL is how long a waiting room may sit without an opponent before
	// its occupant is released. Zero disables the timeout.
	WaitTTL time.Duration
}

// DefaultSettings returns the canonical parameters: 60 Hz ticks, first to 3.
func DefaultSettings() Settings {
	return Settings{
		WinScore:    3,
		TickRate:    60,
		TableWidth:  20,
		TableDepth:  12,
		WallMargin:  0.5,
		PaddleDepth: 3,
		PaddleGap:   1,
		BallSpeed:   0.65,
		PaddleSpeed: 0.65,
		ServeSpread: 0.25,
		Deflect:     0.35,
	}
}

func (s Settings) tickInterval() time.Duration {
	rate := s.TickRate
	if rate <= 0 {
		rate = 60
	}
	return time.Second / time.Duration(rate)
}

// paddleLimit is the max paddle offset: the paddle may never extend past the
// playable edge, so its center stays half a paddle short of the wall.
func (s Settings) paddleLimit() float64 {
	return s.TableDepth/2 - s.WallMargin - s.PaddleDepth/2
}

// paddlePlane is the x coordinate of the right paddle's face; the left
// paddle's face is its negation.
func (s Settings) paddlePlane() float64 {
	return s.TableWidth/2 - s.PaddleGap
}
