// internal/game/physics.go
package game

import "math"

// motionHz anchors the speed constants: a speed of 0.65 means 0.65 units per
// tick at 60 Hz regardless of the actual tick cadence.
const motionHz = 60

// paddleEpsilon is how far outside a paddle's face the ball is repositioned
// after a hit, so it cannot stick to or tunnel through the paddle next tick.
const paddleEpsilon = 0.01

// stepLocked advances the simulation by dt seconds: paddle integration, ball
// integration, wall and paddle collisions, scoring and the finished check.
// Caller holds the room lock and has verified Status == playing.
func (r *Room) stepLocked(dt float64) {
	scale := dt * motionHz
	r.movePaddlesLocked(scale)
	if r.BallActive {
		r.Ball.X += r.Ball.VX * scale
		r.Ball.Y += r.Ball.VY * scale
	}
	r.bounceWallsLocked()
	r.bouncePaddlesLocked()
	r.resolveGoalLocked()
}

func (r *Room) movePaddlesLocked(scale float64) {
	limit := r.settings.paddleLimit()
	for side, in := range r.Inputs {
		if in.Up == in.Down {
			continue
		}
		dy := r.settings.PaddleSpeed * scale
		if in.Down {
			dy = -dy
		}
		y := r.Paddles[side] + dy
		if y > limit {
			y = limit
		} else if y < -limit {
			y = -limit
		}
		r.Paddles[side] = y
	}
}

// bounceWallsLocked reflects the ball elastically off the top and bottom
// edges, keeping it inside the margin.
func (r *Room) bounceWallsLocked() {
	wall := r.settings.TableDepth/2 - r.settings.WallMargin
	if r.Ball.Y > wall {
		r.Ball.Y = wall
		r.Ball.VY = -r.Ball.VY
	} else if r.Ball.Y < -wall {
		r.Ball.Y = -wall
		r.Ball.VY = -r.Ball.VY
	}
}

// bouncePaddlesLocked checks each paddle plane. A hit inverts the forward
// velocity and deflects the lateral velocity in proportion to where on the
// paddle the contact occurred: center contact adds nothing, edge contact adds
// the full deflect factor.
func (r *Room) bouncePaddlesLocked() {
	plane := r.settings.paddlePlane()
	half := r.settings.PaddleDepth / 2
	if r.Ball.VX > 0 && r.Ball.X >= plane {
		if off := r.Ball.Y - r.Paddles[SideRight]; math.Abs(off) <= half {
			r.Ball.VX = -r.Ball.VX
			r.Ball.VY += (off / half) * r.settings.Deflect
			r.Ball.X = plane - paddleEpsilon
		}
	} else if r.Ball.VX < 0 && r.Ball.X <= -plane {
		if off := r.Ball.Y - r.Paddles[SideLeft]; math.Abs(off) <= half {
			r.Ball.VX = -r.Ball.VX
			r.Ball.VY += (off / half) * r.settings.Deflect
			r.Ball.X = -plane + paddleEpsilon
		}
	}
}

// resolveGoalLocked scores a goal when the ball crosses either end of the
// table. Exactly one side's counter increments, the ball resets dormant at
// center, and the match ends once the winning threshold is reached.
func (r *Room) resolveGoalLocked() {
	half := r.settings.TableWidth / 2
	var scorer Side
	switch {
	case r.Ball.X > half:
		scorer = SideLeft
	case r.Ball.X < -half:
		scorer = SideRight
	default:
		return
	}
	r.Score[scorer]++
	r.Ball = BallState{}
	r.BallActive = false
	score := r.scoreStateLocked()
	r.logger.Debugf("goal for %s (%d-%d)", scorer.Label(), score.Player1, score.Player2)
	r.broadcastLocked(Event{
		Type:   EventGoal,
		Scorer: scorer.Label(),
		Score:  &score,
	})
	r.record("goal", scorer.Label(), false)
	if r.Score[scorer] >= r.settings.WinScore {
		r.finishLocked(scorer, false)
	}
}
