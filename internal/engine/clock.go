package engine

import (
	"math"
	"time"
)

// Clock is the game clock as seen by one decision.
type Clock interface {
	// Elapsed is the time spent on the current decision so far.
	Elapsed() time.Duration
	// Remaining is the time left on the mover's clock for the rest of the game.
	Remaining() time.Duration
}

// TurnClock starts measuring when it is created.
type TurnClock struct {
	start     time.Time
	remaining time.Duration
}

// NewTurnClock returns a clock for a turn with remaining time on the clock.
func NewTurnClock(remaining time.Duration) *TurnClock {
	return &TurnClock{start: time.Now(), remaining: remaining}
}

func (c *TurnClock) Elapsed() time.Duration   { return time.Since(c.start) }
func (c *TurnClock) Remaining() time.Duration { return c.remaining }

type unlimited struct{}

func (unlimited) Elapsed() time.Duration   { return 0 }
func (unlimited) Remaining() time.Duration { return math.MaxInt64 }

// Unlimited never runs out. Use it with a depth or node limit.
var Unlimited Clock = unlimited{}

// budget is how long one decision may think.
func budget(clock Clock, limits SearchLimits, divisor int) time.Duration {
	if limits.MoveTime > 0 {
		return limits.MoveTime
	}
	return clock.Remaining() / time.Duration(divisor)
}
