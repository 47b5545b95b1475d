package world

import "time"

// Clock is the monotonically advancing simulation time. Periodic triggers
// (planner day boundary, ecology virtual tick) derive from it, never from
// wall clock, so replays stay reproducible.
type Clock struct {
	elapsed   time.Duration
	dayLength time.Duration
}

func NewClock(dayLength time.Duration) *Clock {
	return &Clock{dayLength: dayLength}
}

func (c *Clock) Advance(dt time.Duration) {
	c.elapsed += dt
}

func (c *Clock) Elapsed() time.Duration { return c.elapsed }

// SetElapsed restores the clock from a saved snapshot.
func (c *Clock) SetElapsed(d time.Duration) { c.elapsed = d }

func (c *Clock) DayLength() time.Duration { return c.dayLength }

// Day is the whole number of in-game days elapsed.
func (c *Clock) Day() int {
	return int(c.elapsed / c.dayLength)
}

// HourOfDay is the in-game hour within the current day, [0, 24).
func (c *Clock) HourOfDay() float64 {
	within := c.elapsed % c.dayLength
	return 24 * float64(within) / float64(c.dayLength)
}
