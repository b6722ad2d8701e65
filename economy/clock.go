package economy

import "github.com/pthm-cable/holdfast/config"

// Clock accumulates game time (spec §4.7: "accumulate delta*time_scale
// while unpaused; set an hour_ticked flag on hour boundaries for per-hour
// systems"). One game hour elapses every Cfg.World.SecondsPerGameHour
// seconds of unpaused simulated time.
type Clock struct {
	Hour       float32
	TimeScale  float32
	Paused     bool
	HourTicked bool

	cfg *config.Config
}

// NewClock creates a clock running at 1x speed, unpaused.
func NewClock(cfg *config.Config) *Clock {
	return &Clock{TimeScale: 1, cfg: cfg}
}

// Tick advances game time by dt real seconds, scaled by TimeScale, and
// raises HourTicked exactly once per hour boundary crossed. Paused clocks
// do not advance (spec §5: "Pause sets compute delta to 0").
func (c *Clock) Tick(dt float32) {
	c.HourTicked = false
	if c.Paused {
		return
	}
	secondsPerHour := float32(c.cfg.World.SecondsPerGameHour)
	if secondsPerHour <= 0 {
		return
	}
	before := c.Hour
	c.Hour += dt * c.TimeScale / secondsPerHour
	if int64(c.Hour) > int64(before) {
		c.HourTicked = true
	}
}
