package telemetry

import (
	"github.com/pthm-cable/holdfast/components"
	"github.com/pthm-cable/holdfast/simworld"
)

// Collector accumulates CombatLog events within a time window and, on
// flush, pairs them with a live population snapshot to produce
// PopulationStats/KillStats/FactionStats. Mirrors the teacher's
// Collector's windowed-counters-plus-Flush-snapshot shape, generalized
// from bite/birth/death counters to the event-log drain below.
type Collector struct {
	World *simworld.World
	Log   *EventLog

	windowDurationTicks int32
	dt                  float32
	windowStartTick     int32
}

// NewCollector creates a collector over w, flushing every windowDurationSec
// simulation seconds (dt seconds per tick).
func NewCollector(w *simworld.World, log *EventLog, windowDurationSec float64, dt float32) *Collector {
	ticksPerWindow := int32(windowDurationSec/float64(dt) + 0.5)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}
	return &Collector{
		World:               w,
		Log:                 log,
		windowDurationTicks: ticksPerWindow,
	}
}

// ShouldFlush reports whether enough ticks have passed to close the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush snapshots the live population and drains the event log, producing
// one row each of PopulationStats/KillStats/FactionStats for the closed
// window, and resets the window start for the next one.
func (c *Collector) Flush(currentTick int32) (PopulationStats, KillStats, FactionStats) {
	pop := PopulationStats{WindowEndTick: currentTick}
	faction := FactionStats{WindowEndTick: currentTick}

	energies := make([]float64, 0, 64)
	levels := make([]float64, 0, 64)

	q := c.World.Filter.Query()
	for q.Next() {
		_, _, id, health, _, _, energy := q.Get()
		if health.Dead {
			continue
		}
		pop.CountJob(id.Job)
		faction.CountAlive(id.Faction)
		energies = append(energies, float64(energy.Value))
		levels = append(levels, float64(energy.Level))
	}
	pop.EnergyMean, pop.EnergyP10, pop.EnergyP50, pop.EnergyP90 = Percentiles(energies)
	levelMean, _, _, _ := Percentiles(levels)
	pop.LevelMean = levelMean

	kill := KillStats{WindowEndTick: currentTick}
	for _, e := range c.Log.Drain() {
		switch e.Kind {
		case EventKill:
			kill.CountVictim(e.Job)
			faction.CountDeath(e.Faction)
			if e.Other >= 0 {
				if killerFaction, ok := c.factionOf(e.Other); ok {
					faction.CountKill(killerFaction)
				}
			}
		case EventDestroy:
			faction.CountDeath(e.Faction)
		}
	}

	c.windowStartTick = currentTick
	return pop, kill, faction
}

// factionOf looks up a still-live slot's faction, used to credit a kill to
// the killer's faction (the killer, unlike the victim, is still alive at
// drain time so this doesn't need denormalizing onto the event).
func (c *Collector) factionOf(slot int32) (components.Faction, bool) {
	if !c.World.Alive(slot) {
		return 0, false
	}
	_, _, id, _, _, _, _ := c.World.Get(slot)
	return id.Faction, true
}
