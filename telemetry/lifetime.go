package telemetry

import "github.com/pthm-cable/holdfast/components"

// LifetimeStats tracks per-NPC statistics over its lifetime, keyed by slot.
// Dropped the teacher's clade/archetype/children fields (no neuroevolution
// lineage in this domain); kept the combat/survival/energy shape.
type LifetimeStats struct {
	BirthTick     int32
	Job           components.Job
	SurvivalTicks int32

	Kills     int
	Harvested float32

	PeakEnergy float32
}

// LifetimeTracker manages per-slot lifetime statistics.
type LifetimeTracker struct {
	stats map[int32]*LifetimeStats
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{stats: make(map[int32]*LifetimeStats)}
}

// Register creates lifetime stats for a freshly spawned slot.
func (lt *LifetimeTracker) Register(slot int32, birthTick int32, job components.Job) {
	lt.stats[slot] = &LifetimeStats{BirthTick: birthTick, Job: job}
}

// Get returns the lifetime stats for a slot, or nil if not tracked.
func (lt *LifetimeTracker) Get(slot int32) *LifetimeStats {
	return lt.stats[slot]
}

// Remove removes a slot's stats and returns them, called on despawn so the
// caller can log/export the finished record.
func (lt *LifetimeTracker) Remove(slot int32) *LifetimeStats {
	stats := lt.stats[slot]
	delete(lt.stats, slot)
	return stats
}

// RecordKill increments a slot's kill count.
func (lt *LifetimeTracker) RecordKill(slot int32) {
	if s := lt.stats[slot]; s != nil {
		s.Kills++
	}
}

// RecordHarvest adds a harvested-yield amount to a slot's cumulative total.
func (lt *LifetimeTracker) RecordHarvest(slot int32, amount float32) {
	if s := lt.stats[slot]; s != nil {
		s.Harvested += amount
	}
}

// UpdateEnergy tracks a slot's peak energy value.
func (lt *LifetimeTracker) UpdateEnergy(slot int32, energy float32) {
	if s := lt.stats[slot]; s != nil && energy > s.PeakEnergy {
		s.PeakEnergy = energy
	}
}

// UpdateSurvival updates the survival tick count based on the current tick.
func (lt *LifetimeTracker) UpdateSurvival(slot int32, currentTick int32) {
	if s := lt.stats[slot]; s != nil {
		s.SurvivalTicks = currentTick - s.BirthTick
	}
}

// Count returns the number of tracked slots.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}
