// Package telemetry implements the outbound CombatLog event stream and the
// PopulationStats/KillStats/FactionStats counters named in spec §6, plus
// performance timing and CSV export. Grounded on the teacher's telemetry
// package: same collector/stats/output shape, percentile math delegated to
// gonum/stat instead of the teacher's hand-rolled Percentile helper.
package telemetry

import "github.com/pthm-cable/holdfast/components"

// EventKind enumerates the CombatLog's event variants (spec §6: "CombatLog
// append-only event stream (Kill, Spawn, LevelUp, Harvest, Destroy)").
type EventKind uint8

const (
	EventKill EventKind = iota
	EventSpawn
	EventLevelUp
	EventHarvest
	EventDestroy
)

// String returns the display name for an event kind.
func (k EventKind) String() string {
	names := [...]string{"Kill", "Spawn", "LevelUp", "Harvest", "Destroy"}
	if int(k) < len(names) {
		return names[k]
	}
	return "Unknown"
}

// Event is one CombatLog entry. Not every field applies to every kind:
// Slot is the subject (the NPC killed/spawned/leveled, or the harvester);
// Other is the secondary actor (killer for Kill, or -1); Amount is the XP
// granted, the new level, or the food/gold yield, depending on Kind. Job and
// Faction are the subject's, captured at push time rather than looked up
// later — by the time a window is flushed, a killed or destroyed subject may
// already be despawned and unavailable to query.
type Event struct {
	Kind    EventKind
	Tick    int32
	Slot    int32
	Other   int32
	Amount  float32
	Job     components.Job
	Faction components.Faction
}

// EventLog is an append-only per-frame event queue, drained by the output
// layer once per window. Mirrors messages.Buffer's push/drain shape — the
// same "single owning queue per producer, drained at one defined phase"
// idiom spec §9 names for cross-system communication, applied here to
// telemetry instead of GPU-update messages.
type EventLog struct {
	events []Event
}

// NewEventLog creates an empty event log.
func NewEventLog() *EventLog {
	return &EventLog{}
}

// Push appends an event.
func (l *EventLog) Push(e Event) {
	l.events = append(l.events, e)
}

// Events returns the queued events without draining them.
func (l *EventLog) Events() []Event {
	return l.events
}

// Drain returns the queued events and resets the log.
func (l *EventLog) Drain() []Event {
	out := l.events
	l.events = nil
	return out
}
