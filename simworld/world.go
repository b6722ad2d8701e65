// Package simworld wires the mlange-42/ark ECS world to the slot model:
// NPC slots double as ark entities, kept in lockstep through a pair of
// slot<->entity maps alongside the ECS world itself, matching the
// teacher's `brains map[uint32]*neural.FFNN` keyed-by-ID-alongside-ark
// pattern (game/game.go) generalized from a side-table of brains to the
// side-table of slot identity every GPU buffer and wire message needs.
package simworld

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/holdfast/components"
	"github.com/pthm-cable/holdfast/slotalloc"
)

// coreMapper/coreFilter bundle the seven components every live NPC carries
// and every per-frame system touches, mirroring game.Game's entityMapper/
// entityFilter Map7/Filter7 pair.
type coreMapper = ecs.Map7[
	components.Position,
	components.Motion,
	components.Identity,
	components.Health,
	components.CombatRuntime,
	components.ActivityState,
	components.Energy,
]

type coreFilter = ecs.Filter7[
	components.Position,
	components.Motion,
	components.Identity,
	components.Health,
	components.CombatRuntime,
	components.ActivityState,
	components.Energy,
]

// World owns the ark ECS world, the core bundled mapper/filter, the
// optional per-variant component maps, and slot<->entity bookkeeping.
type World struct {
	Ark *ecs.World

	core *coreMapper
	// Filter is the bundled core-component query (Position, Motion,
	// Identity, Health, CombatRuntime, ActivityState, Energy). Callers
	// iterate with `q := w.Filter.Query(); for q.Next() { ... }`, mirroring
	// game.Game's entityFilter usage.
	Filter *coreFilter

	personalityMap *ecs.Map[components.Personality]
	visualMap      *ecs.Map[components.Visual]
	behaviorMap    *ecs.Map[components.BehaviorConfig]
	buildingMap    *ecs.Map[components.BuildingLink]

	NPCSlots *slotalloc.Allocator
	slotToEntity []ecs.Entity
	entityToSlot map[ecs.Entity]int32
}

// New creates an empty simulation world sized for maxNPCs slots.
func New(maxNPCs int) *World {
	ark := ecs.NewWorld()
	w := &World{
		Ark:          ark,
		core:         ecs.NewMap7[components.Position, components.Motion, components.Identity, components.Health, components.CombatRuntime, components.ActivityState, components.Energy](ark),
		Filter:       ecs.NewFilter7[components.Position, components.Motion, components.Identity, components.Health, components.CombatRuntime, components.ActivityState, components.Energy](ark),
		personalityMap: ecs.NewMap[components.Personality](ark),
		visualMap:      ecs.NewMap[components.Visual](ark),
		behaviorMap:    ecs.NewMap[components.BehaviorConfig](ark),
		buildingMap:    ecs.NewMap[components.BuildingLink](ark),
		NPCSlots:     slotalloc.New(maxNPCs),
		slotToEntity: make([]ecs.Entity, maxNPCs),
		entityToSlot: make(map[ecs.Entity]int32, maxNPCs),
	}
	return w
}

// SpawnNPC allocates a slot, inserts the seven core components, and links
// slot<->entity. Returns slotalloc.Full if the allocator is exhausted (a
// soft drop per spec §4.1, never a panic).
func (w *World) SpawnNPC(pos components.Position, motion components.Motion, id components.Identity, health components.Health, combat components.CombatRuntime, activity components.ActivityState, energy components.Energy) int32 {
	slot := w.NPCSlots.Alloc()
	if slot == slotalloc.Full {
		return slotalloc.Full
	}
	id.Slot = int32(slot)
	e := w.core.NewEntity(&pos, &motion, &id, &health, &combat, &activity, &energy)
	w.slotToEntity[slot] = e
	w.entityToSlot[e] = int32(slot)
	return int32(slot)
}

// DespawnNPC removes the ECS entity for slot and frees the slot for reuse.
// Per spec §4.5 step 6, callers must have already released occupancy,
// emitted HideNpc, and updated counters; this only unwinds ECS/slot state.
func (w *World) DespawnNPC(slot int32) {
	e := w.slotToEntity[slot]
	if w.Ark.Alive(e) {
		w.Ark.RemoveEntity(e)
	}
	delete(w.entityToSlot, e)
	w.slotToEntity[slot] = ecs.Entity{}
	w.NPCSlots.Free(int(slot))
}

// Entity returns the live ark entity for slot.
func (w *World) Entity(slot int32) ecs.Entity {
	return w.slotToEntity[slot]
}

// Alive reports whether slot is in range and currently occupied by a live
// entity, the bounds-safe check combat/decision validators need before
// reading a GPU-supplied slot index that may reference a freed slot.
func (w *World) Alive(slot int32) bool {
	if slot < 0 || int(slot) >= len(w.slotToEntity) {
		return false
	}
	return w.Ark.Alive(w.slotToEntity[slot])
}

// SlotOf returns the slot for a live entity, or -1 if not tracked.
func (w *World) SlotOf(e ecs.Entity) int32 {
	if s, ok := w.entityToSlot[e]; ok {
		return s
	}
	return -1
}

// Get returns the seven core component pointers for slot.
func (w *World) Get(slot int32) (*components.Position, *components.Motion, *components.Identity, *components.Health, *components.CombatRuntime, *components.ActivityState, *components.Energy) {
	return w.core.Get(w.slotToEntity[slot])
}

// Personality returns the optional Personality component map.
func (w *World) Personality() *ecs.Map[components.Personality] { return w.personalityMap }

// Visual returns the optional Visual component map.
func (w *World) Visual() *ecs.Map[components.Visual] { return w.visualMap }

// Behavior returns the optional BehaviorConfig component map.
func (w *World) Behavior() *ecs.Map[components.BehaviorConfig] { return w.behaviorMap }

// BuildingLink returns the optional BuildingLink component map, for NPC
// slots that are actually building occupants (spec §4.3).
func (w *World) BuildingLink() *ecs.Map[components.BuildingLink] { return w.buildingMap }

// Count returns the NPC slot allocator's high-water mark, used to size GPU
// dispatches (spec §4.1: "count() -> high-water mark").
func (w *World) Count() int {
	return w.NPCSlots.Count()
}
