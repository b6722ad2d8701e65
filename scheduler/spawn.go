package scheduler

import (
	"github.com/pthm-cable/holdfast/combat"
	"github.com/pthm-cable/holdfast/components"
	"github.com/pthm-cable/holdfast/jobs"
	"github.com/pthm-cable/holdfast/messages"
	"github.com/pthm-cable/holdfast/slotalloc"
	"github.com/pthm-cable/holdfast/telemetry"
	"github.com/pthm-cable/holdfast/worldstate"
)

// applySpawn implements spec §4.2 step 3: assigns a slot, inserts the core
// components plus any optional ones the job needs, and emits the initial
// GPU update messages a freshly spawned NPC requires to appear next frame
// (SetPosition, SetTarget, SetSpeed, SetFaction, SetHealth, and SetFlags
// when a flag bit is set). No SetSpriteFrame message is emitted. Soft-drops
// (spec §7 "capacity exceeded") when the slot allocator is full.
func (s *Scheduler) applySpawn(r SpawnRequest, buf *messages.Buffer) int32 {
	profile := jobs.For(r.Job)
	stats := combat.ResolveStats(r.Job, 0)

	id := components.Identity{Faction: r.Faction, TownID: r.TownID, Job: r.Job}
	health := components.Health{Current: stats.MaxHP, Max: stats.MaxHP, LastHitBy: components.NoAttacker}
	combatRuntime := components.CombatRuntime{Stats: stats, Target: -1}
	activity := components.ActivityState{Kind: components.ActivityIdle}
	energy := components.Energy{Value: 100}
	pos := components.Position{X: r.X, Y: r.Y}
	motion := components.Motion{GoalX: r.X, GoalY: r.Y, Speed: stats.Speed}

	slot := s.World.SpawnNPC(pos, motion, id, health, combatRuntime, activity, energy)
	if slot == slotalloc.Full {
		return slotalloc.Full
	}

	if r.HomeX != 0 || r.HomeY != 0 || r.WorkX != 0 || r.WorkY != 0 || r.WorkBuildingIdx >= 0 {
		e := s.World.Entity(slot)
		s.World.Behavior().Add(e, &components.BehaviorConfig{
			FleeThreshold:    profile.FleeThreshold,
			LeashRange:       profile.LeashRange,
			WoundedThreshold: profile.WoundedThreshold,
			Stealer:          profile.Stealer,
			WorkPos:          components.Position{X: r.WorkX, Y: r.WorkY},
			HomePos:          components.Position{X: r.HomeX, Y: r.HomeY},
			WorkBuildingIdx:  r.WorkBuildingIdx,
		})
	}

	if r.LinkBuilding >= 0 && int(r.LinkBuilding) < len(s.State.Buildings) {
		s.State.Buildings[r.LinkBuilding].SpawnerSlot = slot
		s.spawnerTemplates[r.LinkBuilding] = r
	}

	buf.Push(messages.NewSetPosition(slot, r.X, r.Y))
	buf.Push(messages.NewSetTarget(slot, r.X, r.Y))
	buf.Push(messages.NewSetSpeed(slot, stats.Speed))
	buf.Push(messages.NewSetFaction(slot, int32(r.Faction)))
	buf.Push(messages.NewSetHealth(slot, health.Current))

	var flags uint32
	if profile.Shooter || r.Job.IsCombatJob() {
		flags |= messages.FlagCombatScan
	}
	if flags != 0 {
		buf.Push(messages.NewSetFlags(slot, flags))
	}

	if s.Events != nil {
		s.Events.Push(telemetry.Event{Kind: telemetry.EventSpawn, Tick: s.tick, Slot: slot, Job: r.Job, Faction: r.Faction})
	}
	s.Lifetimes.Register(slot, s.tick, r.Job)

	return slot
}

// applyReassignJob implements spec §6's ReassignJobMsg: a jobs.Table
// lookup plus a ResolveStats recompute, pushed to the cached CombatRuntime
// and re-synced to the GPU health/speed fields the way a level-up does
// (combat.Pipeline.stepXPGrant).
func (s *Scheduler) applyReassignJob(r ReassignJobRequest, buf *messages.Buffer) {
	if !s.World.Alive(r.Slot) {
		return
	}
	_, motion, id, health, combatRuntime, _, energy := s.World.Get(r.Slot)
	id.Job = r.Job
	oldMax := combatRuntime.Stats.MaxHP
	newStats := combat.ResolveStats(r.Job, energy.Level)
	combatRuntime.Stats = newStats
	if oldMax > 0 {
		health.Current = health.Current / oldMax * newStats.MaxHP
	}
	health.Max = newStats.MaxHP
	motion.Speed = newStats.Speed

	buf.Push(messages.NewSetHealth(r.Slot, health.Current))
	buf.Push(messages.NewSetSpeed(r.Slot, newStats.Speed))
}

// applyBuildCommand appends a building record; buildings that need GPU
// collision (towers, raid targets) additionally occupy an NPC slot via
// BuildingLink (spec §4.3's "buildings masquerading as hidden, zero-speed
// NPC slots"). Waypoints get the same zero-speed slot treatment (spec §4.5
// step 7, "waypoint slot sync") but with 999 HP and no combat flags, since
// they patrol-post NPCs pathing and never fight or fire back.
func (s *Scheduler) applyBuildCommand(c BuildCommand, buf *messages.Buffer) int32 {
	kind := worldstate.BuildingKind(c.Kind)
	idx := s.State.AddBuilding(worldstate.Building{
		Kind: kind, X: c.X, Y: c.Y, TownID: c.TownID,
		HP: 100, MaxHP: 100, LinkedSlot: -1, SpawnerSlot: -1,
	})

	needsSlot := kind.IsMilitary() || kind.IsTower() || kind == worldstate.BuildingWaypoint
	if !needsSlot {
		return idx
	}

	var faction components.Faction = components.FactionNeutral
	if int(c.TownID) >= 0 && int(c.TownID) < len(s.State.Towns) {
		faction = s.State.Towns[c.TownID].Faction
	}

	hp := float32(100)
	if kind == worldstate.BuildingWaypoint {
		hp = 999
	}

	slot := s.World.SpawnNPC(
		components.Position{X: c.X, Y: c.Y}, components.Motion{},
		components.Identity{Faction: faction, TownID: c.TownID},
		components.Health{Current: hp, Max: hp, LastHitBy: components.NoAttacker},
		components.CombatRuntime{Target: -1},
		components.ActivityState{}, components.Energy{},
	)
	if slot == slotalloc.Full {
		return idx
	}
	s.State.Buildings[idx].LinkedSlot = slot
	e := s.World.Entity(slot)
	s.World.BuildingLink().Add(e, &components.BuildingLink{BuildingIndex: idx, Tower: kind.IsTower()})

	buf.Push(messages.NewSetPosition(slot, c.X, c.Y))
	buf.Push(messages.NewSetTarget(slot, c.X, c.Y))
	buf.Push(messages.NewSetSpeed(slot, 0))
	buf.Push(messages.NewSetFaction(slot, int32(faction)))
	buf.Push(messages.NewSetHealth(slot, hp))

	var flags uint32
	if kind != worldstate.BuildingWaypoint {
		flags |= messages.FlagCombatScan
	}
	if kind.IsTower() {
		flags |= messages.FlagTower
	}
	buf.Push(messages.NewSetFlags(slot, flags))

	return idx
}

// destroyPickRadius bounds the "nearest building to the click" search
// DestroyCommand performs; the UI build editor that issues these commands
// is explicitly out of scope (spec §1 Non-goals), so this only needs to be
// generous enough for a point-and-click target, not configurable.
const destroyPickRadius = 40

// applyDestroyCommand tombstones the nearest building to (X,Y) within
// destroyPickRadius, hiding and freeing its linked NPC slot if it has one.
func (s *Scheduler) applyDestroyCommand(c DestroyCommand, buf *messages.Buffer) {
	candidates := s.State.BuildGrid.QueryRadius(nil, c.X, c.Y, destroyPickRadius,
		func(idx int32) bool { return !s.State.Buildings[idx].Tombstoned },
		func(idx int32) (float32, float32) { return s.State.Buildings[idx].X, s.State.Buildings[idx].Y },
	)
	if len(candidates) == 0 {
		return
	}

	best := candidates[0]
	bestDistSq := distSq(c.X, c.Y, s.State.Buildings[best].X, s.State.Buildings[best].Y)
	for _, idx := range candidates[1:] {
		d := distSq(c.X, c.Y, s.State.Buildings[idx].X, s.State.Buildings[idx].Y)
		if d < bestDistSq {
			best, bestDistSq = idx, d
		}
	}

	b := &s.State.Buildings[best]
	linked := b.LinkedSlot
	s.State.DestroyBuilding(best)
	if linked >= 0 {
		buf.Push(messages.NewHideNpc(linked))
		if s.World.Alive(linked) {
			s.World.DespawnNPC(linked)
		}
	}
}

func distSq(x1, y1, x2, y2 float32) float32 {
	dx, dy := x1-x2, y1-y2
	return dx*dx + dy*dy
}
