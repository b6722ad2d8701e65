// Package combat implements the chained combat pipeline (spec §4.5): a
// fixed sequence of cooldown, attack, damage, death, XP/level, cleanup, and
// tower-fire steps run once per frame with no parallelism, so a kill
// resolves fully within the frame it happens (the slot-recycling safety
// property in spec §4.1/§4.5). The waypoint-sync step is not part of this
// chain: the scheduler's build/destroy command handlers allocate and free
// waypoint slots. Grounded on the teacher's systems/feeding.go per-entity
// resolve-and-consume shape and systems/energy.go's threshold-transition
// idiom, generalized from a single bite/drain step to seven chained steps.
package combat

import (
	"math"

	"github.com/pthm-cable/holdfast/components"
	"github.com/pthm-cable/holdfast/config"
	"github.com/pthm-cable/holdfast/jobs"
	"github.com/pthm-cable/holdfast/messages"
	"github.com/pthm-cable/holdfast/simworld"
	"github.com/pthm-cable/holdfast/telemetry"
	"github.com/pthm-cable/holdfast/worldstate"
)

// Pipeline runs the combat chain over a world/state/config triple.
type Pipeline struct {
	World *simworld.World
	State *worldstate.World
	Cfg   *config.Config

	// Events is an optional CombatLog sink (spec §6); nil disables
	// telemetry, same nilable-optional-dependency pattern as
	// decision.Cascade.Econ. Tick is the caller's current frame number,
	// stamped onto any event this Run emits.
	Events *telemetry.EventLog
	Tick   int32

	pendingDamage   []pendingDamage
	pendingBuilding []pendingBuildingDamage

	Kills  int64
	Deaths int64
}

type pendingDamage struct {
	slot     int32
	amount   float32
	attacker int32
}

type pendingBuildingDamage struct {
	idx    int32
	amount float32
}

// NewPipeline builds a combat pipeline over the given world/state/config.
func NewPipeline(w *simworld.World, state *worldstate.World, cfg *config.Config) *Pipeline {
	return &Pipeline{World: w, State: state, Cfg: cfg}
}

// Run executes the seven chained steps for one frame. combatTargets is the
// prior frame's GPU targeting readback, indexed by NPC slot (spec §4.3
// binding "combat_targets"); dt is the simulation delta in seconds.
func (p *Pipeline) Run(dt float32, combatTargets []int32, buf *messages.Buffer) {
	p.stepCooldown(dt)
	p.stepAttack(dt, combatTargets, buf)
	p.stepDamage(buf)
	deadSlots := p.stepDeathMark()
	p.stepXPGrant(deadSlots, buf)
	p.stepCleanup(deadSlots, buf)
	p.stepTowerFire(dt, combatTargets, buf)
}

// Step 1: cooldown tick.
func (p *Pipeline) stepCooldown(dt float32) {
	q := p.World.Filter.Query()
	for q.Next() {
		_, _, _, health, combat, _, _ := q.Get()
		if health.Dead {
			continue
		}
		combat.AttackTimer -= dt
		if combat.AttackTimer < 0 {
			combat.AttackTimer = 0
		}
	}
}

// Step 2: attack. Validates the GPU targeting readback, drives the Fighting
// state, and fires (melee -> pending damage, ranged -> SpawnProj message).
func (p *Pipeline) stepAttack(dt float32, combatTargets []int32, buf *messages.Buffer) {
	q := p.World.Filter.Query()
	for q.Next() {
		pos, _, id, health, combat, activity, _ := q.Get()
		if health.Dead {
			continue
		}
		switch activity.Kind {
		case components.ActivityReturning, components.ActivityGoingToRest, components.ActivityResting, components.ActivityGoingToEat:
			continue
		}

		target := int32(-1)
		if int(id.Slot) < len(combatTargets) {
			target = combatTargets[id.Slot]
		}

		tx, ty, ok := p.validateNpcTarget(id.Faction, id.Slot, target)
		if ok {
			if combat.Kind != components.CombatFighting {
				combat.OriginX, combat.OriginY = pos.X, pos.Y
			}
			combat.Kind = components.CombatFighting
			combat.Target = target

			dx, dy := tx-pos.X, ty-pos.Y
			distSq := dx*dx + dy*dy
			if distSq <= combat.Stats.Range*combat.Stats.Range {
				buf.Push(messages.NewSetTarget(id.Slot, pos.X, pos.Y))
				if combat.AttackTimer <= 0 {
					combat.AttackTimer = combat.Stats.Cooldown
					p.fire(id.Slot, id.Faction, id.Job, pos.X, pos.Y, tx, ty, target, combat.Stats, buf)
				}
			}
			continue
		}

		combat.Kind = components.CombatNone
		combat.Target = -1

		profile := jobs.For(id.Job)
		if !profile.Shooter {
			continue
		}
		bIdx, bx, by, found := p.nearestEnemyBuilding(id.Faction, id.Job, pos.X, pos.Y, combat.Stats.Range)
		if found && combat.AttackTimer <= 0 {
			combat.AttackTimer = combat.Stats.Cooldown
			p.fireAtBuilding(id.Slot, id.Faction, pos.X, pos.Y, bx, by, bIdx, combat.Stats, buf)
		}
	}
}

// fire resolves a melee or ranged attack against an NPC target.
func (p *Pipeline) fire(attacker int32, faction components.Faction, job components.Job, fx, fy, tx, ty float32, target int32, stats components.CombatStats, buf *messages.Buffer) {
	switch jobs.For(job).Attack {
	case components.AttackMelee:
		p.pendingDamage = append(p.pendingDamage, pendingDamage{slot: target, amount: stats.Damage, attacker: attacker})
	case components.AttackRanged:
		buf.Push(messages.NewSpawnProj(fx, fy, tx, ty, stats.ProjectileSpeed, stats.Damage, stats.ProjectileLifetime, int32(faction), attacker))
	}
}

// fireAtBuilding always spawns a projectile: building-fallback targeting
// only applies to shooter classes per spec §4.5 step 2.
func (p *Pipeline) fireAtBuilding(attacker int32, faction components.Faction, fx, fy, bx, by float32, buildingIdx int32, stats components.CombatStats, buf *messages.Buffer) {
	buf.Push(messages.NewSpawnProj(fx, fy, bx, by, stats.ProjectileSpeed, stats.Damage, stats.ProjectileLifetime, int32(faction), attacker))
	_ = buildingIdx // routed to the building via the projectile hit path's slot->building map, not here
}

// validateNpcTarget implements spec §4.5 step 2's validation: not self,
// target slot mapped to a live entity, opposing non-neutral faction, and
// target health > 0.
func (p *Pipeline) validateNpcTarget(attackerFaction components.Faction, attackerSlot, target int32) (tx, ty float32, ok bool) {
	if target < 0 || target == attackerSlot {
		return 0, 0, false
	}
	if !p.World.Alive(target) {
		return 0, 0, false
	}
	tpos, _, tid, thealth, _, _, _ := p.World.Get(target)
	if thealth.Dead || thealth.Current <= 0 {
		return 0, 0, false
	}
	if !components.Hostile(attackerFaction, tid.Faction) {
		return 0, 0, false
	}
	return tpos.X, tpos.Y, true
}

// nearestEnemyBuilding implements the shooter-class building fallback: query
// the building spatial grid for the nearest hostile building within range,
// restricted to military kinds for raiders.
func (p *Pipeline) nearestEnemyBuilding(attackerFaction components.Faction, job components.Job, x, y, rng float32) (idx int32, bx, by float32, found bool) {
	candidates := p.State.BuildGrid.QueryRadius(nil, x, y, rng, func(i int32) bool {
		b := &p.State.Buildings[i]
		if b.Tombstoned {
			return false
		}
		if int(b.TownID) < 0 || int(b.TownID) >= len(p.State.Towns) {
			return false
		}
		if !components.Hostile(attackerFaction, p.State.Towns[b.TownID].Faction) {
			return false
		}
		if job == components.JobRaider && !b.Kind.IsMilitary() {
			return false
		}
		return true
	}, func(i int32) (float32, float32) {
		b := &p.State.Buildings[i]
		return b.X, b.Y
	})

	if len(candidates) == 0 {
		return 0, 0, 0, false
	}
	best := candidates[0]
	bestDistSq := float32(math.MaxFloat32)
	for _, c := range candidates {
		b := &p.State.Buildings[c]
		dx, dy := x-b.X, y-b.Y
		d2 := dx*dx + dy*dy
		if d2 < bestDistSq {
			bestDistSq = d2
			best = c
		}
	}
	b := &p.State.Buildings[best]
	return best, b.X, b.Y, true
}

// Step 3: damage apply. Drains the internal pending-damage queues filled by
// stepAttack and by the projectile-hit extraction upstream of this pipeline
// (ApplyProjectileDamage, ApplyBuildingDamage).
func (p *Pipeline) stepDamage(buf *messages.Buffer) {
	for _, d := range p.pendingDamage {
		if !p.World.Alive(d.slot) {
			continue
		}
		_, _, _, health, _, _, _ := p.World.Get(d.slot)
		health.Current -= d.amount
		if health.Current < 0 {
			health.Current = 0
		}
		health.LastHitBy = d.attacker
		buf.Push(messages.NewSetHealth(d.slot, health.Current))
		buf.Push(messages.NewSetDamageFlash(d.slot, 1.0))
	}
	for _, d := range p.pendingBuilding {
		if int(d.idx) >= len(p.State.Buildings) {
			continue
		}
		b := &p.State.Buildings[d.idx]
		if b.Tombstoned {
			continue
		}
		b.HP -= d.amount
		if b.HP > 0 {
			if b.LinkedSlot >= 0 {
				buf.Push(messages.NewSetHealth(b.LinkedSlot, b.HP))
			}
		} else {
			faction := components.Faction(-1)
			if int(b.TownID) >= 0 && int(b.TownID) < len(p.State.Towns) {
				faction = p.State.Towns[b.TownID].Faction
			}
			p.State.DestroyBuilding(d.idx)
			if b.LinkedSlot >= 0 {
				buf.Push(messages.NewHideNpc(b.LinkedSlot))
			}
			if p.Events != nil {
				p.Events.Push(telemetry.Event{
					Kind: telemetry.EventDestroy, Tick: p.Tick, Slot: d.idx, Faction: faction,
				})
			}
		}
	}
	p.pendingDamage = p.pendingDamage[:0]
	p.pendingBuilding = p.pendingBuilding[:0]
}

// ApplyBuildingDamage queues building damage for the next Run's damage-apply
// step; called by the projectile-hit extraction stage when a hit routes
// through the building slot map (spec §4.3: "hits routed through the
// building slot map produce BuildingDamageMsg instead of DamageMsg").
func (p *Pipeline) ApplyBuildingDamage(buildingIdx int32, amount float32) {
	p.pendingBuilding = append(p.pendingBuilding, pendingBuildingDamage{idx: buildingIdx, amount: amount})
}

// ApplyProjectileDamage queues NPC damage for the next Run's damage-apply
// step, the non-building counterpart to ApplyBuildingDamage; called by the
// projectile-hit extraction stage when a GPU proj_hit readback names a live
// NPC slot rather than a building's linked slot.
func (p *Pipeline) ApplyProjectileDamage(target int32, amount float32, attacker int32) {
	p.pendingDamage = append(p.pendingDamage, pendingDamage{slot: target, amount: amount, attacker: attacker})
}

// Step 4: death mark.
func (p *Pipeline) stepDeathMark() []int32 {
	var dead []int32
	q := p.World.Filter.Query()
	for q.Next() {
		_, _, id, health, _, _, _ := q.Get()
		if health.Current <= 0 && !health.Dead {
			health.Dead = true
			dead = append(dead, id.Slot)
		}
	}
	return dead
}

// Step 5: XP grant. Re-resolves cached stats and rescales current HP
// proportionally on level-up.
func (p *Pipeline) stepXPGrant(dead []int32, buf *messages.Buffer) {
	for _, slot := range dead {
		_, _, _, health, _, _, _ := p.World.Get(slot)
		killer := health.LastHitBy
		if killer < 0 || killer == slot || !p.World.Alive(killer) {
			continue
		}
		_, _, kid, khealth, kcombat, _, kenergy := p.World.Get(killer)
		kenergy.XP += float32(p.Cfg.Combat.XPOnKill)
		newLevel := LevelForXP(kenergy.XP)
		if newLevel <= kenergy.Level {
			continue
		}
		oldMax := kcombat.Stats.MaxHP
		kenergy.Level = newLevel
		newStats := ResolveStats(kid.Job, newLevel)
		if p.World.Personality().Has(p.World.Entity(killer)) {
			newStats = Amplify(newStats, p.World.Personality().Get(p.World.Entity(killer)))
		}
		kcombat.Stats = newStats
		if oldMax > 0 {
			khealth.Current = khealth.Current / oldMax * newStats.MaxHP
		} else {
			khealth.Current = newStats.MaxHP
		}
		khealth.Max = newStats.MaxHP
		buf.Push(messages.NewSetHealth(killer, khealth.Current))
		buf.Push(messages.NewSetSpeed(killer, newStats.Speed))
		if p.Events != nil {
			p.Events.Push(telemetry.Event{
				Kind: telemetry.EventLevelUp, Tick: p.Tick, Slot: killer,
				Amount: float32(newLevel), Job: kid.Job, Faction: kid.Faction,
			})
		}
	}
}

// Step 6: cleanup. Despawns every dead slot, releasing occupancy and
// emitting HideNpc before the ECS entity and slot are freed.
func (p *Pipeline) stepCleanup(dead []int32, buf *messages.Buffer) {
	for _, slot := range dead {
		_, _, id, health, _, _, _ := p.World.Get(slot)
		if health.LastHitBy >= 0 {
			p.Kills++
			if p.Events != nil {
				p.Events.Push(telemetry.Event{
					Kind: telemetry.EventKill, Tick: p.Tick, Slot: slot, Other: health.LastHitBy,
					Job: id.Job, Faction: id.Faction,
				})
			}
		}
		p.State.Occupancy.Release(slot)
		buf.Push(messages.NewHideNpc(slot))
		p.World.DespawnNPC(slot)
		p.Deaths++
	}
}

// Step 8: building tower fire. Step 7 (waypoint slot sync) is owned by
// scheduler.applyBuildCommand/applyDestroyCommand, which allocate/free
// waypoint NPC slots directly on BuildCommand/DestroyCommand — it has no
// per-frame work to do here, so it is intentionally absent from this chain.
func (p *Pipeline) stepTowerFire(dt float32, combatTargets []int32, buf *messages.Buffer) {
	for i := range p.State.Buildings {
		b := &p.State.Buildings[i]
		if b.Tombstoned || !b.Kind.IsTower() || b.LinkedSlot < 0 {
			continue
		}
		b.AttackTimer -= dt
		if b.AttackTimer < 0 {
			b.AttackTimer = 0
		}
		if b.AttackTimer > 0 {
			continue
		}
		if int(b.LinkedSlot) >= len(combatTargets) {
			continue
		}
		target := combatTargets[b.LinkedSlot]
		if int(b.TownID) < 0 || int(b.TownID) >= len(p.State.Towns) {
			continue
		}
		faction := p.State.Towns[b.TownID].Faction
		tx, ty, ok := p.validateNpcTarget(faction, -1, target)
		if !ok {
			continue
		}
		dx, dy := tx-b.X, ty-b.Y
		if dx*dx+dy*dy > float32(p.Cfg.Combat.TowerRange)*float32(p.Cfg.Combat.TowerRange) {
			continue
		}
		b.AttackTimer = float32(p.Cfg.Combat.TowerCooldown)
		buf.Push(messages.NewSpawnProj(b.X, b.Y, tx, ty, float32(p.Cfg.Combat.TowerProjSpeed), float32(p.Cfg.Combat.TowerDamage), float32(p.Cfg.Combat.TowerProjLifetime), int32(faction), -1))
	}
}
