// Package decision implements the per-NPC priority cascade and utility-AI
// tail that drives activity transitions and movement targets (spec §4.6).
// It is the settlement-sim analogue of the teacher's systems/behavior.go
// neural-steering system: same per-entity query-and-emit shape, but a
// table-driven priority cascade plus weighted-random utility scoring in
// place of a CPPN forward pass.
package decision

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/holdfast/components"
	"github.com/pthm-cable/holdfast/config"
	"github.com/pthm-cable/holdfast/economy"
	"github.com/pthm-cable/holdfast/messages"
	"github.com/pthm-cable/holdfast/simworld"
	"github.com/pthm-cable/holdfast/telemetry"
	"github.com/pthm-cable/holdfast/worldstate"
)

// Cascade runs the priority cascade for every live, non-fighting-owned NPC
// each frame.
type Cascade struct {
	World *simworld.World
	State *worldstate.World
	Cfg   *config.Config

	// Econ wires real harvest/delivery mechanics into the GoingToWork /
	// Raiding / Returning transitions below. Left nil, those transitions
	// fall back to a bare activity-state flip with no yield (useful for
	// cascade-only tests that don't need an economy.Pipeline alongside).
	Econ *economy.Pipeline

	// Events is an optional CombatLog sink for Harvest events; nil
	// disables telemetry, same nilable-optional-dependency pattern as Econ.
	Events *telemetry.EventLog
	Tick   int32
}

// NewCascade builds a cascade driver over the given world/state/config.
func NewCascade(w *simworld.World, state *worldstate.World, cfg *config.Config) *Cascade {
	return &Cascade{World: w, State: state, Cfg: cfg}
}

// Run walks every live NPC once, applying the priority cascade (spec §4.6
// steps 0-8) and emitting the resulting GPU-update messages into buf.
func (c *Cascade) Run(buf *messages.Buffer) {
	q := c.World.Filter.Query()
	for q.Next() {
		pos, motion, id, health, combat, activity, energy := q.Get()
		if health.Dead {
			continue
		}
		c.step(pos, motion, id, health, combat, activity, energy, buf)
	}
}

func (c *Cascade) step(pos *components.Position, motion *components.Motion, id *components.Identity, health *components.Health, combat *components.CombatRuntime, activity *components.ActivityState, energy *components.Energy, buf *messages.Buffer) {
	behavior, hasBehavior := c.behaviorFor(id.Slot)

	// Step 0: arrival handling.
	if activity.AtDestination {
		c.handleArrival(id, pos, motion, activity, energy, behavior, hasBehavior, buf)
		activity.AtDestination = false
	}

	// Steps 1-3: combat owns Fighting, with flee/leash overrides.
	if combat.Kind == components.CombatFighting {
		if hasBehavior && behavior.FleeThreshold > 0 {
			frac := health.Current / maxf(health.Max, 1)
			personality, _ := c.personalityFor(id.Slot)
			effective := behavior.FleeThreshold * personality.InverseMultiplier(components.TraitBrave)
			if frac <= effective {
				c.retreat(id.Slot, combat, activity, behavior, buf)
				return
			}
		}
		if hasBehavior && behavior.LeashRange > 0 {
			dx, dy := pos.X-combat.OriginX, pos.Y-combat.OriginY
			if dx*dx+dy*dy > behavior.LeashRange*behavior.LeashRange {
				c.retreat(id.Slot, combat, activity, behavior, buf)
				return
			}
		}
		// Step 3: otherwise the attack system owns this NPC this frame.
		return
	}

	// Step 4.
	if activity.Kind == components.ActivityResting && activity.HasRecoverUntil && health.Current >= activity.RecoverUntil {
		activity.Kind = components.ActivityIdle
		activity.HasRecoverUntil = false
	}

	// Step 5.
	if activity.Kind == components.ActivityWorking && energy.Value < float32(c.Cfg.Economy.EnergyTired) {
		activity.Kind = components.ActivityIdle
		c.State.Occupancy.Release(id.Slot)
	}

	// Step 6.
	if activity.Kind == components.ActivityOnDuty && activity.Ticks >= int32(c.Cfg.Combat.GuardPatrolWait) {
		c.advancePatrol(id.Slot, activity, behavior, hasBehavior, buf)
	} else if activity.Kind == components.ActivityOnDuty {
		activity.Ticks++
	}

	// Step 7.
	if activity.Kind == components.ActivityResting && energy.Value >= float32(c.Cfg.Economy.EnergyWake) {
		activity.Kind = components.ActivityIdle
	}

	// Step 8: utility AI tail.
	if activity.Kind == components.ActivityIdle {
		c.chooseIdleActivity(id.Slot, pos, activity, energy, health, behavior, hasBehavior, buf)
	}
}

func (c *Cascade) behaviorFor(slot int32) (*components.BehaviorConfig, bool) {
	e := c.World.Entity(slot)
	m := c.World.Behavior()
	if !m.Has(e) {
		return nil, false
	}
	return m.Get(e), true
}

func (c *Cascade) personalityFor(slot int32) (*components.Personality, bool) {
	e := c.World.Entity(slot)
	m := c.World.Personality()
	if !m.Has(e) {
		return &components.Personality{}, false
	}
	return m.Get(e), true
}

func (c *Cascade) retreat(slot int32, combat *components.CombatRuntime, activity *components.ActivityState, behavior *components.BehaviorConfig, buf *messages.Buffer) {
	combat.Kind = components.CombatNone
	combat.Target = -1
	activity.Kind = components.ActivityReturning
	if behavior != nil {
		buf.Push(messages.NewSetTarget(slot, behavior.HomePos.X, behavior.HomePos.Y))
	}
}

// handleArrival implements spec §4.6 step 0's per-activity transition table.
func (c *Cascade) handleArrival(id *components.Identity, pos *components.Position, motion *components.Motion, activity *components.ActivityState, energy *components.Energy, behavior *components.BehaviorConfig, hasBehavior bool, buf *messages.Buffer) {
	switch activity.Kind {
	case components.ActivityPatrolling:
		activity.Kind = components.ActivityOnDuty
		activity.Ticks = 0
	case components.ActivityGoingToRest:
		activity.Kind = components.ActivityResting
		activity.HasRecoverUntil = false
	case components.ActivityGoingToEat:
		c.enterEat(id, energy, activity)
	case components.ActivityGoingToWork:
		c.enterWork(id, activity, behavior, hasBehavior, buf)
	case components.ActivityRaiding:
		c.tryHarvestOrRetarget(id, activity, behavior, hasBehavior, buf)
	case components.ActivityWandering:
		activity.Kind = components.ActivityIdle
	case components.ActivityReturning:
		c.deliverCarriedLoot(id, activity, behavior, hasBehavior, buf)
	}
}

// enterEat implements spec §4.6's Eat utility option: a meal is instant
// (unlike Rest, which recovers energy gradually over real time), debiting
// the NPC's town food store and crediting Energy in one step on arrival.
func (c *Cascade) enterEat(id *components.Identity, energy *components.Energy, activity *components.ActivityState) {
	if c.Econ != nil {
		economy.FeedNPC(c.State, id.TownID, energy, c.Econ.Clock.Hour)
	}
	activity.Kind = components.ActivityIdle
}

// tryHarvestBuilding attempts a farm harvest first, then a mine withdrawal,
// at the given occupancy-map building index (spec §4.7's single harvest(idx)
// helper fans out to whichever of the two the building actually is).
func tryHarvestBuilding(state *worldstate.World, buildingIdx int32) (yield float32, ok bool) {
	if buildingIdx < 0 {
		return 0, false
	}
	if yield, ok := economy.HarvestFarm(state, buildingIdx); ok {
		return yield, true
	}
	if yield, ok := economy.HarvestMine(state, buildingIdx); ok {
		return yield, true
	}
	return 0, false
}

// emitHarvest records a Harvest event, a no-op when c.Events is nil.
func (c *Cascade) emitHarvest(id *components.Identity, yield float32) {
	if c.Events == nil {
		return
	}
	c.Events.Push(telemetry.Event{
		Kind: telemetry.EventHarvest, Tick: c.Tick, Slot: id.Slot,
		Amount: yield, Job: id.Job, Faction: id.Faction,
	})
}

// enterWork implements spec §4.6 step 0's "GoingToWork → Working (harvest if
// farm Ready, then Returning{food} if yield, else claim + tend)" clause.
func (c *Cascade) enterWork(id *components.Identity, activity *components.ActivityState, behavior *components.BehaviorConfig, hasBehavior bool, buf *messages.Buffer) {
	if !hasBehavior {
		activity.Kind = components.ActivityIdle
		return
	}
	if c.Econ != nil {
		if yield, ok := tryHarvestBuilding(c.State, behavior.WorkBuildingIdx); ok {
			activity.Carried = yield
			activity.Kind = components.ActivityReturning
			buf.Push(messages.NewSetTarget(id.Slot, behavior.HomePos.X, behavior.HomePos.Y))
			c.emitHarvest(id, yield)
			return
		}
	}
	if c.State.Occupancy.Claim(behavior.WorkBuildingIdx, id.Slot) {
		activity.Kind = components.ActivityWorking
	} else {
		activity.Kind = components.ActivityIdle
	}
}

// tryHarvestOrRetarget implements spec §4.6 step 0's "Raiding{target} →
// harvest or re-target, then Returning{food}" clause. Re-targeting to a
// fresh raid target is the not-yet-built raid-AI's job; lacking that, an
// exhausted target still sends the raider home empty-handed rather than
// stalling in place.
func (c *Cascade) tryHarvestOrRetarget(id *components.Identity, activity *components.ActivityState, behavior *components.BehaviorConfig, hasBehavior bool, buf *messages.Buffer) {
	if c.Econ != nil {
		if yield, ok := tryHarvestBuilding(c.State, activity.RaidTarget); ok {
			activity.Carried = yield
			c.emitHarvest(id, yield)
		}
	}
	activity.Kind = components.ActivityReturning
	if hasBehavior {
		buf.Push(messages.NewSetTarget(id.Slot, behavior.HomePos.X, behavior.HomePos.Y))
	}
}

// deliverCarriedLoot implements spec §4.6 step 0's "Returning → deliver to
// town store, then Idle" clause, crediting gold for miners and food for
// everyone else (spec §4.7: "stores are credited only on delivery").
func (c *Cascade) deliverCarriedLoot(id *components.Identity, activity *components.ActivityState, behavior *components.BehaviorConfig, hasBehavior bool, buf *messages.Buffer) {
	if c.Econ != nil && activity.Carried > 0 {
		if id.Job == components.JobMiner {
			economy.DeliverToTown(c.State, id.TownID, 0, activity.Carried)
		} else {
			economy.DeliverToTown(c.State, id.TownID, activity.Carried, 0)
		}
	}
	activity.Carried = 0
	activity.Kind = components.ActivityIdle
}

func (c *Cascade) advancePatrol(slot int32, activity *components.ActivityState, behavior *components.BehaviorConfig, hasBehavior bool, buf *messages.Buffer) {
	activity.Ticks = 0
	if !hasBehavior || len(behavior.PatrolRoute) == 0 {
		return
	}
	behavior.PatrolCursor = (behavior.PatrolCursor + 1) % len(behavior.PatrolRoute)
	next := behavior.PatrolRoute[behavior.PatrolCursor]
	activity.Kind = components.ActivityPatrolling
	buf.Push(messages.NewSetTarget(slot, next.X, next.Y))
}

// utilityOption is one candidate for the Idle utility-AI tail.
type utilityOption struct {
	activity components.ActivityKind
	score    float32
}

// chooseIdleActivity implements spec §4.6's utility scoring table and
// slot-seeded weighted-random pick.
func (c *Cascade) chooseIdleActivity(slot int32, pos *components.Position, activity *components.ActivityState, energy *components.Energy, health *components.Health, behavior *components.BehaviorConfig, hasBehavior bool, buf *messages.Buffer) {
	personality, _ := c.personalityFor(slot)

	town := c.townOf(slot)

	var options []utilityOption

	if town != nil && town.Food > 0 && hasBehavior && behavior.HomePos != (components.Position{}) {
		eat := (100 - energy.Value) * 1.5 * personality.InverseMultiplier(components.TraitTough)
		options = append(options, utilityOption{components.ActivityGoingToEat, eat})
	}
	if hasBehavior && behavior.HomePos != (components.Position{}) {
		rest := (100 - energy.Value) * personality.InverseMultiplier(components.TraitTough)
		options = append(options, utilityOption{components.ActivityGoingToRest, rest})
	}
	if hasBehavior && behavior.WorkPos != (components.Position{}) {
		hpFrac := health.Current / maxf(health.Max, 1)
		var hpMult float32
		if hpFrac < 0.5 {
			hpMult = 0
		} else {
			hpMult = (hpFrac - 0.5) * 2
		}
		work := 40 * hpMult * personality.Multiplier(components.TraitFocused)
		options = append(options, utilityOption{components.ActivityGoingToWork, work})
	}
	wander := 10 * personality.Multiplier(components.TraitSwift) * personality.InverseMultiplier(components.TraitFocused)
	options = append(options, utilityOption{components.ActivityWandering, wander})

	pick := weightedPick(options, slot)
	c.enterIdleChoice(slot, pick, activity, behavior, hasBehavior, buf)
}

func (c *Cascade) enterIdleChoice(slot int32, choice components.ActivityKind, activity *components.ActivityState, behavior *components.BehaviorConfig, hasBehavior bool, buf *messages.Buffer) {
	activity.Kind = choice
	if !hasBehavior {
		return
	}
	switch choice {
	case components.ActivityGoingToRest, components.ActivityGoingToEat:
		buf.Push(messages.NewSetTarget(slot, behavior.HomePos.X, behavior.HomePos.Y))
	case components.ActivityGoingToWork:
		buf.Push(messages.NewSetTarget(slot, behavior.WorkPos.X, behavior.WorkPos.Y))
	case components.ActivityWandering:
		// No wander target is emitted; the NPC keeps its current goal.
	}
}

func (c *Cascade) townOf(slot int32) *worldstate.Town {
	_, _, id, _, _, _, _ := c.World.Get(slot)
	if int(id.TownID) < 0 || int(id.TownID) >= len(c.State.Towns) {
		return nil
	}
	return &c.State.Towns[id.TownID]
}

// weightedPick performs a weighted-random selection seeded by slot index,
// matching spec §4.6's reproducibility requirement ("weighted random
// picked ... seeded by slot index").
func weightedPick(options []utilityOption, slot int32) components.ActivityKind {
	if len(options) == 0 {
		return components.ActivityIdle
	}
	var total float32
	for _, o := range options {
		if o.score > 0 {
			total += o.score
		}
	}
	if total <= 0 {
		return components.ActivityWandering
	}
	r := rand.New(rand.NewSource(int64(slot)))
	pick := r.Float32() * total
	var acc float32
	for _, o := range options {
		if o.score <= 0 {
			continue
		}
		acc += o.score
		if pick <= acc {
			return o.activity
		}
	}
	return options[len(options)-1].activity
}

func maxf(a, b float32) float32 {
	return float32(math.Max(float64(a), float64(b)))
}
