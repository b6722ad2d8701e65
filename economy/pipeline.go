// Package economy implements the game-time ticker, farm/mine growth and
// harvest, respawn timers, and healing named in spec §4.7. Grounded on the
// teacher's systems/energy.go (free functions over component pointers,
// threshold-gated state flips) and systems/feeding.go's grow/consume shape
// for farm/mine progress.
package economy

import (
	"github.com/pthm-cable/holdfast/components"
	"github.com/pthm-cable/holdfast/config"
	"github.com/pthm-cable/holdfast/messages"
	"github.com/pthm-cable/holdfast/simworld"
	"github.com/pthm-cable/holdfast/worldstate"
)

// HarvestFoodUnits is the fixed yield of a single Ready farm harvest (spec
// leaves the exact unit count unspecified — an Open Question resolved here
// as a flat per-harvest constant, see DESIGN.md).
const HarvestFoodUnits = 20

// Pipeline runs the per-frame economy tick over a world/state/config
// triple, alongside its own game clock.
type Pipeline struct {
	World *simworld.World
	State *worldstate.World
	Cfg   *config.Config
	Clock *Clock

	PendingRespawns []int32 // building indices whose respawn timer hit zero
}

// NewPipeline builds an economy pipeline with a fresh, unpaused clock.
func NewPipeline(w *simworld.World, state *worldstate.World, cfg *config.Config) *Pipeline {
	return &Pipeline{World: w, State: state, Cfg: cfg, Clock: NewClock(cfg)}
}

// Run advances the game clock, ticks farm/mine growth, drains/recovers NPC
// energy (with starvation enforcement), heals NPCs near a friendly town
// center, and decrements respawn timers on hour boundaries.
func (p *Pipeline) Run(dt float32, buf *messages.Buffer) {
	p.Clock.Tick(dt)
	dtHours := p.dtHours(dt)

	p.tickFarms(dtHours)
	p.tickMines(dtHours)
	p.tickEnergyAndHealing(dt, dtHours, buf)
	if p.Clock.HourTicked {
		p.tickRespawns()
	}
}

func (p *Pipeline) dtHours(dt float32) float32 {
	if p.Clock.Paused {
		return 0
	}
	secondsPerHour := float32(p.Cfg.World.SecondsPerGameHour)
	if secondsPerHour <= 0 {
		return 0
	}
	return dt * p.Clock.TimeScale / secondsPerHour
}

// tickFarms advances Growing farms by their tended/passive rate (tended
// status read live from the occupancy map, not a cached flag) times the
// town's farm-yield upgrade multiplier.
func (p *Pipeline) tickFarms(dtHours float32) {
	for i := range p.State.Farms {
		f := &p.State.Farms[i]
		if f.State != worldstate.GrowthGrowing {
			continue
		}
		_, tended := p.State.Occupancy.Holder(f.BuildingIdx)
		f.Tended = tended
		rate := float32(p.Cfg.Economy.FarmPassiveRate)
		if tended {
			rate = float32(p.Cfg.Economy.FarmTendedRate)
		}
		rate *= p.townYield(f.TownID, worldstate.UpgradeFarmYield)
		f.Progress += rate * dtHours
		if f.Progress >= 1 {
			f.Progress = 1
			f.State = worldstate.GrowthReady
		}
	}
}

// tickMines regenerates mine gold up to RegenCap at the tended/passive
// rate, same occupancy-derived tended check as farms.
func (p *Pipeline) tickMines(dtHours float32) {
	for i := range p.State.Mines {
		m := &p.State.Mines[i]
		if m.Gold >= m.RegenCap {
			continue
		}
		_, tended := p.State.Occupancy.Holder(m.BuildingIdx)
		rate := float32(p.Cfg.Economy.MinePassiveRate)
		if tended {
			rate = float32(p.Cfg.Economy.MineTendedRate)
		}
		rate *= p.townYield(m.TownID, worldstate.UpgradeMineYield)
		m.Gold += rate * dtHours * m.RegenCap
		if m.Gold > m.RegenCap {
			m.Gold = m.RegenCap
		}
	}
}

func (p *Pipeline) townYield(townID int32, kind worldstate.UpgradeKind) float32 {
	if townID < 0 || int(townID) >= len(p.State.Towns) {
		return 1
	}
	return p.State.Towns[townID].Yield(kind)
}

// HarvestFarm resets a Ready farm to Growing and returns HarvestFoodUnits,
// per spec §4.7's "single helper harvest(idx) -> yield". ok is false if the
// farm isn't Ready.
func HarvestFarm(state *worldstate.World, buildingIdx int32) (yield float32, ok bool) {
	f, found := state.FarmByBuilding(buildingIdx)
	if !found || f.State != worldstate.GrowthReady {
		return 0, false
	}
	f.Progress = 0
	f.State = worldstate.GrowthGrowing
	return HarvestFoodUnits, true
}

// HarvestMine withdraws all accumulated gold from a mine, resetting it to
// zero. ok is false if there is nothing to withdraw.
func HarvestMine(state *worldstate.World, buildingIdx int32) (yield float32, ok bool) {
	m, found := state.MineByBuilding(buildingIdx)
	if !found || m.Gold <= 0 {
		return 0, false
	}
	yield = m.Gold
	m.Gold = 0
	return yield, true
}

// DeliverToTown credits a town's stores, called once an NPC carrying loot
// reaches home within DELIVERY_RADIUS (spec §4.7).
func DeliverToTown(state *worldstate.World, townID int32, food, gold float32) {
	if townID < 0 || int(townID) >= len(state.Towns) {
		return
	}
	t := &state.Towns[townID]
	t.Food += food
	t.Gold += gold
}

// FoodPerMeal is the flat food cost of one NPC meal (spec leaves the exact
// unit count unspecified, same Open Question resolution as HarvestFoodUnits:
// a flat per-meal constant rather than a per-NPC appetite model).
const FoodPerMeal = 10

// EnergyPerMeal is the energy an NPC recovers from a single meal.
const EnergyPerMeal = 40

// FeedNPC debits townID's food store for one meal (partial if the town has
// less than FoodPerMeal on hand) and restores energy proportionally,
// recording hour as the NPC's last-ate time. Returns false with no effect
// if the town has no food.
func FeedNPC(state *worldstate.World, townID int32, energy *components.Energy, hour float32) bool {
	if townID < 0 || int(townID) >= len(state.Towns) {
		return false
	}
	t := &state.Towns[townID]
	if t.Food <= 0 {
		return false
	}
	cost := float32(FoodPerMeal)
	if t.Food < cost {
		cost = t.Food
	}
	t.Food -= cost
	energy.Value += EnergyPerMeal * (cost / FoodPerMeal)
	if energy.Value > 100 {
		energy.Value = 100
	}
	energy.LastAteHour = hour
	return true
}

// tickEnergyAndHealing implements spec §4.6's energy drain/recover clause
// and §4.7's healing clause in one pass over live NPCs (disjoint field
// writes, same query — matches §5's "behavior systems may parallelize
// where mutable sets do not overlap, e.g. energy vs healing", collapsed
// here into a single sequential pass since this pipeline doesn't
// parallelize internally).
func (p *Pipeline) tickEnergyAndHealing(dt, dtHours float32, buf *messages.Buffer) {
	q := p.World.Filter.Query()
	for q.Next() {
		pos, _, id, health, combat, activity, energy := q.Get()
		if health.Dead {
			continue
		}
		p.tickEnergy(dtHours, activity, energy)
		p.tickStarvation(dtHours, health, combat, energy, id.Slot, buf)
		p.tickHealing(dt, pos, id, health, energy, buf)
	}
}

func (p *Pipeline) tickEnergy(dtHours float32, activity *components.ActivityState, energy *components.Energy) {
	if activity.Kind == components.ActivityResting {
		energy.Value += float32(p.Cfg.Economy.EnergyRecoverPerHour) * dtHours
		if energy.Value > 100 {
			energy.Value = 100
		}
		return
	}
	energy.Value -= float32(p.Cfg.Economy.EnergyDrainPerHour) * dtHours
	if energy.Value < 0 {
		energy.Value = 0
	}
}

// tickStarvation implements the spec §4.6 starvation clause: energy at 0
// for >= STARVATION_HOURS raises Starving (capping HP at 50% max and
// halving speed); energy above 0 clears it.
func (p *Pipeline) tickStarvation(dtHours float32, health *components.Health, combat *components.CombatRuntime, energy *components.Energy, slot int32, buf *messages.Buffer) {
	if energy.Value > 0 {
		if energy.HoursAtZero > 0 {
			energy.HoursAtZero = 0
		}
		if energy.Starving {
			energy.Starving = false
			buf.Push(messages.NewSetSpeed(slot, combat.Stats.Speed))
		}
		return
	}
	energy.HoursAtZero += dtHours
	if energy.Starving || energy.HoursAtZero < float32(p.Cfg.Economy.StarvationHours) {
		return
	}
	energy.Starving = true
	capHP := health.Max * 0.5
	if health.Current > capHP {
		health.Current = capHP
		buf.Push(messages.NewSetHealth(slot, health.Current))
	}
	buf.Push(messages.NewSetSpeed(slot, combat.Stats.Speed*0.5))
}

// tickHealing heals NPCs within HEAL_RADIUS of a live, same-faction town
// center, capped at 50% max HP while Starving.
func (p *Pipeline) tickHealing(dt float32, pos *components.Position, id *components.Identity, health *components.Health, energy *components.Energy, buf *messages.Buffer) {
	if id.TownID < 0 || int(id.TownID) >= len(p.State.Towns) {
		return
	}
	town := &p.State.Towns[id.TownID]
	if town.Faction != id.Faction {
		return
	}
	dx, dy := pos.X-town.CenterX, pos.Y-town.CenterY
	radius := float32(p.Cfg.Economy.HealRadius)
	if dx*dx+dy*dy > radius*radius {
		return
	}
	capHP := health.Max
	if energy.Starving {
		capHP = health.Max * 0.5
	}
	if health.Current >= capHP {
		return
	}
	health.Current += float32(p.Cfg.Economy.HealRate) * dt
	if health.Current > capHP {
		health.Current = capHP
	}
	buf.Push(messages.NewSetHealth(id.Slot, health.Current))
}

// tickRespawns decrements every spawner building's respawn timer on an hour
// boundary; at zero the building index is queued in PendingRespawns for the
// scheduler's spawn phase, which drains it with DrainRespawns and replays
// that building's stored SpawnRequest.
func (p *Pipeline) tickRespawns() {
	for i := range p.State.Buildings {
		b := &p.State.Buildings[i]
		if b.Tombstoned || b.SpawnerSlot < 0 {
			continue
		}
		if p.World.Alive(b.SpawnerSlot) {
			continue
		}
		b.RespawnTimer -= 1
		if b.RespawnTimer <= 0 {
			b.RespawnTimer = float32(p.Cfg.Economy.RespawnHours)
			p.PendingRespawns = append(p.PendingRespawns, int32(i))
		}
	}
}

// DrainRespawns returns and clears the queued respawn requests.
func (p *Pipeline) DrainRespawns() []int32 {
	out := p.PendingRespawns
	p.PendingRespawns = nil
	return out
}
