package scheduler

import (
	"testing"

	"github.com/pthm-cable/holdfast/components"
	"github.com/pthm-cable/holdfast/config"
	"github.com/pthm-cable/holdfast/gpu"
	"github.com/pthm-cable/holdfast/simworld"
	"github.com/pthm-cable/holdfast/worldstate"
)

func testCfg(t *testing.T, maxNPCs, maxProj int) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	cfg.Population.MaxNPCs = maxNPCs
	cfg.Population.MaxProj = maxProj
	return cfg
}

func newTestScheduler(t *testing.T, maxNPCs, maxProj int) *Scheduler {
	t.Helper()
	cfg := testCfg(t, maxNPCs, maxProj)
	world := simworld.New(maxNPCs)
	state := worldstate.New(cfg.World.Width, cfg.World.Height, cfg.World.GridCellSize)
	pipeline := gpu.NewCPUPipeline(maxNPCs, maxProj)
	s, err := New(world, state, cfg, pipeline, "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

// TestTickCombatKillCycle mirrors spec's worked combat example end to end
// through the scheduler: two hostile melee fighters spawned within weapon
// range of each other should resolve a kill within a handful of simulated
// seconds, with the loser's slot freed for reuse and the winner credited.
func TestTickCombatKillCycle(t *testing.T) {
	s := newTestScheduler(t, 8, 8)

	s.Commands.Spawn(SpawnRequest{X: 0, Y: 0, Job: components.JobFighter, Faction: components.FactionPlayer, TownID: -1, WorkBuildingIdx: -1, LinkBuilding: -1})
	s.Commands.Spawn(SpawnRequest{X: 50, Y: 0, Job: components.JobFighter, Faction: 1, TownID: -1, WorkBuildingIdx: -1, LinkBuilding: -1})

	dt := s.Cfg.Derived.DT32
	killed := false
	for i := 0; i < 600; i++ { // 10s of simulated time at 60Hz
		s.Tick(dt)
		if s.Combat.Kills > 0 {
			killed = true
			break
		}
	}

	if !killed {
		t.Fatalf("expected a kill within 10s of simulated ticks, got 0 kills (deaths=%d)", s.Combat.Deaths)
	}
	if s.World.Count() != 2 {
		t.Fatalf("expected exactly 2 slots ever allocated (no respawn wired), got %d", s.World.Count())
	}
}

// TestBuildWaypointGrantsNpcSlot covers spec §4.5 step 7 ("waypoint slot
// sync"): a Waypoint building command should allocate a zero-speed,
// 999-HP NPC slot via BuildingLink, the same mechanism towers/military
// buildings use for GPU collision, and DestroyCommand should free it again.
func TestBuildWaypointGrantsNpcSlot(t *testing.T) {
	s := newTestScheduler(t, 8, 8)
	s.State.AddTown(worldstate.Town{Name: "Town", Faction: components.FactionPlayer, CenterX: 0, CenterY: 0})

	s.Commands.Build(BuildCommand{Kind: int32(worldstate.BuildingWaypoint), X: 100, Y: 100, TownID: 0})
	s.Tick(s.Cfg.Derived.DT32)

	if s.World.Count() != 1 {
		t.Fatalf("expected waypoint to occupy exactly 1 NPC slot, got %d", s.World.Count())
	}

	idx := int32(0)
	linked := s.State.Buildings[idx].LinkedSlot
	if linked < 0 {
		t.Fatalf("expected waypoint building to have a linked NPC slot, got %d", linked)
	}

	_, motion, _, health, _, _, _ := s.World.Get(linked)
	if motion.Speed != 0 {
		t.Errorf("expected waypoint slot speed 0, got %f", motion.Speed)
	}
	if health.Max != 999 {
		t.Errorf("expected waypoint slot max HP 999, got %f", health.Max)
	}

	s.Commands.Destroy(DestroyCommand{X: 100, Y: 100})
	s.Tick(s.Cfg.Derived.DT32)

	if s.World.Alive(linked) {
		t.Error("expected waypoint's linked slot to be freed after DestroyCommand")
	}
}

// TestTickPausedFreezesMovement covers spec §8's "Paused (time_scale=0): no
// position changes" property: an NPC with a distant goal should not move
// while SetPaused(true) is in effect, across several ticks.
func TestTickPausedFreezesMovement(t *testing.T) {
	s := newTestScheduler(t, 4, 4)
	s.Commands.SetPaused(true)
	s.Commands.Spawn(SpawnRequest{X: 0, Y: 0, Job: components.JobFarmer, Faction: components.FactionPlayer, TownID: -1, WorkBuildingIdx: -1, LinkBuilding: -1})

	dt := s.Cfg.Derived.DT32
	s.Tick(dt) // applies the spawn and the pause in the same frame's Drain

	var slot int32 = -1
	q := s.World.Filter.Query()
	for q.Next() {
		_, _, id, _, _, _, _ := q.Get()
		slot = id.Slot
	}
	if slot < 0 {
		t.Fatalf("expected the queued NPC to have spawned")
	}

	// Give it somewhere to go, then confirm it never gets there while paused.
	_, motion, _, _, _, _, _ := s.World.Get(slot)
	motion.GoalX, motion.GoalY = 500, 0
	motion.Arrived = false

	for i := 0; i < 30; i++ {
		s.Tick(dt)
	}

	pos, _, _, _, _, _, _ := s.World.Get(slot)
	if pos.X != 0 || pos.Y != 0 {
		t.Fatalf("expected position to stay at spawn point while paused, got (%v, %v)", pos.X, pos.Y)
	}
}

// TestTickProjectileHitAppliesDamageNextFrame covers spec §8's projectile-hit
// scenario and the one-frame readback skew named in spec §5: a ranged
// attacker's projectile should eventually connect and reduce the victim's
// health, resolved through the deferred Drain-phase routing rather than
// within the dispatch tick itself.
func TestTickProjectileHitAppliesDamageNextFrame(t *testing.T) {
	s := newTestScheduler(t, 8, 8)

	s.Commands.Spawn(SpawnRequest{X: 0, Y: 0, Job: components.JobArcher, Faction: components.FactionPlayer, TownID: -1, WorkBuildingIdx: -1, LinkBuilding: -1})
	s.Commands.Spawn(SpawnRequest{X: 100, Y: 0, Job: components.JobFarmer, Faction: 1, TownID: -1, WorkBuildingIdx: -1, LinkBuilding: -1})

	dt := s.Cfg.Derived.DT32
	var victimSlot int32 = -1
	for i := 0; i < 300; i++ {
		s.Tick(dt)
		q := s.World.Filter.Query()
		for q.Next() {
			_, _, id, health, _, _, _ := q.Get()
			if id.Faction == 1 {
				victimSlot = id.Slot
				if health.Current < health.Max {
					return // damage landed, property holds
				}
			}
		}
	}
	if victimSlot < 0 {
		t.Fatalf("victim never spawned")
	}
	t.Fatalf("expected the archer's projectile to eventually damage the victim")
}
