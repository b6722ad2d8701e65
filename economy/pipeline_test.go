package economy

import (
	"testing"

	"github.com/pthm-cable/holdfast/components"
	"github.com/pthm-cable/holdfast/config"
	"github.com/pthm-cable/holdfast/messages"
	"github.com/pthm-cable/holdfast/simworld"
	"github.com/pthm-cable/holdfast/worldstate"
)

func testCfg(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	return cfg
}

func TestTendedFarmGrowsFasterThanPassive(t *testing.T) {
	w := simworld.New(4)
	state := worldstate.New(1000, 1000, 50)
	cfg := testCfg(t)
	townIdx := state.AddTown(worldstate.Town{})
	state.AddBuilding(worldstate.Building{Kind: worldstate.BuildingFarm, TownID: townIdx, LinkedSlot: -1, SpawnerSlot: -1})
	state.AddFarm(worldstate.Farm{BuildingIdx: 0, TownID: townIdx})

	p := NewPipeline(w, state, cfg)
	p.tickFarms(100) // 100 game hours, untended

	passiveProgress := state.Farms[0].Progress

	state2 := worldstate.New(1000, 1000, 50)
	townIdx2 := state2.AddTown(worldstate.Town{})
	state2.AddBuilding(worldstate.Building{Kind: worldstate.BuildingFarm, TownID: townIdx2, LinkedSlot: -1, SpawnerSlot: -1})
	state2.AddFarm(worldstate.Farm{BuildingIdx: 0, TownID: townIdx2})
	state2.Occupancy.Claim(0, 5) // slot 5 tends the farm at building index 0

	p2 := NewPipeline(w, state2, cfg)
	p2.tickFarms(100)
	tendedProgress := state2.Farms[0].Progress

	if tendedProgress <= passiveProgress {
		t.Fatalf("expected tended growth (%v) to exceed passive growth (%v)", tendedProgress, passiveProgress)
	}
}

func TestHarvestFarmOnlyWhenReady(t *testing.T) {
	state := worldstate.New(1000, 1000, 50)
	townIdx := state.AddTown(worldstate.Town{})
	state.AddBuilding(worldstate.Building{Kind: worldstate.BuildingFarm, TownID: townIdx, LinkedSlot: -1, SpawnerSlot: -1})
	state.AddFarm(worldstate.Farm{BuildingIdx: 0, TownID: townIdx})

	if _, ok := HarvestFarm(state, 0); ok {
		t.Fatalf("expected harvest to fail while Growing")
	}

	state.Farms[0].State = worldstate.GrowthReady
	yield, ok := HarvestFarm(state, 0)
	if !ok || yield != HarvestFoodUnits {
		t.Fatalf("expected a successful harvest of %v units, got %v (ok=%v)", HarvestFoodUnits, yield, ok)
	}
	if state.Farms[0].State != worldstate.GrowthGrowing {
		t.Fatalf("expected farm to reset to Growing after harvest")
	}
}

func TestStarvationCapsHealthAndHalvesSpeed(t *testing.T) {
	w := simworld.New(4)
	state := worldstate.New(1000, 1000, 50)
	cfg := testCfg(t)
	cfg.Economy.StarvationHours = 1
	p := NewPipeline(w, state, cfg)

	stats := components.CombatStats{Speed: 100}
	slot := w.SpawnNPC(
		components.Position{}, components.Motion{}, components.Identity{TownID: -1},
		components.Health{Current: 100, Max: 100, LastHitBy: -1},
		components.CombatRuntime{Stats: stats},
		components.ActivityState{}, components.Energy{Value: 0},
	)

	buf := messages.NewBuffer()
	// 2 game hours at 0 energy, exceeding the 1-hour starvation threshold.
	p.tickEnergyAndHealing(0, 2, buf)

	_, _, _, health, _, _, energy := w.Get(slot)
	if !energy.Starving {
		t.Fatalf("expected NPC to be marked Starving")
	}
	if health.Current > health.Max*0.5 {
		t.Fatalf("expected hp capped at 50%% max, got %v", health.Current)
	}

	var sawHalvedSpeed bool
	for _, m := range buf.Drain() {
		if m.Kind == messages.SetSpeed && m.F1 == 50 {
			sawHalvedSpeed = true
		}
	}
	if !sawHalvedSpeed {
		t.Fatalf("expected a SetSpeed message halving speed to 50")
	}
}

func TestHealingRestoresHPNearFriendlyTown(t *testing.T) {
	w := simworld.New(4)
	state := worldstate.New(1000, 1000, 50)
	cfg := testCfg(t)
	townIdx := state.AddTown(worldstate.Town{Faction: 0, CenterX: 0, CenterY: 0})

	p := NewPipeline(w, state, cfg)

	slot := w.SpawnNPC(
		components.Position{X: 10, Y: 0}, components.Motion{},
		components.Identity{Faction: 0, TownID: townIdx},
		components.Health{Current: 50, Max: 100, LastHitBy: -1},
		components.CombatRuntime{}, components.ActivityState{}, components.Energy{Value: 100},
	)

	buf := messages.NewBuffer()
	p.tickEnergyAndHealing(1, 1.0/60, buf)

	_, _, _, health, _, _, _ := w.Get(slot)
	if health.Current <= 50 {
		t.Fatalf("expected healing to raise hp above 50, got %v", health.Current)
	}
}
