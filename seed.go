package main

import (
	"github.com/pthm-cable/holdfast/components"
	"github.com/pthm-cable/holdfast/config"
	"github.com/pthm-cable/holdfast/scheduler"
	"github.com/pthm-cable/holdfast/worldstate"
)

// townSeed names the buildings and home/work positions a single settlement
// gets at startup, grounded on the teacher's seedUniverse (main.go): fixed
// counts per kind laid out around a center point rather than any procedural
// placement (out of scope per spec's world-gen Non-goal).
type townSeed struct {
	name    string
	faction components.Faction
	cx, cy  float32
}

// seedWorld builds two settlements (player and a hostile faction) with a
// fountain, job homes, a couple of farms, a mine, and an initial population
// split across jobs, then flushes the building commands with one scheduler
// tick before queuing the population spawns. Buildings are queued through
// scheduler.Commands (not built directly against worldstate.World) so the
// same applyBuildCommand path a live build order would take also creates
// these — the only difference from a runtime build is that Farm/Mine
// bookkeeping (which applyBuildCommand doesn't own, see DESIGN.md) is
// patched in afterward by index, since the submission order is known.
func seedWorld(sched *scheduler.Scheduler, cfg *config.Config) {
	towns := []townSeed{
		{name: "Ashford", faction: components.FactionPlayer, cx: 1000, cy: 1000},
		{name: "Kragmoor", faction: 1, cx: float32(cfg.World.Width) - 1000, cy: float32(cfg.World.Height) - 1000},
	}

	type builtTown struct {
		townID                                int32
		fountainX, fountainY                  float32
		farmerHomeX, farmerHomeY              float32
		archerHomeX, archerHomeY              float32
		crossbowHomeX, crossbowHomeY          float32
		minerHomeX, minerHomeY                float32
		farmIdx, farmX, farmY                 int32
		farm2Idx, farm2X, farm2Y              int32
		mineIdx, mineX, mineY                 int32
	}

	var built []builtTown

	for _, t := range towns {
		townID := sched.State.AddTown(worldstate.Town{
			Name: t.name, Faction: t.faction, CenterX: t.cx, CenterY: t.cy,
			Food: 200, Gold: 100,
		})

		bt := builtTown{townID: townID}
		bt.fountainX, bt.fountainY = t.cx, t.cy
		bt.farmerHomeX, bt.farmerHomeY = t.cx-120, t.cy-60
		bt.archerHomeX, bt.archerHomeY = t.cx+120, t.cy-60
		bt.crossbowHomeX, bt.crossbowHomeY = t.cx+120, t.cy+60
		bt.minerHomeX, bt.minerHomeY = t.cx-120, t.cy+60
		bt.farmX, bt.farmY = t.cx-250, t.cy-150
		bt.farm2X, bt.farm2Y = t.cx-250, t.cy+150
		bt.mineX, bt.mineY = t.cx+250, t.cy

		sched.Commands.Build(scheduler.BuildCommand{Kind: int32(worldstate.BuildingFountain), X: bt.fountainX, Y: bt.fountainY, TownID: townID})
		sched.Commands.Build(scheduler.BuildCommand{Kind: int32(worldstate.BuildingFarmerHome), X: bt.farmerHomeX, Y: bt.farmerHomeY, TownID: townID})
		sched.Commands.Build(scheduler.BuildCommand{Kind: int32(worldstate.BuildingArcherHome), X: bt.archerHomeX, Y: bt.archerHomeY, TownID: townID})
		sched.Commands.Build(scheduler.BuildCommand{Kind: int32(worldstate.BuildingCrossbowHome), X: bt.crossbowHomeX, Y: bt.crossbowHomeY, TownID: townID})
		sched.Commands.Build(scheduler.BuildCommand{Kind: int32(worldstate.BuildingMinerHome), X: bt.minerHomeX, Y: bt.minerHomeY, TownID: townID})
		sched.Commands.Build(scheduler.BuildCommand{Kind: int32(worldstate.BuildingFarm), X: bt.farmX, Y: bt.farmY, TownID: townID})
		sched.Commands.Build(scheduler.BuildCommand{Kind: int32(worldstate.BuildingFarm), X: bt.farm2X, Y: bt.farm2Y, TownID: townID})
		sched.Commands.Build(scheduler.BuildCommand{Kind: int32(worldstate.BuildingGoldMine), X: bt.mineX, Y: bt.mineY, TownID: townID})

		built = append(built, bt)
	}

	// Flush the queued Build commands (and nothing else alive yet, so the
	// first Combat/Behavior/GPU phases this tick run over an empty population).
	sched.Tick(cfg.Derived.DT32)

	// Buildings landed in submission order starting at 0 (no other building
	// source ran before this), 8 per town: fountain, 4 homes, 2 farms, 1 mine.
	const perTown = 8
	for i := range built {
		base := int32(i * perTown)
		farmIdx := base + 5
		farm2Idx := base + 6
		mineIdx := base + 7

		sched.State.AddFarm(worldstate.Farm{BuildingIdx: farmIdx, TownID: built[i].townID})
		sched.State.AddFarm(worldstate.Farm{BuildingIdx: farm2Idx, TownID: built[i].townID})
		sched.State.AddMine(worldstate.Mine{BuildingIdx: mineIdx, Gold: 500, RegenCap: 500, TownID: built[i].townID})

		built[i].farmIdx, built[i].farm2Idx, built[i].mineIdx = farmIdx, farm2Idx, mineIdx
	}

	seedPopulation(sched, cfg, towns, built)
}

// jobCycle is the round-robin order initial population is assigned a job
// in, weighted toward farmers the way a subsistence settlement would be.
var jobCycle = []components.Job{
	components.JobFarmer, components.JobFarmer, components.JobArcher,
	components.JobFarmer, components.JobCrossbow, components.JobFighter,
	components.JobFarmer, components.JobMiner, components.JobRaider,
	components.JobFarmer, components.JobFighter, components.JobArcher,
}

func seedPopulation(sched *scheduler.Scheduler, cfg *config.Config, towns []townSeed, built []struct {
	townID                       int32
	fountainX, fountainY         float32
	farmerHomeX, farmerHomeY     float32
	archerHomeX, archerHomeY     float32
	crossbowHomeX, crossbowHomeY float32
	minerHomeX, minerHomeY       float32
	farmIdx, farmX, farmY        int32
	farm2Idx, farm2X, farm2Y     int32
	mineIdx, mineX, mineY        int32
}) {
	perTown := cfg.Population.Initial / len(towns)
	if perTown < 1 {
		perTown = 1
	}

	for i, t := range towns {
		bt := built[i]
		for n := 0; n < perTown; n++ {
			job := jobCycle[n%len(jobCycle)]

			homeX, homeY := bt.farmerHomeX, bt.farmerHomeY
			workX, workY := bt.farmX, bt.farmY
			workBuilding := bt.farmIdx
			switch job {
			case components.JobArcher:
				homeX, homeY = bt.archerHomeX, bt.archerHomeY
				workX, workY, workBuilding = bt.fountainX, bt.fountainY, -1
			case components.JobCrossbow:
				homeX, homeY = bt.crossbowHomeX, bt.crossbowHomeY
				workX, workY, workBuilding = bt.fountainX, bt.fountainY, -1
			case components.JobFighter, components.JobRaider:
				workX, workY, workBuilding = bt.fountainX, bt.fountainY, -1
			case components.JobMiner:
				homeX, homeY = bt.minerHomeX, bt.minerHomeY
				workX, workY, workBuilding = bt.mineX, bt.mineY, bt.mineIdx
			}

			spawnX := homeX + float32(n%5-2)*20
			spawnY := homeY + float32((n/5)%5-2)*20

			sched.Commands.Spawn(scheduler.SpawnRequest{
				X: spawnX, Y: spawnY,
				Job: job, Faction: t.faction, TownID: bt.townID,
				HomeX: homeX, HomeY: homeY,
				WorkX: workX, WorkY: workY, WorkBuildingIdx: workBuilding,
				LinkBuilding: -1,
			})
		}
	}
}
