package main

import (
	"math/rand"

	"github.com/pthm-cable/holdfast/components"
	"github.com/pthm-cable/holdfast/scheduler"
	"github.com/pthm-cable/holdfast/worldstate"
)

// seedEvalWorld builds a small two-faction settlement pair for one
// fitness-evaluation run: a fountain, four job homes, one farm and one
// mine per town, and a dozen NPCs split across jobs — enough to exercise
// economy production/consumption and combat without the per-run cost of
// a full-size population. seed only jitters spawn offsets, keeping each
// evaluation's building layout identical across seeds.
func seedEvalWorld(sched *scheduler.Scheduler, seed int64) {
	rng := rand.New(rand.NewSource(seed))

	type town struct {
		faction   components.Faction
		cx, cy    float32
		townID    int32
		fountainX float32
		fountainY float32
		homeX     [4]float32 // farmer, archer, crossbow, miner
		homeY     [4]float32
		farmIdx   int32
		farmX     float32
		farmY     float32
		mineIdx   int32
		mineX     float32
		mineY     float32
	}

	towns := []town{
		{faction: components.FactionPlayer, cx: 500, cy: 500},
		{faction: 1, cx: 2500, cy: 2500},
	}

	for i := range towns {
		t := &towns[i]
		t.townID = sched.State.AddTown(worldstate.Town{
			Faction: t.faction, CenterX: t.cx, CenterY: t.cy, Food: 100, Gold: 50,
		})
		t.fountainX, t.fountainY = t.cx, t.cy
		t.homeX = [4]float32{t.cx - 80, t.cx + 80, t.cx + 80, t.cx - 80}
		t.homeY = [4]float32{t.cy - 40, t.cy - 40, t.cy + 40, t.cy + 40}
		t.farmX, t.farmY = t.cx-180, t.cy-100
		t.mineX, t.mineY = t.cx+180, t.cy+100

		sched.Commands.Build(scheduler.BuildCommand{Kind: int32(worldstate.BuildingFountain), X: t.fountainX, Y: t.fountainY, TownID: t.townID})
		sched.Commands.Build(scheduler.BuildCommand{Kind: int32(worldstate.BuildingFarmerHome), X: t.homeX[0], Y: t.homeY[0], TownID: t.townID})
		sched.Commands.Build(scheduler.BuildCommand{Kind: int32(worldstate.BuildingArcherHome), X: t.homeX[1], Y: t.homeY[1], TownID: t.townID})
		sched.Commands.Build(scheduler.BuildCommand{Kind: int32(worldstate.BuildingCrossbowHome), X: t.homeX[2], Y: t.homeY[2], TownID: t.townID})
		sched.Commands.Build(scheduler.BuildCommand{Kind: int32(worldstate.BuildingMinerHome), X: t.homeX[3], Y: t.homeY[3], TownID: t.townID})
		sched.Commands.Build(scheduler.BuildCommand{Kind: int32(worldstate.BuildingFarm), X: t.farmX, Y: t.farmY, TownID: t.townID})
		sched.Commands.Build(scheduler.BuildCommand{Kind: int32(worldstate.BuildingGoldMine), X: t.mineX, Y: t.mineY, TownID: t.townID})
	}

	sched.Tick(sched.Cfg.Derived.DT32)

	// 7 buildings queued per town, in order: fountain, 4 homes, farm, mine.
	for i := range towns {
		t := &towns[i]
		base := int32(i * 7)
		t.farmIdx = base + 5
		t.mineIdx = base + 6
		sched.State.AddFarm(worldstate.Farm{BuildingIdx: t.farmIdx, TownID: t.townID})
		sched.State.AddMine(worldstate.Mine{BuildingIdx: t.mineIdx, Gold: 200, RegenCap: 200, TownID: t.townID})
	}

	roster := []components.Job{
		components.JobFarmer, components.JobFarmer, components.JobFarmer,
		components.JobArcher, components.JobCrossbow, components.JobFighter,
		components.JobFighter, components.JobRaider, components.JobMiner,
		components.JobFarmer, components.JobArcher, components.JobFighter,
	}

	for i := range towns {
		t := &towns[i]
		for _, job := range roster {
			homeX, homeY := t.homeX[0], t.homeY[0]
			workX, workY := t.farmX, t.farmY
			workBuilding := t.farmIdx
			switch job {
			case components.JobArcher:
				homeX, homeY, workX, workY, workBuilding = t.homeX[1], t.homeY[1], t.fountainX, t.fountainY, -1
			case components.JobCrossbow:
				homeX, homeY, workX, workY, workBuilding = t.homeX[2], t.homeY[2], t.fountainX, t.fountainY, -1
			case components.JobFighter, components.JobRaider:
				workX, workY, workBuilding = t.fountainX, t.fountainY, -1
			case components.JobMiner:
				homeX, homeY, workX, workY, workBuilding = t.homeX[3], t.homeY[3], t.mineX, t.mineY, t.mineIdx
			}

			jitterX := float32(rng.Intn(40) - 20)
			jitterY := float32(rng.Intn(40) - 20)

			sched.Commands.Spawn(scheduler.SpawnRequest{
				X: homeX + jitterX, Y: homeY + jitterY,
				Job: job, Faction: t.faction, TownID: t.townID,
				HomeX: homeX, HomeY: homeY,
				WorkX: workX, WorkY: workY, WorkBuildingIdx: workBuilding,
				LinkBuilding: -1,
			})
		}
	}
}
