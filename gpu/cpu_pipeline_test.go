package gpu

import "testing"

func baseParams(count int32) Params {
	return Params{
		Count:            count,
		Delta:            1,
		GridW:            4,
		GridH:            4,
		CellSize:         10,
		MaxPerCell:       4,
		ArrivalThreshold: 0.5,
		CombatRange:      15,
	}
}

func TestCPUPipelineMoveArrival(t *testing.T) {
	p := NewCPUPipeline(4, 4)
	positions := []float32{0, 0}
	goals := []float32{5, 0}
	speeds := []float32{2}
	factions := []int32{0}
	arrivals := []int32{0}
	flags := []int32{0}
	healths := []float32{10}
	p.UploadNPCFields(positions, goals, speeds, factions, arrivals, flags, healths)

	params := baseParams(1)
	p.ClearGrid(params)
	p.BuildGrid(params)
	p.MoveAndTarget(params)

	got := p.ReadPositions(1)
	if got[0] != 2 || got[1] != 0 {
		t.Fatalf("expected one step of 2 units, got %v", got)
	}
	targets := p.ReadCombatTargets(1)
	if targets[0] != -1 {
		t.Fatalf("expected no combat target, got %d", targets[0])
	}

	// Advance until arrival.
	for i := 0; i < 10; i++ {
		p.ClearGrid(params)
		p.BuildGrid(params)
		p.MoveAndTarget(params)
	}
	got = p.ReadPositions(1)
	if got[0] != 5 || got[1] != 0 {
		t.Fatalf("expected arrival at goal, got %v", got)
	}
}

func TestCPUPipelineCombatTargeting(t *testing.T) {
	p := NewCPUPipeline(4, 4)
	positions := []float32{10, 10, 12, 10}
	goals := []float32{10, 10, 12, 10}
	speeds := []float32{0, 0}
	factions := []int32{0, 1}
	arrivals := []int32{1, 1}
	flags := []int32{1, 1} // both combat-scan
	healths := []float32{10, 10}
	p.UploadNPCFields(positions, goals, speeds, factions, arrivals, flags, healths)

	params := baseParams(2)
	p.ClearGrid(params)
	p.BuildGrid(params)
	p.MoveAndTarget(params)

	targets := p.ReadCombatTargets(2)
	if targets[0] != 1 {
		t.Fatalf("npc 0 should target npc 1, got %d", targets[0])
	}
	if targets[1] != 0 {
		t.Fatalf("npc 1 should target npc 0, got %d", targets[1])
	}
}

func TestCPUPipelineCombatIgnoresSameFaction(t *testing.T) {
	p := NewCPUPipeline(4, 4)
	positions := []float32{10, 10, 12, 10}
	goals := []float32{10, 10, 12, 10}
	speeds := []float32{0, 0}
	factions := []int32{0, 0}
	arrivals := []int32{1, 1}
	flags := []int32{1, 1}
	healths := []float32{10, 10}
	p.UploadNPCFields(positions, goals, speeds, factions, arrivals, flags, healths)

	params := baseParams(2)
	p.ClearGrid(params)
	p.BuildGrid(params)
	p.MoveAndTarget(params)

	targets := p.ReadCombatTargets(2)
	if targets[0] != -1 || targets[1] != -1 {
		t.Fatalf("same-faction npcs must not target each other, got %v", targets)
	}
}

func TestCPUPipelineProjectileHit(t *testing.T) {
	p := NewCPUPipeline(4, 4)
	positions := []float32{10, 10}
	goals := []float32{10, 10}
	speeds := []float32{0}
	factions := []int32{0}
	arrivals := []int32{1}
	flags := []int32{0}
	healths := []float32{10}
	p.UploadNPCFields(positions, goals, speeds, factions, arrivals, flags, healths)

	params := baseParams(1)
	p.ClearGrid(params)
	p.BuildGrid(params)

	projPositions := []float32{5, 10}
	projVelocity := []float32{5, 0}
	projLifetime := []float32{5}
	projDamage := []float32{1}
	projFaction := []int32{1}
	projShooter := []int32{0}
	projActive := []int32{1}
	p.UploadProjFields(projPositions, projVelocity, projLifetime, projDamage, projFaction, projShooter, projActive)

	p.AdvanceProjectiles(params, 2)
	hits := p.ReadProjHits(1)
	if hits[0] != 0 {
		t.Fatalf("expected projectile to hit npc 0, got %d", hits[0])
	}
}

func TestCPUPipelineProjectileExpires(t *testing.T) {
	p := NewCPUPipeline(2, 2)
	p.UploadProjFields(
		[]float32{0, 0},
		[]float32{1, 0},
		[]float32{0.5},
		[]float32{1},
		[]int32{0},
		[]int32{0},
		[]int32{1},
	)
	params := baseParams(0)
	p.AdvanceProjectiles(params, 2)
	hits := p.ReadProjHits(1)
	if hits[0] != -1 {
		t.Fatalf("expected no hit on expiry, got %d", hits[0])
	}
}

func TestCPUPipelineGridOverflowDropsExcess(t *testing.T) {
	p := NewCPUPipeline(8, 1)
	n := 6
	positions := make([]float32, n*2)
	goals := make([]float32, n*2)
	speeds := make([]float32, n)
	factions := make([]int32, n)
	arrivals := make([]int32, n)
	flags := make([]int32, n)
	healths := make([]float32, n)
	for i := 0; i < n; i++ {
		positions[i*2] = 1
		positions[i*2+1] = 1
		goals[i*2] = 1
		goals[i*2+1] = 1
		arrivals[i] = 1
		healths[i] = 10
	}
	p.UploadNPCFields(positions, goals, speeds, factions, arrivals, flags, healths)

	params := baseParams(int32(n))
	params.MaxPerCell = 4
	p.ClearGrid(params)
	p.BuildGrid(params)

	if p.gridCounts[0] != int32(n) {
		t.Fatalf("expected raw count to track all %d arrivals, got %d", n, p.gridCounts[0])
	}
	stored := 0
	for k := 0; k < int(params.MaxPerCell); k++ {
		if p.gridData[k] >= 0 {
			stored++
		}
	}
	if stored != int(params.MaxPerCell) {
		t.Fatalf("expected exactly MaxPerCell slots filled, got %d", stored)
	}
}
