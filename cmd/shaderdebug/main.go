// Shaderdebug dispatches the real compute shaders against a small synthetic
// NPC population and diffs the result against CPUPipeline's plain-Go mirror,
// so a shader edit that silently changes semantics shows up as a position or
// targeting mismatch instead of a replay-only failure three systems later.
//
// Usage: go run ./cmd/shaderdebug -npcs 64 -ticks 30
package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/holdfast/gpu"
)

func main() {
	npcs := flag.Int("npcs", 64, "Synthetic NPC count")
	ticks := flag.Int("ticks", 30, "Number of MoveAndTarget dispatches to compare")
	gridCell := flag.Float64("cell-size", 64.0, "Grid cell size")
	seed := flag.Int64("seed", 1, "Random seed for synthetic positions/goals")
	flag.Parse()

	rl.SetConfigFlags(rl.FlagWindowHidden)
	rl.InitWindow(64, 64, "shaderdebug")
	defer rl.CloseWindow()

	gpuPipe := gpu.NewRaylibPipeline(*npcs, 1)
	defer gpuPipe.Unload()
	cpuPipe := gpu.NewCPUPipeline(*npcs, 1)

	positions, goals, speeds, factions, arrivals, npcFlags, healths := syntheticFields(*npcs, *seed)

	gpuPipe.UploadNPCFields(positions, goals, speeds, factions, arrivals, npcFlags, healths)
	cpuPipe.UploadNPCFields(positions, goals, speeds, factions, arrivals, npcFlags, healths)

	const worldSize = 2048.0
	gridW := int32(math.Ceil(worldSize / *gridCell))
	params := gpu.Params{
		Count:            int32(*npcs),
		Delta:            1.0 / 60.0,
		GridW:            gridW,
		GridH:            gridW,
		CellSize:         float32(*gridCell),
		MaxPerCell:       16,
		ArrivalThreshold: 4.0,
		CombatRange:      32.0,
	}

	var maxDelta float32
	var maxDeltaIdx int
	var targetMismatches int

	for t := 0; t < *ticks; t++ {
		gpuPipe.ClearGrid(params)
		gpuPipe.BuildGrid(params)
		gpuPipe.MoveAndTarget(params)

		cpuPipe.ClearGrid(params)
		cpuPipe.BuildGrid(params)
		cpuPipe.MoveAndTarget(params)
	}

	gpuPos := gpuPipe.ReadPositions(int32(*npcs))
	cpuPos := cpuPipe.ReadPositions(int32(*npcs))
	gpuTargets := gpuPipe.ReadCombatTargets(int32(*npcs))
	cpuTargets := cpuPipe.ReadCombatTargets(int32(*npcs))

	for i := 0; i < *npcs; i++ {
		dx := gpuPos[i*2] - cpuPos[i*2]
		dy := gpuPos[i*2+1] - cpuPos[i*2+1]
		d := float32(math.Hypot(float64(dx), float64(dy)))
		if d > maxDelta {
			maxDelta = d
			maxDeltaIdx = i
		}
		if gpuTargets[i] != cpuTargets[i] {
			targetMismatches++
		}
	}

	fmt.Printf("ran %d ticks over %d NPCs\n", *ticks, *npcs)
	fmt.Printf("max position delta: %.4f (npc %d)\n", maxDelta, maxDeltaIdx)
	fmt.Printf("combat target mismatches: %d/%d\n", targetMismatches, *npcs)

	if maxDelta > 1.0 || targetMismatches > 0 {
		fmt.Fprintln(os.Stderr, "shader and CPU mirror have diverged")
		os.Exit(1)
	}
}

func syntheticFields(n int, seed int64) (positions, goals, speeds []float32, factions, arrivals, npcFlags []int32, healths []float32) {
	rng := rand.New(rand.NewSource(seed))

	positions = make([]float32, n*2)
	goals = make([]float32, n*2)
	speeds = make([]float32, n)
	factions = make([]int32, n)
	arrivals = make([]int32, n)
	npcFlags = make([]int32, n)
	healths = make([]float32, n)

	for i := 0; i < n; i++ {
		positions[i*2] = rng.Float32() * 2048
		positions[i*2+1] = rng.Float32() * 2048
		goals[i*2] = rng.Float32() * 2048
		goals[i*2+1] = rng.Float32() * 2048
		speeds[i] = 40 + rng.Float32()*30
		factions[i] = int32(i % 2)
		arrivals[i] = 0
		npcFlags[i] = 1
		healths[i] = 100
	}
	return
}
