// Package gpu implements the NPC and projectile compute pipeline (spec
// §4.3): three-mode NPC compute (clear grid, build grid, move+target) and a
// one-mode projectile compute (advance+collide), bound to the persistent
// storage buffers the table in spec §4.3 names.
//
// Two implementations satisfy Pipeline: RaylibPipeline drives real SSBO
// compute dispatches through raylib-go's rlgl-backed entry points
// (generalizing the fragment-shader GPU-field pattern in the teacher's
// renderer/resource_gpu.go and renderer/flowfield_gpu.go to true compute
// shaders — the same dependency, a corner of its API the teacher's
// fragment-shader fields never needed). CPUPipeline mirrors the same
// semantics in plain Go for headless runs and for tests, which cannot open
// a GL context.
package gpu

// Params mirrors the compute uniform named in spec §4.3.
type Params struct {
	Count            int32
	Delta            float32
	GridW, GridH     int32
	CellSize         float32
	MaxPerCell       int32
	ArrivalThreshold float32
	CombatRange      float32
}

// Buffer binding indices, matching the table in spec §4.3.
const (
	BindPositions = iota
	BindGoals
	BindSpeeds
	BindGridCounts
	BindGridData
	BindArrivals
	BindBackoff
	BindFactions
	BindHealths
	BindCombatTargets
	BindNpcFlags
)

// Pipeline is the GPU (or GPU-equivalent) compute surface the scheduler
// drives once per frame, in the fixed order spec §4.3/§6 require: NPC
// dispatch modes 0->1->2, then the projectile dispatch (which reads the NPC
// grid built by mode 1).
type Pipeline interface {
	// UploadNPCFields pushes the whole per-field NPC arrays (positions,
	// goals, speeds, factions, arrivals, npc_flags, healths) to the GPU;
	// there is no per-index upload path.
	UploadNPCFields(positions, goals, speeds []float32, factions, arrivals, npcFlags []int32, healths []float32)
	UploadProjFields(positions, velocity, lifetime, damage []float32, faction, shooter, active []int32)

	// ClearGrid zeroes the per-cell NPC counts (mode 0).
	ClearGrid(p Params)
	// BuildGrid bins live NPCs into grid cells (mode 1).
	BuildGrid(p Params)
	// MoveAndTarget steps positions toward goals and resolves combat
	// targeting (mode 2).
	MoveAndTarget(p Params)
	// AdvanceProjectiles steps projectile position/lifetime and resolves
	// hits against the NPC grid built by BuildGrid.
	AdvanceProjectiles(p Params, hitRadius float32)

	// ReadPositions, ReadCombatTargets, ReadProjHits, ReadProjPositions
	// copy the corresponding buffers back synchronously; the scheduler holds
	// the result and consumes it in the following frame's Drain phase
	// (spec §5: "GPU readbacks produced by frame N are visible to CPU
	// systems in frame N+1 at earliest").
	ReadPositions(count int32) []float32
	ReadCombatTargets(count int32) []int32
	ReadProjHits(count int32) []int32
	ReadProjPositions(count int32) []float32

	// Resize grows persistent buffers to the new capacity. CPUPipeline
	// preserves existing contents below the old capacity; RaylibPipeline
	// reallocates its buffers and does not preserve their contents.
	Resize(npcCap, projCap int)

	// Unload releases GPU resources. No-op for CPUPipeline.
	Unload()
}
