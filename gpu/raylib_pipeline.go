package gpu

import (
	"unsafe"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// f32Bytes and i32Bytes view a float32/int32 slice as raw bytes for
// rl.UpdateShaderBuffer/rl.ReadShaderBuffer, which operate on unsafe.Pointer
// + byte length rather than typed slices.
func f32Bytes(s []float32) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*4)
}

func i32Bytes(s []int32) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*4)
}

// Persistent storage buffer bindings for the projectile compute, continuing
// the indices reserved by the NPC buffer table in spec §4.3.
const (
	bindProjPositions = 20 + iota
	bindProjVelocity
	bindProjLifetime
	bindProjFaction
	bindProjActive
	bindProjHits
)

// RaylibPipeline drives the NPC and projectile compute shaders through
// raylib-go's rlgl-backed compute entry points. It generalizes the
// fragment-shader render-to-texture pattern the teacher's
// renderer/resource_gpu.go and renderer/flowfield_gpu.go use for scalar
// fields to true SSBO compute dispatches, which neither of those fields
// needed (they sample a value per pixel; this pipeline mutates thousands of
// discrete records in place across three dependent passes).
type RaylibPipeline struct {
	gridProgram   uint32
	moveProgram   uint32
	projProgram   uint32

	positions     uint32
	goals         uint32
	speeds        uint32
	gridCounts    uint32
	gridData      uint32
	arrivals      uint32
	factions      uint32
	healths       uint32
	combatTargets uint32
	npcFlags      uint32

	projPositions uint32
	projVelocity  uint32
	projLifetime  uint32
	projFaction   uint32
	projShooter   uint32
	projActive    uint32
	projHits      uint32

	npcCap  int
	projCap int
}

// NewRaylibPipeline compiles the compute programs and allocates buffers for
// the given capacities. Must be called after the raylib window/GL context is
// initialized.
func NewRaylibPipeline(npcCap, projCap int) *RaylibPipeline {
	p := &RaylibPipeline{}

	gridSrc := rl.LoadFileText("gpu/shaders/npc_grid.comp")
	p.gridProgram = rl.LoadComputeShaderProgram(rl.CompileShader(gridSrc, rl.ComputeShader))
	rl.UnloadFileText(gridSrc)

	moveSrc := rl.LoadFileText("gpu/shaders/npc_move_target.comp")
	p.moveProgram = rl.LoadComputeShaderProgram(rl.CompileShader(moveSrc, rl.ComputeShader))
	rl.UnloadFileText(moveSrc)

	projSrc := rl.LoadFileText("gpu/shaders/projectile.comp")
	p.projProgram = rl.LoadComputeShaderProgram(rl.CompileShader(projSrc, rl.ComputeShader))
	rl.UnloadFileText(projSrc)

	p.allocBuffers(npcCap, projCap)
	return p
}

func (p *RaylibPipeline) allocBuffers(npcCap, projCap int) {
	const dynamic = rl.DynamicCopy
	p.positions = rl.LoadShaderBuffer(uint32(npcCap*2*4), nil, dynamic)
	p.goals = rl.LoadShaderBuffer(uint32(npcCap*2*4), nil, dynamic)
	p.speeds = rl.LoadShaderBuffer(uint32(npcCap*4), nil, dynamic)
	p.arrivals = rl.LoadShaderBuffer(uint32(npcCap*4), nil, dynamic)
	p.factions = rl.LoadShaderBuffer(uint32(npcCap*4), nil, dynamic)
	p.healths = rl.LoadShaderBuffer(uint32(npcCap*4), nil, dynamic)
	p.combatTargets = rl.LoadShaderBuffer(uint32(npcCap*4), nil, dynamic)
	p.npcFlags = rl.LoadShaderBuffer(uint32(npcCap*4), nil, dynamic)

	p.projPositions = rl.LoadShaderBuffer(uint32(projCap*2*4), nil, dynamic)
	p.projVelocity = rl.LoadShaderBuffer(uint32(projCap*2*4), nil, dynamic)
	p.projLifetime = rl.LoadShaderBuffer(uint32(projCap*4), nil, dynamic)
	p.projFaction = rl.LoadShaderBuffer(uint32(projCap*4), nil, dynamic)
	p.projShooter = rl.LoadShaderBuffer(uint32(projCap*4), nil, dynamic)
	p.projActive = rl.LoadShaderBuffer(uint32(projCap*4), nil, dynamic)
	p.projHits = rl.LoadShaderBuffer(uint32(projCap*4), nil, dynamic)

	p.npcCap = npcCap
	p.projCap = projCap
}

// Resize implements Pipeline. Raylib shader storage buffers have no resize
// primitive, so grown capacity requires reallocating and losing prior
// contents; the caller (scheduler) re-uploads full state on resize.
func (p *RaylibPipeline) Resize(npcCap, projCap int) {
	if npcCap <= p.npcCap && projCap <= p.projCap {
		return
	}
	p.unloadBuffers()
	p.allocBuffers(npcCap, projCap)
}

func (p *RaylibPipeline) unloadBuffers() {
	for _, b := range []uint32{
		p.positions, p.goals, p.speeds, p.arrivals, p.factions, p.healths,
		p.combatTargets, p.npcFlags, p.projPositions, p.projVelocity,
		p.projLifetime, p.projFaction, p.projShooter, p.projActive, p.projHits,
	} {
		rl.UnloadShaderBuffer(b)
	}
}

// UploadNPCFields implements Pipeline.
func (p *RaylibPipeline) UploadNPCFields(positions, goals, speeds []float32, factions, arrivals, npcFlags []int32, healths []float32) {
	rl.UpdateShaderBuffer(p.positions, f32Bytes(positions), 0)
	rl.UpdateShaderBuffer(p.goals, f32Bytes(goals), 0)
	rl.UpdateShaderBuffer(p.speeds, f32Bytes(speeds), 0)
	rl.UpdateShaderBuffer(p.factions, i32Bytes(factions), 0)
	rl.UpdateShaderBuffer(p.arrivals, i32Bytes(arrivals), 0)
	rl.UpdateShaderBuffer(p.npcFlags, i32Bytes(npcFlags), 0)
	rl.UpdateShaderBuffer(p.healths, f32Bytes(healths), 0)
}

// UploadProjFields implements Pipeline.
func (p *RaylibPipeline) UploadProjFields(positions, velocity, lifetime, damage []float32, faction, shooter, active []int32) {
	rl.UpdateShaderBuffer(p.projPositions, f32Bytes(positions), 0)
	rl.UpdateShaderBuffer(p.projVelocity, f32Bytes(velocity), 0)
	rl.UpdateShaderBuffer(p.projLifetime, f32Bytes(lifetime), 0)
	rl.UpdateShaderBuffer(p.projFaction, i32Bytes(faction), 0)
	rl.UpdateShaderBuffer(p.projShooter, i32Bytes(shooter), 0)
	rl.UpdateShaderBuffer(p.projActive, i32Bytes(active), 0)
}

func (p *RaylibPipeline) bindGridBuffers() {
	rl.BindShaderBuffer(p.positions, BindPositions)
	rl.BindShaderBuffer(p.gridCounts, BindGridCounts)
	rl.BindShaderBuffer(p.gridData, BindGridData)
}

// ClearGrid implements Pipeline (mode 0).
func (p *RaylibPipeline) ClearGrid(params Params) {
	rl.EnableShader(p.gridProgram)
	p.bindGridBuffers()
	setGridUniforms(p.gridProgram, params, 0)
	groups := uint32((int(params.GridW*params.GridH) + 63) / 64)
	rl.ComputeShaderDispatch(groups, 1, 1)
	rl.MemoryBarrier()
}

// BuildGrid implements Pipeline (mode 1).
func (p *RaylibPipeline) BuildGrid(params Params) {
	rl.EnableShader(p.gridProgram)
	p.bindGridBuffers()
	setGridUniforms(p.gridProgram, params, 1)
	groups := uint32((int(params.Count) + 63) / 64)
	rl.ComputeShaderDispatch(groups, 1, 1)
	rl.MemoryBarrier()
}

// MoveAndTarget implements Pipeline (mode 2).
func (p *RaylibPipeline) MoveAndTarget(params Params) {
	rl.EnableShader(p.moveProgram)
	rl.BindShaderBuffer(p.positions, BindPositions)
	rl.BindShaderBuffer(p.goals, BindGoals)
	rl.BindShaderBuffer(p.speeds, BindSpeeds)
	rl.BindShaderBuffer(p.gridCounts, BindGridCounts)
	rl.BindShaderBuffer(p.gridData, BindGridData)
	rl.BindShaderBuffer(p.arrivals, BindArrivals)
	rl.BindShaderBuffer(p.factions, BindFactions)
	rl.BindShaderBuffer(p.healths, BindHealths)
	rl.BindShaderBuffer(p.combatTargets, BindCombatTargets)
	rl.BindShaderBuffer(p.npcFlags, BindNpcFlags)

	rl.SetShaderValue(p.moveProgram, rl.GetLocationUniform(p.moveProgram, "u_count"), []int32{params.Count}, rl.ShaderUniformInt)
	rl.SetShaderValue(p.moveProgram, rl.GetLocationUniform(p.moveProgram, "u_delta"), []float32{params.Delta}, rl.ShaderUniformFloat)
	rl.SetShaderValue(p.moveProgram, rl.GetLocationUniform(p.moveProgram, "u_grid_w"), []int32{params.GridW}, rl.ShaderUniformInt)
	rl.SetShaderValue(p.moveProgram, rl.GetLocationUniform(p.moveProgram, "u_grid_h"), []int32{params.GridH}, rl.ShaderUniformInt)
	rl.SetShaderValue(p.moveProgram, rl.GetLocationUniform(p.moveProgram, "u_cell_size"), []float32{params.CellSize}, rl.ShaderUniformFloat)
	rl.SetShaderValue(p.moveProgram, rl.GetLocationUniform(p.moveProgram, "u_max_per_cell"), []int32{params.MaxPerCell}, rl.ShaderUniformInt)
	rl.SetShaderValue(p.moveProgram, rl.GetLocationUniform(p.moveProgram, "u_arrival_threshold"), []float32{params.ArrivalThreshold}, rl.ShaderUniformFloat)
	rl.SetShaderValue(p.moveProgram, rl.GetLocationUniform(p.moveProgram, "u_combat_range"), []float32{params.CombatRange}, rl.ShaderUniformFloat)

	groups := uint32((int(params.Count) + 63) / 64)
	rl.ComputeShaderDispatch(groups, 1, 1)
	rl.MemoryBarrier()
}

// AdvanceProjectiles implements Pipeline.
func (p *RaylibPipeline) AdvanceProjectiles(params Params, hitRadius float32) {
	rl.EnableShader(p.projProgram)
	rl.BindShaderBuffer(p.positions, BindPositions)
	rl.BindShaderBuffer(p.gridCounts, BindGridCounts)
	rl.BindShaderBuffer(p.gridData, BindGridData)
	rl.BindShaderBuffer(p.factions, BindFactions)
	rl.BindShaderBuffer(p.healths, BindHealths)
	rl.BindShaderBuffer(p.projPositions, bindProjPositions)
	rl.BindShaderBuffer(p.projVelocity, bindProjVelocity)
	rl.BindShaderBuffer(p.projLifetime, bindProjLifetime)
	rl.BindShaderBuffer(p.projFaction, bindProjFaction)
	rl.BindShaderBuffer(p.projActive, bindProjActive)
	rl.BindShaderBuffer(p.projHits, bindProjHits)

	rl.SetShaderValue(p.projProgram, rl.GetLocationUniform(p.projProgram, "u_proj_count"), []int32{int32(p.projCap)}, rl.ShaderUniformInt)
	rl.SetShaderValue(p.projProgram, rl.GetLocationUniform(p.projProgram, "u_delta"), []float32{params.Delta}, rl.ShaderUniformFloat)
	rl.SetShaderValue(p.projProgram, rl.GetLocationUniform(p.projProgram, "u_grid_w"), []int32{params.GridW}, rl.ShaderUniformInt)
	rl.SetShaderValue(p.projProgram, rl.GetLocationUniform(p.projProgram, "u_grid_h"), []int32{params.GridH}, rl.ShaderUniformInt)
	rl.SetShaderValue(p.projProgram, rl.GetLocationUniform(p.projProgram, "u_cell_size"), []float32{params.CellSize}, rl.ShaderUniformFloat)
	rl.SetShaderValue(p.projProgram, rl.GetLocationUniform(p.projProgram, "u_max_per_cell"), []int32{params.MaxPerCell}, rl.ShaderUniformInt)
	rl.SetShaderValue(p.projProgram, rl.GetLocationUniform(p.projProgram, "u_hit_radius"), []float32{hitRadius}, rl.ShaderUniformFloat)

	groups := uint32((p.projCap + 63) / 64)
	rl.ComputeShaderDispatch(groups, 1, 1)
	rl.MemoryBarrier()
}

func setGridUniforms(program uint32, params Params, mode int32) {
	rl.SetShaderValue(program, rl.GetLocationUniform(program, "u_count"), []int32{params.Count}, rl.ShaderUniformInt)
	rl.SetShaderValue(program, rl.GetLocationUniform(program, "u_grid_w"), []int32{params.GridW}, rl.ShaderUniformInt)
	rl.SetShaderValue(program, rl.GetLocationUniform(program, "u_grid_h"), []int32{params.GridH}, rl.ShaderUniformInt)
	rl.SetShaderValue(program, rl.GetLocationUniform(program, "u_cell_size"), []float32{params.CellSize}, rl.ShaderUniformFloat)
	rl.SetShaderValue(program, rl.GetLocationUniform(program, "u_max_per_cell"), []int32{params.MaxPerCell}, rl.ShaderUniformInt)
	rl.SetShaderValue(program, rl.GetLocationUniform(program, "u_mode"), []int32{mode}, rl.ShaderUniformInt)
}

// ReadPositions implements Pipeline.
func (p *RaylibPipeline) ReadPositions(count int32) []float32 {
	out := make([]float32, count*2)
	rl.ReadShaderBuffer(p.positions, f32Bytes(out), 0)
	return out
}

// ReadCombatTargets implements Pipeline.
func (p *RaylibPipeline) ReadCombatTargets(count int32) []int32 {
	out := make([]int32, count)
	rl.ReadShaderBuffer(p.combatTargets, i32Bytes(out), 0)
	return out
}

// ReadProjHits implements Pipeline.
func (p *RaylibPipeline) ReadProjHits(count int32) []int32 {
	out := make([]int32, count)
	rl.ReadShaderBuffer(p.projHits, i32Bytes(out), 0)
	return out
}

// ReadProjPositions implements Pipeline.
func (p *RaylibPipeline) ReadProjPositions(count int32) []float32 {
	out := make([]float32, count*2)
	rl.ReadShaderBuffer(p.projPositions, f32Bytes(out), 0)
	return out
}

// Unload implements Pipeline.
func (p *RaylibPipeline) Unload() {
	rl.UnloadShaderProgram(p.gridProgram)
	rl.UnloadShaderProgram(p.moveProgram)
	rl.UnloadShaderProgram(p.projProgram)
	p.unloadBuffers()
}
