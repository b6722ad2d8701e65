package gpu

import "math"

// CPUPipeline mirrors the GPU compute semantics of spec §4.3 in plain Go.
// It backs headless runs (no GL context available) and tests, and is the
// reference implementation RaylibPipeline's shaders must match.
type CPUPipeline struct {
	npcCap  int
	projCap int

	positions []float32
	goals     []float32
	speeds    []float32
	factions  []int32
	arrivals  []int32
	npcFlags  []int32
	healths   []float32

	gridCounts []int32
	gridData   []int32

	combatTargets []int32

	projPositions []float32
	projVelocity  []float32
	projLifetime  []float32
	projDamage    []float32
	projFaction   []int32
	projShooter   []int32
	projActive    []int32
	projHits      []int32
}

// NewCPUPipeline allocates a pipeline sized for the given caps.
func NewCPUPipeline(npcCap, projCap int) *CPUPipeline {
	p := &CPUPipeline{}
	p.Resize(npcCap, projCap)
	return p
}

// Resize implements Pipeline.
func (p *CPUPipeline) Resize(npcCap, projCap int) {
	p.npcCap = npcCap
	p.projCap = projCap
	p.positions = growF32(p.positions, npcCap*2)
	p.goals = growF32(p.goals, npcCap*2)
	p.speeds = growF32(p.speeds, npcCap)
	p.factions = growI32(p.factions, npcCap)
	p.arrivals = growI32(p.arrivals, npcCap)
	p.npcFlags = growI32(p.npcFlags, npcCap)
	p.healths = growF32(p.healths, npcCap)
	p.combatTargets = growI32(p.combatTargets, npcCap)

	p.projPositions = growF32(p.projPositions, projCap*2)
	p.projVelocity = growF32(p.projVelocity, projCap*2)
	p.projLifetime = growF32(p.projLifetime, projCap)
	p.projDamage = growF32(p.projDamage, projCap)
	p.projFaction = growI32(p.projFaction, projCap)
	p.projShooter = growI32(p.projShooter, projCap)
	p.projActive = growI32(p.projActive, projCap)
	p.projHits = growI32(p.projHits, projCap)
}

func growF32(s []float32, n int) []float32 {
	if len(s) >= n {
		return s
	}
	out := make([]float32, n)
	copy(out, s)
	return out
}

func growI32(s []int32, n int) []int32 {
	if len(s) >= n {
		return s
	}
	out := make([]int32, n)
	copy(out, s)
	return out
}

// UploadNPCFields implements Pipeline.
func (p *CPUPipeline) UploadNPCFields(positions, goals, speeds []float32, factions, arrivals, npcFlags []int32, healths []float32) {
	copy(p.positions, positions)
	copy(p.goals, goals)
	copy(p.speeds, speeds)
	copy(p.factions, factions)
	copy(p.arrivals, arrivals)
	copy(p.npcFlags, npcFlags)
	copy(p.healths, healths)
}

// UploadProjFields implements Pipeline.
func (p *CPUPipeline) UploadProjFields(positions, velocity, lifetime, damage []float32, faction, shooter, active []int32) {
	copy(p.projPositions, positions)
	copy(p.projVelocity, velocity)
	copy(p.projLifetime, lifetime)
	copy(p.projDamage, damage)
	copy(p.projFaction, faction)
	copy(p.projShooter, shooter)
	copy(p.projActive, active)
}

func (p *CPUPipeline) gridDims(params Params) (cols, rows, maxPerCell int) {
	cols = int(params.GridW)
	rows = int(params.GridH)
	maxPerCell = int(params.MaxPerCell)
	if len(p.gridCounts) != cols*rows {
		p.gridCounts = make([]int32, cols*rows)
	}
	if len(p.gridData) != cols*rows*maxPerCell {
		p.gridData = make([]int32, cols*rows*maxPerCell)
	}
	return
}

// ClearGrid implements mode 0.
func (p *CPUPipeline) ClearGrid(params Params) {
	cols, rows, _ := p.gridDims(params)
	for i := 0; i < cols*rows; i++ {
		p.gridCounts[i] = 0
	}
}

// cellOf returns the grid cell index for a world position, or -1 if hidden.
func cellOf(x, y, cellSize float32, cols, rows int) int {
	if x < -9000 {
		return -1
	}
	col := int(x / cellSize)
	row := int(y / cellSize)
	if col < 0 || col >= cols || row < 0 || row >= rows {
		return -1
	}
	return row*cols + col
}

// BuildGrid implements mode 1: bin live NPCs into cells, dropping overflow
// beyond MaxPerCell for this frame only (spec §4.3/§8 boundary case).
// Overflow eviction policy: drop-by-arrival-order — once a cell's count
// exceeds MaxPerCell, later slots (in ascending slot-index iteration order)
// are the ones dropped. This is one of the two policies spec §9 leaves
// unspecified; documented here as the chosen one.
func (p *CPUPipeline) BuildGrid(params Params) {
	cols, rows, maxPerCell := p.gridDims(params)
	count := int(params.Count)
	for i := 0; i < count; i++ {
		x, y := p.positions[i*2], p.positions[i*2+1]
		cell := cellOf(x, y, params.CellSize, cols, rows)
		if cell < 0 {
			continue
		}
		slotInCell := p.gridCounts[cell]
		p.gridCounts[cell]++
		if int(slotInCell) < maxPerCell {
			p.gridData[cell*maxPerCell+int(slotInCell)] = int32(i)
		}
	}
}

// MoveAndTarget implements mode 2.
func (p *CPUPipeline) MoveAndTarget(params Params) {
	cols, rows, maxPerCell := p.gridDims(params)
	count := int(params.Count)
	cellRadius := int(math.Ceil(float64(params.CombatRange/params.CellSize))) + 1
	rangeSq := params.CombatRange * params.CombatRange

	for i := 0; i < count; i++ {
		// Movement.
		isTower := p.npcFlags[i]&2 != 0
		if p.arrivals[i] == 0 && !isTower {
			gx, gy := p.goals[i*2], p.goals[i*2+1]
			x, y := p.positions[i*2], p.positions[i*2+1]
			dx, dy := gx-x, gy-y
			dist := float32(math.Sqrt(float64(dx*dx + dy*dy)))
			if dist <= params.ArrivalThreshold {
				p.positions[i*2], p.positions[i*2+1] = gx, gy
				p.arrivals[i] = 1
			} else {
				step := p.speeds[i] * params.Delta
				if step >= dist {
					p.positions[i*2], p.positions[i*2+1] = gx, gy
					p.arrivals[i] = 1
				} else {
					p.positions[i*2] = x + dx/dist*step
					p.positions[i*2+1] = y + dy/dist*step
				}
			}
		}

		// Targeting.
		p.combatTargets[i] = -1
		if p.npcFlags[i]&1 == 0 {
			continue
		}
		if p.healths[i] <= 0 {
			continue
		}
		x, y := p.positions[i*2], p.positions[i*2+1]
		centerCol := int(x / params.CellSize)
		centerRow := int(y / params.CellSize)
		bestDistSq := rangeSq
		best := int32(-1)
		for dc := -cellRadius; dc <= cellRadius; dc++ {
			col := centerCol + dc
			if col < 0 || col >= cols {
				continue
			}
			for dr := -cellRadius; dr <= cellRadius; dr++ {
				row := centerRow + dr
				if row < 0 || row >= rows {
					continue
				}
				cell := row*cols + col
				n := int(p.gridCounts[cell])
				if n > maxPerCell {
					n = maxPerCell
				}
				for k := 0; k < n; k++ {
					j := p.gridData[cell*maxPerCell+k]
					if int(j) == i {
						continue
					}
					if p.factions[j] < 0 || p.factions[i] < 0 || p.factions[j] == p.factions[i] {
						continue
					}
					if p.healths[j] <= 0 {
						continue
					}
					jx, jy := p.positions[j*2], p.positions[j*2+1]
					ddx, ddy := jx-x, jy-y
					d2 := ddx*ddx + ddy*ddy
					if d2 < bestDistSq {
						bestDistSq = d2
						best = j
					}
				}
			}
		}
		p.combatTargets[i] = best
	}
}

// AdvanceProjectiles implements the projectile dispatch: translate by
// velocity, decrement lifetime, and resolve a single hit per active
// projectile against the NPC grid built by BuildGrid.
func (p *CPUPipeline) AdvanceProjectiles(params Params, hitRadius float32) {
	cols, rows, maxPerCell := p.gridDims(params)
	hitSq := hitRadius * hitRadius

	for j := range p.projHits {
		p.projHits[j] = -1
	}

	for j := 0; j < p.projCap; j++ {
		if p.projActive[j] == 0 {
			continue
		}
		p.projLifetime[j] -= params.Delta
		if p.projLifetime[j] <= 0 {
			p.projActive[j] = 0
			continue
		}
		p.projPositions[j*2] += p.projVelocity[j*2] * params.Delta
		p.projPositions[j*2+1] += p.projVelocity[j*2+1] * params.Delta

		x, y := p.projPositions[j*2], p.projPositions[j*2+1]
		centerCol := int(x / params.CellSize)
		centerRow := int(y / params.CellSize)

		hit := false
		for dc := -1; dc <= 1 && !hit; dc++ {
			col := centerCol + dc
			if col < 0 || col >= cols {
				continue
			}
			for dr := -1; dr <= 1 && !hit; dr++ {
				row := centerRow + dr
				if row < 0 || row >= rows {
					continue
				}
				cell := row*cols + col
				n := int(p.gridCounts[cell])
				if n > maxPerCell {
					n = maxPerCell
				}
				for k := 0; k < n; k++ {
					npc := p.gridData[cell*maxPerCell+k]
					if p.factions[npc] == p.projFaction[j] {
						continue
					}
					if p.healths[npc] <= 0 {
						continue
					}
					nx, ny := p.positions[npc*2], p.positions[npc*2+1]
					ddx, ddy := nx-x, ny-y
					if ddx*ddx+ddy*ddy < hitSq {
						p.projHits[j] = npc
						p.projActive[j] = 0
						hit = true
						break
					}
				}
			}
		}
	}
}

// ReadPositions implements Pipeline.
func (p *CPUPipeline) ReadPositions(count int32) []float32 {
	out := make([]float32, count*2)
	copy(out, p.positions[:count*2])
	return out
}

// ReadCombatTargets implements Pipeline.
func (p *CPUPipeline) ReadCombatTargets(count int32) []int32 {
	out := make([]int32, count)
	copy(out, p.combatTargets[:count])
	return out
}

// ReadProjHits implements Pipeline.
func (p *CPUPipeline) ReadProjHits(count int32) []int32 {
	out := make([]int32, count)
	copy(out, p.projHits[:count])
	return out
}

// ReadProjPositions implements Pipeline.
func (p *CPUPipeline) ReadProjPositions(count int32) []float32 {
	out := make([]float32, count*2)
	copy(out, p.projPositions[:count*2])
	return out
}

// Unload implements Pipeline. No GPU resources to release.
func (p *CPUPipeline) Unload() {}
