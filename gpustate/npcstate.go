// Package gpustate holds the main-world GPU write-staging buffers (spec
// §4.4): flat per-field arrays sized to the NPC/projectile caps, each with a
// dirty-index list of the slots changed since the last ClearDirty. The
// scheduler's upload phase sends every array whole and does not read these
// lists.
package gpustate

import "github.com/pthm-cable/holdfast/messages"

// NpcGpuState mirrors the NPC compute buffers (spec §4.3 table) on the CPU
// side, plus bookkeeping of the slots touched since the last ClearDirty.
type NpcGpuState struct {
	Positions  []float32 // interleaved x,y; GPU-authoritative, but seeded once on spawn
	Goals      []float32 // interleaved x,y
	Speeds     []float32
	Factions   []int32
	Healths    []float32
	Arrivals   []int32
	NpcFlags   []int32
	Sprites    []int32 // interleaved col,row,atlas
	Flash      []float32

	dirtyPositions []int32
	dirtyGoals     []int32
	dirtySpeeds    []int32
	dirtyFactions  []int32
	dirtyHealths   []int32
	dirtyArrivals  []int32
	dirtyFlags     []int32
	dirtySprites   []int32
	dirtyFlash     []int32
}

// NewNpcGpuState allocates state sized for cap slots.
func NewNpcGpuState(cap int) *NpcGpuState {
	s := &NpcGpuState{
		Positions: make([]float32, cap*2),
		Goals:     make([]float32, cap*2),
		Speeds:    make([]float32, cap),
		Factions:  make([]int32, cap),
		Healths:   make([]float32, cap),
		Arrivals:  make([]int32, cap),
		NpcFlags:  make([]int32, cap),
		Sprites:   make([]int32, cap*3),
		Flash:     make([]float32, cap),
	}
	for i := range s.Factions {
		s.Factions[i] = int32(-1)
	}
	return s
}

// Apply applies a drained message queue to the staging arrays, appending
// the touched slot to the matching dirty list. Order matches the kind
// enumeration in spec §4.4.
func (s *NpcGpuState) Apply(msgs []messages.Message) {
	for _, m := range msgs {
		switch m.Kind {
		case messages.SetPosition:
			s.Positions[m.Slot*2] = m.X
			s.Positions[m.Slot*2+1] = m.Y
			s.dirtyPositions = append(s.dirtyPositions, m.Slot)
		case messages.SetTarget:
			s.Goals[m.Slot*2] = m.X
			s.Goals[m.Slot*2+1] = m.Y
			s.dirtyGoals = append(s.dirtyGoals, m.Slot)
			s.Arrivals[m.Slot] = 0
			s.dirtyArrivals = append(s.dirtyArrivals, m.Slot)
		case messages.SetSpeed:
			s.Speeds[m.Slot] = m.F1
			s.dirtySpeeds = append(s.dirtySpeeds, m.Slot)
		case messages.SetFaction:
			s.Factions[m.Slot] = m.I1
			s.dirtyFactions = append(s.dirtyFactions, m.Slot)
		case messages.SetHealth:
			s.Healths[m.Slot] = m.F1
			s.dirtyHealths = append(s.dirtyHealths, m.Slot)
		case messages.SetFlags:
			s.NpcFlags[m.Slot] = m.I1
			s.dirtyFlags = append(s.dirtyFlags, m.Slot)
		case messages.SetSpriteFrame:
			s.Sprites[m.Slot*3] = m.I1
			s.Sprites[m.Slot*3+1] = m.I2
			s.Sprites[m.Slot*3+2] = m.I3
			s.dirtySprites = append(s.dirtySprites, m.Slot)
		case messages.SetDamageFlash:
			s.Flash[m.Slot] = m.F1
			s.dirtyFlash = append(s.dirtyFlash, m.Slot)
		case messages.ApplyDamage:
			cur := s.Healths[m.Slot] - m.F1
			if cur < 0 {
				cur = 0
			}
			s.Healths[m.Slot] = cur
			s.dirtyHealths = append(s.dirtyHealths, m.Slot)
			s.Flash[m.Slot] = 1.0
			s.dirtyFlash = append(s.dirtyFlash, m.Slot)
		case messages.HideNpc:
			s.Positions[m.Slot*2] = -9999
			s.Positions[m.Slot*2+1] = -9999
			s.dirtyPositions = append(s.dirtyPositions, m.Slot)
			s.Goals[m.Slot*2] = -9999
			s.Goals[m.Slot*2+1] = -9999
			s.dirtyGoals = append(s.dirtyGoals, m.Slot)
			s.Arrivals[m.Slot] = 1
			s.dirtyArrivals = append(s.dirtyArrivals, m.Slot)
			s.Healths[m.Slot] = 0
			s.dirtyHealths = append(s.dirtyHealths, m.Slot)
		}
	}
}

// DecayFlash decays the per-slot damage-flash intensity at 5/s (spec §3),
// marking any slot whose flash is still nonzero dirty so it re-uploads.
func (s *NpcGpuState) DecayFlash(dt float32, count int) {
	const decayRate = 5.0
	for i := 0; i < count; i++ {
		if s.Flash[i] <= 0 {
			continue
		}
		s.Flash[i] -= decayRate * dt
		if s.Flash[i] < 0 {
			s.Flash[i] = 0
		}
		s.dirtyFlash = append(s.dirtyFlash, int32(i))
	}
}

// DirtyField identifies one of the per-field dirty-index lists so the
// extract barrier can iterate them uniformly.
type DirtyField struct {
	Name    string
	Indices []int32
	Stride  int // floats/ints per slot in the backing array
	F32     []float32
	I32     []int32
}

// DirtyFields returns every non-empty dirty list paired with its backing
// array, for the extract barrier to walk (spec §4.4: "per dirty index ...
// for GPU-authoritative fields that must not clobber readback").
func (s *NpcGpuState) DirtyFields() []DirtyField {
	var out []DirtyField
	add := func(name string, idx []int32, stride int, f32 []float32, i32 []int32) {
		if len(idx) == 0 {
			return
		}
		out = append(out, DirtyField{Name: name, Indices: idx, Stride: stride, F32: f32, I32: i32})
	}
	add("positions", s.dirtyPositions, 2, s.Positions, nil)
	add("goals", s.dirtyGoals, 2, s.Goals, nil)
	add("speeds", s.dirtySpeeds, 1, s.Speeds, nil)
	add("factions", s.dirtyFactions, 1, nil, s.Factions)
	add("healths", s.dirtyHealths, 1, s.Healths, nil)
	add("arrivals", s.dirtyArrivals, 1, nil, s.Arrivals)
	add("npc_flags", s.dirtyFlags, 1, nil, s.NpcFlags)
	add("sprites", s.dirtySprites, 3, nil, s.Sprites)
	add("flash", s.dirtyFlash, 1, s.Flash, nil)
	return out
}

// ClearDirty resets every dirty-index list after extraction.
func (s *NpcGpuState) ClearDirty() {
	s.dirtyPositions = s.dirtyPositions[:0]
	s.dirtyGoals = s.dirtyGoals[:0]
	s.dirtySpeeds = s.dirtySpeeds[:0]
	s.dirtyFactions = s.dirtyFactions[:0]
	s.dirtyHealths = s.dirtyHealths[:0]
	s.dirtyArrivals = s.dirtyArrivals[:0]
	s.dirtyFlags = s.dirtyFlags[:0]
	s.dirtySprites = s.dirtySprites[:0]
	s.dirtyFlash = s.dirtyFlash[:0]
}
