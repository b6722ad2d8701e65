package gpustate

import (
	"math"

	"github.com/pthm-cable/holdfast/messages"
)

// ProjGpuState mirrors the projectile compute buffer on the CPU side:
// position, velocity, remaining lifetime, damage, faction, shooter slot,
// active flag (spec §3). Projectiles have no CPU behavior beyond spawn/hide
// — the GPU dispatch owns translation, lifetime countdown, and hit
// detection — so unlike NpcGpuState there is no separate ECS record; the
// flat arrays here are the only representation.
type ProjGpuState struct {
	Positions []float32 // interleaved x,y
	Velocity  []float32 // interleaved vx,vy
	Lifetime  []float32
	Damage    []float32
	Faction   []int32
	Shooter   []int32
	Active    []int32

	HitTarget []int32 // readback: npc slot hit, or -1
}

// NewProjGpuState allocates state sized for cap slots.
func NewProjGpuState(cap int) *ProjGpuState {
	return &ProjGpuState{
		Positions: make([]float32, cap*2),
		Velocity:  make([]float32, cap*2),
		Lifetime:  make([]float32, cap),
		Damage:    make([]float32, cap),
		Faction:   make([]int32, cap),
		Shooter:   make([]int32, cap),
		Active:    make([]int32, cap),
		HitTarget: make([]int32, cap),
	}
}

// Apply applies spawn/hide messages to the staging arrays.
func (s *ProjGpuState) Apply(msgs []messages.Message) {
	for _, m := range msgs {
		switch m.Kind {
		case messages.SpawnProj:
			slot := m.Slot
			s.Positions[slot*2] = m.X
			s.Positions[slot*2+1] = m.Y
			dx, dy := m.X2-m.X, m.Y2-m.Y
			norm := float32(1)
			if d2 := dx*dx + dy*dy; d2 > 0 {
				norm = 1 / float32(math.Sqrt(float64(d2)))
			}
			s.Velocity[slot*2] = dx * norm * m.F1
			s.Velocity[slot*2+1] = dy * norm * m.F1
			s.Lifetime[slot] = m.F3
			s.Damage[slot] = m.F2
			s.Faction[slot] = m.I1
			s.Shooter[slot] = m.I2
			s.Active[slot] = 1
		case messages.HideProj:
			s.Active[m.Slot] = 0
			s.Lifetime[m.Slot] = 0
		}
	}
}
