package gpustate

import "github.com/pthm-cable/holdfast/components"

// NpcVisualUpload is rebuilt fully each frame by scanning live NPCs (spec
// §4.4): purely derived from ECS components, so it never accumulates
// per-field dirty messages the way NpcGpuState does. Two flat float32
// slices, reused capacity across frames.
type NpcVisualUpload struct {
	Visual []float32 // npc_count*8: [sprite_col,row,atlas,flash,r,g,b,a]
	Equip  []float32 // npc_count*24: 6 layers * [col,row,atlas,_pad]
	Count  int
}

// NewNpcVisualUpload creates an upload buffer with capacity for cap slots.
func NewNpcVisualUpload(cap int) *NpcVisualUpload {
	return &NpcVisualUpload{
		Visual: make([]float32, 0, cap*8),
		Equip:  make([]float32, 0, cap*24),
	}
}

// Reset truncates both slices to zero length, keeping capacity.
func (u *NpcVisualUpload) Reset() {
	u.Visual = u.Visual[:0]
	u.Equip = u.Equip[:0]
	u.Count = 0
}

// Append packs one NPC's visual record (8 floats) and equipment record (24
// floats) in wire order. Sentinel sprite_col < 0 hides the NPC; sentinel
// equip col < 0 hides that layer (spec §6).
func (u *NpcVisualUpload) Append(v *components.Visual) {
	u.Visual = append(u.Visual,
		v.SpriteCol, v.SpriteRow, v.Atlas, v.Flash,
		float32(v.R)/255, float32(v.G)/255, float32(v.B)/255, float32(v.A)/255,
	)
	for i := 0; i < components.EquipLayers; i++ {
		e := v.Equip[i]
		u.Equip = append(u.Equip, e.Col, e.Row, e.Atlas, 0)
	}
	u.Count++
}
