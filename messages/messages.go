// Package messages defines the typed GPU-update sink systems write into
// instead of touching GPU buffers directly (spec §4.4), and the per-frame
// collector that batches them into one queue.
package messages

// Kind enumerates every message variant. A single tagged struct (rather
// than an interface per kind) avoids per-message heap allocation and
// interface-dispatch overhead at the population sizes this simulation
// targets — the same reuse-buffer discipline the teacher applies to
// per-entity scratch slices (game/parallel.go's workerScratch).
type Kind uint8

const (
	SetPosition Kind = iota
	SetTarget        // also resets Arrived to false
	SetSpeed
	SetFaction
	SetHealth
	SetFlags
	SetSpriteFrame
	SetDamageFlash
	ApplyDamage
	HideNpc
	SpawnProj
	HideProj
	BuildingDamage
)

// NPCFlag bits, matching the GPU npc_flags buffer (spec §4.3 binding 10).
const (
	FlagCombatScan uint32 = 1 << 0
	FlagTower      uint32 = 1 << 1
)

// Message is a single GPU-update request. Only the fields relevant to Kind
// are meaningful; the rest are zero.
type Message struct {
	Kind Kind
	Slot int32

	X, Y float32 // SetPosition / SetTarget / SpawnProj (from)
	X2, Y2 float32 // SpawnProj (to)

	F1 float32 // speed / health / flash intensity / damage amount / proj speed
	F2 float32 // proj damage
	F3 float32 // proj lifetime

	I1 int32 // faction / sprite col / flags bits / attacker slot / proj faction
	I2 int32 // sprite row / shooter slot
	I3 int32 // atlas id

	BuildingIdx int32 // BuildingDamage
}
