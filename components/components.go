// Package components defines the ECS components backing the NPC/projectile
// slot model: positions, combat/activity state, and the per-variant
// behavior configuration that drives the decision core.
package components

// Position is GPU-authoritative: the movement compute dispatch writes it,
// everything else only reads it (see gpu package bindings table).
type Position struct {
	X, Y float32
}

// Faction is CPU-authoritative. -1 is neutral (never targeted), 0 is the
// player faction, 1+ are AI settlements.
type Faction int32

const (
	FactionNeutral Faction = -1
	FactionPlayer  Faction = 0
)

// Hostile reports whether a and b are valid, opposing combat factions.
// Neutrals (either side) and same-faction pairs are never hostile.
func Hostile(a, b Faction) bool {
	return a >= 0 && b >= 0 && a != b
}
