package combat

import (
	"math"

	"github.com/pthm-cable/holdfast/components"
	"github.com/pthm-cable/holdfast/jobs"
)

// levelGrowth is the per-level multiplier applied to damage/max_hp/speed.
// Spec §4.5 step 5 requires "recompute level = floor(sqrt(xp/100))" and a
// rescale on level-up but leaves the growth curve itself unspecified (an
// Open Question — resolved here as a flat +12%/level, documented in
// DESIGN.md, matching the "each trait also amplifies a stat +25%*m" scale
// already set by personality multipliers elsewhere in §4.6).
const levelGrowth = 0.12

// ResolveStats recomputes an NPC's cached combat stats from job + level,
// per spec §4.5 step 5 / §3 "cached, resolved combat numbers ... recomputed
// on spawn, level-up, and reassignment". Personality trait amplification
// (+25%*magnitude to damage/hp/speed) is applied by the caller, since
// ResolveStats has no access to the NPC's Personality component.
func ResolveStats(job components.Job, level int32) components.CombatStats {
	p := jobs.For(job)
	mult := float32(1 + float64(level)*levelGrowth)
	s := p.Base
	s.Damage *= mult
	s.MaxHP *= mult
	s.Speed *= mult
	return s
}

// LevelForXP implements spec §4.5 step 5's level formula.
func LevelForXP(xp float32) int32 {
	if xp <= 0 {
		return 0
	}
	return int32(math.Floor(math.Sqrt(float64(xp) / 100)))
}

// Amplify applies personality trait stat amplification (+25%*magnitude,
// per spec §4.6) to a resolved stat block: Brave->damage, Tough->max_hp,
// Swift->speed. Focused is not applied here and amplifies no stat.
func Amplify(stats components.CombatStats, personality *components.Personality) components.CombatStats {
	if personality == nil {
		return stats
	}
	stats.Damage *= traitAmplifier(personality, components.TraitBrave)
	stats.MaxHP *= traitAmplifier(personality, components.TraitTough)
	stats.Speed *= traitAmplifier(personality, components.TraitSwift)
	return stats
}

func traitAmplifier(p *components.Personality, t components.PersonalityTrait) float32 {
	for i := int8(0); i < p.Count; i++ {
		if p.Traits[i] == t {
			return 1 + 0.25*p.Magnitude[i]
		}
	}
	return 1
}
