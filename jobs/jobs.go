// Package jobs holds the per-Job stat/behavior table (spec §3 "optional per
// variant" config, realized as a table keyed by Job rather than ad hoc
// per-entity optional components — see SPEC_FULL.md §3). ReassignJobMsg is a
// table lookup plus a stat recompute, not a bespoke component rebuild.
package jobs

import "github.com/pthm-cable/holdfast/components"

// Profile is the base (level-0) combat stats and default behavior knobs for
// a job. combat.ResolveStats scales Base by level; behavior defaults seed a
// freshly spawned NPC's BehaviorConfig.
type Profile struct {
	Attack components.AttackType
	Base   components.CombatStats

	FleeThreshold    float32
	LeashRange       float32
	WoundedThreshold float32
	Stealer          bool
	Shooter          bool // archer/crossbow/raider: falls back to building targeting (§4.5 step 2)
}

// Table is indexed by components.Job.
var Table = [...]Profile{
	components.JobFarmer: {
		Attack: components.AttackMelee,
		Base:   components.CombatStats{Damage: 4, Range: 20, Cooldown: 1.2, MaxHP: 60, Speed: 70},
		FleeThreshold: 0.4, LeashRange: 300,
	},
	components.JobArcher: {
		Attack: components.AttackRanged,
		Base:   components.CombatStats{Damage: 10, Range: 150, Cooldown: 1.0, ProjectileSpeed: 400, ProjectileLifetime: 2.0, MaxHP: 50, Speed: 80},
		FleeThreshold: 0.3, LeashRange: 350, Shooter: true,
	},
	components.JobCrossbow: {
		Attack: components.AttackRanged,
		Base:   components.CombatStats{Damage: 18, Range: 130, Cooldown: 1.6, ProjectileSpeed: 500, ProjectileLifetime: 1.8, MaxHP: 55, Speed: 75},
		FleeThreshold: 0.3, LeashRange: 350, Shooter: true,
	},
	components.JobRaider: {
		Attack: components.AttackRanged,
		Base:   components.CombatStats{Damage: 8, Range: 140, Cooldown: 1.1, ProjectileSpeed: 380, ProjectileLifetime: 2.2, MaxHP: 65, Speed: 90},
		LeashRange: 0, Stealer: true, Shooter: true,
	},
	components.JobFighter: {
		Attack: components.AttackMelee,
		Base:   components.CombatStats{Damage: 16, Range: 60, Cooldown: 0.5, MaxHP: 100, Speed: 85},
		LeashRange: 400,
	},
	components.JobMiner: {
		Attack: components.AttackMelee,
		Base:   components.CombatStats{Damage: 5, Range: 20, Cooldown: 1.3, MaxHP: 65, Speed: 70},
		FleeThreshold: 0.4, LeashRange: 300,
	},
}

// For returns the profile for job, defaulting to the zero-value Farmer
// entry if job is out of range (never a panic: job is caller-validated at
// the message boundary, not here).
func For(job components.Job) Profile {
	if int(job) < len(Table) {
		return Table[job]
	}
	return Table[components.JobFarmer]
}
