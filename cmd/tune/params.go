// Package main provides CMA-ES parameter tuning for settlement simulation
// balance: the economy/combat constants that decide whether a settlement
// starves, gets wiped out, or holds a stable population.
package main

import (
	"github.com/pthm-cable/holdfast/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters: the
// economy-pipeline constants that govern starvation/recovery pressure, and
// the combat constants that decide how lethal and how persistent conflict
// is. Population caps and world geometry stay fixed (spec §3's Non-goal:
// world generation is out of scope for tuning).
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// --- Energy pressure ---
			{Name: "energy_tired", Path: "economy.energy_tired", Min: 15, Max: 45, Default: 30},
			{Name: "energy_wake", Path: "economy.energy_wake", Min: 70, Max: 100, Default: 90},
			{Name: "energy_drain_per_hour", Path: "economy.energy_drain_per_hour", Min: 1.5, Max: 8.0, Default: 4.0},
			{Name: "energy_recover_per_hour", Path: "economy.energy_recover_per_hour", Min: 6.0, Max: 24.0, Default: 12.0},
			{Name: "starvation_hours", Path: "economy.starvation_hours", Min: 8.0, Max: 48.0, Default: 24.0},

			// --- Production rates ---
			{Name: "farm_tended_rate", Path: "economy.farm_tended_rate", Min: 0.005, Max: 0.05, Default: 0.02},
			{Name: "farm_passive_rate", Path: "economy.farm_passive_rate", Min: 0.0005, Max: 0.01, Default: 0.004},
			{Name: "mine_tended_rate", Path: "economy.mine_tended_rate", Min: 0.005, Max: 0.04, Default: 0.015},
			{Name: "mine_passive_rate", Path: "economy.mine_passive_rate", Min: 0.0005, Max: 0.008, Default: 0.003},

			// --- Recovery and respawn ---
			{Name: "respawn_hours", Path: "economy.respawn_hours", Min: 4.0, Max: 36.0, Default: 12.0},
			{Name: "heal_radius", Path: "economy.heal_radius", Min: 80.0, Max: 320.0, Default: 200.0},
			{Name: "heal_rate", Path: "economy.heal_rate", Min: 0.5, Max: 6.0, Default: 2.0},
			{Name: "delivery_radius", Path: "economy.delivery_radius", Min: 60.0, Max: 260.0, Default: 150.0},

			// --- Combat lethality ---
			{Name: "xp_on_kill", Path: "combat.xp_on_kill", Min: 5.0, Max: 60.0, Default: 25.0},
			{Name: "combat_range", Path: "gpu.combat_range", Min: 120.0, Max: 320.0, Default: 220.0},
			{Name: "guard_patrol_wait", Path: "combat.guard_patrol_wait", Min: 20, Max: 180, Default: 60},
			{Name: "threat_throttle_frames", Path: "combat.threat_throttle_frames", Min: 5, Max: 45, Default: 15},

			// --- Tower defense ---
			{Name: "tower_range", Path: "combat.tower_range", Min: 150.0, Max: 400.0, Default: 260.0},
			{Name: "tower_damage", Path: "combat.tower_damage", Min: 5.0, Max: 45.0, Default: 20.0},
			{Name: "tower_cooldown", Path: "combat.tower_cooldown", Min: 0.3, Max: 2.5, Default: 0.8},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct, clamping first.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)
	i := 0

	cfg.Economy.EnergyTired = clamped[i]; i++
	cfg.Economy.EnergyWake = clamped[i]; i++
	cfg.Economy.EnergyDrainPerHour = clamped[i]; i++
	cfg.Economy.EnergyRecoverPerHour = clamped[i]; i++
	cfg.Economy.StarvationHours = clamped[i]; i++

	cfg.Economy.FarmTendedRate = clamped[i]; i++
	cfg.Economy.FarmPassiveRate = clamped[i]; i++
	cfg.Economy.MineTendedRate = clamped[i]; i++
	cfg.Economy.MinePassiveRate = clamped[i]; i++

	cfg.Economy.RespawnHours = clamped[i]; i++
	cfg.Economy.HealRadius = clamped[i]; i++
	cfg.Economy.HealRate = clamped[i]; i++
	cfg.Economy.DeliveryRadius = clamped[i]; i++

	cfg.Combat.XPOnKill = clamped[i]; i++
	cfg.GPU.CombatRange = clamped[i]; i++
	cfg.Combat.GuardPatrolWait = int(clamped[i]); i++
	cfg.Combat.ThreatThrottle = int(clamped[i]); i++

	cfg.Combat.TowerRange = clamped[i]; i++
	cfg.Combat.TowerDamage = clamped[i]; i++
	cfg.Combat.TowerCooldown = clamped[i]
}
