// Package config provides configuration loading and access for the
// simulation, mirroring the teacher's embed-defaults-then-overlay-file
// pattern (same nested-struct-per-concern shape, same Init/Cfg/Load split).
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds every simulation-core configuration concern.
type Config struct {
	World      WorldConfig      `yaml:"world"`
	Population PopulationConfig `yaml:"population"`
	Combat     CombatConfig     `yaml:"combat"`
	Economy    EconomyConfig    `yaml:"economy"`
	GPU        GPUConfig        `yaml:"gpu"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Bookmarks  BookmarksConfig  `yaml:"bookmarks"`

	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds world bounds and the spatial grids' cell size.
type WorldConfig struct {
	Width              float64 `yaml:"width"`
	Height             float64 `yaml:"height"`
	GridCellSize       float64 `yaml:"grid_cell_size"`
	MaxPerCell         int     `yaml:"max_per_cell"`
	SecondsPerGameHour float64 `yaml:"seconds_per_game_hour"`
	TickRate           float64 `yaml:"tick_rate"`
}

// PopulationConfig holds slot allocator capacities and initial population.
type PopulationConfig struct {
	MaxNPCs int `yaml:"max_npcs"`
	MaxProj int `yaml:"max_proj"`
	Initial int `yaml:"initial"`
}

// CombatConfig holds combat-pipeline constants (spec §4.5/§4.6).
type CombatConfig struct {
	ArrivalThreshold float64 `yaml:"arrival_threshold"`
	XPOnKill         float64 `yaml:"xp_on_kill"`
	ProjHitRadius    float64 `yaml:"proj_hit_radius"`
	GuardPatrolWait  int     `yaml:"guard_patrol_wait"`
	ThreatThrottle   int     `yaml:"threat_throttle_frames"`

	TowerRange          float64 `yaml:"tower_range"`
	TowerDamage         float64 `yaml:"tower_damage"`
	TowerCooldown       float64 `yaml:"tower_cooldown"`
	TowerProjSpeed      float64 `yaml:"tower_proj_speed"`
	TowerProjLifetime   float64 `yaml:"tower_proj_lifetime"`
}

// EconomyConfig holds economy/lifecycle constants (spec §4.7).
type EconomyConfig struct {
	EnergyTired          float64 `yaml:"energy_tired"`
	EnergyWake           float64 `yaml:"energy_wake"`
	EnergyDrainPerHour   float64 `yaml:"energy_drain_per_hour"`
	EnergyRecoverPerHour float64 `yaml:"energy_recover_per_hour"`
	StarvationHours      float64 `yaml:"starvation_hours"`
	DeliveryRadius       float64 `yaml:"delivery_radius"`
	RespawnHours         float64 `yaml:"respawn_hours"`
	HealRadius           float64 `yaml:"heal_radius"`
	HealRate             float64 `yaml:"heal_rate"`
	FarmTendedRate       float64 `yaml:"farm_tended_rate"`
	FarmPassiveRate      float64 `yaml:"farm_passive_rate"`
	MineTendedRate       float64 `yaml:"mine_tended_rate"`
	MinePassiveRate      float64 `yaml:"mine_passive_rate"`
}

// GPUConfig holds compute-pipeline sizing knobs (spec §4.3).
type GPUConfig struct {
	CombatRange float64 `yaml:"combat_range"`
}

// TelemetryConfig holds telemetry collection/output knobs.
type TelemetryConfig struct {
	StatsWindowSec float64 `yaml:"stats_window_sec"`
	OutputDir      string  `yaml:"output_dir"`
}

// BookmarksConfig holds the thresholds BookmarkDetector checks per window,
// one sub-struct per bookmark type (spec §6's "notable-moment" telemetry,
// generalized from the teacher's prey/predator ecosystem bookmarks to
// settlement-sim equivalents — see DESIGN.md).
type BookmarksConfig struct {
	KillSpike           KillSpikeConfig           `yaml:"kill_spike"`
	EnergyRecoverySpike EnergyRecoverySpikeConfig `yaml:"energy_recovery_spike"`
	PopulationRecovery  PopulationRecoveryConfig  `yaml:"population_recovery"`
	PopulationCrash     PopulationCrashConfig     `yaml:"population_crash"`
	StableSettlement    StableSettlementConfig    `yaml:"stable_settlement"`
}

// KillSpikeConfig triggers when a window's kill count exceeds Multiplier
// times the rolling average, given at least MinKills kills that window.
type KillSpikeConfig struct {
	Multiplier float64 `yaml:"multiplier"`
	MinKills   int     `yaml:"min_kills"`
}

// EnergyRecoverySpikeConfig triggers when population mean energy jumps
// Multiplier times the rolling average, above MinEnergyMean.
type EnergyRecoverySpikeConfig struct {
	Multiplier   float64 `yaml:"multiplier"`
	MinEnergyMean float64 `yaml:"min_energy_mean"`
}

// PopulationRecoveryConfig triggers when the population, having dropped to
// at or below MinPopulation, recovers to RecoveryMultiplier times that
// trough and at least MinFinal total.
type PopulationRecoveryConfig struct {
	MinPopulation      int `yaml:"min_population"`
	RecoveryMultiplier int `yaml:"recovery_multiplier"`
	MinFinal           int `yaml:"min_final"`
}

// PopulationCrashConfig triggers when total population drops more than
// DropPercent from its recent peak, and by at least MinDrop NPCs.
type PopulationCrashConfig struct {
	DropPercent float64 `yaml:"drop_percent"`
	MinDrop     int     `yaml:"min_drop"`
}

// StableSettlementConfig triggers after StableWindows consecutive windows
// of low population variance (coefficient-of-variation squared below
// CVThreshold), given at least MinPopulation alive.
type StableSettlementConfig struct {
	CVThreshold   float64 `yaml:"cv_threshold"`
	StableWindows int     `yaml:"stable_windows"`
	MinPopulation int     `yaml:"min_population"`
}

// DerivedConfig holds values computed once after loading.
type DerivedConfig struct {
	ArrivalThreshold32 float32
	CombatRange32      float32
	ProjHitRadius32    float32
	DT32               float32
}

var global *Config

// Init loads configuration from path (embedded defaults if empty) and
// installs it as the package-level config. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error, for use at program startup
// where a bad config is unrecoverable.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the active configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load parses embedded defaults, then overlays path if non-empty.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}
	cfg.computeDerived()
	return cfg, nil
}

func (c *Config) computeDerived() {
	c.Derived.ArrivalThreshold32 = float32(c.Combat.ArrivalThreshold)
	c.Derived.CombatRange32 = float32(c.GPU.CombatRange)
	c.Derived.ProjHitRadius32 = float32(c.Combat.ProjHitRadius)
	if c.World.TickRate <= 0 {
		c.World.TickRate = 60
	}
	c.Derived.DT32 = float32(1.0 / c.World.TickRate)
}

// WriteYAML snapshots the active config next to telemetry output, the same
// "record the config next to the run" idiom the teacher's output manager
// uses for CSV exports.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
