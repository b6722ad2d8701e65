package components

// Job selects an NPC's base attack type, cached-stat formula, and default
// behavior configuration (see jobs.Table).
type Job uint8

const (
	JobFarmer Job = iota
	JobArcher
	JobCrossbow
	JobRaider
	JobFighter
	JobMiner
)

// String returns the display name for a job.
func (j Job) String() string {
	names := [...]string{"Farmer", "Archer", "Crossbow", "Raider", "Fighter", "Miner"}
	if int(j) < len(names) {
		return names[j]
	}
	return "Unknown"
}

// IsCombatJob reports whether a job is a military (combat-trained) role as
// opposed to a civilian (economy) one — used to classify kill victims for
// telemetry (see telemetry.KillStats).
func (j Job) IsCombatJob() bool {
	switch j {
	case JobArcher, JobCrossbow, JobRaider, JobFighter:
		return true
	default:
		return false
	}
}

// AttackType distinguishes melee from ranged combat resolution.
type AttackType uint8

const (
	AttackMelee AttackType = iota
	AttackRanged
)

// PersonalityTrait is one of the (at most two) traits an NPC carries, each
// with an independent magnitude in [0.5, 1.5].
type PersonalityTrait uint8

const (
	TraitBrave PersonalityTrait = iota
	TraitTough
	TraitSwift
	TraitFocused
)

// Identity holds the slot-stable, mostly-immutable facts about an NPC.
type Identity struct {
	Slot    int32
	Faction Faction
	TownID  int32
	Job     Job
	Name    string
}

// Motion bundles the CPU-authoritative movement inputs (goal, speed) with
// the GPU-mirrored settled flag. Position itself is a separate component
// because it is GPU-authoritative (see gpu package).
type Motion struct {
	GoalX, GoalY float32
	Speed        float32
	Arrived      bool
}

// Health tracks current/max HP and the attacker that last damaged this NPC.
// LastHitBy is -1 when no attacker is on record.
type Health struct {
	Current, Max float32
	LastHitBy    int32
	Dead         bool
}

const NoAttacker int32 = -1

// CombatStats are the cached, resolved combat numbers for an NPC — derived
// from job + level + equipment, recomputed on spawn, level-up, and
// reassignment (see combat.ResolveStats).
type CombatStats struct {
	Damage             float32
	Range              float32
	Cooldown           float32
	ProjectileSpeed    float32
	ProjectileLifetime float32
	MaxHP              float32
	Speed              float32
}

// CombatStateKind enumerates the combat state machine's variants.
type CombatStateKind uint8

const (
	CombatNone CombatStateKind = iota
	CombatFighting
	CombatFleeing
)

// CombatRuntime is the transient combat half of the orthogonal state pair
// (see decision package for the Activity half). OriginX/Y is only
// meaningful when Kind == CombatFighting: the position at which combat was
// entered, used for leash-range checks and invariant under movement.
type CombatRuntime struct {
	Stats       CombatStats
	AttackTimer float32
	Kind        CombatStateKind
	OriginX     float32
	OriginY     float32
	Target      int32 // slot of the opposing combatant, or -1
}

// ActivityKind enumerates the long-running task state machine. Activity is
// orthogonal to CombatRuntime: combat never mutates it, so clearing a fight
// resumes whatever Activity was already in progress.
type ActivityKind uint8

const (
	ActivityIdle ActivityKind = iota
	ActivityWorking
	ActivityOnDuty
	ActivityPatrolling
	ActivityGoingToWork
	ActivityGoingToRest
	ActivityResting
	ActivityGoingToEat
	ActivityWandering
	ActivityRaiding
	ActivityReturning
)

// ActivityState carries the payload fields used by a subset of the
// ActivityKind variants: Ticks for OnDuty, RecoverUntil/HasRecoverUntil for
// Resting, Carried for Raiding/Returning loot, RaidTarget for Raiding.
type ActivityState struct {
	Kind            ActivityKind
	Ticks           int32
	RecoverUntil    float32
	HasRecoverUntil bool
	Carried         float32
	RaidTarget      int32
	AtDestination   bool // transient marker, consumed within the same frame it is raised
}

// Energy is the metabolic/progression state: 0-100 energy scalar, the game
// hour of last meal, and accumulated experience/level.
type Energy struct {
	Value       float32
	LastAteHour float32
	XP          float32
	Level       int32
	Starving    bool
	HoursAtZero float32 // accumulated game hours spent at Value==0; resets once fed
}

// Personality holds up to two traits with independent magnitudes.
type Personality struct {
	Traits    [2]PersonalityTrait
	Magnitude [2]float32
	Count     int8
}

// Multiplier returns 1+magnitude for the given trait if the NPC carries it,
// else 1.
func (p *Personality) Multiplier(t PersonalityTrait) float32 {
	for i := int8(0); i < p.Count; i++ {
		if p.Traits[i] == t {
			return 1 + p.Magnitude[i]
		}
	}
	return 1
}

// InverseMultiplier returns 1/(1+magnitude) for the given trait if carried,
// else 1 — used for traits that dampen rather than amplify (e.g. Brave
// dampens flee propensity).
func (p *Personality) InverseMultiplier(t PersonalityTrait) float32 {
	for i := int8(0); i < p.Count; i++ {
		if p.Traits[i] == t {
			return 1 / (1 + p.Magnitude[i])
		}
	}
	return 1
}

// BehaviorConfig is the optional per-variant configuration named in spec §3.
// It is attached only to NPCs whose job/role needs it (guards, patrol
// routes, foragers), mirroring the teacher's optional-component idiom
// (neuralGenomeMap.Add only for fauna with CPPN genomes).
type BehaviorConfig struct {
	FleeThreshold    float32 // fraction of max HP; 0 disables
	LeashRange       float32 // 0 disables
	WoundedThreshold float32
	Stealer          bool
	PatrolRoute      []Position
	PatrolCursor     int
	WorkPos          Position
	HomePos          Position
	WorkBuildingIdx  int32 // occupancy-map key for the farm/mine this NPC works, or -1
}

// EquipSlot is one of the six visual equipment layers.
type EquipSlot struct {
	Col, Row, Atlas float32
}

// Equipment layer indices, matching the wire order in spec §6.
const (
	EquipArmor = iota
	EquipHelmet
	EquipWeapon
	EquipItem
	EquipStatus
	EquipHealing
	EquipLayers
)

// Visual is the per-NPC render record that the scheduler's packVisualUpload
// copies slot by slot into gpustate.NpcVisualUpload each frame; a slot
// without one uploads a zero record.
type Visual struct {
	SpriteCol, SpriteRow, Atlas float32
	Flash                      float32
	R, G, B, A                 uint8
	Equip                      [EquipLayers]EquipSlot
}

// BuildingLink marks an NPC slot that is actually a building occupying a
// slot for GPU collision purposes (spec §4.3). BuildingIndex refers into
// worldstate.World.Buildings.
type BuildingLink struct {
	BuildingIndex int32
	Tower         bool // bit 1 of npc_flags: skips movement, uses GPU targeting for tower fire
}
