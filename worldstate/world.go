// Package worldstate holds the main-world collections that sit alongside
// per-NPC ECS components: towns, buildings, farms, mines, patrol waypoints,
// stores, and the occupancy map. These are plain indexed slices rather than
// ECS entities — they are mutated by a small number of systems (economy,
// combat's building-damage step, build/destroy commands) and read by many,
// which the teacher's own world-state (systems/terrain.go, the building
// grid in systems/spatial.go) treats the same way.
package worldstate

import "github.com/pthm-cable/holdfast/components"

// SentinelCoord marks a tombstoned world object. All systems must skip
// positions with X below this value.
const SentinelCoord = -9001

// Town holds per-settlement economy state.
type Town struct {
	Name          string
	Faction       components.Faction
	CenterX       float32
	CenterY       float32
	Food          float32
	Gold          float32
	UpgradeYields map[UpgradeKind]float32
}

// UpgradeKind is a read-only multiplier key into a town's upgrade table.
// The catalog that prices/unlocks these is explicitly out of scope (spec
// Non-goals); this module only consumes the resulting multiplier.
type UpgradeKind uint8

const (
	UpgradeFarmYield UpgradeKind = iota
	UpgradeMineYield
)

// Yield returns the upgrade multiplier for kind, defaulting to 1.
func (t *Town) Yield(kind UpgradeKind) float32 {
	if t.UpgradeYields == nil {
		return 1
	}
	if v, ok := t.UpgradeYields[kind]; ok {
		return v
	}
	return 1
}

// BuildingKind enumerates the building roster named in spec §3.
type BuildingKind uint8

const (
	BuildingFountain BuildingKind = iota
	BuildingFarmerHome
	BuildingArcherHome
	BuildingCrossbowHome
	BuildingWaypoint
	BuildingFarm
	BuildingCamp
	BuildingTent
	BuildingGoldMine
	BuildingMinerHome
)

// IsTower reports whether a building kind fires back via the GPU targeting
// path (spec §4.5 step 8). Only Fountain (town center) does today.
func (k BuildingKind) IsTower() bool {
	return k == BuildingFountain
}

// IsMilitary reports whether a building kind is a valid raider target
// (spec §4.5 step 2: "raiders restrict to military building kinds").
func (k BuildingKind) IsMilitary() bool {
	switch k {
	case BuildingFountain, BuildingArcherHome, BuildingCrossbowHome, BuildingCamp:
		return true
	default:
		return false
	}
}

// Building is a world object; buildings that need GPU collision (towers,
// raid targets) additionally occupy an NPC slot via components.BuildingLink.
type Building struct {
	Kind         BuildingKind
	X, Y         float32
	TownID       int32
	HP, MaxHP    float32
	LinkedSlot   int32 // NPC slot occupying this building for GPU collision, or -1
	SpawnerSlot  int32 // linked spawn-point NPC slot (for respawn timers), or -1
	RespawnTimer float32
	AttackTimer  float32 // tower fire cooldown (spec §4.5 step 8); unused by non-tower kinds
	Tombstoned   bool
}

// Tombstone marks a building destroyed: sentinel position, all systems skip
// it from here on.
func (b *Building) Tombstone() {
	b.X, b.Y = SentinelCoord, SentinelCoord
	b.Tombstoned = true
}

// GrowthState enumerates a farm/mine's harvest cycle.
type GrowthState uint8

const (
	GrowthGrowing GrowthState = iota
	GrowthReady
)

// Farm tracks a single farm plot's growth progress.
type Farm struct {
	BuildingIdx int32
	State       GrowthState
	Progress    float32 // [0,1); Ready when >= 1
	TownID      int32
	Tended      bool // true while an assigned farmer occupies it
}

// Mine tracks gold extraction state.
type Mine struct {
	BuildingIdx int32
	Gold        float32
	RegenCap    float32
	TownID      int32
}

// Waypoint is a patrol post; it occupies an NPC slot with speed 0.
type Waypoint struct {
	BuildingIdx int32
	TownID      int32
}

// World bundles every main-world collection named in spec §3.
type World struct {
	Towns     []Town
	Buildings []Building
	Farms     []Farm
	Mines     []Mine
	Waypoints []Waypoint
	Occupancy *OccupancyMap
	BuildGrid *BuildingGrid

	farmByBuilding map[int32]int32
	mineByBuilding map[int32]int32
}

// New creates an empty world sized for the given bounds.
func New(width, height, cellSize float32) *World {
	return &World{
		Occupancy:      NewOccupancyMap(),
		BuildGrid:      NewBuildingGrid(width, height, cellSize),
		farmByBuilding: make(map[int32]int32),
		mineByBuilding: make(map[int32]int32),
	}
}

// AddFarm appends a farm and indexes it by its building index, so
// economy.HarvestFarm and the decision cascade can resolve a
// BehaviorConfig.WorkBuildingIdx (an occupancy-map key equal to the
// building index) straight to its Farm record.
func (w *World) AddFarm(f Farm) int32 {
	idx := int32(len(w.Farms))
	w.Farms = append(w.Farms, f)
	w.farmByBuilding[f.BuildingIdx] = idx
	return idx
}

// FarmByBuilding resolves a building index to its Farm, if any.
func (w *World) FarmByBuilding(buildingIdx int32) (*Farm, bool) {
	if idx, ok := w.farmByBuilding[buildingIdx]; ok {
		return &w.Farms[idx], true
	}
	return nil, false
}

// AddMine appends a mine and indexes it by its building index.
func (w *World) AddMine(m Mine) int32 {
	idx := int32(len(w.Mines))
	w.Mines = append(w.Mines, m)
	w.mineByBuilding[m.BuildingIdx] = idx
	return idx
}

// MineByBuilding resolves a building index to its Mine, if any.
func (w *World) MineByBuilding(buildingIdx int32) (*Mine, bool) {
	if idx, ok := w.mineByBuilding[buildingIdx]; ok {
		return &w.Mines[idx], true
	}
	return nil, false
}

// AddTown appends a town and returns its index.
func (w *World) AddTown(t Town) int32 {
	w.Towns = append(w.Towns, t)
	return int32(len(w.Towns) - 1)
}

// AddBuilding appends a building, indexes it in the spatial grid, and
// returns its index.
func (w *World) AddBuilding(b Building) int32 {
	idx := int32(len(w.Buildings))
	w.Buildings = append(w.Buildings, b)
	if !b.Tombstoned {
		w.BuildGrid.Insert(idx, b.X, b.Y)
	}
	return idx
}

// DestroyBuilding tombstones a building and removes it from the spatial
// grid (spec §8: "tombstoned within one frame and removed from spatial
// grid").
func (w *World) DestroyBuilding(idx int32) {
	b := &w.Buildings[idx]
	w.BuildGrid.Remove(idx, b.X, b.Y)
	b.Tombstone()
}
