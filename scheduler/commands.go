// Package scheduler orders the simulation into the phases spec §4.2 names
// (Drain, Position-readback, Spawn, Flush-barrier, Combat, Behavior,
// Collect, Pack, Extract-barrier, Render-upload, GPU-dispatch,
// Async-readback, Rendering), wiring combat.Pipeline, economy.Pipeline,
// decision.Cascade, the gpu.Pipeline, gpustate staging, and telemetry
// together the way the teacher's game.Game.simulationStep chains its own
// systems (game/game.go, game/simulation.go).
package scheduler

import "github.com/pthm-cable/holdfast/components"

// SpawnRequest is the inbound spawn command named in spec §6
// ("SpawnNpcMsg{slot?, x, y, job, faction, town_idx, home_xy, work_xy,
// starting_post, attack_type}"). Slot is always assigned by the spawn
// phase in this implementation (the "slot optional" clause), so the field
// isn't carried here.
type SpawnRequest struct {
	X, Y            float32
	Job             components.Job
	Faction         components.Faction
	TownID          int32
	HomeX, HomeY    float32
	WorkX, WorkY    float32
	WorkBuildingIdx int32 // -1 if this spawn has no assigned workplace
	LinkBuilding    int32 // spawner building index to link as SpawnerSlot, or -1
}

// ReassignJobRequest changes an NPC's job and triggers a stat recompute
// (spec §6's ReassignJobMsg — "a table lookup plus a stat recompute, not a
// bespoke component rebuild", per jobs.Table).
type ReassignJobRequest struct {
	Slot int32
	Job  components.Job
}

// BuildCommand requests a new building at (X,Y) owned by TownID (spec §6).
// Build/destroy cataloging (costs, prerequisites) is explicitly out of
// scope; this only mutates world + spawner registry + occupancy + the NPC
// slot a collidable building needs.
type BuildCommand struct {
	Kind   int32 // worldstate.BuildingKind
	X, Y   float32
	TownID int32
}

// DestroyCommand requests removal of the building nearest (X,Y) within a
// small radius, used by the (out-of-scope) UI build editor.
type DestroyCommand struct {
	X, Y float32
}

// CommandQueue batches every inbound command kind into one drained-once-
// per-frame sink, mirroring messages.Buffer's append-then-drain shape for
// the Drain phase's external queues (spec §4.2 step 1: "consume external
// queues").
type CommandQueue struct {
	spawns    []SpawnRequest
	reassigns []ReassignJobRequest
	builds    []BuildCommand
	destroys  []DestroyCommand

	setTimeScale []float32
	setPaused    []bool
	reset        bool
}

// NewCommandQueue creates an empty queue.
func NewCommandQueue() *CommandQueue {
	return &CommandQueue{}
}

func (q *CommandQueue) Spawn(r SpawnRequest)             { q.spawns = append(q.spawns, r) }
func (q *CommandQueue) ReassignJob(r ReassignJobRequest) { q.reassigns = append(q.reassigns, r) }
func (q *CommandQueue) Build(c BuildCommand)             { q.builds = append(q.builds, c) }
func (q *CommandQueue) Destroy(c DestroyCommand)         { q.destroys = append(q.destroys, c) }
func (q *CommandQueue) SetTimeScale(scale float32)       { q.setTimeScale = append(q.setTimeScale, scale) }
func (q *CommandQueue) SetPaused(paused bool)            { q.setPaused = append(q.setPaused, paused) }
func (q *CommandQueue) Reset()                           { q.reset = true }

// drain returns every queued command and clears the queue for the next
// frame, mirroring messages.Buffer.Drain.
func (q *CommandQueue) drain() CommandQueue {
	out := *q
	*q = CommandQueue{}
	return out
}
