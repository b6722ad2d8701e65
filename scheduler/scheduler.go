package scheduler

import (
	"math"

	"github.com/pthm-cable/holdfast/combat"
	"github.com/pthm-cable/holdfast/components"
	"github.com/pthm-cable/holdfast/config"
	"github.com/pthm-cable/holdfast/decision"
	"github.com/pthm-cable/holdfast/economy"
	"github.com/pthm-cable/holdfast/gpu"
	"github.com/pthm-cable/holdfast/gpustate"
	"github.com/pthm-cable/holdfast/messages"
	"github.com/pthm-cable/holdfast/simworld"
	"github.com/pthm-cable/holdfast/slotalloc"
	"github.com/pthm-cable/holdfast/telemetry"
	"github.com/pthm-cable/holdfast/worldstate"
)

// projHitRecord captures a GPU proj_hit readback entry in a form that
// survives the projectile slot being freed and reused before the next
// Drain phase consumes it (spec §4.3: "consumers read them the next
// frame" — by then p.ProjState.Damage[slot] may already belong to a
// different projectile).
type projHitRecord struct {
	target   int32
	amount   float32
	attacker int32
}

var hiddenVisual = components.Visual{SpriteCol: -1}

// Scheduler orders one simulation frame into the phases spec §4.2 names,
// wiring every pipeline built in this module together the way the
// teacher's game.Game.simulationStep chains systems/*.go (game/game.go,
// game/simulation.go): a single driver struct holding every subsystem,
// advanced by one Tick call per frame.
type Scheduler struct {
	World *simworld.World
	State *worldstate.World
	Cfg   *config.Config

	Combat  *combat.Pipeline
	Econ    *economy.Pipeline
	Cascade *decision.Cascade

	GPU          gpu.Pipeline
	NpcState     *gpustate.NpcGpuState
	ProjState    *gpustate.ProjGpuState
	VisualUpload *gpustate.NpcVisualUpload

	Messages *messages.Collector
	Commands *CommandQueue

	Events    *telemetry.EventLog
	Lifetimes *telemetry.LifetimeTracker
	Perf      *telemetry.PerfCollector
	Stats     *telemetry.Collector
	Output    *telemetry.OutputManager
	Bookmarks *telemetry.BookmarkDetector

	tick int32

	buf *messages.Buffer // single scratch buffer; phases run sequentially, never concurrently, within Tick

	pendingCmds CommandQueue // this frame's drained commands, held from Drain through Spawn

	readPositions     []float32
	readCombatTargets []int32

	projAlloc        *slotalloc.Allocator
	projActive       []bool
	projLifetime     []float32
	pendingHits      []projHitRecord
	spawnerTemplates map[int32]SpawnRequest
}

// New builds a scheduler with telemetry enabled: an EventLog shared by the
// combat, cascade, and lifetime/window-stats consumers (so a kill recorded
// by combat.Pipeline is visible to both the windowed Collector and the
// per-slot LifetimeTracker without a second drain path), a PerfCollector
// windowed over one stats window's worth of ticks, and an OutputManager
// writing CSVs to outputDir (pass "" to disable file output while still
// collecting in-memory stats). gpuPipeline is the compute backend (spec §4.3)
// — a CPU reference implementation or a real GPU-backed one.
func New(world *simworld.World, state *worldstate.World, cfg *config.Config, gpuPipeline gpu.Pipeline, outputDir string) (*Scheduler, error) {
	maxProj := cfg.Population.MaxProj

	events := telemetry.NewEventLog()
	combatPipeline := combat.NewPipeline(world, state, cfg)
	combatPipeline.Events = events
	econPipeline := economy.NewPipeline(world, state, cfg)
	cascade := decision.NewCascade(world, state, cfg)
	cascade.Econ = econPipeline
	cascade.Events = events

	var output *telemetry.OutputManager
	if outputDir != "" {
		om, err := telemetry.NewOutputManager(outputDir)
		if err != nil {
			return nil, err
		}
		output = om
	}

	windowTicks := int(cfg.Telemetry.StatsWindowSec * cfg.World.TickRate)

	s := &Scheduler{
		World: world,
		State: state,
		Cfg:   cfg,

		Combat:  combatPipeline,
		Econ:    econPipeline,
		Cascade: cascade,

		GPU:          gpuPipeline,
		NpcState:     gpustate.NewNpcGpuState(cfg.Population.MaxNPCs),
		ProjState:    gpustate.NewProjGpuState(maxProj),
		VisualUpload: gpustate.NewNpcVisualUpload(cfg.Population.MaxNPCs),

		Messages: messages.NewCollector(),
		Commands: NewCommandQueue(),

		Events:    events,
		Lifetimes: telemetry.NewLifetimeTracker(),
		Perf:      telemetry.NewPerfCollector(windowTicks),
		Stats:     telemetry.NewCollector(world, events, cfg.Telemetry.StatsWindowSec, cfg.Derived.DT32),
		Output:    output,
		Bookmarks: telemetry.NewBookmarkDetector(cfg.Bookmarks, 30),

		buf: messages.NewBuffer(),

		projAlloc:        slotalloc.New(maxProj),
		projActive:       make([]bool, maxProj),
		projLifetime:     make([]float32, maxProj),
		spawnerTemplates: make(map[int32]SpawnRequest),
	}
	if output != nil {
		if err := output.WriteConfig(cfg); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Tick advances the simulation by one frame of dtReal real seconds, in spec
// §4.2's thirteen-phase order. GPU dispatch still runs every tick even while
// paused (rendering must keep drawing); only the *effective* delta handed to
// combat/behavior/GPU movement collapses to zero, per spec §5's "Paused
// (time_scale=0): no position changes, no XP, no growth, no timers tick".
func (s *Scheduler) Tick(dtReal float32) {
	s.tick++
	if s.Perf != nil {
		s.Perf.StartTick()
	}

	s.phaseDrain(dtReal)
	s.phasePositionReadback()
	s.phaseSpawn()
	// Phase 4: flush barrier. Every system in this implementation runs
	// sequentially within Tick, so spawned entities are already visible to
	// the Combat phase below with no further action needed here.

	effDt := s.effectiveDelta(dtReal)

	s.phaseCombat(effDt)
	s.phaseBehavior(dtReal)
	msgs := s.phaseCollect()
	s.phasePack(msgs, effDt)
	// Phase 9: extract barrier. A single process with no separate render
	// world has nothing to clone or zero-copy-share here.
	s.phaseUpload()
	s.phaseDispatch(effDt)
	s.phaseReadback(effDt)

	s.flushTelemetry()

	if s.Perf != nil {
		s.Perf.EndTick()
	}
}

// effectiveDelta collapses to zero while paused and scales by TimeScale
// otherwise; economy.Pipeline.Run does its own internal scaling against
// dtReal (it owns the Clock), so only combat/behavior/GPU movement use this.
func (s *Scheduler) effectiveDelta(dtReal float32) float32 {
	if s.Econ.Clock.Paused {
		return 0
	}
	return dtReal * s.Econ.Clock.TimeScale
}

func (s *Scheduler) startPhase(name string) {
	if s.Perf != nil {
		s.Perf.StartPhase(name)
	}
}

// phaseDrain implements spec §4.2 phase 1: consumes the command queue
// (spawn/reassign/build/destroy requests, pause/time-scale/reset controls)
// and routes last frame's projectile-hit readback into the combat pipeline's
// pending-damage queues, now that the slots those hits named are guaranteed
// not to have been recycled out from under them.
func (s *Scheduler) phaseDrain(dtReal float32) {
	s.startPhase(telemetry.PhaseDrain)

	for _, hit := range s.pendingHits {
		s.routeProjHit(hit)
	}
	s.pendingHits = s.pendingHits[:0]

	cmds := s.Commands.drain()
	for _, scale := range cmds.setTimeScale {
		s.Econ.Clock.TimeScale = scale
	}
	for _, paused := range cmds.setPaused {
		s.Econ.Clock.Paused = paused
	}
	if cmds.reset {
		s.resetRuntimeState()
	}

	s.pendingCmds = cmds
}

// routeProjHit applies a captured projectile hit to whichever of the combat
// pipeline's two pending-damage queues the target slot belongs to: the
// building queue if the slot is a building masquerading as an NPC (spec
// §4.3's "hits routed through the building slot map produce BuildingDamageMsg
// instead of DamageMsg"), the NPC queue otherwise.
func (s *Scheduler) routeProjHit(hit projHitRecord) {
	if !s.World.Alive(hit.target) {
		return
	}
	e := s.World.Entity(hit.target)
	if s.World.BuildingLink().Has(e) {
		link := s.World.BuildingLink().Get(e)
		s.Combat.ApplyBuildingDamage(link.BuildingIndex, hit.amount)
		return
	}
	s.Combat.ApplyProjectileDamage(hit.target, hit.amount, hit.attacker)
}

// resetRuntimeState clears the command queue's Reset control: a full world
// reset (rebuilding towns/buildings/population from scratch) is owned by
// whatever caller issues the Reset command, not by this scheduler, which
// only owns per-frame progression — so this only clears transient,
// frame-local scheduler state rather than touching World/State themselves.
func (s *Scheduler) resetRuntimeState() {
	s.pendingHits = s.pendingHits[:0]
	s.Econ.Clock.Hour = 0
	s.Econ.Clock.Paused = false
	s.Econ.Clock.TimeScale = 1
}

// phasePositionReadback implements spec §4.2 phase 2: copies last frame's
// GPU position readback into each live NPC's Position component and raises
// AtDestination within the configured arrival threshold. On the very first
// tick, s.readPositions is empty and this is a no-op (nothing has dispatched
// yet).
func (s *Scheduler) phasePositionReadback() {
	if len(s.readPositions) == 0 {
		return
	}
	threshold := s.Cfg.Derived.ArrivalThreshold32
	thresholdSq := threshold * threshold

	q := s.World.Filter.Query()
	for q.Next() {
		pos, motion, id, _, _, activity, _ := q.Get()
		idx := int(id.Slot) * 2
		if idx+1 >= len(s.readPositions) {
			continue
		}
		pos.X, pos.Y = s.readPositions[idx], s.readPositions[idx+1]
		if motion.Arrived {
			continue
		}
		dx, dy := pos.X-motion.GoalX, pos.Y-motion.GoalY
		if dx*dx+dy*dy <= thresholdSq {
			motion.Arrived = true
			activity.AtDestination = true
		}
	}
}

// phaseSpawn implements spec §4.2 phase 3: applies queued spawn/build/
// destroy/reassign commands plus economy-driven respawns.
func (s *Scheduler) phaseSpawn() {
	s.startPhase(telemetry.PhaseSpawn)

	for _, r := range s.pendingCmds.spawns {
		s.applySpawn(r, s.buf)
	}
	for _, idx := range s.Econ.DrainRespawns() {
		if tmpl, ok := s.spawnerTemplates[idx]; ok {
			s.applySpawn(tmpl, s.buf)
		}
	}
	for _, r := range s.pendingCmds.reassigns {
		s.applyReassignJob(r, s.buf)
	}
	for _, c := range s.pendingCmds.builds {
		s.applyBuildCommand(c, s.buf)
	}
	for _, c := range s.pendingCmds.destroys {
		s.applyDestroyCommand(c, s.buf)
	}
}

func (s *Scheduler) phaseCombat(effDt float32) {
	s.startPhase(telemetry.PhaseCombat)
	s.Combat.Tick = s.tick
	s.Combat.Run(effDt, s.readCombatTargets, s.buf)
}

// phaseBehavior implements spec §4.2 phase 6. economy.Pipeline.Run is handed
// the raw, unscaled delta: its Clock already reads TimeScale/Paused
// internally (economy/clock.go), so scaling here too would double-apply it.
func (s *Scheduler) phaseBehavior(dtReal float32) {
	s.startPhase(telemetry.PhaseBehavior)
	s.Cascade.Tick = s.tick
	s.Econ.Run(dtReal, s.buf)
	s.Cascade.Run(s.buf)
}

// phaseCollect implements spec §4.2 phase 7: merges the scratch buffer every
// phase above wrote into into the shared Collector under one lock, then
// drains it for this frame's populate/pack step.
func (s *Scheduler) phaseCollect() []messages.Message {
	s.startPhase(telemetry.PhaseCollect)
	s.Messages.Merge(s.buf)
	return s.Messages.Drain()
}

// phasePack implements spec §4.2 phase 8: assigns a fresh slot to every
// unslotted SpawnProj message (the projectile pool's own slot allocator,
// spec §4.1's "two independent allocators"), applies every message to the
// GPU write-staging arrays, decays damage flash, and rebuilds the visual
// upload by scanning live NPCs.
func (s *Scheduler) phasePack(msgs []messages.Message, effDt float32) {
	s.startPhase(telemetry.PhasePack)

	slotted := msgs[:0:0]
	for _, m := range msgs {
		if m.Kind == messages.SpawnProj {
			slot := s.projAlloc.Alloc()
			if slot == slotalloc.Full {
				continue // spec §7 capacity exceeded: soft-drop, no crash
			}
			m.Slot = int32(slot)
			s.projActive[slot] = true
			s.projLifetime[slot] = m.F3
		}
		slotted = append(slotted, m)
	}

	s.NpcState.Apply(slotted)
	s.ProjState.Apply(slotted)
	s.NpcState.DecayFlash(effDt, s.World.Count())
	s.packVisualUpload()
}

// packVisualUpload rebuilds NpcVisualUpload by slot index (not ECS iteration
// order) so visual[slot] stays aligned with the slot-indexed positions/
// healths buffers the renderer reads alongside it.
func (s *Scheduler) packVisualUpload() {
	s.VisualUpload.Reset()
	count := s.World.Count()
	visuals := s.World.Visual()
	for slot := int32(0); slot < int32(count); slot++ {
		if !s.World.Alive(slot) {
			s.VisualUpload.Append(&hiddenVisual)
			continue
		}
		e := s.World.Entity(slot)
		if visuals.Has(e) {
			s.VisualUpload.Append(visuals.Get(e))
			continue
		}
		var zero components.Visual
		s.VisualUpload.Append(&zero)
	}
}

// phaseUpload implements spec §4.2 phase 10: bulk write_buffer calls
// transfer the staging arrays into the GPU's persistent storage buffers.
// This implementation always uploads the whole array rather than walking
// NpcGpuState.DirtyFields' per-index lists (a correct but unneeded
// optimization at this module's scale — see DESIGN.md); ClearDirty still
// runs so the dirty bookkeeping itself stays correct for callers that do
// want it (tests, a future bandwidth-constrained backend).
func (s *Scheduler) phaseUpload() {
	s.startPhase(telemetry.PhaseUpload)
	s.GPU.UploadNPCFields(
		s.NpcState.Positions, s.NpcState.Goals, s.NpcState.Speeds,
		s.NpcState.Factions, s.NpcState.Arrivals, s.NpcState.NpcFlags,
		s.NpcState.Healths,
	)
	s.GPU.UploadProjFields(
		s.ProjState.Positions, s.ProjState.Velocity, s.ProjState.Lifetime,
		s.ProjState.Damage, s.ProjState.Faction, s.ProjState.Shooter, s.ProjState.Active,
	)
	s.NpcState.ClearDirty()
}

// phaseDispatch implements spec §4.2 phase 11: the three NPC compute modes
// in order, then the projectile dispatch (which reads the NPC grid BuildGrid
// just populated).
func (s *Scheduler) phaseDispatch(effDt float32) {
	s.startPhase(telemetry.PhaseDispatch)
	params := s.gpuParams(effDt)

	s.GPU.ClearGrid(params)
	s.GPU.BuildGrid(params)
	s.GPU.MoveAndTarget(params)
	s.GPU.AdvanceProjectiles(params, s.Cfg.Derived.ProjHitRadius32)
}

func (s *Scheduler) gpuParams(effDt float32) gpu.Params {
	cellSize := float32(s.Cfg.World.GridCellSize)
	gridW := int32(math.Ceil(s.Cfg.World.Width / s.Cfg.World.GridCellSize))
	gridH := int32(math.Ceil(s.Cfg.World.Height / s.Cfg.World.GridCellSize))
	return gpu.Params{
		Count:            int32(s.World.Count()),
		Delta:            effDt,
		GridW:            gridW,
		GridH:            gridH,
		CellSize:         cellSize,
		MaxPerCell:       int32(s.Cfg.World.MaxPerCell),
		ArrivalThreshold: s.Cfg.Derived.ArrivalThreshold32,
		CombatRange:      s.Cfg.Derived.CombatRange32,
	}
}

// phaseReadback implements spec §4.2 phase 12: stages positions and combat
// targets for next frame's Position-readback/Combat phases, and resolves
// this frame's projectile hits into slot-recycling-safe records for next
// frame's Drain phase. Freeing an expired or already-hit projectile's slot
// happens here too — the pool's slot allocator is scheduler-owned state, not
// something the GPU pipeline tracks.
func (s *Scheduler) phaseReadback(effDt float32) {
	s.startPhase(telemetry.PhaseReadback)

	npcCount := int32(s.World.Count())
	s.readPositions = s.GPU.ReadPositions(npcCount)
	s.readCombatTargets = s.GPU.ReadCombatTargets(npcCount)

	projCount := int32(s.projAlloc.Cap())
	hits := s.GPU.ReadProjHits(projCount)
	for slot := int32(0); slot < projCount; slot++ {
		if !s.projActive[slot] {
			continue
		}
		hit := slot < int32(len(hits)) && hits[slot] >= 0
		s.projLifetime[slot] -= effDt
		if hit {
			s.pendingHits = append(s.pendingHits, projHitRecord{
				target:   hits[slot],
				amount:   s.ProjState.Damage[slot],
				attacker: s.ProjState.Shooter[slot],
			})
		}
		if hit || s.projLifetime[slot] <= 0 {
			s.projActive[slot] = false
			s.ProjState.Active[slot] = 0
			s.projAlloc.Free(int(slot))
		}
	}
}

// flushTelemetry closes the current stats window once its duration has
// elapsed, mirroring the teacher's flushTelemetry (game/game.go): a
// population/kill/faction snapshot, bookmark detection over that snapshot,
// and a CSV row per output stream, all gated behind nil-checks so a
// telemetry-less scheduler (most unit tests) pays nothing for this.
func (s *Scheduler) flushTelemetry() {
	if s.Stats == nil || !s.Stats.ShouldFlush(s.tick) {
		return
	}

	s.updateLifetimes()

	pop, kill, faction := s.Stats.Flush(s.tick)
	if s.Output != nil {
		s.Output.WritePopulation(pop)
		s.Output.WriteKills(kill)
		s.Output.WriteFactions(faction)
		if s.Perf != nil {
			s.Output.WritePerf(s.Perf.Stats(), s.tick)
		}
	}
	if s.Bookmarks != nil {
		for _, b := range s.Bookmarks.Check(pop, kill) {
			b.LogBookmark()
			if s.Output != nil {
				s.Output.WriteBookmark(b)
			}
		}
	}
}

// updateLifetimes folds this window's CombatLog events into per-slot
// lifetime stats before Stats.Flush drains the same log for its own
// counters — EventLog.Events() is non-destructive, so both readers see the
// full window.
func (s *Scheduler) updateLifetimes() {
	if s.Lifetimes == nil || s.Events == nil {
		return
	}
	for _, e := range s.Events.Events() {
		switch e.Kind {
		case telemetry.EventKill:
			if e.Other >= 0 {
				s.Lifetimes.RecordKill(e.Other)
			}
			s.Lifetimes.Remove(e.Slot)
		case telemetry.EventHarvest:
			s.Lifetimes.RecordHarvest(e.Slot, e.Amount)
		}
	}

	q := s.World.Filter.Query()
	for q.Next() {
		_, _, id, health, _, _, energy := q.Get()
		if health.Dead {
			continue
		}
		s.Lifetimes.UpdateSurvival(id.Slot, s.tick)
		s.Lifetimes.UpdateEnergy(id.Slot, energy.Value)
	}
}
