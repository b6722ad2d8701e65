package scheduler

// PickNPC implements spec §6's pick_npc(x,y,r) -> slot? external query:
// the slot of the live NPC nearest (x,y) within radius, or found=false if
// none is in range. Selection is a UI click, not a per-frame hot path, so
// this scans the live NPC set directly rather than consulting a dedicated
// spatial index the way the GPU grid does for combat targeting.
func (s *Scheduler) PickNPC(x, y, radius float32) (slot int32, found bool) {
	bestDistSq := radius * radius
	slot = -1
	q := s.World.Filter.Query()
	for q.Next() {
		pos, _, id, health, _, _, _ := q.Get()
		if health.Dead {
			continue
		}
		d := distSq(x, y, pos.X, pos.Y)
		if d <= bestDistSq {
			bestDistSq = d
			slot = id.Slot
			found = true
		}
	}
	return slot, found
}

// PickBuilding implements spec §6's pick_building(x,y,r) external query:
// the index of the nearest live (non-tombstoned) building to (x,y) within
// radius, or found=false if none is in range. Grounded on the same
// BuildGrid.QueryRadius + nearest-of-candidates shape applyDestroyCommand
// already uses to resolve a building at a click point.
func (s *Scheduler) PickBuilding(x, y, radius float32) (idx int32, found bool) {
	candidates := s.State.BuildGrid.QueryRadius(nil, x, y, radius,
		func(i int32) bool { return !s.State.Buildings[i].Tombstoned },
		func(i int32) (float32, float32) { return s.State.Buildings[i].X, s.State.Buildings[i].Y },
	)
	if len(candidates) == 0 {
		return -1, false
	}

	best := candidates[0]
	bestDistSq := distSq(x, y, s.State.Buildings[best].X, s.State.Buildings[best].Y)
	for _, c := range candidates[1:] {
		d := distSq(x, y, s.State.Buildings[c].X, s.State.Buildings[c].Y)
		if d < bestDistSq {
			best, bestDistSq = c, d
		}
	}
	return best, true
}
