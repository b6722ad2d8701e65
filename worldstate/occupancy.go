package worldstate

// OccupancyMap reserves a world position (farm, mine, bed) to exactly one
// NPC slot. Claims are a single compare-and-insert: the loser of a race
// treats the slot as already occupied and picks another (spec §7).
type OccupancyMap struct {
	bySlot map[int32]int32 // npc slot -> occupancy key
	byKey  map[int32]int32 // occupancy key -> npc slot
}

// NewOccupancyMap creates an empty occupancy map.
func NewOccupancyMap() *OccupancyMap {
	return &OccupancyMap{
		bySlot: make(map[int32]int32),
		byKey:  make(map[int32]int32),
	}
}

// Claim reserves key for npcSlot. Returns false if key is already held by a
// different slot (the caller is the race loser and must pick another).
func (o *OccupancyMap) Claim(key, npcSlot int32) bool {
	if holder, ok := o.byKey[key]; ok && holder != npcSlot {
		return false
	}
	// Release any previous claim this slot held under a different key.
	if prevKey, ok := o.bySlot[npcSlot]; ok && prevKey != key {
		delete(o.byKey, prevKey)
	}
	o.byKey[key] = npcSlot
	o.bySlot[npcSlot] = key
	return true
}

// Release drops whatever claim npcSlot holds, if any. Called on leaving
// Working or on death.
func (o *OccupancyMap) Release(npcSlot int32) {
	if key, ok := o.bySlot[npcSlot]; ok {
		delete(o.byKey, key)
		delete(o.bySlot, npcSlot)
	}
}

// Holder returns the slot occupying key, if any.
func (o *OccupancyMap) Holder(key int32) (int32, bool) {
	slot, ok := o.byKey[key]
	return slot, ok
}

// HasClaim reports whether npcSlot currently holds any occupancy.
func (o *OccupancyMap) HasClaim(npcSlot int32) bool {
	_, ok := o.bySlot[npcSlot]
	return ok
}
