package simworld

import (
	"testing"

	"github.com/pthm-cable/holdfast/components"
)

func TestSpawnAndDespawnRecyclesSlot(t *testing.T) {
	w := New(4)
	slot := w.SpawnNPC(
		components.Position{X: 1, Y: 2},
		components.Motion{Speed: 3},
		components.Identity{Job: components.JobFarmer},
		components.Health{Current: 10, Max: 10, LastHitBy: components.NoAttacker},
		components.CombatRuntime{Target: -1},
		components.ActivityState{Kind: components.ActivityIdle},
		components.Energy{Value: 100},
	)
	if slot != 0 {
		t.Fatalf("expected first slot 0, got %d", slot)
	}
	if !w.Ark.Alive(w.Entity(slot)) {
		t.Fatalf("expected spawned entity to be alive")
	}

	pos, _, _, _, _, _, _ := w.Get(slot)
	if pos.X != 1 || pos.Y != 2 {
		t.Fatalf("unexpected position %+v", pos)
	}

	w.DespawnNPC(slot)
	if w.Ark.Alive(w.Entity(slot)) {
		t.Fatalf("expected despawned entity to be dead")
	}

	next := w.SpawnNPC(
		components.Position{}, components.Motion{}, components.Identity{},
		components.Health{LastHitBy: components.NoAttacker}, components.CombatRuntime{Target: -1},
		components.ActivityState{}, components.Energy{},
	)
	if next != slot {
		t.Fatalf("expected LIFO reuse of slot %d, got %d", slot, next)
	}
}

func TestQueryVisitsLiveNPCs(t *testing.T) {
	w := New(4)
	for i := 0; i < 3; i++ {
		w.SpawnNPC(
			components.Position{X: float32(i)}, components.Motion{}, components.Identity{},
			components.Health{LastHitBy: components.NoAttacker}, components.CombatRuntime{Target: -1},
			components.ActivityState{}, components.Energy{},
		)
	}
	count := 0
	q := w.Filter.Query()
	for q.Next() {
		count++
	}
	if count != 3 {
		t.Fatalf("expected 3 live NPCs, got %d", count)
	}
}

func TestOptionalPersonalityMap(t *testing.T) {
	w := New(2)
	slot := w.SpawnNPC(
		components.Position{}, components.Motion{}, components.Identity{},
		components.Health{LastHitBy: components.NoAttacker}, components.CombatRuntime{Target: -1},
		components.ActivityState{}, components.Energy{},
	)
	e := w.Entity(slot)
	if w.Personality().Has(e) {
		t.Fatalf("expected no personality by default")
	}
	p := components.Personality{Count: 1, Traits: [2]components.PersonalityTrait{components.TraitBrave}, Magnitude: [2]float32{0.5}}
	w.Personality().Add(e, &p)
	if !w.Personality().Has(e) {
		t.Fatalf("expected personality after Add")
	}
	got := w.Personality().Get(e)
	if got.Traits[0] != components.TraitBrave {
		t.Fatalf("unexpected personality %+v", got)
	}
}
