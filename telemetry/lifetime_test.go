package telemetry

import (
	"testing"

	"github.com/pthm-cable/holdfast/components"
)

func TestLifetimeTrackerRecordsKillsAndHarvest(t *testing.T) {
	lt := NewLifetimeTracker()
	lt.Register(3, 100, components.JobFighter)

	lt.RecordKill(3)
	lt.RecordKill(3)
	lt.RecordHarvest(3, 20)
	lt.UpdateEnergy(3, 70)
	lt.UpdateEnergy(3, 40)
	lt.UpdateSurvival(3, 250)

	s := lt.Get(3)
	if s == nil {
		t.Fatal("expected tracked stats for slot 3")
	}
	if s.Kills != 2 {
		t.Errorf("expected 2 kills, got %v", s.Kills)
	}
	if s.Harvested != 20 {
		t.Errorf("expected 20 harvested, got %v", s.Harvested)
	}
	if s.PeakEnergy != 70 {
		t.Errorf("expected peak energy 70 (not overwritten by the lower later update), got %v", s.PeakEnergy)
	}
	if s.SurvivalTicks != 150 {
		t.Errorf("expected survival of 150 ticks, got %v", s.SurvivalTicks)
	}
}

func TestLifetimeTrackerRemoveClearsEntry(t *testing.T) {
	lt := NewLifetimeTracker()
	lt.Register(5, 0, components.JobFarmer)

	removed := lt.Remove(5)
	if removed == nil {
		t.Fatal("expected Remove to return the removed stats")
	}
	if lt.Get(5) != nil {
		t.Error("expected slot 5 to be untracked after Remove")
	}
	if lt.Count() != 0 {
		t.Errorf("expected 0 tracked slots, got %v", lt.Count())
	}
}

func TestLifetimeTrackerRecordOnUnknownSlotIsNoop(t *testing.T) {
	lt := NewLifetimeTracker()
	lt.RecordKill(99)
	lt.RecordHarvest(99, 5)
	if lt.Count() != 0 {
		t.Errorf("expected no stats created for an unregistered slot, got %v", lt.Count())
	}
}
