package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/holdfast/components"
)

func TestPercentiles(t *testing.T) {
	values := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}
	mean, p10, p50, p90 := Percentiles(values)

	if math.Abs(mean-0.55) > 0.001 {
		t.Errorf("mean = %v, want 0.55", mean)
	}
	if p10 != values[0] || p10 >= p50 {
		t.Errorf("p10 = %v, expected the empirical 10th percentile %v, below p50 %v", p10, values[0], p50)
	}
	if p90 <= p50 || p90 > values[len(values)-1] {
		t.Errorf("p90 = %v, expected between p50 %v and %v", p90, p50, values[len(values)-1])
	}
}

func TestPercentilesEmpty(t *testing.T) {
	mean, p10, p50, p90 := Percentiles(nil)
	if mean != 0 || p10 != 0 || p50 != 0 || p90 != 0 {
		t.Error("empty slice should return all zeros")
	}
}

func TestPopulationStatsCountJob(t *testing.T) {
	var p PopulationStats
	p.CountJob(components.JobFarmer)
	p.CountJob(components.JobFarmer)
	p.CountJob(components.JobRaider)

	if p.Total != 3 {
		t.Fatalf("expected Total 3, got %v", p.Total)
	}
	if p.Farmers != 2 {
		t.Fatalf("expected 2 farmers, got %v", p.Farmers)
	}
	if p.Raiders != 1 {
		t.Fatalf("expected 1 raider, got %v", p.Raiders)
	}
}

func TestKillStatsClassifiesByVictimJob(t *testing.T) {
	var k KillStats
	k.CountVictim(components.JobFarmer)
	k.CountVictim(components.JobFighter)
	k.CountVictim(components.JobMiner)

	if k.TotalKills != 3 {
		t.Fatalf("expected 3 total kills, got %v", k.TotalKills)
	}
	if k.MilitaryVictims != 1 {
		t.Fatalf("expected 1 military victim, got %v", k.MilitaryVictims)
	}
	if k.CivilianVictims != 2 {
		t.Fatalf("expected 2 civilian victims, got %v", k.CivilianVictims)
	}
}

func TestFactionStatsToCSV(t *testing.T) {
	var f FactionStats
	f.CountAlive(components.FactionPlayer)
	f.CountAlive(components.FactionPlayer)
	f.CountKill(components.Faction(1))
	f.CountDeath(components.FactionPlayer)

	row := f.ToCSV()
	if row.PlayerAlive != 2 {
		t.Fatalf("expected 2 player alive, got %v", row.PlayerAlive)
	}
	if row.PlayerDeaths != 1 {
		t.Fatalf("expected 1 player death, got %v", row.PlayerDeaths)
	}
	if row.Faction1Kills != 1 {
		t.Fatalf("expected 1 faction-1 kill, got %v", row.Faction1Kills)
	}
}
