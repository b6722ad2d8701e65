package telemetry

import (
	"testing"

	"github.com/pthm-cable/holdfast/config"
)

func testBookmarksConfig(t *testing.T) config.BookmarksConfig {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading default config: %v", err)
	}
	return cfg.Bookmarks
}

func TestBookmarkDetector_KillSpike(t *testing.T) {
	bd := NewBookmarkDetector(testBookmarksConfig(t), 10)

	for i := 0; i < 5; i++ {
		bd.Check(
			PopulationStats{WindowEndTick: int32(i * 600), Total: 50},
			KillStats{WindowEndTick: int32(i * 600), TotalKills: 2},
		)
	}

	bookmarks := bd.Check(
		PopulationStats{WindowEndTick: 3000, Total: 50},
		KillStats{WindowEndTick: 3000, TotalKills: 8},
	)

	found := false
	for _, bm := range bookmarks {
		if bm.Type == BookmarkKillSpike {
			found = true
		}
	}
	if !found {
		t.Error("expected kill_spike bookmark")
	}
}

func TestBookmarkDetector_PopulationCrash(t *testing.T) {
	bd := NewBookmarkDetector(testBookmarksConfig(t), 10)

	for i := 0; i < 5; i++ {
		bd.Check(
			PopulationStats{WindowEndTick: int32(i * 600), Total: 100},
			KillStats{WindowEndTick: int32(i * 600)},
		)
	}

	bookmarks := bd.Check(
		PopulationStats{WindowEndTick: 3000, Total: 50},
		KillStats{WindowEndTick: 3000},
	)

	found := false
	for _, bm := range bookmarks {
		if bm.Type == BookmarkPopulationCrash {
			found = true
		}
	}
	if !found {
		t.Error("expected population_crash bookmark")
	}
}

func TestBookmarkDetector_PopulationRecovery(t *testing.T) {
	bd := NewBookmarkDetector(testBookmarksConfig(t), 10)

	for i := 0; i < 3; i++ {
		bd.Check(
			PopulationStats{WindowEndTick: int32(i * 600), Total: 2},
			KillStats{WindowEndTick: int32(i * 600)},
		)
	}

	bookmarks := bd.Check(
		PopulationStats{WindowEndTick: 2400, Total: 10},
		KillStats{WindowEndTick: 2400},
	)

	found := false
	for _, bm := range bookmarks {
		if bm.Type == BookmarkPopulationRecovery {
			found = true
		}
	}
	if !found {
		t.Error("expected population_recovery bookmark")
	}
}

func TestBookmarkDetector_StableSettlement(t *testing.T) {
	bd := NewBookmarkDetector(testBookmarksConfig(t), 10)

	triggered := false
	for i := 0; i < 10; i++ {
		bookmarks := bd.Check(
			PopulationStats{WindowEndTick: int32(i * 600), Total: 100},
			KillStats{WindowEndTick: int32(i * 600)},
		)
		for _, bm := range bookmarks {
			if bm.Type == BookmarkStableSettlement {
				triggered = true
			}
		}
	}
	if !triggered {
		t.Error("expected stable_settlement bookmark to trigger within 10 flat windows")
	}
}
