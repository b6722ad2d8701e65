package telemetry

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/holdfast/config"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkKillSpike           BookmarkType = "kill_spike"
	BookmarkEnergyRecoverySpike BookmarkType = "energy_recovery_spike"
	BookmarkPopulationRecovery  BookmarkType = "population_recovery"
	BookmarkPopulationCrash     BookmarkType = "population_crash"
	BookmarkStableSettlement    BookmarkType = "stable_settlement"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        int32        `csv:"tick"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// windowSnapshot pairs one window's population and kill counters, the unit
// BookmarkDetector keeps rolling history over.
type windowSnapshot struct {
	Pop  PopulationStats
	Kill KillStats
}

// BookmarkDetector detects interesting moments in the simulation, mirroring
// the teacher's BookmarkDetector's rolling-history-plus-threshold-check
// shape, generalized from prey/predator counts to settlement population/
// kill windows.
type BookmarkDetector struct {
	cfg config.BookmarksConfig

	history     []windowSnapshot
	historySize int
	historyIdx  int
	historyFull bool

	recentPopMin       int
	recentPopPeak      int
	stableWindowsCount int
}

// NewBookmarkDetector creates a detector with the given history size,
// checking thresholds from cfg instead of the package-global config.Cfg().
func NewBookmarkDetector(cfg config.BookmarksConfig, historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5
	}
	return &BookmarkDetector{
		cfg:         cfg,
		history:     make([]windowSnapshot, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest window's stats and returns any triggered
// bookmarks.
func (bd *BookmarkDetector) Check(pop PopulationStats, kill KillStats) []Bookmark {
	var bookmarks []Bookmark
	snap := windowSnapshot{Pop: pop, Kill: kill}

	if bd.historyFull || bd.historyIdx > 0 {
		if b := bd.checkKillSpike(snap); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkEnergyRecoverySpike(snap); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkPopulationRecovery(snap); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkPopulationCrash(snap); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkStableSettlement(snap); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(snap)

	if pop.Total < bd.recentPopMin || bd.recentPopMin == 0 {
		bd.recentPopMin = pop.Total
	}
	if pop.Total > bd.recentPopPeak {
		bd.recentPopPeak = pop.Total
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(snap windowSnapshot) {
	bd.history[bd.historyIdx] = snap
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []windowSnapshot {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkKillSpike(snap windowSnapshot) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}
	cfg := bd.cfg.KillSpike

	var totalKills int
	for _, h := range history {
		totalKills += h.Kill.TotalKills
	}
	avgKills := float64(totalKills) / float64(len(history))
	if avgKills == 0 || snap.Kill.TotalKills < cfg.MinKills {
		return nil
	}

	if float64(snap.Kill.TotalKills) > avgKills*cfg.Multiplier {
		return &Bookmark{
			Type:        BookmarkKillSpike,
			Tick:        snap.Pop.WindowEndTick,
			Description: fmt.Sprintf("%d kills is %.1fx the rolling average (%.2f)", snap.Kill.TotalKills, float64(snap.Kill.TotalKills)/avgKills, avgKills),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkEnergyRecoverySpike(snap windowSnapshot) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}
	cfg := bd.cfg.EnergyRecoverySpike

	var totalEnergy float64
	for _, h := range history {
		totalEnergy += h.Pop.EnergyMean
	}
	avgEnergy := totalEnergy / float64(len(history))
	if avgEnergy == 0 || snap.Pop.EnergyMean < cfg.MinEnergyMean {
		return nil
	}

	if snap.Pop.EnergyMean > avgEnergy*cfg.Multiplier {
		return &Bookmark{
			Type:        BookmarkEnergyRecoverySpike,
			Tick:        snap.Pop.WindowEndTick,
			Description: fmt.Sprintf("mean energy %.1f is %.1fx the rolling average (%.1f)", snap.Pop.EnergyMean, snap.Pop.EnergyMean/avgEnergy, avgEnergy),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkPopulationRecovery(snap windowSnapshot) *Bookmark {
	cfg := bd.cfg.PopulationRecovery
	if bd.recentPopMin == 0 || bd.recentPopMin > cfg.MinPopulation {
		return nil
	}

	threshold := bd.recentPopMin * cfg.RecoveryMultiplier
	if snap.Pop.Total >= threshold && snap.Pop.Total >= cfg.MinFinal {
		oldMin := bd.recentPopMin
		bd.recentPopMin = snap.Pop.Total
		return &Bookmark{
			Type:        BookmarkPopulationRecovery,
			Tick:        snap.Pop.WindowEndTick,
			Description: fmt.Sprintf("population recovered from %d to %d", oldMin, snap.Pop.Total),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkPopulationCrash(snap windowSnapshot) *Bookmark {
	if bd.recentPopPeak == 0 {
		return nil
	}
	cfg := bd.cfg.PopulationCrash

	dropPercent := 1.0 - float64(snap.Pop.Total)/float64(bd.recentPopPeak)
	if dropPercent > cfg.DropPercent && snap.Pop.Total < bd.recentPopPeak-cfg.MinDrop {
		oldPeak := bd.recentPopPeak
		bd.recentPopPeak = snap.Pop.Total
		return &Bookmark{
			Type:        BookmarkPopulationCrash,
			Tick:        snap.Pop.WindowEndTick,
			Description: fmt.Sprintf("population crashed %.0f%% from peak %d to %d", dropPercent*100, oldPeak, snap.Pop.Total),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkStableSettlement(snap windowSnapshot) *Bookmark {
	cfg := bd.cfg.StableSettlement
	if snap.Pop.Total < cfg.MinPopulation {
		bd.stableWindowsCount = 0
		return nil
	}

	history := bd.getHistory()
	if len(history) < 4 {
		return nil
	}

	recent := history[len(history)-4:]
	var sum float64
	for _, h := range recent {
		sum += float64(h.Pop.Total)
	}
	mean := sum / 4

	var variance float64
	for _, h := range recent {
		diff := float64(h.Pop.Total) - mean
		variance += diff * diff
	}
	variance /= 4

	cv := 0.0
	if mean > 0 {
		cv = variance / (mean * mean)
	}

	if cv < cfg.CVThreshold {
		bd.stableWindowsCount++
	} else {
		bd.stableWindowsCount = 0
	}

	if bd.stableWindowsCount == cfg.StableWindows {
		return &Bookmark{
			Type:        BookmarkStableSettlement,
			Tick:        snap.Pop.WindowEndTick,
			Description: fmt.Sprintf("stable settlement of ~%d over %d+ windows", snap.Pop.Total, cfg.StableWindows),
		}
	}
	return nil
}
