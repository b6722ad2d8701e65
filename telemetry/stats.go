package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/holdfast/components"
)

// PopulationStats is a per-window population snapshot, keyed by job since
// the Job enum is the NPC's only stable role classification (spec §3).
type PopulationStats struct {
	WindowEndTick int32 `csv:"window_end"`

	Total     int `csv:"total"`
	Farmers   int `csv:"farmers"`
	Archers   int `csv:"archers"`
	Crossbows int `csv:"crossbows"`
	Raiders   int `csv:"raiders"`
	Fighters  int `csv:"fighters"`
	Miners    int `csv:"miners"`

	EnergyMean float64 `csv:"energy_mean"`
	EnergyP10  float64 `csv:"energy_p10"`
	EnergyP50  float64 `csv:"energy_p50"`
	EnergyP90  float64 `csv:"energy_p90"`

	LevelMean float64 `csv:"level_mean"`
}

// CountJob increments the per-job counter matching job.
func (p *PopulationStats) CountJob(job components.Job) {
	p.Total++
	switch job {
	case components.JobFarmer:
		p.Farmers++
	case components.JobArcher:
		p.Archers++
	case components.JobCrossbow:
		p.Crossbows++
	case components.JobRaider:
		p.Raiders++
	case components.JobFighter:
		p.Fighters++
	case components.JobMiner:
		p.Miners++
	}
}

// KillStats is a per-window kill tally. Victim counts are classified by the
// victim's job, not the killer's — per spec §9's "KillStats.guard_kills and
// villager_kills count victims, not killers; the names are historical. Keep
// the semantics, choose clearer names in the rewrite", MilitaryVictims and
// CivilianVictims are that rewrite.
type KillStats struct {
	WindowEndTick   int32 `csv:"window_end"`
	TotalKills      int   `csv:"total_kills"`
	MilitaryVictims int   `csv:"military_victims"`
	CivilianVictims int   `csv:"civilian_victims"`
}

// CountVictim records one kill against victimJob.
func (k *KillStats) CountVictim(victimJob components.Job) {
	k.TotalKills++
	if victimJob.IsCombatJob() {
		k.MilitaryVictims++
	} else {
		k.CivilianVictims++
	}
}

// FactionCount is one faction's per-window population/kill tally.
type FactionCount struct {
	Faction components.Faction
	Alive   int
	Deaths  int
	Kills   int
}

// FactionStats holds a per-window breakdown across every faction seen this
// window. Kept as a slice rather than fixed CSV columns since the Faction
// convention (spec §6: "-1 neutral, 0 player, 1.. other") is open-ended —
// CSV export flattens the two-faction convention that the repo's combat
// scenarios actually exercise (player vs. one raider faction); additional
// factions remain visible here and in structured logs, just not as CSV
// columns (see DESIGN.md).
type FactionStats struct {
	WindowEndTick int32
	Counts        []FactionCount
}

func (f *FactionStats) counterFor(faction components.Faction) *FactionCount {
	for i := range f.Counts {
		if f.Counts[i].Faction == faction {
			return &f.Counts[i]
		}
	}
	f.Counts = append(f.Counts, FactionCount{Faction: faction})
	return &f.Counts[len(f.Counts)-1]
}

// CountAlive records one living NPC of the given faction.
func (f *FactionStats) CountAlive(faction components.Faction) {
	f.counterFor(faction).Alive++
}

// CountDeath records one death attributed to the given faction.
func (f *FactionStats) CountDeath(faction components.Faction) {
	f.counterFor(faction).Deaths++
}

// CountKill records one kill credited to the given faction.
func (f *FactionStats) CountKill(faction components.Faction) {
	f.counterFor(faction).Kills++
}

// FactionStatsCSV is the flattened two-faction (player vs. faction 1) CSV
// row — see FactionStats's doc comment for why.
type FactionStatsCSV struct {
	WindowEnd     int32 `csv:"window_end"`
	PlayerAlive   int   `csv:"player_alive"`
	PlayerDeaths  int   `csv:"player_deaths"`
	PlayerKills   int   `csv:"player_kills"`
	Faction1Alive int   `csv:"faction1_alive"`
	Faction1Deaths int  `csv:"faction1_deaths"`
	Faction1Kills  int  `csv:"faction1_kills"`
}

// ToCSV flattens FactionStats into the player/faction-1 row.
func (f FactionStats) ToCSV() FactionStatsCSV {
	row := FactionStatsCSV{WindowEnd: f.WindowEndTick}
	for _, c := range f.Counts {
		switch c.Faction {
		case components.FactionPlayer:
			row.PlayerAlive, row.PlayerDeaths, row.PlayerKills = c.Alive, c.Deaths, c.Kills
		case components.Faction(1):
			row.Faction1Alive, row.Faction1Deaths, row.Faction1Kills = c.Alive, c.Deaths, c.Kills
		}
	}
	return row
}

// Percentiles returns the mean and the 10th/50th/90th percentiles of
// values, via gonum/stat (stat.Quantile requires its input pre-sorted).
func Percentiles(values []float64) (mean, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mean = stat.Mean(sorted, nil)
	p10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	p50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)
	return mean, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (p PopulationStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_end", int(p.WindowEndTick)),
		slog.Int("total", p.Total),
		slog.Int("farmers", p.Farmers),
		slog.Int("archers", p.Archers),
		slog.Int("crossbows", p.Crossbows),
		slog.Int("raiders", p.Raiders),
		slog.Int("fighters", p.Fighters),
		slog.Int("miners", p.Miners),
		slog.Float64("energy_mean", p.EnergyMean),
		slog.Float64("energy_p10", p.EnergyP10),
		slog.Float64("energy_p50", p.EnergyP50),
		slog.Float64("energy_p90", p.EnergyP90),
		slog.Float64("level_mean", p.LevelMean),
	)
}

// LogValue implements slog.LogValuer for structured logging.
func (k KillStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_end", int(k.WindowEndTick)),
		slog.Int("total_kills", k.TotalKills),
		slog.Int("military_victims", k.MilitaryVictims),
		slog.Int("civilian_victims", k.CivilianVictims),
	)
}
