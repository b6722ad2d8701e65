package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/pthm-cable/holdfast/config"
)

// OutputManager handles structured experiment output with CSV logging.
type OutputManager struct {
	dir             string
	populationFile  *os.File
	killsFile       *os.File
	factionsFile    *os.File
	perfFile        *os.File
	bookmarkFile    *os.File

	populationHeaderWritten bool
	killsHeaderWritten      bool
	factionsHeaderWritten   bool
	perfHeaderWritten       bool
	bookmarkHeaderWritten   bool
}

// NewOutputManager creates a new output manager and initializes the output
// directory. Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	files := []struct {
		name string
		dst  **os.File
	}{
		{"population.csv", &om.populationFile},
		{"kills.csv", &om.killsFile},
		{"factions.csv", &om.factionsFile},
		{"perf.csv", &om.perfFile},
		{"bookmarks.csv", &om.bookmarkFile},
	}
	for _, fd := range files {
		f, err := os.Create(filepath.Join(dir, fd.name))
		if err != nil {
			om.Close()
			return nil, fmt.Errorf("creating %s: %w", fd.name, err)
		}
		*fd.dst = f
	}

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	configPath := filepath.Join(om.dir, "config.yaml")
	return cfg.WriteYAML(configPath)
}

// WritePopulation writes one PopulationStats window row to population.csv.
func (om *OutputManager) WritePopulation(stats PopulationStats) error {
	if om == nil {
		return nil
	}
	return writeCSVRow(om.populationFile, &om.populationHeaderWritten, []PopulationStats{stats})
}

// WriteKills writes one KillStats window row to kills.csv.
func (om *OutputManager) WriteKills(stats KillStats) error {
	if om == nil {
		return nil
	}
	return writeCSVRow(om.killsFile, &om.killsHeaderWritten, []KillStats{stats})
}

// WriteFactions writes one FactionStats window row to factions.csv (as the
// flattened player/faction-1 CSV view — see FactionStats's doc comment).
func (om *OutputManager) WriteFactions(stats FactionStats) error {
	if om == nil {
		return nil
	}
	return writeCSVRow(om.factionsFile, &om.factionsHeaderWritten, []FactionStatsCSV{stats.ToCSV()})
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int32) error {
	if om == nil {
		return nil
	}
	return writeCSVRow(om.perfFile, &om.perfHeaderWritten, []PerfStatsCSV{stats.ToCSV(windowEnd)})
}

// WriteBookmark writes a bookmark record to bookmarks.csv.
func (om *OutputManager) WriteBookmark(b Bookmark) error {
	if om == nil {
		return nil
	}
	return writeCSVRow(om.bookmarkFile, &om.bookmarkHeaderWritten, []Bookmark{b})
}

// writeCSVRow marshals records to f, writing headers only on the first call
// per file (tracked via headerWritten) — same pattern as the teacher's
// per-writer header-written bools, generalized with gocsv's generic helpers.
func writeCSVRow[T any](f *os.File, headerWritten *bool, records []T) error {
	if !*headerWritten {
		if err := gocsv.Marshal(records, f); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
		*headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, f); err != nil {
		return fmt.Errorf("writing csv row: %w", err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, f := range []*os.File{om.populationFile, om.killsFile, om.factionsFile, om.perfFile, om.bookmarkFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
