// Package config implements the per-station working-tree layout of
// spec.md §4.I: a directory derived from a station's address, holding
// its persisted IF bias and the derived FE-CAL/SDR config files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/ricochet2200/go-disk-usage/du"
	"gopkg.in/yaml.v3"
)

// StationConfig is the one persisted field per spec.md §4.I.
type StationConfig struct {
	IFBias float64 `yaml:"if_bias"`
}

// lowFreeSpaceBytes is the free-space floor below which Dir logs a
// warning before creating a new station directory, mirroring the
// teacher's logFileWatcher threshold in main/logging.go.
const lowFreeSpaceBytes = 50 * 1024 * 1024

// DirName derives a station's working-tree directory name from its
// address by replacing ":" with "." (spec.md §4.D step 1, §6).
func DirName(address string) string {
	return strings.ReplaceAll(address, ":", ".")
}

// Dir ensures <root>/<DirName(address)> exists and returns its path.
func Dir(root, address string) (string, error) {
	dir := filepath.Join(root, DirName(address))
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		usage := du.NewDiskUsage(root)
		if usage.Free() < lowFreeSpaceBytes {
			fmt.Fprintf(os.Stderr, "genesis: low free space in %s: %s remaining\n", root, humanize.Bytes(usage.Free()))
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
	} else if err != nil {
		return "", err
	}
	return dir, nil
}

const stationConfigFile = "station_config"

// Load reads <dir>/station_config. It returns false (not an error) on
// any I/O or decode error, per spec.md §4.I.
func Load(dir string) (StationConfig, bool) {
	var cfg StationConfig
	data, err := os.ReadFile(filepath.Join(dir, stationConfigFile))
	if err != nil {
		return cfg, false
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, false
	}
	return cfg, true
}

// Save writes <dir>/station_config. It returns false on any I/O error.
// The encoding (YAML) only needs to be stable across saves, not a wire
// format (spec.md §4.I).
func Save(dir string, cfg StationConfig) bool {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return false
	}
	if err := os.WriteFile(filepath.Join(dir, stationConfigFile), data, 0o644); err != nil {
		return false
	}
	return true
}
