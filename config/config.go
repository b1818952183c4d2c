// Package config holds the run configuration of the distributed locator:
// index tuning, world layout and output locations.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/notargets/DGLocator/locator"
	"github.com/notargets/DGLocator/partitions"
	"github.com/notargets/DGLocator/utils"
)

// EnvPrefix prefixes every environment override, e.g. DGLOCATOR_MAX_RING
const EnvPrefix = "DGLOCATOR_"

// Config is the JSON configuration. Unset fields fall back to the defaults
// returned by the Get* methods, so partial files are fine.
type Config struct {
	// Index params
	CellCounts      []int    `json:"cell_counts,omitempty"`
	ElementsPerCell *float64 `json:"elements_per_cell,omitempty"`
	MaxRing         *int     `json:"max_ring,omitempty"` // -1 (default) sweeps the whole grid
	CacheSize       *int     `json:"cache_size,omitempty"`

	// World params
	WorldSize   *int    `json:"world_size,omitempty"`
	HubAddress  *string `json:"hub_address,omitempty"`
	Partitioner *string `json:"partitioner,omitempty"` // block, round-robin, bisection, morton

	// Output params
	LogLevel       *string `json:"log_level,omitempty"`
	DBPath         *string `json:"db_path,omitempty"`
	ReportPath     *string `json:"report_path,omitempty"`
	MetricsAddress *string `json:"metrics_address,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// Load reads a Config from a JSON file and validates it
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the values that are set
func (c *Config) Validate() error {
	for d, n := range c.CellCounts {
		if n < 1 {
			return fmt.Errorf("cell_counts[%d] must be at least 1, got %d", d, n)
		}
	}
	if len(c.CellCounts) > 3 {
		return fmt.Errorf("cell_counts has %d entries, at most 3 axes", len(c.CellCounts))
	}
	if c.ElementsPerCell != nil && !(*c.ElementsPerCell > 0) {
		return fmt.Errorf("elements_per_cell must be positive, got %g", *c.ElementsPerCell)
	}
	if c.MaxRing != nil && *c.MaxRing != locator.AutoRingBound && *c.MaxRing < 1 {
		return fmt.Errorf("max_ring must be -1 or at least 1, got %d", *c.MaxRing)
	}
	if c.CacheSize != nil && *c.CacheSize < 0 {
		return fmt.Errorf("cache_size must be non-negative, got %d", *c.CacheSize)
	}
	if c.WorldSize != nil && *c.WorldSize < 1 {
		return fmt.Errorf("world_size must be at least 1, got %d", *c.WorldSize)
	}
	if c.Partitioner != nil {
		if _, err := partitions.ParseStrategy(*c.Partitioner); err != nil {
			return err
		}
	}
	if c.LogLevel != nil {
		switch strings.ToLower(*c.LogLevel) {
		case "debug", "info", "warn", "warning", "error":
		default:
			return fmt.Errorf("unknown log_level %q", *c.LogLevel)
		}
	}
	return nil
}

// ApplyEnv overlays DGLOCATOR_* environment variables onto c
func (c *Config) ApplyEnv() error {
	return c.apply(os.LookupEnv)
}

// ApplyEnvFile overlays the DGLOCATOR_* entries of a dotenv file onto c
// without touching the process environment
func (c *Config) ApplyEnvFile(path string) error {
	env, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return c.apply(func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	})
}

func (c *Config) apply(lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}
	setInt := func(name string, dst **int) error {
		if v, ok := get(name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = ptrInt(n)
		}
		return nil
	}
	setString := func(name string, dst **string) {
		if v, ok := get(name); ok {
			*dst = ptrString(v)
		}
	}

	if v, ok := get("CELL_COUNTS"); ok {
		var counts []int
		for _, f := range strings.Split(v, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(f))
			if err != nil {
				return fmt.Errorf("%sCELL_COUNTS: %w", EnvPrefix, err)
			}
			counts = append(counts, n)
		}
		c.CellCounts = counts
	}
	if v, ok := get("ELEMENTS_PER_CELL"); ok {
		x, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sELEMENTS_PER_CELL: %w", EnvPrefix, err)
		}
		c.ElementsPerCell = ptrFloat64(x)
	}
	for name, dst := range map[string]**int{
		"MAX_RING":   &c.MaxRing,
		"CACHE_SIZE": &c.CacheSize,
		"WORLD_SIZE": &c.WorldSize,
	} {
		if err := setInt(name, dst); err != nil {
			return err
		}
	}
	setString("HUB_ADDRESS", &c.HubAddress)
	setString("PARTITIONER", &c.Partitioner)
	setString("LOG_LEVEL", &c.LogLevel)
	setString("DB_PATH", &c.DBPath)
	setString("REPORT_PATH", &c.ReportPath)
	setString("METRICS_ADDRESS", &c.MetricsAddress)

	return c.Validate()
}

// GetElementsPerCell returns the elements_per_cell value or the default.
func (c *Config) GetElementsPerCell() float64 {
	if c.ElementsPerCell == nil {
		return 1 // default
	}
	return *c.ElementsPerCell
}

// GetMaxRing returns the max_ring value or the default.
func (c *Config) GetMaxRing() int {
	if c.MaxRing == nil {
		return locator.DefaultMaxRing
	}
	return *c.MaxRing
}

func (c *Config) GetCacheSize() int {
	if c.CacheSize == nil {
		return 0 // disabled
	}
	return *c.CacheSize
}

func (c *Config) GetWorldSize() int {
	if c.WorldSize == nil {
		return 2
	}
	return *c.WorldSize
}

// GetHubAddress defaults to an ephemeral loopback port
func (c *Config) GetHubAddress() string {
	if c.HubAddress == nil {
		return "127.0.0.1:0"
	}
	return *c.HubAddress
}

func (c *Config) GetPartitioner() partitions.PartitionStrategy {
	if c.Partitioner == nil {
		return partitions.CoordinateBisection
	}
	s, err := partitions.ParseStrategy(*c.Partitioner)
	if err != nil {
		return partitions.CoordinateBisection // default on parse error
	}
	return s
}

func (c *Config) GetLogLevel() string {
	if c.LogLevel == nil {
		return "info"
	}
	return *c.LogLevel
}

func (c *Config) GetDBPath() string {
	if c.DBPath == nil {
		return "dglocator.db"
	}
	return *c.DBPath
}

// GetReportPath is empty when no histogram is wanted
func (c *Config) GetReportPath() string {
	if c.ReportPath == nil {
		return ""
	}
	return *c.ReportPath
}

// GetMetricsAddress is empty when metrics are not served
func (c *Config) GetMetricsAddress() string {
	if c.MetricsAddress == nil {
		return ""
	}
	return *c.MetricsAddress
}

// LocatorOptions converts the index params
func (c *Config) LocatorOptions(log utils.Logger) locator.Options {
	return locator.Options{
		CellCounts:      c.CellCounts,
		ElementsPerCell: c.GetElementsPerCell(),
		MaxRing:         c.GetMaxRing(),
		CacheSize:       c.GetCacheSize(),
		Logger:          log,
	}
}
