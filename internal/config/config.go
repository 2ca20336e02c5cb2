// Package config loads and validates the YAML run configuration shared by
// the pipeline commands.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"spread-sniper-lab/internal/domain"
)

// ErrInvalidConfig is returned for a configuration that fails validation.
// The wrapped message names the offending field.
var ErrInvalidConfig = errors.New("invalid configuration")

// Defaults applied by Load for omitted fields.
const (
	DefaultWorkers           = 4
	DefaultParallelThreshold = 24
	DefaultMinChunk          = 12
)

// Config is the run configuration for one analysis batch.
type Config struct {
	// Channel is the capture feed channel the book observations came from.
	Channel int `yaml:"channel"`

	// Dates are the market dates to process, "YYYY-MM-DD".
	Dates []string `yaml:"dates"`

	// Symbols are the synthetic spread symbols to process. Empty means every
	// polygon definition in the reference store.
	Symbols []string `yaml:"symbols"`

	// Delay bounds the opportunity window lookahead. Zero means the merger
	// default.
	Delay Duration `yaml:"delay"`

	// Delays is the latency-model delay grid. Empty means [Delay].
	Delays []Duration `yaml:"delays"`

	// Latency is the shot-to-fill latency assumption. Zero means the model
	// default.
	Latency Duration `yaml:"latency"`

	// MinFillDuration is the quote-persistence threshold for hittable rows.
	// Zero means the simulator default.
	MinFillDuration Duration `yaml:"min_fill_duration"`

	// RequiredEdge gates the latency model's shot row.
	RequiredEdge float64 `yaml:"required_edge"`

	// Tolerance is the edge-detector tolerance.
	Tolerance float64 `yaml:"tolerance"`

	// CashPerPoint converts edge units into currency. Zero leaves raw units.
	CashPerPoint float64 `yaml:"cash_per_point"`

	// MemberType selects the fee tier for fill simulation. Empty means
	// non-member.
	MemberType string `yaml:"member_type"`

	// EdgeBoundaries are the summary bucket boundaries. Empty means the
	// aggregator defaults.
	EdgeBoundaries []float64 `yaml:"edge_boundaries"`

	// ProductType selects the fee reference rows.
	ProductType string `yaml:"product_type"`

	Workers Workers `yaml:"workers"`

	Storage Storage `yaml:"storage"`
}

// Workers configures the orchestrator's date-chunk worker pool.
type Workers struct {
	// Count is the pool size. Zero means DefaultWorkers.
	Count int `yaml:"count"`

	// ParallelThreshold is the minimum date count before the pool engages;
	// smaller batches run sequentially. Zero means DefaultParallelThreshold.
	ParallelThreshold int `yaml:"parallel_threshold"`

	// MinChunk is the minimum dates per worker chunk. Zero means
	// DefaultMinChunk.
	MinChunk int `yaml:"min_chunk"`
}

// Storage carries the backing store DSNs. Both empty selects the in-memory
// stores (fixture runs).
type Storage struct {
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickHouseDSN string `yaml:"clickhouse_dsn"`
}

// Duration wraps time.Duration with YAML string parsing ("55us", "5ms").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std converts to time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Load reads, defaults and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes, defaults and validates raw YAML configuration.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Workers.Count == 0 {
		c.Workers.Count = DefaultWorkers
	}
	if c.Workers.ParallelThreshold == 0 {
		c.Workers.ParallelThreshold = DefaultParallelThreshold
	}
	if c.Workers.MinChunk == 0 {
		c.Workers.MinChunk = DefaultMinChunk
	}
	if c.MemberType == "" {
		c.MemberType = string(domain.MemberTypeNonMember)
	}
	if len(c.Delays) == 0 && c.Delay != 0 {
		c.Delays = []Duration{c.Delay}
	}
}

func (c *Config) validate() error {
	if c.Channel <= 0 {
		return fmt.Errorf("%w: channel must be positive", ErrInvalidConfig)
	}
	if len(c.Dates) == 0 {
		return fmt.Errorf("%w: at least one date is required", ErrInvalidConfig)
	}
	for _, d := range c.Dates {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return fmt.Errorf("%w: bad date %q", ErrInvalidConfig, d)
		}
	}
	if c.Delay < 0 || c.Latency < 0 || c.MinFillDuration < 0 {
		return fmt.Errorf("%w: durations must be non-negative", ErrInvalidConfig)
	}
	for _, d := range c.Delays {
		if d < 0 {
			return fmt.Errorf("%w: delays must be non-negative", ErrInvalidConfig)
		}
	}
	if c.RequiredEdge < 0 {
		return fmt.Errorf("%w: required_edge must be non-negative", ErrInvalidConfig)
	}
	if c.CashPerPoint < 0 {
		return fmt.Errorf("%w: cash_per_point must be non-negative", ErrInvalidConfig)
	}
	switch domain.MemberType(c.MemberType) {
	case domain.MemberTypeNonMember, domain.MemberTypeMember, domain.MemberType106J:
	default:
		return fmt.Errorf("%w: unknown member_type %q", ErrInvalidConfig, c.MemberType)
	}
	if c.Workers.Count < 1 {
		return fmt.Errorf("%w: workers.count must be positive", ErrInvalidConfig)
	}
	if c.Workers.MinChunk < 1 {
		return fmt.Errorf("%w: workers.min_chunk must be positive", ErrInvalidConfig)
	}
	if (c.Storage.PostgresDSN == "") != (c.Storage.ClickHouseDSN == "") {
		return fmt.Errorf("%w: postgres_dsn and clickhouse_dsn must be set together", ErrInvalidConfig)
	}
	return nil
}

// UseMemory reports whether the run should use the in-memory stores.
func (c *Config) UseMemory() bool {
	return c.Storage.PostgresDSN == "" && c.Storage.ClickHouseDSN == ""
}
