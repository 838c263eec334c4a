// Package config defines the audit configuration: where tables are loaded
// from, which checks run against which tables, and how dimension identifiers
// are mapped to hierarchy levels.
package config

import (
	"encoding/json"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the full configuration for one audit run.
type Config struct {
	ID        string            `yaml:"id" json:"id"`
	Source    SourceConfig      `yaml:"source" json:"source"`
	Checks    ChecksConfig      `yaml:"checks" json:"checks"`
	Hierarchy map[string]string `yaml:"hierarchy,omitempty" json:"hierarchy,omitempty"`
}

// SourceConfig selects the table access adapter.
type SourceConfig struct {
	// Type is "csv" or "mysql".
	Type string `yaml:"type" json:"type"`
	// Path is the directory holding <TABLE>.csv files (csv sources).
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
	// DSN is the database connection string (mysql sources).
	DSN string `yaml:"dsn,omitempty" json:"dsn,omitempty"`
}

// ChecksConfig holds one optional section per check. A nil section means the
// check is skipped.
type ChecksConfig struct {
	ValRange             *ValRangeConfig             `yaml:"val_range,omitempty" json:"val_range,omitempty"`
	CrossConsistency     *CrossConsistencyConfig     `yaml:"cross_consistency,omitempty" json:"cross_consistency,omitempty"`
	TimeCrossConsistency *TimeCrossConsistencyConfig `yaml:"time_cross_consistency,omitempty" json:"time_cross_consistency,omitempty"`
}

// TableColumn names one column in one table.
type TableColumn struct {
	Table  string `yaml:"table" json:"table"`
	Column string `yaml:"column" json:"column"`
}

// ValRangeConfig configures the value-range check: rows where column < threshold.
type ValRangeConfig struct {
	Threshold float64       `yaml:"threshold" json:"threshold"`
	Tables    []TableColumn `yaml:"tables" json:"tables"`
}

// CrossConsistencyConfig configures the cross-table consistency check over
// all ordered pairs of the listed tables.
type CrossConsistencyConfig struct {
	Tables []string `yaml:"tables" json:"tables"`
}

// TablePair is an ordered (left, right) table pair.
type TablePair struct {
	Left  string `yaml:"left" json:"left"`
	Right string `yaml:"right" json:"right"`
}

// TimeCrossConsistencyConfig configures the temporal consistency check.
//
// MissingPctThreshold (0-100) gates the cross-table gap findings and
// MinPeriodCount gates the low-frequency findings. They are deliberately
// separate settings even though they cover one check.
type TimeCrossConsistencyConfig struct {
	Pairs               []TablePair `yaml:"pairs" json:"pairs"`
	MissingPctThreshold float64     `yaml:"missing_pct_threshold" json:"missing_pct_threshold"`
	MinPeriodCount      int         `yaml:"min_period_count" json:"min_period_count"`
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(filename string) (*Config, error) {
	slog.Debug("loading config", "filename", filename)
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "read config file %s", filename)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		if jsonErr := json.Unmarshal(data, &cfg); jsonErr != nil {
			return nil, errors.Wrapf(err, "parse config file %s", filename)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultConfig returns an empty configuration with no checks enabled.
func DefaultConfig(id string) *Config {
	return &Config{ID: id}
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	switch c.Source.Type {
	case "csv":
		if c.Source.Path == "" {
			return errors.New("source.path is required for csv sources")
		}
	case "mysql":
		if c.Source.DSN == "" {
			return errors.New("source.dsn is required for mysql sources")
		}
	default:
		return errors.Errorf("unsupported source.type: %q", c.Source.Type)
	}

	if vr := c.Checks.ValRange; vr != nil {
		for _, tc := range vr.Tables {
			if tc.Table == "" || tc.Column == "" {
				return errors.New("val_range entries require both table and column")
			}
		}
	}
	if cc := c.Checks.CrossConsistency; cc != nil && len(cc.Tables) == 1 {
		return errors.New("cross_consistency requires at least two tables")
	}
	if tc := c.Checks.TimeCrossConsistency; tc != nil {
		for _, p := range tc.Pairs {
			if p.Left == "" || p.Right == "" {
				return errors.New("time_cross_consistency pairs require both left and right")
			}
		}
		if tc.MissingPctThreshold < 0 || tc.MissingPctThreshold > 100 {
			return errors.Errorf("missing_pct_threshold must be within 0-100, got %v", tc.MissingPctThreshold)
		}
		if tc.MinPeriodCount < 0 {
			return errors.Errorf("min_period_count must not be negative, got %d", tc.MinPeriodCount)
		}
	}
	return nil
}
