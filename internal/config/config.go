package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harrison/trialscope/internal/models"
	"github.com/harrison/trialscope/internal/trialcsv"
)

// DefaultFileName is the config file looked up in the working directory
const DefaultFileName = ".trialscope.yaml"

// Config represents trialscope configuration options
type Config struct {
	// ToneDelay is the delay between trial start and tone onset
	ToneDelay time.Duration `yaml:"tone_delay"`

	// Workers is the number of log files analyzed concurrently
	Workers int `yaml:"workers"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// StimulusColumns lists the one-hot tone columns in display order
	StimulusColumns []string `yaml:"stimulus_columns"`

	// ToneMapPath points at the per-animal tone-spout mapping CSV
	ToneMapPath string `yaml:"tone_map_path"`

	// DBPath is the SQLite database holding saved cross-day summaries
	DBPath string `yaml:"db_path"`

	// OutputDir is where exports are written when no explicit path is given
	OutputDir string `yaml:"output_dir"`

	// Deduplicate resolves repeated trial numbers before analysis
	Deduplicate bool `yaml:"deduplicate"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		ToneDelay:       models.DefaultToneDelay,
		Workers:         4,
		LogLevel:        "info",
		StimulusColumns: append([]string(nil), trialcsv.DefaultStimulusColumns...),
		ToneMapPath:     "",
		DBPath:          filepath.Join(".trialscope", "summaries.db"),
		OutputDir:       ".",
		Deduplicate:     true,
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Durations are read as strings so "1.2s" parses
	type yamlConfig struct {
		ToneDelay       string   `yaml:"tone_delay"`
		Workers         int      `yaml:"workers"`
		LogLevel        string   `yaml:"log_level"`
		StimulusColumns []string `yaml:"stimulus_columns"`
		ToneMapPath     string   `yaml:"tone_map_path"`
		DBPath          string   `yaml:"db_path"`
		OutputDir       string   `yaml:"output_dir"`
		Deduplicate     bool     `yaml:"deduplicate"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if yamlCfg.ToneDelay != "" {
		delay, err := time.ParseDuration(yamlCfg.ToneDelay)
		if err != nil {
			return nil, fmt.Errorf("invalid tone_delay format %q: %w", yamlCfg.ToneDelay, err)
		}
		cfg.ToneDelay = delay
	}
	if yamlCfg.Workers != 0 {
		cfg.Workers = yamlCfg.Workers
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if len(yamlCfg.StimulusColumns) > 0 {
		cfg.StimulusColumns = yamlCfg.StimulusColumns
	}
	if yamlCfg.ToneMapPath != "" {
		cfg.ToneMapPath = yamlCfg.ToneMapPath
	}
	if yamlCfg.DBPath != "" {
		cfg.DBPath = yamlCfg.DBPath
	}
	if yamlCfg.OutputDir != "" {
		cfg.OutputDir = yamlCfg.OutputDir
	}

	// deduplicate defaults to true, so only an explicit key may turn it off
	var rawMap map[string]interface{}
	if err := yaml.Unmarshal(data, &rawMap); err == nil {
		if _, exists := rawMap["deduplicate"]; exists {
			cfg.Deduplicate = yamlCfg.Deduplicate
		}
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from .trialscope.yaml in the specified directory
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, DefaultFileName))
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
func (c *Config) MergeWithFlags(workers *int, toneDelay *time.Duration, logLevel *string, toneMapPath *string, dbPath *string) {
	if workers != nil {
		c.Workers = *workers
	}
	if toneDelay != nil {
		c.ToneDelay = *toneDelay
	}
	if logLevel != nil {
		c.LogLevel = *logLevel
	}
	if toneMapPath != nil {
		c.ToneMapPath = *toneMapPath
	}
	if dbPath != nil {
		c.DBPath = *dbPath
	}
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", c.Workers)
	}

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if c.ToneDelay < 0 {
		return fmt.Errorf("tone_delay must be >= 0, got %v", c.ToneDelay)
	}

	if len(c.StimulusColumns) == 0 {
		return fmt.Errorf("stimulus_columns cannot be empty")
	}
	seen := make(map[string]bool, len(c.StimulusColumns))
	for _, col := range c.StimulusColumns {
		if col == "" {
			return fmt.Errorf("stimulus_columns cannot contain an empty name")
		}
		if seen[col] {
			return fmt.Errorf("stimulus_columns lists %q twice", col)
		}
		seen[col] = true
	}

	if c.DBPath == "" {
		return fmt.Errorf("db_path cannot be empty")
	}

	return nil
}
