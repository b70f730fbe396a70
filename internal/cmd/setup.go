package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrison/trialscope/internal/config"
	"github.com/harrison/trialscope/internal/logger"
	"github.com/harrison/trialscope/internal/pipeline"
	"github.com/harrison/trialscope/internal/tonemap"
)

// loadConfig reads --config (or .trialscope.yaml) and applies persistent flags
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
	} else {
		cfg, err = config.LoadConfigFromDir(".")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("log-level") {
		level, _ := cmd.Flags().GetString("log-level")
		cfg.MergeWithFlags(nil, nil, &level, nil, nil)
	}
	if f := cmd.Flags().Lookup("workers"); f != nil && f.Changed {
		workers, _ := cmd.Flags().GetInt("workers")
		cfg.MergeWithFlags(&workers, nil, nil, nil, nil)
	}
	if f := cmd.Flags().Lookup("tone-map"); f != nil && f.Changed {
		toneMap, _ := cmd.Flags().GetString("tone-map")
		cfg.MergeWithFlags(nil, nil, nil, &toneMap, nil)
	}
	if f := cmd.Flags().Lookup("db"); f != nil && f.Changed {
		dbPath, _ := cmd.Flags().GetString("db")
		cfg.MergeWithFlags(nil, nil, nil, nil, &dbPath)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger returns a console logger on the command's error stream
func newLogger(cmd *cobra.Command, cfg *config.Config) *logger.ConsoleLogger {
	return logger.NewConsoleLogger(cmd.ErrOrStderr(), cfg.LogLevel)
}

// loadToneMap returns nil when no tone map is configured
func loadToneMap(cfg *config.Config) (*tonemap.Table, error) {
	if cfg.ToneMapPath == "" {
		return nil, nil
	}
	t, err := tonemap.LoadFile(cfg.ToneMapPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load tone map: %w", err)
	}
	return t, nil
}

// runnerOptions maps configuration onto pipeline options
func runnerOptions(cfg *config.Config, toneMap *tonemap.Table, protocolOverride string) pipeline.Options {
	return pipeline.Options{
		Workers:         cfg.Workers,
		ToneDelay:       cfg.ToneDelay,
		StimulusColumns: cfg.StimulusColumns,
		Deduplicate:     cfg.Deduplicate,
		Protocol:        protocolOverride,
		ToneMap:         toneMap,
	}
}

// formatFromPath infers an export format from a file extension
func formatFromPath(path, fallback string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".md", ".markdown":
		return "markdown"
	case ".html", ".htm":
		return "html"
	case ".csv":
		return "csv"
	default:
		return fallback
	}
}
