package behavioral

import (
	"errors"
	"fmt"

	"github.com/harrison/trialscope/internal/models"
	"github.com/harrison/trialscope/internal/sdt"
)

// SessionReport is the full analysis of one raw log
type SessionReport struct {
	Metrics    models.SessionMetrics `json:"metrics"`
	Title      string                `json:"title"`
	Subtitle   string                `json:"subtitle,omitempty"`
	Trajectory []sdt.Point           `json:"trajectory,omitempty"`
	Blocks     []BlockReport         `json:"blocks,omitempty"`
}

// Validate checks the report's metrics
func (r *SessionReport) Validate() error {
	if r == nil {
		return errors.New("report cannot be nil")
	}
	if err := r.Metrics.Validate(); err != nil {
		return fmt.Errorf("invalid session metrics: %w", err)
	}
	return nil
}

// BlockReport breaks down the outcomes of one block type
type BlockReport struct {
	BlockType models.BlockType      `json:"block_type"`
	Runs      []models.BlockRun     `json:"runs"`
	Metrics   models.SessionMetrics `json:"metrics"` // counts over the trials of this block type only
}

// CrossDayEntry is one session positioned in a cross-day summary
type CrossDayEntry struct {
	DayIndex int `json:"day_index"`
	models.SessionMetrics
}

// DayLabel returns the one-based display label, e.g. "Day 1"
func (e *CrossDayEntry) DayLabel() string {
	return fmt.Sprintf("Day %d", e.DayIndex+1)
}

// CrossDaySummary orders sessions by date for cross-day comparison
type CrossDaySummary struct {
	Animal   string          `json:"animal,omitempty"`
	Subtitle string          `json:"subtitle,omitempty"`
	Entries  []CrossDayEntry `json:"entries"`
}

// Validate checks that entries are indexed in order and dated ascending
func (s *CrossDaySummary) Validate() error {
	if s == nil {
		return errors.New("summary cannot be nil")
	}
	for i := range s.Entries {
		if s.Entries[i].DayIndex != i {
			return fmt.Errorf("entry %d has day index %d", i, s.Entries[i].DayIndex)
		}
		if i > 0 && s.Entries[i].Date.Before(s.Entries[i-1].Date) {
			return fmt.Errorf("entry %d is dated before entry %d", i, i-1)
		}
	}
	return nil
}
