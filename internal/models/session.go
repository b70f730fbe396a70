package models

import (
	"errors"
	"fmt"
	"time"
)

// SessionMeta identifies the raw log a session was computed from
type SessionMeta struct {
	Animal     string    `json:"animal"`
	Protocol   string    `json:"protocol"`
	Date       time.Time `json:"date"` // session timestamp taken from the filename
	Box        string    `json:"box"`
	SourceFile string    `json:"source_file,omitempty"`
}

// LatencyStats summarizes lick latencies on one side.
// Mean, StdDev and SEM are nil when too few licks were recorded to define them.
type LatencyStats struct {
	N      int      `json:"n"`
	Mean   *float64 `json:"mean,omitempty"`
	StdDev *float64 `json:"std_dev,omitempty"`
	SEM    *float64 `json:"sem,omitempty"`
}

// StimulusCounts holds per-tone counts within a session
type StimulusCounts struct {
	Trials      int      `json:"trials"`
	Omissions   int      `json:"omissions"`
	Correct     int      `json:"correct"`
	Incorrect   int      `json:"incorrect"`
	Performance *float64 `json:"performance,omitempty"` // percent correct of correct+incorrect+omissions
}

// LickCounts holds lick event counts for free licking and pressing sessions
type LickCounts struct {
	Total int `json:"total"`
	Left  int `json:"left"`
	Right int `json:"right"`
}

// SessionMetrics holds every per-session scalar consumed by the cross-day summary
type SessionMetrics struct {
	SessionMeta

	TotalTrials    int              `json:"total_trials"`
	Classified     int              `json:"classified"`
	Unclassified   int              `json:"unclassified"`
	CategoryCounts map[Category]int `json:"category_counts"`

	// Response counts from side and outcome flags over all trials
	CorrectLeft    int `json:"correct_left"`
	CorrectRight   int `json:"correct_right"`
	IncorrectLeft  int `json:"incorrect_left"`
	IncorrectRight int `json:"incorrect_right"`
	EarlyLicks     int `json:"early_licks"`
	Omissions      int `json:"omissions"`

	Stimuli map[string]StimulusCounts `json:"stimuli,omitempty"`

	HitRate        float64 `json:"hit_rate"`
	FalseAlarmRate float64 `json:"false_alarm_rate"`
	DPrime         float64 `json:"d_prime"`

	LatencyLeft  LatencyStats `json:"latency_left"`
	LatencyRight LatencyStats `json:"latency_right"`

	QW                  *int     `json:"qw,omitempty"`
	AutomRewardDominant bool     `json:"autom_reward_dominant"`
	Performance         *float64 `json:"performance,omitempty"`

	// Percentages over classified trials
	PercentCorrect      *float64 `json:"percent_correct,omitempty"`
	PercentIncorrect    *float64 `json:"percent_incorrect,omitempty"`
	PercentCorrectLeft  *float64 `json:"percent_correct_left,omitempty"`
	PercentCorrectRight *float64 `json:"percent_correct_right,omitempty"`

	BlockCounts map[BlockType]int `json:"block_counts,omitempty"`
	Licks       *LickCounts       `json:"licks,omitempty"`
}

// Correct returns the number of rewarded side responses
func (m *SessionMetrics) Correct() int {
	return m.CorrectLeft + m.CorrectRight
}

// Incorrect returns the number of punished side responses
func (m *SessionMetrics) Incorrect() int {
	return m.IncorrectLeft + m.IncorrectRight
}

// Validate checks that counts and rates are within range
func (m *SessionMetrics) Validate() error {
	if m.TotalTrials < 0 {
		return errors.New("total trials cannot be negative")
	}
	if m.Classified+m.Unclassified != m.TotalTrials {
		return fmt.Errorf("classified (%d) + unclassified (%d) must equal total trials (%d)",
			m.Classified, m.Unclassified, m.TotalTrials)
	}
	if m.HitRate < 0.01 || m.HitRate > 0.99 {
		return fmt.Errorf("hit rate %.4f outside [0.01, 0.99]", m.HitRate)
	}
	if m.FalseAlarmRate < 0.01 || m.FalseAlarmRate > 0.99 {
		return fmt.Errorf("false alarm rate %.4f outside [0.01, 0.99]", m.FalseAlarmRate)
	}
	return nil
}
