package models

import (
	"errors"
	"maps"
	"math"
	"strconv"
	"strings"
	"time"
)

// DefaultToneDelay is the fixed delay between trial start and tone onset
const DefaultToneDelay = 1200 * time.Millisecond

// BlockType identifies the task epoch a trial belongs to in block-structured protocols
type BlockType string

const (
	BlockNone        BlockType = ""
	BlockSound       BlockType = "sound"
	BlockActionLeft  BlockType = "action-left"
	BlockActionRight BlockType = "action-right"
)

// BlockTypes lists the block types in display order
var BlockTypes = []BlockType{BlockSound, BlockActionLeft, BlockActionRight}

// Side is a response spout
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// TrialRecord is one row of a raw behavioral log.
// Optional timestamps are nil when the column is missing or the cell is empty.
type TrialRecord struct {
	TrialNumber int `json:"trial_number"`

	// MissingTrialNumber is set when the trial_number cell was blank or NaN
	MissingTrialNumber bool `json:"missing_trial_number,omitempty"`

	TrialStart   *float64  `json:"trial_start,omitempty"`
	TrialEnd     *float64  `json:"trial_end,omitempty"`
	LickTime     *float64  `json:"lick_time,omitempty"`
	SessionStart *float64  `json:"session_start,omitempty"`
	LeftSpout    bool      `json:"left_spout"`
	RightSpout   bool      `json:"right_spout"`
	Reward       bool      `json:"reward"`
	Punishment   bool      `json:"punishment"`
	Omission     bool      `json:"omission"`
	EarlyLick    bool      `json:"early_lick"`
	AutomReward  bool      `json:"autom_reward"`
	CatchTrial   bool      `json:"catch_trial"`
	Lick         bool      `json:"lick"`
	Stimulus     string    `json:"stimulus,omitempty"` // tone column set to 1, e.g. "5KHz"
	Block        BlockType `json:"block,omitempty"`
	QW           *int      `json:"qw,omitempty"`
	Category     Category  `json:"category,omitempty"`

	// Extra holds columns the model does not interpret, keyed by header name
	Extra map[string]string `json:"extra,omitempty"`

	// Cells holds the cell text of every column as read, so a log can be
	// written back without rewriting values the model does not change
	Cells map[string]string `json:"-"`
}

// Validate checks the fields that must hold for any trial
func (t *TrialRecord) Validate() error {
	if t.TrialNumber < 0 {
		return errors.New("trial number cannot be negative")
	}
	if !t.Category.IsValid() {
		return errors.New("unknown category: " + string(t.Category))
	}
	return nil
}

// ToneOnset returns trial start plus the tone delay, or nil when the start is unknown
func (t *TrialRecord) ToneOnset(delay time.Duration) *float64 {
	if t.TrialStart == nil {
		return nil
	}
	onset := *t.TrialStart + delay.Seconds()
	return &onset
}

// LickLatency returns the lick time relative to tone onset.
// Returns false when either timestamp is absent.
func (t *TrialRecord) LickLatency(delay time.Duration) (float64, bool) {
	onset := t.ToneOnset(delay)
	if onset == nil || t.LickTime == nil {
		return 0, false
	}
	return *t.LickTime - *onset, true
}

// ResponseSide returns the spout the animal responded on, left taking precedence
func (t *TrialRecord) ResponseSide() (Side, bool) {
	switch {
	case t.LeftSpout:
		return SideLeft, true
	case t.RightSpout:
		return SideRight, true
	default:
		return "", false
	}
}

// Clone returns a deep copy of the record
func (t TrialRecord) Clone() TrialRecord {
	c := t
	c.TrialStart = cloneFloat(t.TrialStart)
	c.TrialEnd = cloneFloat(t.TrialEnd)
	c.LickTime = cloneFloat(t.LickTime)
	c.SessionStart = cloneFloat(t.SessionStart)
	if t.QW != nil {
		qw := *t.QW
		c.QW = &qw
	}
	if t.Extra != nil {
		c.Extra = maps.Clone(t.Extra)
	}
	if t.Cells != nil {
		c.Cells = maps.Clone(t.Cells)
	}
	return c
}

// Equal reports whether two records hold identical values in every column.
// Cells compare by numeric value when both parse as numbers, so "1" equals "1.0".
func (t *TrialRecord) Equal(o *TrialRecord) bool {
	if t.TrialNumber != o.TrialNumber ||
		t.MissingTrialNumber != o.MissingTrialNumber ||
		t.LeftSpout != o.LeftSpout ||
		t.RightSpout != o.RightSpout ||
		t.Reward != o.Reward ||
		t.Punishment != o.Punishment ||
		t.Omission != o.Omission ||
		t.EarlyLick != o.EarlyLick ||
		t.AutomReward != o.AutomReward ||
		t.CatchTrial != o.CatchTrial ||
		t.Lick != o.Lick ||
		t.Stimulus != o.Stimulus ||
		t.Block != o.Block ||
		t.Category != o.Category {
		return false
	}
	if !equalFloat(t.TrialStart, o.TrialStart) ||
		!equalFloat(t.TrialEnd, o.TrialEnd) ||
		!equalFloat(t.LickTime, o.LickTime) ||
		!equalFloat(t.SessionStart, o.SessionStart) {
		return false
	}
	if (t.QW == nil) != (o.QW == nil) || (t.QW != nil && *t.QW != *o.QW) {
		return false
	}
	return maps.EqualFunc(t.Extra, o.Extra, CellsEqual) && maps.EqualFunc(t.Cells, o.Cells, CellsEqual)
}

// CellsEqual compares two cell values. Missing values (blank or NaN) equal
// each other; numbers compare numerically; anything else compares as text.
func CellsEqual(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == b {
		return true
	}
	fa, aMissing, aNum := parseCell(a)
	fb, bMissing, bNum := parseCell(b)
	if aMissing || bMissing {
		return aMissing && bMissing
	}
	return aNum && bNum && fa == fb
}

func parseCell(s string) (v float64, missing, numeric bool) {
	if s == "" {
		return 0, true, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, false
	}
	if math.IsNaN(f) {
		return 0, true, false
	}
	return f, false, true
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func equalFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Float returns a pointer to v, for building optional fields
func Float(v float64) *float64 {
	return &v
}

// Int returns a pointer to v, for building optional fields
func Int(v int) *int {
	return &v
}
