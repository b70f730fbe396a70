package behavioral

import (
	"strconv"
	"strings"

	"github.com/harrison/trialscope/internal/models"
)

// Table is a column-oriented rendering of a cross-day summary.
// Absent values are empty cells.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Column returns the cells of the named column
func (t *Table) Column(name string) ([]string, bool) {
	idx := indexOf(t.Columns, name)
	if idx < 0 {
		return nil, false
	}
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out, true
}

type column struct {
	name  string
	value func(e *CrossDayEntry) string
}

var leadingColumns = []column{
	{"day_index", func(e *CrossDayEntry) string { return strconv.Itoa(e.DayIndex) }},
	{"day", func(e *CrossDayEntry) string { return e.DayLabel() }},
	{"date", func(e *CrossDayEntry) string { return e.Date.Format("2006-01-02") }},
	{"box", func(e *CrossDayEntry) string { return e.Box }},
	{"animal", func(e *CrossDayEntry) string { return e.Animal }},
	{"protocol", func(e *CrossDayEntry) string { return e.Protocol }},
	{"source_file", func(e *CrossDayEntry) string { return e.SourceFile }},
	{"total_trials", func(e *CrossDayEntry) string { return strconv.Itoa(e.TotalTrials) }},
	{"classified", func(e *CrossDayEntry) string { return strconv.Itoa(e.Classified) }},
	{"correct_left", func(e *CrossDayEntry) string { return strconv.Itoa(e.CorrectLeft) }},
	{"correct_right", func(e *CrossDayEntry) string { return strconv.Itoa(e.CorrectRight) }},
	{"incorrect_left", func(e *CrossDayEntry) string { return strconv.Itoa(e.IncorrectLeft) }},
	{"incorrect_right", func(e *CrossDayEntry) string { return strconv.Itoa(e.IncorrectRight) }},
	{"early_licks", func(e *CrossDayEntry) string { return strconv.Itoa(e.EarlyLicks) }},
	{"omissions", func(e *CrossDayEntry) string { return strconv.Itoa(e.Omissions) }},
}

var trailingColumns = []column{
	{"hit_rate", func(e *CrossDayEntry) string { return formatFloat(e.HitRate) }},
	{"false_alarm", func(e *CrossDayEntry) string { return formatFloat(e.FalseAlarmRate) }},
	{"d_prime", func(e *CrossDayEntry) string { return formatFloat(e.DPrime) }},
	{"latency_left_n", func(e *CrossDayEntry) string { return strconv.Itoa(e.LatencyLeft.N) }},
	{"latency_left", func(e *CrossDayEntry) string { return formatOptional(e.LatencyLeft.Mean) }},
	{"latency_left_std", func(e *CrossDayEntry) string { return formatOptional(e.LatencyLeft.StdDev) }},
	{"latency_left_sem", func(e *CrossDayEntry) string { return formatOptional(e.LatencyLeft.SEM) }},
	{"latency_right_n", func(e *CrossDayEntry) string { return strconv.Itoa(e.LatencyRight.N) }},
	{"latency_right", func(e *CrossDayEntry) string { return formatOptional(e.LatencyRight.Mean) }},
	{"latency_right_std", func(e *CrossDayEntry) string { return formatOptional(e.LatencyRight.StdDev) }},
	{"latency_right_sem", func(e *CrossDayEntry) string { return formatOptional(e.LatencyRight.SEM) }},
	{"qw", func(e *CrossDayEntry) string {
		if e.QW == nil {
			return ""
		}
		return strconv.Itoa(*e.QW)
	}},
	{"autom_reward", func(e *CrossDayEntry) string { return strconv.FormatBool(e.AutomRewardDominant) }},
	{"performance", func(e *CrossDayEntry) string { return formatOptional(e.Performance) }},
	{"percent_correct", func(e *CrossDayEntry) string { return formatOptional(e.PercentCorrect) }},
	{"percent_incorrect", func(e *CrossDayEntry) string { return formatOptional(e.PercentIncorrect) }},
	{"percent_correct_left", func(e *CrossDayEntry) string { return formatOptional(e.PercentCorrectLeft) }},
	{"percent_correct_right", func(e *CrossDayEntry) string { return formatOptional(e.PercentCorrectRight) }},
	{"blocks_sound", blockCount(models.BlockSound)},
	{"blocks_action_left", blockCount(models.BlockActionLeft)},
	{"blocks_action_right", blockCount(models.BlockActionRight)},
	{"licks_total", lickCount(func(l *models.LickCounts) int { return l.Total })},
	{"licks_left", lickCount(func(l *models.LickCounts) int { return l.Left })},
	{"licks_right", lickCount(func(l *models.LickCounts) int { return l.Right })},
}

// Table renders the summary with one row per session in day order.
// Per-tone columns appear for every tone seen in any session, ordered by
// stimulusOrder when given.
func (s *CrossDaySummary) Table(stimulusOrder ...string) *Table {
	cols := make([]column, 0, len(leadingColumns)+len(trailingColumns))
	cols = append(cols, leadingColumns...)
	for _, tone := range s.Stimuli(stimulusOrder) {
		cols = append(cols, stimulusColumns(tone)...)
	}
	cols = append(cols, trailingColumns...)

	t := &Table{Columns: make([]string, len(cols))}
	for i, c := range cols {
		t.Columns[i] = c.name
	}
	for i := range s.Entries {
		row := make([]string, len(cols))
		for j, c := range cols {
			row[j] = c.value(&s.Entries[i])
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func stimulusColumns(tone string) []column {
	key := strings.ToLower(tone)
	get := func(e *CrossDayEntry) (models.StimulusCounts, bool) {
		c, ok := e.Stimuli[tone]
		return c, ok
	}
	intCell := func(f func(models.StimulusCounts) int) func(e *CrossDayEntry) string {
		return func(e *CrossDayEntry) string {
			c, ok := get(e)
			if !ok {
				return ""
			}
			return strconv.Itoa(f(c))
		}
	}
	return []column{
		{"trials_" + key, intCell(func(c models.StimulusCounts) int { return c.Trials })},
		{"omission_" + key, intCell(func(c models.StimulusCounts) int { return c.Omissions })},
		{"correct_" + key, intCell(func(c models.StimulusCounts) int { return c.Correct })},
		{"incorrect_" + key, intCell(func(c models.StimulusCounts) int { return c.Incorrect })},
		{"performance_" + key, func(e *CrossDayEntry) string {
			c, ok := get(e)
			if !ok {
				return ""
			}
			return formatOptional(c.Performance)
		}},
	}
}

func blockCount(bt models.BlockType) func(e *CrossDayEntry) string {
	return func(e *CrossDayEntry) string {
		if e.BlockCounts == nil {
			return ""
		}
		return strconv.Itoa(e.BlockCounts[bt])
	}
}

func lickCount(f func(*models.LickCounts) int) func(e *CrossDayEntry) string {
	return func(e *CrossDayEntry) string {
		if e.Licks == nil {
			return ""
		}
		return strconv.Itoa(f(e.Licks))
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
