// Package trialcsv reads and writes raw trial tables.
//
// The reader is tolerant: columns may appear in any order, unknown columns
// are carried through in TrialRecord.Extra, and optional columns that are
// absent default to false or nil. Only the columns a protocol requires are
// enforced.
package trialcsv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/harrison/trialscope/internal/models"
)

// Column names understood by the reader
const (
	ColTrialNumber  = "trial_number"
	ColTrialStart   = "trial_start"
	ColTrialEnd     = "trial_end"
	ColLickTime     = "lick_time"
	ColSessionStart = "session_start"
	ColLeftSpout    = "left_spout"
	ColRightSpout   = "right_spout"
	ColReward       = "reward"
	ColPunishment   = "punishment"
	ColOmission     = "omission"
	ColEarlyLick    = "early_lick"
	ColAutomReward  = "autom_reward"
	ColCatchTrial   = "catch_trial"
	ColLick         = "lick"
	ColBlock        = "block"
	ColQW           = "QW"
)

// DefaultStimulusColumns are the tone columns recognized when none are configured
var DefaultStimulusColumns = []string{"5KHz", "10KHz", "8KHz", "16KHz"}

// Options controls how a table is read
type Options struct {
	// Required lists columns that must be present in the header
	Required []string
	// StimulusColumns lists tone columns; the first one set on a row becomes Stimulus
	StimulusColumns []string
}

// Table is a parsed trial log
type Table struct {
	Header  []string
	Records []models.TrialRecord

	stimulus []string
}

// Has reports whether the header contains the column
func (t *Table) Has(column string) bool {
	for _, h := range t.Header {
		if h == column {
			return true
		}
	}
	return false
}

// StimulusColumns returns the tone columns present in the header, in header order
func (t *Table) StimulusColumns() []string {
	var out []string
	for _, h := range t.Header {
		if containsString(t.stimulus, h) {
			out = append(out, h)
		}
	}
	return out
}

// WithRecords returns a table with the same header and the given records
func (t *Table) WithRecords(records []models.TrialRecord) *Table {
	return &Table{Header: t.Header, Records: records, stimulus: t.stimulus}
}

// Append returns a table whose header is t's header followed by any columns
// only other has, holding the given records
func (t *Table) Append(other *Table, records []models.TrialRecord) *Table {
	header := append([]string(nil), t.Header...)
	for _, h := range other.Header {
		if !containsString(header, h) {
			header = append(header, h)
		}
	}
	return &Table{Header: header, Records: records, stimulus: t.stimulus}
}

// ReadFile reads a trial table from disk
func ReadFile(path string, opts Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trial table: %w", err)
	}
	defer f.Close()

	table, err := Read(f, opts)
	if err != nil {
		var missing *MissingColumnsError
		if errors.As(err, &missing) {
			missing.Path = path
			return nil, missing
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

// Read parses a trial table from r
func Read(r io.Reader, opts Options) (*Table, error) {
	stimulus := opts.StimulusColumns
	if len(stimulus) == 0 {
		stimulus = DefaultStimulusColumns
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("trial table is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var missing []string
	for _, col := range opts.Required {
		if !containsString(header, col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Missing: missing}
	}

	table := &Table{Header: header, stimulus: stimulus}
	for row := 1; ; row++ {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", row, err)
		}
		if isBlank(fields) {
			continue
		}
		rec, err := parseRecord(header, fields, row, stimulus)
		if err != nil {
			return nil, err
		}
		table.Records = append(table.Records, rec)
	}
	return table, nil
}

func parseRecord(header, fields []string, row int, stimulus []string) (models.TrialRecord, error) {
	rec := models.TrialRecord{Cells: make(map[string]string, len(header))}
	for i, col := range header {
		value := ""
		if i < len(fields) {
			rec.Cells[col] = fields[i]
			value = strings.TrimSpace(fields[i])
		}
		if err := setField(&rec, col, value, stimulus); err != nil {
			return rec, &ParseError{Row: row, Column: col, Value: value, Err: err}
		}
	}
	return rec, nil
}

func setField(rec *models.TrialRecord, col, value string, stimulus []string) error {
	var err error
	switch col {
	case ColTrialNumber:
		var n *int
		n, err = parseInt(value)
		if n != nil {
			rec.TrialNumber = *n
		} else if err == nil {
			rec.MissingTrialNumber = true
		}
	case ColTrialStart:
		rec.TrialStart, err = parseFloat(value)
	case ColTrialEnd:
		rec.TrialEnd, err = parseFloat(value)
	case ColLickTime:
		rec.LickTime, err = parseFloat(value)
	case ColSessionStart:
		rec.SessionStart, err = parseFloat(value)
	case ColLeftSpout:
		rec.LeftSpout, err = parseFlag(value)
	case ColRightSpout:
		rec.RightSpout, err = parseFlag(value)
	case ColReward:
		rec.Reward, err = parseFlag(value)
	case ColPunishment:
		rec.Punishment, err = parseFlag(value)
	case ColOmission:
		rec.Omission, err = parseFlag(value)
	case ColEarlyLick:
		rec.EarlyLick, err = parseFlag(value)
	case ColAutomReward:
		rec.AutomReward, err = parseFlag(value)
	case ColCatchTrial:
		rec.CatchTrial, err = parseFlag(value)
	case ColLick:
		rec.Lick, err = parseFlag(value)
	case ColBlock:
		rec.Block = models.BlockType(value)
	case ColQW:
		rec.QW, err = parseInt(value)
	default:
		if containsString(stimulus, col) {
			var set bool
			set, err = parseFlag(value)
			if set && rec.Stimulus == "" {
				rec.Stimulus = col
			}
			return err
		}
		if rec.Extra == nil {
			rec.Extra = make(map[string]string)
		}
		rec.Extra[col] = value
	}
	return err
}

// isMissing reports whether a cell holds no value
func isMissing(value string) bool {
	switch strings.ToLower(value) {
	case "", "nan", "na", "null", "none":
		return true
	}
	return false
}

// parseFlag accepts 0/1 in integer or float form as well as true/false
func parseFlag(value string) (bool, error) {
	if isMissing(value) {
		return false, nil
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return b, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return false, err
	}
	return f != 0, nil
}

func parseFloat(value string) (*float64, error) {
	if isMissing(value) {
		return nil, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(f) {
		return nil, nil
	}
	return &f, nil
}

// parseInt accepts integers written as floats, such as "12.0"
func parseInt(value string) (*int, error) {
	f, err := parseFloat(value)
	if err != nil || f == nil {
		return nil, err
	}
	if *f != math.Trunc(*f) {
		return nil, fmt.Errorf("not an integer")
	}
	n := int(*f)
	return &n, nil
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
