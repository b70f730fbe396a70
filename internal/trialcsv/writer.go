package trialcsv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/harrison/trialscope/internal/models"
)

// Write serializes records using the given header order.
// Columns not modelled by TrialRecord are taken from Extra.
func Write(w io.Writer, header []string, records []models.TrialRecord) error {
	return write(w, header, records, DefaultStimulusColumns)
}

// WriteTable serializes a table with its original header
func WriteTable(w io.Writer, t *Table) error {
	return write(w, t.Header, t.Records, t.stimulus)
}

func write(w io.Writer, header []string, records []models.TrialRecord, stimulus []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	row := make([]string, len(header))
	for i := range records {
		for j, col := range header {
			row[j] = formatField(&records[i], col, stimulus)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// formatField writes the cell a record was read with, unless the trial number
// changed since. Columns the record was never read with are left empty.
// Records built in code fall back to their modelled fields.
func formatField(rec *models.TrialRecord, col string, stimulus []string) string {
	if rec.Cells != nil {
		raw, ok := rec.Cells[col]
		if col == ColTrialNumber && !rec.MissingTrialNumber {
			if !ok || !models.CellsEqual(raw, strconv.Itoa(rec.TrialNumber)) {
				return strconv.Itoa(rec.TrialNumber)
			}
		}
		return raw
	}
	switch col {
	case ColTrialNumber:
		if rec.MissingTrialNumber {
			return ""
		}
		return strconv.Itoa(rec.TrialNumber)
	case ColTrialStart:
		return formatFloat(rec.TrialStart)
	case ColTrialEnd:
		return formatFloat(rec.TrialEnd)
	case ColLickTime:
		return formatFloat(rec.LickTime)
	case ColSessionStart:
		return formatFloat(rec.SessionStart)
	case ColLeftSpout:
		return formatFlag(rec.LeftSpout)
	case ColRightSpout:
		return formatFlag(rec.RightSpout)
	case ColReward:
		return formatFlag(rec.Reward)
	case ColPunishment:
		return formatFlag(rec.Punishment)
	case ColOmission:
		return formatFlag(rec.Omission)
	case ColEarlyLick:
		return formatFlag(rec.EarlyLick)
	case ColAutomReward:
		return formatFlag(rec.AutomReward)
	case ColCatchTrial:
		return formatFlag(rec.CatchTrial)
	case ColLick:
		return formatFlag(rec.Lick)
	case ColBlock:
		return string(rec.Block)
	case ColQW:
		if rec.QW == nil {
			return ""
		}
		return strconv.Itoa(*rec.QW)
	}
	if v, ok := rec.Extra[col]; ok {
		return v
	}
	if rec.Stimulus == col {
		return "1"
	}
	if containsString(stimulus, col) {
		return "0"
	}
	return ""
}

func formatFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
