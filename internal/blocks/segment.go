// Package blocks partitions a trial stream into contiguous same-condition runs.
package blocks

import (
	"sort"

	"github.com/harrison/trialscope/internal/models"
)

// LabelRun is a maximal run of consecutive records sharing one label
type LabelRun struct {
	Label string `json:"label"`
	Start int    `json:"start"` // index into the input slice
	End   int    `json:"end"`   // inclusive
}

// Len returns the number of records in the run
func (r LabelRun) Len() int {
	return r.End - r.Start + 1
}

// Segment returns the contiguous runs of the given block type.
// Records are filtered to that block and sorted by trial number, skipping rows
// without one. A trial-number gap greater than one starts a new run.
// InstanceIndex counts runs from zero.
func Segment(records []models.TrialRecord, blockType models.BlockType) []models.BlockRun {
	var numbers []int
	for i := range records {
		if records[i].Block == blockType && !records[i].MissingTrialNumber {
			numbers = append(numbers, records[i].TrialNumber)
		}
	}
	if len(numbers) == 0 {
		return nil
	}
	sort.Ints(numbers)

	var runs []models.BlockRun
	current := models.BlockRun{BlockType: blockType, StartTrial: numbers[0], EndTrial: numbers[0], Trials: []int{numbers[0]}}
	for _, n := range numbers[1:] {
		if n-current.EndTrial > 1 {
			runs = append(runs, current)
			current = models.BlockRun{
				BlockType:     blockType,
				StartTrial:    n,
				EndTrial:      n,
				InstanceIndex: len(runs),
				Trials:        []int{n},
			}
			continue
		}
		current.EndTrial = n
		current.Trials = append(current.Trials, n)
	}
	return append(runs, current)
}

// SegmentAll segments every known block type, keyed by type
func SegmentAll(records []models.TrialRecord) map[models.BlockType][]models.BlockRun {
	out := make(map[models.BlockType][]models.BlockRun)
	for _, bt := range models.BlockTypes {
		if runs := Segment(records, bt); len(runs) > 0 {
			out[bt] = runs
		}
	}
	return out
}

// LabelRuns splits records into maximal runs of equal label, in stream order.
// A new run starts whenever a record's label differs from the previous one.
func LabelRuns(records []models.TrialRecord, label func(*models.TrialRecord) string) []LabelRun {
	var runs []LabelRun
	for i := range records {
		l := label(&records[i])
		if len(runs) > 0 && runs[len(runs)-1].Label == l {
			runs[len(runs)-1].End = i
			continue
		}
		runs = append(runs, LabelRun{Label: l, Start: i, End: i})
	}
	return runs
}

// ByBlock labels a record with its block type
func ByBlock(r *models.TrialRecord) string {
	return string(r.Block)
}

// CountInstances counts how many times each block type starts a run in stream order.
// Records with no block are not counted.
func CountInstances(records []models.TrialRecord) map[models.BlockType]int {
	counts := make(map[models.BlockType]int)
	for _, run := range LabelRuns(records, ByBlock) {
		if bt := models.BlockType(run.Label); bt != models.BlockNone {
			counts[bt]++
		}
	}
	return counts
}
