// Package merge reconciles raw trial logs: duplicate trial rows within one
// log, and two logs recorded for the same animal on the same day.
package merge

import (
	"errors"
	"sort"

	"github.com/harrison/trialscope/internal/models"
)

// ErrEmptyGroup is returned when ResolveGroup receives no records
var ErrEmptyGroup = errors.New("cannot resolve an empty duplicate group")

// ResolveGroup selects the single surviving record for one trial number.
// Rewarded records take precedence; exact duplicates collapse to their first
// occurrence; the first remaining record in input order is returned.
func ResolveGroup(group []models.TrialRecord) (models.TrialRecord, error) {
	if len(group) == 0 {
		return models.TrialRecord{}, ErrEmptyGroup
	}

	candidates := group
	var rewarded []models.TrialRecord
	for i := range group {
		if group[i].Reward {
			rewarded = append(rewarded, group[i])
		}
	}
	if len(rewarded) > 0 {
		candidates = rewarded
	}

	unique := DropExactDuplicates(candidates)
	return unique[0].Clone(), nil
}

// DropExactDuplicates removes records equal in every column to an earlier record
func DropExactDuplicates(records []models.TrialRecord) []models.TrialRecord {
	out := make([]models.TrialRecord, 0, len(records))
	for i := range records {
		dup := false
		for j := range out {
			if out[j].Equal(&records[i]) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, records[i])
		}
	}
	return out
}

// ResolveDuplicates collapses the records to one per trial number.
// Output is ordered by ascending trial number. Records without a trial number
// are never grouped; they follow the numbered records in input order.
func ResolveDuplicates(records []models.TrialRecord) []models.TrialRecord {
	groups := make(map[int][]models.TrialRecord)
	var numbers []int
	var unnumbered []models.TrialRecord
	for i := range records {
		if records[i].MissingTrialNumber {
			unnumbered = append(unnumbered, records[i].Clone())
			continue
		}
		n := records[i].TrialNumber
		if _, seen := groups[n]; !seen {
			numbers = append(numbers, n)
		}
		groups[n] = append(groups[n], records[i])
	}
	sort.Ints(numbers)

	out := make([]models.TrialRecord, 0, len(numbers)+len(unnumbered))
	for _, n := range numbers {
		// groups are never empty here
		r, _ := ResolveGroup(groups[n])
		out = append(out, r)
	}
	return append(out, unnumbered...)
}

// MissingCount returns how many records have no trial number
func MissingCount(records []models.TrialRecord) int {
	n := 0
	for i := range records {
		if records[i].MissingTrialNumber {
			n++
		}
	}
	return n
}

// DuplicateCount returns how many records share a trial number with an earlier record
func DuplicateCount(records []models.TrialRecord) int {
	seen := make(map[int]bool, len(records))
	dups := 0
	for i := range records {
		if records[i].MissingTrialNumber {
			continue
		}
		if seen[records[i].TrialNumber] {
			dups++
		}
		seen[records[i].TrialNumber] = true
	}
	return dups
}

// Concat appends the later log to the earlier one, shifting the later trial
// numbers by the earlier log's maximum trial number. Records without a trial
// number are carried unchanged. Inputs are not modified.
func Concat(earlier, later []models.TrialRecord) []models.TrialRecord {
	offset := MaxTrialNumber(earlier)
	out := make([]models.TrialRecord, 0, len(earlier)+len(later))
	for i := range earlier {
		out = append(out, earlier[i].Clone())
	}
	for i := range later {
		r := later[i].Clone()
		if !r.MissingTrialNumber {
			r.TrialNumber += offset
		}
		out = append(out, r)
	}
	return out
}

// MaxTrialNumber returns the largest trial number, or 0 for no records
func MaxTrialNumber(records []models.TrialRecord) int {
	highest := 0
	for i := range records {
		if !records[i].MissingTrialNumber && records[i].TrialNumber > highest {
			highest = records[i].TrialNumber
		}
	}
	return highest
}
