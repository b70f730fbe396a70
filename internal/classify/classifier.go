// Package classify assigns one behavioral outcome category to each trial.
//
// A Classifier evaluates an ordered RuleTable against a trial's flags and
// returns the category of the first matching rule. Protocol variants provide
// their own tables; the evaluation engine is shared.
package classify

import (
	"github.com/harrison/trialscope/internal/models"
)

// Rule pairs a predicate over trial flags with the category it assigns
type Rule struct {
	Category models.Category
	Match    func(t *models.TrialRecord) bool
}

// RuleTable is an ordered list of rules; earlier rules take priority
type RuleTable []Rule

// Classifier assigns categories using a fixed rule table
type Classifier struct {
	rules RuleTable
}

// New creates a Classifier for the given rule table
func New(rules RuleTable) *Classifier {
	return &Classifier{rules: rules}
}

// NewTwoChoice creates a Classifier using the two-choice outcome priority
func NewTwoChoice() *Classifier {
	return New(TwoChoiceRules())
}

// Rules returns a copy of the classifier's rule table
func (c *Classifier) Rules() RuleTable {
	out := make(RuleTable, len(c.rules))
	copy(out, c.rules)
	return out
}

// Classify returns the category of the first rule matching the trial, or
// models.CategoryNone. Any category already present on the trial is ignored.
func (c *Classifier) Classify(t *models.TrialRecord) models.Category {
	for _, rule := range c.rules {
		if rule.Match(t) {
			return rule.Category
		}
	}
	return models.CategoryNone
}

// ClassifyAll returns copies of the trials with Category set.
// The input slice is not modified.
func (c *Classifier) ClassifyAll(trials []models.TrialRecord) []models.TrialRecord {
	out := make([]models.TrialRecord, len(trials))
	for i := range trials {
		classified := trials[i].Clone()
		classified.Category = c.Classify(&trials[i])
		out[i] = classified
	}
	return out
}

// Classified returns only the trials that received a category, preserving order
func Classified(trials []models.TrialRecord) []models.TrialRecord {
	out := make([]models.TrialRecord, 0, len(trials))
	for _, t := range trials {
		if t.Category != models.CategoryNone {
			out = append(out, t)
		}
	}
	return out
}

// CountByCategory tallies classified trials per category
func CountByCategory(trials []models.TrialRecord) map[models.Category]int {
	counts := make(map[models.Category]int)
	for _, t := range trials {
		if t.Category != models.CategoryNone {
			counts[t.Category]++
		}
	}
	return counts
}
