package classify

import (
	"github.com/harrison/trialscope/internal/models"
)

// TwoChoiceRules returns the outcome priority used by the two-choice and
// block-structured protocols. An early lick outranks every other flag, and
// omission outranks reward and punishment.
func TwoChoiceRules() RuleTable {
	return RuleTable{
		{Category: models.CategoryEarlyLick, Match: func(t *models.TrialRecord) bool {
			return t.EarlyLick
		}},
		{Category: models.CategoryOmission, Match: func(t *models.TrialRecord) bool {
			return t.Omission
		}},
		{Category: models.CategoryCorrectLeft, Match: func(t *models.TrialRecord) bool {
			return t.LeftSpout && t.Reward
		}},
		{Category: models.CategoryCorrectRight, Match: func(t *models.TrialRecord) bool {
			return t.RightSpout && t.Reward
		}},
		{Category: models.CategoryIncorrectLeft, Match: func(t *models.TrialRecord) bool {
			return t.Punishment && t.LeftSpout
		}},
		{Category: models.CategoryIncorrectRight, Match: func(t *models.TrialRecord) bool {
			return t.Punishment && t.RightSpout
		}},
	}
}

// SpoutSamplingRules classifies which spout was sampled on non-omitted trials.
// Right is checked first: a trial flagged on both spouts counts as right.
func SpoutSamplingRules() RuleTable {
	return RuleTable{
		{Category: models.CategorySampledRight, Match: func(t *models.TrialRecord) bool {
			return t.RightSpout && !t.Omission
		}},
		{Category: models.CategorySampledLeft, Match: func(t *models.TrialRecord) bool {
			return t.LeftSpout && !t.Omission
		}},
	}
}

// FreeLickRules classifies lick events by spout
func FreeLickRules() RuleTable {
	return RuleTable{
		{Category: models.CategoryLickLeft, Match: func(t *models.TrialRecord) bool {
			return t.Lick && t.LeftSpout
		}},
		{Category: models.CategoryLickRight, Match: func(t *models.TrialRecord) bool {
			return t.Lick && t.RightSpout
		}},
	}
}
