package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/trialscope/internal/models"
)

func TestTwoChoice_Classify(t *testing.T) {
	tests := []struct {
		name  string
		trial models.TrialRecord
		want  models.Category
	}{
		{
			name:  "correct left",
			trial: models.TrialRecord{LeftSpout: true, Reward: true},
			want:  models.CategoryCorrectLeft,
		},
		{
			name:  "correct right",
			trial: models.TrialRecord{RightSpout: true, Reward: true},
			want:  models.CategoryCorrectRight,
		},
		{
			name:  "incorrect left",
			trial: models.TrialRecord{LeftSpout: true, Punishment: true},
			want:  models.CategoryIncorrectLeft,
		},
		{
			name:  "incorrect right",
			trial: models.TrialRecord{RightSpout: true, Punishment: true},
			want:  models.CategoryIncorrectRight,
		},
		{
			name:  "early lick wins over reward",
			trial: models.TrialRecord{EarlyLick: true, RightSpout: true, Reward: true},
			want:  models.CategoryEarlyLick,
		},
		{
			name:  "omission wins over reward",
			trial: models.TrialRecord{Omission: true, LeftSpout: true, Reward: true},
			want:  models.CategoryOmission,
		},
		{
			name:  "early lick wins over omission",
			trial: models.TrialRecord{EarlyLick: true, Omission: true},
			want:  models.CategoryEarlyLick,
		},
		{
			name:  "both spouts rewarded counts as left",
			trial: models.TrialRecord{LeftSpout: true, RightSpout: true, Reward: true},
			want:  models.CategoryCorrectLeft,
		},
		{
			name:  "reward without spout is unclassified",
			trial: models.TrialRecord{Reward: true},
			want:  models.CategoryNone,
		},
		{
			name:  "no flags",
			trial: models.TrialRecord{},
			want:  models.CategoryNone,
		},
	}

	c := NewTwoChoice()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(&tt.trial))
		})
	}
}

func TestClassify_AtMostOneMatchingCategory(t *testing.T) {
	c := NewTwoChoice()
	flags := []func(*models.TrialRecord){
		func(r *models.TrialRecord) { r.EarlyLick = true },
		func(r *models.TrialRecord) { r.Omission = true },
		func(r *models.TrialRecord) { r.LeftSpout = true },
		func(r *models.TrialRecord) { r.RightSpout = true },
		func(r *models.TrialRecord) { r.Reward = true },
		func(r *models.TrialRecord) { r.Punishment = true },
	}

	// Every combination of the six flags yields exactly one category or none.
	for mask := 0; mask < 1<<len(flags); mask++ {
		var trial models.TrialRecord
		for i, set := range flags {
			if mask&(1<<i) != 0 {
				set(&trial)
			}
		}
		got := c.Classify(&trial)
		require.True(t, got.IsValid(), "mask %b", mask)

		var first models.Category
		for _, rule := range c.Rules() {
			if rule.Match(&trial) {
				first = rule.Category
				break
			}
		}
		assert.Equal(t, first, got, "mask %b", mask)
	}
}

func TestClassify_ReorderingChangesOutcome(t *testing.T) {
	overlapping := models.TrialRecord{Omission: true, LeftSpout: true, Reward: true}

	rules := TwoChoiceRules()
	reordered := RuleTable{rules[2], rules[0], rules[1], rules[3], rules[4], rules[5]}

	assert.Equal(t, models.CategoryOmission, New(rules).Classify(&overlapping))
	assert.Equal(t, models.CategoryCorrectLeft, New(reordered).Classify(&overlapping))
}

func TestClassify_IgnoresExistingCategory(t *testing.T) {
	c := NewTwoChoice()
	trial := models.TrialRecord{RightSpout: true, Punishment: true, Category: models.CategoryCorrectLeft}
	assert.Equal(t, models.CategoryIncorrectRight, c.Classify(&trial))
}

func TestClassifyAll_Idempotent(t *testing.T) {
	c := NewTwoChoice()
	trials := []models.TrialRecord{
		{TrialNumber: 1, LeftSpout: true, Reward: true},
		{TrialNumber: 2, Omission: true},
		{TrialNumber: 3, RightSpout: true, Punishment: true},
		{TrialNumber: 4},
	}

	once := c.ClassifyAll(trials)
	twice := c.ClassifyAll(once)
	assert.Equal(t, once, twice)

	for _, tr := range trials {
		assert.Equal(t, models.CategoryNone, tr.Category, "input must not be mutated")
	}
	assert.Equal(t, models.CategoryCorrectLeft, once[0].Category)
	assert.Equal(t, models.CategoryOmission, once[1].Category)
	assert.Equal(t, models.CategoryIncorrectRight, once[2].Category)
	assert.Equal(t, models.CategoryNone, once[3].Category)
}

func TestSpoutSamplingRules(t *testing.T) {
	c := New(SpoutSamplingRules())

	assert.Equal(t, models.CategorySampledLeft, c.Classify(&models.TrialRecord{LeftSpout: true}))
	assert.Equal(t, models.CategorySampledRight, c.Classify(&models.TrialRecord{RightSpout: true}))
	assert.Equal(t, models.CategorySampledRight, c.Classify(&models.TrialRecord{LeftSpout: true, RightSpout: true}))
	assert.Equal(t, models.CategoryNone, c.Classify(&models.TrialRecord{LeftSpout: true, Omission: true}))
}

func TestFreeLickRules(t *testing.T) {
	c := New(FreeLickRules())

	assert.Equal(t, models.CategoryLickLeft, c.Classify(&models.TrialRecord{Lick: true, LeftSpout: true}))
	assert.Equal(t, models.CategoryLickRight, c.Classify(&models.TrialRecord{Lick: true, RightSpout: true}))
	assert.Equal(t, models.CategoryNone, c.Classify(&models.TrialRecord{LeftSpout: true}))
}

func TestCountByCategory(t *testing.T) {
	trials := NewTwoChoice().ClassifyAll([]models.TrialRecord{
		{LeftSpout: true, Reward: true},
		{LeftSpout: true, Reward: true},
		{Omission: true},
		{},
	})

	counts := CountByCategory(trials)
	assert.Equal(t, 2, counts[models.CategoryCorrectLeft])
	assert.Equal(t, 1, counts[models.CategoryOmission])
	assert.NotContains(t, counts, models.CategoryNone)
	assert.Len(t, Classified(trials), 3)
}
