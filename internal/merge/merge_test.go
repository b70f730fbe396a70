package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/trialscope/internal/models"
)

func TestResolveGroup(t *testing.T) {
	tests := []struct {
		name  string
		group []models.TrialRecord
		want  models.TrialRecord
	}{
		{
			name:  "single record",
			group: []models.TrialRecord{{TrialNumber: 3, Omission: true}},
			want:  models.TrialRecord{TrialNumber: 3, Omission: true},
		},
		{
			name: "rewarded record preferred",
			group: []models.TrialRecord{
				{TrialNumber: 3, Punishment: true, LeftSpout: true},
				{TrialNumber: 3, Reward: true, RightSpout: true},
			},
			want: models.TrialRecord{TrialNumber: 3, Reward: true, RightSpout: true},
		},
		{
			name: "first rewarded wins",
			group: []models.TrialRecord{
				{TrialNumber: 3, Reward: true, LeftSpout: true},
				{TrialNumber: 3, Reward: true, RightSpout: true},
			},
			want: models.TrialRecord{TrialNumber: 3, Reward: true, LeftSpout: true},
		},
		{
			name: "no reward keeps first",
			group: []models.TrialRecord{
				{TrialNumber: 3, Omission: true},
				{TrialNumber: 3, Punishment: true, LeftSpout: true},
			},
			want: models.TrialRecord{TrialNumber: 3, Omission: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveGroup(tt.group)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveGroup_Empty(t *testing.T) {
	_, err := ResolveGroup(nil)
	assert.ErrorIs(t, err, ErrEmptyGroup)
}

func TestDropExactDuplicates(t *testing.T) {
	a := models.TrialRecord{TrialNumber: 1, TrialStart: models.Float(2.5), Reward: true}
	b := models.TrialRecord{TrialNumber: 1, TrialStart: models.Float(2.6), Reward: true}

	out := DropExactDuplicates([]models.TrialRecord{a, a.Clone(), b, a})
	require.Len(t, out, 2)
	assert.True(t, out[0].Equal(&a))
	assert.True(t, out[1].Equal(&b))
}

func TestResolveDuplicates(t *testing.T) {
	records := []models.TrialRecord{
		{TrialNumber: 2, Punishment: true, LeftSpout: true},
		{TrialNumber: 1, Omission: true},
		{TrialNumber: 2, Reward: true, RightSpout: true},
		{TrialNumber: 3, Reward: true, LeftSpout: true},
		{TrialNumber: 3, Reward: true, LeftSpout: true},
	}

	out := ResolveDuplicates(records)
	require.Len(t, out, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{out[0].TrialNumber, out[1].TrialNumber, out[2].TrialNumber})
	assert.True(t, out[1].Reward, "rewarded input must yield rewarded output")
	assert.Equal(t, 2, DuplicateCount(records))
	assert.Equal(t, 0, DuplicateCount(out))
}

func TestConcat(t *testing.T) {
	earlier := []models.TrialRecord{{TrialNumber: 1}, {TrialNumber: 2}, {TrialNumber: 3}}
	later := []models.TrialRecord{{TrialNumber: 1, Reward: true}, {TrialNumber: 2}}

	out := Concat(earlier, later)
	require.Len(t, out, 5)
	assert.Equal(t, 4, out[3].TrialNumber)
	assert.True(t, out[3].Reward)
	assert.Equal(t, 5, out[4].TrialNumber)
	assert.Equal(t, 1, later[0].TrialNumber, "later input must not be modified")
}

func TestConcat_EmptyEarlier(t *testing.T) {
	out := Concat(nil, []models.TrialRecord{{TrialNumber: 7}})
	require.Len(t, out, 1)
	assert.Equal(t, 7, out[0].TrialNumber)
}

func TestResolveDuplicates_UnnumberedRowsStaySeparate(t *testing.T) {
	records := []models.TrialRecord{
		{MissingTrialNumber: true, Punishment: true, LeftSpout: true},
		{TrialNumber: 1, Reward: true, LeftSpout: true},
		{MissingTrialNumber: true, Punishment: true, RightSpout: true},
	}

	out := ResolveDuplicates(records)
	require.Len(t, out, 3)
	assert.Equal(t, 1, out[0].TrialNumber)
	assert.True(t, out[1].MissingTrialNumber)
	assert.True(t, out[1].LeftSpout)
	assert.True(t, out[2].MissingTrialNumber)
	assert.True(t, out[2].RightSpout)

	assert.Equal(t, 0, DuplicateCount(records))
	assert.Equal(t, 2, MissingCount(records))
}

func TestConcat_UnnumberedRowsNotShifted(t *testing.T) {
	earlier := []models.TrialRecord{{TrialNumber: 2}, {MissingTrialNumber: true}}
	later := []models.TrialRecord{{TrialNumber: 1}, {MissingTrialNumber: true, Reward: true}}

	assert.Equal(t, 2, MaxTrialNumber(earlier))

	out := Concat(earlier, later)
	require.Len(t, out, 4)
	assert.Equal(t, 3, out[2].TrialNumber)
	assert.True(t, out[3].MissingTrialNumber)
	assert.Equal(t, 0, out[3].TrialNumber)
	assert.True(t, out[3].Reward)
}

func TestResolveGroup_ExtraCellsCompareByValue(t *testing.T) {
	a := models.TrialRecord{TrialNumber: 4, Extra: map[string]string{"volume": "1.0"}}
	b := models.TrialRecord{TrialNumber: 4, Extra: map[string]string{"volume": "1"}}

	assert.Len(t, DropExactDuplicates([]models.TrialRecord{a, b}), 1)
}
