package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbaille/fitlog/internal/domain"
)

func ptr(v float64) *float64 { return &v }

func TestCombineAddsCounters(t *testing.T) {
	manual := map[string]domain.DailyTracking{
		"2024-05-01": {Date: "2024-05-01", Water: 1000, Protein: 40, Calories: 800, Pushups: &domain.PushupTally{Total: 30, Sets: []int{15, 15}}, Completed: true},
	}
	contrib := map[string]domain.Contribution{
		"2024-05-01": {Water: 500, Protein: 25, Calories: 450, Carbs: 60, Fat: 10, Pushups: 20},
	}

	got := Combine(manual, contrib)["2024-05-01"]

	assert.Equal(t, 1500, got.Water)
	assert.Equal(t, 65.0, got.Protein)
	assert.Equal(t, 1250.0, got.Calories)
	assert.Equal(t, 60.0, got.Carbs)
	assert.Equal(t, 10.0, got.Fat)
	assert.Equal(t, &domain.PushupTally{Total: 50, Sets: []int{15, 15}}, got.Pushups)
	assert.True(t, got.Completed)
}

func TestCombineContributedSportsOverrideManual(t *testing.T) {
	manual := map[string]domain.DailyTracking{
		"2024-05-01": {Sports: map[domain.SportKey]domain.SportEntry{
			domain.SportKeyCardio: {Active: true, Duration: 20, Intensity: 5},
			domain.SportKeyGym:    {Active: true, Duration: 60},
			domain.SportKeyHIIT:   {Active: true, Duration: 30},
		}},
	}
	contrib := map[string]domain.Contribution{
		"2024-05-01": {Sports: map[domain.SportKey]domain.SportEntry{
			domain.SportKeyCardio: {Active: true, Duration: 45},
			domain.SportKeyGym:    {Active: true, Intensity: 8},
			domain.SportKeyHIIT:   {Active: false, Duration: 99},
		}},
	}

	got := Combine(manual, contrib)["2024-05-01"].Sports

	assert.Equal(t, domain.SportEntry{Active: true, Duration: 45, Intensity: 5}, got[domain.SportKeyCardio])
	assert.Equal(t, domain.SportEntry{Active: true, Duration: 60, Intensity: 8}, got[domain.SportKeyGym])
	assert.Equal(t, domain.SportEntry{Active: true, Duration: 30}, got[domain.SportKeyHIIT])
	assert.Equal(t, domain.SportEntry{}, got[domain.SportKeySwimming])
	assert.Len(t, got, len(SportKeys))
}

func TestCombineWeightPrefersManual(t *testing.T) {
	manual := map[string]domain.DailyTracking{
		"2024-05-01": {Weight: &domain.WeightEntry{Value: ptr(80), BMI: ptr(24.1)}},
		"2024-05-02": {},
	}
	contrib := map[string]domain.Contribution{
		"2024-05-01": {Weight: &domain.WeightEntry{Value: ptr(81), BodyFat: ptr(18)}},
		"2024-05-02": {Weight: &domain.WeightEntry{Value: ptr(80.5)}},
	}

	got := Combine(manual, contrib)

	assert.Equal(t, &domain.WeightEntry{Value: ptr(80), BodyFat: ptr(18), BMI: ptr(24.1)}, got["2024-05-01"].Weight)
	assert.Equal(t, &domain.WeightEntry{Value: ptr(80.5)}, got["2024-05-02"].Weight)
}

func TestCombineSynthesizesMissingSide(t *testing.T) {
	manual := map[string]domain.DailyTracking{"2024-05-01": {Water: 250}}
	contrib := map[string]domain.Contribution{"2024-05-02": {Pushups: 10}}

	got := Combine(manual, contrib)

	require.Len(t, got, 2)
	first := got["2024-05-01"]
	assert.Equal(t, "2024-05-01", first.Date)
	assert.Equal(t, 250, first.Water)
	assert.Nil(t, first.Pushups)
	assert.Nil(t, first.Weight)
	assert.Len(t, first.Sports, len(SportKeys))

	second := got["2024-05-02"]
	assert.Equal(t, "2024-05-02", second.Date)
	assert.Equal(t, &domain.PushupTally{Total: 10}, second.Pushups)
	assert.False(t, second.Completed)
}

func TestCombineEmpty(t *testing.T) {
	assert.Empty(t, Combine(nil, nil))
}

func TestRangeAndDay(t *testing.T) {
	days := map[string]domain.DailyTracking{
		"2024-05-03": {Date: "2024-05-03", Water: 3},
		"2024-05-01": {Date: "2024-05-01", Water: 1},
		"2024-05-02": {Date: "2024-05-02", Water: 2},
	}

	dates := func(recs []domain.DailyTracking) []string {
		var out []string
		for _, r := range recs {
			out = append(out, r.Date)
		}
		return out
	}
	assert.Equal(t, []string{"2024-05-01", "2024-05-02", "2024-05-03"}, dates(Range(days, "", "")))
	assert.Equal(t, []string{"2024-05-02", "2024-05-03"}, dates(Range(days, "2024-05-02", "")))
	assert.Equal(t, []string{"2024-05-02"}, dates(Range(days, "2024-05-02", "2024-05-02")))
	assert.Empty(t, Range(days, "2024-06-01", ""))

	assert.Equal(t, 2, Day(days, "2024-05-02").Water)
	empty := Day(days, "2024-07-01")
	assert.Equal(t, "2024-07-01", empty.Date)
	require.Len(t, empty.Sports, len(SportKeys))
	assert.Nil(t, empty.Pushups)
	assert.Nil(t, empty.Weight)
}
