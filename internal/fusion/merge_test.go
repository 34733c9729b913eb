package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbaille/fitlog/internal/domain"
)

func water(id string, ml int, conf float64, src domain.Source) domain.Drink {
	return domain.Drink{
		Meta:     domain.Meta{ID: id, Confidence: conf, Source: src},
		VolumeMl: ml,
		Beverage: domain.BeverageWater,
	}
}

func TestMergeSimilarDrinkPrefersConfidentModel(t *testing.T) {
	local := []domain.Event{water("h1", 500, 0.6, domain.SourceHeuristic)}
	enriched := []domain.Event{water("m1", 480, 0.9, domain.SourceModel)}

	out := Merge(local, enriched)

	require.Len(t, out, 1)
	d := out[0].(domain.Drink)
	assert.Equal(t, 480, d.VolumeMl)
	assert.Equal(t, 0.9, d.Confidence)
	assert.Equal(t, "m1", d.ID)
}

func TestMergeKeepsMoreConfidentLocal(t *testing.T) {
	local := []domain.Event{water("h1", 500, 0.9, domain.SourceHeuristic)}
	enriched := []domain.Event{water("m1", 520, 0.7, domain.SourceModel)}

	out := Merge(local, enriched)

	require.Len(t, out, 1)
	assert.Equal(t, local[0], out[0])
}

func TestMergeTieFavorsEnriched(t *testing.T) {
	local := []domain.Event{domain.Pushups{Meta: domain.Meta{ID: "h", Confidence: 0.6}, Count: 20}}
	enriched := []domain.Event{domain.Pushups{Meta: domain.Meta{ID: "m", Confidence: 0.6}, Count: 21}}

	out := Merge(local, enriched)

	require.Len(t, out, 1)
	assert.Equal(t, 21, out[0].(domain.Pushups).Count)
}

func TestMergeNeverAverages(t *testing.T) {
	local := []domain.Event{domain.Weight{Meta: domain.Meta{ID: "h", Confidence: 0.6}, Kg: 80.0}}
	enriched := []domain.Event{domain.Weight{Meta: domain.Meta{ID: "m", Confidence: 0.8}, Kg: 80.2}}

	out := Merge(local, enriched)

	require.Len(t, out, 1)
	assert.Equal(t, 80.2, out[0].(domain.Weight).Kg)
}

func TestMergeDistinctEventsAreKept(t *testing.T) {
	local := []domain.Event{
		water("h1", 500, 0.6, domain.SourceHeuristic),
		domain.Pushups{Meta: domain.Meta{ID: "h2", Confidence: 0.6}, Count: 20},
	}
	enriched := []domain.Event{
		water("m1", 1000, 0.9, domain.SourceModel),
		domain.Workout{Meta: domain.Meta{ID: "m2", Confidence: 0.8}, Sport: domain.SportCardio, DurationMin: 30},
	}

	out := Merge(local, enriched)

	assert.Len(t, out, 4)
}

func TestMergeEmptyInputs(t *testing.T) {
	assert.Empty(t, Merge(nil, nil))

	local := []domain.Event{water("h1", 500, 0.6, domain.SourceHeuristic)}
	assert.Equal(t, local, Merge(local, nil))

	enriched := []domain.Event{water("m1", 500, 0.9, domain.SourceModel)}
	assert.Equal(t, enriched, Merge(nil, enriched))
}

func TestMergeIsIdempotent(t *testing.T) {
	local := []domain.Event{
		water("h1", 500, 0.6, domain.SourceHeuristic),
		domain.Protein{Meta: domain.Meta{ID: "h2", Confidence: 0.5}, Grams: 25},
	}
	enriched := []domain.Event{
		water("m1", 480, 0.9, domain.SourceModel),
		domain.Protein{Meta: domain.Meta{ID: "m2", Confidence: 0.9}, Grams: 30},
	}

	once := Merge(local, enriched)
	assert.Equal(t, once, Merge(once, enriched))
}

func TestFingerprint(t *testing.T) {
	tests := []struct {
		event domain.Event
		want  string
	}{
		{water("x", 500, 0.6, ""), "drink:water:500"},
		{domain.Protein{Grams: 24.6}, "protein:25"},
		{domain.Pushups{Count: 20}, "pushups:20"},
		{domain.Workout{Sport: domain.SportCardio, DurationMin: 30, Intensity: domain.IntensityEasy}, "workout:cardio:30:easy"},
		{domain.Workout{Sport: domain.SportGym}, "workout:gym:na:na"},
		{domain.Rest{Reason: "sick"}, "rest:sick"},
		{domain.Weight{Kg: 81.44}, "weight:81.4"},
		{domain.BodyFat{Percent: 18.5}, "bodyfat:18.5"},
		{domain.Food{Label: "porridge"}, "food:porridge"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Fingerprint(tt.event))
		})
	}
}

func TestSimilar(t *testing.T) {
	tests := []struct {
		name string
		a, b domain.Event
		want bool
	}{
		{"drink in band", water("", 500, 0, ""), water("", 560, 0, ""), true},
		{"drink out of band", water("", 500, 0, ""), water("", 561, 0, ""), false},
		{"drink other beverage", water("", 500, 0, ""), domain.Drink{VolumeMl: 500, Beverage: domain.BeverageTea}, false},
		{"different kinds", domain.Pushups{Count: 5}, domain.Weight{Kg: 5}, false},
		{"pushups", domain.Pushups{Count: 20}, domain.Pushups{Count: 22}, true},
		{"workout missing duration", domain.Workout{Sport: domain.SportGym, DurationMin: 45}, domain.Workout{Sport: domain.SportGym}, true},
		{"workout far durations", domain.Workout{Sport: domain.SportGym, DurationMin: 45}, domain.Workout{Sport: domain.SportGym, DurationMin: 60}, false},
		{"workout intensity mismatch", domain.Workout{Sport: domain.SportGym, Intensity: domain.IntensityEasy}, domain.Workout{Sport: domain.SportGym, Intensity: domain.IntensityHard}, false},
		{"workout one intensity", domain.Workout{Sport: domain.SportGym, Intensity: domain.IntensityEasy}, domain.Workout{Sport: domain.SportGym}, true},
		{"workout other sport", domain.Workout{Sport: domain.SportGym}, domain.Workout{Sport: domain.SportCardio}, false},
		{"weight", domain.Weight{Kg: 80.0}, domain.Weight{Kg: 80.2}, true},
		{"weight far", domain.Weight{Kg: 80.0}, domain.Weight{Kg: 80.3}, false},
		{"rest", domain.Rest{Reason: "sick"}, domain.Rest{}, true},
		{"food label", domain.Food{Label: "tofu"}, domain.Food{Label: "rice"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Similar(tt.a, tt.b))
			assert.Equal(t, tt.want, Similar(tt.b, tt.a))
		})
	}
}

func TestSortByKind(t *testing.T) {
	events := []domain.Event{
		domain.Food{Label: "tofu"},
		domain.Pushups{Count: 10},
		water("a", 200, 0, ""),
		domain.Pushups{Count: 20},
	}

	SortByKind(events)

	assert.Equal(t, []domain.Kind{domain.KindDrink, domain.KindPushups, domain.KindPushups, domain.KindFood},
		[]domain.Kind{events[0].Kind(), events[1].Kind(), events[2].Kind(), events[3].Kind()})
	assert.Equal(t, 10, events[1].(domain.Pushups).Count)
}
