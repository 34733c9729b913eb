package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbaille/fitlog/internal/domain"
)

func kinds(events []domain.Event) []domain.Kind {
	out := make([]domain.Kind, 0, len(events))
	for _, e := range events {
		out = append(out, e.Kind())
	}
	return out
}

func only[T domain.Event](t *testing.T, events []domain.Event) T {
	t.Helper()
	var found []T
	for _, e := range events {
		if v, ok := e.(T); ok {
			found = append(found, v)
		}
	}
	require.Len(t, found, 1)
	return found[0]
}

func TestExtractDrinkWithDecimalComma(t *testing.T) {
	res := Extract("0,5 l Wasser getrunken")

	require.Equal(t, []domain.Kind{domain.KindDrink}, kinds(res.Candidates))
	drink := only[domain.Drink](t, res.Candidates)
	assert.Equal(t, 500, drink.VolumeMl)
	assert.Equal(t, domain.BeverageWater, drink.Beverage)
	assert.Equal(t, DefaultConfidence, drink.Confidence)
	assert.Equal(t, domain.SourceHeuristic, drink.Source)
	assert.NotEmpty(t, drink.ID)
}

func TestExtractGermanPushups(t *testing.T) {
	res := Extract("20 Liegestütze fertig")

	require.Equal(t, []domain.Kind{domain.KindPushups}, kinds(res.Candidates))
	assert.Equal(t, 20, only[domain.Pushups](t, res.Candidates).Count)
}

func TestExtractPushupVariants(t *testing.T) {
	for _, text := range []string{
		"15 push-ups",
		"15 pushups",
		"15 push ups",
		"15 Liegestuetze",
		"15 Liegestützen",
		// decomposed u + combining diaeresis
		"15 Liegestu\u0308tze",
	} {
		t.Run(text, func(t *testing.T) {
			res := Extract(text)
			assert.Equal(t, 15, only[domain.Pushups](t, res.Candidates).Count)
		})
	}
}

func TestExtractProteinShakeGuess(t *testing.T) {
	res := Extract("Proteinshake nach dem Workout")

	protein := only[domain.Protein](t, res.Candidates)
	assert.Equal(t, 25.0, protein.Grams)
	assert.Less(t, protein.Confidence, DefaultConfidence)
	assert.Equal(t, "proteinshake", protein.SourceLabel)
}

func TestExtractExplicitGramsSuppressShakeGuess(t *testing.T) {
	res := Extract("Proteinshake mit 30g")

	protein := only[domain.Protein](t, res.Candidates)
	assert.Equal(t, 30.0, protein.Grams)
	assert.Equal(t, DefaultConfidence, protein.Confidence)
}

func TestExtractProteinDrink(t *testing.T) {
	res := Extract("300ml protein")

	drink := only[domain.Drink](t, res.Candidates)
	assert.Equal(t, 300, drink.VolumeMl)
	assert.Equal(t, domain.BeverageProtein, drink.Beverage)
}

func TestExtractMultipleDrinks(t *testing.T) {
	res := Extract("250ml Kaffee und 1,5l Wasser")

	var volumes []int
	for _, e := range res.Candidates {
		if d, ok := e.(domain.Drink); ok {
			volumes = append(volumes, d.VolumeMl)
		}
	}
	assert.Equal(t, []int{250, 1500}, volumes)
}

func TestExtractWorkout(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		sport     domain.Sport
		duration  int
		intensity domain.Intensity
	}{
		{"german run", "45 min laufen, locker", domain.SportCardio, 45, domain.IntensityEasy},
		{"hours", "1,5h Krafttraining hart", domain.SportGym, 90, domain.IntensityHard},
		{"first keyword wins", "HIIT workout 30 minutes", domain.SportHIIT, 30, ""},
		{"swimming", "Schwimmen 40 Minuten", domain.SportSwimming, 40, ""},
		{"football", "Fußball gespielt", domain.SportFootball, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Extract(tt.text)
			w := only[domain.Workout](t, res.Candidates)
			assert.Equal(t, tt.sport, w.Sport)
			assert.Equal(t, tt.duration, w.DurationMin)
			assert.Equal(t, tt.intensity, w.Intensity)
			assert.Equal(t, tt.text, w.Note)
		})
	}
}

func TestExtractKeywordInsideWordIgnored(t *testing.T) {
	res := Extract("Tee getrunken")
	assert.NotContains(t, kinds(res.Candidates), domain.KindWorkout)
}

func TestExtractRest(t *testing.T) {
	res := Extract("Ruhetag wegen Erkältung.")

	rest := only[domain.Rest](t, res.Candidates)
	assert.Equal(t, "Erkältung", rest.Reason)

	res = Extract("rest day")
	assert.Empty(t, only[domain.Rest](t, res.Candidates).Reason)
}

func TestExtractWeightAndBodyFat(t *testing.T) {
	res := Extract("Gewicht 81,4 kg, 18,5% KFA")

	assert.Equal(t, 81.4, only[domain.Weight](t, res.Candidates).Kg)
	assert.Equal(t, 18.5, only[domain.BodyFat](t, res.Candidates).Percent)
}

func TestExtractFood(t *testing.T) {
	res := Extract("Porridge mit Quark, 450 kcal, 30g Protein")

	food := only[domain.Food](t, res.Candidates)
	assert.Equal(t, "porridge", food.Label)
	assert.Equal(t, 450.0, food.Calories)
	assert.Equal(t, 30.0, food.ProteinG)
}

func TestExtractIndependentKinds(t *testing.T) {
	res := Extract("0,5l Wasser, 20 Liegestütze, 30 min joggen")

	assert.ElementsMatch(t,
		[]domain.Kind{domain.KindDrink, domain.KindPushups, domain.KindWorkout},
		kinds(res.Candidates))
}

func TestExtractNothing(t *testing.T) {
	assert.Empty(t, Extract("").Candidates)
	assert.Empty(t, Extract("Heute war ein schöner Tag").Candidates)
}

func TestExtractorCustomIDs(t *testing.T) {
	n := 0
	x := Extractor{NewID: func() string { n++; return "id-" + string(rune('0'+n)) }}

	res := x.Extract("200ml water, 10 pushups")
	require.Len(t, res.Candidates, 2)
	assert.Equal(t, "id-1", res.Candidates[0].Base().ID)
	assert.Equal(t, "id-2", res.Candidates[1].Base().ID)
}
