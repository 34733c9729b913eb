// Package aggregate rolls confirmed note events up into per-day
// contributions.
package aggregate

import (
	"slices"
	"time"

	"github.com/pbaille/fitlog/internal/domain"
)

// ConfidenceThreshold is the minimum confidence for an event to count
const ConfidenceThreshold = 0.5

var intensityScale = map[domain.Intensity]int{
	domain.IntensityEasy:     3,
	domain.IntensityModerate: 6,
	domain.IntensityHard:     8,
}

// SportKey maps a workout sport to its tracking slot
func SportKey(s domain.Sport) domain.SportKey {
	switch s {
	case domain.SportHIIT:
		return domain.SportKeyHIIT
	case domain.SportCardio:
		return domain.SportKeyCardio
	case domain.SportSwimming:
		return domain.SportKeySwimming
	case domain.SportFootball:
		return domain.SportKeySoccer
	default:
		return domain.SportKeyGym
	}
}

// Aggregate computes the contribution of every day touched by a settled
// note. Pending notes and events below ConfidenceThreshold are ignored.
// Days are keyed YYYY-MM-DD in loc; a nil loc means local time.
func Aggregate(notes []domain.Note, loc *time.Location) map[string]domain.Contribution {
	ordered := slices.Clone(notes)
	slices.SortStableFunc(ordered, func(a, b domain.Note) int {
		switch {
		case a.TS < b.TS:
			return -1
		case a.TS > b.TS:
			return 1
		}
		return 0
	})

	days := make(map[string]*accumulator)
	for _, n := range ordered {
		if n.Pending {
			continue
		}
		key := domain.DayKey(n.Time(), loc)
		for _, e := range n.Events {
			if e.Base().Confidence < ConfidenceThreshold {
				continue
			}
			acc, ok := days[key]
			if !ok {
				acc = &accumulator{}
				days[key] = acc
			}
			e.Accept(acc)
		}
	}

	out := make(map[string]domain.Contribution, len(days))
	for k, acc := range days {
		if acc.empty() {
			continue
		}
		out[k] = acc.c
	}
	return out
}

// accumulator folds events into one day's contribution
type accumulator struct {
	c domain.Contribution
}

func (a *accumulator) VisitDrink(e domain.Drink) {
	a.c.Water += e.VolumeMl
}

func (a *accumulator) VisitProtein(e domain.Protein) {
	a.c.Protein += e.Grams
}

func (a *accumulator) VisitPushups(e domain.Pushups) {
	a.c.Pushups += e.Count
}

func (a *accumulator) VisitWorkout(e domain.Workout) {
	key := SportKey(e.Sport)
	a.mergeSport(key, domain.SportEntry{
		Active:    true,
		Duration:  e.DurationMin,
		Intensity: intensityScale[e.Intensity],
	})
}

func (a *accumulator) VisitRest(domain.Rest) {
	a.sports()[domain.SportKeyRest] = domain.SportEntry{Active: true}
}

func (a *accumulator) VisitWeight(e domain.Weight) {
	kg := e.Kg
	a.weight().Value = &kg
}

func (a *accumulator) VisitBodyFat(e domain.BodyFat) {
	pct := e.Percent
	a.weight().BodyFat = &pct
}

func (a *accumulator) VisitFood(e domain.Food) {
	a.c.Protein += e.ProteinG
	a.c.Calories += e.Calories
	a.c.Carbs += e.CarbsG
	a.c.Fat += e.FatG
}

// empty reports whether the qualifying events of the day added nothing,
// such as a food without nutrition values or a 0 ml drink
func (a *accumulator) empty() bool {
	c := a.c
	return c.Water == 0 && c.Protein == 0 && c.Calories == 0 && c.Carbs == 0 &&
		c.Fat == 0 && c.Pushups == 0 && len(c.Sports) == 0 && c.Weight == nil
}

func (a *accumulator) sports() map[domain.SportKey]domain.SportEntry {
	if a.c.Sports == nil {
		a.c.Sports = make(map[domain.SportKey]domain.SportEntry)
	}
	return a.c.Sports
}

func (a *accumulator) weight() *domain.WeightEntry {
	if a.c.Weight == nil {
		a.c.Weight = &domain.WeightEntry{}
	}
	return a.c.Weight
}

// mergeSport sums durations and keeps the higher intensity. A zero field
// never overwrites a recorded one.
func (a *accumulator) mergeSport(key domain.SportKey, in domain.SportEntry) {
	sports := a.sports()
	prev, ok := sports[key]
	if !ok {
		sports[key] = in
		return
	}
	sports[key] = domain.SportEntry{
		Active:    true,
		Duration:  prev.Duration + in.Duration,
		Intensity: max(prev.Intensity, in.Intensity),
	}
}
