// Package fusion reconciles heuristic candidates with model-produced events.
package fusion

import (
	"fmt"
	"math"

	"github.com/pbaille/fitlog/internal/domain"
)

// Similarity tolerances per kind
const (
	DrinkToleranceMl       = 60
	ProteinToleranceG      = 6
	PushupTolerance        = 2
	WorkoutToleranceMin    = 10
	WeightToleranceKg      = 0.2
	BodyFatTolerancePct    = 0.3
	floatToleranceEpsilon  = 1e-9
	fingerprintUnspecified = "na"
)

// Fingerprint returns the exact-match key of an event: its kind plus the
// dominant fields, numeric ones rounded.
func Fingerprint(e domain.Event) string {
	var f fingerprinter
	e.Accept(&f)
	return f.key
}

type fingerprinter struct{ key string }

func (f *fingerprinter) VisitDrink(e domain.Drink) {
	f.key = fmt.Sprintf("drink:%s:%d", e.Beverage, e.VolumeMl)
}

func (f *fingerprinter) VisitProtein(e domain.Protein) {
	f.key = fmt.Sprintf("protein:%d", int64(math.Round(e.Grams)))
}

func (f *fingerprinter) VisitPushups(e domain.Pushups) {
	f.key = fmt.Sprintf("pushups:%d", e.Count)
}

func (f *fingerprinter) VisitWorkout(e domain.Workout) {
	duration := fingerprintUnspecified
	if e.DurationMin > 0 {
		duration = fmt.Sprint(e.DurationMin)
	}
	intensity := fingerprintUnspecified
	if e.Intensity != "" {
		intensity = string(e.Intensity)
	}
	f.key = fmt.Sprintf("workout:%s:%s:%s", e.Sport, duration, intensity)
}

func (f *fingerprinter) VisitRest(e domain.Rest) {
	f.key = "rest:" + e.Reason
}

func (f *fingerprinter) VisitWeight(e domain.Weight) {
	f.key = fmt.Sprintf("weight:%.1f", e.Kg)
}

func (f *fingerprinter) VisitBodyFat(e domain.BodyFat) {
	f.key = fmt.Sprintf("bodyfat:%.1f", e.Percent)
}

func (f *fingerprinter) VisitFood(e domain.Food) {
	f.key = "food:" + e.Label
}

// Similar reports whether two events describe the same fact within the
// kind's tolerance band. Events of different kinds are never similar.
func Similar(a, b domain.Event) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	s := similarity{other: b}
	a.Accept(&s)
	return s.match
}

type similarity struct {
	other domain.Event
	match bool
}

func within(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol+floatToleranceEpsilon
}

func (s *similarity) VisitDrink(a domain.Drink) {
	b := s.other.(domain.Drink)
	s.match = a.Beverage == b.Beverage && within(float64(a.VolumeMl), float64(b.VolumeMl), DrinkToleranceMl)
}

func (s *similarity) VisitProtein(a domain.Protein) {
	b := s.other.(domain.Protein)
	s.match = within(a.Grams, b.Grams, ProteinToleranceG)
}

func (s *similarity) VisitPushups(a domain.Pushups) {
	b := s.other.(domain.Pushups)
	s.match = within(float64(a.Count), float64(b.Count), PushupTolerance)
}

func (s *similarity) VisitWorkout(a domain.Workout) {
	b := s.other.(domain.Workout)
	if a.Sport != b.Sport {
		return
	}
	if a.DurationMin > 0 && b.DurationMin > 0 && !within(float64(a.DurationMin), float64(b.DurationMin), WorkoutToleranceMin) {
		return
	}
	s.match = a.Intensity == b.Intensity || a.Intensity == "" || b.Intensity == ""
}

func (s *similarity) VisitRest(domain.Rest) {
	s.match = true
}

func (s *similarity) VisitWeight(a domain.Weight) {
	b := s.other.(domain.Weight)
	s.match = within(a.Kg, b.Kg, WeightToleranceKg)
}

func (s *similarity) VisitBodyFat(a domain.BodyFat) {
	b := s.other.(domain.BodyFat)
	s.match = within(a.Percent, b.Percent, BodyFatTolerancePct)
}

func (s *similarity) VisitFood(a domain.Food) {
	b := s.other.(domain.Food)
	s.match = a.Label == b.Label
}
