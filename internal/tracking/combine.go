// Package tracking merges manually entered daily records with the
// contributions derived from notes.
package tracking

import (
	"maps"
	"slices"

	"github.com/pbaille/fitlog/internal/domain"
)

// SportKeys lists every sport slot of a daily record
var SportKeys = []domain.SportKey{
	domain.SportKeyHIIT,
	domain.SportKeyCardio,
	domain.SportKeyGym,
	domain.SportKeySwimming,
	domain.SportKeySoccer,
	domain.SportKeyRest,
}

// Combine merges manual records with note contributions. Every day present
// in either input is present in the result.
//
// Counters add up. Active contributed sports replace the manual entry,
// borrowing its duration or intensity when they lack one. Manual weight
// and body fat win over contributed ones; BMI is only ever manual.
func Combine(manual map[string]domain.DailyTracking, contributions map[string]domain.Contribution) map[string]domain.DailyTracking {
	out := make(map[string]domain.DailyTracking, len(manual)+len(contributions))
	for day := range manual {
		out[day] = combineDay(day, manual[day], contributions[day])
	}
	for day, c := range contributions {
		if _, ok := out[day]; !ok {
			out[day] = combineDay(day, domain.DailyTracking{}, c)
		}
	}
	return out
}

func combineDay(day string, m domain.DailyTracking, c domain.Contribution) domain.DailyTracking {
	date := m.Date
	if date == "" {
		date = day
	}
	return domain.DailyTracking{
		Date:      date,
		Sports:    mergeSports(m.Sports, c.Sports),
		Water:     m.Water + c.Water,
		Protein:   m.Protein + c.Protein,
		Calories:  m.Calories + c.Calories,
		Carbs:     m.Carbs + c.Carbs,
		Fat:       m.Fat + c.Fat,
		Pushups:   mergePushups(m.Pushups, c.Pushups),
		Weight:    mergeWeight(m.Weight, c.Weight),
		Completed: m.Completed,
	}
}

// NormalizeSports returns a copy of sports with every slot present
func NormalizeSports(sports map[domain.SportKey]domain.SportEntry) map[domain.SportKey]domain.SportEntry {
	out := make(map[domain.SportKey]domain.SportEntry, len(SportKeys))
	for _, k := range SportKeys {
		out[k] = domain.SportEntry{}
	}
	maps.Copy(out, sports)
	return out
}

func mergeSports(manual, contributed map[domain.SportKey]domain.SportEntry) map[domain.SportKey]domain.SportEntry {
	out := NormalizeSports(manual)
	for k, in := range contributed {
		if !in.Active {
			continue
		}
		prev := manual[k]
		if in.Duration == 0 {
			in.Duration = prev.Duration
		}
		if in.Intensity == 0 {
			in.Intensity = prev.Intensity
		}
		out[k] = in
	}
	return out
}

func mergePushups(manual *domain.PushupTally, contributed int) *domain.PushupTally {
	total := contributed
	var sets []int
	if manual != nil {
		total += manual.Total
		sets = manual.Sets
	}
	if manual == nil && total <= 0 {
		return nil
	}
	return &domain.PushupTally{Total: total, Sets: sets}
}

func mergeWeight(manual, contributed *domain.WeightEntry) *domain.WeightEntry {
	var m, c domain.WeightEntry
	if manual != nil {
		m = *manual
	}
	if contributed != nil {
		c = *contributed
	}
	w := domain.WeightEntry{
		Value:   firstSet(m.Value, c.Value),
		BodyFat: firstSet(m.BodyFat, c.BodyFat),
		BMI:     m.BMI,
	}
	if w.Value == nil && w.BodyFat == nil && w.BMI == nil {
		return nil
	}
	return &w
}

func firstSet(a, b *float64) *float64 {
	if a != nil {
		return a
	}
	return b
}

// Range returns the records of days within [from, to], oldest first.
// An empty bound is open.
func Range(days map[string]domain.DailyTracking, from, to string) []domain.DailyTracking {
	keys := slices.Sorted(maps.Keys(days))
	out := make([]domain.DailyTracking, 0, len(keys))
	for _, day := range keys {
		if (from != "" && day < from) || (to != "" && day > to) {
			continue
		}
		out = append(out, days[day])
	}
	return out
}

// Day returns the combined record of one day. Days without data yield an
// empty record with every sport slot present.
func Day(days map[string]domain.DailyTracking, day string) domain.DailyTracking {
	if rec, ok := days[day]; ok {
		return rec
	}
	return combineDay(day, domain.DailyTracking{}, domain.Contribution{})
}
