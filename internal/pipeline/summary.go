package pipeline

import (
	"strconv"
	"strings"

	"github.com/pbaille/fitlog/internal/domain"
	"github.com/pbaille/fitlog/internal/extract"
)

const (
	summaryMaxLen   = 120
	summaryEllipsis = "..."
)

// OptimisticSummary is the summary shown while enrichment is outstanding:
// the raw text, truncated with an ellipsis when it is too long.
func OptimisticSummary(raw string) string {
	runes := []rune(raw)
	if len(runes) < summaryMaxLen {
		return raw
	}
	return string(runes[:summaryMaxLen-len(summaryEllipsis)]) + summaryEllipsis
}

type lang int

const (
	langDE lang = iota
	langEN
)

var (
	germanSignals  = []string{"wasser", "gramm", "ausruhen", "pause", "resttag", "liegestütz", "km", "min.", "heute", "kg", "tee", "laufen", "training"}
	englishSignals = []string{"water", "protein", "pushup", "push-up", "push up", "rest day", "run", "gym", "workout", "swim", "today", "lbs", "weight", "cardio", "tea", "coffee"}
)

// hasSignal skips signals buried inside a longer word, so "getrunken" is
// not read as "run"
func hasSignal(text string, signals []string) bool {
	for _, s := range signals {
		if extract.ContainsKeyword(text, s) {
			return true
		}
	}
	return false
}

func detectLang(raw string) lang {
	sample := strings.ToLower(raw)
	de, en := hasSignal(sample, germanSignals), hasSignal(sample, englishSignals)
	switch {
	case de && !en:
		return langDE
	case en && !de:
		return langEN
	case strings.ContainsAny(sample, "ßäöü"):
		return langDE
	case en:
		return langEN
	}
	return langDE
}

// HeuristicSummary describes events in the language of raw, for notes
// whose enrichment failed. Without events it falls back to
// OptimisticSummary.
func HeuristicSummary(raw string, events []domain.Event) string {
	if len(events) == 0 {
		return OptimisticSummary(raw)
	}
	d := describer{lang: detectLang(raw)}
	parts := make([]string, 0, len(events))
	for _, e := range events {
		e.Accept(&d)
		if d.out != "" {
			parts = append(parts, d.out)
		}
	}
	if len(parts) == 0 {
		return OptimisticSummary(raw)
	}
	prefix := "Notiert: "
	if d.lang == langEN {
		prefix = "Logged: "
	}
	return prefix + strings.Join(parts, ", ") + "."
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// describer renders one event per visit into out
type describer struct {
	lang lang
	out  string
}

func (d *describer) pick(de, en string) string {
	if d.lang == langDE {
		return de
	}
	return en
}

var beverageNames = map[domain.Beverage][2]string{
	domain.BeverageWater:   {"Wasser", "water"},
	domain.BeverageProtein: {"Proteinshake", "protein shake"},
	domain.BeverageCoffee:  {"Kaffee", "coffee"},
	domain.BeverageTea:     {"Tee", "tea"},
}

func (d *describer) VisitDrink(e domain.Drink) {
	name := d.pick("Drink", "drink")
	if n, ok := beverageNames[e.Beverage]; ok {
		name = d.pick(n[0], n[1])
	}
	d.out = strconv.Itoa(e.VolumeMl) + " ml " + name
}

func (d *describer) VisitProtein(e domain.Protein) {
	d.out = num(e.Grams) + d.pick(" g Protein", " g protein")
}

func (d *describer) VisitPushups(e domain.Pushups) {
	d.out = strconv.Itoa(e.Count) + d.pick(" Liegestütze", " push-ups")
}

var sportNames = map[domain.Sport][2]string{
	domain.SportHIIT:     {"Hyrox/HIIT", "Hyrox/HIIT"},
	domain.SportCardio:   {"Cardio", "cardio"},
	domain.SportGym:      {"Gym", "gym"},
	domain.SportSwimming: {"Schwimmen", "swimming"},
	domain.SportFootball: {"Fußball", "football"},
}

var intensityNames = map[domain.Intensity][2]string{
	domain.IntensityEasy:     {"locker", "easy"},
	domain.IntensityModerate: {"moderat", "moderate"},
	domain.IntensityHard:     {"hart", "hard"},
}

func (d *describer) VisitWorkout(e domain.Workout) {
	parts := []string{string(e.Sport)}
	if n, ok := sportNames[e.Sport]; ok {
		parts[0] = d.pick(n[0], n[1])
	}
	if e.DurationMin > 0 {
		parts = append(parts, strconv.Itoa(e.DurationMin)+" min")
	}
	if n, ok := intensityNames[e.Intensity]; ok {
		parts = append(parts, d.pick(n[0], n[1]))
	}
	d.out = strings.Join(parts, " · ")
}

func (d *describer) VisitRest(domain.Rest) {
	d.out = d.pick("Ruhetag", "rest day")
}

func (d *describer) VisitWeight(e domain.Weight) {
	d.out = num(e.Kg) + " kg"
}

func (d *describer) VisitBodyFat(e domain.BodyFat) {
	d.out = num(e.Percent) + d.pick(" % Körperfett", " % body fat")
}

func (d *describer) VisitFood(e domain.Food) {
	var details []string
	if e.Calories > 0 {
		details = append(details, num(e.Calories)+" kcal")
	}
	if e.ProteinG > 0 {
		details = append(details, num(e.ProteinG)+d.pick(" g Protein", " g protein"))
	}
	d.out = e.Label
	if len(details) > 0 {
		d.out += " (" + strings.Join(details, ", ") + ")"
	}
}
