package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pbaille/fitlog/internal/domain"
)

// Lookup tables are ordered: the first matching keyword wins, so more
// specific keywords come before generic ones.

type beverageKeyword struct {
	word     string
	beverage domain.Beverage
}

var beverageKeywords = []beverageKeyword{
	{"stilles wasser", domain.BeverageWater},
	{"sparkling water", domain.BeverageWater},
	{"wasser", domain.BeverageWater},
	{"water", domain.BeverageWater},
	{"proteinshake", domain.BeverageProtein},
	{"protein shake", domain.BeverageProtein},
	{"protein", domain.BeverageProtein},
	{"shake", domain.BeverageProtein},
	{"kaffee", domain.BeverageCoffee},
	{"coffee", domain.BeverageCoffee},
	{"espresso", domain.BeverageCoffee},
	{"tee", domain.BeverageTea},
	{"tea", domain.BeverageTea},
}

type sportKeyword struct {
	word  string
	sport domain.Sport
}

var sportKeywords = []sportKeyword{
	{"hiit", domain.SportHIIT},
	{"hyrox", domain.SportHIIT},
	{"cardio", domain.SportCardio},
	{"laufen", domain.SportCardio},
	{"joggen", domain.SportCardio},
	{"running", domain.SportCardio},
	{"run", domain.SportCardio},
	{"jog", domain.SportCardio},
	{"cycling", domain.SportCardio},
	{"radfahren", domain.SportCardio},
	{"bike", domain.SportCardio},
	{"schwimmen", domain.SportSwimming},
	{"swimming", domain.SportSwimming},
	{"schwimm", domain.SportSwimming},
	{"gym", domain.SportGym},
	{"krafttraining", domain.SportGym},
	{"kraft", domain.SportGym},
	{"workout", domain.SportGym},
	{"training", domain.SportGym},
	{"fußball", domain.SportFootball},
	{"fussball", domain.SportFootball},
	{"football", domain.SportFootball},
	{"soccer", domain.SportFootball},
}

type intensityKeyword struct {
	word      string
	intensity domain.Intensity
}

var intensityKeywords = []intensityKeyword{
	{"locker", domain.IntensityEasy},
	{"leicht", domain.IntensityEasy},
	{"easy", domain.IntensityEasy},
	{"moderat", domain.IntensityModerate},
	{"moderate", domain.IntensityModerate},
	{"hart", domain.IntensityHard},
	{"streng", domain.IntensityHard},
	{"hard", domain.IntensityHard},
	{"intense", domain.IntensityHard},
}

var foodKeywords = []string{
	"porridge",
	"oatmeal",
	"haferbrei",
	"tofu",
	"reis",
	"rice",
	"nudeln",
	"pasta",
	"salat",
	"salad",
	"smoothie",
	"burger",
	"sandwich",
	"wrap",
	"quark",
	"yogurt",
	"joghurt",
}

// ContainsKeyword reports whether keyword occurs in text other than buried
// inside a longer word. An occurrence counts when at least one side is not a
// letter, so compounds like "krafttraining" still match "training" while
// "getrunken" does not match "run".
func ContainsKeyword(text, keyword string) bool {
	offset := 0
	for {
		i := strings.Index(text[offset:], keyword)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(keyword)

		before, after := false, false
		if start > 0 {
			r, _ := utf8.DecodeLastRuneInString(text[:start])
			before = unicode.IsLetter(r)
		}
		if end < len(text) {
			r, _ := utf8.DecodeRuneInString(text[end:])
			after = unicode.IsLetter(r)
		}
		if !(before && after) {
			return true
		}
		offset = end
	}
}

func detectBeverage(lower string) domain.Beverage {
	for _, k := range beverageKeywords {
		if ContainsKeyword(lower, k.word) {
			return k.beverage
		}
	}
	if strings.Contains(lower, "protein") {
		return domain.BeverageProtein
	}
	return domain.BeverageOther
}

func detectSport(lower string) (domain.Sport, bool) {
	for _, k := range sportKeywords {
		if ContainsKeyword(lower, k.word) {
			return k.sport, true
		}
	}
	return domain.SportOther, false
}

func detectIntensity(lower string) domain.Intensity {
	for _, k := range intensityKeywords {
		if ContainsKeyword(lower, k.word) {
			return k.intensity
		}
	}
	return ""
}

func detectFood(lower string) (string, bool) {
	for _, k := range foodKeywords {
		if ContainsKeyword(lower, k) {
			return k, true
		}
	}
	return "", false
}
