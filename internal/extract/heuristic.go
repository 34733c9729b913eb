// Package extract turns free-text journal entries into candidate fitness
// events using keyword tables and unit patterns. It covers English and
// German only and never fails: text it cannot read yields no candidates.
package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/pbaille/fitlog/internal/domain"
)

const (
	// DefaultConfidence is assigned to every pattern match
	DefaultConfidence = 0.6

	// ShakeGuessConfidence is the confidence of the synthetic protein-shake
	// event. It must stay below DefaultConfidence and the aggregation gate
	// must stay at or below it.
	ShakeGuessConfidence = 0.5

	// ShakeGuessGrams is the protein assumed for an unquantified shake
	ShakeGuessGrams = 25
)

var (
	drinkPattern       = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s?(ml|l)\b`)
	gramPattern        = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s?(gramm|grams?|g)\b`)
	pushupPattern      = regexp.MustCompile(`(\d+)\s?(liegest(?:ü|ue)tz(?:e|en)?|push[- ]?ups?)\b`)
	durationPattern    = regexp.MustCompile(`(\d+(?:\.\d+)?)\s?(min(?:uten|utes?|s)?|hours?|h|stunden?|std)\b`)
	restPattern        = regexp.MustCompile(`ausruhen|rest ?day|ruhetag|pause`)
	restReasonPattern  = regexp.MustCompile(`(?i)(?:wegen|because of)\s+([^.,;]+)`)
	weightPattern      = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s?kg\b`)
	bodyFatPattern     = regexp.MustCompile(`(\d+(?:\.\d+)?)\s?%`)
	foodCaloriePattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s?(kcal|cal(?:orien|ories)?)\b`)
	foodProteinPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s?(gramm|grams?|g)\b.*(protein|eiweiß)`)
)

// Result is the output of a heuristic pass
type Result struct {
	Raw        string
	Candidates []domain.Event
}

// Extractor runs the heuristic pass. The zero value is ready to use.
type Extractor struct {
	// NewID mints event ids; defaults to random UUIDs.
	NewID func() string
}

var defaultExtractor Extractor

// Extract runs the heuristic pass with the default extractor
func Extract(raw string) Result {
	return defaultExtractor.Extract(raw)
}

// Extract returns every candidate event found in raw. Extractions are
// independent: one text can yield a drink, pushups and a workout at once.
// Candidates carry no timestamp; the caller stamps the note's time.
func (x Extractor) Extract(raw string) Result {
	normalized := strings.ReplaceAll(norm.NFC.String(raw), ",", ".")
	lower := strings.ToLower(normalized)

	var out []domain.Event
	base := func(conf float64) domain.Meta {
		return domain.Meta{ID: x.newID(), Confidence: conf, Source: domain.SourceHeuristic}
	}

	for _, m := range drinkPattern.FindAllStringSubmatch(normalized, -1) {
		value, ok := parseNumber(m[1])
		if !ok {
			continue
		}
		ml := value
		if strings.EqualFold(m[2], "l") {
			ml = value * 1000
		}
		out = append(out, domain.Drink{
			Meta:     base(DefaultConfidence),
			VolumeMl: int(math.Round(ml)),
			Beverage: detectBeverage(lower),
		})
	}

	foundGrams := false
	for _, m := range gramPattern.FindAllStringSubmatch(normalized, -1) {
		value, ok := parseNumber(m[1])
		if !ok {
			continue
		}
		label := ""
		if strings.Contains(lower, "shake") || strings.Contains(lower, "protein") {
			label = "protein"
		}
		out = append(out, domain.Protein{
			Meta:        base(DefaultConfidence),
			Grams:       math.Round(value),
			SourceLabel: label,
		})
		foundGrams = true
	}
	if !foundGrams && (strings.Contains(lower, "proteinshake") || strings.Contains(lower, "protein shake")) {
		out = append(out, domain.Protein{
			Meta:        base(ShakeGuessConfidence),
			Grams:       ShakeGuessGrams,
			SourceLabel: "proteinshake",
		})
	}

	for _, m := range pushupPattern.FindAllStringSubmatch(lower, -1) {
		count, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		out = append(out, domain.Pushups{Meta: base(DefaultConfidence), Count: count})
	}

	if sport, ok := detectSport(lower); ok {
		out = append(out, domain.Workout{
			Meta:        base(DefaultConfidence),
			Sport:       sport,
			DurationMin: findDuration(lower),
			Intensity:   detectIntensity(lower),
			Note:        raw,
		})
	}

	if restPattern.MatchString(lower) {
		reason := ""
		if m := restReasonPattern.FindStringSubmatch(normalized); m != nil {
			reason = strings.TrimSpace(m[1])
		}
		out = append(out, domain.Rest{Meta: base(DefaultConfidence), Reason: reason})
	}

	if m := weightPattern.FindStringSubmatch(normalized); m != nil {
		if kg, ok := parseNumber(m[1]); ok {
			out = append(out, domain.Weight{Meta: base(DefaultConfidence), Kg: kg})
		}
	}

	if m := bodyFatPattern.FindStringSubmatch(normalized); m != nil {
		if pct, ok := parseNumber(m[1]); ok {
			out = append(out, domain.BodyFat{Meta: base(DefaultConfidence), Percent: pct})
		}
	}

	if label, ok := detectFood(lower); ok {
		food := domain.Food{Meta: base(DefaultConfidence), Label: label}
		if m := foodCaloriePattern.FindStringSubmatch(lower); m != nil {
			if v, ok := parseNumber(m[1]); ok {
				food.Calories = math.Round(v)
			}
		}
		if m := foodProteinPattern.FindStringSubmatch(lower); m != nil {
			if v, ok := parseNumber(m[1]); ok {
				food.ProteinG = math.Round(v)
			}
		}
		out = append(out, food)
	}

	return Result{Raw: raw, Candidates: out}
}

func (x Extractor) newID() string {
	if x.NewID != nil {
		return x.NewID()
	}
	return uuid.NewString()
}

func findDuration(lower string) int {
	m := durationPattern.FindStringSubmatch(lower)
	if m == nil {
		return 0
	}
	value, ok := parseNumber(m[1])
	if !ok {
		return 0
	}
	unit := m[2]
	if strings.HasPrefix(unit, "h") || strings.HasPrefix(unit, "st") {
		return int(math.Round(value * 60))
	}
	return int(math.Round(value))
}

func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
