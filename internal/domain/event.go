package domain

// Kind identifies an event variant
type Kind string

const (
	KindDrink   Kind = "drink"
	KindProtein Kind = "protein"
	KindPushups Kind = "pushups"
	KindWorkout Kind = "workout"
	KindRest    Kind = "rest"
	KindWeight  Kind = "weight"
	KindBodyFat Kind = "bodyfat"
	KindFood    Kind = "food"
)

// Kinds lists every event kind in display order
var Kinds = []Kind{KindDrink, KindProtein, KindPushups, KindWorkout, KindRest, KindWeight, KindBodyFat, KindFood}

// Source records which extractor produced an event
type Source string

const (
	SourceHeuristic Source = "heuristic"
	SourceModel     Source = "model"
)

type Beverage string

const (
	BeverageWater   Beverage = "water"
	BeverageProtein Beverage = "protein"
	BeverageCoffee  Beverage = "coffee"
	BeverageTea     Beverage = "tea"
	BeverageOther   Beverage = "other"
)

type Sport string

const (
	SportHIIT     Sport = "hiit_hyrox"
	SportCardio   Sport = "cardio"
	SportGym      Sport = "gym"
	SportSwimming Sport = "swimming"
	SportFootball Sport = "football"
	SportOther    Sport = "other"
)

type Intensity string

const (
	IntensityEasy     Intensity = "easy"
	IntensityModerate Intensity = "moderate"
	IntensityHard     Intensity = "hard"
)

// Meta holds the fields shared by every event variant.
// TS is the owning note's timestamp in unix milliseconds.
type Meta struct {
	ID         string  `json:"id"`
	TS         int64   `json:"ts"`
	Confidence float64 `json:"confidence"`
	Source     Source  `json:"source"`
}

// Event is a structured fact extracted from a note. The set of variants is
// closed: every implementation is listed in Visitor, so adding a kind breaks
// compilation of every consumer until it handles the new variant.
type Event interface {
	Kind() Kind
	Base() Meta
	WithBase(Meta) Event
	Accept(Visitor)
}

// Visitor dispatches over the event variants
type Visitor interface {
	VisitDrink(Drink)
	VisitProtein(Protein)
	VisitPushups(Pushups)
	VisitWorkout(Workout)
	VisitRest(Rest)
	VisitWeight(Weight)
	VisitBodyFat(BodyFat)
	VisitFood(Food)
}

type Drink struct {
	Meta
	VolumeMl int      `json:"volumeMl"`
	Beverage Beverage `json:"beverage"`
}

type Protein struct {
	Meta
	Grams       float64 `json:"grams"`
	SourceLabel string  `json:"sourceLabel,omitempty"`
}

type Pushups struct {
	Meta
	Count int `json:"count"`
}

// Workout durations are in minutes; zero means unknown.
type Workout struct {
	Meta
	Sport       Sport     `json:"sport"`
	DurationMin int       `json:"durationMin,omitempty"`
	Intensity   Intensity `json:"intensity,omitempty"`
	Note        string    `json:"notes,omitempty"`
}

type Rest struct {
	Meta
	Reason string `json:"reason,omitempty"`
}

type Weight struct {
	Meta
	Kg float64 `json:"kg"`
}

type BodyFat struct {
	Meta
	Percent float64 `json:"percent"`
}

// Food nutrition fields are optional; zero means not reported.
type Food struct {
	Meta
	Label    string  `json:"label"`
	Calories float64 `json:"calories,omitempty"`
	ProteinG float64 `json:"proteinG,omitempty"`
	CarbsG   float64 `json:"carbsG,omitempty"`
	FatG     float64 `json:"fatG,omitempty"`
}

func (Drink) Kind() Kind   { return KindDrink }
func (Protein) Kind() Kind { return KindProtein }
func (Pushups) Kind() Kind { return KindPushups }
func (Workout) Kind() Kind { return KindWorkout }
func (Rest) Kind() Kind    { return KindRest }
func (Weight) Kind() Kind  { return KindWeight }
func (BodyFat) Kind() Kind { return KindBodyFat }
func (Food) Kind() Kind    { return KindFood }

func (e Drink) Base() Meta   { return e.Meta }
func (e Protein) Base() Meta { return e.Meta }
func (e Pushups) Base() Meta { return e.Meta }
func (e Workout) Base() Meta { return e.Meta }
func (e Rest) Base() Meta    { return e.Meta }
func (e Weight) Base() Meta  { return e.Meta }
func (e BodyFat) Base() Meta { return e.Meta }
func (e Food) Base() Meta    { return e.Meta }

func (e Drink) WithBase(m Meta) Event   { e.Meta = m; return e }
func (e Protein) WithBase(m Meta) Event { e.Meta = m; return e }
func (e Pushups) WithBase(m Meta) Event { e.Meta = m; return e }
func (e Workout) WithBase(m Meta) Event { e.Meta = m; return e }
func (e Rest) WithBase(m Meta) Event    { e.Meta = m; return e }
func (e Weight) WithBase(m Meta) Event  { e.Meta = m; return e }
func (e BodyFat) WithBase(m Meta) Event { e.Meta = m; return e }
func (e Food) WithBase(m Meta) Event    { e.Meta = m; return e }

func (e Drink) Accept(v Visitor)   { v.VisitDrink(e) }
func (e Protein) Accept(v Visitor) { v.VisitProtein(e) }
func (e Pushups) Accept(v Visitor) { v.VisitPushups(e) }
func (e Workout) Accept(v Visitor) { v.VisitWorkout(e) }
func (e Rest) Accept(v Visitor)    { v.VisitRest(e) }
func (e Weight) Accept(v Visitor)  { v.VisitWeight(e) }
func (e BodyFat) Accept(v Visitor) { v.VisitBodyFat(e) }
func (e Food) Accept(v Visitor)    { v.VisitFood(e) }

// Stamp returns e with the given timestamp and source, keeping id and confidence.
func Stamp(e Event, ts int64, source Source) Event {
	m := e.Base()
	m.TS = ts
	m.Source = source
	return e.WithBase(m)
}
