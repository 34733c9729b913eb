package domain

// SportKey identifies a sport slot in daily tracking
type SportKey string

const (
	SportKeyHIIT     SportKey = "hiit"
	SportKeyCardio   SportKey = "cardio"
	SportKeyGym      SportKey = "gym"
	SportKeySwimming SportKey = "swimming"
	SportKeySoccer   SportKey = "soccer"
	SportKeyRest     SportKey = "rest"
)

// SportEntry is one sport slot for a day. Duration is in minutes and
// Intensity on a 1-10 scale; zero means not recorded.
type SportEntry struct {
	Active    bool `json:"active" yaml:"active"`
	Duration  int  `json:"duration,omitempty" yaml:"duration,omitempty"`
	Intensity int  `json:"intensity,omitempty" yaml:"intensity,omitempty"`
}

// WeightEntry holds optional body measurements
type WeightEntry struct {
	Value   *float64 `json:"value,omitempty" yaml:"value,omitempty"`
	BodyFat *float64 `json:"bodyFat,omitempty" yaml:"bodyFat,omitempty"`
	BMI     *float64 `json:"bmi,omitempty" yaml:"bmi,omitempty"`
}

// Contribution is the per-day total of confirmed note events
type Contribution struct {
	Water    int                     `json:"water,omitempty"`
	Protein  float64                 `json:"protein,omitempty"`
	Calories float64                 `json:"calories,omitempty"`
	Carbs    float64                 `json:"carbs,omitempty"`
	Fat      float64                 `json:"fat,omitempty"`
	Pushups  int                     `json:"pushups,omitempty"`
	Sports   map[SportKey]SportEntry `json:"sports,omitempty"`
	Weight   *WeightEntry            `json:"weight,omitempty"`
}

// PushupTally is the pushup part of a tracking record
type PushupTally struct {
	Total int   `json:"total" yaml:"total"`
	Sets  []int `json:"sets,omitempty" yaml:"sets,omitempty"`
}

// DailyTracking is a tracking record for one day, either entered manually
// or produced by combining a manual record with a Contribution.
type DailyTracking struct {
	Date      string                  `json:"date" yaml:"date"`
	Sports    map[SportKey]SportEntry `json:"sports" yaml:"sports,omitempty"`
	Water     int                     `json:"water" yaml:"water,omitempty"`
	Protein   float64                 `json:"protein" yaml:"protein,omitempty"`
	Calories  float64                 `json:"calories" yaml:"calories,omitempty"`
	Carbs     float64                 `json:"carbs" yaml:"carbs,omitempty"`
	Fat       float64                 `json:"fat" yaml:"fat,omitempty"`
	Pushups   *PushupTally            `json:"pushups,omitempty" yaml:"pushups,omitempty"`
	Weight    *WeightEntry            `json:"weight,omitempty" yaml:"weight,omitempty"`
	Completed bool                    `json:"completed" yaml:"completed,omitempty"`
}
