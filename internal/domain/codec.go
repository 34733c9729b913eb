package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrUnknownKind is returned when decoding an event with an unsupported kind
var ErrUnknownKind = errors.New("unknown event kind")

// EventList serializes as a JSON array of tagged events
type EventList []Event

// MarshalJSON encodes each event with its kind tag
func (l EventList) MarshalJSON() ([]byte, error) {
	out := make([]json.RawMessage, 0, len(l))
	for _, e := range l {
		b, err := MarshalEvent(e)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a tagged event array
func (l *EventList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode events: %w", err)
	}
	events := make(EventList, 0, len(raw))
	for _, r := range raw {
		e, err := DecodeEvent(r)
		if err != nil {
			return err
		}
		events = append(events, e)
	}
	*l = events
	return nil
}

// MarshalEvent encodes a single event as a flat object with a "kind" field
func MarshalEvent(e Event) ([]byte, error) {
	var enc encoder
	e.Accept(&enc)
	return json.Marshal(enc.out)
}

type encoder struct{ out any }

func (v *encoder) VisitDrink(e Drink) {
	v.out = struct {
		Kind Kind `json:"kind"`
		Drink
	}{KindDrink, e}
}

func (v *encoder) VisitProtein(e Protein) {
	v.out = struct {
		Kind Kind `json:"kind"`
		Protein
	}{KindProtein, e}
}

func (v *encoder) VisitPushups(e Pushups) {
	v.out = struct {
		Kind Kind `json:"kind"`
		Pushups
	}{KindPushups, e}
}

func (v *encoder) VisitWorkout(e Workout) {
	v.out = struct {
		Kind Kind `json:"kind"`
		Workout
	}{KindWorkout, e}
}

func (v *encoder) VisitRest(e Rest) {
	v.out = struct {
		Kind Kind `json:"kind"`
		Rest
	}{KindRest, e}
}

func (v *encoder) VisitWeight(e Weight) {
	v.out = struct {
		Kind Kind `json:"kind"`
		Weight
	}{KindWeight, e}
}

func (v *encoder) VisitBodyFat(e BodyFat) {
	v.out = struct {
		Kind Kind `json:"kind"`
		BodyFat
	}{KindBodyFat, e}
}

func (v *encoder) VisitFood(e Food) {
	v.out = struct {
		Kind Kind `json:"kind"`
		Food
	}{KindFood, e}
}

// ParseKind maps a wire kind to a Kind, accepting the legacy "bfp" spelling
func ParseKind(s string) (Kind, bool) {
	if s == "bfp" {
		return KindBodyFat, true
	}
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// ParseSource maps a wire source to a Source; "llm" is an alias for model
func ParseSource(s string) (Source, bool) {
	switch s {
	case string(SourceHeuristic):
		return SourceHeuristic, true
	case string(SourceModel), "llm":
		return SourceModel, true
	}
	return "", false
}

// wholeNumber reads integer fields written as any JSON number, e.g. 500.0
type wholeNumber float64

func (n wholeNumber) int() int {
	return int(math.Round(float64(n)))
}

// DecodeEvent decodes one tagged event. Integer fields accept fractional
// numbers and are rounded.
func DecodeEvent(data []byte) (Event, error) {
	var head struct {
		Kind   string `json:"kind"`
		Source string `json:"source"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	kind, ok := ParseKind(head.Kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, head.Kind)
	}

	var (
		e   Event
		err error
	)
	switch kind {
	case KindDrink:
		var v struct {
			Drink
			VolumeMl wholeNumber `json:"volumeMl"`
		}
		err = json.Unmarshal(data, &v)
		v.Drink.VolumeMl = v.VolumeMl.int()
		e = v.Drink
	case KindProtein:
		var v Protein
		err = json.Unmarshal(data, &v)
		e = v
	case KindPushups:
		var v struct {
			Pushups
			Count wholeNumber `json:"count"`
		}
		err = json.Unmarshal(data, &v)
		v.Pushups.Count = v.Count.int()
		e = v.Pushups
	case KindWorkout:
		var v struct {
			Workout
			DurationMin wholeNumber `json:"durationMin"`
		}
		err = json.Unmarshal(data, &v)
		v.Workout.DurationMin = v.DurationMin.int()
		e = v.Workout
	case KindRest:
		var v Rest
		err = json.Unmarshal(data, &v)
		e = v
	case KindWeight:
		var v Weight
		err = json.Unmarshal(data, &v)
		e = v
	case KindBodyFat:
		var v BodyFat
		err = json.Unmarshal(data, &v)
		e = v
	case KindFood:
		var v Food
		err = json.Unmarshal(data, &v)
		e = v
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s event: %w", kind, err)
	}

	m := e.Base()
	if src, ok := ParseSource(head.Source); ok {
		m.Source = src
	}
	return e.WithBase(m), nil
}
