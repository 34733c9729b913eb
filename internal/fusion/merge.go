package fusion

import (
	"slices"

	"github.com/pbaille/fitlog/internal/domain"
)

// Merge reconciles local (heuristic) events with enriched (model) events.
//
// Local events are keyed by fingerprint. Each enriched event is matched by
// fingerprint first and by similarity second; unmatched events are added,
// matched ones replace the existing entry only when their confidence is at
// least as high, with ties going to the enriched event. Values are never
// averaged: one event wins outright.
//
// The enriched pass is repeated until the result stops changing, so
// Merge(Merge(a, b), b) equals Merge(a, b).
func Merge(local, enriched []domain.Event) []domain.Event {
	t := newTable(local, enriched)
	limit := (len(local) + len(enriched) + 1) * (len(enriched) + 1)
	for pass := 0; pass < limit; pass++ {
		before := slices.Clone(t.slots)
		for _, e := range enriched {
			t.offer(e)
		}
		if slices.Equal(before, t.slots) {
			break
		}
	}
	return t.events()
}

type slot struct {
	key   string
	event domain.Event
}

// table is an insertion-ordered map from fingerprint to event. Every key
// equals the fingerprint of the event stored under it.
type table struct {
	slots    []slot
	index    map[string]int
	enriched []domain.Event
}

func newTable(local, enriched []domain.Event) *table {
	t := &table{index: make(map[string]int, len(local)), enriched: enriched}
	for _, e := range local {
		key := Fingerprint(e)
		if i, ok := t.index[key]; ok {
			t.slots[i].event = e
			continue
		}
		t.index[key] = len(t.slots)
		t.slots = append(t.slots, slot{key: key, event: e})
	}
	return t
}

// rank orders equally confident events: the position of the last identical
// event in the enriched list, or -1 for events only known locally.
func (t *table) rank(e domain.Event) int {
	for i := len(t.enriched) - 1; i >= 0; i-- {
		if t.enriched[i] == e {
			return i
		}
	}
	return -1
}

func (t *table) beats(incoming, current domain.Event) bool {
	if incoming == current {
		return false
	}
	ic, cc := incoming.Base().Confidence, current.Base().Confidence
	if ic != cc {
		return ic > cc
	}
	return t.rank(incoming) > t.rank(current)
}

func (t *table) resolve(e domain.Event) (int, bool) {
	if i, ok := t.index[Fingerprint(e)]; ok {
		return i, true
	}
	for i, s := range t.slots {
		if Similar(s.event, e) {
			return i, true
		}
	}
	return -1, false
}

func (t *table) offer(e domain.Event) {
	i, ok := t.resolve(e)
	if !ok {
		key := Fingerprint(e)
		t.index[key] = len(t.slots)
		t.slots = append(t.slots, slot{key: key, event: e})
		return
	}
	current := t.slots[i]
	if !t.beats(e, current.event) {
		return
	}
	// resolve only falls back to similarity when the fingerprint is absent,
	// so re-keying cannot collide with another slot
	delete(t.index, current.key)
	key := Fingerprint(e)
	t.slots[i] = slot{key: key, event: e}
	t.index[key] = i
}

func (t *table) events() []domain.Event {
	out := make([]domain.Event, 0, len(t.slots))
	for _, s := range t.slots {
		out = append(out, s.event)
	}
	return out
}

// SortByKind orders events by kind for display, keeping the relative order
// of events of the same kind.
func SortByKind(events []domain.Event) {
	rank := make(map[domain.Kind]int, len(domain.Kinds))
	for i, k := range domain.Kinds {
		rank[k] = i
	}
	slices.SortStableFunc(events, func(a, b domain.Event) int {
		return rank[a.Kind()] - rank[b.Kind()]
	})
}
