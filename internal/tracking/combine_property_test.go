package tracking

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/pbaille/fitlog/internal/domain"
)

func dayGen() *rapid.Generator[string] {
	return rapid.SampledFrom([]string{"2024-05-01", "2024-05-02", "2024-05-03", "2024-05-04", "2024-05-05"})
}

// TestPropertyCombineKeepsEveryDay checks that the combined key set is the
// union of both inputs.
func TestPropertyCombineKeepsEveryDay(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		manual := rapid.MapOf(dayGen(), rapid.Custom(func(t *rapid.T) domain.DailyTracking {
			return domain.DailyTracking{Water: rapid.IntRange(0, 3000).Draw(t, "water")}
		})).Draw(rt, "manual")
		contrib := rapid.MapOf(dayGen(), rapid.Custom(func(t *rapid.T) domain.Contribution {
			return domain.Contribution{Pushups: rapid.IntRange(0, 100).Draw(t, "pushups")}
		})).Draw(rt, "contrib")

		got := Combine(manual, contrib)

		want := map[string]bool{}
		for k := range manual {
			want[k] = true
		}
		for k := range contrib {
			want[k] = true
		}
		if len(got) != len(want) {
			rt.Fatalf("got %d days, want %d", len(got), len(want))
		}
		for k := range want {
			rec, ok := got[k]
			if !ok {
				rt.Fatalf("day %s missing", k)
			}
			if rec.Date != k {
				rt.Fatalf("day %s has date %q", k, rec.Date)
			}
			if rec.Water != manual[k].Water {
				rt.Fatalf("day %s water %d, want %d", k, rec.Water, manual[k].Water)
			}
		}
	})
}
