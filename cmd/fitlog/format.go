package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pbaille/fitlog/internal/domain"
	"github.com/pbaille/fitlog/internal/tracking"
)

// parseSport reads key[:minutes[:intensity]]
func parseSport(s string) (domain.SportKey, domain.SportEntry, error) {
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return "", domain.SportEntry{}, fmt.Errorf("invalid sport %q: want key[:minutes[:intensity]]", s)
	}

	key := domain.SportKey(strings.ToLower(strings.TrimSpace(parts[0])))
	known := false
	for _, k := range tracking.SportKeys {
		if k == key {
			known = true
			break
		}
	}
	if !known {
		return "", domain.SportEntry{}, fmt.Errorf("unknown sport %q", parts[0])
	}

	entry := domain.SportEntry{Active: true}
	if len(parts) > 1 && parts[1] != "" {
		n, err := strconv.Atoi(parts[1])
		if err != nil || n < 0 {
			return "", domain.SportEntry{}, fmt.Errorf("invalid duration %q", parts[1])
		}
		entry.Duration = n
	}
	if len(parts) > 2 && parts[2] != "" {
		n, err := strconv.Atoi(parts[2])
		if err != nil || n < 1 || n > 10 {
			return "", domain.SportEntry{}, fmt.Errorf("invalid intensity %q: want 1-10", parts[2])
		}
		entry.Intensity = n
	}
	return key, entry, nil
}

func formatDay(d domain.DailyTracking) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  water %d ml  protein %s g", d.Date, d.Water, strconv.FormatFloat(d.Protein, 'f', -1, 64))
	if d.Calories > 0 {
		fmt.Fprintf(&b, "  %s kcal", strconv.FormatFloat(d.Calories, 'f', -1, 64))
	}
	if d.Pushups != nil {
		fmt.Fprintf(&b, "  pushups %d", d.Pushups.Total)
	}
	if d.Weight != nil && d.Weight.Value != nil {
		fmt.Fprintf(&b, "  %s kg", strconv.FormatFloat(*d.Weight.Value, 'f', -1, 64))
	}

	var active []string
	for _, k := range tracking.SportKeys {
		e, ok := d.Sports[k]
		if !ok || !e.Active {
			continue
		}
		s := string(k)
		if e.Duration > 0 {
			s += " " + strconv.Itoa(e.Duration) + "m"
		}
		active = append(active, s)
	}
	if len(active) > 0 {
		fmt.Fprintf(&b, "  [%s]", strings.Join(active, ", "))
	}
	if d.Completed {
		b.WriteString("  done")
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) <= 10 {
		return id
	}
	return id[:10]
}

func truncate(s string, max int) string {
	// Replace newlines with spaces for display
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
