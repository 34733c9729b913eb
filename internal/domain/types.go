package domain

import "time"

// Note is a journal entry and the events extracted from it
type Note struct {
	ID          string       `json:"id"`
	TS          int64        `json:"ts"`
	Raw         string       `json:"raw"`
	Summary     string       `json:"summary"`
	Events      EventList    `json:"events"`
	Pending     bool         `json:"pending,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment is an opaque file reference carried with a note
type Attachment struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Type        string `json:"type"`
	StoragePath string `json:"storagePath,omitempty"`
}

// Time returns the note's creation time
func (n Note) Time() time.Time {
	return time.UnixMilli(n.TS)
}

// IsManual reports whether the note was entered without auto-tracking.
// Manual notes are never re-extracted.
func (n Note) IsManual() bool {
	return len(n.Events) == 0 && n.Summary == n.Raw && !n.Pending
}

// DayKey formats t as a calendar date in loc
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DayLayout)
}

// DayLayout is the layout of day keys (YYYY-MM-DD)
const DayLayout = "2006-01-02"
