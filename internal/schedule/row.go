package schedule

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/TheSilent01/Calendar/internal/palette"
)

// CSV layouts for the schedule format.
const (
	DateLayout = "01/02/2006"
	TimeLayout = "03:04 PM"
)

// Header is the canonical column order of a schedule file. The Color column
// is appended by organize; input files without it are accepted.
var Header = []string{
	"Subject", "Start Date", "Start Time", "End Date", "End Time",
	"All Day Event", "Description", "Location", "Private", "Color",
}

// Row is one class session in the schedule.
type Row struct {
	Subject     string
	StartDate   string
	StartTime   string
	EndDate     string
	EndTime     string
	AllDay      bool
	Description string
	Location    string
	Private     bool
	Color       palette.Color
}

// Start returns the row's start instant in loc. All-day rows resolve to
// midnight of the start date.
func (r *Row) Start(loc *time.Location) (time.Time, error) {
	return r.instant(r.StartDate, r.StartTime, loc)
}

// End returns the row's end instant in loc.
func (r *Row) End(loc *time.Location) (time.Time, error) {
	return r.instant(r.EndDate, r.EndTime, loc)
}

func (r *Row) instant(date, clock string, loc *time.Location) (time.Time, error) {
	if r.AllDay || clock == "" {
		return time.ParseInLocation(DateLayout, date, loc)
	}
	return time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+clock, loc)
}

// Course returns the course name for calendar grouping: the subject with any
// " — Sec…" or " — …" suffix removed.
func (r *Row) Course() string {
	subj := strings.TrimSpace(r.Subject)
	if subj == "" {
		return "Unknown"
	}
	if i := strings.Index(subj, " — "); i >= 0 {
		return strings.TrimSpace(subj[:i])
	}
	return subj
}

// Signature is the dedupe key: two rows with the same subject and the same
// start and end instants describe the same session, whatever their other
// columns say.
func (r *Row) Signature(loc *time.Location) (string, error) {
	start, err := r.Start(loc)
	if err != nil {
		return "", err
	}
	end, err := r.End(loc)
	if err != nil {
		return "", err
	}
	return EventSignature(r.Subject, start, end), nil
}

// EventSignature builds the (title, start, end) uniqueness key shared with
// the remote reconciler.
func EventSignature(title string, start, end time.Time) string {
	return title + "|" + start.Format(time.RFC3339) + "|" + end.Format(time.RFC3339)
}

// weekPattern accepts both label conventions found in descriptions:
// a bare token like "S14" and free text like "Week 14".
var weekPattern = regexp.MustCompile(`\b(?:[Ww]eek\s+|S)(\d{1,2})\b`)

// WeekLabel extracts the canonical week label ("S14") from a description.
// The second return value is false when no label is present.
func WeekLabel(description string) (string, bool) {
	m := weekPattern.FindStringSubmatch(description)
	if m == nil {
		return "", false
	}
	return "S" + m[1], true
}

// DefaultWeeks is the expected week-label set for the term, S14 through S26.
func DefaultWeeks() []string {
	weeks := make([]string, 0, 13)
	for n := 14; n <= 26; n++ {
		weeks = append(weeks, fmt.Sprintf("S%d", n))
	}
	return weeks
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true
	}
	return false
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
