package schedule

import (
	"time"

	"github.com/TheSilent01/Calendar/internal/palette"
)

// Stats aggregates a schedule for the audit report.
type Stats struct {
	Total    int
	ByColor  map[palette.Color]int
	ByCourse map[string]int
	ByWeek   map[string]int
	First    time.Time
	Last     time.Time
}

// Collect computes schedule statistics. Rows whose dates do not parse are
// counted in the totals but skipped for the date range.
func Collect(rows []Row, loc *time.Location) *Stats {
	if loc == nil {
		loc = time.Local
	}
	stats := &Stats{
		Total:    len(rows),
		ByColor:  make(map[palette.Color]int),
		ByCourse: make(map[string]int),
		ByWeek:   make(map[string]int),
	}
	for i := range rows {
		r := &rows[i]
		stats.ByColor[r.Color]++
		stats.ByCourse[r.Course()]++
		if week, ok := WeekLabel(r.Description); ok {
			stats.ByWeek[week]++
		}
		start, err := r.Start(loc)
		if err != nil {
			continue
		}
		if stats.First.IsZero() || start.Before(stats.First) {
			stats.First = start
		}
		if start.After(stats.Last) {
			stats.Last = start
		}
	}
	return stats
}
