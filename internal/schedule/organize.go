package schedule

import (
	"sort"
	"time"

	"github.com/TheSilent01/Calendar/internal/palette"
)

// OrganizeOptions controls color attachment, validation, and ordering.
type OrganizeOptions struct {
	Resolver *palette.Resolver
	Weeks    []string
	Location *time.Location
	Sort     bool // sort by (palette order, start instant); otherwise keep input order
}

// Organize attaches colors, validates, and optionally sorts the schedule.
// Rows that fail a hard validation rule are excluded from the result and
// reported; the run itself never aborts on row-level problems. Rows that
// already carry a valid color keep it, so re-organizing colored output is a
// no-op for the color column.
func Organize(rows []Row, opts OrganizeOptions) ([]Row, *Report) {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	out := make([]Row, len(rows))
	copy(out, rows)
	for i := range out {
		if out[i].Color != "" && out[i].Color.Valid() {
			continue
		}
		color, _ := opts.Resolver.Resolve(out[i].Subject)
		out[i].Color = color
	}

	report := Validate(out, opts.Weeks, loc)

	kept := out[:0]
	for i := range out {
		if report.RowValid(i) {
			kept = append(kept, out[i])
		}
	}
	out = kept

	if opts.Sort {
		sort.SliceStable(out, func(i, j int) bool {
			ri, rj := palette.SortRank(out[i].Color), palette.SortRank(out[j].Color)
			if ri != rj {
				return ri < rj
			}
			si, _ := out[i].Start(loc)
			sj, _ := out[j].Start(loc)
			return si.Before(sj)
		})
	}

	return out, report
}
