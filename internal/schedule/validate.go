package schedule

import (
	"fmt"
	"time"
)

// Issue is a single validation finding. Row numbers count the header as row
// 1, so the first data row reports as row 2.
type Issue struct {
	Row    int
	Field  string
	Reason string
}

func (i Issue) String() string {
	if i.Field == "" {
		return fmt.Sprintf("row %d: %s", i.Row, i.Reason)
	}
	return fmt.Sprintf("row %d: %s: %s", i.Row, i.Field, i.Reason)
}

// Report accumulates validation results for one schedule. Errors mark a row
// invalid and exclude it from organized output; warnings do not.
type Report struct {
	Total    int
	Errors   []Issue
	Warnings []Issue

	invalid map[int]bool // row index (0-based) -> failed a hard rule
}

// Valid is the number of rows that passed every hard rule.
func (r *Report) Valid() int {
	return r.Total - len(r.invalid)
}

// RowValid reports whether the row at index i passed validation.
func (r *Report) RowValid(i int) bool {
	return !r.invalid[i]
}

func (r *Report) errorf(idx int, field, format string, args ...any) {
	r.Errors = append(r.Errors, Issue{Row: idx + 2, Field: field, Reason: fmt.Sprintf(format, args...)})
	r.invalid[idx] = true
}

func (r *Report) warnf(idx int, field, format string, args ...any) {
	r.Warnings = append(r.Warnings, Issue{Row: idx + 2, Field: field, Reason: fmt.Sprintf(format, args...)})
}

// Validate checks every row against the schedule rules and returns the
// accumulated report. It never fails: malformed input produces issues, not
// errors. Rules, in order: required fields, date and time formats, end not
// before start, week-label membership (warning only), and duplicate
// (subject, start, end) signatures.
func Validate(rows []Row, weeks []string, loc *time.Location) *Report {
	report := &Report{Total: len(rows), invalid: make(map[int]bool)}
	expected := make(map[string]bool, len(weeks))
	for _, w := range weeks {
		expected[w] = true
	}

	seen := make(map[string]int) // signature -> first row number
	for i := range rows {
		row := &rows[i]

		if row.Subject == "" {
			report.errorf(i, "Subject", "missing subject")
		}
		if row.StartDate == "" {
			report.errorf(i, "Start Date", "missing start date")
		}
		if row.EndDate == "" {
			report.errorf(i, "End Date", "missing end date")
		}
		if !row.AllDay {
			if row.StartTime == "" {
				report.errorf(i, "Start Time", "missing start time")
			}
			if row.EndTime == "" {
				report.errorf(i, "End Time", "missing end time")
			}
		}
		if report.invalid[i] {
			continue
		}

		start, err := row.Start(loc)
		if err != nil {
			report.errorf(i, "Start Date", "invalid start %q %q", row.StartDate, row.StartTime)
		}
		end, err2 := row.End(loc)
		if err2 != nil {
			report.errorf(i, "End Date", "invalid end %q %q", row.EndDate, row.EndTime)
		}
		if report.invalid[i] {
			continue
		}

		if end.Before(start) {
			report.errorf(i, "End Time", "end %s before start %s",
				end.Format(time.RFC3339), start.Format(time.RFC3339))
			continue
		}

		if week, ok := WeekLabel(row.Description); ok && len(expected) > 0 && !expected[week] {
			report.warnf(i, "Description", "unexpected week %s (expected %v)", week, weeks)
		}

		sig := EventSignature(row.Subject, start, end)
		if first, dup := seen[sig]; dup {
			report.warnf(i, "", "duplicate of row %d (%s)", first, row.Subject)
		} else {
			seen[sig] = i + 2
		}

		if row.Color != "" && !row.Color.Valid() {
			report.errorf(i, "Color", "unknown color %q", row.Color)
		}
	}

	return report
}
