// Package sync reconciles the local schedule against remote calendar state:
// it computes and applies the minimal set of remote mutations so that every
// course has a calendar and every valid row has exactly one event.
package sync

import (
	"context"
	"errors"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/TheSilent01/Calendar/internal/gcal"
	"github.com/TheSilent01/Calendar/internal/schedule"
)

// Options controls a reconciliation run.
type Options struct {
	// DryRun performs every lookup and fills the report without issuing
	// mutating calls.
	DryRun bool
	// DeleteExisting removes a course's current remote events before
	// creating the local ones.
	DeleteExisting bool
	// Filter restricts processing to courses containing this substring.
	Filter string
}

// RowFailure records one row the reconciler could not push.
type RowFailure struct {
	Row    int
	Course string
	Err    error
}

// Report accumulates the outcome of a reconciliation run.
type Report struct {
	Courses          int
	CalendarsCreated int
	Created          int
	Skipped          int
	Deleted          int

	// Would* counters are the dry-run mirror of the mutation counters above.
	WouldCreateCalendars int
	WouldCreate          int
	WouldDelete          int

	// SkippedCourses lists courses abandoned after their calendar could not
	// be created or read; their rows were not attempted.
	SkippedCourses []string
	Failures       []RowFailure
}

// Mutations is the number of remote mutations the run issued.
func (r *Report) Mutations() int {
	return r.CalendarsCreated + r.Created + r.Deleted
}

// Reconciler drives a gateway from local schedule rows. Strictly
// sequential; the gateway owns pacing and retries.
type Reconciler struct {
	gw  gcal.Gateway
	loc *time.Location
}

func New(gw gcal.Gateway, loc *time.Location) *Reconciler {
	if loc == nil {
		loc = time.Local
	}
	return &Reconciler{gw: gw, loc: loc}
}

// fatal reports whether err must abort the whole run rather than a single
// row or course.
func fatal(err error) bool {
	var authErr *gcal.AuthError
	var quotaErr *gcal.QuotaError
	return errors.As(err, &authErr) || errors.As(err, &quotaErr) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Sync ensures a calendar exists per distinct course and an event exists per
// row. Courses process in first-seen input order; rows in input order within
// each course. Running twice against unchanged state issues zero mutations
// the second time.
func (r *Reconciler) Sync(ctx context.Context, rows []schedule.Row, opts Options) (*Report, error) {
	report := &Report{}

	courses, byCourse := groupByCourse(rows, opts.Filter)
	report.Courses = len(courses)

	remote, err := r.gw.ListCalendars(ctx)
	if err != nil {
		return report, err
	}
	calendarIDs := make(map[string]string, len(remote))
	for _, cal := range remote {
		calendarIDs[cal.Title] = cal.ID
	}

	for _, course := range courses {
		courseRows := byCourse[course]
		if err := r.syncCourse(ctx, course, courseRows, calendarIDs, opts, report); err != nil {
			if fatal(err) {
				return report, err
			}
			log.Printf("warning: skipping course %q: %v", course, err)
			report.SkippedCourses = append(report.SkippedCourses, course)
		}
	}

	return report, nil
}

type indexedRow struct {
	row int // CSV row number (header = 1)
	schedule.Row
}

func groupByCourse(rows []schedule.Row, filter string) ([]string, map[string][]indexedRow) {
	var courses []string
	byCourse := make(map[string][]indexedRow)
	for i, row := range rows {
		course := row.Course()
		if filter != "" && !strings.Contains(strings.ToLower(course), strings.ToLower(filter)) {
			continue
		}
		if _, seen := byCourse[course]; !seen {
			courses = append(courses, course)
		}
		byCourse[course] = append(byCourse[course], indexedRow{row: i + 2, Row: row})
	}
	return courses, byCourse
}

// syncCourse reconciles one course. A returned error means the whole course
// was abandoned; per-row failures are recorded in the report instead.
func (r *Reconciler) syncCourse(ctx context.Context, course string, rows []indexedRow, calendarIDs map[string]string, opts Options, report *Report) error {
	calID, exists := calendarIDs[course]

	existing := make(map[string]string) // signature -> event ID
	if exists {
		events, err := r.gw.ListEvents(ctx, calID)
		if err != nil {
			return err
		}
		for _, ev := range events {
			sig := schedule.EventSignature(ev.Title, ev.Start, ev.End)
			if _, dup := existing[sig]; !dup {
				existing[sig] = ev.ID
			}
		}

		if opts.DeleteExisting {
			for sig, id := range existing {
				if opts.DryRun {
					report.WouldDelete++
					delete(existing, sig)
					continue
				}
				if err := r.gw.DeleteEvent(ctx, calID, id); err != nil {
					if fatal(err) {
						return err
					}
					log.Printf("warning: failed to delete event %s: %v", id, err)
					continue
				}
				report.Deleted++
				delete(existing, sig)
			}
		}
	} else {
		colorID := courseColorID(rows)
		if opts.DryRun {
			log.Printf("dry-run: would create calendar %q", course)
			report.WouldCreateCalendars++
		} else {
			id, err := r.gw.CreateCalendar(ctx, course, colorID)
			if err != nil {
				return err
			}
			calID = id
			calendarIDs[course] = id
			report.CalendarsCreated++
		}
	}

	for _, row := range rows {
		start, err := row.Start(r.loc)
		if err != nil {
			report.Failures = append(report.Failures, RowFailure{Row: row.row, Course: course, Err: err})
			continue
		}
		end, err := row.End(r.loc)
		if err != nil {
			report.Failures = append(report.Failures, RowFailure{Row: row.row, Course: course, Err: err})
			continue
		}

		sig := schedule.EventSignature(row.Subject, start, end)
		if _, ok := existing[sig]; ok {
			report.Skipped++
			continue
		}

		if opts.DryRun {
			report.WouldCreate++
			continue
		}

		event := &gcal.Event{
			Title:       row.Subject,
			Description: row.Description,
			Location:    row.Location,
			Start:       start,
			End:         end,
			AllDay:      row.AllDay,
		}
		if err := r.gw.CreateEvent(ctx, calID, event); err != nil {
			if fatal(err) {
				return err
			}
			report.Failures = append(report.Failures, RowFailure{Row: row.row, Course: course, Err: err})
			continue
		}
		report.Created++
		existing[sig] = "" // guard against duplicate rows within the input
	}

	return nil
}

// courseColorID picks the calendar color from the first colored row.
func courseColorID(rows []indexedRow) string {
	for _, row := range rows {
		if row.Color != "" {
			return row.Color.CalendarColorID()
		}
	}
	return ""
}

// Dedupe removes duplicate events per calendar, keeping the first event of
// each (title, start, end) signature. Filter restricts which calendars are
// scanned; the primary calendar is never touched.
func (r *Reconciler) Dedupe(ctx context.Context, filter string, opts Options) (*Report, error) {
	report := &Report{}

	calendars, err := r.gw.ListCalendars(ctx)
	if err != nil {
		return report, err
	}

	for _, cal := range calendars {
		if cal.Primary {
			continue
		}
		if filter != "" && !strings.Contains(strings.ToLower(cal.Title), strings.ToLower(filter)) {
			continue
		}

		events, err := r.gw.ListEvents(ctx, cal.ID)
		if err != nil {
			if fatal(err) {
				return report, err
			}
			log.Printf("warning: skipping calendar %q: %v", cal.Title, err)
			report.SkippedCourses = append(report.SkippedCourses, cal.Title)
			continue
		}

		seen := make(map[string]bool, len(events))
		for _, ev := range events {
			sig := schedule.EventSignature(ev.Title, ev.Start, ev.End)
			if !seen[sig] {
				seen[sig] = true
				continue
			}
			if opts.DryRun {
				report.WouldDelete++
				continue
			}
			if err := r.gw.DeleteEvent(ctx, cal.ID, ev.ID); err != nil {
				if fatal(err) {
					return report, err
				}
				report.Failures = append(report.Failures, RowFailure{Course: cal.Title, Err: err})
				continue
			}
			report.Deleted++
		}
	}

	return report, nil
}

// PruneReport lists what a prune run removed and what it left alone.
type PruneReport struct {
	Deleted     []string
	WouldDelete []string
	Protected   []string
	Failures    []RowFailure
}

// Prune deletes every calendar whose title matches none of the protected
// keywords. The primary calendar is always protected.
func (r *Reconciler) Prune(ctx context.Context, protected []string, opts Options) (*PruneReport, error) {
	report := &PruneReport{}

	calendars, err := r.gw.ListCalendars(ctx)
	if err != nil {
		return report, err
	}

	for _, cal := range calendars {
		if cal.Primary || isProtected(cal.Title, protected) {
			report.Protected = append(report.Protected, cal.Title)
			continue
		}
		if opts.DryRun {
			report.WouldDelete = append(report.WouldDelete, cal.Title)
			continue
		}
		if err := r.gw.DeleteCalendar(ctx, cal.ID); err != nil {
			if fatal(err) {
				return report, err
			}
			report.Failures = append(report.Failures, RowFailure{Course: cal.Title, Err: err})
			continue
		}
		report.Deleted = append(report.Deleted, cal.Title)
	}

	return report, nil
}

func isProtected(title string, protected []string) bool {
	lower := strings.ToLower(title)
	for _, keyword := range protected {
		if strings.Contains(lower, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

// MatchCalendars returns the calendars whose titles match the pattern
// (case-insensitive regular expression).
func (r *Reconciler) MatchCalendars(ctx context.Context, pattern string) ([]gcal.Calendar, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, err
	}
	calendars, err := r.gw.ListCalendars(ctx)
	if err != nil {
		return nil, err
	}
	var matches []gcal.Calendar
	for _, cal := range calendars {
		if cal.Primary {
			continue
		}
		if re.MatchString(cal.Title) {
			matches = append(matches, cal)
		}
	}
	return matches, nil
}

// DeleteCalendars removes the given calendars, recording per-calendar
// failures and aborting only on fatal errors.
func (r *Reconciler) DeleteCalendars(ctx context.Context, calendars []gcal.Calendar) (*PruneReport, error) {
	report := &PruneReport{}
	for _, cal := range calendars {
		if err := r.gw.DeleteCalendar(ctx, cal.ID); err != nil {
			if fatal(err) {
				return report, err
			}
			report.Failures = append(report.Failures, RowFailure{Course: cal.Title, Err: err})
			continue
		}
		report.Deleted = append(report.Deleted, cal.Title)
	}
	return report, nil
}
