// Package ics renders an organized schedule as an iCalendar file so it can
// be imported into clients that do not speak the CSV format.
package ics

import (
	"crypto/sha1"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"

	"github.com/TheSilent01/Calendar/internal/schedule"
)

// Export writes rows as a VCALENDAR. Rows whose dates do not parse are
// skipped and counted in the returned skip total; everything else becomes
// one VEVENT.
func Export(w io.Writer, rows []schedule.Row, loc *time.Location) (written, skipped int, err error) {
	if loc == nil {
		loc = time.Local
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//gcal//schedule//EN")

	now := time.Now()
	for i := range rows {
		row := &rows[i]
		start, serr := row.Start(loc)
		if serr != nil {
			skipped++
			continue
		}
		end, eerr := row.End(loc)
		if eerr != nil {
			skipped++
			continue
		}

		vevent := ical.NewComponent(ical.CompEvent)
		vevent.Props.SetText(ical.PropUID, eventUID(row.Subject, start, end))
		vevent.Props.SetText(ical.PropSummary, row.Subject)
		if row.Description != "" {
			vevent.Props.SetText(ical.PropDescription, row.Description)
		}
		if row.Location != "" {
			vevent.Props.SetText(ical.PropLocation, row.Location)
		}
		if row.Private {
			vevent.Props.SetText(ical.PropClass, "PRIVATE")
		}
		if row.Color != "" {
			vevent.Props.SetText(ical.PropColor, string(row.Color))
		}

		if row.AllDay {
			dtstart := ical.NewProp("DTSTART")
			dtstart.SetDate(start)
			vevent.Props.Set(dtstart)
			dtend := ical.NewProp("DTEND")
			dtend.SetDate(end)
			vevent.Props.Set(dtend)
		} else {
			vevent.Props.SetDateTime("DTSTART", start)
			vevent.Props.SetDateTime("DTEND", end)
		}
		vevent.Props.SetDateTime(ical.PropDateTimeStamp, now)

		cal.Children = append(cal.Children, vevent)
		written++
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return written, skipped, fmt.Errorf("failed to encode calendar: %w", err)
	}
	return written, skipped, nil
}

// eventUID derives a stable UID from the dedupe signature so re-exports
// produce identical files.
func eventUID(title string, start, end time.Time) string {
	sum := sha1.Sum([]byte(schedule.EventSignature(title, start, end)))
	return fmt.Sprintf("%x@gcal", sum[:8])
}
