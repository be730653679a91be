package ics

import (
	"bytes"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheSilent01/Calendar/internal/palette"
	"github.com/TheSilent01/Calendar/internal/schedule"
)

func TestExport(t *testing.T) {
	rows := []schedule.Row{
		{
			Subject: "Analyse 4", StartDate: "02/12/2026", StartTime: "04:30 PM",
			EndDate: "02/12/2026", EndTime: "06:30 PM",
			Description: "Week 14", Location: "Room B12",
			Private: true, Color: palette.Tomato,
		},
		{
			Subject: "Semaine 20", StartDate: "04/13/2026",
			EndDate: "04/17/2026", AllDay: true,
		},
	}

	var buf bytes.Buffer
	written, skipped, err := Export(&buf, rows, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 2, written)
	assert.Equal(t, 0, skipped)

	cal, err := ical.NewDecoder(&buf).Decode()
	require.NoError(t, err)

	events := cal.Events()
	require.Len(t, events, 2)

	summary, err := events[0].Props.Text(ical.PropSummary)
	require.NoError(t, err)
	assert.Equal(t, "Analyse 4", summary)

	class, err := events[0].Props.Text(ical.PropClass)
	require.NoError(t, err)
	assert.Equal(t, "PRIVATE", class)

	color, err := events[0].Props.Text(ical.PropColor)
	require.NoError(t, err)
	assert.Equal(t, "Tomato", color)

	start, err := events[0].DateTimeStart(time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 12, 16, 30, 0, 0, time.UTC), start)

	allDayStart, err := events[1].DateTimeStart(time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 4, 13, 0, 0, 0, 0, time.UTC), allDayStart)
}

func TestExport_SkipsUnparseableRows(t *testing.T) {
	rows := []schedule.Row{
		{Subject: "Broken", StartDate: "not-a-date", EndDate: "02/12/2026"},
		{
			Subject: "Optique", StartDate: "02/13/2026", StartTime: "08:30 AM",
			EndDate: "02/13/2026", EndTime: "10:30 AM",
		},
	}

	var buf bytes.Buffer
	written, skipped, err := Export(&buf, rows, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 1, written)
	assert.Equal(t, 1, skipped)
}

func TestExport_StableUIDs(t *testing.T) {
	rows := []schedule.Row{
		{
			Subject: "Optique", StartDate: "02/13/2026", StartTime: "08:30 AM",
			EndDate: "02/13/2026", EndTime: "10:30 AM",
		},
	}

	uid := func() string {
		var buf bytes.Buffer
		_, _, err := Export(&buf, rows, time.UTC)
		require.NoError(t, err)
		cal, err := ical.NewDecoder(&buf).Decode()
		require.NoError(t, err)
		events := cal.Events()
		require.Len(t, events, 1)
		id, err := events[0].Props.Text(ical.PropUID)
		require.NoError(t, err)
		return id
	}

	first := uid()
	assert.NotEmpty(t, first)
	assert.Equal(t, first, uid(), "re-export must produce the same UID")
}
