package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheSilent01/Calendar/internal/palette"
)

func testOptions(t *testing.T, sort bool) OrganizeOptions {
	t.Helper()
	r, err := palette.NewResolver(nil)
	require.NoError(t, err)
	return OrganizeOptions{
		Resolver: r,
		Weeks:    DefaultWeeks(),
		Location: time.UTC,
		Sort:     sort,
	}
}

func TestOrganize_AttachesColors(t *testing.T) {
	rows := []Row{
		timedRow("Analyse 4 MOUZOUN", "02/12/2026", "04:30 PM", "06:30 PM"),
		timedRow("Unknown Course", "02/13/2026", "08:30 AM", "10:30 AM"),
	}

	out, report := Organize(rows, testOptions(t, false))
	require.Len(t, out, 2)
	assert.Equal(t, palette.Tomato, out[0].Color)
	assert.Equal(t, palette.Graphite, out[1].Color)
	assert.Empty(t, report.Errors)

	// Input rows must not be mutated.
	assert.Empty(t, rows[0].Color)
}

func TestOrganize_Idempotent(t *testing.T) {
	rows := []Row{
		timedRow("Analyse 4", "02/12/2026", "04:30 PM", "06:30 PM"),
	}

	once, _ := Organize(rows, testOptions(t, true))
	twice, _ := Organize(once, testOptions(t, true))
	assert.Equal(t, once, twice)
}

func TestOrganize_KeepsExistingValidColor(t *testing.T) {
	row := timedRow("Analyse 4", "02/12/2026", "04:30 PM", "06:30 PM")
	row.Color = palette.Basil // manual override in the file wins

	out, _ := Organize([]Row{row}, testOptions(t, false))
	require.Len(t, out, 1)
	assert.Equal(t, palette.Basil, out[0].Color)
}

func TestOrganize_ExcludesInvalidRows(t *testing.T) {
	rows := []Row{
		timedRow("Analyse 4", "02/12/2026", "04:30 PM", "06:30 PM"),
		timedRow("Optique", "not-a-date", "08:30 AM", "10:30 AM"),
	}

	out, report := Organize(rows, testOptions(t, false))
	require.Len(t, out, 1)
	assert.Equal(t, "Analyse 4", out[0].Subject)
	assert.Len(t, report.Errors, 1)
	assert.Equal(t, 1, report.Valid())
}

func TestOrganize_SortsByPaletteThenStart(t *testing.T) {
	unknown := timedRow("Unknown Course", "02/10/2026", "08:30 AM", "10:30 AM")
	analyseLate := timedRow("Analyse 4", "02/14/2026", "04:30 PM", "06:30 PM")
	analyseEarly := timedRow("Analyse 4", "02/12/2026", "04:30 PM", "06:30 PM")

	out, _ := Organize([]Row{unknown, analyseLate, analyseEarly}, testOptions(t, true))
	require.Len(t, out, 3)

	// Tomato sorts before Graphite; within a color, chronological.
	assert.Equal(t, "02/12/2026", out[0].StartDate)
	assert.Equal(t, "02/14/2026", out[1].StartDate)
	assert.Equal(t, "Unknown Course", out[2].Subject)
}

func TestOrganize_NoSortKeepsInputOrder(t *testing.T) {
	rows := []Row{
		timedRow("Unknown Course", "02/10/2026", "08:30 AM", "10:30 AM"),
		timedRow("Analyse 4", "02/12/2026", "04:30 PM", "06:30 PM"),
	}

	out, _ := Organize(rows, testOptions(t, false))
	require.Len(t, out, 2)
	assert.Equal(t, "Unknown Course", out[0].Subject)
}

func TestCollect(t *testing.T) {
	rows := []Row{
		{
			Subject: "Analyse 4", StartDate: "02/12/2026", StartTime: "04:30 PM",
			EndDate: "02/12/2026", EndTime: "06:30 PM",
			Description: "Week 14", Color: palette.Tomato,
		},
		{
			Subject: "Analyse 4 — Sec6", StartDate: "02/19/2026", StartTime: "04:30 PM",
			EndDate: "02/19/2026", EndTime: "06:30 PM",
			Description: "S15", Color: palette.Tomato,
		},
		{
			Subject: "Optique", StartDate: "02/13/2026", StartTime: "08:30 AM",
			EndDate: "02/13/2026", EndTime: "10:30 AM",
			Color: palette.Lavender,
		},
	}

	stats := Collect(rows, time.UTC)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.ByColor[palette.Tomato])
	assert.Equal(t, 2, stats.ByCourse["Analyse 4"])
	assert.Equal(t, 1, stats.ByWeek["S14"])
	assert.Equal(t, 1, stats.ByWeek["S15"])
	assert.Equal(t, "02/12/2026", stats.First.Format(DateLayout))
	assert.Equal(t, "02/19/2026", stats.Last.Format(DateLayout))
}
