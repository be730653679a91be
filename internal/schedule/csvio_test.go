package schedule

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheSilent01/Calendar/internal/palette"
)

const sampleCSV = `Subject,Start Date,Start Time,End Date,End Time,All Day Event,Description,Location,Private
Analyse 4 MOUZOUN,02/12/2026,04:30 PM,02/12/2026,06:30 PM,False,Section 6 - Week 14,Room B12,True
Optique,02/13/2026,08:30 AM,02/13/2026,10:30 AM,False,S15 - TD,Amphi 2,True
`

func TestRead_WithoutColorColumn(t *testing.T) {
	rows, err := Read(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Analyse 4 MOUZOUN", rows[0].Subject)
	assert.Equal(t, "02/12/2026", rows[0].StartDate)
	assert.Equal(t, "04:30 PM", rows[0].StartTime)
	assert.True(t, rows[0].Private)
	assert.False(t, rows[0].AllDay)
	assert.Empty(t, rows[0].Color)
}

func TestRead_WithColorColumn(t *testing.T) {
	input := `Subject,Start Date,Start Time,End Date,End Time,All Day Event,Description,Location,Private,Color
Optique,02/13/2026,08:30 AM,02/13/2026,10:30 AM,False,S15,Amphi 2,True,Lavender
`
	rows, err := Read(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, palette.Lavender, rows[0].Color)
}

func TestRead_StripsBOM(t *testing.T) {
	rows, err := Read(strings.NewReader("\ufeff" + sampleCSV))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Analyse 4 MOUZOUN", rows[0].Subject)
}

func TestRead_ReorderedColumns(t *testing.T) {
	input := `Start Date,Subject,Start Time,End Date,End Time
02/13/2026,Optique,08:30 AM,02/13/2026,10:30 AM
`
	rows, err := Read(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Optique", rows[0].Subject)
	assert.Equal(t, "02/13/2026", rows[0].StartDate)
}

func TestRead_Empty(t *testing.T) {
	rows, err := Read(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	in := []Row{
		{
			Subject: "Optique", StartDate: "02/13/2026", StartTime: "08:30 AM",
			EndDate: "02/13/2026", EndTime: "10:30 AM",
			Description: "S15 - TD", Location: "Amphi 2",
			Private: true, Color: palette.Lavender,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, writeCSV(&buf, in))

	out, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestWrite_BackupOnOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schedule.csv")
	rows := []Row{{Subject: "Optique", StartDate: "02/13/2026", StartTime: "08:30 AM", EndDate: "02/13/2026", EndTime: "10:30 AM"}}

	require.NoError(t, Write(rows, path, true))
	_, err := os.Stat(path + ".bak")
	assert.True(t, os.IsNotExist(err), "no backup on first write")

	rows[0].Location = "Amphi 2"
	require.NoError(t, Write(rows, path, true))
	_, err = os.Stat(path + ".bak")
	require.NoError(t, err, "backup expected once the target exists")

	backup, err := Load(path + ".bak")
	require.NoError(t, err)
	require.Len(t, backup, 1)
	assert.Empty(t, backup[0].Location, "backup holds the previous contents")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)

	var fe *FileError
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe.Path, "nope.csv")
}

func TestSplitByColor(t *testing.T) {
	dir := t.TempDir()
	rows := []Row{
		{Subject: "Optique", StartDate: "02/13/2026", StartTime: "08:30 AM", EndDate: "02/13/2026", EndTime: "10:30 AM", Color: palette.Lavender},
		{Subject: "Optique TD", StartDate: "02/14/2026", StartTime: "08:30 AM", EndDate: "02/14/2026", EndTime: "10:30 AM", Color: palette.Lavender},
		{Subject: "Analyse 4", StartDate: "02/12/2026", StartTime: "04:30 PM", EndDate: "02/12/2026", EndTime: "06:30 PM", Color: palette.Tomato},
	}

	written, err := SplitByColor(rows, dir, "schedule")
	require.NoError(t, err)
	require.Len(t, written, 2)
	assert.Equal(t, filepath.Join(dir, "schedule_Lavender.csv"), written[palette.Lavender])

	lavender, err := Load(written[palette.Lavender])
	require.NoError(t, err)
	assert.Len(t, lavender, 2)

	tomato, err := Load(written[palette.Tomato])
	require.NoError(t, err)
	assert.Len(t, tomato, 1)
}

func TestSignature_StableAcrossColor(t *testing.T) {
	loc := time.UTC
	a := Row{Subject: "Optique", StartDate: "02/13/2026", StartTime: "08:30 AM", EndDate: "02/13/2026", EndTime: "10:30 AM"}
	b := a
	b.Color = palette.Lavender
	b.Location = "Amphi 2"

	sa, err := a.Signature(loc)
	require.NoError(t, err)
	sb, err := b.Signature(loc)
	require.NoError(t, err)
	assert.Equal(t, sa, sb)
}
