package schedule

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/TheSilent01/Calendar/internal/palette"
)

// FileError is a fatal file-level failure; it carries the path so the user
// can fix and rerun.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// Load reads a schedule CSV. Input must be UTF-8; a leading BOM is
// tolerated. Files with or without the trailing Color column are accepted.
func Load(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &FileError{Path: path, Err: err}
	}
	defer f.Close()

	rows, err := Read(f)
	if err != nil {
		return nil, &FileError{Path: path, Err: err}
	}
	return rows, nil
}

// Read decodes schedule rows from r. Exposed separately so tests and the
// extract pipeline can parse without touching the filesystem.
func Read(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	field := func(record []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var rows []Row
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(rows)+2, err)
		}
		rows = append(rows, Row{
			Subject:     field(record, "Subject"),
			StartDate:   field(record, "Start Date"),
			StartTime:   field(record, "Start Time"),
			EndDate:     field(record, "End Date"),
			EndTime:     field(record, "End Time"),
			AllDay:      parseBool(field(record, "All Day Event")),
			Description: field(record, "Description"),
			Location:    field(record, "Location"),
			Private:     parseBool(field(record, "Private")),
			Color:       palette.Color(field(record, "Color")),
		})
	}
	return rows, nil
}

// Write saves rows to path with the canonical header. When backup is true
// and the target already exists, it is first copied to "<path>.bak".
func Write(rows []Row, path string, backup bool) error {
	if backup {
		if _, err := os.Stat(path); err == nil {
			if err := copyFile(path, path+".bak"); err != nil {
				return &FileError{Path: path + ".bak", Err: err}
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return &FileError{Path: path, Err: err}
	}
	defer f.Close()

	if err := writeCSV(f, rows); err != nil {
		return &FileError{Path: path, Err: err}
	}
	return nil
}

func writeCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for i := range rows {
		r := &rows[i]
		record := []string{
			r.Subject, r.StartDate, r.StartTime, r.EndDate, r.EndTime,
			formatBool(r.AllDay), r.Description, r.Location,
			formatBool(r.Private), string(r.Color),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SplitByColor partitions rows by color into one file per color under dir,
// named "<base>_<color>.csv". Returns the written paths keyed by color.
func SplitByColor(rows []Row, dir, base string) (map[palette.Color]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &FileError{Path: dir, Err: err}
	}

	byColor := make(map[palette.Color][]Row)
	for _, r := range rows {
		byColor[r.Color] = append(byColor[r.Color], r)
	}

	written := make(map[palette.Color]string, len(byColor))
	for color, colorRows := range byColor {
		name := string(color)
		if name == "" {
			name = string(palette.Graphite)
		}
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.csv", base, name))
		if err := Write(colorRows, path, false); err != nil {
			return written, err
		}
		written[color] = path
	}
	return written, nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
