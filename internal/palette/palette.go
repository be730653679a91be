package palette

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Color is one of the Google Calendar colors used to categorize courses.
type Color string

const (
	Tomato    Color = "Tomato"
	Flamingo  Color = "Flamingo"
	Tangerine Color = "Tangerine"
	Banana    Color = "Banana"
	Sage      Color = "Sage"
	Basil     Color = "Basil"
	Peacock   Color = "Peacock"
	Blueberry Color = "Blueberry"
	Lavender  Color = "Lavender"
	Grape     Color = "Grape"
	Citron    Color = "Citron"

	// Graphite is the reserved fallback for subjects no mapping matches.
	Graphite Color = "Graphite"
)

// Order is the canonical palette order, used when sorting rows by color.
// Graphite sorts last so uncategorized rows end up at the bottom.
var Order = []Color{
	Tomato, Flamingo, Tangerine, Banana,
	Sage, Basil, Peacock, Blueberry,
	Lavender, Grape, Citron, Graphite,
}

// calendarColorIDs maps palette colors to Google calendar-list color IDs
// (the 24-entry calendar palette, not the event palette).
var calendarColorIDs = map[Color]string{
	Tomato:    "3",
	Flamingo:  "2",
	Tangerine: "4",
	Banana:    "12",
	Sage:      "13",
	Basil:     "8",
	Peacock:   "14",
	Blueberry: "16",
	Lavender:  "17",
	Grape:     "23",
	Citron:    "11",
	Graphite:  "19",
}

// CalendarColorID returns the Google calendar-list color ID for c.
// Unknown colors fall back to Graphite's ID.
func (c Color) CalendarColorID() string {
	if id, ok := calendarColorIDs[c]; ok {
		return id
	}
	return calendarColorIDs[Graphite]
}

// Valid reports whether c belongs to the palette.
func (c Color) Valid() bool {
	_, ok := calendarColorIDs[c]
	return ok
}

// SortRank returns c's position in the palette order. Colors outside the
// palette rank after everything else.
func SortRank(c Color) int {
	for i, o := range Order {
		if o == c {
			return i
		}
	}
	return len(Order)
}

// defaultCourses maps normalized course-name keys to colors. Keys are stored
// post-normalization, so accent and case variants of the same course collapse
// into a single entry.
var defaultCourses = map[string]Color{
	"algebre 2":                 Blueberry,
	"analyse 4":                 Tomato,
	"electromagnetisme":         Peacock,
	"methodes numerique":        Grape,
	"methodes numeriques":       Grape,
	"element de mach":           Sage,
	"elements de machines":      Sage,
	"optique":                   Lavender,
	"developpement personnel":   Banana,
	"progr avancee":             Flamingo,
	"programmation avancee":     Flamingo,
	"english for international": Tangerine,
	"techniques d'ecriture":     Citron,
	"savoir etre":               Basil,
}

// maxFuzzyDistance bounds the edit-distance fallback so wildly different
// subjects still land on Graphite instead of a random course color.
const maxFuzzyDistance = 2

// Resolver maps free-text course names to palette colors. Resolution runs an
// ordered matcher chain: exact normalized key, substring containment, bounded
// edit distance, then the Graphite default. Every input yields a color.
type Resolver struct {
	courses map[string]Color
	keys    []string // sorted longest-first for deterministic substring wins
}

// NewResolver returns a resolver over the built-in course mapping, with
// overrides (raw course name -> color name) merged on top.
func NewResolver(overrides map[string]string) (*Resolver, error) {
	courses := make(map[string]Color, len(defaultCourses)+len(overrides))
	for k, v := range defaultCourses {
		courses[k] = v
	}
	for name, colorName := range overrides {
		color := Color(colorName)
		if !color.Valid() {
			return nil, fmt.Errorf("unknown color %q for course %q", colorName, name)
		}
		courses[Normalize(name)] = color
	}

	keys := make([]string, 0, len(courses))
	for k := range courses {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	return &Resolver{courses: courses, keys: keys}, nil
}

// Resolve returns the color for a course subject. The second return value is
// false when no matcher fired and the Graphite default was assigned.
func (r *Resolver) Resolve(subject string) (Color, bool) {
	key := Normalize(subject)
	if key == "" {
		return Graphite, false
	}

	// Exact normalized key.
	if color, ok := r.courses[key]; ok {
		return color, true
	}

	// Substring containment, longest key first so "methodes numeriques"
	// beats "methodes numerique" on its own row.
	for _, k := range r.keys {
		if strings.Contains(key, k) {
			return r.courses[k], true
		}
	}

	// Bounded edit distance for typos the table doesn't alias.
	best, bestDist := "", maxFuzzyDistance+1
	for _, k := range r.keys {
		if d := levenshtein.ComputeDistance(key, k); d < bestDist {
			best, bestDist = k, d
		}
	}
	if best != "" {
		return r.courses[best], true
	}

	return Graphite, false
}

// stripMarks removes combining diacritical marks after NFD decomposition.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize canonicalizes a course name for lookup: trailing parentheticals
// and ALL-CAPS instructor names are dropped, diacritics stripped, the rest
// lowercased with whitespace collapsed.
func Normalize(subject string) string {
	s := strings.TrimSpace(subject)

	// Drop a trailing parenthetical, e.g. "Optique (TD)".
	if i := strings.LastIndex(s, "("); i > 0 && strings.HasSuffix(s, ")") {
		s = strings.TrimSpace(s[:i])
	}

	// Drop trailing ALL-CAPS tokens, e.g. instructor names like "MOUZOUN".
	fields := strings.Fields(s)
	for len(fields) > 1 && isUpperToken(fields[len(fields)-1]) {
		fields = fields[:len(fields)-1]
	}
	s = strings.Join(fields, " ")

	if out, _, err := transform.String(stripMarks, s); err == nil {
		s = out
	}
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func isUpperToken(tok string) bool {
	letters := 0
	for _, r := range tok {
		if !unicode.IsLetter(r) {
			continue
		}
		if !unicode.IsUpper(r) {
			return false
		}
		letters++
	}
	return letters >= 2
}

// LoadOverrides reads a YAML file mapping course names to color names,
// suitable for passing to NewResolver.
func LoadOverrides(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read palette file: %w", err)
	}
	var overrides map[string]string
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse palette file: %w", err)
	}
	return overrides, nil
}
