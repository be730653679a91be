package palette

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := NewResolver(nil)
	require.NoError(t, err)
	return r
}

func TestResolve_AccentAndCaseVariants(t *testing.T) {
	r := newTestResolver(t)

	variants := []string{
		"Algèbre 2",
		"Algébre 2",
		"ALGEBRE 2",
		"algèbre 2",
	}
	for _, v := range variants {
		color, matched := r.Resolve(v)
		assert.True(t, matched, "expected %q to match", v)
		assert.Equal(t, Blueberry, color, "variant %q", v)
	}
}

func TestResolve_StripsInstructorSuffix(t *testing.T) {
	r := newTestResolver(t)

	color, matched := r.Resolve("Analyse 4 MOUZOUN")
	assert.True(t, matched)
	assert.Equal(t, Tomato, color)
}

func TestResolve_StripsTrailingParenthetical(t *testing.T) {
	r := newTestResolver(t)

	color, matched := r.Resolve("Optique (TD)")
	assert.True(t, matched)
	assert.Equal(t, Lavender, color)
}

func TestResolve_SubstringMatch(t *testing.T) {
	r := newTestResolver(t)

	color, matched := r.Resolve("Électromagnétisme — Sec6 Cours")
	assert.True(t, matched)
	assert.Equal(t, Peacock, color)
}

func TestResolve_FuzzyTypo(t *testing.T) {
	r := newTestResolver(t)

	// Two character edits away from "optique".
	color, matched := r.Resolve("Optiqeu")
	assert.True(t, matched)
	assert.Equal(t, Lavender, color)
}

func TestResolve_UnknownFallsBackToGraphite(t *testing.T) {
	r := newTestResolver(t)

	color, matched := r.Resolve("Underwater Basket Weaving")
	assert.False(t, matched)
	assert.Equal(t, Graphite, color)
}

func TestResolve_EmptySubject(t *testing.T) {
	r := newTestResolver(t)

	color, matched := r.Resolve("")
	assert.False(t, matched)
	assert.Equal(t, Graphite, color)
}

func TestResolve_Deterministic(t *testing.T) {
	r := newTestResolver(t)

	first, _ := r.Resolve("Méthodes Numériques")
	for i := 0; i < 10; i++ {
		color, _ := r.Resolve("Méthodes Numériques")
		assert.Equal(t, first, color)
	}
	assert.Equal(t, Grape, first)
}

func TestNewResolver_Overrides(t *testing.T) {
	r, err := NewResolver(map[string]string{"Thermodynamique": "Basil"})
	require.NoError(t, err)

	color, matched := r.Resolve("Thermodynamique")
	assert.True(t, matched)
	assert.Equal(t, Basil, color)
}

func TestNewResolver_RejectsUnknownColor(t *testing.T) {
	_, err := NewResolver(map[string]string{"Thermodynamique": "Chartreuse"})
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"Algèbre 2":            "algebre 2",
		"  Électromagnétisme ": "electromagnetisme",
		"Analyse 4 MOUZOUN":    "analyse 4",
		"Optique (TD)":         "optique",
		"Savoir   être":        "savoir etre",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "input %q", in)
	}
}

func TestSortRank_GraphiteLast(t *testing.T) {
	assert.Equal(t, len(Order)-1, SortRank(Graphite))
	assert.Less(t, SortRank(Tomato), SortRank(Graphite))
	assert.Equal(t, len(Order), SortRank(Color("NotAColor")))
}

func TestCalendarColorID(t *testing.T) {
	assert.Equal(t, "3", Tomato.CalendarColorID())
	assert.Equal(t, Graphite.CalendarColorID(), Color("NotAColor").CalendarColorID())
}
