package recipe

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Tomato Soup":            "tomato-soup",
		"  tomato   soup  ":      "tomato-soup",
		"Tomato -- Soup!":        "tomato-soup",
		"Mom's Best (Ever) Pie":  "moms-best-ever-pie",
		"Crème Brûlée":           "crème-brûlée",
		"snake_case title":       "snake_case-title",
		"!!!":                    "recipe",
		"":                       "recipe",
		"-leading and trailing-": "leading-and-trailing",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestSlugifySameBaseForDifferentWording(t *testing.T) {
	assert.Equal(t, Slugify("Tomato Soup"), Slugify("tomato soup!"))
}

func TestSlugifyTruncatesOnRuneBoundary(t *testing.T) {
	slug := Slugify(strings.Repeat("é", 200))

	assert.LessOrEqual(t, len(slug), maxSlugLength)
	assert.True(t, utf8.ValidString(slug))
}

func TestSlugCandidate(t *testing.T) {
	assert.Equal(t, "tomato-soup", SlugCandidate("tomato-soup", 0))
	assert.Equal(t, "tomato-soup-1", SlugCandidate("tomato-soup", 1))
	assert.Equal(t, "tomato-soup-12", SlugCandidate("tomato-soup", 12))

	long := strings.Repeat("a", maxSlugLength)
	candidate := SlugCandidate(long, 7)
	assert.Len(t, candidate, maxSlugLength)
	assert.True(t, strings.HasSuffix(candidate, "-7"))
}

func TestSlugSource(t *testing.T) {
	assert.Equal(t, "Tomato Soup", SlugSource("alice", "Tomato Soup", false))
	assert.Equal(t, "alice-Tomato Soup", SlugSource("alice", "Tomato Soup", true))
	assert.Equal(t, "Tomato Soup", SlugSource("", "Tomato Soup", true))
}
