package recipe

import (
	"regexp"
	"strconv"
	"strings"
)

const maxSlugLength = 255

// fallbackSlug is used when a title has no sluggable characters
const fallbackSlug = "recipe"

var (
	slugDisallowed = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	slugSeparators = regexp.MustCompile(`[-\s]+`)
)

// Slugify derives a URL-safe slug from a title: lower-cased, punctuation
// removed, runs of whitespace and hyphens collapsed into a single hyphen.
func Slugify(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = slugDisallowed.ReplaceAllString(slug, "")
	slug = slugSeparators.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return fallbackSlug
	}
	return truncateSlug(slug, maxSlugLength)
}

// SlugSource returns the text a recipe slug is derived from. With
// withAuthor set the author's username prefixes the title.
func SlugSource(username, title string, withAuthor bool) string {
	if withAuthor && username != "" {
		return username + "-" + title
	}
	return title
}

// SlugCandidate returns the n-th candidate for base: base itself for n == 0,
// then base-1, base-2, ... The result never exceeds the column width.
func SlugCandidate(base string, n int) string {
	if n <= 0 {
		return base
	}
	suffix := "-" + strconv.Itoa(n)
	return truncateSlug(base, maxSlugLength-len(suffix)) + suffix
}

func truncateSlug(slug string, max int) string {
	if len(slug) <= max {
		return slug
	}
	// cut on a rune boundary
	cut := slug[:max]
	for len(cut) > 0 && !isRuneStart(slug[len(cut)]) {
		cut = cut[:len(cut)-1]
	}
	return strings.TrimRight(cut, "-")
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
