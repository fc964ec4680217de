// Package normalizer canonicalizes artist and venue display names so that
// provider spelling variants ("The Strokes" / "STROKES", "Bowery Ballroom
// NYC" / "Bowery Ballroom") compare as equals.
package normalizer

import (
	"regexp"
	"strings"
)

var (
	leadingThe     = regexp.MustCompile(`^the\s+`)
	locationSuffix = regexp.MustCompile(`\s+(nyc|new york)$`)
	specialChars   = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	multiSpace     = regexp.MustCompile(`\s+`)
)

// NormalizeArtist lower-cases, strips a single leading "The ", removes
// punctuation and collapses whitespace. Total and idempotent; empty or
// whitespace-only input normalizes to "".
func NormalizeArtist(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = leadingThe.ReplaceAllString(name, "")
	name = specialChars.ReplaceAllString(name, "")
	name = multiSpace.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// NormalizeVenue is NormalizeArtist plus stripping a trailing "nyc" or
// "new york" qualifier. The suffix is removed before punctuation so that
// separators around it don't leave artifacts.
func NormalizeVenue(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = locationSuffix.ReplaceAllString(name, "")
	name = leadingThe.ReplaceAllString(name, "")
	name = specialChars.ReplaceAllString(name, "")
	name = multiSpace.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}
