// Package tags holds the curated browse tags offered as filters.
package tags

import "strings"

var canonical = []string{
	"Funny",
	"Fantasy",
	"Sci-Fi",
	"Adventure",
	"Romance",
	"Mystery",
	"Horror",
	"Anime",
	"Gaming",
	"Helpful",
	"Educational",
	"Wholesome",
	"Sassy",
	"Philosophical",
}

// ListTags returns the canonical tags in display order. The returned
// slice is a copy.
func ListTags() []string {
	out := make([]string, len(canonical))
	copy(out, canonical)
	return out
}

// Canonicalize maps tag onto its canonical spelling, ignoring case and
// surrounding whitespace.
func Canonicalize(tag string) (string, bool) {
	tag = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
	for _, c := range canonical {
		if strings.EqualFold(c, tag) {
			return c, true
		}
	}
	return "", false
}

func IsCanonical(tag string) bool {
	_, ok := Canonicalize(tag)
	return ok
}
