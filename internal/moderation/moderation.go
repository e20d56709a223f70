// Package moderation screens user supplied text against a keyword list.
package moderation

import (
	"strings"
	"unicode"
)

var blocked = []string{
	"kill yourself",
	"kys",
	"nazi",
	"porn",
	"nsfw",
	"rape",
	"suicide",
	"terrorist",
}

// Result lists the blocked terms found in a text.
type Result struct {
	Flagged bool
	Terms   []string
}

// Check matches whole words and phrases case-insensitively, so "therapist"
// does not trip on "rape".
func Check(text string) Result {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	padded := " " + strings.Join(words, " ") + " "

	var res Result
	for _, term := range blocked {
		if strings.Contains(padded, " "+term+" ") {
			res.Terms = append(res.Terms, term)
		}
	}
	res.Flagged = len(res.Terms) > 0
	return res
}

// Clean reports whether text passes moderation.
func Clean(text string) bool {
	return !Check(text).Flagged
}
