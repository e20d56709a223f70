package classifier

import (
	"context"
	"strings"
	"unicode"

	"github.com/xaenox/micatbot/internal/tags"
)

// Classifier suggests canonical browse tags for a new catbot.
type Classifier interface {
	SuggestTags(ctx context.Context, name, description string) []string
}

// keywords maps canonical tags to whole words or phrases that imply them
var keywords = map[string][]string{
	"Funny":         {"funny", "joke", "jokes", "silly", "laugh", "pun", "puns", "comedy"},
	"Fantasy":       {"wizard", "magic", "dragon", "dragons", "spell", "spells", "enchanted", "fairy"},
	"Sci-Fi":        {"robot", "robots", "space", "alien", "aliens", "future", "cyber", "galaxy"},
	"Adventure":     {"explore", "quest", "journey", "pirate", "treasure"},
	"Romance":       {"love", "romantic", "crush", "date"},
	"Mystery":       {"detective", "mystery", "clue", "clues", "secret", "secrets", "riddle", "riddles"},
	"Horror":        {"ghost", "ghosts", "haunted", "creepy", "spooky", "vampire"},
	"Anime":         {"anime", "manga", "kawaii", "senpai"},
	"Gaming":        {"game", "games", "gamer", "quest log", "level up", "pixel"},
	"Helpful":       {"help", "assistant", "advice", "support", "organize"},
	"Educational":   {"teach", "learn", "study", "science", "history", "math"},
	"Wholesome":     {"cozy", "kind", "gentle", "hug", "hugs", "sweet"},
	"Sassy":         {"sassy", "sarcastic", "snarky", "diva"},
	"Philosophical": {"philosophy", "meaning", "wisdom", "existential"},
}

type SimpleClassifier struct {
	maxTags int
}

func NewSimpleClassifier(maxTags int) *SimpleClassifier {
	return &SimpleClassifier{maxTags: maxTags}
}

// SuggestTags extracts canonical #hashtags and keyword matches, in
// registry order.
func (c *SimpleClassifier) SuggestTags(ctx context.Context, name, description string) []string {
	content := strings.ToLower(name + " " + description)
	found := make(map[string]struct{})

	// Extract hashtags
	for _, word := range strings.Fields(content) {
		if !strings.HasPrefix(word, "#") {
			continue
		}
		if tag, ok := tags.Canonicalize(strings.Trim(word, "#.,!?")); ok {
			found[tag] = struct{}{}
		}
	}

	// Pad the token stream so "date" never matches inside "update".
	words := strings.FieldsFunc(content, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	padded := " " + strings.Join(words, " ") + " "

	for tag, phrases := range keywords {
		for _, keyword := range phrases {
			if strings.Contains(padded, " "+keyword+" ") {
				found[tag] = struct{}{}
				break
			}
		}
	}

	return orderAndLimit(found, c.maxTags)
}

func orderAndLimit(found map[string]struct{}, maxTags int) []string {
	result := make([]string, 0, len(found))
	for _, tag := range tags.ListTags() {
		if _, ok := found[tag]; ok {
			result = append(result, tag)
		}
	}

	// Limit the number of tags
	if maxTags > 0 && len(result) > maxTags {
		result = result[:maxTags]
	}
	return result
}
