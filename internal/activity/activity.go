// Package activity synthesizes the cosmetic "recent activity" feed shown
// next to the catbot list.
package activity

import (
	"fmt"

	"github.com/xaenox/micatbot/internal/models"
	"github.com/xaenox/micatbot/internal/random"
)

const (
	maxItems          = 10
	maxChatItems      = 8
	maxMilestones     = 3
	milestoneMinCount = 400
	milestoneMinimum  = 500
)

var displayNames = []string{
	"Alex", "Sam", "Jordan", "Taylor", "Riley",
	"Morgan", "Casey", "Jamie", "Avery", "Quinn",
}

var verbs = []string{
	"started chatting with",
	"is chatting with",
	"just messaged",
	"shared a secret with",
	"told a joke to",
	"said goodnight to",
}

// Synthesize builds up to ten shuffled activity items from characters.
// Every draw comes from src, so a scripted source yields exact output.
func Synthesize(src random.Source, characters []models.Character) []models.ActivityItem {
	if len(characters) == 0 {
		return []models.ActivityItem{}
	}

	items := make([]models.ActivityItem, 0, maxChatItems+maxMilestones)
	for i := 0; i < min(maxChatItems, len(characters)); i++ {
		c := characters[src.Intn(len(characters))]
		user := displayNames[src.Intn(len(displayNames))]
		verb := verbs[src.Intn(len(verbs))]
		items = append(items, models.ActivityItem{
			ID:      fmt.Sprintf("chat-%d", i),
			Text:    fmt.Sprintf("%s %s %s", user, verb, c.Name),
			TimeAgo: fmt.Sprintf("%dm ago", random.Between(src, 1, 30)),
			Type:    models.ChatActivity,
		})
	}

	taken := 0
	for i, c := range characters {
		if taken == maxMilestones {
			break
		}
		if c.InteractionCount <= milestoneMinCount {
			continue
		}
		taken++
		milestone := c.InteractionCount / 100 * 100
		if milestone < milestoneMinimum {
			continue
		}
		items = append(items, models.ActivityItem{
			ID:      fmt.Sprintf("milestone-%d", i),
			Text:    fmt.Sprintf("%s just hit %d conversations!", c.Name, milestone),
			TimeAgo: fmt.Sprintf("%dm ago", random.Between(src, 10, 129)),
			Type:    models.MilestoneActivity,
		})
	}

	random.Shuffle(src, len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
	if len(items) > maxItems {
		items = items[:maxItems]
	}
	return items
}

// SynthesizeRandom runs Synthesize with a freshly seeded source.
func SynthesizeRandom(characters []models.Character) []models.ActivityItem {
	return Synthesize(random.New(), characters)
}
