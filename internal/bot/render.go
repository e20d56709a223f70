package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/xaenox/micatbot/internal/heuristics"
	"github.com/xaenox/micatbot/internal/models"
	"github.com/xaenox/micatbot/internal/random"
	"github.com/xaenox/micatbot/internal/search"
)

// escapeMarkdown escapes special characters for MarkdownV2
func escapeMarkdown(text string) string {
	specialChars := []string{"\\", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!"}
	escaped := text
	for _, char := range specialChars {
		escaped = strings.ReplaceAll(escaped, char, "\\"+char)
	}
	return escaped
}

func formatTag(tag string) string {
	return escapeMarkdown("#" + strings.ReplaceAll(tag, " ", "_"))
}

func formatTags(tags []string) string {
	formatted := make([]string, len(tags))
	for i, tag := range tags {
		formatted[i] = formatTag(tag)
	}
	return strings.Join(formatted, " ")
}

// card renders one catbot with its cosmetic badges. counts is the
// interaction count population used for the trending badge.
func card(c *models.Catbot, now time.Time, counts []int64, src random.Source) string {
	var b strings.Builder

	b.WriteString("*" + escapeMarkdown(c.Name) + "*")
	if heuristics.IsTrending(c.InteractionCount, counts) {
		b.WriteString(" 🔥 Trending")
	}
	if heuristics.IsNewAt(now, c.CreatedAt) {
		b.WriteString(" ✨ New")
	}
	b.WriteString("\n")

	if c.Profile != "" {
		b.WriteString("_" + escapeMarkdown(truncate(c.Profile, 160)) + "_\n")
	}
	if len(c.Tags) > 0 {
		b.WriteString(formatTags(c.Tags) + "\n")
	}

	status := fmt.Sprintf("💬 %d · ❤ %d · %s · %d online",
		c.InteractionCount,
		c.LikeCount,
		heuristics.ActivityStatusAt(now, c.LastActiveAt),
		heuristics.RandomOnlineCount(src))
	b.WriteString(escapeMarkdown(status) + "\n")
	b.WriteString(escapeMarkdown("/chat "+c.ID) + "\n")
	return b.String()
}

// catalog renders a page of the visible catbots under the current filter.
func catalog(state search.State, visible []models.Catbot, pageSize int, now time.Time, counts []int64, src random.Source) string {
	var b strings.Builder

	switch {
	case !state.IsSearching:
		fmt.Fprintf(&b, "*All catbots* \\(%d\\)\n", len(visible))
	default:
		b.WriteString("*Search results*")
		if q := strings.TrimSpace(state.Query); q != "" {
			b.WriteString(" for \"" + escapeMarkdown(q) + "\"")
		}
		if len(state.SelectedTags) > 0 {
			b.WriteString(" in " + formatTags(state.SelectedTags))
		}
		fmt.Fprintf(&b, " \\(%d\\)\n", len(visible))
	}

	if state.LoadFailed {
		b.WriteString(escapeMarkdown("⚠️ Couldn't refresh the catbot list, showing the last results.") + "\n")
	}
	if len(visible) == 0 {
		if state.IsSearching {
			b.WriteString(escapeMarkdown("No catbots match. Try /clear.") + "\n")
		} else {
			b.WriteString(escapeMarkdown("No public catbots yet. Create one with /new.") + "\n")
		}
		return b.String()
	}

	shown := visible
	if pageSize > 0 && len(shown) > pageSize {
		shown = shown[:pageSize]
	}
	for i := range shown {
		b.WriteString("\n" + card(&shown[i], now, counts, src))
	}
	if len(shown) < len(visible) {
		b.WriteString("\n" + escapeMarkdown(fmt.Sprintf("…and %d more. Narrow it down with /search or /tag.", len(visible)-len(shown))) + "\n")
	}
	return b.String()
}

func activityFeed(items []models.ActivityItem) string {
	if len(items) == 0 {
		return escapeMarkdown("It's quiet here... no catbots to chat with yet.")
	}
	var b strings.Builder
	b.WriteString("*Recent activity*\n")
	for _, it := range items {
		icon := "💬"
		if it.Type == models.MilestoneActivity {
			icon = "🏆"
		}
		b.WriteString(escapeMarkdown(fmt.Sprintf("%s %s · %s", icon, it.Text, it.TimeAgo)) + "\n")
	}
	return b.String()
}

func interactionCounts(catbots []models.Catbot) []int64 {
	counts := make([]int64, len(catbots))
	for i, c := range catbots {
		counts[i] = c.InteractionCount
	}
	return counts
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
