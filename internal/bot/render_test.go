package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/xaenox/micatbot/internal/models"
	"github.com/xaenox/micatbot/internal/search"
)

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, `Sci\-Fi \(v2\)\! a\_b \\`, escapeMarkdown(`Sci-Fi (v2)! a_b \`))
}

func TestCard(t *testing.T) {
	c := &models.Catbot{
		ID:               "luna",
		Name:             "Luna",
		Profile:          "A sleepy moon cat.",
		Tags:             []string{"Fantasy"},
		CreatedAt:        testNow.Add(-10 * 24 * time.Hour),
		LastActiveAt:     testNow.Add(-5 * time.Minute),
		InteractionCount: 350,
		LikeCount:        4,
	}
	got := card(c, testNow, []int64{10, 20, 150, 300, 500}, zeroSource{})

	assert.Equal(t, "*Luna* 🔥 Trending\n"+
		"_A sleepy moon cat\\._\n"+
		"\\#Fantasy\n"+
		"💬 350 · ❤ 4 · Active 5m ago · 2 online\n"+
		"/chat luna\n", got)
}

func TestCatalogPaging(t *testing.T) {
	visible := make([]models.Catbot, 3)
	for i := range visible {
		visible[i] = models.Catbot{ID: string(rune('a' + i)), Name: "Cat", CreatedAt: testNow, LastActiveAt: testNow}
	}
	got := catalog(search.State{}, visible, 2, testNow, nil, zeroSource{})

	assert.Contains(t, got, "*All catbots* \\(3\\)")
	assert.Contains(t, got, "…and 1 more")
	assert.Contains(t, got, "/chat a")
	assert.NotContains(t, got, "/chat c")
}

func TestCatalogLoadFailed(t *testing.T) {
	got := catalog(search.State{LoadFailed: true}, nil, 5, testNow, nil, zeroSource{})
	assert.Contains(t, got, "Couldn't refresh")
	assert.Contains(t, got, "No public catbots yet")
}

func TestActivityFeed(t *testing.T) {
	assert.Contains(t, activityFeed(nil), "quiet")
	got := activityFeed([]models.ActivityItem{
		{ID: "m", Text: "Luna just hit 500 conversations!", TimeAgo: "12m ago", Type: models.MilestoneActivity},
	})
	assert.Contains(t, got, "🏆 Luna just hit 500 conversations\\! · 12m ago")
}
