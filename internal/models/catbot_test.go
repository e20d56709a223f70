package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("public profile wins over description", func(t *testing.T) {
		c := Catbot{Name: "Luna", Description: "old", PublicProfile: " new ", CreatedAt: created}
		c.Normalize()
		assert.Equal(t, "new", c.Profile)
		assert.Equal(t, "old", c.Description)
	})

	t.Run("description is the fallback", func(t *testing.T) {
		c := Catbot{Name: "Luna", Description: "a sleepy cat"}
		c.Normalize()
		assert.Equal(t, "a sleepy cat", c.Profile)
	})

	t.Run("placeholder avatar is derived from name", func(t *testing.T) {
		c := Catbot{Name: "Luna the Cat", CreatedAt: created}
		c.Normalize()
		assert.Equal(t, "https://api.dicebear.com/7.x/bottts/svg?seed=Luna+the+Cat", c.AvatarURL)
		assert.Equal(t, PlaceholderAvatar("Luna the Cat"), c.AvatarURL)
		assert.Equal(t, created, c.LastActiveAt)
		assert.NotNil(t, c.Tags)
	})

	t.Run("explicit avatar is kept and negative counts clamp", func(t *testing.T) {
		c := Catbot{Name: "Luna", AvatarURL: "https://x/y.png", LikeCount: -3, InteractionCount: -1}
		c.Normalize()
		assert.Equal(t, "https://x/y.png", c.AvatarURL)
		assert.Zero(t, c.LikeCount)
		assert.Zero(t, c.InteractionCount)
	})
}

func TestHasAnyTag(t *testing.T) {
	c := Catbot{Tags: []string{"Fantasy", "Funny"}}
	assert.True(t, c.HasAnyTag([]string{"Sci-Fi", "Fantasy"}))
	assert.False(t, c.HasAnyTag([]string{"Horror"}))
	assert.False(t, c.HasAnyTag(nil))
}
