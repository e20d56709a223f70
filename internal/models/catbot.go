package models

import (
	"net/url"
	"strings"
	"time"
)

const placeholderAvatarBase = "https://api.dicebear.com/7.x/bottts/svg?seed="

// Catbot is an AI chat character. Only public catbots are browsable.
type Catbot struct {
	ID               string    `json:"id"`
	OwnerID          int64     `json:"owner_id"`
	Name             string    `json:"name"`
	Description      string    `json:"description,omitempty"`
	PublicProfile    string    `json:"public_profile,omitempty"`
	Profile          string    `json:"profile"`
	AvatarURL        string    `json:"avatar_url,omitempty"`
	IsPublic         bool      `json:"is_public"`
	CreatedAt        time.Time `json:"created_at"`
	LastActiveAt     time.Time `json:"last_active_at"`
	LikeCount        int64     `json:"like_count"`
	InteractionCount int64     `json:"interaction_count"`
	Tags             []string  `json:"tags"`
}

// Normalize resolves derived fields once, at the storage boundary.
// Profile prefers the public profile and falls back to the description.
// A missing avatar becomes a placeholder seeded by the name.
func (c *Catbot) Normalize() {
	c.Profile = strings.TrimSpace(c.PublicProfile)
	if c.Profile == "" {
		c.Profile = strings.TrimSpace(c.Description)
	}
	if c.AvatarURL == "" {
		c.AvatarURL = PlaceholderAvatar(c.Name)
	}
	if c.LikeCount < 0 {
		c.LikeCount = 0
	}
	if c.InteractionCount < 0 {
		c.InteractionCount = 0
	}
	if c.LastActiveAt.IsZero() {
		c.LastActiveAt = c.CreatedAt
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
}

// HasAnyTag reports whether the catbot carries at least one of tags.
func (c *Catbot) HasAnyTag(tags []string) bool {
	for _, want := range tags {
		for _, have := range c.Tags {
			if have == want {
				return true
			}
		}
	}
	return false
}

// Character projects the catbot for the activity feed
func (c *Catbot) Character() Character {
	return Character{ID: c.ID, Name: c.Name, InteractionCount: c.InteractionCount}
}

// PlaceholderAvatar is a deterministic avatar reference for name.
func PlaceholderAvatar(name string) string {
	return placeholderAvatarBase + url.QueryEscape(name)
}
