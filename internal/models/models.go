package models

import "time"

// ChatTurn is one message in a conversation with a catbot
type ChatTurn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ActivityType distinguishes simulated activity feed entries
type ActivityType string

const (
	ChatActivity      ActivityType = "chat"
	MilestoneActivity ActivityType = "milestone"
)

// ActivityItem is an ephemeral "recent activity" line. Never persisted.
type ActivityItem struct {
	ID      string       `json:"id"`
	Text    string       `json:"text"`
	TimeAgo string       `json:"time_ago"`
	Type    ActivityType `json:"type"`
}

// Character is the slice of a catbot the activity feed needs
type Character struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	InteractionCount int64  `json:"interaction_count"`
}
