package moderation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		text  string
		terms []string
	}{
		{"Luna is a friendly cat who loves naps", nil},
		{"my therapist cat", nil},
		{"NSFW content here", []string{"nsfw"}},
		{"just... kill   yourself!", []string{"kill yourself"}},
		{"porn, nazi", []string{"nazi", "porn"}},
		{"", nil},
	}
	for _, tt := range tests {
		res := Check(tt.text)
		assert.Equal(t, tt.terms, res.Terms, tt.text)
		assert.Equal(t, len(tt.terms) > 0, res.Flagged, tt.text)
	}
}

func TestClean(t *testing.T) {
	assert.True(t, Clean("a wholesome wizard cat"))
	assert.False(t, Clean("kys"))
}
