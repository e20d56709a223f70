package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/micatbot/internal/models"
	"go.uber.org/zap"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func TestReplySendsPersonaAndHistory(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"  Mrrp! Hello.  "},"finish_reason":"stop"}],"usage":{"prompt_tokens":10,"completion_tokens":3,"total_tokens":13}}`))
	}))
	defer srv.Close()

	r := NewOpenAIResponder(Config{APIKey: "k", BaseURL: srv.URL + "/v1", Model: "gpt-test"}, zap.NewNop())
	catbot := &models.Catbot{ID: "1", Name: "Luna", Profile: "A sleepy moon cat", Tags: []string{"Wholesome"}}
	history := []models.ChatTurn{
		{Role: models.RoleUser, Content: "hi"},
		{Role: models.RoleAssistant, Content: "meow"},
	}

	reply, err := r.Reply(context.Background(), catbot, history, "how are you?")
	require.NoError(t, err)
	assert.Equal(t, "Mrrp! Hello.", reply)

	require.Len(t, got.Messages, 4)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Contains(t, got.Messages[0].Content, "You are Luna")
	assert.Contains(t, got.Messages[0].Content, "A sleepy moon cat")
	assert.Equal(t, "assistant", got.Messages[2].Role)
	assert.Equal(t, "how are you?", got.Messages[3].Content)
}

func TestReplyPropagatesErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	r := NewOpenAIResponder(Config{APIKey: "k", BaseURL: srv.URL + "/v1", Model: "gpt-test"}, zap.NewNop())
	_, err := r.Reply(context.Background(), &models.Catbot{Name: "Luna"}, nil, "hi")
	assert.Error(t, err)
}

func TestSystemPromptWithoutProfile(t *testing.T) {
	p := SystemPrompt(&models.Catbot{Name: "Tom"})
	assert.Contains(t, p, "You are Tom")
	assert.NotContains(t, p, "Personality")
	assert.NotContains(t, p, "Your style")
}

func TestHistoryLimit(t *testing.T) {
	h := NewHistory(3)
	for _, c := range []string{"a", "b", "c", "d"} {
		h.Append("chat", models.ChatTurn{Role: models.RoleUser, Content: c})
	}

	turns := h.Get("chat")
	require.Len(t, turns, 3)
	assert.Equal(t, "b", turns[0].Content)
	assert.False(t, turns[0].CreatedAt.IsZero())
	assert.Empty(t, h.Get("other"))

	h.Reset("chat")
	assert.Empty(t, h.Get("chat"))
}
