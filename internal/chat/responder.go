// Package chat talks to a catbot's persona through an OpenAI chat model.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/xaenox/micatbot/internal/models"
	"go.uber.org/zap"
)

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
}

// Responder produces catbot replies.
type Responder interface {
	Reply(ctx context.Context, catbot *models.Catbot, history []models.ChatTurn, userText string) (string, error)
}

type OpenAIResponder struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float64
	logger      *zap.Logger
}

func NewOpenAIResponder(cfg Config, logger *zap.Logger) *OpenAIResponder {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &OpenAIResponder{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		logger:      logger,
	}
}

func (r *OpenAIResponder) Reply(ctx context.Context, catbot *models.Catbot, history []models.ChatTurn, userText string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: SystemPrompt(catbot),
	})
	for _, turn := range history {
		role := openai.ChatMessageRoleUser
		if turn.Role == models.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: turn.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userText,
	})

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       r.model,
		Messages:    messages,
		MaxTokens:   r.maxTokens,
		Temperature: float32(r.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}

	r.logger.Debug("Catbot replied",
		zap.String("catbot_id", catbot.ID),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens))
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// SystemPrompt is the persona instruction for catbot.
func SystemPrompt(catbot *models.Catbot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a cat character in the MiCatbot app. Stay in character.\n", catbot.Name)
	if catbot.Profile != "" {
		fmt.Fprintf(&b, "Personality and background: %s\n", catbot.Profile)
	}
	if len(catbot.Tags) > 0 {
		fmt.Fprintf(&b, "Your style: %s.\n", strings.Join(catbot.Tags, ", "))
	}
	b.WriteString("Keep replies short and conversational, and never claim to be an AI model.")
	return b.String()
}

// History keeps the recent turns of each conversation in memory.
type History struct {
	mu    sync.Mutex
	limit int
	turns map[string][]models.ChatTurn
}

func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = 20
	}
	return &History{limit: limit, turns: make(map[string][]models.ChatTurn)}
}

func (h *History) Get(key string) []models.ChatTurn {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]models.ChatTurn(nil), h.turns[key]...)
}

// Append records turns and drops the oldest beyond the limit.
func (h *History) Append(key string, turns ...models.ChatTurn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := time.Now()
	for i := range turns {
		if turns[i].CreatedAt.IsZero() {
			turns[i].CreatedAt = now
		}
	}
	all := append(h.turns[key], turns...)
	if len(all) > h.limit {
		all = append([]models.ChatTurn(nil), all[len(all)-h.limit:]...)
	}
	h.turns[key] = all
}

func (h *History) Reset(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.turns, key)
}
