package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/xaenox/micatbot/internal/tags"
	"go.uber.org/zap"
)

type GPTConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	MaxTags     int
}

type GPTResponse struct {
	Tags []string `json:"tags"`
}

type GPTClassifier struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float64
	maxTags     int
	fallback    *SimpleClassifier
	logger      *zap.Logger
}

func NewGPTClassifier(cfg GPTConfig, logger *zap.Logger) *GPTClassifier {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &GPTClassifier{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		maxTags:     cfg.MaxTags,
		fallback:    NewSimpleClassifier(cfg.MaxTags),
		logger:      logger,
	}
}

func (c *GPTClassifier) SuggestTags(ctx context.Context, name, description string) []string {
	suggested, err := c.requestTags(ctx, name, description)
	if err != nil {
		c.logger.Error("Failed to get GPT tags, using keyword fallback",
			zap.Error(err),
			zap.String("catbot_name", name))
		return c.fallback.SuggestTags(ctx, name, description)
	}

	found := make(map[string]struct{}, len(suggested))
	for _, t := range suggested {
		if tag, ok := tags.Canonicalize(t); ok {
			found[tag] = struct{}{}
		}
	}
	return orderAndLimit(found, c.maxTags)
}

func (c *GPTClassifier) requestTags(ctx context.Context, name, description string) ([]string, error) {
	prompt := fmt.Sprintf(`Pick the tags that best describe this chat character.
Choose at most %d tags, only from this list: %s.

Return the response as a JSON object with this structure:
{"tags": ["Tag1", "Tag2"]}

Name: %s
Description: %s`, c.maxTags, strings.Join(tags.ListTags(), ", "), name, description)

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			MaxTokens:   c.maxTokens,
			Temperature: float32(c.temperature),
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}

	var gptResponse GPTResponse
	response := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(response), &gptResponse); err != nil {
		return nil, fmt.Errorf("parse response %q: %w", response, err)
	}
	return gptResponse.Tags, nil
}
