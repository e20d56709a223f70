// Package speech turns catbot replies into audio through the ElevenLabs
// text-to-speech API.
package speech

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const defaultBaseURL = "https://api.elevenlabs.io"

// ErrDisabled is returned when no API key is configured.
var ErrDisabled = errors.New("speech synthesis is disabled")

type Config struct {
	APIKey   string
	BaseURL  string
	VoiceID  string
	ModelID  string
	MaxChars int
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type synthesizeRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id,omitempty"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type Client struct {
	client   *resty.Client
	voiceID  string
	modelID  string
	maxChars int
	enabled  bool
	logger   *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}

	c := resty.New().
		SetBaseURL(base).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "audio/mpeg").
		SetHeader("xi-api-key", cfg.APIKey).
		SetTimeout(30 * time.Second)

	return &Client{
		client:   c,
		voiceID:  cfg.VoiceID,
		modelID:  cfg.ModelID,
		maxChars: cfg.MaxChars,
		enabled:  cfg.APIKey != "" && cfg.VoiceID != "",
		logger:   logger,
	}
}

func (c *Client) Enabled() bool { return c.enabled }

// Synthesize returns MPEG audio for text.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if !c.enabled {
		return nil, ErrDisabled
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("empty text")
	}
	if c.maxChars > 0 && len([]rune(text)) > c.maxChars {
		text = string([]rune(text)[:c.maxChars])
	}

	reqBody := synthesizeRequest{
		Text:          text,
		ModelID:       c.modelID,
		VoiceSettings: voiceSettings{Stability: 0.5, SimilarityBoost: 0.75},
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(&reqBody).
		SetPathParam("voice", c.voiceID).
		Post("/v1/text-to-speech/{voice}")
	if err != nil {
		return nil, fmt.Errorf("elevenlabs request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		c.logger.Error("Speech synthesis failed",
			zap.Int("status", resp.StatusCode()),
			zap.String("body", resp.String()))
		return nil, fmt.Errorf("elevenlabs status %d", resp.StatusCode())
	}
	return resp.Body(), nil
}
