package evaluator

import (
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"

	"marketscout/internal/models"
)

const (
	anthropicURL     = "https://api.anthropic.com/v1/messages"
	anthropicModel   = "claude-3-haiku-20240307"
	anthropicVersion = "2023-06-01"
)

// AnthropicStrategy scores listings through the Anthropic messages API.
// Without an API key in the environment it yields no result and the
// chain moves on.
type AnthropicStrategy struct {
	client *resty.Client
	apiKey string
}

// NewAnthropicStrategy reads the API key from ANTHROPIC_API_KEY
func NewAnthropicStrategy() *AnthropicStrategy {
	return &AnthropicStrategy{
		client: resty.New().SetTimeout(30 * time.Second),
		apiKey: os.Getenv("ANTHROPIC_API_KEY"),
	}
}

func (s *AnthropicStrategy) Name() string { return "anthropic" }

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

// Evaluate sends the scoring prompt and parses the JSON reply. Any
// transport or parse failure yields (nil, error) so the next strategy
// runs.
func (s *AnthropicStrategy) Evaluate(listing models.Listing, vctx *VehicleContext) (*models.Evaluation, error) {
	if s.apiKey == "" {
		return nil, nil
	}

	var parsed anthropicResponse
	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetHeader("x-api-key", s.apiKey).
		SetHeader("anthropic-version", anthropicVersion).
		SetBody(anthropicRequest{
			Model:     anthropicModel,
			MaxTokens: 500,
			Messages: []anthropicMessage{
				{Role: "user", Content: buildPrompt(listing, vctx)},
			},
		}).
		SetResult(&parsed).
		Post(anthropicURL)
	if err != nil {
		return nil, fmt.Errorf("anthropic request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("anthropic API returned %s", resp.Status())
	}
	if len(parsed.Content) == 0 {
		return nil, fmt.Errorf("anthropic reply had no content")
	}

	result := parseScores(parsed.Content[0].Text)
	if result == nil {
		return nil, fmt.Errorf("no valid scores in anthropic reply")
	}
	return result, nil
}
