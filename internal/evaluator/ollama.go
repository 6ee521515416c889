package evaluator

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"marketscout/internal/models"
)

const defaultOllamaHost = "http://localhost:11434"

// Model families tried in order when picking a local model
var preferredOllamaModels = []string{"mistral", "llama3", "llama2"}

// OllamaStrategy scores listings through a local Ollama endpoint. With
// no server or no pulled models it yields no result.
type OllamaStrategy struct {
	client *resty.Client
	host   string
}

// NewOllamaStrategy uses the given host, falling back to OLLAMA_HOST
// and then the default local endpoint
func NewOllamaStrategy(host string) *OllamaStrategy {
	if host == "" {
		host = os.Getenv("OLLAMA_HOST")
	}
	if host == "" {
		host = defaultOllamaHost
	}
	return &OllamaStrategy{
		client: resty.New().SetTimeout(60 * time.Second),
		host:   strings.TrimRight(host, "/"),
	}
}

func (s *OllamaStrategy) Name() string { return "ollama" }

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

type ollamaGenerateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
}

// availableModel queries the local server and picks a model, preferring
// the known-good families before settling for whatever is pulled
func (s *OllamaStrategy) availableModel() (string, error) {
	var tags ollamaTagsResponse
	resp, err := s.client.R().SetResult(&tags).Get(s.host + "/api/tags")
	if err != nil {
		return "", fmt.Errorf("ollama unreachable: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("ollama tags returned %s", resp.Status())
	}
	if len(tags.Models) == 0 {
		return "", fmt.Errorf("no ollama models available")
	}

	for _, pref := range preferredOllamaModels {
		for _, m := range tags.Models {
			if strings.Contains(strings.ToLower(m.Name), pref) {
				return m.Name, nil
			}
		}
	}
	return tags.Models[0].Name, nil
}

func (s *OllamaStrategy) Evaluate(listing models.Listing, vctx *VehicleContext) (*models.Evaluation, error) {
	model, err := s.availableModel()
	if err != nil {
		return nil, err
	}

	fmt.Printf("   🦙 Using Ollama model: %s\n", model)

	var parsed ollamaGenerateResponse
	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(ollamaGenerateRequest{
			Model:  model,
			Prompt: buildPrompt(listing, vctx),
			Stream: false,
			Options: ollamaOptions{
				Temperature: 0.7,
				NumPredict:  500,
			},
		}).
		SetResult(&parsed).
		Post(s.host + "/api/generate")
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("ollama API returned %s", resp.Status())
	}

	result := parseScores(parsed.Response)
	if result == nil {
		return nil, fmt.Errorf("no valid scores in ollama reply")
	}
	return result, nil
}
