package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// CompletionOptions configures a single completion call
type CompletionOptions struct {
	Tier            ModelTier
	Temperature     float32
	MaxOutputTokens int32
	// JSON requests an application/json response and strips code fences from the result
	JSON bool
}

// Client is a single-shot prompt-in, text-out completion capability
type Client interface {
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error)
	Close() error
}

// NewClient creates a new LLM client based on configuration
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderGemini, "":
		return NewGeminiClient(ctx, config, apiKey)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", config.Provider)
	}
}

// GeminiClient implements Client for Google Gemini
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, &AuthError{Message: "API key is required"}
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		config: config,
	}, nil
}

// Complete sends prompt to the model for opts.Tier. Each call is bounded by the configured
// call timeout; failures are classified into TransportError or AuthError.
func (c *GeminiClient) Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error) {
	modelName := c.config.GetModel(opts.Tier)
	if modelName == "" {
		return "", fmt.Errorf("no model configured for tier %s", opts.Tier)
	}

	model := c.client.GenerativeModel(modelName)
	model.SetTemperature(opts.Temperature)
	if opts.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(opts.MaxOutputTokens)
	}
	if opts.JSON {
		model.ResponseMIMEType = "application/json"
	}

	if c.config.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.CallTimeout)
		defer cancel()
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", ClassifyError(err)
	}

	text, err := extractTextFromResponse(resp)
	if err != nil {
		return "", err
	}
	if opts.JSON {
		return CleanJSONBlock(text), nil
	}
	return text, nil
}

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// extractTextFromResponse extracts text from Gemini API response
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", &EmptyResponseError{Reason: "no candidates in response"}
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", &EmptyResponseError{Reason: fmt.Sprintf("no content in response (finish reason: %s)", candidate.FinishReason)}
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return "", &EmptyResponseError{Reason: "no text parts in response"}
	}

	return strings.Join(parts, ""), nil
}
