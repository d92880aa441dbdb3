// Package llm provides the text-completion capability used by the pipeline stages.
// Stages depend on the Client interface; the Gemini implementation is wired in by main.
package llm

import "time"

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for simple tasks: classification and short summaries
	TierLite ModelTier = "lite"
	// TierStandard is for structured extraction
	TierStandard ModelTier = "standard"
	// TierAdvanced is for bullet generation
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

// ProviderGemini is the Google Gemini provider
const ProviderGemini Provider = "gemini"

// DefaultCallTimeout bounds a single completion call
const DefaultCallTimeout = 60 * time.Second

// Config holds the model configuration for the application
type Config struct {
	Provider    Provider
	Models      map[ModelTier]string
	CallTimeout time.Duration
}

// DefaultConfig returns the default Gemini configuration
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		CallTimeout: DefaultCallTimeout,
	}
}

// GetModel returns the model name for a tier, falling back to standard then lite
func (c *Config) GetModel(tier ModelTier) string {
	for _, t := range []ModelTier{tier, TierStandard, TierLite} {
		if model, ok := c.Models[t]; ok && model != "" {
			return model
		}
	}
	return ""
}

// WithModel returns a copy of the config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	clone := c.clone()
	clone.Models[tier] = model
	return clone
}

// WithCallTimeout returns a copy of the config with a different per-call timeout
func (c *Config) WithCallTimeout(timeout time.Duration) *Config {
	clone := c.clone()
	clone.CallTimeout = timeout
	return clone
}

func (c *Config) clone() *Config {
	models := make(map[ModelTier]string, len(c.Models))
	for k, v := range c.Models {
		models[k] = v
	}
	return &Config{Provider: c.Provider, Models: models, CallTimeout: c.CallTimeout}
}
