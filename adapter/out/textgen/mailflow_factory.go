package textgen

import (
	"mailflow_server/config"
	"mailflow_server/core/port/out"

	"github.com/rs/zerolog"
)

// NewProvider builds the text generation provider selected by the
// configuration. Returns nil when no usable API key is configured, in
// which case callers run keyword-only categorization and local answers.
func NewProvider(cfg *config.Config, log zerolog.Logger) out.TextGenerationProvider {
	if !cfg.HasAIKey() {
		return nil
	}

	switch cfg.AIProvider {
	case "gemini":
		return NewGeminiProvider(GeminiConfig{
			APIKey:      cfg.GeminiAPIKey,
			Model:       cfg.GeminiModel,
			Temperature: cfg.LLMTemperature,
			Log:         log,
		})
	case "claude":
		return NewClaudeProvider(ClaudeConfig{
			APIKey:      cfg.ClaudeAPIKey,
			Model:       cfg.ClaudeModel,
			MaxTokens:   cfg.ClaudeMaxTokens,
			Temperature: cfg.LLMTemperature,
			Log:         log,
		})
	case "openai":
		return NewOpenAIProvider(OpenAIConfig{
			APIKey:      cfg.OpenAIAPIKey,
			Model:       cfg.OpenAIModel,
			Temperature: cfg.LLMTemperature,
		})
	default:
		return nil
	}
}
