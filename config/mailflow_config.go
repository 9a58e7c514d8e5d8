package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port        string
	Environment string

	// AI provider selection: openai, gemini, claude
	AIProvider string

	// OpenAI
	OpenAIAPIKey string
	OpenAIModel  string

	// Gemini
	GeminiAPIKey string
	GeminiModel  string

	// Claude
	ClaudeAPIKey    string
	ClaudeModel     string
	ClaudeMaxTokens int

	// LLM
	LLMTemperature float64
	LLMTimeoutSec  int

	// OAuth - Google
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// Mailbox
	EmailsPerPage      int
	MaxEmailsToFetch   int
	FetchConcurrency   int
	CategorizeBatch    int
	AnswerContextLimit int

	// Keyword table override, JSON object of category -> phrases
	CategoryKeywordsJSON string

	// CORS
	AllowedOrigins []string
}

func Load() (*Config, error) {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),

		AIProvider: strings.ToLower(getEnv("AI_PROVIDER", "openai")),

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-pro"),

		ClaudeAPIKey:    getEnv("CLAUDE_API_KEY", ""),
		ClaudeModel:     getEnv("CLAUDE_MODEL", "claude-3-haiku-20240307"),
		ClaudeMaxTokens: getEnvInt("CLAUDE_MAX_TOKENS", 1024),

		LLMTemperature: getEnvFloat("LLM_TEMPERATURE", 0.3),
		LLMTimeoutSec:  getEnvInt("LLM_TIMEOUT_SEC", 60),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),

		EmailsPerPage:      getEnvInt("EMAILS_PER_PAGE", 25),
		MaxEmailsToFetch:   getEnvInt("MAX_EMAILS_TO_FETCH", 500),
		FetchConcurrency:   getEnvInt("FETCH_CONCURRENCY", 20),
		CategorizeBatch:    getEnvInt("CATEGORIZE_BATCH_SIZE", 10),
		AnswerContextLimit: getEnvInt("ANSWER_CONTEXT_LIMIT", 30),

		CategoryKeywordsJSON: getEnv("CATEGORY_KEYWORDS_JSON", ""),

		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
	}, nil
}

// HasAIKey reports whether the selected provider has a usable API key.
// Placeholder keys of the form YOUR_..._API_KEY count as missing.
func (c *Config) HasAIKey() bool {
	key := ""
	switch c.AIProvider {
	case "openai":
		key = c.OpenAIAPIKey
	case "gemini":
		key = c.GeminiAPIKey
	case "claude":
		key = c.ClaudeAPIKey
	}
	return key != "" && !strings.HasPrefix(key, "YOUR_")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
