package textgen

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"mailflow_server/core/port/out"
	"mailflow_server/pkg/httputil"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

const (
	DefaultGeminiModel   = "gemini-pro"
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
)

// GeminiProvider generates text through the Gemini generateContent API.
type GeminiProvider struct {
	apiKey      string
	model       string
	temperature float64
	baseURL     string
	client      *http.Client
	log         zerolog.Logger
}

type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float64
	BaseURL     string
	Client      *http.Client
	Log         zerolog.Logger
}

func NewGeminiProvider(cfg GeminiConfig) *GeminiProvider {
	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.3
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	client := cfg.Client
	if client == nil {
		client = httputil.GeminiClient()
	}

	return &GeminiProvider{
		apiKey:      cfg.APIKey,
		model:       model,
		temperature: temperature,
		baseURL:     baseURL,
		client:      client,
		log:         cfg.Log.With().Str("provider", "gemini").Logger(),
	}
}

func (p *GeminiProvider) Name() string {
	return "gemini"
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature float64 `json:"temperature"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *GeminiProvider) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: geminiGenConfig{Temperature: p.temperature},
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, p.model, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var parsed geminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("gemini: decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := resp.Status
		if parsed.Error != nil && parsed.Error.Message != "" {
			msg = parsed.Error.Message
		}
		p.log.Warn().Int("status", resp.StatusCode).Str("message", msg).Msg("gemini request failed")
		return "", fmt.Errorf("gemini: %s", msg)
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", out.ErrNoCompletion
	}

	text := parsed.Candidates[0].Content.Parts[0].Text
	if strings.TrimSpace(text) == "" {
		return "", out.ErrNoCompletion
	}
	return text, nil
}
