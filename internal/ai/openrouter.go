package ai

import (
	"context"
	"fmt"
	"strings"
)

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

type openrouterConfig struct {
	APIKey      string `json:"api_key"`
	BaseURL     string `json:"base_url"`
	HTTPReferer string `json:"http_referer"`
	XTitle      string `json:"x_title"`
}

// openrouterProvider speaks the OpenAI-compatible chat API with openrouter's
// attribution headers. The service offers no embeddings endpoint, so it can
// only back generation and OCR.
type openrouterProvider struct {
	openAIProvider
}

func (p *openrouterProvider) Name() string {
	return "openrouter"
}

func (p *openrouterProvider) Embed(ctx context.Context, model string, texts []string, taskType string) ([][]float32, error) {
	return nil, fmt.Errorf("openrouter has no embeddings endpoint")
}

func createOpenRouterFactory(args interface{}) (IProvider, error) {
	cfg := &openrouterConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	}
	headers := map[string]string{}
	if referer := strings.TrimSpace(cfg.HTTPReferer); referer != "" {
		headers["HTTP-Referer"] = referer
	}
	if title := strings.TrimSpace(cfg.XTitle); title != "" {
		headers["X-Title"] = title
	}
	return &openrouterProvider{
		openAIProvider: openAIProvider{
			apiKey:       strings.TrimSpace(cfg.APIKey),
			baseURL:      baseURL,
			extraHeaders: headers,
		},
	}, nil
}

func init() {
	Register("openrouter", createOpenRouterFactory)
}
