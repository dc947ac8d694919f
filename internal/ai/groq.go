package ai

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	DefaultGroqBaseURL = "https://api.groq.com/openai/v1"
	DefaultGroqModel   = "llama-3.3-70b-versatile"
)

type GroqProvider struct {
	client *OpenAICompatibleClient
	cfg    ChatConfig
}

func NewGroqProvider(apiKey, baseURL, model string, timeout time.Duration) *GroqProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultGroqBaseURL
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultGroqModel
	}
	return &GroqProvider{
		client: NewOpenAICompatibleClient(timeout),
		cfg:    ChatConfig{BaseURL: baseURL, APIKey: strings.TrimSpace(apiKey), Model: model},
	}
}

func (g *GroqProvider) Name() string  { return ProviderGroq }
func (g *GroqProvider) Model() string { return g.cfg.Model }

func (g *GroqProvider) Generate(ctx context.Context, prompt, paperContext string) (string, error) {
	if g.cfg.APIKey == "" {
		return "", fmt.Errorf("%w for %s", ErrMissingAPIKey, ProviderGroq)
	}
	messages := []ChatMessage{
		{
			Role: "system",
			Content: "You are an expert research assistant. Use the following paper context " +
				"to answer the user's question accurately and concisely.\n\n" +
				"Paper Context:\n" + paperContext,
		},
		{Role: "user", Content: prompt},
	}
	return g.client.Complete(ctx, g.cfg, messages)
}
