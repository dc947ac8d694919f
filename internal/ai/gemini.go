package ai

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.0-flash"

type GeminiProvider struct {
	apiKey string
	model  string

	mu     sync.Mutex
	client *genai.Client
}

func NewGeminiProvider(apiKey, model string) *GeminiProvider {
	if strings.TrimSpace(model) == "" {
		model = DefaultGeminiModel
	}
	return &GeminiProvider{apiKey: strings.TrimSpace(apiKey), model: model}
}

func (g *GeminiProvider) Name() string  { return ProviderGemini }
func (g *GeminiProvider) Model() string { return g.model }

func (g *GeminiProvider) Generate(ctx context.Context, prompt, paperContext string) (string, error) {
	client, err := g.getClient(ctx)
	if err != nil {
		return "", err
	}
	resp, err := client.Models.GenerateContent(ctx, g.model, genai.Text(geminiPrompt(prompt, paperContext)), nil)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

func (g *GeminiProvider) getClient(ctx context.Context) (*genai.Client, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("%w for %s", ErrMissingAPIKey, ProviderGemini)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil {
		return g.client, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("init gemini client failed: %w", err)
	}
	g.client = client
	return client, nil
}

func geminiPrompt(prompt, paperContext string) string {
	return "You are an expert research assistant. Use this paper context to answer:\n\n" +
		"Paper Context:\n" + paperContext + "\n\n" +
		"Question: " + prompt
}
