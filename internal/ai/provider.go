package ai

import (
	"context"
	"errors"
	"strings"
)

const (
	ProviderGroq   = "groq"
	ProviderGemini = "gemini"
)

var ErrMissingAPIKey = errors.New("api key is not configured")

// Provider answers a question about the supplied paper context.
type Provider interface {
	Name() string
	Model() string
	Generate(ctx context.Context, prompt, paperContext string) (string, error)
}

// Registry resolves a client-supplied model choice to a Provider.
type Registry struct {
	providers map[string]Provider
	fallback  string
}

func NewRegistry(fallback string, providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers)), fallback: fallback}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	if _, ok := r.providers[r.fallback]; !ok {
		r.fallback = ProviderGroq
	}
	return r
}

// Resolve never returns nil as long as the fallback provider is registered.
// Empty and unknown names map to the fallback.
func (r *Registry) Resolve(name string) Provider {
	if p, ok := r.providers[strings.ToLower(strings.TrimSpace(name))]; ok {
		return p
	}
	return r.providers[r.fallback]
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for _, n := range []string{ProviderGroq, ProviderGemini} {
		if _, ok := r.providers[n]; ok {
			names = append(names, n)
		}
	}
	return names
}
