package llmprovider

import (
	"clippost-server/services/assistant-api/internal/config"
	"clippost-server/services/assistant-api/internal/domain/provider"
)

// Registry holds the configured provider adapters keyed by ID.
type Registry struct {
	adapters map[string]provider.Adapter
}

// NewRegistry wires every supported provider from config.
func NewRegistry(cfg *config.Config) *Registry {
	adapters := map[string]provider.Adapter{}

	register := func(a provider.Adapter) {
		adapters[a.ID()] = a
	}

	register(NewAnthropic(cfg.AnthropicBaseURL, cfg.AnthropicModel, cfg.ProviderTimeout))
	register(NewOpenAICompatible("openai", cfg.OpenAIBaseURL, cfg.OpenAIModel))
	register(NewOpenAICompatible("groq", cfg.GroqBaseURL, cfg.GroqModel))

	return &Registry{adapters: adapters}
}

// Lookup resolves an adapter by provider ID.
func (r *Registry) Lookup(providerID string) (provider.Adapter, bool) {
	adapter, ok := r.adapters[providerID]
	return adapter, ok
}

// IDs lists the registered provider IDs.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	return ids
}
