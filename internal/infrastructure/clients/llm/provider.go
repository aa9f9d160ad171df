package llm

import (
	"context"
	"fmt"

	"github.com/zatekoja/careline/internal/domain/providers"
	"github.com/zatekoja/careline/internal/infrastructure/clients/gemini"
	"github.com/zatekoja/careline/internal/infrastructure/clients/openai"
	"github.com/zatekoja/careline/internal/infrastructure/observability"
	"github.com/zatekoja/careline/pkg/config"
)

// NewProvider builds the language model selected by AGENT_PROVIDER. The
// returned close function releases client resources.
func NewProvider(ctx context.Context, cfg *config.Config, metrics *observability.Metrics) (providers.LLMProvider, func(), error) {
	switch cfg.Agent.Provider {
	case config.ProviderGemini:
		client, err := gemini.NewClient(ctx, &cfg.Gemini, metrics)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
		}
		return client, func() {}, nil
	case config.ProviderOpenAI, "":
		client, err := openai.NewClient(&cfg.OpenAI, metrics)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize OpenAI client: %w", err)
		}
		return client, client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported agent provider %q", cfg.Agent.Provider)
	}
}
