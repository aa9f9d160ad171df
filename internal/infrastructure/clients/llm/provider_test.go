package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/careline/pkg/config"
)

func TestNewProvider_OpenAI(t *testing.T) {
	cfg := &config.Config{
		Agent:  config.AgentConfig{Provider: config.ProviderOpenAI},
		OpenAI: config.OpenAIConfig{APIKey: "test-key", RateLimitRPM: 60, RateLimitBurst: 1},
	}

	provider, closeFn, err := NewProvider(context.Background(), cfg, nil)

	require.NoError(t, err)
	defer closeFn()
	assert.Equal(t, "openai", provider.Name())
}

func TestNewProvider_MissingKey(t *testing.T) {
	for _, name := range []string{config.ProviderOpenAI, config.ProviderGemini} {
		cfg := &config.Config{Agent: config.AgentConfig{Provider: name}}

		_, _, err := NewProvider(context.Background(), cfg, nil)

		assert.Error(t, err, name)
	}
}

func TestNewProvider_Unknown(t *testing.T) {
	cfg := &config.Config{Agent: config.AgentConfig{Provider: "llama"}}

	_, _, err := NewProvider(context.Background(), cfg, nil)

	assert.ErrorContains(t, err, "unsupported agent provider")
}
