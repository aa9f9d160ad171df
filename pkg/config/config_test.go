package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5001, cfg.Server.Port)
	assert.Equal(t, ProviderOpenAI, cfg.Agent.Provider)
	assert.Equal(t, 8, cfg.Agent.MaxIterations)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, "https://api.openai.com/v1", cfg.OpenAI.BaseURL)
	assert.False(t, cfg.Database.AutoMigrate)
	assert.Equal(t, 60*time.Second, cfg.Agent.TurnTimeout)
}

func TestLoad_AgentOverrides(t *testing.T) {
	t.Setenv("AGENT_PROVIDER", "Gemini")
	t.Setenv("AGENT_MAX_ITERATIONS", "3")
	t.Setenv("AGENT_TIMEZONE", "America/New_York")
	t.Setenv("AGENT_TURN_TIMEOUT", "15s")
	t.Setenv("GEMINI_MODEL", "gemini-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ProviderGemini, cfg.Agent.Provider)
	assert.Equal(t, 3, cfg.Agent.MaxIterations)
	assert.Equal(t, 15*time.Second, cfg.Agent.TurnTimeout)
	assert.Equal(t, "gemini-test", cfg.Gemini.Model)

	loc, err := cfg.Agent.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", loc.String())
}

func TestLoad_RejectsInvalidAgentSettings(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "unknown provider", key: "AGENT_PROVIDER", val: "llama"},
		{name: "zero iterations", key: "AGENT_MAX_ITERATIONS", val: "0"},
		{name: "bad timezone", key: "AGENT_TIMEZONE", val: "Mars/Olympus_Mons"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Database: "careline", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=careline sslmode=disable", cfg.DatabaseDSN())
}

func TestLoad_AllowedOrigins(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "https://ops.example.com, https://supervisor.example.com,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://ops.example.com", "https://supervisor.example.com"}, cfg.Server.AllowedOrigins)
}
