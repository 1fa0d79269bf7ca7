// internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATA_DIR", "testdata")
	t.Setenv("CORPUS_FILE", "")
	t.Setenv("AI_FALLBACK_ENABLED", "")
	t.Setenv("DEEPSEEK_API_URL", "")
	t.Setenv("DEEPSEEK_API_KEY", "")
	t.Setenv("AI_TIMEOUT", "")
	t.Setenv("GRAPH_BACKEND", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "testdata/out_poem_decoded.ttl", cfg.CorpusFile)
	assert.False(t, cfg.AI.FallbackEnabled)
	assert.False(t, cfg.AI.Configured())
	assert.Equal(t, DefaultAITimeout, cfg.AI.Timeout)
	assert.Equal(t, GraphBackendMemory, cfg.Graph.Backend)
}

func TestLoadAIConfig(t *testing.T) {
	t.Setenv("AI_FALLBACK_ENABLED", "yes")
	t.Setenv("DEEPSEEK_API_URL", "https://api.deepseek.com")
	t.Setenv("DEEPSEEK_API_KEY", "sk-test")
	t.Setenv("AI_TIMEOUT", "30")
	t.Setenv("GRAPH_BACKEND", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.AI.FallbackEnabled)
	assert.True(t, cfg.AI.Configured())
	assert.Equal(t, 30*time.Second, cfg.AI.Timeout)
	assert.Equal(t, "sk-test", cfg.AI.ProviderConfig()["api_key"])
	assert.Equal(t, "https://api.deepseek.com", cfg.AI.ProviderConfig()["base_url"])
}

func TestValidateGraphBackend(t *testing.T) {
	t.Setenv("AI_TIMEOUT", "")
	t.Setenv("GRAPH_BACKEND", "neo4j")
	t.Setenv("NEO4J_URI", "")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("GRAPH_BACKEND", "sparql")
	_, err = Load()
	assert.Error(t, err)
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("X_DURATION", "1m")
	assert.Equal(t, time.Minute, getEnvDuration("X_DURATION", time.Second))

	t.Setenv("X_DURATION", "bogus")
	assert.Equal(t, time.Second, getEnvDuration("X_DURATION", time.Second))
}
