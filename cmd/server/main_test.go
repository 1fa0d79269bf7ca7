// cmd/server/main_test.go
package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Corphon/PoetryKGQA/internal/config"
)

func TestApplyFlagOverrides(t *testing.T) {
	cfg := &config.Config{CorpusFile: "data/out_poem_decoded.ttl"}
	cfg.AI.Timeout = config.DefaultAITimeout

	require.NoError(t, rootCmd.ParseFlags([]string{"--timeout", "5s", "--fallback"}))
	applyFlagOverrides(rootCmd, cfg)

	assert.Equal(t, 5*time.Second, cfg.AI.Timeout)
	assert.True(t, cfg.AI.FallbackEnabled)
	assert.False(t, cfg.DebugMode)
	assert.Equal(t, "data/out_poem_decoded.ttl", cfg.CorpusFile)
}

func TestCommandsRegistered(t *testing.T) {
	var names []string
	for _, cmd := range rootCmd.Commands() {
		names = append(names, cmd.Name())
	}
	for _, name := range []string{"serve", "ask", "mcp", "import"} {
		assert.Contains(t, names, name)
	}
}
