package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvOverrides_LLM(t *testing.T) {
	t.Run("ANTHROPIC_API_KEY selects anthropic", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "ant-key")
		t.Setenv("OPENAI_API_KEY", "")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "ant-key", cfg.LLM.APIKey)
		assert.Equal(t, "anthropic", cfg.LLM.Provider)
	})

	t.Run("Precedence: OPENAI overrides ANTHROPIC", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "ant-key")
		t.Setenv("OPENAI_API_KEY", "oa-key")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "oa-key", cfg.LLM.APIKey)
		assert.Equal(t, "openai", cfg.LLM.Provider)
	})

	t.Run("OPENAI key feeds the embedding engine when unset", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "oa-key")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "oa-key", cfg.Embedding.OpenAIAPIKey)
	})

	t.Run("OPENAI key does not clobber an explicit embedding key", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "oa-key")

		cfg := DefaultConfig()
		cfg.Embedding.OpenAIAPIKey = "embed-key"
		cfg.applyEnvOverrides()

		assert.Equal(t, "embed-key", cfg.Embedding.OpenAIAPIKey)
	})
}

func TestEnvOverrides_Analyzer(t *testing.T) {
	t.Run("host and port", func(t *testing.T) {
		t.Setenv("ANALYZER_HOST", "analyzer.lab")
		t.Setenv("ANALYZER_PORT", "9090")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "analyzer.lab", cfg.Analyzer.Host)
		assert.Equal(t, 9090, cfg.Analyzer.Port)
	})

	t.Run("malformed port is ignored", func(t *testing.T) {
		t.Setenv("ANALYZER_PORT", "not-a-port")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, 9996, cfg.Analyzer.Port)
	})
}

func TestEnvOverrides_Session(t *testing.T) {
	t.Setenv("NETQUERY_SNAPSHOT", "/srv/snapshots/lab")
	t.Setenv("NETQUERY_CORPUS", "/srv/corpus/examples.json")
	t.Setenv("NETQUERY_PROFILE", "basic")
	t.Setenv("NETQUERY_DEBUG", "1")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	require.Equal(t, "/srv/snapshots/lab", cfg.Analyzer.SnapshotPath)
	require.Equal(t, "/srv/corpus/examples.json", cfg.Corpus.Path)
	require.Equal(t, "basic", cfg.Chat.Profile)
	require.True(t, cfg.Logging.Debug)
}
