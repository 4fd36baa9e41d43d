package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY",
		"ANALYZER_HOST", "ANALYZER_PORT", "NETQUERY_SNAPSHOT",
		"NETQUERY_CORPUS", "NETQUERY_PROFILE", "NETQUERY_DEBUG",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LLM.Provider != "openai" {
		t.Errorf("default provider = %q", cfg.LLM.Provider)
	}
	if cfg.Analyzer.Port != 9996 {
		t.Errorf("default analyzer port = %d", cfg.Analyzer.Port)
	}
	if cfg.Chat.MaxToolIterations != 4 {
		t.Errorf("default max tool iterations = %d", cfg.Chat.MaxToolIterations)
	}
	if cfg.Chat.TaskCount != 5 {
		t.Errorf("default task count = %d", cfg.Chat.TaskCount)
	}
	if cfg.GetLLMTimeout() != 120*time.Second {
		t.Errorf("default LLM timeout = %v", cfg.GetLLMTimeout())
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Analyzer.Network != "example_network" {
		t.Errorf("network = %q", cfg.Analyzer.Network)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
llm:
  provider: anthropic
  smart_model: claude-sonnet-4-20250514
analyzer:
  host: analyzer.internal
  port: 9997
chat:
  profile: basic
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ANALYZER_HOST", "override.internal")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Env wins over file.
	if cfg.Analyzer.Host != "override.internal" {
		t.Errorf("host = %q", cfg.Analyzer.Host)
	}
	if cfg.LLM.Provider != "openai" || cfg.LLM.APIKey != "sk-test" {
		t.Errorf("provider/key = %q/%q", cfg.LLM.Provider, cfg.LLM.APIKey)
	}
	// File wins over defaults.
	if cfg.Analyzer.Port != 9997 {
		t.Errorf("port = %d", cfg.Analyzer.Port)
	}
	if cfg.Chat.Profile != "basic" {
		t.Errorf("profile = %q", cfg.Chat.Profile)
	}
	// Embedding key follows the OpenAI key when unset.
	if cfg.Embedding.OpenAIAPIKey != "sk-test" {
		t.Errorf("embedding key = %q", cfg.Embedding.OpenAIAPIKey)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) { c.LLM.APIKey = "sk-test" }, false},
		{"missing key", func(c *Config) {}, true},
		{"bad provider", func(c *Config) {
			c.LLM.APIKey = "sk-test"
			c.LLM.Provider = "cohere"
		}, true},
		{"bad profile", func(c *Config) {
			c.LLM.APIKey = "sk-test"
			c.Chat.Profile = "turbo"
		}, true},
		{"zero iterations", func(c *Config) {
			c.LLM.APIKey = "sk-test"
			c.Chat.MaxToolIterations = 0
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTimeoutFallbacks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.Timeout = "not-a-duration"
	cfg.Analyzer.SnapshotTimeout = ""

	if got := cfg.GetLLMTimeout(); got != 120*time.Second {
		t.Errorf("GetLLMTimeout() = %v", got)
	}
	if got := cfg.GetSnapshotTimeout(); got != 300*time.Second {
		t.Errorf("GetSnapshotTimeout() = %v", got)
	}
}

func TestLLMClientConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.APIKey = "sk-test"

	pc := cfg.LLMClientConfig(cfg.LLM.FastModel)
	if pc.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", pc.Model)
	}
	if pc.APIKey != "sk-test" {
		t.Errorf("api key = %q", pc.APIKey)
	}
	if pc.Timeout != 120*time.Second {
		t.Errorf("timeout = %v", pc.Timeout)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Analyzer.Host = "analyzer.lab"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Analyzer.Host != "analyzer.lab" {
		t.Errorf("host = %q", loaded.Analyzer.Host)
	}
}
