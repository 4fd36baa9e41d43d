package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"netquery/internal/embedding"
	"netquery/internal/perception"
)

// Config holds all netquery configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// LLM configuration
	LLM LLMConfig `yaml:"llm"`

	// Embedding engine configuration
	Embedding embedding.Config `yaml:"embedding"`

	// Network analyzer service
	Analyzer AnalyzerConfig `yaml:"analyzer"`

	// Retrieval corpus
	Corpus CorpusConfig `yaml:"corpus"`

	// Chat behavior
	Chat ChatConfig `yaml:"chat"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the language-model clients.
type LLMConfig struct {
	Provider string `yaml:"provider"` // openai, anthropic
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`

	// Model tiers. Smart drives synthesis and the agent loop; Fast
	// drives sufficiency checks and the basic profile.
	SmartModel string `yaml:"smart_model"`
	FastModel  string `yaml:"fast_model"`
}

// AnalyzerConfig configures the network analyzer session.
type AnalyzerConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	Timeout         string `yaml:"timeout"`
	Network         string `yaml:"network"`
	SnapshotName    string `yaml:"snapshot_name"`
	SnapshotPath    string `yaml:"snapshot_path"`
	SnapshotTimeout string `yaml:"snapshot_timeout"`
}

// CorpusConfig configures the example retrieval corpus.
type CorpusConfig struct {
	Path string `yaml:"path"`
	TopK int    `yaml:"top_k"`
}

// ChatConfig configures session behavior.
type ChatConfig struct {
	Profile           string `yaml:"profile"` // smart, basic
	MaxToolIterations int    `yaml:"max_tool_iterations"`
	TaskCount         int    `yaml:"task_count"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Dir   string `yaml:"dir"`
	Debug bool   `yaml:"debug"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "netquery",
		Version: "0.3.0",

		LLM: LLMConfig{
			Provider:   "openai",
			Timeout:    "120s",
			SmartModel: "gpt-4o",
			FastModel:  "gpt-4o-mini",
		},

		Embedding: embedding.DefaultConfig(),

		Analyzer: AnalyzerConfig{
			Host:            "localhost",
			Port:            9996,
			Timeout:         "60s",
			Network:         "example_network",
			SnapshotName:    "example_snapshot",
			SnapshotPath:    "snapshots/example",
			SnapshotTimeout: "300s",
		},

		Corpus: CorpusConfig{
			Path: "data/examples.json",
			TopK: 3,
		},

		Chat: ChatConfig{
			Profile:           "smart",
			MaxToolIterations: 4,
			TaskCount:         5,
		},

		Logging: LoggingConfig{
			Dir:   "logs",
			Debug: false,
		},
	}
}

// Load loads configuration from a YAML file, then applies environment
// overrides. A `.env` file in the working directory is read first so
// credentials never need to live in the YAML file.
func Load(path string) (*Config, error) {
	// Missing .env is the common case, not an error.
	_ = godotenv.Load()

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "anthropic"
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "openai"
		if c.Embedding.OpenAIAPIKey == "" {
			c.Embedding.OpenAIAPIKey = key
		}
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" && c.Embedding.GenAIAPIKey == "" {
		c.Embedding.GenAIAPIKey = key
	}

	if host := os.Getenv("ANALYZER_HOST"); host != "" {
		c.Analyzer.Host = host
	}
	if port := os.Getenv("ANALYZER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Analyzer.Port = p
		}
	}
	if path := os.Getenv("NETQUERY_SNAPSHOT"); path != "" {
		c.Analyzer.SnapshotPath = path
	}
	if path := os.Getenv("NETQUERY_CORPUS"); path != "" {
		c.Corpus.Path = path
	}
	if profile := os.Getenv("NETQUERY_PROFILE"); profile != "" {
		c.Chat.Profile = profile
	}
	if os.Getenv("NETQUERY_DEBUG") != "" {
		c.Logging.Debug = true
	}
}

// ValidProviders lists all supported LLM providers.
var ValidProviders = []string{"openai", "anthropic"}

// Validate checks that the configuration can drive a session. Missing
// LLM credentials are fatal; everything else degrades at runtime.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("LLM API key not configured (set OPENAI_API_KEY or ANTHROPIC_API_KEY)")
	}

	validProvider := false
	for _, p := range ValidProviders {
		if c.LLM.Provider == p {
			validProvider = true
			break
		}
	}
	if !validProvider {
		return fmt.Errorf("invalid LLM provider: %s (valid: %v)", c.LLM.Provider, ValidProviders)
	}

	switch c.Chat.Profile {
	case "smart", "basic":
	default:
		return fmt.Errorf("invalid profile: %s (valid: smart, basic)", c.Chat.Profile)
	}

	if c.Analyzer.Host == "" {
		return fmt.Errorf("analyzer host not configured (set ANALYZER_HOST)")
	}

	if c.Chat.MaxToolIterations < 1 {
		return fmt.Errorf("max_tool_iterations must be at least 1, got %d", c.Chat.MaxToolIterations)
	}

	return nil
}

// GetLLMTimeout returns the LLM timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// GetAnalyzerTimeout returns the analyzer request timeout as a duration.
func (c *Config) GetAnalyzerTimeout() time.Duration {
	d, err := time.ParseDuration(c.Analyzer.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// GetSnapshotTimeout returns the snapshot initialization timeout.
// Snapshot parsing is much slower than a single question.
func (c *Config) GetSnapshotTimeout() time.Duration {
	d, err := time.ParseDuration(c.Analyzer.SnapshotTimeout)
	if err != nil {
		return 300 * time.Second
	}
	return d
}

// LLMClientConfig builds a perception client config for the given model.
func (c *Config) LLMClientConfig(model string) perception.Config {
	return perception.Config{
		Provider: perception.Provider(c.LLM.Provider),
		APIKey:   c.LLM.APIKey,
		BaseURL:  c.LLM.BaseURL,
		Model:    model,
		Timeout:  c.GetLLMTimeout(),
	}
}
