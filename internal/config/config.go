package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// LLMConfig configures the chat-completion gateway.
type LLMConfig struct {
	// Type is "openai" or "mock". The mock echoes prompts and needs no network.
	Type             string   `yaml:"type" toml:"type"`
	BaseURL          string   `yaml:"base_url" toml:"base_url"`
	APIKeyEnv        string   `yaml:"api_key_env" toml:"api_key_env"`
	Model            string   `yaml:"model" toml:"model"`
	Temperature      *float64 `yaml:"temperature,omitempty" toml:"temperature,omitempty"`
	TimeoutSecs      int      `yaml:"timeout_secs" toml:"timeout_secs"`
	StructuredOutput bool     `yaml:"structured_output" toml:"structured_output"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url" toml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env" toml:"api_key_env"`
	Model       string `yaml:"model" toml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs" toml:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" toml:"max_retries"`
}

// CacheConfig configures the embedding cache placed in front of remote embedders.
type CacheConfig struct {
	// Type is "none", "memory" or "redis".
	Type        string `yaml:"type" toml:"type"`
	Addr        string `yaml:"addr,omitempty" toml:"addr,omitempty"`
	PasswordEnv string `yaml:"password_env,omitempty" toml:"password_env,omitempty"`
	DB          int    `yaml:"db,omitempty" toml:"db,omitempty"`
	KeyPrefix   string `yaml:"key_prefix,omitempty" toml:"key_prefix,omitempty"`
	TTLSecs     int    `yaml:"ttl_secs,omitempty" toml:"ttl_secs,omitempty"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type" toml:"type"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty" toml:"openai,omitempty"`
	Cache  CacheConfig           `yaml:"cache" toml:"cache"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type   string        `yaml:"type" toml:"type"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty" toml:"qdrant,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
// Every index gets its own collection named CollectionPrefix-<id>.
type QdrantConfig struct {
	URL              string `yaml:"url" toml:"url"`
	APIKeyEnv        string `yaml:"api_key_env" toml:"api_key_env"`
	CollectionPrefix string `yaml:"collection_prefix" toml:"collection_prefix"`
	TimeoutSecs      int    `yaml:"timeout_secs" toml:"timeout_secs"`
}

// SummarizerConfig selects and configures the summarizer.
type SummarizerConfig struct {
	// Type is "llm" or "frequency".
	Type         string `yaml:"type" toml:"type"`
	MaxSentences int    `yaml:"max_sentences" toml:"max_sentences"`
}

// SynthesisConfig configures report generation.
type SynthesisConfig struct {
	// Strategy is "rag" or "direct".
	Strategy    string `yaml:"strategy" toml:"strategy"`
	TopK        int    `yaml:"top_k" toml:"top_k"`
	Instruction string `yaml:"instruction,omitempty" toml:"instruction,omitempty"`
}

// StoreConfig selects where answers are kept.
type StoreConfig struct {
	// Type is "sqlite" or "memory".
	Type string `yaml:"type" toml:"type"`
	Dir  string `yaml:"dir,omitempty" toml:"dir,omitempty"`
}

// ConcurrencyConfig bounds outbound model traffic.
type ConcurrencyConfig struct {
	SummarizeWorkers  int `yaml:"summarize_workers" toml:"summarize_workers"`
	RequestsPerMinute int `yaml:"requests_per_minute" toml:"requests_per_minute"`
	CallTimeoutSecs   int `yaml:"call_timeout_secs" toml:"call_timeout_secs"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level string `yaml:"level" toml:"level"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	LLM         LLMConfig         `yaml:"llm" toml:"llm"`
	Embedder    EmbedderConfig    `yaml:"embedder" toml:"embedder"`
	VectorStore VectorStoreConfig `yaml:"vector_store" toml:"vector_store"`
	Summarizer  SummarizerConfig  `yaml:"summarizer" toml:"summarizer"`
	Synthesis   SynthesisConfig   `yaml:"synthesis" toml:"synthesis"`
	Store       StoreConfig       `yaml:"store" toml:"store"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" toml:"concurrency"`
	Log         LogConfig         `yaml:"log" toml:"log"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
// Files ending in .toml are decoded as TOML, everything else as YAML.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	cfg := defaultConfig()
	if isTOML(path) {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/coachrag/config.yaml.
// If neither exists, it writes defaults to ~/.config/coachrag/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(cfg)
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate rejects unknown component types.
func (c *AppConfig) Validate() error {
	checks := []struct {
		field, value string
		allowed      []string
	}{
		{"llm.type", c.LLM.Type, []string{"openai", "mock"}},
		{"embedder.type", c.Embedder.Type, []string{"tfidf", "openai"}},
		{"embedder.cache.type", c.Embedder.Cache.Type, []string{"none", "memory", "redis"}},
		{"vector_store.type", c.VectorStore.Type, []string{"memory", "qdrant"}},
		{"summarizer.type", c.Summarizer.Type, []string{"llm", "frequency"}},
		{"synthesis.strategy", c.Synthesis.Strategy, []string{"rag", "direct"}},
		{"store.type", c.Store.Type, []string{"sqlite", "memory"}},
		{"log.level", c.Log.Level, []string{"debug", "info", "warn", "error"}},
	}
	var errs []error
	for _, ch := range checks {
		if !slices.Contains(ch.allowed, ch.value) {
			errs = append(errs, fmt.Errorf("%s: unknown value %q (want one of %s)", ch.field, ch.value, strings.Join(ch.allowed, ", ")))
		}
	}
	if c.Embedder.Cache.Type == "redis" && c.Embedder.Cache.Addr == "" {
		errs = append(errs, errors.New("embedder.cache.addr: required for redis"))
	}
	if c.VectorStore.Type == "qdrant" && (c.VectorStore.Qdrant == nil || c.VectorStore.Qdrant.URL == "") {
		errs = append(errs, errors.New("vector_store.qdrant.url: required for qdrant"))
	}
	return errors.Join(errs...)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "coachrag", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		LLM:         LLMConfig{Type: "openai"},
		Embedder:    EmbedderConfig{Type: "tfidf", Cache: CacheConfig{Type: "none"}},
		VectorStore: VectorStoreConfig{Type: "memory"},
		Summarizer:  SummarizerConfig{Type: "llm", MaxSentences: 3},
		Synthesis:   SynthesisConfig{Strategy: "rag", TopK: 6},
		Store:       StoreConfig{Type: "sqlite"},
		Concurrency: ConcurrencyConfig{SummarizeWorkers: 4, CallTimeoutSecs: 60},
		Log:         LogConfig{Level: "info"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.LLM.Type == "" {
		cfg.LLM.Type = "openai"
	}
	if cfg.LLM.Type == "openai" {
		if cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.LLM.APIKeyEnv == "" {
			cfg.LLM.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.LLM.Model == "" {
			cfg.LLM.Model = "gpt-4o-mini"
		}
		if cfg.LLM.TimeoutSecs == 0 {
			cfg.LLM.TimeoutSecs = 60
		}
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "tfidf"
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
	}
	if cfg.Embedder.Cache.Type == "" {
		cfg.Embedder.Cache.Type = "none"
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "memory"
	}
	if q := cfg.VectorStore.Qdrant; q != nil {
		if q.CollectionPrefix == "" {
			q.CollectionPrefix = "coachrag"
		}
		if q.TimeoutSecs == 0 {
			q.TimeoutSecs = 15
		}
	}
	if cfg.Summarizer.Type == "" {
		cfg.Summarizer.Type = "llm"
	}
	if cfg.Summarizer.MaxSentences == 0 {
		cfg.Summarizer.MaxSentences = 3
	}
	if cfg.Synthesis.Strategy == "" {
		cfg.Synthesis.Strategy = "rag"
	}
	if cfg.Synthesis.TopK <= 0 {
		cfg.Synthesis.TopK = 6
	}
	if cfg.Store.Type == "" {
		cfg.Store.Type = "sqlite"
	}
	if cfg.Concurrency.SummarizeWorkers <= 0 {
		cfg.Concurrency.SummarizeWorkers = 4
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}
