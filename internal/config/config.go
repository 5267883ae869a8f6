package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"recall/internal/domain"
)

// EmbedderConfig configures the OpenAI embeddings client.
type EmbedderConfig struct {
	Model       string `yaml:"model"`
	APIKeyEnv   string `yaml:"api_key_env"`
	BaseURL     string `yaml:"base_url,omitempty"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	BatchSize   int    `yaml:"batch_size"`
}

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	Size       int      `yaml:"chunk_size"`
	Overlap    int      `yaml:"chunk_overlap"`
	Separators []string `yaml:"separators,omitempty"`
}

// IndexConfig contains connection details for the external vector index.
// The index itself is created out of band; Name empty means retrieval is
// not configured.
type IndexConfig struct {
	Name        string `yaml:"name"`
	Dimension   int    `yaml:"dimension"`
	Metric      string `yaml:"metric"`
	APIKeyEnv   string `yaml:"api_key_env"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// RetrievalConfig tunes the read path.
type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
}

// AssistantConfig configures the conversational session.
type AssistantConfig struct {
	ChatModel string `yaml:"chat_model"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Index     IndexConfig     `yaml:"index"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Assistant AssistantConfig `yaml:"assistant"`
}

// DefaultSeparators is the canonical split order: paragraph break, line
// break, word break, then a hard character cut.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// Load reads a config from a specified path. If the file does not exist,
// returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	cfg := unsetConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/recall/config.yaml.
// If neither exists, it writes defaults to ~/.config/recall/config.yaml and
// returns them.
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
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate rejects settings that would only fail at call time.
func (c *AppConfig) Validate() error {
	if c.Chunker.Size <= 0 {
		return &domain.ConfigurationError{Field: "chunker.chunk_size", Reason: "must be positive"}
	}
	if c.Chunker.Overlap < 0 || c.Chunker.Overlap >= c.Chunker.Size {
		return &domain.ConfigurationError{Field: "chunker.chunk_overlap", Reason: "must satisfy 0 <= overlap < chunk_size"}
	}
	switch c.Index.Metric {
	case "cosine", "euclidean", "dotproduct":
	default:
		return &domain.ConfigurationError{Field: "index.metric", Reason: "must be one of cosine, euclidean, dotproduct"}
	}
	if c.Index.Dimension <= 0 {
		return &domain.ConfigurationError{Field: "index.dimension", Reason: "must be positive"}
	}
	if c.Retrieval.TopK < 1 {
		return &domain.ConfigurationError{Field: "retrieval.top_k", Reason: "must be at least 1"}
	}
	return nil
}

// RetrievalDisabledReason reports why the read path cannot run, or ""
// when it is fully configured. Missing values here disable retrieval
// rather than erroring: the assistant must keep talking either way.
func (c *AppConfig) RetrievalDisabledReason() string {
	if c.Index.Name == "" {
		return "index name is not set"
	}
	if os.Getenv(c.Index.APIKeyEnv) == "" {
		return "missing vector index API key in env " + c.Index.APIKeyEnv
	}
	if os.Getenv(c.Embedder.APIKeyEnv) == "" {
		return "missing embedding API key in env " + c.Embedder.APIKeyEnv
	}
	return ""
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "recall", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := unsetConfig()
	applyConfigDefaults(cfg)
	return cfg
}

// unsetConfig marks fields whose zero value is a valid setting, so that
// unmarshalling can tell "absent" from "explicitly zero". An overlap of 0
// is legal and must survive loading.
func unsetConfig() *AppConfig {
	return &AppConfig{Chunker: ChunkerConfig{Overlap: -1}}
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Embedder.Model == "" {
		cfg.Embedder.Model = "text-embedding-3-small"
	}
	if cfg.Embedder.APIKeyEnv == "" {
		cfg.Embedder.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Embedder.TimeoutSecs == 0 {
		cfg.Embedder.TimeoutSecs = 30
	}
	if cfg.Embedder.BatchSize == 0 {
		cfg.Embedder.BatchSize = 64
	}
	if cfg.Chunker.Size == 0 {
		cfg.Chunker.Size = 1000
	}
	// default overlap follows the effective size so a config that only
	// shrinks chunk_size still validates
	if cfg.Chunker.Overlap < 0 {
		cfg.Chunker.Overlap = cfg.Chunker.Size / 10
	}
	if len(cfg.Chunker.Separators) == 0 {
		cfg.Chunker.Separators = append([]string(nil), DefaultSeparators...)
	}
	if cfg.Index.Dimension == 0 {
		cfg.Index.Dimension = 1536
	}
	if cfg.Index.Metric == "" {
		cfg.Index.Metric = "cosine"
	}
	if cfg.Index.APIKeyEnv == "" {
		cfg.Index.APIKeyEnv = "PINECONE_API_KEY"
	}
	if cfg.Index.TimeoutSecs == 0 {
		cfg.Index.TimeoutSecs = 15
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 3
	}
	if cfg.Assistant.ChatModel == "" {
		cfg.Assistant.ChatModel = "gpt-4.1-mini"
	}
	if cfg.Assistant.APIKeyEnv == "" {
		cfg.Assistant.APIKeyEnv = "OPENAI_API_KEY"
	}
}
