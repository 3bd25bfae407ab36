package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"docchat/internal/domain"
)

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// EmbedderConfig configures the OpenAI-compatible embedding client.
type EmbedderConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`
	BatchSize int    `yaml:"batch_size"`
}

// LLMConfig configures the chat model and the persona line used in the
// synthesized system message.
type LLMConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`
	Persona   string `yaml:"persona"`
}

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	MaxChunkSize int `yaml:"max_chunk_size"`
	OverlapSize  int `yaml:"overlap_size"`
}

// RetrievalConfig configures top-k search and the relevance cutoff.
// A threshold of zero disables the cutoff and keeps every returned match.
type RetrievalConfig struct {
	TopK               int     `yaml:"top_k"`
	RelevanceThreshold float64 `yaml:"relevance_threshold"`
}

// IndexConfig selects the vector store backend and its storage location.
type IndexConfig struct {
	Type string `yaml:"type"` // "bolt" or "memory"
	Path string `yaml:"path"`
}

// IngestConfig sets the default corpus location for ingestion runs.
type IngestConfig struct {
	SourceDir string `yaml:"source_dir"`
	Pattern   string `yaml:"pattern"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
	Prod  bool   `yaml:"prod"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Server    ServerConfig    `yaml:"server"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	LLM       LLMConfig       `yaml:"llm"`
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Index     IndexConfig     `yaml:"index"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Logging   LoggingConfig   `yaml:"logging"`
}

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
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, domain.NewConfigError(path, err.Error())
	}
	applyConfigDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/docchat/config.yaml.
// If neither exists, it writes defaults to the user path and returns them.
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

// Validate rejects settings the components would fail on later.
func (c *AppConfig) Validate() error {
	if c.Chunker.MaxChunkSize <= 0 {
		return domain.NewConfigError("chunker.max_chunk_size", "must be positive")
	}
	if c.Chunker.OverlapSize < 0 || c.Chunker.OverlapSize >= c.Chunker.MaxChunkSize {
		return domain.NewConfigError("chunker.overlap_size", "must satisfy 0 <= overlap < max_chunk_size")
	}
	if c.Retrieval.TopK <= 0 {
		return domain.NewConfigError("retrieval.top_k", "must be positive")
	}
	switch c.Index.Type {
	case "bolt":
		if c.Index.Path == "" {
			return domain.NewConfigError("index.path", "required for the bolt backend")
		}
	case "memory":
	default:
		return domain.NewConfigError("index.type", "must be \"bolt\" or \"memory\"")
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "docchat", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Server:    ServerConfig{Addr: ":8000"},
		Embedder:  EmbedderConfig{APIKeyEnv: "OPENAI_API_KEY", Model: "text-embedding-3-small", BatchSize: 64},
		LLM:       LLMConfig{APIKeyEnv: "OPENAI_API_KEY", Model: "gpt-4.1"},
		Chunker:   ChunkerConfig{MaxChunkSize: 300, OverlapSize: 100},
		Retrieval: RetrievalConfig{TopK: 3, RelevanceThreshold: 0},
		Index:     IndexConfig{Type: "bolt", Path: "index.db"},
		Ingest:    IngestConfig{SourceDir: "data", Pattern: "*.md"},
		Logging:   LoggingConfig{Level: "info"},
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	def := defaultConfig()
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = def.Server.Addr
	}
	if cfg.Embedder.APIKeyEnv == "" {
		cfg.Embedder.APIKeyEnv = def.Embedder.APIKeyEnv
	}
	if cfg.Embedder.Model == "" {
		cfg.Embedder.Model = def.Embedder.Model
	}
	if cfg.Embedder.BatchSize == 0 {
		cfg.Embedder.BatchSize = def.Embedder.BatchSize
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = def.LLM.APIKeyEnv
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = def.LLM.Model
	}
	if cfg.Chunker.MaxChunkSize == 0 {
		cfg.Chunker = def.Chunker
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = def.Retrieval.TopK
	}
	if cfg.Index.Type == "" {
		cfg.Index = def.Index
	}
	if cfg.Ingest.SourceDir == "" {
		cfg.Ingest.SourceDir = def.Ingest.SourceDir
	}
	if cfg.Ingest.Pattern == "" {
		cfg.Ingest.Pattern = def.Ingest.Pattern
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
}
