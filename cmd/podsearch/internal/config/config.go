// Package config loads the podsearch configuration file.
//
// The file lives at $PODSEARCH_CONFIG or under os.UserConfigDir():
//
//	~/Library/Application Support/podsearch/config.yaml   (macOS)
//	~/.config/podsearch/config.yaml                       (Linux)
//	%AppData%/podsearch/config.yaml                       (Windows)
//
// A missing file is not an error: every field has a default. API keys and
// the Postgres DSN fall back to environment variables when left empty.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/shubhpawar/office-ladies-podcast-search/pkg/segment"
	"github.com/shubhpawar/office-ladies-podcast-search/pkg/storage"
	"github.com/shubhpawar/office-ladies-podcast-search/pkg/transcript"
)

const (
	// appDir is the directory name under os.UserConfigDir().
	appDir = "podsearch"

	// fileName is the config file name inside appDir.
	fileName = "config.yaml"

	// EnvConfig overrides the config file location.
	EnvConfig = "PODSEARCH_CONFIG"
)

// Secret environment variables.
const (
	EnvOpenAIKey = "OPENAI_API_KEY"
	EnvGeminiKey = "GEMINI_API_KEY"
	EnvPgDSN     = "PODSEARCH_PG_DSN"
)

// Provider names.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Index backends.
const (
	IndexMemory   = "memory"
	IndexBadger   = "badger"
	IndexPgVector = "pgvector"
	IndexMilvus   = "milvus"
)

// Source kinds.
const (
	SourceLocal = "local"
	SourceS3    = "s3"
)

// Config is the whole configuration file.
type Config struct {
	Transcript transcript.Config `yaml:"transcript"`
	Segment    segment.Config    `yaml:"segment"`
	Source     SourceConfig      `yaml:"source"`
	Embed      EmbedConfig       `yaml:"embed"`
	Index      IndexConfig       `yaml:"index"`
	LLM        LLMConfig         `yaml:"llm"`
	Cache      CacheConfig       `yaml:"cache"`
	Ingest     IngestConfig      `yaml:"ingest"`
	Serve      ServeConfig       `yaml:"serve"`
}

// SourceConfig selects where transcript files are read from.
type SourceConfig struct {
	Kind string            `yaml:"kind"`
	Dir  string            `yaml:"dir,omitempty"`
	S3   storage.S3Config `yaml:"s3,omitempty"`
}

// EmbedConfig selects the embedding provider.
type EmbedConfig struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model,omitempty"`
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batch_size,omitempty"`
	BaseURL   string `yaml:"base_url,omitempty"`
	APIKey    string `yaml:"api_key,omitempty"`
}

// IndexConfig selects the vector index backend.
type IndexConfig struct {
	Backend  string         `yaml:"backend"`
	Badger   BadgerConfig   `yaml:"badger,omitempty"`
	PgVector PgVectorConfig `yaml:"pgvector,omitempty"`
	Milvus   MilvusConfig   `yaml:"milvus,omitempty"`
}

// BadgerConfig configures the embedded index.
type BadgerConfig struct {
	Dir string `yaml:"dir,omitempty"`
}

// PgVectorConfig configures the Postgres index.
type PgVectorConfig struct {
	DSN   string `yaml:"dsn,omitempty"`
	Table string `yaml:"table,omitempty"`
}

// MilvusConfig configures the Milvus index.
type MilvusConfig struct {
	Address    string `yaml:"address,omitempty"`
	Username   string `yaml:"username,omitempty"`
	Password   string `yaml:"password,omitempty"`
	APIKey     string `yaml:"api_key,omitempty"`
	Collection string `yaml:"collection,omitempty"`
}

// LLMConfig selects the answer model.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model,omitempty"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TopP        float64 `yaml:"top_p"`
	BaseURL     string  `yaml:"base_url,omitempty"`
	APIKey      string  `yaml:"api_key,omitempty"`
}

// CacheConfig enables the Redis query cache when Addr is set.
type CacheConfig struct {
	Addr     string        `yaml:"addr,omitempty"`
	Password string        `yaml:"password,omitempty"`
	DB       int           `yaml:"db,omitempty"`
	TTL      time.Duration `yaml:"ttl"`
}

// IngestConfig tunes ingestion.
type IngestConfig struct {
	BatchSize int  `yaml:"batch_size"`
	KeepGoing bool `yaml:"keep_going,omitempty"`
}

// ServeConfig configures the HTTP API.
type ServeConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Transcript: transcript.DefaultConfig(),
		Segment:    segment.DefaultConfig(),
		Source:     SourceConfig{Kind: SourceLocal, Dir: "transcripts"},
		Embed:      EmbedConfig{Provider: ProviderOpenAI, Dimension: 384},
		Index: IndexConfig{
			Backend: IndexBadger,
			Badger:  BadgerConfig{Dir: defaultDataDir()},
		},
		LLM: LLMConfig{
			Provider:    ProviderOpenAI,
			Temperature: 0.7,
			MaxTokens:   256,
			TopP:        1,
		},
		Cache:  CacheConfig{TTL: 10 * time.Minute},
		Ingest: IngestConfig{BatchSize: 100},
		Serve:  ServeConfig{Addr: ":8080"},
	}
}

func defaultDataDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, appDir, "index")
	}
	return filepath.Join(".podsearch", "index")
}

// Path returns the config file location.
func Path() (string, error) {
	if p := os.Getenv(EnvConfig); p != "" {
		return p, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}
	return filepath.Join(base, appDir, fileName), nil
}

// Load reads the config file at Path().
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config file at path. A missing file yields the
// defaults. Fields left empty in the file keep their defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating parent directories.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if c.Embed.APIKey == "" {
		c.Embed.APIKey = providerKey(c.Embed.Provider)
	}
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = providerKey(c.LLM.Provider)
	}
	if c.Index.PgVector.DSN == "" {
		c.Index.PgVector.DSN = os.Getenv(EnvPgDSN)
	}
}

func providerKey(provider string) string {
	switch provider {
	case ProviderGemini:
		return os.Getenv(EnvGeminiKey)
	default:
		return os.Getenv(EnvOpenAIKey)
	}
}

// fillDefaults restores defaults for values a partial file zeroed out.
func (c *Config) fillDefaults() {
	d := Default()
	if c.Transcript.OpenCatchphrase == "" {
		c.Transcript.OpenCatchphrase = d.Transcript.OpenCatchphrase
	}
	if c.Transcript.CloseCatchphrase == "" {
		c.Transcript.CloseCatchphrase = d.Transcript.CloseCatchphrase
	}
	if c.Transcript.NoiseTokens == nil {
		c.Transcript.NoiseTokens = d.Transcript.NoiseTokens
	}
	if c.Segment.Window == 0 {
		c.Segment.Window = d.Segment.Window
	}
	if c.Segment.Stride == 0 {
		c.Segment.Stride = d.Segment.Stride
	}
	if c.Source.Kind == "" {
		c.Source.Kind = d.Source.Kind
	}
	if c.Embed.Provider == "" {
		c.Embed.Provider = d.Embed.Provider
	}
	if c.Embed.Dimension == 0 {
		c.Embed.Dimension = d.Embed.Dimension
	}
	if c.Index.Backend == "" {
		c.Index.Backend = d.Index.Backend
	}
	if c.Index.Badger.Dir == "" {
		c.Index.Badger.Dir = d.Index.Badger.Dir
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = d.LLM.Provider
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = d.LLM.MaxTokens
	}
	if c.Ingest.BatchSize == 0 {
		c.Ingest.BatchSize = d.Ingest.BatchSize
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = d.Serve.Addr
	}
}

// Validate checks enumerated fields and the segment window.
func (c *Config) Validate() error {
	if err := c.Segment.Validate(); err != nil {
		return err
	}
	switch c.Source.Kind {
	case SourceLocal:
	case SourceS3:
		if c.Source.S3.Bucket == "" {
			return errors.New("source.s3.bucket is required for s3 sources")
		}
	default:
		return fmt.Errorf("unknown source.kind %q", c.Source.Kind)
	}
	for _, p := range []struct{ field, value string }{
		{"embed.provider", c.Embed.Provider},
		{"llm.provider", c.LLM.Provider},
	} {
		if p.value != ProviderOpenAI && p.value != ProviderGemini {
			return fmt.Errorf("unknown %s %q", p.field, p.value)
		}
	}
	switch c.Index.Backend {
	case IndexMemory, IndexBadger, IndexPgVector, IndexMilvus:
	default:
		return fmt.Errorf("unknown index.backend %q", c.Index.Backend)
	}
	if c.Embed.Dimension < 0 {
		return fmt.Errorf("embed.dimension must be positive, got %d", c.Embed.Dimension)
	}
	return nil
}

// Redacted returns a copy with secrets masked, for display.
func (c *Config) Redacted() *Config {
	out := *c
	out.Embed.APIKey = mask(c.Embed.APIKey)
	out.LLM.APIKey = mask(c.LLM.APIKey)
	out.Index.PgVector.DSN = mask(c.Index.PgVector.DSN)
	out.Index.Milvus.Password = mask(c.Index.Milvus.Password)
	out.Index.Milvus.APIKey = mask(c.Index.Milvus.APIKey)
	out.Cache.Password = mask(c.Cache.Password)
	return &out
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}
