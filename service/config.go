package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/viant/docrag/embeddings"
	"github.com/viant/docrag/splitter"
	"github.com/viant/scy/cred/secret"
	"gopkg.in/yaml.v3"
)

// Config defines the store, document roots, models and tabular data.
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Documents DocumentsConfig `yaml:"documents"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	LLM       LLMConfig       `yaml:"llm"`
	Tabular   TabularConfig   `yaml:"tabular"`
}

// StoreConfig locates the persisted index/metadata pair.
type StoreConfig struct {
	URL       string `yaml:"url"`
	Dimension int    `yaml:"dimension"`
}

// DocumentsConfig defines the folder indexed at start-up and where uploads go.
// DefaultExclusions skips VCS, editor and office lock files.
type DocumentsConfig struct {
	Root              string   `yaml:"root"`
	Uploads           string   `yaml:"uploads"`
	Include           []string `yaml:"include"`
	Exclude           []string `yaml:"exclude"`
	MaxSizeBytes      int      `yaml:"maxSizeBytes"`
	DefaultExclusions bool     `yaml:"defaultExclusions"`
}

// ChunkingConfig defines the word window.
type ChunkingConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// EmbedderConfig selects the embedding provider.
type EmbedderConfig struct {
	Type      string `yaml:"type"`
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"baseURL"`
	APIKey    string `yaml:"apiKey"`
	Secret    string `yaml:"secret,omitempty"`
	Project   string `yaml:"project"`
	Location  string `yaml:"location"`
	BatchSize int    `yaml:"batchSize"`
}

// LLMConfig defines the chat completion endpoint.
type LLMConfig struct {
	BaseURL string `yaml:"baseURL"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"apiKey"`
	Secret  string `yaml:"secret,omitempty"`
}

// TabularConfig maps table names to CSV files loaded into SQLite.
type TabularConfig struct {
	DSN    string            `yaml:"dsn"`
	Folder string            `yaml:"folder"`
	Tables map[string]string `yaml:"tables"`
}

// DefaultConfig returns settings matching a local checkout layout
func DefaultConfig() *Config {
	return &Config{
		Store:     StoreConfig{URL: "data", Dimension: embeddings.DefaultDimension},
		Documents: DocumentsConfig{Root: "documents", Uploads: "uploads"},
		Chunking:  ChunkingConfig{Size: splitter.DefaultChunkSize, Overlap: splitter.DefaultOverlap},
		Embedder:  EmbedderConfig{Type: EmbedderSimple},
		LLM:       LLMConfig{Model: "gpt-4o-mini"},
		Tabular: TabularConfig{
			DSN:    ":memory:",
			Folder: "data",
			Tables: map[string]string{
				"company_assets":  "company_assets.csv",
				"customers":       "customers.csv",
				"employees":       "employees.csv",
				"support_tickets": "support_tickets.csv",
			},
		},
	}
}

// LoadConfig reads a YAML file over DefaultConfig, expanding ~ paths and secrets
func LoadConfig(ctx context.Context, path string) (*Config, error) {
	path, err := expandUserPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.expand(ctx); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) expand(ctx context.Context) error {
	var err error
	for _, p := range []*string{&c.Store.URL, &c.Documents.Root, &c.Documents.Uploads, &c.Tabular.Folder} {
		if *p, err = expandUserPath(*p); err != nil {
			return err
		}
	}
	if c.Embedder.APIKey, err = ExpandWithSecret(ctx, c.Embedder.APIKey, c.Embedder.Secret); err != nil {
		return fmt.Errorf("embedder secret: %w", err)
	}
	if c.LLM.APIKey, err = ExpandWithSecret(ctx, c.LLM.APIKey, c.LLM.Secret); err != nil {
		return fmt.Errorf("llm secret: %w", err)
	}
	return nil
}

func expandUserPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || trimmed[0] != '~' {
		return path, nil
	}
	if trimmed != "~" && !strings.HasPrefix(trimmed, "~/") {
		return "", fmt.Errorf("config: unsupported ~user path: %s", path)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(trimmed, "~")), nil
}

// ExpandWithSecret loads a scy secret and expands its placeholders, e.g. ${Key}, in value
func ExpandWithSecret(ctx context.Context, value, secretRef string) (string, error) {
	secretRef = strings.TrimSpace(secretRef)
	if secretRef == "" {
		return value, nil
	}
	if strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("secret %q provided but value is empty", secretRef)
	}
	sec, err := secret.New().Lookup(ctx, secret.Resource(secretRef))
	if err != nil {
		return "", err
	}
	return sec.Expand(value), nil
}
