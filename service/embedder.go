package service

import (
	"fmt"
	"strings"

	"github.com/viant/docrag/embeddings"
	"github.com/viant/docrag/embeddings/ollama"
	"github.com/viant/docrag/embeddings/openai"
	"github.com/viant/docrag/embeddings/vertexai"
)

// Embedder types
const (
	EmbedderSimple   = "simple"
	EmbedderOpenAI   = "openai"
	EmbedderOllama   = "ollama"
	EmbedderVertexAI = "vertexai"
)

// NewEmbedder builds the embedder selected by cfg.Type
func NewEmbedder(cfg EmbedderConfig, dimension int) (embeddings.Embedder, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "", EmbedderSimple:
		return embeddings.NewSimple(dimension), nil
	case EmbedderOpenAI:
		opts := []openai.Option{openai.WithBaseURL(cfg.BaseURL), openai.WithBatchSize(cfg.BatchSize)}
		return openai.New(cfg.APIKey, cfg.Model, opts...), nil
	case EmbedderOllama:
		return ollama.New(cfg.Model, ollama.WithBaseURL(cfg.BaseURL), ollama.WithBatchSize(cfg.BatchSize)), nil
	case EmbedderVertexAI:
		return vertexai.New(cfg.Project, cfg.Location, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unsupported embedder type: %q", cfg.Type)
	}
}
