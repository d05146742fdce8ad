package service

import (
	"context"
	"fmt"
	"log"

	"github.com/viant/docrag/document"
	"github.com/viant/docrag/embeddings"
	"github.com/viant/docrag/indexer"
	"github.com/viant/docrag/matching"
	"github.com/viant/docrag/matching/option"
	"github.com/viant/docrag/retriever"
	"github.com/viant/docrag/splitter"
	"github.com/viant/docrag/store"
)

// Option configures the Service.
type Option func(*Service)

// WithEmbedder overrides the configured embedder.
func WithEmbedder(embedder embeddings.Embedder) Option {
	return func(s *Service) { s.embedder = embedder }
}

// WithLogf sets the logger shared by the store and indexer.
func WithLogf(logf func(format string, args ...any)) Option {
	return func(s *Service) {
		if logf != nil {
			s.logf = logf
		}
	}
}

// Service exposes the document boundary operations over one store.
type Service struct {
	config    *Config
	embedder  embeddings.Embedder
	store     *store.Store
	indexer   *indexer.Indexer
	retriever *retriever.Service
	logf      func(format string, args ...any)
}

// New opens the store and builds the pipeline; call Init to index the documents root.
func New(ctx context.Context, cfg *Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	s := &Service{config: cfg, logf: log.Printf}
	for _, opt := range opts {
		opt(s)
	}
	var err error
	if s.embedder == nil {
		if s.embedder, err = NewEmbedder(cfg.Embedder, cfg.Store.Dimension); err != nil {
			return nil, err
		}
	}
	if s.store, err = store.Open(ctx, cfg.Store.URL, store.WithDimension(cfg.Store.Dimension), store.WithLogf(s.logf)); err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	chunker, err := splitter.NewWordSplitter(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		return nil, err
	}
	s.indexer, err = indexer.New(s.store, s.embedder,
		indexer.WithSplitter(chunker),
		indexer.WithMatcher(matching.New(matcherOptions(cfg.Documents)...)),
		indexer.WithUploadURL(cfg.Documents.Uploads),
		indexer.WithLogf(s.logf))
	if err != nil {
		return nil, err
	}
	s.retriever = retriever.New(s.store, s.embedder)
	return s, nil
}

func matcherOptions(cfg DocumentsConfig) []option.Option {
	var ret []option.Option
	if cfg.DefaultExclusions {
		ret = append(ret, option.WithDefaultExclusions())
	}
	if len(cfg.Exclude) > 0 {
		ret = append(ret, option.WithExclusionPatterns(cfg.Exclude...))
	}
	if len(cfg.Include) > 0 {
		ret = append(ret, option.WithInclusionPatterns(cfg.Include...))
	}
	if cfg.MaxSizeBytes > 0 {
		ret = append(ret, option.WithMaxFileSize(cfg.MaxSizeBytes))
	}
	return ret
}

// Init indexes the configured documents root
func (s *Service) Init(ctx context.Context) (*indexer.Stats, error) {
	return s.IndexFolder(ctx, s.config.Documents.Root)
}

// IndexFolder indexes new files under root
func (s *Service) IndexFolder(ctx context.Context, root string) (*indexer.Stats, error) {
	return s.indexer.IndexFolder(ctx, root)
}

// Upload saves and indexes one file
func (s *Service) Upload(ctx context.Context, name string, data []byte) (*document.Record, error) {
	return s.indexer.Upload(ctx, name, data)
}

// Documents lists indexed documents
func (s *Service) Documents() []document.Summary {
	return s.store.List()
}

// Delete removes a document record by id
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// Search returns the topK chunks closest to query
func (s *Service) Search(ctx context.Context, query string, topK int) ([]document.Match, error) {
	return s.retriever.Search(ctx, query, topK)
}

// Retriever returns the retrieval service
func (s *Service) Retriever() *retriever.Service {
	return s.retriever
}

// Config returns the active configuration
func (s *Service) Config() *Config {
	return s.config
}

// Close flushes pending store changes
func (s *Service) Close(ctx context.Context) error {
	return s.store.Close(ctx)
}
