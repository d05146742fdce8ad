package indexer

import (
	"github.com/viant/afs"
	"github.com/viant/docrag/extractor"
	"github.com/viant/docrag/matching"
	"github.com/viant/docrag/splitter"
)

// Option configures an Indexer
type Option func(*Indexer)

// WithFS sets the storage service used to walk folders and save uploads
func WithFS(fs afs.Service) Option {
	return func(i *Indexer) {
		i.fs = fs
	}
}

// WithExtractors sets the extractor factory
func WithExtractors(factory *extractor.Factory) Option {
	return func(i *Indexer) {
		i.extractors = factory
	}
}

// WithSplitter sets the chunker
func WithSplitter(s *splitter.WordSplitter) Option {
	return func(i *Indexer) {
		i.splitter = s
	}
}

// WithMatcher sets folder walk exclusion rules
func WithMatcher(m *matching.Manager) Option {
	return func(i *Indexer) {
		i.matcher = m
	}
}

// WithUploadURL sets where uploaded files are saved
func WithUploadURL(URL string) Option {
	return func(i *Indexer) {
		i.uploadURL = URL
	}
}

// WithLogf sets the logger
func WithLogf(logf func(format string, args ...any)) Option {
	return func(i *Indexer) {
		if logf != nil {
			i.logf = logf
		}
	}
}
