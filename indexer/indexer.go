// Package indexer runs files through extraction, chunking and embedding into the store.
//
// A file moves through discovered, extracted, chunked, embedded, appended and
// recorded. It ends indexed, skipped when its relative path is already
// recorded, or failed. Folder runs log failures and continue with the next file.
package indexer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"github.com/viant/docrag/document"
	"github.com/viant/docrag/embeddings"
	"github.com/viant/docrag/extractor"
	"github.com/viant/docrag/indexer/cache"
	"github.com/viant/docrag/matching"
	"github.com/viant/docrag/splitter"
	"github.com/viant/docrag/store"
)

const defaultUploadURL = "uploads"

var (
	// ErrNoText is returned when a file yields no chunks
	ErrNoText = errors.New("no text extracted")
	// ErrInvalidName is returned for upload names without a file name
	ErrInvalidName = errors.New("invalid upload name")
)

// Indexer feeds documents into a store
type Indexer struct {
	fs         afs.Service
	store      *store.Store
	embedder   embeddings.Embedder
	extractors *extractor.Factory
	splitter   *splitter.WordSplitter
	matcher    *matching.Manager
	uploadURL  string
	logf       func(format string, args ...any)
}

// New creates an indexer writing into s
func New(s *store.Store, embedder embeddings.Embedder, opts ...Option) (*Indexer, error) {
	ret := &Indexer{
		fs:         afs.New(),
		store:      s,
		embedder:   embedder,
		extractors: extractor.NewFactory(),
		matcher:    matching.New(),
		uploadURL:  defaultUploadURL,
		logf:       log.Printf,
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.splitter == nil {
		var err error
		if ret.splitter, err = splitter.NewWordSplitter(splitter.DefaultChunkSize, splitter.DefaultOverlap); err != nil {
			return nil, err
		}
	}
	var err error
	if ret.uploadURL, err = store.NormalizeURL(ret.uploadURL); err != nil {
		return nil, err
	}
	return ret, nil
}

// IndexFolder indexes every supported file under root that is not yet recorded,
// then persists the store once. A missing root is logged and is not an error.
func (i *Indexer) IndexFolder(ctx context.Context, root string) (*Stats, error) {
	start := time.Now()
	stats := &Stats{}
	rootURL, err := store.NormalizeURL(root)
	if err != nil {
		return stats, err
	}
	exists, err := i.fs.Exists(ctx, rootURL)
	if err != nil {
		return stats, fmt.Errorf("failed to check documents folder %s: %w", root, err)
	}
	if !exists {
		i.logf("docrag: documents folder not found: %s", root)
		return stats, nil
	}
	i.logf("docrag: index start root=%s", rootURL)
	candidates, err := i.discover(ctx, rootURL)
	if err != nil {
		return stats, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	stats.Discovered = len(candidates)
	var runErr error
	for _, candidate := range candidates {
		if runErr = ctx.Err(); runErr != nil {
			break
		}
		if i.store.Has(candidate.relativePath) {
			stats.Skipped++
			continue
		}
		record, err := i.indexCandidate(ctx, candidate)
		if err != nil {
			stats.Failed++
			i.logf("docrag: failed to index %s: %v", candidate.relativePath, err)
			continue
		}
		stats.Indexed++
		stats.Chunks += record.ChunkCount
	}
	if err := i.store.Persist(ctx); err != nil {
		return stats, err
	}
	stats.Elapsed = time.Since(start)
	i.logf("docrag: index done root=%s %s", rootURL, stats)
	return stats, runErr
}

func (i *Indexer) indexCandidate(ctx context.Context, c *candidate) (*document.Record, error) {
	data, err := i.fs.Download(ctx, c.object)
	if err != nil {
		return nil, fmt.Errorf("failed to download: %w", err)
	}
	return i.index(ctx, c.relativePath, url.Path(c.object.URL()), data, store.AppendOptions{})
}

// Upload saves data under the uploads location and indexes it under its base name,
// replacing any record with the same name, then persists.
func (i *Indexer) Upload(ctx context.Context, name string, data []byte) (*document.Record, error) {
	name = filepath.Base(filepath.ToSlash(strings.TrimSpace(name)))
	if name == "" || name == "." || name == "/" || name == ".." {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if !i.extractors.Supported(name) {
		return nil, fmt.Errorf("%w: %s", extractor.ErrUnsupported, name)
	}
	target := url.Join(i.uploadURL, name)
	if err := i.fs.Upload(ctx, target, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to save upload %s: %w", name, err)
	}
	record, err := i.index(ctx, name, url.Path(target), data, store.AppendOptions{Replace: true, Persist: true})
	if err != nil {
		return nil, fmt.Errorf("failed to index upload %s: %w", name, err)
	}
	i.logf("docrag: uploaded %s chunks=%d start=%d", name, record.ChunkCount, record.StartIndex)
	return record, nil
}

// IndexFile indexes one file from any afs location under the given key without persisting
func (i *Indexer) IndexFile(ctx context.Context, URL, relativePath string) (*document.Record, error) {
	data, err := i.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", URL, err)
	}
	return i.index(ctx, relativePath, url.Path(URL), data, store.AppendOptions{})
}

func (i *Indexer) index(ctx context.Context, relativePath, filePath string, data []byte, options store.AppendOptions) (*document.Record, error) {
	result := i.extractors.Extract(relativePath, data)
	if result.Err != nil {
		return nil, result.Err
	}
	if result.Empty() {
		return nil, ErrNoText
	}
	chunks := i.splitter.Split(result.Text)
	if len(chunks) == 0 {
		return nil, ErrNoText
	}
	vectors, err := i.embedder.EmbedDocuments(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("failed to embed %d chunks: %w", len(chunks), err)
	}
	hash, err := cache.Hash(data)
	if err != nil {
		return nil, err
	}
	record := &document.Record{
		ID:           uuid.NewString(),
		RelativePath: relativePath,
		FilePath:     filePath,
		Hash:         hash,
		Chunks:       chunks,
	}
	if err = i.store.Append(ctx, record, vectors, options); err != nil {
		return nil, err
	}
	return record, nil
}
