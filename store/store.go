// Package store keeps the vector index and the document metadata together.
//
// Every record owns the index range [StartIndex, StartIndex+ChunkCount).
// Ranges never overlap and StartIndex always equals the index total at the
// moment the record's vectors were appended. All mutations are serialized by
// one lock so the invariant holds under concurrent uploads, folder runs and
// deletes.
package store

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"github.com/viant/docrag/document"
	"github.com/viant/docrag/indexer/cache"
	"github.com/viant/docrag/vectordb/flat"
)

const (
	indexFile    = "index.bin"
	metadataFile = "metadata.json"
)

// Store owns the index/metadata pair persisted under a base URL
type Store struct {
	fs        afs.Service
	baseURL   string
	dimension int
	logf      func(format string, args ...any)

	mux     sync.RWMutex
	index   *flat.Index
	records *cache.Map[string, document.Record]
	dirty   bool
}

// Open loads the persisted pair from baseURL, or starts empty when either file is missing
func Open(ctx context.Context, baseURL string, opts ...Option) (*Store, error) {
	ret := &Store{
		fs:      afs.New(),
		logf:    log.Printf,
		records: cache.NewMap[string, document.Record](),
	}
	for _, opt := range opts {
		opt(ret)
	}
	var err error
	if ret.baseURL, err = NormalizeURL(baseURL); err != nil {
		return nil, err
	}
	if err = ret.load(ctx); err != nil {
		return nil, err
	}
	return ret, nil
}

// NormalizeURL turns relative and absolute OS paths into file URLs; other schemes pass through
func NormalizeURL(location string) (string, error) {
	if url.Scheme(location, "") != "" {
		return location, nil
	}
	if url.IsRelative(location) {
		abs, err := filepath.Abs(location)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path for %s: %w", location, err)
		}
		location = abs
	}
	return url.ToFileURL(location), nil
}

// URL returns the base location
func (s *Store) URL() string {
	return s.baseURL
}

func (s *Store) indexURL() string {
	return url.Join(s.baseURL, indexFile)
}

func (s *Store) metadataURL() string {
	return url.Join(s.baseURL, metadataFile)
}

func (s *Store) load(ctx context.Context) error {
	s.index = flat.New(s.dimension)
	indexExists, err := s.fs.Exists(ctx, s.indexURL())
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", s.indexURL(), err)
	}
	metadataExists, err := s.fs.Exists(ctx, s.metadataURL())
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", s.metadataURL(), err)
	}
	if !indexExists || !metadataExists {
		if indexExists || metadataExists {
			s.logf("docrag: incomplete store at %s (index=%t metadata=%t), starting empty", s.baseURL, indexExists, metadataExists)
		}
		return nil
	}
	data, err := s.fs.DownloadWithURL(ctx, s.indexURL())
	if err != nil {
		return fmt.Errorf("failed to load index: %w", err)
	}
	index, err := flat.Unmarshal(data)
	if err != nil {
		return fmt.Errorf("failed to decode index %s: %w", s.indexURL(), err)
	}
	if s.dimension > 0 && index.Total() > 0 && index.Dimension() != s.dimension {
		return fmt.Errorf("%w: persisted dimension %d, configured %d", flat.ErrDimensionMismatch, index.Dimension(), s.dimension)
	}
	if data, err = s.fs.DownloadWithURL(ctx, s.metadataURL()); err != nil {
		return fmt.Errorf("failed to load metadata: %w", err)
	}
	if err = s.records.Load(data); err != nil {
		return fmt.Errorf("failed to decode metadata %s: %w", s.metadataURL(), err)
	}
	end := 0
	for _, record := range document.NewRecords(s.records.Values(nil)) {
		if record.StartIndex < 0 || record.EndIndex() > index.Total() || len(record.Chunks) != record.ChunkCount {
			return fmt.Errorf("%w: record %s range [%d,%d) over %d vectors", ErrInconsistent, record.RelativePath, record.StartIndex, record.EndIndex(), index.Total())
		}
		if record.StartIndex < end {
			return fmt.Errorf("%w: record %s range [%d,%d) overlaps previous end %d", ErrInconsistent, record.RelativePath, record.StartIndex, record.EndIndex(), end)
		}
		end = record.EndIndex()
	}
	s.index = index
	s.logf("docrag: store loaded url=%s documents=%d vectors=%d", s.baseURL, s.records.Size(), index.Total())
	return nil
}

// Has reports whether path is recorded
func (s *Store) Has(path string) bool {
	return s.records.Has(path)
}

// Total returns the number of vectors in the index, including orphaned ones
func (s *Store) Total() int {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.index.Total()
}

// Dimension returns the index dimension
func (s *Store) Dimension() int {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.index.Dimension()
}

// Record returns a copy of the record stored under path
func (s *Store) Record(path string) (*document.Record, bool) {
	record, ok := s.records.Get(path)
	if !ok {
		return nil, false
	}
	ret := *record
	ret.Chunks = append([]string(nil), record.Chunks...)
	return &ret, true
}

// List returns document summaries ordered by name
func (s *Store) List() []document.Summary {
	records := s.records.Values(func(a, b *document.Record) bool {
		return a.RelativePath < b.RelativePath
	})
	ret := make([]document.Summary, len(records))
	for i, record := range records {
		ret[i] = record.Summary()
	}
	return ret
}

// Append adds the record's vectors at the end of the index and records it.
// StartIndex and ChunkCount are assigned here under the lock.
func (s *Store) Append(ctx context.Context, record *document.Record, vectors [][]float32, options AppendOptions) error {
	if len(vectors) != len(record.Chunks) {
		return fmt.Errorf("%w: %s has %d chunks and %d vectors", ErrChunkCount, record.RelativePath, len(record.Chunks), len(vectors))
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	if !options.Replace && s.records.Has(record.RelativePath) {
		return fmt.Errorf("%w: %s", ErrAlreadyIndexed, record.RelativePath)
	}
	record.StartIndex = s.index.Total()
	record.ChunkCount = len(record.Chunks)
	if err := s.index.Append(vectors); err != nil {
		return fmt.Errorf("failed to append %s: %w", record.RelativePath, err)
	}
	s.records.Set(record.RelativePath, record)
	s.dirty = true
	if options.Persist {
		return s.persist(ctx)
	}
	return nil
}

// Delete removes the record with the given id and persists. Its vectors stay in
// the index and resolve to nothing afterwards.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	key, _, ok := s.records.Find(func(_ string, record *document.Record) bool {
		return record.ID == id
	})
	if !ok {
		return fmt.Errorf("%w: document %s not found", ErrNotFound, id)
	}
	s.records.Delete(key)
	s.dirty = true
	return s.persist(ctx)
}

// Nearest returns up to k chunks closest to query. Positions owned by no
// record are dropped, so fewer than k matches may be returned.
func (s *Store) Nearest(query []float32, k int) ([]document.Match, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	hits, err := s.index.Search(query, k)
	if err != nil {
		return nil, err
	}
	records := document.NewRecords(s.records.Values(nil))
	ret := make([]document.Match, 0, len(hits))
	for _, hit := range hits {
		record := records.Find(hit.Position)
		if record == nil {
			continue
		}
		chunk, ok := record.Chunk(hit.Position)
		if !ok {
			continue
		}
		ret = append(ret, document.Match{
			Path:       record.RelativePath,
			DocumentID: record.ID,
			Chunk:      chunk,
			Score:      hit.Score,
			Position:   hit.Position,
		})
	}
	return ret, nil
}

// Persist writes the index and metadata
func (s *Store) Persist(ctx context.Context) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.persist(ctx)
}

// Close persists pending changes
func (s *Store) Close(ctx context.Context) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	if !s.dirty {
		return nil
	}
	return s.persist(ctx)
}

func (s *Store) persist(ctx context.Context) error {
	data, err := s.index.Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode index: %w", err)
	}
	if err = s.fs.Upload(ctx, s.indexURL(), file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to persist index %s: %w", s.indexURL(), err)
	}
	if data, err = s.records.Data(); err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	if err = s.fs.Upload(ctx, s.metadataURL(), file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to persist metadata %s: %w", s.metadataURL(), err)
	}
	s.dirty = false
	return nil
}

// Paths returns recorded paths in sorted order
func (s *Store) Paths() []string {
	ret := s.records.Keys()
	sort.Strings(ret)
	return ret
}
