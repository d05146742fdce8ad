package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/docrag/embeddings"
	"github.com/viant/docrag/extractor"
	"github.com/viant/docrag/matching"
	"github.com/viant/docrag/matching/option"
	"github.com/viant/docrag/splitter"
	"github.com/viant/docrag/store"
	"github.com/viant/docrag/vectordb/flat"
)

// shapeEmbedder returns 2-d vectors, or 3-d ones for chunks containing "malformed"
type shapeEmbedder struct{}

func (shapeEmbedder) EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error) {
	ret := make([][]float32, len(docs))
	for i, doc := range docs {
		if strings.Contains(doc, "malformed") {
			ret[i] = []float32{1, 1, 1}
			continue
		}
		ret[i] = []float32{float32(len(doc)), 1}
	}
	return ret, nil
}

func (e shapeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return embeddings.Query(ctx, e, text)
}

func wordsText(prefix string, n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return strings.Join(words, " ")
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

type fixture struct {
	root    string
	dataDir string
	store   *store.Store
	indexer *Indexer
	logs    []string
}

func newFixture(t *testing.T, embedder embeddings.Embedder) *fixture {
	t.Helper()
	ctx := context.Background()
	base := t.TempDir()
	f := &fixture{root: filepath.Join(base, "documents"), dataDir: filepath.Join(base, "data")}
	logf := func(format string, args ...any) { f.logs = append(f.logs, fmt.Sprintf(format, args...)) }
	var err error
	f.store, err = store.Open(ctx, f.dataDir, store.WithDimension(2), store.WithLogf(logf))
	require.NoError(t, err)
	chunker, err := splitter.NewWordSplitter(4, 0)
	require.NoError(t, err)
	f.indexer, err = New(f.store, embedder,
		WithSplitter(chunker),
		WithUploadURL(filepath.Join(base, "uploads")),
		WithLogf(logf))
	require.NoError(t, err)
	return f
}

func TestIndexer_IndexFolderOffsets(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, shapeEmbedder{})
	writeFile(t, filepath.Join(f.root, "a.txt"), wordsText("a", 12))
	writeFile(t, filepath.Join(f.root, "sub", "b.md"), wordsText("b", 20))
	writeFile(t, filepath.Join(f.root, "image.png"), "not a document")
	writeFile(t, filepath.Join(f.root, ".git", "notes.txt"), "ignored words")

	stats, err := f.indexer.IndexFolder(ctx, f.root)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Discovered)
	assert.Equal(t, 2, stats.Indexed)
	assert.Equal(t, 8, stats.Chunks)

	a, ok := f.store.Record("a.txt")
	require.True(t, ok)
	b, ok := f.store.Record("sub/b.md")
	require.True(t, ok)
	assert.Equal(t, 0, a.StartIndex)
	assert.Equal(t, 3, a.ChunkCount)
	assert.Equal(t, 3, b.StartIndex)
	assert.Equal(t, 5, b.ChunkCount)
	assert.Equal(t, 8, f.store.Total())
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.NotZero(t, a.Hash)
}

func TestIndexer_IndexFolderIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, shapeEmbedder{})
	writeFile(t, filepath.Join(f.root, "a.txt"), wordsText("a", 9))
	writeFile(t, filepath.Join(f.root, "b.txt"), wordsText("b", 5))

	_, err := f.indexer.IndexFolder(ctx, f.root)
	require.NoError(t, err)
	total := f.store.Total()
	metadata, err := os.ReadFile(filepath.Join(f.dataDir, "metadata.json"))
	require.NoError(t, err)

	stats, err := f.indexer.IndexFolder(ctx, f.root)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Skipped)
	assert.Equal(t, 0, stats.Indexed)
	assert.Equal(t, total, f.store.Total())
	again, err := os.ReadFile(filepath.Join(f.dataDir, "metadata.json"))
	require.NoError(t, err)
	assert.Equal(t, string(metadata), string(again))
}

func TestIndexer_FailuresDoNotAbortRun(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, shapeEmbedder{})
	writeFile(t, filepath.Join(f.root, "1-broken.pdf"), "%PDF-1.7 garbage")
	writeFile(t, filepath.Join(f.root, "2-wrong-dimension.txt"), "a malformed embedding")
	writeFile(t, filepath.Join(f.root, "3-empty.txt"), "   ")
	writeFile(t, filepath.Join(f.root, "4-good.txt"), wordsText("g", 6))

	stats, err := f.indexer.IndexFolder(ctx, f.root)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Discovered)
	assert.Equal(t, 3, stats.Failed)
	assert.Equal(t, 1, stats.Indexed)

	good, ok := f.store.Record("4-good.txt")
	require.True(t, ok)
	assert.Equal(t, 0, good.StartIndex)
	assert.Equal(t, 2, f.store.Total())
	assert.False(t, f.store.Has("2-wrong-dimension.txt"))
	assert.FileExists(t, filepath.Join(f.dataDir, "index.bin"))
}

func TestIndexer_IndexFolderExclusions(t *testing.T) {
	tests := []struct {
		description string
		matcher     *matching.Manager
		expect      []string
	}{
		{
			description: "every supported file by default",
			expect:      []string{"a.txt", "node_modules/c.md", "sub/deep/b.md", "~$lock.md"},
		},
		{
			description: "default exclusions on request",
			matcher:     matching.New(option.WithDefaultExclusions()),
			expect:      []string{"a.txt", "sub/deep/b.md"},
		},
	}
	for _, tc := range tests {
		f := newFixture(t, shapeEmbedder{})
		if tc.matcher != nil {
			f.indexer.matcher = tc.matcher
		}
		for _, name := range []string{"a.txt", "sub/deep/b.md", "~$lock.md", "node_modules/c.md"} {
			writeFile(t, filepath.Join(f.root, filepath.FromSlash(name)), "short text")
		}
		stats, err := f.indexer.IndexFolder(context.Background(), f.root)
		require.NoError(t, err, tc.description)
		assert.Equal(t, len(tc.expect), stats.Discovered, tc.description)
		assert.Equal(t, len(tc.expect), stats.Indexed, tc.description)
		assert.Equal(t, tc.expect, f.store.Paths(), tc.description)
	}
}

func TestIndexer_MissingFolder(t *testing.T) {
	f := newFixture(t, shapeEmbedder{})
	stats, err := f.indexer.IndexFolder(context.Background(), filepath.Join(f.root, "absent"))
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Discovered)
	require.NotEmpty(t, f.logs)
	assert.Contains(t, f.logs[len(f.logs)-1], "not found")
}

func TestIndexer_Upload(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, shapeEmbedder{})
	writeFile(t, filepath.Join(f.root, "a.txt"), wordsText("a", 8))
	_, err := f.indexer.IndexFolder(ctx, f.root)
	require.NoError(t, err)

	record, err := f.indexer.Upload(ctx, "../../etc/handbook.md", []byte(wordsText("h", 10)))
	require.NoError(t, err)
	assert.Equal(t, "handbook.md", record.RelativePath)
	assert.Equal(t, 2, record.StartIndex)
	assert.Equal(t, 3, record.ChunkCount)
	saved, err := os.ReadFile(record.FilePath)
	require.NoError(t, err)
	assert.Equal(t, wordsText("h", 10), string(saved))

	replaced, err := f.indexer.Upload(ctx, "handbook.md", []byte(wordsText("n", 4)))
	require.NoError(t, err)
	assert.NotEqual(t, record.ID, replaced.ID)
	assert.Equal(t, 5, replaced.StartIndex)
	assert.Equal(t, 6, f.store.Total())
	assert.Len(t, f.store.List(), 2)

	restored, err := store.Open(ctx, f.dataDir, store.WithLogf(func(string, ...any) {}))
	require.NoError(t, err)
	assert.Equal(t, 6, restored.Total())

	_, err = f.indexer.Upload(ctx, "photo.png", []byte("x"))
	assert.True(t, errors.Is(err, extractor.ErrUnsupported))
	_, err = f.indexer.Upload(ctx, "bad.txt", []byte("a malformed upload"))
	assert.True(t, errors.Is(err, flat.ErrDimensionMismatch))
	_, err = f.indexer.Upload(ctx, "blank.txt", []byte(" "))
	assert.True(t, errors.Is(err, ErrNoText))
}
