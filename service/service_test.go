package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/docrag/agent"
	"github.com/viant/docrag/embeddings"
	"github.com/viant/docrag/embeddings/ollama"
	"github.com/viant/docrag/embeddings/openai"
	"github.com/viant/docrag/embeddings/vertexai"
	"github.com/viant/docrag/llm"
)

func TestLoadConfig(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "docrag.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  url: ~/docrag/data
documents:
  root: /srv/docs
  exclude: [drafts/]
chunking:
  size: 128
embedder:
  type: ollama
  model: nomic-embed-text
tabular:
  tables:
    employees: staff.csv
`), 0o644))

	cfg, err := LoadConfig(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "docrag", "data"), cfg.Store.URL)
	assert.Equal(t, embeddings.DefaultDimension, cfg.Store.Dimension)
	assert.Equal(t, "/srv/docs", cfg.Documents.Root)
	assert.Equal(t, "uploads", cfg.Documents.Uploads)
	assert.Equal(t, []string{"drafts/"}, cfg.Documents.Exclude)
	assert.Equal(t, 128, cfg.Chunking.Size)
	assert.Equal(t, 50, cfg.Chunking.Overlap)
	assert.Equal(t, "ollama", cfg.Embedder.Type)
	assert.Equal(t, "staff.csv", cfg.Tabular.Tables["employees"])

	_, err = LoadConfig(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestExpandUserPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	tests := []struct {
		in     string
		expect string
		err    bool
	}{
		{in: "~", expect: home},
		{in: "~/a/b", expect: filepath.Join(home, "a", "b")},
		{in: "/abs/path", expect: "/abs/path"},
		{in: "mem://localhost/x", expect: "mem://localhost/x"},
		{in: "~other/x", err: true},
	}
	for _, tc := range tests {
		actual, err := expandUserPath(tc.in)
		if tc.err {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.expect, actual, tc.in)
	}
}

func TestNewEmbedder(t *testing.T) {
	tests := []struct {
		typ    string
		expect any
	}{
		{typ: "", expect: &embeddings.Simple{}},
		{typ: "simple", expect: &embeddings.Simple{}},
		{typ: "OpenAI", expect: &openai.Client{}},
		{typ: "ollama", expect: &ollama.Client{}},
		{typ: "vertexai", expect: &vertexai.Embedder{}},
	}
	for _, tc := range tests {
		e, err := NewEmbedder(EmbedderConfig{Type: tc.typ, Model: "m"}, 8)
		require.NoError(t, err, tc.typ)
		assert.IsType(t, tc.expect, e, tc.typ)
	}
	_, err := NewEmbedder(EmbedderConfig{Type: "bert"}, 8)
	assert.Error(t, err)
}

func TestService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	cfg := DefaultConfig()
	cfg.Store.URL = filepath.Join(base, "data")
	cfg.Documents.Root = filepath.Join(base, "documents")
	cfg.Documents.Uploads = filepath.Join(base, "uploads")
	require.NoError(t, os.MkdirAll(cfg.Documents.Root, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Documents.Root, "expenses.md"),
		[]byte("Expense reimbursement requires receipts within thirty days"), 0o644))

	quiet := WithLogf(func(string, ...any) {})
	srv, err := New(ctx, cfg, quiet)
	require.NoError(t, err)
	stats, err := srv.Init(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Indexed)

	record, err := srv.Upload(ctx, "laptops.txt", []byte("Every laptop must use disk encryption"))
	require.NoError(t, err)
	docs := srv.Documents()
	require.Len(t, docs, 2)
	assert.Equal(t, "expenses.md", docs[0].Name)
	assert.Equal(t, "laptops.txt", docs[1].Name)

	matches, err := srv.Search(ctx, "laptop disk encryption", 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "laptops.txt", matches[0].Path)

	require.NoError(t, srv.Delete(ctx, record.ID))
	require.NoError(t, srv.Close(ctx))

	reopened, err := New(ctx, cfg, quiet)
	require.NoError(t, err)
	assert.Len(t, reopened.Documents(), 1)
	stats, err = reopened.Init(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped)
	matches, err = reopened.Search(ctx, "laptop disk encryption", 2)
	require.NoError(t, err)
	for _, m := range matches {
		assert.Equal(t, "expenses.md", m.Path)
	}
}

type cannedCompleter struct {
	replies []string
}

func (c *cannedCompleter) Complete(ctx context.Context, messages []llm.Message, options llm.Options) (string, error) {
	reply := c.replies[0]
	c.replies = c.replies[1:]
	return reply, nil
}

func TestService_Agent(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	cfg := DefaultConfig()
	cfg.Store.URL = filepath.Join(base, "data")
	cfg.Documents.Root = filepath.Join(base, "documents")
	cfg.Documents.Uploads = filepath.Join(base, "uploads")
	cfg.Tabular.Folder = filepath.Join(base, "csv")
	require.NoError(t, os.MkdirAll(cfg.Documents.Root, 0o755))
	require.NoError(t, os.MkdirAll(cfg.Tabular.Folder, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Documents.Root, "onboarding.txt"),
		[]byte("New hires receive a laptop on their first day"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Tabular.Folder, "customers.csv"),
		[]byte("Company Name,Industry\nAcme,Retail\nGlobex,Energy\n"), 0o644))

	srv, err := New(ctx, cfg, WithLogf(func(string, ...any) {}))
	require.NoError(t, err)
	_, err = srv.Init(ctx)
	require.NoError(t, err)
	db, err := srv.OpenTabular(ctx)
	require.NoError(t, err)
	defer db.Close()
	names, err := db.TableNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"customers"}, names)

	completer := &cannedCompleter{replies: []string{
		"SELECT company_name FROM customers WHERE industry = 'Retail'",
		"Acme is the retail customer.",
		"You get a laptop on day one.",
	}}
	a := srv.NewAgent(db, completer)

	result := a.Ask(ctx, "Which customers are in the retail industry?")
	assert.Equal(t, agent.RouteSQL, result.Route)
	assert.Equal(t, "Acme is the retail customer.", result.Answer)
	assert.Equal(t, "SELECT company_name FROM customers WHERE industry = 'Retail'", result.SQLExecuted)

	result = a.Ask(ctx, "Do I get a laptop during onboarding?")
	assert.Equal(t, agent.RouteDocs, result.Route)
	assert.Equal(t, []string{"onboarding.txt"}, result.Sources)
	assert.Equal(t, 0.8, result.Confidence)
}

func TestService_SelfTest(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	cfg := DefaultConfig()
	cfg.Store.URL = filepath.Join(base, "data")
	cfg.Documents.Root = filepath.Join(base, "documents")
	cfg.Documents.Uploads = filepath.Join(base, "uploads")
	cfg.Tabular.Folder = filepath.Join(base, "csv")
	require.NoError(t, os.MkdirAll(cfg.Documents.Root, 0o755))
	require.NoError(t, os.MkdirAll(cfg.Tabular.Folder, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Documents.Root, "travel_policy.txt"),
		[]byte("Book economy class for flights under six hours"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Tabular.Folder, "customers.csv"),
		[]byte("Company Name,Industry\nAcme,Retail\n"), 0o644))

	srv, err := New(ctx, cfg, WithLogf(func(string, ...any) {}))
	require.NoError(t, err)
	_, err = srv.Init(ctx)
	require.NoError(t, err)
	db, err := srv.OpenTabular(ctx)
	require.NoError(t, err)
	defer db.Close()

	report, err := srv.SelfTest(ctx, db, &cannedCompleter{}, false)
	require.NoError(t, err)
	assert.Equal(t, report.TotalTests, report.Passed)
	assert.Zero(t, report.Failed)
	assert.Equal(t, 1.0, report.SuccessRate)
	assert.Equal(t, &agent.Tally{Total: 1, Passed: 1}, report.ByCategory["indexed_document"])
	// count, three customer questions and two cross table questions
	assert.Equal(t, 6, report.ByRoute[agent.RouteSQL].Total)

	report, err = srv.SelfTest(ctx, nil, &cannedCompleter{}, false)
	require.NoError(t, err)
	assert.Nil(t, report.ByRoute[agent.RouteSQL])
}
