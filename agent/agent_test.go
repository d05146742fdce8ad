package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/docrag/document"
	"github.com/viant/docrag/llm"
	"github.com/viant/docrag/tabular"
)

type scriptedCompleter struct {
	replies []string
	err     error
	calls   [][]llm.Message
	options []llm.Options
}

func (c *scriptedCompleter) Complete(ctx context.Context, messages []llm.Message, options llm.Options) (string, error) {
	c.calls = append(c.calls, messages)
	c.options = append(c.options, options)
	if c.err != nil {
		return "", c.err
	}
	reply := c.replies[0]
	c.replies = c.replies[1:]
	return reply, nil
}

type fixedSearcher struct {
	matches []document.Match
	err     error
	topK    int
}

func (s *fixedSearcher) Search(ctx context.Context, query string, topK int) ([]document.Match, error) {
	s.topK = topK
	return s.matches, s.err
}

func quiet(string, ...any) {}

func TestClassify(t *testing.T) {
	tests := []struct {
		query  string
		expect Route
	}{
		{query: "How many employees are in Engineering?", expect: RouteSQL},
		{query: "Show me open tickets", expect: RouteSQL},
		{query: "What is the security policy for the engineering department?", expect: RouteSQL},
		{query: "What is the laptop security policy?", expect: RouteDocs},
		{query: "How do I submit a REIMBURSEMENT?", expect: RouteDocs},
		{query: "What is the weather in Paris?", expect: RouteWeb},
		{query: "", expect: RouteWeb},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.expect, Classify(tc.query), tc.query)
	}
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, "SELECT 1", StripFences("```sql\nSELECT 1\n```"))
	assert.Equal(t, "SELECT 1", StripFences("  SELECT 1  "))
	assert.Equal(t, "SELECT 1", StripFences("SELECT 1\n```"))
}

func newEmployees(t *testing.T) *tabular.Store {
	t.Helper()
	db, err := tabular.Open(context.Background(), ":memory:", tabular.WithLogf(quiet))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.LoadCSV(context.Background(), "employees", strings.NewReader("Name,Department\nAlice,Engineering\nBob,Sales\nCarol,Engineering\n"))
	require.NoError(t, err)
	return db
}

func TestAgent_AskSQL(t *testing.T) {
	completer := &scriptedCompleter{replies: []string{
		"```sql\nSELECT COUNT(*) AS n FROM employees WHERE department = 'Engineering'\n```",
		"There are 2 engineers.",
	}}
	a := New(completer, WithDatabase(newEmployees(t)), WithModels("sql-model", "answer-model"), WithLogf(quiet))

	result := a.Ask(context.Background(), "How many employees work in Engineering?")
	assert.Equal(t, &Result{
		Answer:      "There are 2 engineers.",
		Sources:     []string{"Database query: SELECT COUNT(*) AS n FROM employees WHERE department = 'Engineering'"},
		SQLExecuted: "SELECT COUNT(*) AS n FROM employees WHERE department = 'Engineering'",
		Confidence:  0.9,
		Route:       RouteSQL,
	}, result)

	require.Len(t, completer.calls, 2)
	assert.Contains(t, completer.calls[0][0].Content, `"department"`)
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "How many employees work in Engineering?"}, completer.calls[0][1])
	assert.Equal(t, llm.Options{Model: "sql-model", Temperature: 0.1, MaxTokens: 500}, completer.options[0])
	assert.Contains(t, completer.calls[1][0].Content, `"n": 2`)
	assert.Equal(t, llm.Options{Model: "answer-model", Temperature: 0.1, MaxTokens: 300}, completer.options[1])
}

func TestAgent_AskSQLFailures(t *testing.T) {
	completer := &scriptedCompleter{replies: []string{"SELECT * FROM payroll"}}
	a := New(completer, WithDatabase(newEmployees(t)), WithLogf(quiet))
	result := a.Ask(context.Background(), "list payroll")
	assert.Equal(t, RouteSQL, result.Route)
	assert.Equal(t, 0.3, result.Confidence)
	assert.Equal(t, "SELECT * FROM payroll", result.SQLExecuted)
	assert.True(t, strings.HasPrefix(result.Answer, "SQL query failed: "))
	assert.Contains(t, result.Answer, "payroll")
	assert.Empty(t, result.Sources)

	result = New(completer, WithLogf(quiet)).Ask(context.Background(), "count customers")
	assert.Equal(t, "SQL query failed: database service not available", result.Answer)
	assert.Equal(t, "", result.SQLExecuted)
}

func TestAgent_AskDocs(t *testing.T) {
	long := strings.Repeat("a", 600)
	searcher := &fixedSearcher{matches: []document.Match{
		{Path: "laptops.md", Chunk: "Laptops must be encrypted", Score: 0.9},
		{Path: "devices.pdf", Chunk: long, Score: 0.8},
		{Path: "travel.docx", Chunk: "Travel", Score: 0.5},
		{Path: "ignored.txt", Chunk: "ignored", Score: 0.1},
	}}
	completer := &scriptedCompleter{replies: []string{"Encrypt your laptop."}}
	a := New(completer, WithSearcher(searcher), WithLogf(quiet))

	result := a.Ask(context.Background(), "What is the laptop policy?")
	assert.Equal(t, &Result{
		Answer:     "Encrypt your laptop.",
		Sources:    []string{"laptops.md", "devices.pdf", "travel.docx"},
		Confidence: 0.8,
		Route:      RouteDocs,
	}, result)
	assert.Equal(t, 5, searcher.topK)
	prompt := completer.calls[0][0].Content
	assert.Contains(t, prompt, "Document: laptops.md\nContent: Laptops must be encrypted...")
	assert.Contains(t, prompt, "Content: "+strings.Repeat("a", 500)+"...")
	assert.NotContains(t, prompt, strings.Repeat("a", 501))
	assert.NotContains(t, prompt, "ignored.txt")
	assert.Equal(t, 400, completer.options[0].MaxTokens)
}

func TestAgent_AskDocsFallbacks(t *testing.T) {
	completer := &scriptedCompleter{}
	tests := []struct {
		description string
		searcher    Searcher
		answer      string
		confidence  float64
	}{
		{description: "no searcher", answer: "Document search service not available", confidence: 0.1},
		{description: "no matches", searcher: &fixedSearcher{matches: []document.Match{}}, answer: "No relevant documents found for your query.", confidence: 0.2},
		{description: "search error", searcher: &fixedSearcher{err: errors.New("index offline")}, answer: "Document search failed: index offline", confidence: 0.3},
	}
	for _, tc := range tests {
		var opts = []Option{WithLogf(quiet)}
		if tc.searcher != nil {
			opts = append(opts, WithSearcher(tc.searcher))
		}
		result := New(completer, opts...).Ask(context.Background(), "onboarding process")
		assert.Equal(t, RouteDocs, result.Route, tc.description)
		assert.Equal(t, tc.answer, result.Answer, tc.description)
		assert.Equal(t, tc.confidence, result.Confidence, tc.description)
		assert.Empty(t, result.Sources, tc.description)
	}
	assert.Empty(t, completer.calls)
}

func TestAgent_AskWebAndError(t *testing.T) {
	a := New(&scriptedCompleter{}, WithLogf(quiet))
	result := a.Ask(context.Background(), "Who won the match?")
	assert.Equal(t, &Result{
		Answer:     "Web search functionality is not implemented yet. Your query was: Who won the match?",
		Sources:    []string{"Web search (simulated)"},
		Confidence: 0.5,
		Route:      RouteWeb,
	}, result)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result = a.Ask(ctx, "Who won the match?")
	assert.Equal(t, RouteError, result.Route)
	assert.Equal(t, 0.3, result.Confidence)
}
