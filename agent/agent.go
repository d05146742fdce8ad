// Package agent routes a question to structured data, documents or the web and composes the answer.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/viant/docrag/document"
	"github.com/viant/docrag/llm"
	"github.com/viant/docrag/tabular"
)

const (
	docsTopK        = 5
	contextDocs     = 3
	contextChars    = 500
	resultRows      = 10
	temperature     = 0.1
	sqlMaxTokens    = 500
	sqlAnswerTokens = 300
	docsMaxTokens   = 400
)

var (
	errNoDatabase = errors.New("database service not available")
	errNoSearcher = errors.New("document search service not available")
)

// Result is the composed answer
type Result struct {
	Answer      string   `json:"answer"`
	Sources     []string `json:"sources"`
	SQLExecuted string   `json:"sql_executed,omitempty"`
	Confidence  float64  `json:"confidence"`
	Route       Route    `json:"route"`
}

// Database runs generated queries against tabular data
type Database interface {
	Schema(ctx context.Context) (*tabular.Schema, error)
	Execute(ctx context.Context, query string) ([]map[string]interface{}, error)
}

// Searcher returns ranked chunks for a query
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]document.Match, error)
}

// Option configures an Agent
type Option func(a *Agent)

// WithDatabase enables the sql route
func WithDatabase(db Database) Option {
	return func(a *Agent) { a.db = db }
}

// WithSearcher enables the docs route
func WithSearcher(searcher Searcher) Option {
	return func(a *Agent) { a.searcher = searcher }
}

// WithModels sets the models used to generate SQL and to write answers; empty keeps the completer default
func WithModels(sqlModel, answerModel string) Option {
	return func(a *Agent) {
		a.sqlModel = sqlModel
		a.answerModel = answerModel
	}
}

// WithLogf sets the logger
func WithLogf(logf func(format string, args ...any)) Option {
	return func(a *Agent) {
		if logf != nil {
			a.logf = logf
		}
	}
}

// Agent answers questions
type Agent struct {
	completer   llm.Completer
	db          Database
	searcher    Searcher
	sqlModel    string
	answerModel string
	logf        func(format string, args ...any)
}

// New creates an agent
func New(completer llm.Completer, opts ...Option) *Agent {
	a := &Agent{completer: completer, logf: log.Printf}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Ask routes query and returns the answer; failures are reported in the result
func (a *Agent) Ask(ctx context.Context, query string) *Result {
	if err := ctx.Err(); err != nil {
		return &Result{Answer: fmt.Sprintf("Error processing query: %v", err), Sources: []string{}, Confidence: 0.3, Route: RouteError}
	}
	route := Classify(query)
	a.logf("docrag: ask route=%s", route)
	switch route {
	case RouteSQL:
		return a.askSQL(ctx, query)
	case RouteDocs:
		return a.askDocs(ctx, query)
	default:
		return a.askWeb(query)
	}
}

func (a *Agent) askSQL(ctx context.Context, query string) *Result {
	statement, answer, err := a.runSQL(ctx, query)
	if err != nil {
		return &Result{Answer: fmt.Sprintf("SQL query failed: %v", err), Sources: []string{}, SQLExecuted: statement, Confidence: 0.3, Route: RouteSQL}
	}
	return &Result{
		Answer:      answer,
		Sources:     []string{"Database query: " + statement},
		SQLExecuted: statement,
		Confidence:  0.9,
		Route:       RouteSQL,
	}
}

func (a *Agent) runSQL(ctx context.Context, query string) (statement string, answer string, err error) {
	if a.db == nil {
		return "", "", errNoDatabase
	}
	schema, err := a.db.Schema(ctx)
	if err != nil {
		return "", "", err
	}
	schemaJSON, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", "", err
	}
	generated, err := a.completer.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: fmt.Sprintf(sqlPrompt, schemaJSON, query)},
		{Role: llm.RoleUser, Content: query},
	}, llm.Options{Model: a.sqlModel, Temperature: temperature, MaxTokens: sqlMaxTokens})
	if err != nil {
		return "", "", err
	}
	statement = StripFences(generated)
	rows, err := a.db.Execute(ctx, statement)
	if err != nil {
		return statement, "", err
	}
	if len(rows) > resultRows {
		rows = rows[:resultRows]
	}
	rowsJSON, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return statement, "", err
	}
	answer, err = a.completer.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: fmt.Sprintf(sqlAnswerPrompt, query, statement, rowsJSON)},
	}, llm.Options{Model: a.answerModel, Temperature: temperature, MaxTokens: sqlAnswerTokens})
	return statement, answer, err
}

func (a *Agent) askDocs(ctx context.Context, query string) *Result {
	if a.searcher == nil {
		return &Result{Answer: "Document search service not available", Sources: []string{}, Confidence: 0.1, Route: RouteDocs}
	}
	matches, err := a.searcher.Search(ctx, query, docsTopK)
	if err != nil {
		return a.docsFailed(err)
	}
	if len(matches) == 0 {
		return &Result{Answer: "No relevant documents found for your query.", Sources: []string{}, Confidence: 0.2, Route: RouteDocs}
	}
	if len(matches) > contextDocs {
		matches = matches[:contextDocs]
	}
	sections := make([]string, len(matches))
	sources := make([]string, len(matches))
	for i, match := range matches {
		sections[i] = fmt.Sprintf("Document: %s\nContent: %s...", match.Path, truncate(match.Chunk, contextChars))
		sources[i] = match.Path
	}
	answer, err := a.completer.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: fmt.Sprintf(docsAnswerPrompt, query, strings.Join(sections, "\n"))},
	}, llm.Options{Model: a.answerModel, Temperature: temperature, MaxTokens: docsMaxTokens})
	if err != nil {
		return a.docsFailed(err)
	}
	return &Result{Answer: answer, Sources: sources, Confidence: 0.8, Route: RouteDocs}
}

func (a *Agent) docsFailed(err error) *Result {
	return &Result{Answer: fmt.Sprintf("Document search failed: %v", err), Sources: []string{}, Confidence: 0.3, Route: RouteDocs}
}

func (a *Agent) askWeb(query string) *Result {
	return &Result{
		Answer:     "Web search functionality is not implemented yet. Your query was: " + query,
		Sources:    []string{"Web search (simulated)"},
		Confidence: 0.5,
		Route:      RouteWeb,
	}
}

// StripFences removes a surrounding ```sql ... ``` block from generated SQL
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```sql")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
