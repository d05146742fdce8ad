// Package ollama embeds text with a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/viant/docrag/embeddings"
)

const (
	defaultBaseURL   = "http://localhost:11434"
	defaultBatchSize = 32
	defaultTimeout   = 60 * time.Second
)

var errModelRequired = errors.New("ollama model is required")

// Option configures a Client
type Option func(*Client)

// WithBaseURL overrides the server address
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithBatchSize limits inputs per request
func WithBatchSize(size int) Option {
	return func(c *Client) {
		if size > 0 {
			c.batchSize = size
		}
	}
}

// Client implements embeddings.Embedder over /api/embed
type Client struct {
	baseURL    string
	model      string
	batchSize  int
	httpClient *http.Client
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Error      string      `json:"error"`
}

// New creates an Ollama client for model
func New(model string, opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		model:      model,
		batchSize:  defaultBatchSize,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error) {
	if c.model == "" {
		return nil, errModelRequired
	}
	return embeddings.Batch(ctx, docs, c.batchSize, c.embed)
}

func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return embeddings.Query(ctx, c, text)
}

func (c *Client) embed(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embedRequest{Model: c.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama API error: %s", strings.TrimSpace(string(msg)))
	}
	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("ollama API error: %s", out.Error)
	}
	return out.Embeddings, nil
}
