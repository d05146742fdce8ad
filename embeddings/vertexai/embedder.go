// Package vertexai embeds text with Vertex AI text embedding models.
package vertexai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/viant/docrag/embeddings"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	defaultLocation = "us-central1"
	defaultModel    = "text-embedding-004"
	cloudScope      = "https://www.googleapis.com/auth/cloud-platform"
	// Vertex caps predict requests at 250 instances
	maxInstances = 250
)

var errProjectRequired = errors.New("vertexai project id is required")

type (
	predictRequest struct {
		Instances []instance `json:"instances"`
	}
	instance struct {
		Content string `json:"content"`
	}
	predictResponse struct {
		Predictions []struct {
			Embeddings struct {
				Values []float32 `json:"values"`
			} `json:"embeddings"`
		} `json:"predictions"`
	}
)

// Option configures an Embedder
type Option func(*Embedder)

// WithBaseURL overrides the regional API root, e.g. for a private endpoint
func WithBaseURL(baseURL string) Option {
	return func(e *Embedder) {
		if baseURL != "" {
			e.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithTokenSource skips default credential lookup
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(e *Embedder) { e.tokenSource = ts }
}

// WithHTTPClient sets the transport
func WithHTTPClient(client *http.Client) Option {
	return func(e *Embedder) { e.httpClient = client }
}

// Embedder lazily resolves Google default credentials on first use
type Embedder struct {
	projectID string
	location  string
	model     string
	baseURL   string

	once        sync.Once
	initErr     error
	tokenSource oauth2.TokenSource
	httpClient  *http.Client
}

// New creates a Vertex AI embedder
func New(projectID, location, model string, opts ...Option) *Embedder {
	if location == "" {
		location = defaultLocation
	}
	if model == "" {
		model = defaultModel
	}
	e := &Embedder{
		projectID: projectID,
		location:  location,
		model:     model,
		baseURL:   fmt.Sprintf("https://%s-aiplatform.googleapis.com", location),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Embedder) EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error) {
	if err := e.init(ctx); err != nil {
		return nil, err
	}
	return embeddings.Batch(ctx, docs, maxInstances, e.predict)
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return embeddings.Query(ctx, e, text)
}

func (e *Embedder) init(ctx context.Context) error {
	e.once.Do(func() {
		if e.projectID == "" {
			e.initErr = errProjectRequired
			return
		}
		if e.httpClient == nil {
			e.httpClient = &http.Client{Timeout: 30 * time.Second}
		}
		if e.tokenSource != nil {
			return
		}
		ts, err := google.DefaultTokenSource(ctx, cloudScope)
		if err != nil {
			e.initErr = fmt.Errorf("vertexai token source: %w", err)
			return
		}
		e.tokenSource = oauth2.ReuseTokenSource(nil, ts)
	})
	return e.initErr
}

func (e *Embedder) endpoint() string {
	return fmt.Sprintf("%s/v1/projects/%s/locations/%s/publishers/google/models/%s:predict",
		e.baseURL, e.projectID, e.location, e.model)
}

func (e *Embedder) predict(ctx context.Context, texts []string) ([][]float32, error) {
	payload := predictRequest{Instances: make([]instance, len(texts))}
	for i, text := range texts {
		payload.Instances[i].Content = text
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	token, err := e.tokenSource.Token()
	if err != nil {
		return nil, fmt.Errorf("vertexai token: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	token.SetAuthHeader(req)
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("vertexai API error: %s", strings.TrimSpace(string(msg)))
	}
	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	vectors := make([][]float32, len(out.Predictions))
	for i, p := range out.Predictions {
		vectors[i] = p.Embeddings.Values
	}
	return vectors, nil
}
