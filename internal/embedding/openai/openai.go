package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"recall/internal/domain"
)

// Client is an embeddings client over the OpenAI API implementing the
// domain.Embedder interface.
type Client struct {
	api        *openai.Client
	model      string
	dimension  int
	maxRetries int
}

// Config configures the embeddings client. Dimension is the dimension the
// vector index was created with; a model returning anything else is a
// configuration drift, not a recoverable condition.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Dimension int
	Timeout   time.Duration
}

// NewClient creates a new embeddings client using the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, &domain.ConfigurationError{Field: cfg.APIKeyEnv, Reason: "environment variable not set"}
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	if cfg.Dimension <= 0 {
		return nil, &domain.ConfigurationError{Field: "index.dimension", Reason: "must be positive"}
	}
	t := cfg.Timeout
	if t == 0 {
		t = 30 * time.Second
	}
	apiCfg := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	apiCfg.HTTPClient = &http.Client{Timeout: t}
	return &Client{
		api:        openai.NewClientWithConfig(apiCfg),
		model:      cfg.Model,
		dimension:  cfg.Dimension,
		maxRetries: 5,
	}, nil
}

// Model returns the embedding model identifier.
func (c *Client) Model() string { return c.model }

// Dimension returns the expected dimensionality of produced vectors.
func (c *Client) Dimension() int { return c.dimension }

// Embed returns an embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch returns one vector per input text, in input order. Rate-limit
// and server errors are retried with bounded backoff; authentication
// failures are not.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for attempt := 0; ; attempt++ {
		resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: texts,
			Model: openai.EmbeddingModel(c.model),
		})
		if err == nil {
			return c.collect(resp, len(texts))
		}
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			switch {
			case apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusForbidden:
				return nil, &domain.AuthenticationError{Service: "openai embeddings", Err: err}
			case apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500:
				// retriable below
			default:
				return nil, fmt.Errorf("openai embeddings: %w", err)
			}
		}
		if attempt >= c.maxRetries {
			return nil, &domain.TransientServiceError{Service: "openai embeddings", Attempts: attempt + 1, Err: err}
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay(attempt)):
		}
	}
}

func (c *Client) collect(resp openai.EmbeddingResponse, want int) ([][]float32, error) {
	if len(resp.Data) != want {
		return nil, fmt.Errorf("openai embeddings: got %d vectors, want %d", len(resp.Data), want)
	}
	out := make([][]float32, want)
	for _, d := range resp.Data {
		if len(d.Embedding) != c.dimension {
			return nil, &domain.DimensionMismatchError{Want: c.dimension, Got: len(d.Embedding)}
		}
		if d.Index < 0 || d.Index >= want {
			return nil, fmt.Errorf("openai embeddings: unexpected result index %d", d.Index)
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := 200 * time.Millisecond
	// exponential backoff capped at 5s
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
