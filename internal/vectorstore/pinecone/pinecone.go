package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"recall/internal/domain"
)

const (
	defaultControlURL = "https://api.pinecone.io"
	apiVersion        = "2025-01"
)

// Store is a minimal REST client to a Pinecone index, implementing the
// domain.Store interface. It never creates the index: EnsureIndex checks
// that the operator-created index matches the configured dimension and
// metric and resolves the data-plane host.
type Store struct {
	controlURL string
	host       string
	apiKey     string
	index      string
	dimension  int
	metric     string
	client     *http.Client
	maxRetries int
}

// Config configures the Pinecone client. ControlURL and Host are
// overridable for tests; Host is normally resolved by EnsureIndex.
type Config struct {
	ControlURL string
	Host       string
	APIKey     string
	Index      string
	Dimension  int
	Metric     string
	Timeout    time.Duration
}

// NewStore validates the connection settings at construction.
func NewStore(cfg Config) (*Store, error) {
	if cfg.APIKey == "" {
		return nil, &domain.ConfigurationError{Field: "index.api_key", Reason: "missing API key"}
	}
	if cfg.Index == "" {
		return nil, &domain.ConfigurationError{Field: "index.name", Reason: "must not be empty"}
	}
	if cfg.Dimension <= 0 {
		return nil, &domain.ConfigurationError{Field: "index.dimension", Reason: "must be positive"}
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	controlURL := cfg.ControlURL
	if controlURL == "" {
		controlURL = defaultControlURL
	}
	metric := cfg.Metric
	if metric == "" {
		metric = "cosine"
	}
	return &Store{
		controlURL: controlURL,
		host:       cfg.Host,
		apiKey:     cfg.APIKey,
		index:      cfg.Index,
		dimension:  cfg.Dimension,
		metric:     metric,
		client:     &http.Client{Timeout: timeout},
		maxRetries: 3,
	}, nil
}

type indexDescription struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
	Host      string `json:"host"`
}

// EnsureIndex verifies the index exists with the expected dimension and
// metric. A missing index or a name collision with the wrong schema is a
// ConfigurationError: creation is an out-of-band operator action.
func (s *Store) EnsureIndex(ctx context.Context) error {
	var desc indexDescription
	status, err := s.doJSON(ctx, http.MethodGet, fmt.Sprintf("%s/indexes/%s", s.controlURL, s.index), nil, &desc)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		return &domain.ConfigurationError{
			Field: "index.name",
			Reason: fmt.Sprintf("index %q not found; create it manually with dimension=%d metric=%s",
				s.index, s.dimension, s.metric),
		}
	}
	if desc.Dimension != s.dimension {
		return &domain.ConfigurationError{
			Field:  "index.dimension",
			Reason: fmt.Sprintf("index %q has dimension %d, configured %d", s.index, desc.Dimension, s.dimension),
		}
	}
	if desc.Metric != s.metric {
		return &domain.ConfigurationError{
			Field:  "index.metric",
			Reason: fmt.Sprintf("index %q has metric %s, configured %s", s.index, desc.Metric, s.metric),
		}
	}
	if desc.Host == "" {
		return fmt.Errorf("pinecone index %q: describe returned no data-plane host", s.index)
	}
	host := desc.Host
	if !strings.HasPrefix(host, "http") {
		host = "https://" + host
	}
	s.host = host
	return nil
}

// Upsert writes records to the index; re-upserting an ID overwrites the
// prior record. Returns the count reported by the index.
func (s *Store) Upsert(ctx context.Context, records []domain.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	type vector struct {
		ID       string         `json:"id"`
		Values   []float32      `json:"values"`
		Metadata map[string]any `json:"metadata,omitempty"`
	}
	vectors := make([]vector, len(records))
	for i, r := range records {
		vectors[i] = vector{ID: r.ID, Values: r.Values, Metadata: r.Metadata}
	}
	var resp struct {
		UpsertedCount int `json:"upsertedCount"`
	}
	req := map[string]any{"vectors": vectors}
	if _, err := s.doJSON(ctx, http.MethodPost, s.host+"/vectors/upsert", req, &resp); err != nil {
		return 0, err
	}
	return resp.UpsertedCount, nil
}

// Query returns up to topK matches ordered by descending score, as ranked
// by the index.
func (s *Store) Query(ctx context.Context, vector []float32, topK int) ([]domain.Match, error) {
	if topK < 1 {
		return nil, fmt.Errorf("topK must be at least 1, got %d", topK)
	}
	if len(vector) != s.dimension {
		return nil, &domain.DimensionMismatchError{Want: s.dimension, Got: len(vector)}
	}
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	req := map[string]any{
		"vector":          vector,
		"topK":            topK,
		"includeMetadata": true,
	}
	var resp struct {
		Matches []struct {
			ID       string         `json:"id"`
			Score    float32        `json:"score"`
			Metadata map[string]any `json:"metadata"`
		} `json:"matches"`
	}
	if _, err := s.doJSON(ctx, http.MethodPost, s.host+"/query", req, &resp); err != nil {
		return nil, err
	}
	matches := make([]domain.Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		matches = append(matches, domain.Match{ID: m.ID, Score: m.Score, Metadata: m.Metadata})
	}
	return matches, nil
}

// Count reports the total vector count from the index stats endpoint.
func (s *Store) Count(ctx context.Context) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	var resp struct {
		TotalVectorCount int `json:"totalVectorCount"`
	}
	if _, err := s.doJSON(ctx, http.MethodPost, s.host+"/describe_index_stats", map[string]any{}, &resp); err != nil {
		return 0, err
	}
	return resp.TotalVectorCount, nil
}

// ready resolves the data-plane host on first use. Calls within one
// operation are sequential, so no locking is needed here.
func (s *Store) ready(ctx context.Context) error {
	if s.host != "" {
		return nil
	}
	return s.EnsureIndex(ctx)
}

// doJSON performs one JSON request with bounded retries on rate limits,
// server errors and network failures. 404 on GET is reported through the
// status return so EnsureIndex can distinguish a missing index.
func (s *Store) doJSON(ctx context.Context, method, url string, body, out any) (int, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return 0, err
		}
	}
	for attempt := 0; ; attempt++ {
		var reader *bytes.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		} else {
			reader = bytes.NewReader(nil)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return 0, err
		}
		req.Header.Set("Api-Key", s.apiKey)
		req.Header.Set("X-Pinecone-API-Version", apiVersion)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := s.client.Do(req)
		if err == nil {
			switch {
			case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
				resp.Body.Close()
				return resp.StatusCode, &domain.AuthenticationError{
					Service: "pinecone",
					Err:     fmt.Errorf("%s %s: %s", method, url, resp.Status),
				}
			case resp.StatusCode == http.StatusNotFound && method == http.MethodGet:
				resp.Body.Close()
				return resp.StatusCode, nil
			case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
				resp.Body.Close()
				err = fmt.Errorf("pinecone %s %s: %s", method, url, resp.Status)
			case resp.StatusCode >= 300:
				resp.Body.Close()
				return resp.StatusCode, fmt.Errorf("pinecone %s %s failed: %s", method, url, resp.Status)
			default:
				status := resp.StatusCode
				if out != nil {
					decErr := json.NewDecoder(resp.Body).Decode(out)
					resp.Body.Close()
					if decErr != nil {
						return status, fmt.Errorf("pinecone %s %s: decoding response: %w", method, url, decErr)
					}
				} else {
					resp.Body.Close()
				}
				return status, nil
			}
		}
		if attempt >= s.maxRetries {
			return 0, &domain.TransientServiceError{Service: "pinecone", Attempts: attempt + 1, Err: err}
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(retryDelay(attempt)):
		}
	}
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := 200 * time.Millisecond
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
