package retriever

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"recall/internal/domain"
)

// Sentinel strings returned instead of errors on the read path. Callers
// treat them as "answer not found", keeping an interactive dialogue alive.
const (
	NoResultsMessage     = "No relevant information found."
	NotConfiguredMessage = "The knowledge base is not available. Configure the index name and API keys to enable retrieval."
)

// Retriever turns a query into ranked context. It is one of exactly two
// variants: Configured, which performs the search, or Unconfigured, which
// answers with a fixed sentinel and never fails.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) (string, error)
}

// Configured is the live variant, wired to an embedder and a vector index.
type Configured struct {
	embedder domain.Embedder
	store    domain.Store
	log      *slog.Logger
}

// NewConfigured builds the live retriever variant.
func NewConfigured(embedder domain.Embedder, store domain.Store, log *slog.Logger) *Configured {
	if log == nil {
		log = slog.Default()
	}
	return &Configured{embedder: embedder, store: store, log: log}
}

// Retrieve embeds the query, asks the index for topK matches and formats
// the surviving ones as "[Score: x.xx] text" blocks separated by blank
// lines, preserving the index's descending-score order. Matches without
// usable text are dropped. Zero survivors yield NoResultsMessage.
func (r *Configured) Retrieve(ctx context.Context, query string, topK int) (string, error) {
	if topK < 1 {
		topK = 3
	}
	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		r.log.Error("query embedding failed", "query", query, "error", err)
		return "", err
	}
	matches, err := r.store.Query(ctx, vector, topK)
	if err != nil {
		r.log.Error("index query failed", "query", query, "error", err)
		return "", err
	}
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		text, _ := m.Metadata["text"].(string)
		if text == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("[Score: %.2f] %s", m.Score, text))
	}
	if len(parts) == 0 {
		return NoResultsMessage, nil
	}
	return strings.Join(parts, "\n\n"), nil
}

// Unconfigured is the disabled variant. It reports why retrieval is off
// and short-circuits every call to the not-configured sentinel.
type Unconfigured struct {
	Reason string
}

func (u Unconfigured) Retrieve(ctx context.Context, query string, topK int) (string, error) {
	return NotConfiguredMessage, nil
}
