package domain

import "context"

// Document is one loadable unit of a source file: a PDF page, a DOCX body,
// a PPTX slide. Immutable once loaded; discarded after chunking.
type Document struct {
	Text    string
	Source  string // path of the originating file
	Section int    // page or slide index within the source
}

// Chunk is a bounded-size segment of a Document used as the unit of
// embedding and retrieval.
type Chunk struct {
	Text    string
	Source  string
	Section int
	Index   int // position of the chunk within its document
}

// Record is an (id, vector, metadata) tuple stored in the vector index.
type Record struct {
	ID       string
	Values   []float32
	Metadata map[string]any
}

// Match is a similarity hit returned by the vector index. Ordering by
// descending score is the index's contract, never recomputed locally.
type Match struct {
	ID       string
	Score    float32
	Metadata map[string]any
}

// Chunker splits a document into chunks suitable for embedding.
type Chunker interface {
	Chunk(doc Document) ([]Chunk, error)
}

// Embedder maps text to fixed-dimension vectors via an external service.
// EmbedBatch is order-preserving: one vector per input, same order.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	Model() string
}

// Store is a client to an external nearest-neighbor index.
type Store interface {
	// EnsureIndex verifies the configured index exists with the expected
	// dimension and metric. It never creates one; index creation is a
	// manual operator action.
	EnsureIndex(ctx context.Context) error
	// Upsert writes records, overwriting prior records with the same ID,
	// and returns the number written.
	Upsert(ctx context.Context, records []Record) (int, error)
	// Query returns up to topK matches ordered by descending score.
	// topK must be at least 1; implementations reject smaller values.
	Query(ctx context.Context, vector []float32, topK int) ([]Match, error)
	// Count reports the number of vectors currently in the index.
	Count(ctx context.Context) (int, error)
}

// Loader reads one source file into documents.
type Loader interface {
	Load(path string) ([]Document, error)
}
