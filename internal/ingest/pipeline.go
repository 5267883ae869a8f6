package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"recall/internal/domain"
	"recall/internal/loader"
)

// Pipeline drives load -> chunk -> embed -> upsert for a batch of source
// files treated as one logical corpus.
type Pipeline struct {
	chunker   domain.Chunker
	embedder  domain.Embedder
	store     domain.Store
	batchSize int
	log       *slog.Logger
}

// Report carries the per-stage counts of one ingestion run.
type Report struct {
	Documents int
	Chunks    int
	Vectors   int
}

// NewPipeline assembles a pipeline from its collaborators.
func NewPipeline(chunker domain.Chunker, embedder domain.Embedder, store domain.Store, batchSize int, log *slog.Logger) *Pipeline {
	if batchSize <= 0 {
		batchSize = 64
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{chunker: chunker, embedder: embedder, store: store, batchSize: batchSize, log: log}
}

// Ingest processes the given files into the vector index. Any unsupported
// extension, unreadable file or index misconfiguration aborts the whole
// batch before a single vector is written; a half-ingested corpus is worse
// than a failed run. Embedding happens in fixed-size batches, each
// upserted before the next to bound memory.
func (p *Pipeline) Ingest(ctx context.Context, paths []string) (Report, error) {
	var report Report
	if len(paths) == 0 {
		return report, fmt.Errorf("no input files given")
	}

	// Reject unsupported extensions up front so nothing is written.
	loaders := make([]domain.Loader, len(paths))
	for i, path := range paths {
		ld, err := loader.ForPath(path)
		if err != nil {
			p.log.Error("unsupported input", "path", path, "error", err)
			return report, err
		}
		loaders[i] = ld
	}

	if err := p.store.EnsureIndex(ctx); err != nil {
		return report, err
	}

	// Load and chunk everything before touching the index.
	var chunks []domain.Chunk
	for i, path := range paths {
		docs, err := loaders[i].Load(path)
		if err != nil {
			p.log.Error("load failed", "path", path, "error", err)
			return report, err
		}
		report.Documents += len(docs)
		before := len(chunks)
		for _, doc := range docs {
			cs, err := p.chunker.Chunk(doc)
			if err != nil {
				return report, err
			}
			chunks = append(chunks, cs...)
		}
		p.log.Info("loaded", "path", path, "documents", len(docs), "chunks", len(chunks)-before)
	}
	report.Chunks = len(chunks)

	for start := 0; start < len(chunks); start += p.batchSize {
		end := start + p.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]
		texts := make([]string, len(batch))
		for i, ch := range batch {
			texts[i] = ch.Text
		}
		vectors, err := p.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			p.log.Error("embedding failed", "batch_start", start, "error", err)
			return report, err
		}
		records := make([]domain.Record, len(batch))
		for i, ch := range batch {
			records[i] = domain.Record{
				ID:     recordID(ch),
				Values: vectors[i],
				Metadata: map[string]any{
					"text":    ch.Text,
					"source":  ch.Source,
					"section": ch.Section,
					"chunk":   ch.Index,
				},
			}
		}
		n, err := p.store.Upsert(ctx, records)
		if err != nil {
			p.log.Error("upsert failed", "batch_start", start, "error", err)
			return report, err
		}
		report.Vectors += n
	}

	summary := []any{
		"documents", report.Documents,
		"chunks", report.Chunks,
		"vectors_written", report.Vectors,
	}
	if total, err := p.store.Count(ctx); err == nil {
		summary = append(summary, "index_total", total)
	} else {
		p.log.Warn("index stats unavailable", "error", err)
	}
	p.log.Info("ingestion complete", summary...)
	return report, nil
}

// recordID derives a deterministic UUID from the chunk's position in its
// source, so re-ingesting the same document overwrites rather than
// duplicates.
func recordID(ch domain.Chunk) string {
	name := fmt.Sprintf("%s#%d:%d", ch.Source, ch.Section, ch.Index)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}
