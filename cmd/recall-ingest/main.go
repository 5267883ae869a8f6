package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"

	"recall/internal/chunker"
	"recall/internal/config"
	embopenai "recall/internal/embedding/openai"
	"recall/internal/ingest"
	"recall/internal/vectorstore/pinecone"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	var watch bool
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional)")
	flag.BoolVar(&watch, "watch", false, "Keep running and re-ingest files when they change")
	flag.Parse()
	paths := flag.Args()
	if len(paths) == 0 {
		fmt.Println("Usage: recall-ingest [--config=config.yaml] [--watch] file.pdf [file.docx ...]")
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	// Ingestion needs the full write path; missing configuration is fatal
	// here, unlike the conversational read path.
	if reason := cfg.RetrievalDisabledReason(); reason != "" {
		logger.Error("ingestion not configured", "reason", reason)
		os.Exit(1)
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			logger.Error("input file not found", "path", p)
			os.Exit(1)
		}
	}

	ch, err := chunker.NewRecursiveChunker(cfg.Chunker.Size, cfg.Chunker.Overlap, cfg.Chunker.Separators)
	if err != nil {
		logger.Error("chunker init failed", "error", err)
		os.Exit(1)
	}
	emb, err := embopenai.NewClient(embopenai.Config{
		BaseURL:   cfg.Embedder.BaseURL,
		APIKeyEnv: cfg.Embedder.APIKeyEnv,
		Model:     cfg.Embedder.Model,
		Dimension: cfg.Index.Dimension,
		Timeout:   time.Duration(cfg.Embedder.TimeoutSecs) * time.Second,
	})
	if err != nil {
		logger.Error("embedder init failed", "error", err)
		os.Exit(1)
	}
	store, err := pinecone.NewStore(pinecone.Config{
		APIKey:    os.Getenv(cfg.Index.APIKeyEnv),
		Index:     cfg.Index.Name,
		Dimension: cfg.Index.Dimension,
		Metric:    cfg.Index.Metric,
		Timeout:   time.Duration(cfg.Index.TimeoutSecs) * time.Second,
	})
	if err != nil {
		logger.Error("vector store init failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	pipe := ingest.NewPipeline(ch, emb, store, cfg.Embedder.BatchSize, logger)
	report, err := pipe.Ingest(ctx, paths)
	if err != nil {
		logger.Error("ingestion failed", "error", err)
		os.Exit(1)
	}
	fmt.Printf("Ingested %d documents: %d chunks, %d vectors written\n",
		report.Documents, report.Chunks, report.Vectors)

	if watch {
		if err := watchAndReingest(ctx, pipe, paths, logger); err != nil {
			logger.Error("watch failed", "error", err)
			os.Exit(1)
		}
	}
}

// watchAndReingest blocks, re-running ingestion for any watched file that
// changes. Deterministic record IDs make each re-run overwrite in place.
func watchAndReingest(ctx context.Context, pipe *ingest.Pipeline, paths []string, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	watched := make(map[string]string, len(paths)) // abs path -> given path
	dirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		watched[abs] = p
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for d := range dirs {
		if err := w.Add(d); err != nil {
			return err
		}
	}
	logger.Info("watching for changes", "files", len(watched))

	pending := make(map[string]struct{})
	var timerC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil {
				continue
			}
			if p, ok := watched[abs]; ok {
				pending[p] = struct{}{}
				// editors fire several events per save; settle first
				timerC = time.After(500 * time.Millisecond)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch error", "error", err)
		case <-timerC:
			timerC = nil
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			pending = make(map[string]struct{})
			report, err := pipe.Ingest(ctx, changed)
			if err != nil {
				logger.Error("re-ingestion failed", "files", changed, "error", err)
				continue
			}
			logger.Info("re-ingested", "files", changed, "vectors_written", report.Vectors)
		}
	}
}
