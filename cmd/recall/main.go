package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"recall/internal/assistant"
	"recall/internal/config"
	embopenai "recall/internal/embedding/openai"
	"recall/internal/retriever"
	"recall/internal/tui"
	"recall/internal/vectorstore/pinecone"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/recall/config.yaml if not provided)")
	flag.Parse()

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

	// The retriever is built once here and handed to the session; a
	// missing configuration yields the Unconfigured variant so the
	// conversation still works.
	var rtr retriever.Retriever
	if reason := cfg.RetrievalDisabledReason(); reason != "" {
		logger.Warn("knowledge base retrieval disabled", "reason", reason)
		rtr = retriever.Unconfigured{Reason: reason}
	} else {
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
		rtr = retriever.NewConfigured(emb, store, logger)
	}

	session, err := assistant.NewSession(assistant.SessionConfig{
		APIKeyEnv: cfg.Assistant.APIKeyEnv,
		Model:     cfg.Assistant.ChatModel,
	}, []assistant.Tool{
		assistant.NewSearchTool(rtr, cfg.Retrieval.TopK, logger),
		assistant.ClockTool{},
	}, logger)
	if err != nil {
		logger.Error("session init failed", "error", err)
		os.Exit(1)
	}

	m := tui.New(session)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		logger.Error("tui failed", "error", err)
		os.Exit(1)
	}
	logger.Info("session ended")
}
