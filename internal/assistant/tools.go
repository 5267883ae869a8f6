package assistant

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"recall/internal/retriever"
)

// SearchTool exposes a Retriever to the model as search_knowledge_base.
type SearchTool struct {
	retriever retriever.Retriever
	topK      int
	log       *slog.Logger
}

// NewSearchTool wires a retriever variant into the tool surface.
func NewSearchTool(r retriever.Retriever, topK int, log *slog.Logger) *SearchTool {
	if topK < 1 {
		topK = 3
	}
	if log == nil {
		log = slog.Default()
	}
	return &SearchTool{retriever: r, topK: topK, log: log}
}

func (t *SearchTool) Name() string { return "search_knowledge_base" }

func (t *SearchTool) Description() string {
	return "Search the knowledge base for relevant information to answer user questions."
}

func (t *SearchTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The search query to find relevant information",
			},
		},
		"required": []string{"query"},
	}
}

// Call runs the retrieval. Failures degrade to a spoken-friendly message
// instead of an error so the conversation keeps going.
func (t *SearchTool) Call(ctx context.Context, args json.RawMessage) (string, error) {
	var in struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", err
	}
	t.log.Info("tool called", "tool", t.Name(), "query", in.Query)
	result, err := t.retriever.Retrieve(ctx, in.Query, t.topK)
	if err != nil {
		t.log.Error("retrieval failed", "query", in.Query, "error", err)
		return "Error retrieving information.", nil
	}
	return result, nil
}

// ClockTool reports the current date and time.
type ClockTool struct {
	Now func() time.Time
}

func (t ClockTool) Name() string { return "current_datetime" }

func (t ClockTool) Description() string { return "Get the current date and time." }

func (t ClockTool) Parameters() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

func (t ClockTool) Call(ctx context.Context, args json.RawMessage) (string, error) {
	now := time.Now
	if t.Now != nil {
		now = t.Now
	}
	return "The current date and time is " + now().Format("January 2, 2006 at 3:04 PM"), nil
}
