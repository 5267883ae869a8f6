package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"recall/internal/domain"
)

const systemInstructions = `You are a personalized interview assistant, an interactive extension of the candidate's own knowledge base of experiences, skills and projects.

You have access to a search_knowledge_base tool. Whenever the user asks about their projects, work experience, technologies they used, problem-solving approaches or anything from their background, call search_knowledge_base with their question before answering. Do not answer such questions from general knowledge.

Keep responses conversational and concise, as if the candidate were thinking out loud. When searching, say something like "Let me recall..." and ground the answer in the search results. If the search returns no information, acknowledge that honestly.`

// maxToolRounds bounds the model's tool-call loop within a single turn.
const maxToolRounds = 8

// Session drives a tool-calling conversation with the chat model. It is
// the in-process stand-in for a voice orchestrator: speech capture and
// synthesis live outside this program, the turn loop lives here.
type Session struct {
	api      *openai.Client
	model    string
	tools    map[string]Tool
	toolDefs []openai.Tool
	messages []openai.ChatCompletionMessage
	log      *slog.Logger
}

// SessionConfig configures the chat session.
type SessionConfig struct {
	APIKeyEnv string
	BaseURL   string
	Model     string
}

// NewSession validates credentials at construction and seeds the system
// instructions.
func NewSession(cfg SessionConfig, tools []Tool, log *slog.Logger) (*Session, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, &domain.ConfigurationError{Field: cfg.APIKeyEnv, Reason: "environment variable not set"}
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4.1-mini"
	}
	if log == nil {
		log = slog.Default()
	}
	apiCfg := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	s := &Session{
		api:   openai.NewClientWithConfig(apiCfg),
		model: cfg.Model,
		tools: make(map[string]Tool, len(tools)),
		log:   log,
		messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemInstructions},
		},
	}
	for _, t := range tools {
		s.tools[t.Name()] = t
		s.toolDefs = append(s.toolDefs, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return s, nil
}

// Greet produces the opening assistant turn.
func (s *Session) Greet(ctx context.Context) (string, error) {
	s.messages = append(s.messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: "Greet the user warmly as their interview assistant. Mention that you can help with interview prep, recall their experiences, or run a mock interview.",
	})
	return s.complete(ctx)
}

// Ask sends a user message and runs the completion loop, executing tool
// calls until the model produces a final text reply.
func (s *Session) Ask(ctx context.Context, userText string) (string, error) {
	s.messages = append(s.messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userText,
	})
	return s.complete(ctx)
}

func (s *Session) complete(ctx context.Context) (string, error) {
	for round := 0; round < maxToolRounds; round++ {
		resp, err := s.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:    s.model,
			Messages: s.messages,
			Tools:    s.toolDefs,
		})
		if err != nil {
			return "", fmt.Errorf("chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("chat completion: empty response")
		}
		msg := resp.Choices[0].Message
		s.messages = append(s.messages, msg)
		if len(msg.ToolCalls) == 0 {
			return msg.Content, nil
		}
		for _, tc := range msg.ToolCalls {
			s.messages = append(s.messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    s.runTool(ctx, tc),
				ToolCallID: tc.ID,
			})
		}
	}
	return "", fmt.Errorf("tool-call loop exceeded %d rounds", maxToolRounds)
}

func (s *Session) runTool(ctx context.Context, tc openai.ToolCall) string {
	tool, ok := s.tools[tc.Function.Name]
	if !ok {
		s.log.Warn("model requested unknown tool", "tool", tc.Function.Name)
		return fmt.Sprintf("unknown tool %q", tc.Function.Name)
	}
	out, err := tool.Call(ctx, json.RawMessage(tc.Function.Arguments))
	if err != nil {
		s.log.Error("tool failed", "tool", tc.Function.Name, "error", err)
		return fmt.Sprintf("tool %s failed: %v", tc.Function.Name, err)
	}
	return out
}
