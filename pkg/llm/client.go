package llm

import (
	"context"
	"fmt"
	"strings"
)

// Request is a single JSON-mode chat completion.
type Request struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int
}

// ChatClientInterface is the one surface the pipeline uses to talk to a
// model. Every call requests strict JSON output; callers still run the
// response through CleanJSONResponse before parsing.
type ChatClientInterface interface {
	CompleteJSON(ctx context.Context, req Request) (string, error)
}

// NewChatClient creates either a Groq or Gemini client based on config.
func NewChatClient(provider, apiKey, model, baseURL string) (ChatClientInterface, error) {
	switch strings.ToLower(provider) {
	case "groq":
		return NewGroqClient(apiKey, model, baseURL), nil
	case "gemini":
		return NewGeminiClient(apiKey, model)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
}
