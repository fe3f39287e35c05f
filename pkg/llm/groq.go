package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// GroqClient talks to Groq's OpenAI-compatible chat completion endpoint.
type GroqClient struct {
	client *openai.Client
	model  string
}

func NewGroqClient(apiKey, model, baseURL string) *GroqClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = "llama-3.3-70b-versatile"
	}
	return &GroqClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (c *GroqClient) CompleteJSON(ctx context.Context, req Request) (string, error) {
	var messages []openai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.User,
	})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", fmt.Errorf("groq: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("groq: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
