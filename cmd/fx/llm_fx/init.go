package llm_fx

import (
	"go.uber.org/fx"

	"tripweaver/config"
	"tripweaver/pkg/llm"
)

var Module = fx.Provide(
	ProvideChatClient,
)

func ProvideChatClient(cfg config.Config) (llm.ChatClientInterface, error) {
	switch cfg.LLMProvider {
	case "gemini":
		return llm.NewChatClient("gemini", cfg.GeminiAPIKey, cfg.GeminiModel, "")
	default:
		return llm.NewChatClient("groq", cfg.GroqAPIKey, cfg.GroqModel, cfg.GroqBaseURL)
	}
}
