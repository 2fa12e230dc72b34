package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/0xcro3dile/kbchat/internal/domain/entities"
)

// Default configuration values.
const (
	DefaultOpenAIModel   = "gpt-4o-mini"
	DefaultOpenAITimeout = 120 * time.Second
)

// OpenAIConfig holds configuration for any OpenAI-compatible endpoint
// (OpenAI, Groq, a local MLC/llama.cpp server, ...).
type OpenAIConfig struct {
	APIKey  string
	BaseURL string // empty means the SDK default
	Model   string
	Timeout time.Duration
}

// OpenAIGenerator implements ports.Generator with the official OpenAI SDK.
type OpenAIGenerator struct {
	client openai.Client
	model  string
}

// NewOpenAIGenerator creates a generator. The SDK's own retries are disabled.
func NewOpenAIGenerator(cfg OpenAIConfig) *OpenAIGenerator {
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultOpenAITimeout
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIGenerator{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
	}
}

// Generate requests a single non-streaming chat completion.
func (g *OpenAIGenerator) Generate(ctx context.Context, req entities.GenerationRequest) (*entities.GenerationResponse, error) {
	if req.Stream {
		return nil, fmt.Errorf("openai: streaming responses are not supported")
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case entities.RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Content))
		case entities.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	completion, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(g.model),
		Messages: messages,
	})
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}

	resp := &entities.GenerationResponse{
		Choices: make([]entities.Choice, len(completion.Choices)),
	}
	for i, c := range completion.Choices {
		resp.Choices[i] = entities.Choice{
			Message: entities.ChatMessage{Role: entities.RoleAssistant, Content: c.Message.Content},
		}
	}
	return resp, nil
}

// Model returns the configured model name.
func (g *OpenAIGenerator) Model() string { return g.model }
