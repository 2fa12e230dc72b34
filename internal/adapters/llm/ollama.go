// Package llm provides Generator adapters for chat-completion models.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/0xcro3dile/kbchat/internal/domain/entities"
)

// OllamaGenerator implements ports.Generator using Ollama's chat API.
type OllamaGenerator struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaGenerator creates a new Ollama generator.
func NewOllamaGenerator(baseURL, model string) *OllamaGenerator {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3.2"
	}
	return &OllamaGenerator{
		baseURL: baseURL,
		model:   model,
		client: &http.Client{
			Timeout: 300 * time.Second,
		},
	}
}

// ollamaChatRequest is the Ollama /api/chat request.
type ollamaChatRequest struct {
	Model    string                 `json:"model"`
	Messages []entities.ChatMessage `json:"messages"`
	Stream   bool                   `json:"stream"`
}

// ollamaChatResponse is the non-streaming Ollama /api/chat response.
type ollamaChatResponse struct {
	Message entities.ChatMessage `json:"message"`
	Done    bool                 `json:"done"`
	Error   string               `json:"error,omitempty"`
}

// Generate sends the messages and maps the reply to a single choice.
func (g *OllamaGenerator) Generate(ctx context.Context, req entities.GenerationRequest) (*entities.GenerationResponse, error) {
	jsonData, err := json.Marshal(ollamaChatRequest{
		Model:    g.model,
		Messages: req.Messages,
		Stream:   req.Stream,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/chat", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling Ollama: %w", err)
	}
	defer resp.Body.Close()

	var chatResp ollamaChatResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&chatResp)

	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && chatResp.Error != "" {
			return nil, fmt.Errorf("Ollama returned status %d: %s", resp.StatusCode, chatResp.Error)
		}
		return nil, fmt.Errorf("Ollama returned status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decoding response: %w", decodeErr)
	}

	return &entities.GenerationResponse{
		Choices: []entities.Choice{{Message: chatResp.Message}},
	}, nil
}

// Model returns the configured model name.
func (g *OllamaGenerator) Model() string { return g.model }
