package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/kbchat/internal/domain/entities"
)

func userRequest(prompt string) entities.GenerationRequest {
	return entities.GenerationRequest{
		Messages: []entities.ChatMessage{{Role: entities.RoleUser, Content: prompt}},
	}
}

func TestOllamaGenerator_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)

		var req ollamaChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.False(t, req.Stream)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, entities.RoleUser, req.Messages[0].Role)
		assert.Equal(t, "Hi", req.Messages[0].Content)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"message": map[string]string{"role": "assistant", "content": "Hello there!"},
			"done":    true,
		})
	}))
	defer server.Close()

	gen := NewOllamaGenerator(server.URL, "test-model")
	resp, err := gen.Generate(context.Background(), userRequest("Hi"))
	require.NoError(t, err)

	answer, err := resp.Answer()
	require.NoError(t, err)
	assert.Equal(t, "Hello there!", answer)
}

func TestOllamaGenerator_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"model 'x' not found"}`))
	}))
	defer server.Close()

	_, err := NewOllamaGenerator(server.URL, "x").Generate(context.Background(), userRequest("test"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestOllamaGenerator_CancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewOllamaGenerator(server.URL, "x").Generate(ctx, userRequest("test"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOllamaGenerator_DefaultValues(t *testing.T) {
	gen := NewOllamaGenerator("", "")
	assert.Equal(t, "http://localhost:11434", gen.baseURL)
	assert.Equal(t, "llama3.2", gen.Model())
}
