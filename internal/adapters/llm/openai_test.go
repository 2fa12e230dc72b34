package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const completionJSON = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"created": 1700000000,
	"model": "test-model",
	"choices": [
		{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "Use the export button."}}
	]
}`

func TestOpenAIGenerator_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-model", body["model"])
		if stream, ok := body["stream"]; ok {
			assert.Equal(t, false, stream)
		}
		msgs, ok := body["messages"].([]any)
		require.True(t, ok)
		require.Len(t, msgs, 1)
		msg := msgs[0].(map[string]any)
		assert.Equal(t, "user", msg["role"])
		assert.Equal(t, "how do I export?", msg["content"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionJSON))
	}))
	defer server.Close()

	gen := NewOpenAIGenerator(OpenAIConfig{APIKey: "sk-test", BaseURL: server.URL + "/v1/", Model: "test-model"})
	resp, err := gen.Generate(context.Background(), userRequest("how do I export?"))
	require.NoError(t, err)

	answer, err := resp.Answer()
	require.NoError(t, err)
	assert.Equal(t, "Use the export button.", answer)
}

func TestOpenAIGenerator_ServerErrorNotRetried(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	defer server.Close()

	gen := NewOpenAIGenerator(OpenAIConfig{APIKey: "k", BaseURL: server.URL + "/v1/"})
	_, err := gen.Generate(context.Background(), userRequest("x"))

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestOpenAIGenerator_RejectsStreaming(t *testing.T) {
	gen := NewOpenAIGenerator(OpenAIConfig{APIKey: "k"})
	req := userRequest("x")
	req.Stream = true

	_, err := gen.Generate(context.Background(), req)
	assert.Error(t, err)
}

func TestOpenAIGenerator_DefaultModel(t *testing.T) {
	gen := NewOpenAIGenerator(OpenAIConfig{})
	assert.Equal(t, DefaultOpenAIModel, gen.Model())
}
