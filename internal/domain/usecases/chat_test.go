package usecases

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/kbchat/internal/domain/entities"
)

func newTestSession(gen *mockGenerator, logs *bytes.Buffer) *ChatSession {
	logger := slog.New(slog.NewTextHandler(logs, nil))
	retriever := NewRetriever(&fixedEmbedder{vec: []float64{1, 0}}, twoChunkStore())
	return NewChatSession(retriever, NewResponder(gen, ""), entities.NewTranscript(), 1, logger)
}

func TestChatSession_AppendsAnswer(t *testing.T) {
	var logs bytes.Buffer
	s := newTestSession(&mockGenerator{answer: "alpha is A"}, &logs)

	result, err := s.Submit(context.Background(), "  what is alpha?  ")
	require.NoError(t, err)
	assert.Equal(t, "what is alpha?", result.Query)
	assert.Equal(t, "alpha is A", result.Answer)
	require.Len(t, result.Sources, 1)
	assert.Equal(t, "A", result.Sources[0].Source)

	entries := s.Transcript().Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, entities.AuthorUser, entries[0].Author)
	assert.Equal(t, "what is alpha?", entries[0].Text)
	assert.Equal(t, entities.ThinkingPlaceholder, entries[1].Text)
	assert.Equal(t, entities.AuthorSystem, entries[2].Author)
	assert.Equal(t, "alpha is A", entries[2].Text)
	assert.Empty(t, logs.String())
}

func TestChatSession_EmptySubmissionSuppressed(t *testing.T) {
	var logs bytes.Buffer
	gen := &mockGenerator{answer: "x"}
	s := newTestSession(gen, &logs)

	_, err := s.Submit(context.Background(), " \t\n")
	assert.ErrorIs(t, err, entities.ErrEmptyQuery)
	assert.Equal(t, 0, s.Transcript().Len())
	assert.Empty(t, gen.requests)
}

func TestChatSession_GenerationFailureLeavesPlaceholder(t *testing.T) {
	var logs bytes.Buffer
	s := newTestSession(&mockGenerator{err: errModelRejected}, &logs)

	_, err := s.Submit(context.Background(), "hello")
	assert.ErrorIs(t, err, entities.ErrGeneration)

	entries := s.Transcript().Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "hello", entries[0].Text)
	assert.Equal(t, entities.ThinkingPlaceholder, entries[1].Text)

	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), errModelRejected.Error())
}

func TestChatSession_RetrievalFailureLeavesPlaceholder(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	retriever := NewRetriever(&fixedEmbedder{err: errModelRejected}, twoChunkStore())
	s := NewChatSession(retriever, NewResponder(&mockGenerator{}, ""), nil, 0, logger)

	_, err := s.Submit(context.Background(), "hello")
	assert.ErrorIs(t, err, errModelRejected)
	assert.Equal(t, 2, s.Transcript().Len())
	assert.Contains(t, logs.String(), "level=WARN")
}
