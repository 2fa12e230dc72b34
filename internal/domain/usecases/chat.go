package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/0xcro3dile/kbchat/internal/domain/entities"
)

// ChatSession drives one transcript: it records the question, shows a
// placeholder, retrieves context and appends the answer.
type ChatSession struct {
	retriever  *Retriever
	responder  *Responder
	transcript *entities.Transcript
	topN       int
	logger     *slog.Logger
}

// NewChatSession wires a session. topN <= 0 means DefaultTopN.
func NewChatSession(
	retriever *Retriever,
	responder *Responder,
	transcript *entities.Transcript,
	topN int,
	logger *slog.Logger,
) *ChatSession {
	if topN <= 0 {
		topN = DefaultTopN
	}
	if transcript == nil {
		transcript = entities.NewTranscript()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatSession{
		retriever:  retriever,
		responder:  responder,
		transcript: transcript,
		topN:       topN,
		logger:     logger,
	}
}

// Transcript returns the session transcript.
func (s *ChatSession) Transcript() *entities.Transcript {
	return s.transcript
}

// Submit handles one user question.
//
// On failure the placeholder stays as the last transcript entry and no error
// entry is appended; the error is logged and returned to the caller.
func (s *ChatSession) Submit(ctx context.Context, text string) (*entities.ChatResult, error) {
	query := strings.TrimSpace(text)
	if query == "" {
		return nil, entities.ErrEmptyQuery
	}

	s.transcript.Append(entities.AuthorUser, query)
	s.transcript.Append(entities.AuthorSystem, entities.ThinkingPlaceholder)

	top, err := s.retriever.Retrieve(ctx, query, s.topN)
	if err != nil {
		s.logger.Warn("Failed to retrieve context", "error", err)
		return nil, fmt.Errorf("retrieving context: %w", err)
	}

	answer, err := s.responder.Respond(ctx, query, top)
	if err != nil {
		s.logger.Warn("Failed to send message", "error", err)
		return nil, err
	}

	s.transcript.Append(entities.AuthorSystem, answer)

	return &entities.ChatResult{
		Query:   query,
		Answer:  answer,
		Sources: top,
	}, nil
}
