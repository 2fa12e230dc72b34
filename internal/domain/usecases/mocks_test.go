package usecases

import (
	"context"
	"errors"
	"sync"

	"github.com/0xcro3dile/kbchat/internal/domain/entities"
)

// fixedEmbedder returns the same vector for every text.
type fixedEmbedder struct {
	vec []float64
	err error
}

func (e *fixedEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.vec, nil
}

// sliceStore implements ports.ChunkReader over a fixed slice.
type sliceStore []entities.Chunk

func (s sliceStore) Chunks() []entities.Chunk { return s }

// mockGenerator records requests and answers with a canned response.
type mockGenerator struct {
	mu       sync.Mutex
	answer   string
	err      error
	requests []entities.GenerationRequest
}

func (g *mockGenerator) Generate(ctx context.Context, req entities.GenerationRequest) (*entities.GenerationResponse, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	g.mu.Unlock()

	if g.err != nil {
		return nil, g.err
	}
	return &entities.GenerationResponse{
		Choices: []entities.Choice{
			{Message: entities.ChatMessage{Role: entities.RoleAssistant, Content: g.answer}},
		},
	}, nil
}

var errModelRejected = errors.New("model rejected the request")

func twoChunkStore() sliceStore {
	return sliceStore{
		{Source: "A", Text: "alpha", Embedding: []float64{1, 0}},
		{Source: "B", Text: "beta", Embedding: []float64{0, 1}},
	}
}
