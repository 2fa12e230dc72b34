// Package usecases contains application business rules.
// Usecases orchestrate entities through port interfaces and hold no
// framework or transport code.
package usecases

import (
	"context"
	"fmt"
	"sort"

	"github.com/0xcro3dile/kbchat/internal/domain/entities"
	"github.com/0xcro3dile/kbchat/internal/domain/ports"
	"github.com/0xcro3dile/kbchat/internal/domain/similarity"
)

// DefaultTopN is the number of chunks retrieved when the caller does not ask
// for a specific count.
const DefaultTopN = 4

// Retriever ranks knowledge chunks against a query.
type Retriever struct {
	embedder ports.Embedder
	store    ports.ChunkReader
}

// NewRetriever creates a Retriever over the given knowledge snapshot reader.
func NewRetriever(embedder ports.Embedder, store ports.ChunkReader) *Retriever {
	return &Retriever{
		embedder: embedder,
		store:    store,
	}
}

// Retrieve embeds the query, scores every chunk and returns the n best,
// highest score first. n <= 0 means DefaultTopN. Equal scores keep
// knowledge-base order.
func (r *Retriever) Retrieve(ctx context.Context, query string, n int) ([]entities.ScoredChunk, error) {
	if n <= 0 {
		n = DefaultTopN
	}

	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	chunks := r.store.Chunks()
	scored := make([]entities.ScoredChunk, 0, len(chunks))
	for _, chunk := range chunks {
		if len(chunk.Embedding) != len(queryVec) {
			return nil, fmt.Errorf("chunk %q has %d dimensions, query has %d: %w",
				chunk.Source, len(chunk.Embedding), len(queryVec), entities.ErrDimensionMismatch)
		}
		scored = append(scored, entities.ScoredChunk{
			Chunk: chunk,
			Score: similarity.Cosine(queryVec, chunk.Embedding),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > n {
		scored = scored[:n]
	}
	return scored, nil
}
