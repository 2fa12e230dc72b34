// Package knowledge holds the in-memory knowledge snapshot and the sources
// it can be loaded from (JSON file or URL, SQLite, Qdrant).
package knowledge

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/0xcro3dile/kbchat/internal/domain/entities"
	"github.com/0xcro3dile/kbchat/internal/domain/ports"
)

type snapshot struct {
	chunks []entities.Chunk
}

// Store holds a read-only snapshot of the knowledge base. Readers never
// block; a reload swaps in a fresh snapshot and in-flight readers keep the
// one they already took.
type Store struct {
	current atomic.Pointer[snapshot]
}

// NewStore creates an empty store. Chunks returns an empty slice until the
// first successful Load or Replace.
func NewStore() *Store {
	return &Store{}
}

// Chunks returns the current snapshot in knowledge-base order.
// The returned slice must not be modified.
func (s *Store) Chunks() []entities.Chunk {
	snap := s.current.Load()
	if snap == nil {
		return []entities.Chunk{}
	}
	return snap.chunks
}

// Len returns the number of chunks in the current snapshot.
func (s *Store) Len() int {
	return len(s.Chunks())
}

// Loaded reports whether any snapshot has been installed.
func (s *Store) Loaded() bool {
	return s.current.Load() != nil
}

// Replace installs chunks as the new snapshot. The slice is copied.
func (s *Store) Replace(chunks []entities.Chunk) {
	owned := make([]entities.Chunk, len(chunks))
	copy(owned, chunks)
	s.current.Store(&snapshot{chunks: owned})
}

// Load reads the whole knowledge base from src and installs it. On error the
// previous snapshot stays in place.
func (s *Store) Load(ctx context.Context, src ports.KnowledgeSource) error {
	chunks, err := src.Load(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", entities.ErrKnowledgeUnavailable, err)
	}
	s.Replace(chunks)
	return nil
}

var _ ports.ChunkReader = (*Store)(nil)
