// Package ports defines interfaces for external dependencies.
// Usecases depend on these abstractions; adapters implement them.
package ports

import (
	"context"

	"github.com/0xcro3dile/kbchat/internal/domain/entities"
)

// Embedder turns text into a fixed-length vector.
// Implementations must be deterministic for a given input.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Generator delegates a prompt to an external chat-completion model.
type Generator interface {
	Generate(ctx context.Context, req entities.GenerationRequest) (*entities.GenerationResponse, error)
}

// KnowledgeSource reads the full knowledge base. It is called once at
// startup and again only on explicit reload.
type KnowledgeSource interface {
	Load(ctx context.Context) ([]entities.Chunk, error)
}

// ChunkReader exposes the current knowledge snapshot to the retriever.
type ChunkReader interface {
	Chunks() []entities.Chunk
}

// FileWatcher monitors a directory for changes.
type FileWatcher interface {
	// Watch starts monitoring the directory and emits events.
	Watch(ctx context.Context, dir string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)
