// Package app wires configuration into a ready-to-use chat session.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/0xcro3dile/kbchat/internal/adapters/embedding"
	"github.com/0xcro3dile/kbchat/internal/adapters/filewatcher"
	"github.com/0xcro3dile/kbchat/internal/adapters/knowledge"
	"github.com/0xcro3dile/kbchat/internal/adapters/llm"
	"github.com/0xcro3dile/kbchat/internal/config"
	"github.com/0xcro3dile/kbchat/internal/domain/entities"
	"github.com/0xcro3dile/kbchat/internal/domain/ports"
	"github.com/0xcro3dile/kbchat/internal/domain/usecases"
	"github.com/0xcro3dile/kbchat/internal/observability"
)

// App holds the wired components.
type App struct {
	Store     *knowledge.Store
	Retriever *usecases.Retriever
	Responder *usecases.Responder
	Session   *usecases.ChatSession
	Source    ports.KnowledgeSource

	cfg    *config.Config
	logger *slog.Logger

	mu      sync.Mutex
	closers []func() error
}

// New builds the application. A knowledge base that cannot be loaded is
// logged and the app starts with an empty store.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{
		Store:  knowledge.NewStore(),
		cfg:    cfg,
		logger: logger,
	}

	embedder, err := NewEmbedder(cfg.Embedding)
	if err != nil {
		return nil, err
	}
	generator, err := NewGenerator(cfg.LLM)
	if err != nil {
		return nil, err
	}

	a.Retriever = usecases.NewRetriever(
		observability.TraceEmbedder(embedder, cfg.Embedding.Provider), a.Store)
	a.Responder = usecases.NewResponder(
		observability.TraceGenerator(generator, cfg.LLM.Provider, cfg.LLM.Model), cfg.Prompt.System)
	a.Session = usecases.NewChatSession(a.Retriever, a.Responder, entities.NewTranscript(), cfg.Retrieval.TopN, logger)

	src, closeFn, err := NewSource(cfg.Knowledge)
	if err != nil {
		logger.Warn("Failed to initialize knowledge source", "type", cfg.Knowledge.Type, "error", err)
		return a, nil
	}
	a.Source = src
	if closeFn != nil {
		a.addCloser(closeFn)
	}

	if err := a.Store.Load(ctx, src); err != nil {
		logger.Warn("Failed to load knowledge base", "type", cfg.Knowledge.Type, "path", cfg.Knowledge.Path, "error", err)
	} else {
		logger.Info("Knowledge base loaded", "type", cfg.Knowledge.Type, "chunks", a.Store.Len())
	}
	return a, nil
}

// NewEmbedder selects the query embedder.
func NewEmbedder(cfg config.EmbeddingConfig) (ports.Embedder, error) {
	switch cfg.Provider {
	case "", "sine":
		return embedding.NewSineEmbedder(cfg.Dimensions), nil
	case "ollama":
		return embedding.NewOllamaAdapter(cfg.BaseURL, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

// NewGenerator selects the chat-completion backend.
func NewGenerator(cfg config.LLMConfig) (ports.Generator, error) {
	switch cfg.Provider {
	case "", "openai":
		return llm.NewOpenAIGenerator(llm.OpenAIConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		}), nil
	case "ollama":
		return llm.NewOllamaGenerator(cfg.BaseURL, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// NewSource opens the configured knowledge source. The returned close
// function may be nil.
func NewSource(cfg config.KnowledgeConfig) (ports.KnowledgeSource, func() error, error) {
	switch cfg.Type {
	case "", "json":
		return knowledge.NewJSONSource(cfg.Path), nil, nil
	case "sqlite":
		src, err := knowledge.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return src, src.Close, nil
	case "qdrant":
		src, err := knowledge.DialQdrant(cfg.QdrantAddr, cfg.Collection)
		if err != nil {
			return nil, nil, err
		}
		return src, src.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown knowledge type %q", cfg.Type)
	}
}

// WatchKnowledge hot-reloads a local JSON knowledge file until ctx is done.
// It returns immediately when watching is disabled or not applicable. Watch
// failures are logged and leave the current snapshot in place.
func (a *App) WatchKnowledge(ctx context.Context) error {
	if !a.cfg.Knowledge.Watch {
		return nil
	}
	src, ok := a.Source.(*knowledge.JSONSource)
	if !ok || src.IsRemote() {
		a.logger.Warn("Knowledge watch requires a local JSON file, not watching")
		return nil
	}

	if err := a.watch(ctx, src); err != nil {
		a.logger.Warn("Knowledge watch stopped, serving current snapshot", "path", src.Location(), "error", err)
	}
	return nil
}

func (a *App) watch(ctx context.Context, src *knowledge.JSONSource) error {
	watcher, err := filewatcher.NewFSNotifyWatcher([]string{".json"}, a.logger)
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	a.addCloser(watcher.Stop)

	a.logger.Info("Watching knowledge file", "path", src.Location())
	return knowledge.NewReloader(a.Store, src, watcher, src.Location(), a.logger).Run(ctx)
}

func (a *App) addCloser(fn func() error) {
	a.mu.Lock()
	a.closers = append(a.closers, fn)
	a.mu.Unlock()
}

// Close releases sources and watchers.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
