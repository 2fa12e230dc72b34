// Package http serves the chat page and JSON API over echo.
package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/0xcro3dile/kbchat/internal/domain/entities"
	"github.com/0xcro3dile/kbchat/internal/domain/usecases"
)

// KnowledgeStatus reports the state of the knowledge snapshot.
type KnowledgeStatus interface {
	Len() int
	Loaded() bool
}

// Config holds HTTP server settings.
type Config struct {
	Addr           string
	RateLimit      float64 // requests per second per client IP, 0 disables
	AllowedOrigins []string
	TopN           int // chunks for /api/retrieve without n
}

// Server is the HTTP server for the chat UI and API.
type Server struct {
	echo      *echo.Echo
	session   *usecases.ChatSession
	retriever *usecases.Retriever
	knowledge KnowledgeStatus
	config    Config
	logger    *slog.Logger
}

// NewServer creates a new HTTP server and registers its routes.
func NewServer(
	session *usecases.ChatSession,
	retriever *usecases.Retriever,
	knowledge KnowledgeStatus,
	cfg Config,
	logger *slog.Logger,
) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		echo:      echo.New(),
		session:   session,
		retriever: retriever,
		knowledge: knowledge,
		config:    cfg,
		logger:    logger,
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.routes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) routes() {
	e := s.echo

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Debug("HTTP request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"duration", v.Latency,
			)
			return nil
		},
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.config.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	api := e.Group("/api")
	if s.config.RateLimit > 0 {
		api.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Skipper: func(c echo.Context) bool { return c.Path() == "/api/health" },
			Store:   middleware.NewRateLimiterMemoryStore(rate.Limit(s.config.RateLimit)),
			DenyHandler: func(c echo.Context, identifier string, err error) error {
				return c.JSON(http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
			},
		}))
	}

	e.GET("/", s.handleIndex)
	api.POST("/chat", s.handleChat)
	api.GET("/transcript", s.handleTranscript)
	api.GET("/retrieve", s.handleRetrieve)
	api.GET("/health", s.handleHealth)
}

// Start runs the server until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("kbchat server starting", "addr", s.config.Addr)
		errCh <- s.echo.Start(s.config.Addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Stopping kbchat server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

type chatRequest struct {
	Query string `json:"query" form:"query"`
}

type sourceRef struct {
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

type chatResponse struct {
	Answer  string      `json:"answer"`
	Sources []sourceRef `json:"sources"`
}

type retrievedChunk struct {
	Source string  `json:"source"`
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
}

type healthResponse struct {
	Status          string `json:"status"`
	Chunks          int    `json:"chunks"`
	KnowledgeLoaded bool   `json:"knowledge_loaded"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleChat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	result, err := s.session.Submit(c.Request().Context(), req.Query)
	if err != nil {
		return c.JSON(statusFor(err), errorResponse{Error: err.Error()})
	}

	sources := make([]sourceRef, len(result.Sources))
	for i, sc := range result.Sources {
		sources[i] = sourceRef{Source: sc.Source, Score: sc.Score}
	}
	return c.JSON(http.StatusOK, chatResponse{Answer: result.Answer, Sources: sources})
}

func (s *Server) handleTranscript(c echo.Context) error {
	return c.JSON(http.StatusOK, s.session.Transcript().Entries())
}

func (s *Server) handleRetrieve(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: entities.ErrEmptyQuery.Error()})
	}

	n := s.config.TopN
	if raw := c.QueryParam("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "n must be a non-negative integer"})
		}
		n = parsed
	}

	top, err := s.retriever.Retrieve(c.Request().Context(), query, n)
	if err != nil {
		return c.JSON(statusFor(err), errorResponse{Error: err.Error()})
	}

	out := make([]retrievedChunk, len(top))
	for i, sc := range top {
		out[i] = retrievedChunk{Source: sc.Source, Text: sc.Text, Score: sc.Score}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{
		Status:          "ok",
		Chunks:          s.knowledge.Len(),
		KnowledgeLoaded: s.knowledge.Loaded(),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, entities.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case errors.Is(err, entities.ErrGeneration):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
