package devserver

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/layer-3/recipebook/adapters/tokenizer"
	"github.com/layer-3/recipebook/config"
	"github.com/layer-3/recipebook/ports"
)

const shutdownTimeout = 10 * time.Second

// Server is the reference REST backend
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	auth       *AuthService
	repo       *Repository
	logger     *slog.Logger
}

// New wires the backend. tokens holds invalidated refresh IDs; eventPub may be nil.
func New(cfg config.Config, tokens ports.TokenStore, eventPub ports.EventPublisher, logger *slog.Logger) (*Server, error) {
	key := []byte(cfg.SigningKey)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("failed to generate signing key: %w", err)
		}
		logger.Warn("no signing key configured, tokens will not survive a restart")
	}

	repo := NewRepository()
	auth := NewAuthService(tokenizer.NewJWTTokenizer(key), tokens, repo, eventPub, logger).
		WithTTL(cfg.AccessTTL, cfg.RefreshTTL)
	router := SetupRouter(auth, repo, logger)

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		router: router,
		auth:   auth,
		repo:   repo,
		logger: logger,
	}, nil
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Repository() *Repository {
	return s.repo
}

func (s *Server) AuthService() *AuthService {
	return s.auth
}

// Run serves until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("recipebook backend started", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	s.logger.Info("recipebook backend stopped cleanly")
	return nil
}
