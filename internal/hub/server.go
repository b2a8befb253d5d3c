// ABOUTME: Server lifecycle: builds the hub's collaborators from config and runs HTTP
// ABOUTME: Graceful shutdown on context cancellation

package hub

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/2389/support-hub/internal/approval"
	"github.com/2389/support-hub/internal/archive"
	"github.com/2389/support-hub/internal/bot"
	"github.com/2389/support-hub/internal/broadcast"
	"github.com/2389/support-hub/internal/config"
	"github.com/2389/support-hub/internal/session"
)

const shutdownTimeout = 10 * time.Second

// Server owns the hub's collaborators and the HTTP listener.
type Server struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *session.Store
	events  *broadcast.Broadcaster
	archive archive.Archiver
	hub     *Hub
	httpSrv *http.Server
}

// NewServer builds the full service from configuration.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	events := broadcast.New(cfg.Server.ObserverBuffer, cfg.Server.CustomerBuffer, logger)
	store := session.NewStore(events, logger)
	bots := bot.NewDispatcher(bot.DispatcherConfig{
		EscalationThreshold: cfg.Bot.EscalationThreshold,
	}, logger)
	gate := approval.New(store, bots, logger)

	arch, err := archive.NewSQLiteArchive(cfg.Database.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}

	h := New(store, bots, gate, events, arch, Options{
		WriteTimeout: cfg.Server.WriteTimeout,
		PingInterval: cfg.Server.PingInterval,
	}, logger)

	return &Server{
		cfg:     cfg,
		logger:  logger.With("component", "server"),
		store:   store,
		events:  events,
		archive: arch,
		hub:     h,
		httpSrv: &http.Server{
			Addr:    cfg.Server.HTTPAddr,
			Handler: h.Handler(),
		},
	}, nil
}

// Run serves HTTP until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.cfg.Server.HTTPAddr)
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("http shutdown incomplete", "error", err)
	}
	s.events.Close()
	if err := s.archive.Close(); err != nil {
		s.logger.Warn("closing archive failed", "error", err)
	}
	return nil
}
