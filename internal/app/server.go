package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"robux-topup-backend/internal/config"
	"robux-topup-backend/pkg/log"
)

// Drainer is anything holding background work that must finish before exit.
type Drainer interface {
	Wait()
}

type Server struct {
	config *config.Config
	logger *zerolog.Logger
}

func NewServer(cfg *config.Config) *Server {
	l := log.GetLogger()
	return &Server{config: cfg, logger: &l}
}

// Run serves handler until ctx is cancelled or the process is signalled, then
// shuts down and waits for every drainer.
func (s *Server) Run(ctx context.Context, handler http.Handler, drainers ...Drainer) error {
	server := &http.Server{
		Addr:              s.config.Server.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.logger.Info().Str("addr", server.Addr).Msg("server is listening")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
		s.logger.Info().Msg("server is shutting down due to context cancellation")
	case <-quit:
		s.logger.Info().Msg("server is shutting down")
	}

	timeout := s.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctxShutdown, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		s.logger.Error().Err(err).Msg("failed to shut down the server")
	}
	for _, d := range drainers {
		d.Wait()
	}

	s.logger.Info().Msg("server stopped")
	return nil
}
