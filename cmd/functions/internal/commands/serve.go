package commands

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	handler "puantajx-functions/api"
)

type ServeCmd struct {
	Listen string `help:"HTTP listen address, defaults to :PORT"`
}

func (s *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	ctx, cfg, log, err := loadConfig(ctx, globals)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	deps, err := handler.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Records.Close()

	addr := s.Listen
	if addr == "" {
		addr = net.JoinHostPort("", cfg.Port)
	}
	srv := configureHTTPServer(addr, handler.NewRouter(cfg, log, deps))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("version", globals.Version).Str("listen", addr).Str("environment", cfg.Environment).Msg("serving functions")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
