package commands

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"puantajx-functions/pkg/config"
	"puantajx-functions/pkg/logger"
)

type Globals struct {
	Debug   bool
	Version string
}

// loadConfig reads the configuration and attaches a logger to ctx.
func loadConfig(ctx context.Context, globals *Globals) (context.Context, *config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return ctx, nil, zerolog.Nop(), err
	}
	if globals.Debug {
		cfg.Debug = true
	}

	log := logger.Setup(cfg.IsDevelopment() || cfg.Debug)
	return log.WithContext(ctx), cfg, log, nil
}

func configureHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      time.Minute,
		IdleTimeout:       2 * time.Minute,
		MaxHeaderBytes:    8 * 1024, // 8KiB
	}
}
