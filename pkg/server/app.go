package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	xhttp "TradeYodha/pkg/http"
	applogger "TradeYodha/pkg/logger"
)

// App runs the HTTP server until the process is interrupted.
type App struct {
	http            *xhttp.Server
	log             *applogger.Logger
	shutdownTimeout time.Duration
}

func New(http *xhttp.Server, log *applogger.Logger, shutdownTimeout time.Duration) *App {
	if log == nil {
		log = applogger.Nop()
	}
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &App{http: http, log: log, shutdownTimeout: shutdownTimeout}
}

// Run blocks until ctx is cancelled or SIGINT/SIGTERM arrives, then drains
// the HTTP server. Infrastructure is closed by the injector's cleanup.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.http.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()
	if err := a.http.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
		return err
	}
	a.log.Info("shutdown complete")
	return nil
}
