package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"
)

// Start sets up the url mapping and serves on cfg.Addr until an interrupt
// signal arrives.
func Start(cfg Config, log *zap.Logger) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	s := newService(cfg, log)

	conversionServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 2 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
	conversionServer.RegisterOnShutdown(func() {
		log.Info("shutting down server")
	})
	go func() {
		intr := make(chan os.Signal, 1)
		signal.Notify(intr, os.Interrupt)
		<-intr
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := conversionServer.Shutdown(ctx); err != nil {
			log.Warn("shutdown incomplete", zap.Error(err))
		}
	}()

	log.Info("server started", zap.String("addr", cfg.Addr))
	if err := conversionServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info("server closed")
	return nil
}
