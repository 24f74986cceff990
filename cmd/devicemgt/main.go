package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bark-labs/devicemgt/internal/config"
	"github.com/bark-labs/devicemgt/internal/logging"
	"github.com/bark-labs/devicemgt/internal/server"
	"github.com/bark-labs/devicemgt/internal/service"
	"github.com/bark-labs/devicemgt/internal/storage/bolt"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Output: cfg.Log.Output,
		Pretty: cfg.Log.Pretty,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}

	store, err := bolt.New(cfg.Storage.Path)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Storage.Path).Msg("open store")
	}
	defer store.Close()

	authSvc := service.NewAuthService(cfg)
	deviceMgt := service.NewDeviceManagementService(store, logging.Component(log, "device-mgt"))

	srv := server.New(cfg, deviceMgt, authSvc, store, logging.Component(log, "http"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// graceful shutdown
	select {
	case sig := <-waitForSignal():
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		log.Error().Err(err).Msg("server stopped")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.WriteTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}

func waitForSignal() <-chan os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	return sigCh
}
