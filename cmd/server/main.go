package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/JaimeStill/ml-agent/internal/api"
	"github.com/JaimeStill/ml-agent/internal/config"
	"github.com/JaimeStill/ml-agent/internal/infrastructure"
	"github.com/JaimeStill/ml-agent/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ml-agent: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	infra, err := infrastructure.New(cfg)
	if err != nil {
		return err
	}
	logger := infra.Logger

	handler, domain := api.New(cfg, infra)

	if err := infra.Start(); err != nil {
		return err
	}
	if err := domain.Agent.Start(infra.Lifecycle); err != nil {
		return fmt.Errorf("agent start failed: %w", err)
	}

	srv := server.New(&cfg.Server, handler, logger, cfg.ShutdownTimeoutDuration())
	if err := srv.Start(infra.Lifecycle); err != nil {
		return fmt.Errorf("server start failed: %w", err)
	}

	infra.Lifecycle.WaitForStartup()
	logger.Info("service ready", "name", cfg.Agent.Name, "addr", cfg.Server.Addr())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("signal received", "signal", sig.String())

	if err := infra.Lifecycle.Shutdown(cfg.ShutdownTimeoutDuration()); err != nil {
		return err
	}

	logger.Info("service stopped")
	return nil
}
