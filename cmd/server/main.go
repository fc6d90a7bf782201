package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"trends-go/internal/cli"
	"trends-go/internal/config"
	"trends-go/pkg/logger"
)

type Application struct {
	configPath string
	debug      bool
}

func main() {
	app := &Application{}

	flag.StringVar(&app.configPath, "config", "", "Configuration file path (default ./config.yaml)")
	flag.BoolVar(&app.debug, "debug", false, "Enable debug mode")
	flag.Parse()

	if err := app.Run(); err != nil {
		log.Fatalf("Application failed: %v", err)
	}
}

func (app *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := config.NewManager()
	if _, err := manager.Load(app.configPath); err != nil {
		return err
	}
	if app.debug {
		manager.Set("logger.level", "debug")
		if err := manager.Reload(); err != nil {
			return err
		}
	}
	cfg := manager.GetConfig()
	logger.Configure(cfg.Logger)

	server, err := cli.BuildServer(cfg)
	if err != nil {
		return fmt.Errorf("failed to build server: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}
