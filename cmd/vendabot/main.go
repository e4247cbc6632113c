package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	coreconfig "github.com/mvcampos/vendabot/core/config"
	"github.com/mvcampos/vendabot/core/logger"
	"github.com/mvcampos/vendabot/internal/app"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("vendabot: %v", err)
	}
}

func run() error {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	log.Printf("loading config: %s", cfgPath)
	cfg, err := coreconfig.Load(cfgPath)
	if err != nil {
		return err
	}

	application, err := app.Bootstrap(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := logger.Shutdown(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
