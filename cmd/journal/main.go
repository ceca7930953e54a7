package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"moodjournal/internal/bootstrap"
	"moodjournal/internal/cli"
	"moodjournal/internal/config"
	"moodjournal/internal/logging"
	"moodjournal/internal/output"
)

func main() {
	if err := run(); err != nil {
		formatter := output.NewFormatter(os.Stderr)
		formatter.Error(err.Error())
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := logging.Setup(cfg.Log); err != nil {
		return fmt.Errorf("configuring logging: %w", err)
	}

	formatter := output.NewFormatter(os.Stdout)
	services, err := bootstrap.BuildWith(cfg, formatter, formatter)
	if err != nil {
		return fmt.Errorf("initializing journal: %w", err)
	}
	defer services.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := &cli.Dependencies{
		Auth:     services.Auth,
		Journal:  services.Journal,
		Recorder: services.Recorder,
		Flow:     services.Flow,
		Output:   formatter,
		In:       os.Stdin,
	}

	return cli.NewRootCmd(deps).ExecuteContext(ctx)
}
