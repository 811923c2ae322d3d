// Command mcp-toolbox-stdio serves the MCP tools to a single client over
// stdin/stdout. Stdout carries protocol frames only; logs go to stderr.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"mcp-toolbox/internal/config"
	"mcp-toolbox/internal/logging"
	"mcp-toolbox/internal/mcpserver"
	"mcp-toolbox/internal/storage"
	"mcp-toolbox/internal/tools"
)

func main() {
	configPath := flag.String("config", os.Getenv("MCP_CONFIG"), "path to a YAML or TOML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := tools.New(storage.New(), tools.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("registering tools: %w", err)
	}
	adapter := mcpserver.New(d, mcpserver.Options{
		Name:    cfg.Server.Name,
		Version: cfg.Server.Version,
		Logger:  logger,
	})

	logger.Info("MCP stdio server running", "name", cfg.Server.Name, "version", cfg.Server.Version)
	if err := adapter.ServeStdio(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
