// Command mcp-toolbox-http starts the remote MCP server over HTTP/SSE.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"mcp-toolbox/internal/config"
	"mcp-toolbox/internal/logging"
	"mcp-toolbox/internal/mcpserver"
	"mcp-toolbox/internal/server"
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
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format, os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := storage.New()
	d, err := tools.New(store, tools.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("registering tools: %w", err)
	}
	adapter := mcpserver.New(d, mcpserver.Options{
		Name:      cfg.Server.Name,
		Version:   cfg.Server.Version,
		Logger:    logger,
		OnSession: sessionHook(logger),
	})
	srv := server.New(server.Config{
		Name:           cfg.Server.Name,
		Version:        cfg.Server.Version,
		Token:          cfg.Auth.Token,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		RatePerMinute:  cfg.RateLimit.PerMinute,
		RateBurst:      cfg.RateLimit.Burst,
	}, server.Deps{Store: store, Dispatcher: d, MCP: adapter, Logger: logger})

	if cfg.Auth.Token == "" {
		logger.Warn("MCP_TOKEN not set; endpoints will be open. Set MCP_TOKEN to secure.")
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting MCP HTTP server",
			"port", cfg.Server.Port,
			"tls", cfg.TLS.Enabled(),
			"auth", cfg.Auth.Token != "",
			"cors_origins", strings.Join(cfg.CORS.AllowedOrigins, ","),
			"rate_limit_per_minute", cfg.RateLimit.PerMinute,
		)
		if cfg.TLS.Enabled() {
			errCh <- httpServer.ListenAndServeTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
			return
		}
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("stopped", "storage_items", store.Size())
	return nil
}

// sessionHook logs SSE session lifecycle with the client address and, on
// disconnect, how long the session lasted.
func sessionHook(logger *slog.Logger) func(mcpserver.SessionEvent) {
	return func(ev mcpserver.SessionEvent) {
		if ev.Connected {
			logger.Debug("mcp client attached", "session_id", ev.ID, "transport", ev.Transport, "remote", ev.Remote)
			return
		}
		logger.Debug("mcp client detached", "session_id", ev.ID, "transport", ev.Transport,
			"remote", ev.Remote, "duration", ev.Duration)
	}
}
