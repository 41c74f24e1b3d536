package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"

	mcphandler "github.com/structcms/structured-content/internal/mcp"
	"github.com/structcms/structured-content/pkg/structcontent"
	"github.com/structcms/structured-content/pkg/structcontent/audit"
	repomem "github.com/structcms/structured-content/pkg/structcontent/repo/memory"
	repopg "github.com/structcms/structured-content/pkg/structcontent/repo/postgres"
	"github.com/structcms/structured-content/pkg/structcontent/schemavalidator"
)

type Config struct {
	Port        uint16 `env:"PORT" env-default:"8000"`
	BaseURL     string `env:"BASE_URL" env-default:"http://localhost:8000"`
	DatabaseURL string `env:"DATABASE_URL"`
	Migrate     bool   `env:"MIGRATE" env-default:"true"`
}

func main() {
	var mode = flag.String("mode", "stdio", "Server mode: 'stdio', 'sse', or 'http'")
	flag.Parse()

	if err := godotenv.Load(".env"); err != nil {
		slog.Debug("no .env file, using process environment", "err", err)
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		slog.Error("failed to read configuration", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()

	var (
		repo structcontent.Repository
		sink structcontent.AuditSink
	)
	if cfg.DatabaseURL != "" {
		if cfg.Migrate {
			if err := repopg.MigrateDSN(cfg.DatabaseURL); err != nil {
				slog.Error("failed to run migrations", "err", err)
				os.Exit(1)
			}
		}
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to create connection pool", "err", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			slog.Error("failed to ping database", "err", err)
			os.Exit(1)
		}
		repo = repopg.NewWithPool(pool)
		sink = audit.NewPostgresSink(pool)
	} else {
		repo = repomem.New()
		sink = audit.NewMemorySink()
	}

	svc, err := structcontent.New(
		structcontent.WithRepository(repo),
		structcontent.WithValidator(schemavalidator.New()),
		structcontent.WithAuditSink(sink),
	)
	if err != nil {
		slog.Error("failed to create service", "err", err)
		os.Exit(1)
	}

	s := server.NewMCPServer(
		"Structured Content",
		"1.0.0",
		server.WithToolCapabilities(true),
	)
	mcphandler.NewHandler(svc).RegisterTools(s)

	switch *mode {
	case "sse":
		sseServer := server.NewSSEServer(s, server.WithBaseURL(cfg.BaseURL))
		slog.Info("starting SSE server", "base url", cfg.BaseURL)
		if err := sseServer.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			slog.Error("failed to start SSE server", "err", err)
			os.Exit(1)
		}
	case "http":
		httpServer := server.NewStreamableHTTPServer(s)
		slog.Info("HTTP server listening", "port", cfg.Port)
		if err := httpServer.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	default:
		slog.Info("starting in stdio mode")
		if err := server.ServeStdio(s); err != nil {
			slog.Error("failed to start stdio server", "err", err)
			os.Exit(1)
		}
	}
}
