package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/structcms/structured-content/internal/api"
	"github.com/structcms/structured-content/internal/graph"
	"github.com/structcms/structured-content/pkg/structcontent"
	"github.com/structcms/structured-content/pkg/structcontent/audit"
	"github.com/structcms/structured-content/pkg/structcontent/capability"
	repomem "github.com/structcms/structured-content/pkg/structcontent/repo/memory"
	repopg "github.com/structcms/structured-content/pkg/structcontent/repo/postgres"
	"github.com/structcms/structured-content/pkg/structcontent/schemavalidator"
)

type Config struct {
	Port        string `env:"PORT" env-default:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	Migrate     bool   `env:"MIGRATE" env-default:"true"`
	LogLevel    string `env:"LOG_LEVEL" env-default:"info"`
	Environment string `env:"ENVIRONMENT" env-default:"development"`
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		slog.Debug("no .env file, using process environment", "err", err)
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		slog.Error("failed to read configuration", "err", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx := context.Background()

	// Repository and audit sink: postgres when a DATABASE_URL is set,
	// in-memory otherwise.
	var (
		repo structcontent.Repository
		sink structcontent.AuditSink
	)
	if cfg.DatabaseURL != "" {
		if cfg.Migrate {
			if err := repopg.MigrateDSN(cfg.DatabaseURL); err != nil {
				logger.Error("failed to run migrations", "err", err)
				os.Exit(1)
			}
		}
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to create connection pool", "err", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			logger.Error("failed to ping database", "err", err)
			os.Exit(1)
		}
		repo = repopg.NewWithPool(pool)
		sink = audit.NewPostgresSink(pool)
		logger.Info("using postgres repository")
	} else {
		repo = repomem.New()
		sink = audit.NewMemorySink()
		logger.Info("using in-memory repository")
	}

	svc, err := structcontent.New(
		structcontent.WithRepository(repo),
		structcontent.WithValidator(schemavalidator.New()),
		structcontent.WithAuditSink(sink),
		structcontent.WithLogger(logger),
	)
	if err != nil {
		logger.Error("failed to create service", "err", err)
		os.Exit(1)
	}

	restHandler := api.NewHandler(svc)

	schema, err := graph.New(svc)
	if err != nil {
		logger.Error("failed to build graph schema", "err", err)
		os.Exit(1)
	}

	// Refuse to start with protocol surfaces out of parity. The check is
	// structural and cheap; running it at boot turns drift into a failed
	// deploy instead of a silent capability gap.
	if violations := capability.Verify(capability.Registry(), capability.Bindings{
		REST:  restHandler.Bindings(),
		Graph: graph.Bindings(schema),
	}); len(nonToolViolations(violations)) > 0 {
		for _, v := range nonToolViolations(violations) {
			logger.Error("capability parity violation", "violation", v.String())
		}
		os.Exit(1)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Mount("/api/v1", restHandler.Routes())
	r.Handle("/graphql", graph.NewHandler(schema))

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: r,
	}

	go func() {
		logger.Info("structured content server starting",
			"port", cfg.Port, "env", cfg.Environment)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "err", err)
		os.Exit(1)
	}
	logger.Info("server exited")
}

// nonToolViolations drops tool-surface findings; this process does not serve
// the tool surface, so only REST and graph parity gate its startup. The
// mcpserver binary and the conformance tests cover the rest.
func nonToolViolations(violations []capability.Violation) []capability.Violation {
	var out []capability.Violation
	for _, v := range violations {
		if v.Surface == "tool" {
			continue
		}
		out = append(out, v)
	}
	return out
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
