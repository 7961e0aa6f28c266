package main

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/linkshortener/internal/codegen"
	"github.com/mmeshcher/linkshortener/internal/config"
	"github.com/mmeshcher/linkshortener/internal/handler"
	"github.com/mmeshcher/linkshortener/internal/repository"
	"github.com/mmeshcher/linkshortener/internal/service"
)

const shutdownTimeout = 10 * time.Second

type linkStore interface {
	service.LinkStore
	Close() error
}

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		bootstrap, _ := zap.NewProduction()
		bootstrap.Fatal("Configuration error", zap.Error(err))
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	sugar := logger.Sugar()

	sugar.Infow(
		"Configuration loaded",
		"server_address", cfg.ServerAddress,
		"file_storage_path", cfg.FileStoragePath,
		"database", cfg.DatabaseDSN != "",
		"sqlite", redactURL(cfg.SQLiteURL),
		"code_length", cfg.CodeLength,
		"alloc_max_attempts", cfg.AllocMaxAttempts,
		"request_timeout", cfg.RequestTimeout,
	)

	store, err := newStore(cfg, logger)
	if err != nil {
		sugar.Fatalw("Failed to initialize storage", "error", err.Error())
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage", zap.Error(err))
		}
	}()

	allocator := service.NewAllocator(codegen.New(cfg.CodeLength), store, cfg.AllocMaxAttempts, logger)
	shortenerService := service.NewShortenerService(store, allocator, logger)

	h := handler.NewHandler(shortenerService, logger, cfg.RequestTimeout)

	server := &http.Server{
		Addr:    cfg.ServerAddress,
		Handler: h.SetupRouter(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		sugar.Infow("Server starting", "address", cfg.ServerAddress)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server stopped", zap.Error(err))
		}
		return
	case <-ctx.Done():
	}

	sugar.Infow("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	atomicLevel, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}

	if atomicLevel.Level() == zap.DebugLevel {
		return zap.NewDevelopment()
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = atomicLevel
	return zapCfg.Build()
}

// newStore picks the backend: PostgreSQL when a DSN is set, then SQLite or
// libSQL, then the in-memory store with an optional file snapshot.
func newStore(cfg *config.Config, logger *zap.Logger) (linkStore, error) {
	switch {
	case cfg.DatabaseDSN != "":
		logger.Info("Using PostgreSQL storage")
		return repository.NewPostgresRepository(cfg.DatabaseDSN, logger)
	case cfg.SQLiteURL != "":
		logger.Info("Using SQLite storage", zap.String("url", redactURL(cfg.SQLiteURL)))
		return repository.NewSQLiteRepository(cfg.SQLiteURL, logger)
	default:
		logger.Info("Using in-memory storage", zap.String("file", cfg.FileStoragePath))
		return repository.NewMemoryRepository(cfg.FileStoragePath, logger)
	}
}

// redactURL keeps only the scheme and host of a remote database URL so that
// credentials in the path or query never reach the logs. Local file paths are
// returned as is.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "invalid url"
	}
	if u.Host == "" {
		return raw
	}
	return u.Scheme + "://" + u.Host
}
