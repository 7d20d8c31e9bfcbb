package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kanmind/internal/auth"
	"kanmind/internal/domain/errors"
	"kanmind/internal/kanban"
	"kanmind/internal/metrics"
	"kanmind/internal/pkg/ratelimit"
	"kanmind/internal/server"
	db "kanmind/repository/db"
	inmemory "kanmind/repository/inmemory"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

const shutdownTimeout = 30 * time.Second

type store interface {
	kanban.Repository
	server.Pinger
}

var (
	_ store = (*db.Storage)(nil)
	_ store = (*inmemory.Storage)(nil)
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		slog.Error("kanmind stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	cfg, err := server.ReadConfig(args)
	if err != nil {
		return err
	}
	logger, err := newLogger(out, cfg.LogLevel)
	if err != nil {
		return err
	}
	if cfg.JWTSecret == server.DefaultJWTSecret {
		logger.Warn("using the built-in development JWT secret, set JWT_SECRET in production")
	}

	repo, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	tokens, err := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}
	limiter, closeLimiter := newLimiter(ctx, cfg, logger)
	defer closeLimiter()

	api := server.NewAPI(cfg, server.Deps{
		Service: kanban.NewService(repo, logger),
		Tokens:  tokens,
		Store:   repo,
		Logger:  logger,
		Metrics: metrics.New(),
		Limiter: limiter,
	})
	if api == nil {
		return errors.ErrInternalServer
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := api.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, draining connections")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := api.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		logger.Info("graceful shutdown complete")
		return nil
	case err, ok := <-serverErr:
		if ok && err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}
}

func newLogger(out io.Writer, level string) (*slog.Logger, error) {
	lvl, err := server.ParseLogLevel(level)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger, nil
}

// openStore connects to Postgres and applies migrations. When the database
// cannot be reached the service keeps running on the in-memory store.
func openStore(ctx context.Context, cfg *server.Config, logger *slog.Logger) (store, func(), error) {
	pg, err := db.NewStorage(ctx, cfg.DBStr, logger)
	if err != nil {
		logger.Warn("database unavailable, falling back to in-memory storage", "error", err)
		return inmemory.NewStorage(), func() {}, nil
	}
	if err := db.Migration(cfg.DBStr, cfg.MigratePath); err != nil {
		pg.Close()
		return nil, nil, err
	}
	logger.Info("migrations applied", "path", cfg.MigratePath)
	return pg, pg.Close, nil
}

// newLimiter returns a nil limiter when no Redis address is configured.
func newLimiter(ctx context.Context, cfg *server.Config, logger *slog.Logger) (*ratelimit.Limiter, func()) {
	if cfg.RedisAddr == "" {
		logger.Info("login rate limiting disabled, no redis address configured")
		return nil, func() {}
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable, rate limiter will let requests through until it recovers", "addr", cfg.RedisAddr, "error", err)
	}
	limiter := ratelimit.New(rdb, logger, "kanmind:ratelimit:auth", cfg.LoginRateLimit, cfg.LoginRateBurst)
	return limiter, func() { _ = rdb.Close() }
}
