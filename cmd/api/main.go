package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emilythestrangee/ideaboard/backend/internal/audit"
	"github.com/emilythestrangee/ideaboard/backend/internal/config"
	"github.com/emilythestrangee/ideaboard/backend/internal/database"
	"github.com/emilythestrangee/ideaboard/backend/internal/handlers"
	"github.com/emilythestrangee/ideaboard/backend/internal/logging"
	"github.com/emilythestrangee/ideaboard/backend/internal/ratelimit"
	"github.com/emilythestrangee/ideaboard/backend/internal/repository"
	"github.com/emilythestrangee/ideaboard/backend/internal/server"
	"github.com/emilythestrangee/ideaboard/backend/internal/service"
)

type stores struct {
	db    database.Service
	ideas repository.IdeaRepository
	users repository.UserRepository
	audit repository.AuditRepository
}

func openStores(ctx context.Context, cfg *config.Config, log *zap.Logger) (*stores, error) {
	switch cfg.StorageDriver {
	case config.DriverMongo:
		m, err := database.OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, log)
		if err != nil {
			return nil, err
		}
		ideas := repository.NewMongoIdeaRepository(m.Database())
		users := repository.NewMongoUserRepository(m.Database())
		events := repository.NewMongoAuditRepository(m.Database())
		for _, idx := range []interface{ EnsureIndexes(context.Context) error }{ideas, users, events} {
			if err := idx.EnsureIndexes(ctx); err != nil {
				_ = m.Close()
				return nil, fmt.Errorf("ensure indexes: %w", err)
			}
		}
		return &stores{db: m, ideas: ideas, users: users, audit: events}, nil

	default:
		pg, err := database.OpenPostgres(cfg.PostgresDSN(), cfg.DBName, log)
		if err != nil {
			return nil, err
		}
		return &stores{
			db:    pg,
			ideas: repository.NewPostgresIdeaRepository(pg.DB()),
			users: repository.NewPostgresUserRepository(pg.DB()),
			audit: repository.NewPostgresAuditRepository(pg.DB()),
		}, nil
	}
}

func newLimiter(ctx context.Context, cfg *config.Config, log *zap.Logger) (ratelimit.Limiter, func(), error) {
	if cfg.RedisURL == "" {
		mem := ratelimit.NewMemory(cfg.RateLimitRequests, cfg.RateLimitWindow)
		log.Info("rate limiter using process memory")
		return mem, mem.Close, nil
	}

	client, err := ratelimit.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	log.Info("rate limiter using redis")
	return ratelimit.NewRedis(client, cfg.RateLimitRequests, cfg.RateLimitWindow), func() { _ = client.Close() }, nil
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.Environment)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.db.Close(); err != nil {
			log.Warn("close store", zap.Error(err))
		}
	}()

	limiter, closeLimiter, err := newLimiter(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeLimiter()

	tokens := service.NewTokenService(cfg.JWTSecret, cfg.JWTRefreshSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	auditLog := audit.New(st.audit, log)
	authService := service.NewAuthService(st.users, tokens)
	ideaService := service.NewIdeaService(st.ideas, auditLog)
	moderationService := service.NewModerationService(st.ideas, auditLog)

	handler := handlers.NewHandler(authService, ideaService, moderationService, st.db, log)
	srv, err := server.New(cfg, log, handler, tokens, authService, limiter).HTTPServer()
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr), zap.String("storage", cfg.StorageDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("server exited")
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
