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
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/encore/internal/audit"
	"github.com/BruksfildServices01/encore/internal/config"
	dbpkg "github.com/BruksfildServices01/encore/internal/db"
	infraRepo "github.com/BruksfildServices01/encore/internal/infra/repository"
	"github.com/BruksfildServices01/encore/internal/logging"
	"github.com/BruksfildServices01/encore/internal/media"
	"github.com/BruksfildServices01/encore/internal/metrics"
	"github.com/BruksfildServices01/encore/internal/rolecache"
	"github.com/BruksfildServices01/encore/internal/routes"
	"github.com/BruksfildServices01/encore/internal/timezone"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	timezone.SetDefault(cfg.Timezone)
	if cfg.Logger.Format == "json" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := dbpkg.NewDB(cfg, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	created, err := dbpkg.EnsureAdmin(ctx, db, cfg.Admin)
	if err != nil {
		logger.Fatal("failed to bootstrap admin", zap.Error(err))
	}
	if created {
		logger.Info("admin user created", zap.String("username", cfg.Admin.Username))
	}

	// ======================================================
	// ROLE CACHE
	// ======================================================
	var cache rolecache.Cache
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()

		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, role lookups will hit the database", zap.Error(err))
		}
		cache = rolecache.NewRedisCache(client)
	} else {
		cache = rolecache.NewMemoryCache()
	}
	roles := rolecache.NewResolver(cache, infraRepo.NewRoleGormStore(db), cfg.Auth.RoleCacheTTL, logger)

	auditDispatcher := audit.NewDispatcher(audit.New(db), logger)
	defer auditDispatcher.Close()

	router := routes.NewRouter(routes.Deps{
		DB:      db,
		Config:  cfg,
		Log:     logger,
		Roles:   roles,
		Audit:   auditDispatcher,
		Metrics: metrics.New(),
		Media:   media.NewStore(cfg),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server start failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	logger.Info("server stopped")
}
