package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/romanv/postboard/internal/auth"
	"github.com/romanv/postboard/internal/cache"
	"github.com/romanv/postboard/internal/config"
	"github.com/romanv/postboard/internal/db"
	apphttp "github.com/romanv/postboard/internal/http"
	"github.com/romanv/postboard/internal/http/handlers"
	"github.com/romanv/postboard/internal/http/middlewares"
	"github.com/romanv/postboard/internal/observability"
	"github.com/romanv/postboard/internal/queue/redisclient"
	"github.com/romanv/postboard/internal/repo/instrumented"
	"github.com/romanv/postboard/internal/repo/postgres"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := observability.NewLogger(cfg.Env)

	if cfg.JWTSecret == "" {
		log.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OTLPEndpoint != "" {
		shutdown, err := observability.InitTracer(ctx, "postboard-api", cfg.OTLPEndpoint)
		if err != nil {
			log.Error("tracer init failed", "error", err)
			os.Exit(1)
		}
		defer func() {
			sctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()
			_ = shutdown(sctx)
		}()
	}

	pool, err := db.NewPool(cfg.DBURL)
	if err != nil {
		log.Error("db connect failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	seedCtx, cancel := config.WithTimeout(10 * time.Second)
	err = db.EnsureAdminUser(seedCtx, pool, cfg)
	cancel()
	if err != nil {
		log.Error("admin seed failed", "error", err)
		os.Exit(1)
	}

	rdb := redisclient.New(redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	prom := observability.NewProm(reg)

	usersRepo := instrumented.NewUsers(postgres.NewUsersRepo(pool), prom)
	postsRepo := instrumented.NewPosts(postgres.NewPostsRepo(pool), prom)
	jobsRepo := postgres.NewJobsRepo(pool)

	tokens := auth.NewManager(cfg.JWTSecret, time.Duration(cfg.SessionTTLDays)*24*time.Hour)
	listCache := cache.New(5 * time.Second)

	router := apphttp.NewRouter(apphttp.RouterDeps{
		Env:    cfg.Env,
		Log:    log,
		Auth:   handlers.NewAuthHandler(usersRepo, tokens, jobsRepo, log, prom),
		Posts:  handlers.NewPostsHandler(postsRepo, listCache, log, prom),
		Users:  handlers.NewUsersHandler(usersRepo, log),
		Health: handlers.NewHealthHandler(pool, rdb),

		AuthMW:      middlewares.NewAuthMiddleware(tokens, usersRepo),
		AuthLimiter: middlewares.NewRedisRateLimiter(rdb.Raw(), cfg.AuthRateLimit, cfg.AuthRateWindow),
		APILimiter:  middlewares.NewRateLimiter(120, time.Minute),

		Prom:        prom,
		PromHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),

		AllowedOrigins: allowedOrigins(),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.Env)

		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

func allowedOrigins() []string {
	raw := os.Getenv("CORS_ORIGINS")
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}

	return out
}
