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

	"github.com/joho/godotenv"

	"github.com/romanv/postboard/internal/config"
	"github.com/romanv/postboard/internal/db"
	"github.com/romanv/postboard/internal/notifications"
	"github.com/romanv/postboard/internal/observability"
	"github.com/romanv/postboard/internal/queue/worker"
	"github.com/romanv/postboard/internal/repo/postgres"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := observability.NewLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(cfg.DBURL)
	if err != nil {
		log.Error("db connect failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	host, _ := os.Hostname()

	w := worker.New(worker.Config{
		PollInterval:  500 * time.Millisecond,
		WorkerID:      fmt.Sprintf("%s-%d", host, os.Getpid()),
		Concurrency:   2,
		ShutdownGrace: 10 * time.Second,
	}, postgres.NewJobsRepo(pool), notifications.NewLogNotifier(), log)

	healthSrv := &http.Server{
		Addr:              ":9091",
		Handler:           w.HealthHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		err := healthSrv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("health server error", "error", err)
		}
	}()

	log.Info("worker started", "poll_interval", "500ms", "concurrency", 2)

	if err := w.Run(ctx); err != nil {
		log.Error("worker stopped with error", "error", err)
	}

	shutdownCtx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()
	_ = healthSrv.Shutdown(shutdownCtx)

	snap := w.Metrics().Snapshot()
	log.Info("worker exit",
		"claimed", snap.Claimed,
		"done", snap.Done,
		"retried", snap.Retried,
		"dead_lettered", snap.DeadLettered,
	)
}
