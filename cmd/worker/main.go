package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"upasthiti/internal/config"
	"upasthiti/internal/logging"
	"upasthiti/internal/notify"
	"upasthiti/internal/queue"
	"upasthiti/internal/store"
)

// Worker consumes check-in notices and warns about low attendance.
func main() {
	cfg := config.Load()
	log, err := logging.New(cfg.Production())
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if cfg.QueueBackend != "redis" {
		log.Warn("memory queue is process-local; the api runs the notifier itself", zap.String("queue_backend", cfg.QueueBackend))
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb := store.NewRedis(cfg.RedisAddr)
	defer func() { _ = rdb.Close() }()
	if err := rdb.WaitReady(ctx, retry.WithMaxRetries(10, retry.NewExponential(500*time.Millisecond))); err != nil {
		log.Fatal("redis not reachable", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}

	msgs, err := queue.NewRedisQueue(rdb.Client, queue.CheckInKey).Consume(ctx)
	if err != nil {
		log.Fatal("queue consume init failed", zap.Error(err))
	}

	log.Info("worker started", zap.Int("minimum_pct", cfg.MinAttendancePct))
	notify.NewLowAttendance(cfg.MinAttendancePct, log.Named("notify")).Run(ctx, msgs)
	log.Info("worker stopped")
}
