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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"upasthiti/internal/attendance"
	"upasthiti/internal/config"
	"upasthiti/internal/fraud"
	"upasthiti/internal/handler"
	"upasthiti/internal/httpmiddleware"
	"upasthiti/internal/identity"
	"upasthiti/internal/logging"
	"upasthiti/internal/metrics"
	"upasthiti/internal/migrate"
	"upasthiti/internal/notify"
	"upasthiti/internal/qrtoken"
	"upasthiti/internal/queue"
	"upasthiti/internal/session"
	"upasthiti/internal/store"
)

func main() {
	cfg := config.Load()
	log, err := logging.New(cfg.Production())
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg, log); err != nil {
		log.Fatal("api failed", zap.Error(err))
	}
}

func run(cfg config.App, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	people := identity.NewMemory()
	var db *store.DB
	if cfg.DirectoryDSN != "" {
		var err error
		db, err = openRoster(ctx, cfg.DirectoryDSN, store.NewDB, migrate.Up)
		if err != nil {
			return err
		}
		defer db.Close()
		n, err := store.NewDirectory(db).LoadInto(ctx, people)
		if err != nil {
			return fmt.Errorf("load roster: %w", err)
		}
		log.Info("roster loaded", zap.Int("identities", n))
	}
	if cfg.SeedDemo {
		n, err := identity.SeedDemo(ctx, people)
		if err != nil {
			return fmt.Errorf("seed demo roster: %w", err)
		}
		log.Info("demo roster seeded", zap.Int("identities", n))
	}

	var rdb *store.Redis
	if cfg.UsesRedis() {
		rdb = store.NewRedis(cfg.RedisAddr)
		defer func() { _ = rdb.Close() }()
	}

	var registry qrtoken.Registry = qrtoken.NewMemoryRegistry()
	if cfg.TokenBackend == "redis" {
		registry = qrtoken.NewRedisRegistry(rdb.Client, "")
	}
	// Claims sit beside the in-memory ledger; a claim that outlives its ledger
	// would hide presences from the next process.
	var dedup attendance.DedupStore
	if cfg.DedupCheckIns {
		dedup = attendance.NewMemoryDedup()
	}

	var checkins queue.Queue
	if cfg.QueueBackend == "redis" {
		checkins = queue.NewRedisQueue(rdb.Client, queue.CheckInKey)
	} else {
		checkins = queue.NewInMemory(256)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	ledger := attendance.NewLedger(people, dedup, time.Local)
	svc := attendance.NewService(
		qrtoken.NewIssuer(registry, nil, log.Named("issuer")),
		qrtoken.NewVerifier(registry, log.Named("verifier")),
		ledger, checkins, m, nil, log.Named("attendance"),
	)
	feed := fraud.NewFeed(m)

	if cfg.QueueBackend == "redis" {
		alertMsgs, err := queue.NewRedisQueue(rdb.Client, queue.FraudAlertKey).Consume(ctx)
		if err != nil {
			return fmt.Errorf("fraud alert consume: %w", err)
		}
		go feed.Consume(ctx, alertMsgs, log.Named("fraud"))
	}
	if cfg.DetectorKey == "" {
		log.Warn("DETECTOR_KEY unset, fraud alert ingestion over HTTP disabled")
	}

	// A memory queue is process-local, so the notifier runs here instead of in the worker.
	if cfg.QueueBackend != "redis" {
		msgs, err := checkins.Consume(ctx)
		if err != nil {
			return fmt.Errorf("check-in consume: %w", err)
		}
		go notify.NewLowAttendance(cfg.MinAttendancePct, log.Named("notify")).Run(ctx, msgs)
	}

	h := handler.New(handler.Deps{
		Sessions:    session.NewAuthenticator(people, cfg.SessionTTL, nil, log.Named("session")),
		Attendance:  svc,
		Fraud:       feed,
		Metrics:     m,
		SigningKey:  cfg.JWTSigningKey,
		Issuer:      cfg.JWTIssuer,
		TokenTTL:    cfg.SessionTTL,
		MinPercent:  cfg.MinAttendancePct,
		DetectorKey: cfg.DetectorKey,
		Log:         log.Named("http"),
	})

	r := gin.New()
	r.Use(logging.Requests(log, "/healthz", "/metrics"), logging.Recover(log))
	r.Use(httpmiddleware.CORS(cfg.CORSOrigins))
	r.Use(httpmiddleware.SecurityHeaders())
	r.Use(httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).Middleware(httpmiddleware.ByIP))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		status := http.StatusOK
		body := gin.H{"status": "ok"}
		if rdb != nil {
			ok := rdb.Healthy(c.Request.Context())
			body["redis"] = ok
			if !ok {
				status = http.StatusServiceUnavailable
			}
		}
		if db != nil {
			ok := db.Healthy(c.Request.Context()) == nil
			body["db"] = ok
			if !ok {
				status = http.StatusServiceUnavailable
			}
		}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		c.JSON(status, body)
	})
	h.Register(r)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("server forced shutdown", zap.Error(err))
	}
	log.Info("server exited")
	return nil
}
