package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/notorious-utopia/egrn/internal/audit"
	jwttoken "github.com/notorious-utopia/egrn/internal/jwt_token"
	"github.com/notorious-utopia/egrn/internal/notify"
	orderhandler "github.com/notorious-utopia/egrn/internal/order/handler"
	orderservice "github.com/notorious-utopia/egrn/internal/order/service"
	orderstore "github.com/notorious-utopia/egrn/internal/order/store"
	"github.com/notorious-utopia/egrn/internal/platform/config"
	"github.com/notorious-utopia/egrn/internal/platform/httpserver"
	"github.com/notorious-utopia/egrn/internal/platform/logger"
	platformpostgres "github.com/notorious-utopia/egrn/internal/platform/postgres"
	platformredis "github.com/notorious-utopia/egrn/internal/platform/redis"
	"github.com/notorious-utopia/egrn/internal/reconcile"
	reconcilemetrics "github.com/notorious-utopia/egrn/internal/reconcile/metrics"
	"github.com/notorious-utopia/egrn/internal/registry"
	httptransport "github.com/notorious-utopia/egrn/internal/transport/http"
	"github.com/notorious-utopia/egrn/internal/user"
	id "github.com/notorious-utopia/egrn/pkg/domain"
)

// main wires dependencies and owns process lifecycle. Business logic
// lives in the internal packages; everything here is assembly.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage. An empty DATABASE_URL runs everything in memory for
	// local development.
	var (
		db         *sql.DB
		orders     orderstore.OrderStore
		users      user.Store
		auditStore audit.Store
	)
	if cfg.DatabaseURL != "" {
		var err error
		db, err = platformpostgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("postgres connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer db.Close()

		orders = orderstore.NewPostgres(db)
		users = user.NewPostgres(db)
		auditStore = audit.NewPostgresStore(db)
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		memUsers := user.NewMemory()
		memUsers.Add(&user.User{ID: id.NewUserID(), Username: "dev", Email: "dev@localhost"})
		orders = orderstore.NewMemory()
		users = memUsers
		auditStore = audit.NewInMemoryStore()
	}

	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Audit trail: publisher feeds the worker, worker persists and
	// optionally fans out to Kafka.
	publisher := audit.NewPublisher(256, log)
	var sink audit.Sink
	if len(cfg.Audit.KafkaBrokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(ctx, cfg.Audit.KafkaBrokers, cfg.Audit.KafkaTopic)
		if err != nil {
			log.Error("kafka sink setup failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer kafkaSink.Close()
		sink = kafkaSink
	}
	auditWorker := audit.NewWorker(auditStore, sink, publisher.Inbox(), log)
	go func() {
		if err := auditWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit worker stopped", slog.String("error", err.Error()))
		}
	}()

	registryClient := registry.NewHTTPClient(cfg.Registry.BaseURL, cfg.Registry.AuthToken, cfg.Registry.Timeout)
	notifier := notify.NewSMTP(cfg.Mail)

	engineOpts := []reconcile.Option{
		reconcile.WithInterval(cfg.PollInterval),
		reconcile.WithWorkers(cfg.ReconcileWorkers),
		reconcile.WithPublisher(publisher),
		reconcile.WithMetrics(reconcilemetrics.New()),
		reconcile.WithLogger(log),
	}
	if redisClient != nil {
		engineOpts = append(engineOpts, reconcile.WithLease(reconcile.NewRedisLease(redisClient, 2*cfg.PollInterval)))
	}
	engine, err := reconcile.New(orders, users, registryClient, notifier, engineOpts...)
	if err != nil {
		log.Error("reconciliation engine setup failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	go engine.Run(ctx)

	orderSvc, err := orderservice.New(orders, registryClient,
		orderservice.WithPublisher(publisher),
		orderservice.WithLogger(log))
	if err != nil {
		log.Error("order service setup failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	healthChecks := map[string]httptransport.HealthCheck{}
	if db != nil {
		healthChecks["postgres"] = db.PingContext
	}
	if redisClient != nil {
		healthChecks["redis"] = redisClient.Health
	}

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "egrn-helper", "egrn-api")
	router := httptransport.NewRouter(httptransport.Config{
		Logger:          log,
		Orders:          orderhandler.New(orderSvc, log),
		JWTValidator:    jwttoken.NewJWTServiceAdapter(jwtService),
		Reconciler:      engine,
		OperatorKeyHash: cfg.OperatorKeyHash,
		HealthChecks:    healthChecks,
	})

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting egrn-helper",
		slog.String("addr", cfg.Addr),
		slog.Duration("poll_interval", cfg.PollInterval))

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", slog.String("error", err.Error()))
	}
}
