package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"instainstru/internal/app"
	"instainstru/internal/auth"
	"instainstru/internal/config"
	handlers "instainstru/internal/http/handler"
	"instainstru/internal/jobs"
	"instainstru/internal/kv"
	"instainstru/internal/logging"
	"instainstru/internal/metrics"
	"instainstru/internal/notification"
	"instainstru/internal/otel"
	"instainstru/internal/payment"
)

func main() {
	cfg := config.Load()
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.Location())
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	loc := cfg.Location()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, logger, "worker")
	if err != nil {
		logger.Warn().Err(err).Msg("tracing disabled")
	}

	db, err := app.OpenDatabase(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	rdb, err := app.OpenRedis(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	var locker kv.Locker
	if rdb != nil {
		defer rdb.Close()
		locker = kv.NewRedisLocker(rdb)
	}

	notifier, err := notification.NewEmailNotifier(notification.NewSMTPMailer(cfg.SMTP), logging.Component(logger, "notification"), loc)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load email templates")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to register metrics")
	}

	// Photo uploads never run in the worker, so no object storage is wired.
	svcs := app.NewServices(cfg, app.Infra{
		DB:        db,
		Redis:     rdb,
		Processor: payment.NewStripeProcessor(cfg.Stripe),
		Notifier:  notifier,
		Metrics:   m,
		Tokens:    auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
	}, logger)

	scheduler := jobs.New(locker, cfg.Jobs.LockTTL, m, logging.Component(logger, "jobs"), loc)
	for _, job := range jobs.Marketplace(cfg.Jobs, jobs.Services{
		Payments:  svcs.Payments,
		Referrals: svcs.Referrals,
		Credits:   svcs.Credits,
		Analytics: svcs.Analytics,
	}) {
		if err := scheduler.Add(job); err != nil {
			logger.Fatal().Err(err).Str("job", job.Name).Str("spec", job.Spec).Msg("invalid job schedule")
		}
		logger.Info().Str("event", "job_scheduled").Str("job", job.Name).Str("spec", job.Spec).Send()
	}
	scheduler.Start(ctx)

	ops := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler(), DisableStartupMessage: true})
	ops.Get("/healthz", handlers.Liveness())
	checks := []handlers.Check{handlers.DBCheck(db)}
	if rdb != nil {
		checks = append(checks, handlers.Check{Name: "redis", Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }})
	}
	ops.Get("/health", handlers.HealthCheck(checks...))
	ops.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	go func() {
		if err := ops.Listen(":" + cfg.WorkerPort); err != nil {
			logger.Error().Err(err).Msg("ops server stopped")
		}
	}()

	<-ctx.Done()
	logger.Info().Str("event", "shutdown").Msg("waiting for running jobs")
	<-scheduler.Stop().Done()
	_ = ops.ShutdownWithTimeout(5 * time.Second)

	if shutdownTracing != nil {
		tctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(tctx)
	}
}
