package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"instainstru/docs"
	"instainstru/internal/app"
	"instainstru/internal/auth"
	"instainstru/internal/config"
	handlers "instainstru/internal/http/handler"
	"instainstru/internal/http/middleware"
	"instainstru/internal/logging"
	"instainstru/internal/metrics"
	"instainstru/internal/notification"
	"instainstru/internal/otel"
	"instainstru/internal/payment"
	"instainstru/internal/storage"
)

// @title iNSTAiNSTRU API
// @version 1.0
// @description Marketplace API for booking in-person lessons with vetted instructors.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.Location())
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	loc := cfg.Location()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, logger, "api")
	if err != nil {
		logger.Warn().Err(err).Msg("tracing disabled")
	}

	db, err := app.OpenDatabase(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	if err := app.SeedCatalog(ctx, db, logger); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed catalog")
	}

	rdb, err := app.OpenRedis(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// Instructor photos live in S3-compatible object storage (MinIO-supported)
	objStore, err := storage.NewMinIO(ctx, cfg.MinIO)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize object storage")
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
	httpMetrics, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to register http metrics")
	}

	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	svcs := app.NewServices(cfg, app.Infra{
		DB:        db,
		Redis:     rdb,
		Storage:   objStore,
		Processor: payment.NewStripeProcessor(cfg.Stripe),
		Notifier:  notifier,
		Metrics:   m,
		Tokens:    tokens,
	}, logger)

	server := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(),
		BodyLimit:             6 << 20,
		ReadTimeout:           15 * time.Second,
		DisableStartupMessage: true,
	})

	server.Use(otelfiber.Middleware(otelfiber.WithNext(func(c *fiber.Ctx) bool {
		p := c.Path()
		return p == "/health" || p == "/healthz" || p == "/metrics"
	})))
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	server.Use(middleware.RequestID())
	server.Use(middleware.Logger(logging.Component(logger, "http")))
	server.Use(httpMetrics.Handler())

	var checks []handlers.Check
	if rdb != nil {
		checks = append(checks, handlers.Check{Name: "redis", Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }})
	}

	handlers.RegisterRoutes(server, handlers.Deps{
		DB:           db,
		HealthChecks: checks,
		Tokens:       tokens,
		Gatherer:     reg,
		RateLimiter:  middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		Location:     loc,
		Logger:       logging.Component(logger, "http"),
		Auth:         svcs.Auth,
		Catalog:      svcs.Catalog,
		Instructors:  svcs.Instructors,
		Availability: svcs.Availability,
		Bookings:     svcs.Bookings,
		Messaging:    svcs.Messaging,
		Referrals:    svcs.Referrals,
		Search:       svcs.Search,
		Payments:     svcs.Payments,
	})

	// Swagger UI with dynamic host and scheme
	server.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	go func() {
		<-ctx.Done()
		logger.Info().Str("event", "shutdown").Msg("stopping http server")
		if err := server.ShutdownWithTimeout(15 * time.Second); err != nil {
			logger.Error().Err(err).Msg("http shutdown")
		}
	}()

	addr := ":" + cfg.Port
	logger.Info().Str("event", "listening").Str("addr", addr).Send()
	if err := server.Listen(addr); err != nil {
		logger.Fatal().Err(err).Msg("failed to start server")
	}

	if shutdownTracing != nil {
		tctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(tctx)
	}
}
