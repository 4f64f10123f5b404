// Package app assembles repositories and services shared by the API and the
// background worker.
package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"instainstru/internal/auth"
	"instainstru/internal/catalog"
	"instainstru/internal/config"
	"instainstru/internal/database"
	"instainstru/internal/database/migration"
	"instainstru/internal/kv"
	"instainstru/internal/logging"
	"instainstru/internal/metrics"
	"instainstru/internal/notification"
	"instainstru/internal/payment"
	"instainstru/internal/realtime"
	"instainstru/internal/repository/postgres"
	"instainstru/internal/service"
	"instainstru/internal/storage"
)

// OpenDatabase connects to PostgreSQL and brings the schema up to date.
func OpenDatabase(ctx context.Context, cfg *config.AppConfig, logger zerolog.Logger) (*sql.DB, error) {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := migration.EnsureMigrated(ctx, db, logger, cfg.Database.Host); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

// SeedCatalog loads the embedded catalog into an empty database.
func SeedCatalog(ctx context.Context, db *sql.DB, logger zerolog.Logger) error {
	f, err := catalog.Default()
	if err != nil {
		return err
	}
	seeded, err := catalog.Seed(ctx, postgres.NewTxManager(db), postgres.NewCatalogPostgres(db), f, logging.Component(logger, "catalog"))
	if err != nil {
		return err
	}
	if seeded {
		logger.Info().Str("event", "catalog_seeded").Int("categories", len(f.Categories)).Send()
	}
	return nil
}

// OpenRedis connects to Redis. It returns a nil client when no address is
// configured, which limits realtime delivery and job locking to one process.
func OpenRedis(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) (*redis.Client, error) {
	if cfg.Addr == "" {
		logger.Warn().Str("event", "redis_disabled").Msg("REDIS_ADDR is empty, using in-process broker")
		return nil, nil
	}
	return kv.NewClient(ctx, cfg)
}

// Infra holds the external systems services depend on.
type Infra struct {
	DB        *sql.DB
	Redis     *redis.Client
	Storage   storage.Storage
	Processor payment.Processor
	Notifier  notification.Notifier
	Metrics   *metrics.Metrics
	Tokens    *auth.TokenIssuer
}

// Services is the complete service layer.
type Services struct {
	Auth         service.AuthService
	Catalog      service.CatalogService
	Instructors  service.InstructorService
	Availability service.AvailabilityService
	Bookings     service.BookingService
	Messaging    service.MessagingService
	Referrals    service.ReferralService
	Search       service.SearchService
	Payments     service.PaymentService
	Credits      service.CreditService
	Analytics    service.AnalyticsService
}

// NewServices wires every service against PostgreSQL repositories.
func NewServices(cfg *config.AppConfig, in Infra, logger zerolog.Logger) Services {
	loc := cfg.Location()
	db := in.DB

	users := postgres.NewUserPostgres(db)
	catalogRepo := postgres.NewCatalogPostgres(db)
	instructorRepo := postgres.NewInstructorPostgres(db)
	availabilityRepo := postgres.NewAvailabilityPostgres(db)
	bookingRepo := postgres.NewBookingPostgres(db)

	var broker realtime.Broker = realtime.NewLocalBroker()
	if in.Redis != nil {
		broker = realtime.NewRedisBroker(in.Redis, logging.Component(logger, "realtime"))
	}

	credits := service.NewCreditService(postgres.NewCreditPostgres(db), logging.Component(logger, "credits"))
	referrals := service.NewReferralService(service.ReferralDeps{
		Referrals:   postgres.NewReferralPostgres(db),
		Users:       users,
		Bookings:    bookingRepo,
		Instructors: instructorRepo,
		Credits:     credits,
		Processor:   in.Processor,
		Notifier:    in.Notifier,
		Metrics:     in.Metrics,
	}, cfg.Referral, logging.Component(logger, "referrals"))

	availability := service.NewAvailabilityService(availabilityRepo, bookingRepo, loc, logging.Component(logger, "availability"))
	instructors := service.NewInstructorService(service.InstructorDeps{
		Instructors:  instructorRepo,
		Users:        users,
		Catalog:      catalogRepo,
		Availability: availabilityRepo,
		Storage:      in.Storage,
		Processor:    in.Processor,
	}, loc, logging.Component(logger, "instructors"))

	pricing := service.NewPricing(cfg.Pricing)
	deps := service.BookingDeps{
		Tx:           postgres.NewTxManager(db),
		Bookings:     bookingRepo,
		Payments:     postgres.NewPaymentPostgres(db),
		Users:        users,
		Instructors:  instructorRepo,
		Availability: availability,
		Credits:      credits,
		Referrals:    referrals,
		Processor:    in.Processor,
		Notifier:     in.Notifier,
		Metrics:      in.Metrics,
	}

	return Services{
		Auth:         service.NewAuthService(users, in.Tokens, referrals, cfg.Auth.JWTSecret, logging.Component(logger, "auth")),
		Catalog:      service.NewCatalogService(catalogRepo),
		Instructors:  instructors,
		Availability: availability,
		Bookings:     service.NewBookingService(deps, pricing, cfg.Referral, logging.Component(logger, "bookings")),
		Messaging:    service.NewMessagingService(postgres.NewMessagePostgres(db), users, bookingRepo, broker, in.Notifier, logging.Component(logger, "messaging")),
		Referrals:    referrals,
		Search:       service.NewSearchService(postgres.NewSearchPostgres(db), availability, loc, logging.Component(logger, "search")),
		Payments:     service.NewPaymentService(deps, instructors, pricing, cfg.Referral, logging.Component(logger, "payments")),
		Credits:      credits,
		Analytics:    service.NewAnalyticsService(postgres.NewAnalyticsPostgres(db), logging.Component(logger, "analytics")),
	}
}
