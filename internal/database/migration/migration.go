package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_users",
		SQL: `CREATE TABLE IF NOT EXISTS users (
  id                        UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  email                     TEXT        NOT NULL,
  password_hash             TEXT        NOT NULL,
  first_name                TEXT        NOT NULL,
  last_name                 TEXT        NOT NULL DEFAULT '',
  role                      TEXT        NOT NULL CHECK (role IN ('student', 'instructor', 'admin')),
  stripe_customer_id        TEXT,
  default_payment_method_id TEXT,
  signup_device_id          TEXT,
  signup_ip_hash            TEXT,
  created_at                TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_users_email",
		SQL:  `CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users (lower(email));`,
	},
	{
		Name: "create_table_user_credits",
		SQL: `CREATE TABLE IF NOT EXISTS user_credits (
  id              UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  user_id         UUID        NOT NULL REFERENCES users (id),
  amount_cents    BIGINT      NOT NULL CHECK (amount_cents > 0),
  remaining_cents BIGINT      NOT NULL CHECK (remaining_cents >= 0),
  reason          TEXT        NOT NULL,
  source_id       TEXT,
  expires_at      TIMESTAMPTZ,
  created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_user_credits_user",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_user_credits_user ON user_credits (user_id) WHERE remaining_cents > 0;`,
	},
	{
		Name: "create_table_instructor_profiles",
		SQL: `CREATE TABLE IF NOT EXISTS instructor_profiles (
  user_id           UUID        PRIMARY KEY REFERENCES users (id),
  bio               TEXT        NOT NULL DEFAULT '',
  years_experience  INT         NOT NULL DEFAULT 0 CHECK (years_experience >= 0),
  service_areas     JSONB       NOT NULL DEFAULT '[]',
  photo_key         TEXT,
  stripe_account_id TEXT        UNIQUE,
  payouts_enabled   BOOLEAN     NOT NULL DEFAULT false,
  is_live           BOOLEAN     NOT NULL DEFAULT false,
  created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_catalog_categories",
		SQL: `CREATE TABLE IF NOT EXISTS catalog_categories (
  id            UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
  name          TEXT NOT NULL,
  slug          TEXT NOT NULL UNIQUE,
  description   TEXT NOT NULL DEFAULT '',
  display_order INT  NOT NULL DEFAULT 0
);`,
	},
	{
		Name: "create_table_catalog_services",
		SQL: `CREATE TABLE IF NOT EXISTS catalog_services (
  id            UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
  category_id   UUID NOT NULL REFERENCES catalog_categories (id),
  name          TEXT NOT NULL,
  slug          TEXT NOT NULL UNIQUE,
  description   TEXT NOT NULL DEFAULT '',
  keywords      TEXT NOT NULL DEFAULT '',
  display_order INT  NOT NULL DEFAULT 0
);`,
	},
	{
		Name: "create_table_instructor_services",
		SQL: `CREATE TABLE IF NOT EXISTS instructor_services (
  id                 UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  instructor_id      UUID        NOT NULL REFERENCES users (id),
  catalog_service_id UUID        NOT NULL REFERENCES catalog_services (id),
  hourly_rate_cents  BIGINT      NOT NULL CHECK (hourly_rate_cents > 0),
  duration_options   JSONB       NOT NULL DEFAULT '[60]',
  description        TEXT        NOT NULL DEFAULT '',
  is_active          BOOLEAN     NOT NULL DEFAULT true,
  created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_instructor_services_active",
		SQL:  `CREATE UNIQUE INDEX IF NOT EXISTS idx_instructor_services_active ON instructor_services (instructor_id, catalog_service_id) WHERE is_active;`,
	},
	{
		Name: "create_table_availability_days",
		SQL: `CREATE TABLE IF NOT EXISTS availability_days (
  instructor_id UUID        NOT NULL REFERENCES users (id),
  day           DATE        NOT NULL,
  bits          BYTEA       NOT NULL CHECK (length(bits) = 12),
  updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
  PRIMARY KEY (instructor_id, day)
);`,
	},
	{
		Name: "create_table_bookings",
		SQL: `CREATE TABLE IF NOT EXISTS bookings (
  id                    UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  student_id            UUID        NOT NULL REFERENCES users (id),
  instructor_id         UUID        NOT NULL REFERENCES users (id),
  instructor_service_id UUID        NOT NULL REFERENCES instructor_services (id),
  service_name          TEXT        NOT NULL,
  start_at              TIMESTAMPTZ NOT NULL,
  end_at                TIMESTAMPTZ NOT NULL,
  duration_minutes      INT         NOT NULL CHECK (duration_minutes > 0),
  hourly_rate_cents     BIGINT      NOT NULL,
  price_cents           BIGINT      NOT NULL CHECK (price_cents >= 0),
  student_fee_cents     BIGINT      NOT NULL CHECK (student_fee_cents >= 0),
  total_cents           BIGINT      NOT NULL CHECK (total_cents >= 0),
  credits_applied_cents BIGINT      NOT NULL DEFAULT 0,
  status                TEXT        NOT NULL,
  payment_status        TEXT        NOT NULL,
  payment_method_id     TEXT,
  payment_intent_id     TEXT,
  payout_transfer_id    TEXT,
  auth_attempts         INT         NOT NULL DEFAULT 0,
  locked_amount_cents   BIGINT      NOT NULL DEFAULT 0,
  rescheduled_from_id   UUID        REFERENCES bookings (id),
  cancelled_by          TEXT        CHECK (cancelled_by IN ('student', 'instructor', 'admin', 'system')),
  cancellation_reason   TEXT,
  cancelled_at          TIMESTAMPTZ,
  completed_at          TIMESTAMPTZ,
  created_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
  CHECK (end_at > start_at)
);`,
	},
	{
		Name: "create_index_bookings_instructor_start",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_bookings_instructor_start ON bookings (instructor_id, start_at);`,
	},
	{
		Name: "create_index_bookings_student_start",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_bookings_student_start ON bookings (student_id, start_at);`,
	},
	{
		Name: "create_index_bookings_payment_status",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_bookings_payment_status ON bookings (payment_status, start_at);`,
	},
	{
		Name: "create_index_bookings_intent",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_bookings_intent ON bookings (payment_intent_id);`,
	},
	{
		Name: "create_table_payments",
		SQL: `CREATE TABLE IF NOT EXISTS payments (
  id                    UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  booking_id            UUID        NOT NULL REFERENCES bookings (id),
  intent_id             TEXT        NOT NULL UNIQUE,
  amount_cents          BIGINT      NOT NULL,
  application_fee_cents BIGINT      NOT NULL DEFAULT 0,
  status                TEXT        NOT NULL,
  attempt               INT         NOT NULL DEFAULT 1,
  failure_reason        TEXT,
  created_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at            TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_conversations",
		SQL: `CREATE TABLE IF NOT EXISTS conversations (
  id              UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  student_id      UUID        NOT NULL REFERENCES users (id),
  instructor_id   UUID        NOT NULL REFERENCES users (id),
  last_message_at TIMESTAMPTZ,
  created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
  UNIQUE (student_id, instructor_id)
);`,
	},
	{
		Name: "create_table_messages",
		SQL: `CREATE TABLE IF NOT EXISTS messages (
  id              UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  conversation_id UUID        NOT NULL REFERENCES conversations (id),
  sender_id       UUID        NOT NULL REFERENCES users (id),
  body            TEXT        NOT NULL CHECK (length(body) BETWEEN 1 AND 2000),
  read_at         TIMESTAMPTZ,
  created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_messages_conversation_created",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_messages_conversation_created ON messages (conversation_id, created_at DESC);`,
	},
	{
		Name: "create_table_referral_codes",
		SQL: `CREATE TABLE IF NOT EXISTS referral_codes (
  user_id    UUID        PRIMARY KEY REFERENCES users (id),
  code       TEXT        NOT NULL UNIQUE,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_referral_attributions",
		SQL: `CREATE TABLE IF NOT EXISTS referral_attributions (
  id          UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  referrer_id UUID        NOT NULL REFERENCES users (id),
  referee_id  UUID        NOT NULL UNIQUE REFERENCES users (id),
  code        TEXT        NOT NULL,
  device_id   TEXT,
  ip_hash     TEXT,
  flagged     BOOLEAN     NOT NULL DEFAULT false,
  flag_reason TEXT,
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_referral_attributions_referrer",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_referral_attributions_referrer ON referral_attributions (referrer_id, created_at);`,
	},
	{
		Name: "create_table_referral_rewards",
		SQL: `CREATE TABLE IF NOT EXISTS referral_rewards (
  id             UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  attribution_id UUID        NOT NULL REFERENCES referral_attributions (id),
  beneficiary_id UUID        NOT NULL REFERENCES users (id),
  side           TEXT        NOT NULL CHECK (side IN ('referrer', 'referee')),
  amount_cents   BIGINT      NOT NULL,
  status         TEXT        NOT NULL,
  booking_id     UUID        NOT NULL REFERENCES bookings (id),
  unlock_at      TIMESTAMPTZ NOT NULL,
  unlocked_at    TIMESTAMPTZ,
  void_reason    TEXT,
  transfer_id    TEXT,
  created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
  UNIQUE (attribution_id, side)
);`,
	},
	{
		Name: "create_index_referral_rewards_due",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_referral_rewards_due ON referral_rewards (status, unlock_at);`,
	},
	{
		Name: "create_table_search_events",
		SQL: `CREATE TABLE IF NOT EXISTS search_events (
  id            UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  user_id       UUID,
  query         TEXT        NOT NULL,
  service_ids   JSONB       NOT NULL DEFAULT '[]',
  results_count INT         NOT NULL DEFAULT 0,
  created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_search_events_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_search_events_created_at ON search_events (created_at);`,
	},
	{
		Name: "create_table_service_analytics",
		SQL: `CREATE TABLE IF NOT EXISTS service_analytics (
  catalog_service_id    UUID             PRIMARY KEY REFERENCES catalog_services (id),
  bookings_7d           INT              NOT NULL DEFAULT 0,
  bookings_30d          INT              NOT NULL DEFAULT 0,
  unique_students_30d   INT              NOT NULL DEFAULT 0,
  active_instructors    INT              NOT NULL DEFAULT 0,
  avg_hourly_rate_cents BIGINT           NOT NULL DEFAULT 0,
  searches_7d           INT              NOT NULL DEFAULT 0,
  demand_score          DOUBLE PRECISION NOT NULL DEFAULT 0,
  calculated_at         TIMESTAMPTZ      NOT NULL DEFAULT now()
);`,
	},
}

// sentinelTable is created by the migration; its presence means the schema is current.
const sentinelTable = "public.service_analytics"

// EnsureMigrated checks for the sentinel table and runs every step when it is missing.
// Each step is idempotent, so a partially applied schema is completed on the next start.
func EnsureMigrated(ctx context.Context, db *sql.DB, logger zerolog.Logger, dbHost string) error {
	start := time.Now()
	log := logger.With().Str("component", "database").Str("db_host", dbHost).Logger()

	log.Info().Str("event", "db_migration_check").Str("status", "starting").Send()

	var exists bool
	err := db.QueryRowContext(ctx, "SELECT to_regclass($1) IS NOT NULL", sentinelTable).Scan(&exists)
	if err != nil {
		log.Error().
			Str("event", "db_migration_failed").
			Str("status", "error").
			Str("error_message", fmt.Sprintf("failed to check sentinel table: %v", err)).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Send()
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info().
			Str("event", "db_migration_skip").
			Str("status", "success").
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("schema already exists, skipping migration")
		return nil
	}

	log.Info().Str("event", "db_migration_start").Str("status", "in_progress").Int("steps", len(steps)).Send()

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error().
				Str("event", "db_migration_failed").
				Str("status", "error").
				Str("migration_step", step.Name).
				Str("error_message", err.Error()).
				Int64("duration_ms", time.Since(start).Milliseconds()).
				Int64("step_duration_ms", time.Since(stepStart).Milliseconds()).
				Send()
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.Debug().
			Str("event", "db_migration_step").
			Str("status", "success").
			Str("migration_step", step.Name).
			Int64("step_duration_ms", time.Since(stepStart).Milliseconds()).
			Send()
	}

	log.Info().
		Str("event", "db_migration_success").
		Str("status", "success").
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Send()

	return nil
}
