package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"dispatch/internal/adapters/out/notify"
	"dispatch/internal/core/application/dispatch"
	"dispatch/internal/jobs"
	"dispatch/internal/pkg/errs"

	"github.com/joho/godotenv"
)

// Config is the process configuration read from the environment.
type Config struct {
	HTTPPort   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	// AMQPURL is the broker of the push gateway; empty means notifications are only logged.
	AMQPURL          string
	AMQPPushExchange string

	Dispatch dispatch.Settings
	Jobs     jobs.Specs
}

// LoadConfig reads the configuration from the environment, after loading the
// optional env file at path. Missing variables take their defaults.
func LoadConfig(path string) (Config, error) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return configFromEnv(os.Getenv)
}

func configFromEnv(getenv func(string) string) (Config, error) {
	env := func(key, fallback string) string {
		if value := getenv(key); value != "" {
			return value
		}
		return fallback
	}

	cfg := Config{
		HTTPPort:         env("HTTP_PORT", "8082"),
		DBHost:           env("DB_HOST", "localhost"),
		DBPort:           env("DB_PORT", "5432"),
		DBUser:           env("DB_USER", "postgres"),
		DBPassword:       getenv("DB_PASSWORD"),
		DBName:           env("DB_NAME", "dispatch"),
		DBSslMode:        env("DB_SSLMODE", "disable"),
		AMQPURL:          getenv("AMQP_URL"),
		AMQPPushExchange: env("AMQP_PUSH_EXCHANGE", notify.DefaultExchange),
		Dispatch:         dispatch.DefaultSettings(),
		Jobs: jobs.Specs{
			PendingScan: env("JOB_PENDING_SCAN_SPEC", jobs.DefaultPendingScanSpec),
			Recovery:    env("JOB_RECOVERY_SPEC", jobs.DefaultRecoverySpec),
		},
	}

	var problems []error
	duration := func(key string, target *time.Duration) {
		raw := getenv(key)
		if raw == "" {
			return
		}
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			problems = append(problems, errs.NewValueIsInvalidErrorWithCause(key, err))
			return
		}
		*target = parsed
	}

	duration("DISPATCH_ACCEPTANCE_WINDOW", &cfg.Dispatch.AcceptanceWindow)
	duration("DISPATCH_SEEKING_WINDOW", &cfg.Dispatch.SeekingWindow)
	duration("DISPATCH_REJECTION_COOLDOWN", &cfg.Dispatch.RejectionCooldown)
	duration("DISPATCH_AVAILABILITY_DEBOUNCE", &cfg.Dispatch.AvailabilityDebounce)

	if raw := getenv("DISPATCH_AVAILABILITY_SCAN"); raw != "" {
		mode, err := dispatch.ParseScanMode(raw)
		if err != nil {
			problems = append(problems, err)
		} else {
			cfg.Dispatch.AvailabilityScan = mode
		}
	}

	if raw := getenv("DISPATCH_REQUIRE_ACTIVE"); raw != "" {
		requireActive, err := strconv.ParseBool(raw)
		if err != nil {
			problems = append(problems, errs.NewValueIsInvalidErrorWithCause("DISPATCH_REQUIRE_ACTIVE", err))
		} else {
			cfg.Dispatch.RequireActiveCourier = requireActive
		}
	}

	if len(problems) == 0 {
		problems = append(problems, cfg.Dispatch.Validate())
	}
	if err := errors.Join(problems...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DSN is the PostgreSQL connection string used by gorm and by the change feeds.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}
