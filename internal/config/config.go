package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	defaultPort                = "8080"
	defaultDatabaseURL         = "ridebooking.db"
	defaultJWTSecret           = "change-me-jwt-secret"
	defaultJWTAccessTTL        = "15m"
	defaultLogPath             = "logs/"
	defaultKafkaTopic          = "booking-events"
	defaultMinPickupLead       = "30m"
	defaultOfferResponseWindow = "15m"
	defaultExpiryInterval      = "1m"
)

type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	JWTSecret    string
	JWTAccessTTL time.Duration

	LogPath string
	Debug   bool

	KafkaBrokers []string
	KafkaTopic   string

	PaymentOracleURL string

	MinPickupLead       time.Duration
	OfferResponseWindow time.Duration
	ExpiryInterval      time.Duration

	CORSOrigins []string
}

func Load() (*Config, error) {
	cfg := &Config{}

	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.Port = getEnv("PORT", defaultPort)
	cfg.DatabaseURL = getEnv("DATABASE_URL", defaultDatabaseURL)
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.LogPath = getEnv("LOG_PATH", defaultLogPath)
	cfg.Debug = parseBoolEnv("DEBUG", "false")
	cfg.KafkaTopic = getEnv("KAFKA_TOPIC", defaultKafkaTopic)
	cfg.PaymentOracleURL = strings.TrimSpace(os.Getenv("PAYMENT_ORACLE_URL"))

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			b = strings.TrimSpace(b)
			if b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}

	var err error
	cfg.JWTAccessTTL, err = parseDurationEnv("JWT_ACCESS_TTL", defaultJWTAccessTTL)
	if err != nil {
		return nil, err
	}
	cfg.MinPickupLead, err = parseDurationEnv("MIN_PICKUP_LEAD", defaultMinPickupLead)
	if err != nil {
		return nil, err
	}
	cfg.OfferResponseWindow, err = parseDurationEnv("OFFER_RESPONSE_WINDOW", defaultOfferResponseWindow)
	if err != nil {
		return nil, err
	}
	cfg.ExpiryInterval, err = parseDurationEnv("EXPIRY_INTERVAL", defaultExpiryInterval)
	if err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.JWTAccessTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TTL must be > 0")
	}
	if cfg.MinPickupLead < 0 {
		return fmt.Errorf("MIN_PICKUP_LEAD must be >= 0")
	}
	if cfg.OfferResponseWindow <= 0 {
		return fmt.Errorf("OFFER_RESPONSE_WINDOW must be > 0")
	}
	if cfg.ExpiryInterval <= 0 {
		return fmt.Errorf("EXPIRY_INTERVAL must be > 0")
	}

	if isProdLike(cfg.AppEnv) {
		if cfg.JWTSecret == "" || cfg.JWTSecret == defaultJWTSecret {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
	}
	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseBoolEnv(name, fallback string) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(name, fallback)))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
