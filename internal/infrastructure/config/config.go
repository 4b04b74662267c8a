package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the scoring service.
type Config struct {
	GRPCPort     string
	HTTPPort     string
	Environment  string
	LogLevel     string
	LogFormat    string
	DatabaseURL  string
	KafkaBrokers string
	JWTSecret    string
	OTLPEndpoint string

	ArtifactSources     string
	ArtifactLoadTimeout time.Duration

	FraudEventsTopic     string
	ScoringInputTopic    string
	ScoringConsumerGroup string

	TLSCertFile string
	TLSKeyFile  string

	FraudThreshold float64
	RateLimitRPS   float64
	BatchMaxSize   int
	BatchWorkers   int

	RunMigrations  bool
	MigrationsPath string
	GRPCReflection bool
}

// Load reads configuration from environment variables with sensible
// defaults. Variables from a .env file in the working directory are applied
// first without overriding the real environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var errs []error
	cfg := &Config{
		GRPCPort:     getEnv("GRPC_PORT", "8088"),
		HTTPPort:     getEnv("HTTP_PORT", "8000"),
		Environment:  getEnv("ENVIRONMENT", "development"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFormat:    getEnv("LOG_FORMAT", "text"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		KafkaBrokers: getEnv("KAFKA_BROKERS", ""),
		JWTSecret:    getEnv("JWT_SECRET", ""),
		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		ArtifactSources:     getEnv("ARTIFACT_SOURCES", "dir:models/current,dir:models/fallback"),
		ArtifactLoadTimeout: getDuration("ARTIFACT_LOAD_TIMEOUT", 30*time.Second, &errs),

		FraudEventsTopic:     getEnv("FRAUD_EVENTS_TOPIC", "fraud.events"),
		ScoringInputTopic:    getEnv("SCORING_INPUT_TOPIC", ""),
		ScoringConsumerGroup: getEnv("SCORING_CONSUMER_GROUP", "fraud-scorer"),

		TLSCertFile: getEnv("GRPC_TLS_CERT_FILE", ""),
		TLSKeyFile:  getEnv("GRPC_TLS_KEY_FILE", ""),

		FraudThreshold: getFloat("FRAUD_THRESHOLD", 0.5, &errs),
		RateLimitRPS:   getFloat("RATE_LIMIT_RPS", 0, &errs),
		BatchMaxSize:   getInt("BATCH_MAX_SIZE", 1000, &errs),
		BatchWorkers:   getInt("BATCH_WORKERS", 0, &errs),

		RunMigrations:  getBool("RUN_MIGRATIONS", false, &errs),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "file://migrations"),
		GRPCReflection: getBool("GRPC_REFLECTION", false, &errs),
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.FraudThreshold < 0 || c.FraudThreshold > 1 {
		errs = append(errs, fmt.Errorf("FRAUD_THRESHOLD must be within [0, 1], got %v", c.FraudThreshold))
	}
	if c.BatchMaxSize <= 0 {
		errs = append(errs, fmt.Errorf("BATCH_MAX_SIZE must be positive, got %d", c.BatchMaxSize))
	}
	if c.BatchWorkers < 0 {
		errs = append(errs, fmt.Errorf("BATCH_WORKERS must not be negative, got %d", c.BatchWorkers))
	}
	if c.RateLimitRPS < 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_RPS must not be negative, got %v", c.RateLimitRPS))
	}
	if c.ScoringInputTopic != "" && c.KafkaBrokers == "" {
		errs = append(errs, errors.New("SCORING_INPUT_TOPIC requires KAFKA_BROKERS"))
	}
	if c.RunMigrations && c.DatabaseURL == "" {
		errs = append(errs, errors.New("RUN_MIGRATIONS requires DATABASE_URL"))
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		errs = append(errs, errors.New("GRPC_TLS_CERT_FILE and GRPC_TLS_KEY_FILE must be set together"))
	}
	return errors.Join(errs...)
}

// GRPCAddress returns the full gRPC listen address.
func (c *Config) GRPCAddress() string {
	return fmt.Sprintf(":%s", c.GRPCPort)
}

// HTTPAddress returns the full HTTP listen address.
func (c *Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.HTTPPort)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64, errs *[]error) float64 {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return v
}

func getInt(key string, defaultValue int, errs *[]error) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return v
}

func getBool(key string, defaultValue bool, errs *[]error) bool {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return v
}

func getDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return v
}
