package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/med2305/mlops/internal/infrastructure/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.HTTPAddress())
	assert.Equal(t, ":8088", cfg.GRPCAddress())
	assert.Equal(t, 0.5, cfg.FraudThreshold)
	assert.Equal(t, 1000, cfg.BatchMaxSize)
	assert.Equal(t, "dir:models/current,dir:models/fallback", cfg.ArtifactSources)
	assert.Equal(t, 30*time.Second, cfg.ArtifactLoadTimeout)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("FRAUD_THRESHOLD", "0.7")
	t.Setenv("BATCH_MAX_SIZE", "50")
	t.Setenv("ARTIFACT_SOURCES", "postgres,dir:/models")
	t.Setenv("ARTIFACT_LOAD_TIMEOUT", "5s")
	t.Setenv("KAFKA_BROKERS", "kafka:9092")
	t.Setenv("SCORING_INPUT_TOPIC", "transactions.raw")
	t.Setenv("GRPC_REFLECTION", "true")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTPAddress())
	assert.Equal(t, 0.7, cfg.FraudThreshold)
	assert.Equal(t, 50, cfg.BatchMaxSize)
	assert.Equal(t, "postgres,dir:/models", cfg.ArtifactSources)
	assert.Equal(t, 5*time.Second, cfg.ArtifactLoadTimeout)
	assert.Equal(t, "transactions.raw", cfg.ScoringInputTopic)
	assert.True(t, cfg.GRPCReflection)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		contains string
	}{
		{"unparsable threshold", "FRAUD_THRESHOLD", "high", "FRAUD_THRESHOLD"},
		{"threshold out of range", "FRAUD_THRESHOLD", "1.5", "FRAUD_THRESHOLD must be within"},
		{"zero batch size", "BATCH_MAX_SIZE", "0", "BATCH_MAX_SIZE must be positive"},
		{"bad duration", "ARTIFACT_LOAD_TIMEOUT", "soon", "ARTIFACT_LOAD_TIMEOUT"},
		{"stream without brokers", "SCORING_INPUT_TOPIC", "transactions.raw", "requires KAFKA_BROKERS"},
		{"migrations without database", "RUN_MIGRATIONS", "true", "requires DATABASE_URL"},
		{"cert without key", "GRPC_TLS_CERT_FILE", "/tls/cert.pem", "must be set together"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(tt.key, tt.value)

			_, err := config.Load()
			assert.ErrorContains(t, err, tt.contains)
		})
	}
}
