package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 5*time.Minute, cfg.MenuCacheTTL)
	assert.Equal(t, 5, cfg.OrderNumberAttempts)
	assert.False(t, cfg.OrderStrictTransitions)
	assert.Nil(t, cfg.Brokers())
}

func TestLoadRejectsShortSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "short")

	_, err := Load("")
	require.Error(t, err)
}

func TestLoadRejectsMissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load("")
	require.Error(t, err)
}

func TestLoadFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "JWT_SECRET=" + testSecret + "\n" +
		"HTTP_PORT=9090\n" +
		"KAFKA_BROKERS=kafka-1:9092, kafka-2:9092\n" +
		"ORDER_STRICT_TRANSITIONS=true\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.True(t, cfg.OrderStrictTransitions)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Brokers())
}
