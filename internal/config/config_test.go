package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "importflow-worker", cfg.KafkaGroupID)
	assert.Equal(t, "file-uploads", cfg.KafkaTopic)
	assert.Equal(t, "imports", cfg.S3Bucket)
	assert.True(t, cfg.S3PathStyle)
	assert.False(t, cfg.S3UseSSL)
	assert.Equal(t, 15*time.Minute, cfg.CycleInterval)
	assert.Equal(t, 5*time.Second, cfg.SourceIdleWait)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("IMPORTFLOW_KAFKA_TOPIC", "contacts-landed")
	t.Setenv("IMPORTFLOW_S3_BUCKET", "landing-zone")
	t.Setenv("IMPORTFLOW_CYCLE_INTERVAL", "1m")
	t.Setenv("IMPORTFLOW_LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "contacts-landed", cfg.KafkaTopic)
	assert.Equal(t, "landing-zone", cfg.S3Bucket)
	assert.Equal(t, time.Minute, cfg.CycleInterval)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadRejectsNonPositiveDurations(t *testing.T) {
	t.Setenv("IMPORTFLOW_CYCLE_INTERVAL", "0s")
	t.Setenv("IMPORTFLOW_SOURCE_IDLE_WAIT", "-5s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, cfg.CycleInterval)
	assert.Equal(t, 5*time.Second, cfg.SourceIdleWait)
}
