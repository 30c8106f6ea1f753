package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{
		"MRZGATE_ADDR", "MRZGATE_ENV", "DATABASE_URL", "REDIS_URL", "KAFKA_BROKERS",
		"REPORT_TTL", "BATCH_MAX_ITEMS", "BATCH_CONCURRENCY", "ADMIN_API_TOKEN", "REPORT_CLEANUP_INTERVAL", "KAFKA_AUDIT_GROUP",
	} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.False(t, cfg.IsProduction())
	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "mrzgate.audit", cfg.Kafka.AuditTopic)
	assert.Equal(t, "mrzgate-audit-projector", cfg.Kafka.AuditGroup)
	assert.Equal(t, 24*time.Hour, cfg.MRZ.ReportTTL)
	assert.Equal(t, 512, cfg.MRZ.MaxInputBytes)
	assert.Equal(t, 100, cfg.MRZ.BatchMaxItems)
	assert.Equal(t, 8, cfg.MRZ.BatchConcurrency)
	assert.Equal(t, 10, cfg.Redis.PoolSize)
	assert.Equal(t, 10*time.Minute, cfg.MRZ.CleanupInterval)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("MRZGATE_ADDR", ":9090")
	t.Setenv("MRZGATE_ENV", "production")
	t.Setenv("KAFKA_BROKERS", " kafka-1:9092, ,kafka-2:9092 ")
	t.Setenv("REPORT_TTL", "90m")
	t.Setenv("BATCH_MAX_ITEMS", "25")
	t.Setenv("BATCH_CONCURRENCY", "-3")
	t.Setenv("REDIS_DIAL_TIMEOUT", "not-a-duration")

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 90*time.Minute, cfg.MRZ.ReportTTL)
	assert.Equal(t, 25, cfg.MRZ.BatchMaxItems)
	assert.Equal(t, 8, cfg.MRZ.BatchConcurrency, "non-positive values fall back")
	assert.Equal(t, 5*time.Second, cfg.Redis.DialTimeout)
}
