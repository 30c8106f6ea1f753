package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr        string
	Environment string
	LogLevel    string

	// AdminAPIToken protects report lookups. Empty disables the admin routes.
	AdminAPIToken string

	DatabaseURL string
	Redis       RedisConfig
	Kafka       KafkaConfig
	MRZ         MRZConfig
}

// RedisConfig configures the optional Redis report store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the optional Kafka audit sink.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string

	// AuditGroup is the consumer group that projects the audit topic into
	// Postgres when a database is also configured.
	AuditGroup string
}

// MRZConfig holds limits for the MRZ endpoints.
type MRZConfig struct {
	ReportTTL        time.Duration
	MaxInputBytes    int
	BatchMaxItems    int
	BatchConcurrency int
	AuditBufferSize  int
	CleanupInterval  time.Duration
}

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// FromEnv builds a Server config from environment variables so main stays lean.
// Every setting has a default that runs locally with in-memory backends.
func FromEnv() Server {
	return Server{
		Addr:          getEnv("MRZGATE_ADDR", ":8080"),
		Environment:   getEnv("MRZGATE_ENV", EnvDevelopment),
		LogLevel:      getEnv("MRZGATE_LOG_LEVEL", "info"),
		AdminAPIToken: os.Getenv("ADMIN_API_TOKEN"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:    splitList(os.Getenv("KAFKA_BROKERS")),
			AuditTopic: getEnv("KAFKA_AUDIT_TOPIC", "mrzgate.audit"),
			AuditGroup: getEnv("KAFKA_AUDIT_GROUP", "mrzgate-audit-projector"),
		},
		MRZ: MRZConfig{
			ReportTTL:        getDuration("REPORT_TTL", 24*time.Hour),
			MaxInputBytes:    getInt("MRZ_MAX_INPUT_BYTES", 512),
			BatchMaxItems:    getInt("BATCH_MAX_ITEMS", 100),
			BatchConcurrency: getInt("BATCH_CONCURRENCY", 8),
			AuditBufferSize:  getInt("AUDIT_BUFFER_SIZE", 1024),
			CleanupInterval:  getDuration("REPORT_CLEANUP_INTERVAL", 10*time.Minute),
		},
	}
}

// IsProduction reports whether the process runs with production defaults.
func (s Server) IsProduction() bool {
	return s.Environment == EnvProduction
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
