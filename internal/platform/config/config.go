package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	pkgstrings "github.com/notorious-utopia/egrn/pkg/platform/strings"
)

// Config captures everything the server needs from its environment so main
// stays lean. Every field has a development default; production deployments
// override via environment variables.
type Config struct {
	Addr string

	// Postgres connection string. Empty means in-memory stores (dev mode).
	DatabaseURL string

	// Redis connection URL for the cross-replica reconciliation lease.
	// Empty means the in-process lock alone guards pass overlap.
	RedisURL string

	Registry Registry
	Mail     Mail
	Audit    Audit

	// PollInterval is the fixed delay between reconciliation passes.
	PollInterval time.Duration

	// ReconcileWorkers bounds concurrent per-user reconciliation.
	ReconcileWorkers int

	// JWTSigningKey verifies bearer tokens minted by the front-end collaborator.
	JWTSigningKey string

	// OperatorKeyHash is the bcrypt hash of the key guarding admin endpoints.
	// Empty disables the admin surface.
	OperatorKeyHash string
}

// Registry configures the upstream property-registry API client.
type Registry struct {
	BaseURL   string
	AuthToken string
	Timeout   time.Duration
}

// Mail configures the outbound SMTP relay for order notifications.
type Mail struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
}

// Audit configures the transition audit trail sink.
type Audit struct {
	// KafkaBrokers lists seed broker addresses; empty keeps the
	// database store as the only sink.
	KafkaBrokers []string
	KafkaTopic   string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:        getEnv("EGRN_ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		Registry: Registry{
			BaseURL:   getEnv("REGISTRY_BASE_URL", "https://reestr-api.ru/v1"),
			AuthToken: os.Getenv("REGISTRY_API_TOKEN"),
			Timeout:   getDuration("REGISTRY_TIMEOUT", 15*time.Second),
		},
		Mail: Mail{
			Host:     os.Getenv("MAIL_SERVER"),
			Port:     getInt("MAIL_PORT", 587),
			Username: os.Getenv("MAIL_USERNAME"),
			Password: os.Getenv("MAIL_PASSWORD"),
			Sender:   getEnv("MAIL_SENDER", "egrn_helper@notoriousutopia.org"),
		},
		PollInterval:     getDuration("POLL_INTERVAL", 60*time.Second),
		ReconcileWorkers: getInt("RECONCILE_WORKERS", 4),
		JWTSigningKey:    getEnv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		OperatorKeyHash:  os.Getenv("OPERATOR_KEY_HASH"),
	}

	if brokers := os.Getenv("AUDIT_KAFKA_BROKERS"); brokers != "" {
		cfg.Audit.KafkaBrokers = splitBrokers(brokers)
		cfg.Audit.KafkaTopic = getEnv("AUDIT_KAFKA_TOPIC", "egrn.order-transitions")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func splitBrokers(s string) []string {
	return pkgstrings.DedupeAndTrim(strings.Split(s, ","))
}
