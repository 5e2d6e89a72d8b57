package config

import (
	"os"
	"strings"
	"time"
)

// EmergencyRequestTTL is how long an anonymous emergency request stays active
// before it is treated as expired. Expiry is evaluated at read time.
var EmergencyRequestTTL = 24 * time.Hour

// Config captures process-level configuration.
type Config struct {
	Addr          string
	PostgresDSN   string
	RedisURL      string
	KafkaBrokers  []string
	KafkaTopic    string
	JWTSigningKey string
	SeedDemoData  bool
}

// FromEnv builds a Config from environment variables so main stays lean.
// Empty PostgresDSN/RedisURL/KafkaBrokers select the in-memory equivalents,
// which keeps local development dependency-free.
func FromEnv() Config {
	addr := os.Getenv("BLOODBANK_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	topic := os.Getenv("BLOODBANK_KAFKA_TOPIC")
	if topic == "" {
		topic = "bloodbank.events"
	}

	var brokers []string
	if raw := os.Getenv("BLOODBANK_KAFKA_BROKERS"); raw != "" {
		brokers = strings.Split(raw, ",")
	}

	jwtSigningKey := os.Getenv("BLOODBANK_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Config{
		Addr:          addr,
		PostgresDSN:   os.Getenv("BLOODBANK_POSTGRES_DSN"),
		RedisURL:      os.Getenv("BLOODBANK_REDIS_URL"),
		KafkaBrokers:  brokers,
		KafkaTopic:    topic,
		JWTSigningKey: jwtSigningKey,
		SeedDemoData:  os.Getenv("BLOODBANK_SEED_DEMO") == "true",
	}
}
