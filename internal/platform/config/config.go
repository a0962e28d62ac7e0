// Package config loads process configuration from the environment so main
// stays lean. Every knob has a development default; deployments override
// through ATTESTRY_* variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	pstrings "attestry/pkg/platform/strings"
)

// Config is the full process configuration.
type Config struct {
	Server   Server
	Auth     Auth
	Keys     Keys
	CAS      CAS
	Redis    Redis
	Postgres Postgres
	Kafka    Kafka
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	LogLevel        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// Auth configures bearer-token verification.
type Auth struct {
	JWTSigningKey string
	Issuer        string
	Audience      string
	TokenTTL      time.Duration
}

// Keys holds the service's recipient key material, hex encoded. The public
// key seals uploaded documents; the private key serves validation requests.
// Key custody stays with the deployment; this process only reads what the
// environment hands it.
type Keys struct {
	RecipientPublicKey  string
	RecipientPrivateKey string
	OwnerPrincipal      string
}

// CAS selects and configures the content-addressed store backend.
type CAS struct {
	// Backend is one of memory, localfs, ipfs, grpc.
	Backend string
	// Dir is the localfs root.
	Dir string
	// IPFSAPIAddr is the Kubo HTTP API base URL.
	IPFSAPIAddr string
	// GRPCAddr is the remote blob-store node address.
	GRPCAddr string
	// RequestTimeout bounds individual store calls.
	RequestTimeout time.Duration
}

// Redis configures the optional CAS read-through cache. An empty URL
// disables it.
type Redis struct {
	URL          string
	CacheTTL     time.Duration
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Postgres configures the optional persistent ledger store. An empty DSN
// selects the in-memory store.
type Postgres struct {
	DSN string
}

// Kafka configures the optional ledger event stream. No brokers disables
// publishing.
type Kafka struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:            getenv("ATTESTRY_ADDR", ":8080"),
			LogLevel:        getenv("ATTESTRY_LOG_LEVEL", "info"),
			RequestTimeout:  getenvDuration("ATTESTRY_REQUEST_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getenvDuration("ATTESTRY_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Auth: Auth{
			// Development default; override in production.
			JWTSigningKey: getenv("ATTESTRY_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			Issuer:        getenv("ATTESTRY_JWT_ISSUER", "attestry"),
			Audience:      getenv("ATTESTRY_JWT_AUDIENCE", "attestry-api"),
			TokenTTL:      getenvDuration("ATTESTRY_JWT_TTL", time.Hour),
		},
		Keys: Keys{
			RecipientPublicKey:  os.Getenv("ATTESTRY_RECIPIENT_PUBLIC_KEY"),
			RecipientPrivateKey: os.Getenv("ATTESTRY_RECIPIENT_PRIVATE_KEY"),
			OwnerPrincipal:      os.Getenv("ATTESTRY_OWNER_PRINCIPAL"),
		},
		CAS: CAS{
			Backend:        getenv("ATTESTRY_CAS_BACKEND", "memory"),
			Dir:            getenv("ATTESTRY_CAS_DIR", "./data/cas"),
			IPFSAPIAddr:    getenv("ATTESTRY_IPFS_API", "http://127.0.0.1:5001"),
			GRPCAddr:       os.Getenv("ATTESTRY_CAS_GRPC_ADDR"),
			RequestTimeout: getenvDuration("ATTESTRY_CAS_TIMEOUT", 10*time.Second),
		},
		Redis: Redis{
			URL:          os.Getenv("ATTESTRY_REDIS_URL"),
			CacheTTL:     getenvDuration("ATTESTRY_REDIS_CACHE_TTL", time.Hour),
			PoolSize:     getenvInt("ATTESTRY_REDIS_POOL_SIZE", 10),
			MinIdleConns: getenvInt("ATTESTRY_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getenvDuration("ATTESTRY_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getenvDuration("ATTESTRY_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getenvDuration("ATTESTRY_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: Postgres{
			DSN: os.Getenv("ATTESTRY_POSTGRES_DSN"),
		},
		Kafka: Kafka{
			Brokers: pstrings.DedupeAndTrim(splitList(os.Getenv("ATTESTRY_KAFKA_BROKERS"))),
			Topic:   getenv("ATTESTRY_KAFKA_TOPIC", "attestry.ledger.events"),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	return strings.Split(v, ",")
}
