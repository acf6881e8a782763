package config

import (
	"os"
	"strconv"
	"time"
)

// Auth contains configuration for verifying bearer tokens issued by the
// external identity service.
type Auth struct {
	AccessKey string // JWT signing key shared with the identity service
}

// Mongo contains configuration for the MongoDB connection.
type Mongo struct {
	URL                  string // MongoDB connection URI
	Database             string // Database name
	DocumentDBBundlePath string // Path to the DocumentDB CA bundle; empty disables TLS setup
}

// Storage contains configuration for ciphertext storage.
type Storage struct {
	Type       string // "inline" (ciphertext on the item document) or "s3"
	S3ID       string // AWS S3 Access Key ID
	S3Key      string // AWS S3 Secret Access Key
	S3Bucket   string // AWS S3 bucket name
	S3Region   string // AWS region
	S3Endpoint string // Custom endpoint for MinIO-style deployments
}

// Redis contains configuration for the optional item metadata cache.
// An empty Addr disables caching.
type Redis struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Vault contains the vault subsystem's own tunables.
type Vault struct {
	MasterEncryptionKey string        // Master secret for file key derivation
	MaxUploadBytes      int64         // Upload size limit, enforced uniformly
	PinAttemptsPerMin   float64       // Sustained verify-pin attempts allowed per user
	PinAttemptBurst     int           // Burst of verify-pin attempts allowed per user
	RequestTimeout      time.Duration // Per-request deadline on vault operations
}

// HTTP contains configuration for the HTTP server.
type HTTP struct {
	Port     string // Address for the server to listen on
	KeyPath  string // Path to SSL key file for HTTPS
	CertPath string // Path to SSL certificate file for HTTPS
}

// Config is the top-level struct holding all application configuration.
type Config struct {
	Auth    Auth
	Mongo   Mongo
	Storage Storage
	Redis   Redis
	Vault   Vault
	HTTP    HTTP
}

// Load reads configuration from environment variables and returns a populated
// Config struct. It uses helper functions to read specific types and provide
// default values.
func Load() (*Config, error) {
	redisDB, err := getenvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Auth: Auth{
			AccessKey: getenvStr("PASSWORD_ACCESS", ""),
		},
		Mongo: Mongo{
			URL:                  getenvStr("MONGODB_URL", "mongodb://localhost:27017"),
			Database:             getenvStr("MONGODB_DATABASE", "teamvault"),
			DocumentDBBundlePath: getenvStr("DOCUMENT_DB_BUNDLE_PATH", ""),
		},
		Storage: Storage{
			Type:       getenvStr("STORAGE_TYPE", "inline"), // "inline" or "s3"
			S3ID:       getenvStr("S3_ID", ""),
			S3Key:      getenvStr("S3_KEY", ""),
			S3Bucket:   getenvStr("S3_BUCKET", ""),
			S3Region:   getenvStr("S3_REGION", "us-east-1"),
			S3Endpoint: getenvStr("S3_ENDPOINT", ""),
		},
		Redis: Redis{
			Addr:     getenvStr("REDIS_ADDR", ""),
			Password: getenvStr("REDIS_PASSWORD", ""),
			DB:       redisDB,
			TTL:      getenvDuration("REDIS_TTL", 5*time.Minute),
		},
		Vault: Vault{
			MasterEncryptionKey: getenvStr("KEY", ""),
			MaxUploadBytes:      getenvInt64("MAX_UPLOAD_BYTES", 100<<20), // 100 MiB
			PinAttemptsPerMin:   getenvFloat("PIN_ATTEMPTS_PER_MIN", 5),
			PinAttemptBurst:     5,
			RequestTimeout:      getenvDuration("REQUEST_TIMEOUT", 30*time.Second),
		},
		HTTP: HTTP{
			Port:     getenvStr("PORT", ":8080"),
			KeyPath:  getenvStr("HTTPS_KEY_PATH", ""),
			CertPath: getenvStr("HTTPS_CRT_PATH", ""),
		},
	}
	return cfg, nil
}

// -------Helper Functions----------

// getenvStr retrieves a string environment variable or returns a default.
func getenvStr(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// getenvInt retrieves an integer environment variable or returns a default value.
func getenvInt(key string, fallback int) (int, error) {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i, nil
		} else {
			return 0, err
		}
	}
	return fallback, nil
}

// getenvInt64 retrieves a 64-bit integer environment variable or returns a default value.
func getenvInt64(key string, fallback int64) int64 {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

// getenvFloat retrieves a float environment variable or returns a default value.
func getenvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

// getenvDuration retrieves a duration environment variable or returns a default value.
func getenvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
