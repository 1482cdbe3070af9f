package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Store drivers
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

type Config struct {
	ServerAddr string
	APIPrefix  string

	JWTSecret          string
	JWTSecretGenerated bool
	TokenTTL           time.Duration
	BcryptCost         int

	StoreDriver   string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string

	RedisAddr       string
	ContactCacheTTL time.Duration

	CORSAllowedOrigins []string
	DisclosurePolicy   string

	LogLevel       string
	LogDevelopment bool
	MetricsEnabled bool
}

// Load reads the configuration from the environment. A .env file in the
// working directory, when present, is loaded first; variables already set in
// the environment win.
func Load() *Config {
	_ = godotenv.Load()

	secret := os.Getenv("JWT_SECRET")
	generated := false
	if secret == "" {
		secret = generateDefaultSecret()
		generated = true
	}

	return &Config{
		ServerAddr:         getEnvOrDefault("SERVER_ADDR", ":8080"),
		APIPrefix:          strings.TrimRight(getEnvOrDefault("API_PREFIX", "/v1/api"), "/"),
		JWTSecret:          secret,
		JWTSecretGenerated: generated,
		TokenTTL:           getDurationOrDefault("TOKEN_TTL", 24*time.Hour),
		BcryptCost:         getIntOrDefault("BCRYPT_COST", 12),
		StoreDriver:        strings.ToLower(getEnvOrDefault("STORE_DRIVER", DriverPostgres)),
		DatabaseURL:        getEnvOrDefault("DATABASE_URL", "postgres://localhost:5432/contactbook?sslmode=disable"),
		MongoURI:           getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:      getEnvOrDefault("MONGO_DATABASE", "contactbook"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		ContactCacheTTL:    getDurationOrDefault("CONTACT_CACHE_TTL", 5*time.Minute),
		CORSAllowedOrigins: splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),
		DisclosurePolicy:   strings.ToLower(getEnvOrDefault("DISCLOSURE_POLICY", "distinguish")),
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
		LogDevelopment:     getBoolOrDefault("LOG_DEVELOPMENT", false),
		MetricsEnabled:     getBoolOrDefault("METRICS_ENABLED", true),
	}
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverPostgres, DriverMongo, DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, c.BcryptCost)
	}
	switch c.DisclosurePolicy {
	case "distinguish", "uniform":
	default:
		return fmt.Errorf("unknown DISCLOSURE_POLICY %q", c.DisclosurePolicy)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func generateDefaultSecret() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "dev-secret-change-in-production"
	}
	return hex.EncodeToString(bytes)
}
