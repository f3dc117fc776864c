package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL string

	// Auth0
	Auth0Domain   string
	Auth0Audience string

	// Server
	Port        string
	CORSOrigins []string
	Env         string

	// Close requests allowed per operator per minute
	CloseRateLimit int

	// Live reconcile previews allowed per operator per minute
	ReconcileRateLimit int

	// Timezone branches cut their business day in
	BranchTimezone *time.Location

	// Base URLs advertised in /openapi.json
	OpenAPIServers []string

	// Redis (optional; empty address disables locking and the crew location feed)
	Redis RedisConfig

	// S3 closing archive (optional; empty bucket disables archiving)
	S3 S3Config

	// Crew location feed
	Location LocationConfig
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Address  string
	Password string
}

// Enabled reports whether a Redis address was configured
func (r RedisConfig) Enabled() bool {
	return r.Address != ""
}

// S3Config holds AWS S3 configuration
type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // Optional: for MinIO/LocalStack local dev
}

// Enabled reports whether a bucket was configured
func (s S3Config) Enabled() bool {
	return s.Bucket != ""
}

// LocationConfig holds crew location polling settings
type LocationConfig struct {
	PollInterval  time.Duration
	Branches      []int32
	CrewPerBranch int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	pollInterval, err := time.ParseDuration(getEnv("LOCATION_POLL_INTERVAL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("LOCATION_POLL_INTERVAL: %w", err)
	}

	branches, err := parseBranchIDs(getEnv("LOCATION_BRANCHES", ""))
	if err != nil {
		return nil, fmt.Errorf("LOCATION_BRANCHES: %w", err)
	}

	crewPerBranch, err := strconv.Atoi(getEnv("LOCATION_CREW_PER_BRANCH", "4"))
	if err != nil {
		return nil, fmt.Errorf("LOCATION_CREW_PER_BRANCH: %w", err)
	}

	closeRateLimit, err := strconv.Atoi(getEnv("CLOSE_RATE_LIMIT", "30"))
	if err != nil {
		return nil, fmt.Errorf("CLOSE_RATE_LIMIT: %w", err)
	}

	reconcileRateLimit, err := strconv.Atoi(getEnv("RECONCILE_RATE_LIMIT", "600"))
	if err != nil {
		return nil, fmt.Errorf("RECONCILE_RATE_LIMIT: %w", err)
	}

	branchTimezone, err := time.LoadLocation(getEnv("BRANCH_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("BRANCH_TIMEZONE: %w", err)
	}

	port := getEnv("PORT", "8080")

	cfg := &Config{
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		Auth0Domain:        getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience:      getEnv("AUTH0_AUDIENCE", ""),
		Port:               port,
		CORSOrigins:        strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		Env:                getEnv("ENV", "development"),
		CloseRateLimit:     closeRateLimit,
		ReconcileRateLimit: reconcileRateLimit,
		BranchTimezone:     branchTimezone,
		OpenAPIServers:     splitList(getEnv("OPENAPI_SERVERS", "http://localhost:"+port+"/api/v1")),
		Redis: RedisConfig{
			Address:  getEnv("REDIS_ADDRESS", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		S3: S3Config{
			Region:          getEnv("S3_REGION", "us-east-1"),
			Bucket:          getEnv("S3_BUCKET", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Endpoint:        getEnv("S3_ENDPOINT", ""), // Empty = use AWS, set for MinIO/LocalStack
		},
		Location: LocationConfig{
			PollInterval:  pollInterval,
			Branches:      branches,
			CrewPerBranch: crewPerBranch,
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsProduction reports whether ENV is "production"
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Auth0Domain == "" {
		return fmt.Errorf("AUTH0_DOMAIN is required")
	}
	if c.Auth0Audience == "" {
		return fmt.Errorf("AUTH0_AUDIENCE is required")
	}
	if c.Location.PollInterval <= 0 {
		return fmt.Errorf("LOCATION_POLL_INTERVAL must be positive")
	}
	if c.CloseRateLimit <= 0 {
		return fmt.Errorf("CLOSE_RATE_LIMIT must be positive")
	}
	if c.ReconcileRateLimit <= 0 {
		return fmt.Errorf("RECONCILE_RATE_LIMIT must be positive")
	}
	return nil
}

// parseBranchIDs parses a comma-separated list of branch IDs; blanks are skipped
func parseBranchIDs(raw string) ([]int32, error) {
	var ids []int32
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid branch id %q", part)
		}
		ids = append(ids, int32(id))
	}
	return ids, nil
}

// splitList splits a comma-separated value, dropping blanks
func splitList(raw string) []string {
	var items []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
