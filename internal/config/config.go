package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort string

	// Storage: sqlite (default), postgres, pgx, mysql or mongodb
	DatabaseType  string
	DatabasePath  string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string

	// Optional goal cache
	RedisURL     string
	GoalCacheTTL time.Duration

	// Teacher accounts
	JWTSecret        string
	TokenDuration    time.Duration
	RegistrationCode string

	// Reference location for "today" and "this week"
	Timezone string

	AllowedOrigins []string

	// Welcome emails (disabled when SESFromEmail is empty)
	AWSRegion    string
	SESFromEmail string
	SESFromName  string
	AppBaseURL   string
	EmailDebug   bool
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env file: %v", err)
	}

	return &Config{
		ServerPort:       getEnv("PORT", "5000"),
		DatabaseType:     getEnv("DB_TYPE", "sqlite"),
		DatabasePath:     getEnv("DB_PATH", "./resourceroom.db"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		MongoURI:         getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:    getEnv("MONGODB_DATABASE", "resource-room"),
		RedisURL:         getEnv("REDIS_URL", ""),
		GoalCacheTTL:     getDuration("GOAL_CACHE_TTL", 10*time.Minute),
		JWTSecret:        getEnv("JWT_SECRET", "your-secret-key"),
		TokenDuration:    getDuration("TOKEN_DURATION", 24*time.Hour),
		RegistrationCode: getEnv("TEACHER_REGISTRATION_CODE", ""),
		Timezone:         getEnv("TIMEZONE", "Local"),
		AllowedOrigins:   getList("ALLOWED_ORIGINS", getEnv("FRONTEND_URL", "")),
		AWSRegion:        getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail:     getEnv("SES_FROM_EMAIL", ""),
		SESFromName:      getEnv("SES_FROM_NAME", "Resource Room"),
		AppBaseURL:       getEnv("APP_BASE_URL", "http://localhost:3000"),
		EmailDebug:       getBool("EMAIL_DEBUG", false),
	}
}

// Location resolves the configured timezone, falling back to the process local zone
func (c *Config) Location() *time.Location {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "Local") {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("Warning: unknown timezone %q, using local time: %v", c.Timezone, err)
		return time.Local
	}
	return loc
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Warning: invalid duration for %s=%q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

func getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

// getList splits a comma separated variable, falling back to a single default entry
func getList(key, fallback string) []string {
	raw := getEnv(key, fallback)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
