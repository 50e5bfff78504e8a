package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server reads from the environment
type Config struct {
	Port     string
	LogLevel string
	LogFile  string

	AWSRegion      string
	DynamoEndpoint string
	ProfileTable   string
	AccountsTable  string
	RoundsTable    string

	AvatarBucket        string
	AvatarPublicBaseURL string

	JWTSecret       []byte
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	RedisAddr     string
	RedisPassword string

	GolfAPIKey     string
	GolfAPIBaseURL string

	CORSOrigins []string
}

// Load reads a .env file when present and then the process environment
func Load() (*Config, error) {
	// .env is optional; deployed environments set real variables
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function so tests can supply their own values
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := &Config{
		Port:     get("PORT", "8080"),
		LogLevel: get("LOG_LEVEL", "info"),
		LogFile:  get("LOG_FILE", "server.log"),

		AWSRegion:      get("AWS_REGION", "us-east-1"),
		DynamoEndpoint: get("DYNAMO_ENDPOINT", ""),
		ProfileTable:   get("PROFILE_TABLE", "profile"),
		AccountsTable:  get("ACCOUNTS_TABLE", "accounts"),
		RoundsTable:    get("ROUNDS_TABLE", "rounds"),

		AvatarBucket:        get("AVATAR_BUCKET", "avatars"),
		AvatarPublicBaseURL: get("AVATAR_PUBLIC_BASE_URL", ""),

		JWTSecret: []byte(get("JWT_SECRET", "")),

		RedisAddr:     get("REDIS_ADDR", "localhost:6379"),
		RedisPassword: get("REDIS_PASSWORD", ""),

		GolfAPIKey:     get("GOLF_API_KEY", ""),
		GolfAPIBaseURL: get("GOLF_API_BASE_URL", "https://api.golfcourseapi.com/v1"),
	}

	if len(cfg.JWTSecret) == 0 {
		return nil, errors.New("JWT_SECRET environment variable is required")
	}

	var err error
	if cfg.AccessTokenTTL, err = time.ParseDuration(get("ACCESS_TOKEN_TTL", "1h")); err != nil {
		return nil, fmt.Errorf("invalid ACCESS_TOKEN_TTL: %w", err)
	}
	if cfg.RefreshTokenTTL, err = time.ParseDuration(get("REFRESH_TOKEN_TTL", "720h")); err != nil {
		return nil, fmt.Errorf("invalid REFRESH_TOKEN_TTL: %w", err)
	}

	if cfg.AvatarPublicBaseURL == "" {
		cfg.AvatarPublicBaseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.AvatarBucket, cfg.AWSRegion)
	}

	for _, origin := range strings.Split(get("CORS_ORIGINS", "*"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}

	return cfg, nil
}
