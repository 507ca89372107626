package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config fields from environment variables. A .env file in
// the working directory is loaded first if present; a missing file is fine.
//
// Recognized variables:
//
//	ADDRESS                       HTTP bind address
//	DATABASE_DSN                  PostgreSQL DSN
//	SECRET_KEY                    JWT HMAC secret
//	ACCESS_TOKEN_LIFETIME_DAYS    access token validity, days
//	REFRESH_TOKEN_LIFETIME_DAYS   refresh token validity, days
//	BCRYPT_COST                   bcrypt work factor
//	REDIS_ADDR                    redis address for the list cache
//	LIST_CACHE_TTL                cache TTL, e.g. "30s"
func parseEnv(config *Config) {
	_ = godotenv.Load()

	if v := os.Getenv("ADDRESS"); v != "" {
		config.HTTPAddr = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		config.DatabaseDSN = v
	}
	if v := os.Getenv("SECRET_KEY"); v != "" {
		config.SecretKey = v
	}
	if v := os.Getenv("ACCESS_TOKEN_LIFETIME_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil {
			config.AccessTokenValidityDuration = time.Duration(days) * 24 * time.Hour
		}
	}
	if v := os.Getenv("REFRESH_TOKEN_LIFETIME_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil {
			config.RefreshTokenValidityDuration = time.Duration(days) * 24 * time.Hour
		}
	}
	if v := os.Getenv("BCRYPT_COST"); v != "" {
		if cost, err := strconv.Atoi(v); err == nil {
			config.BcryptCost = cost
		}
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		config.RedisAddr = v
	}
	if v := os.Getenv("LIST_CACHE_TTL"); v != "" {
		if ttl, err := time.ParseDuration(v); err == nil {
			config.ListCacheTTL = ttl
		}
	}
}
