package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// App holds the runtime configuration loaded from environment variables.
type App struct {
	Env              string
	HTTPPort         string
	RedisAddr        string
	JWTIssuer        string
	JWTSigningKey    string
	SessionTTL       time.Duration
	QueueBackend     string // memory | redis
	TokenBackend     string // memory | redis
	DedupCheckIns    bool
	DirectoryDSN     string // optional Postgres roster
	SeedDemo         bool
	MinAttendancePct int
	RateLimitPerMin  int
	CORSOrigins      string
	DetectorKey      string // shared secret for fraud alert ingestion
}

// Load returns application config from the environment, after applying a
// .env file when one is present.
func Load() App {
	if err := godotenv.Load(); err == nil {
		log.Println("loaded .env")
	}
	return App{
		Env:              getEnv("APP_ENV", "dev"),
		HTTPPort:         getEnv("HTTP_PORT", "8081"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		JWTIssuer:        getEnv("JWT_ISSUER", "attendance-engine"),
		JWTSigningKey:    getEnv("JWT_SIGNING_KEY", "dev-signing-secret-change"),
		SessionTTL:       durationEnv("SESSION_TTL", 12*time.Hour),
		QueueBackend:     getEnv("QUEUE_BACKEND", "memory"),
		TokenBackend:     getEnv("TOKEN_BACKEND", "memory"),
		DedupCheckIns:    boolEnv("DEDUP_CHECKINS", true),
		DirectoryDSN:     getEnv("DIRECTORY_DSN", ""),
		SeedDemo:         boolEnv("SEED_DEMO", true),
		MinAttendancePct: intEnv("MIN_ATTENDANCE_PCT", 75),
		RateLimitPerMin:  intEnv("RATE_LIMIT_PER_MIN", 120),
		CORSOrigins:      getEnv("CORS_ORIGINS", "*"),
		DetectorKey:      getEnv("DETECTOR_KEY", ""),
	}
}

// Production reports whether the app runs in a production environment.
func (a App) Production() bool {
	return a.Env == "production" || a.Env == "prod"
}

// UsesRedis reports whether any backend needs a Redis connection.
func (a App) UsesRedis() bool {
	return a.QueueBackend == "redis" || a.TokenBackend == "redis"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			log.Printf("invalid duration for %s: %v, using fallback %s", key, err, fallback)
			return fallback
		}
		return d
	}
	return fallback
}

func boolEnv(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if val == "1" || val == "true" || val == "TRUE" {
			return true
		}
		if val == "0" || val == "false" || val == "FALSE" {
			return false
		}
		log.Printf("invalid bool for %s, using fallback %v", key, fallback)
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var parsed int
		if _, err := fmt.Sscanf(val, "%d", &parsed); err == nil {
			return parsed
		}
		log.Printf("invalid int for %s, using fallback %d", key, fallback)
	}
	return fallback
}
