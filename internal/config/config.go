package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string
	LogLevel    string

	// Database
	DatabaseURL    string
	MigrateOnStart bool

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Table geometry
	TableWidth  float64
	TableLength float64
	BallRadius  float64
	TargetBalls int
	RackSpacing float64

	// Engine
	TuningProfile    string
	TuningPath       string
	StrictInvariants bool
	MotionTickMillis int

	// Table lifecycle
	TableIdleMinutes       int
	IdleWorkerPollInterval int // seconds
	SnapshotTTLMinutes     int

	// Security
	JWTSecret          string
	TokenExpiryMinutes int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	env := getEnv("APP_ENV", "development")

	return &Config{
		// Environment
		Environment: env,
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Database
		DatabaseURL:    getEnv("DATABASE_URL", "sqlite://slamdunk.db"),
		MigrateOnStart: getEnvBool("MIGRATE_ON_START", false),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Table geometry
		TableWidth:  getEnvFloat("TABLE_WIDTH", 0.5),
		TableLength: getEnvFloat("TABLE_LENGTH", 0.3),
		BallRadius:  getEnvFloat("BALL_RADIUS", 0.02),
		TargetBalls: getEnvInt("TARGET_BALLS", 2),
		RackSpacing: getEnvFloat("RACK_SPACING", 0.05),

		// Engine
		TuningProfile:    getEnv("TUNING_PROFILE", "canonical"),
		TuningPath:       getEnv("TUNING_PATH", ""),
		StrictInvariants: getEnvBool("STRICT_INVARIANTS", env != "production"),
		MotionTickMillis: getEnvInt("MOTION_TICK_MILLIS", 16),

		// Table lifecycle
		TableIdleMinutes:       getEnvInt("TABLE_IDLE_MINUTES", 30),
		IdleWorkerPollInterval: getEnvInt("IDLE_WORKER_POLL_SECONDS", 15),
		SnapshotTTLMinutes:     getEnvInt("SNAPSHOT_TTL_MINUTES", 60),

		// Security
		JWTSecret:          getEnv("JWT_SECRET", "change-me-in-production"),
		TokenExpiryMinutes: getEnvInt("TOKEN_EXPIRY_MINUTES", 24*60),
	}
}

// IsSQLite reports whether DatabaseURL points at an embedded sqlite file.
func (c *Config) IsSQLite() bool {
	return strings.HasPrefix(c.DatabaseURL, "sqlite://")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
