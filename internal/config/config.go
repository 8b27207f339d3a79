package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port           string
	AllowedOrigins []string

	DatabaseURL          string
	DBMaxOpenConns       int
	DBMaxIdleConns       int
	DBConnMaxLifetimeMin int

	RedisAddr     string
	RedisPassword string

	JWTSecret string

	AdvisorBaseURL string
	AdvisorAPIKey  string
	AdvisorModel   string
	AdvisorTimeout time.Duration

	ModelWeightsPath string

	AIMoveDelay        time.Duration
	SessionLockTimeout time.Duration
}

func LoadConfig() *Config {
	allowedOrigins := []string{"http://localhost:5173"}
	if extras := GetEnv("ALLOWED_ORIGINS", ""); extras != "" {
		for _, origin := range strings.Split(extras, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				allowedOrigins = append(allowedOrigins, trimmed)
			}
		}
	}

	return &Config{
		Port:           GetEnv("PORT", "8080"),
		AllowedOrigins: allowedOrigins,

		DatabaseURL:          GetEnv("DATABASE_URL", ""),
		DBMaxOpenConns:       GetEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:       GetEnvAsInt("DB_MAX_IDLE_CONNS", 25),
		DBConnMaxLifetimeMin: GetEnvAsInt("DB_CONN_MAX_LIFETIME_MINUTES", 5),

		RedisAddr:     GetEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: GetEnv("REDIS_PASSWORD", ""),

		JWTSecret: GetEnv("JWT_SECRET", "your-secret-key-change-this-in-production"),

		AdvisorBaseURL: GetEnv("ADVISOR_BASE_URL", "https://api.openai.com"),
		AdvisorAPIKey:  GetEnv("ADVISOR_API_KEY", ""),
		AdvisorModel:   GetEnv("ADVISOR_MODEL", "gpt-3.5-turbo"),
		AdvisorTimeout: time.Duration(GetEnvAsInt("ADVISOR_TIMEOUT_MS", 3000)) * time.Millisecond,

		ModelWeightsPath: GetEnv("MODEL_WEIGHTS_PATH", "model/weights.json"),

		AIMoveDelay:        time.Duration(GetEnvAsInt("AI_MOVE_DELAY_MS", 2000)) * time.Millisecond,
		SessionLockTimeout: time.Duration(GetEnvAsInt("SESSION_LOCK_TIMEOUT_MS", 5000)) * time.Millisecond,
	}
}

func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s: %s, using default: %d", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}
