package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	AI       AIConfig
	Chat     ChatConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name    string
	Env     string
	Host    string
	Port    string
	Version string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines gateway token verification parameters. An empty
// secret disables token checks (development mode: the announced
// identity is taken at face value).
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
}

// AIConfig configures the triage completion client.
type AIConfig struct {
	APIKey         string
	Model          string
	TimeoutSeconds int
}

// ChatConfig controls chatroom admission and the agent identity.
type ChatConfig struct {
	MaxOpenChatrooms int
	AgentUserID      string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:    getEnv("APP_NAME", "goldenticket"),
			Env:     getEnv("APP_ENV", "development"),
			Host:    getEnv("APP_HOST", "0.0.0.0"),
			Port:    getEnv("APP_PORT", "8080"),
			Version: getEnv("APP_VERSION", "dev"),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             os.Getenv("AUTH_JWT_SECRET"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
		},
		AI: AIConfig{
			APIKey:         os.Getenv("OPENAI_API_KEY"),
			Model:          getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
			TimeoutSeconds: getEnvAsInt("OPENAI_TIMEOUT_SECONDS", 20),
		},
		Chat: ChatConfig{
			MaxOpenChatrooms: getEnvAsInt("CHAT_MAX_OPEN_CHATROOMS", 3),
			AgentUserID:      getEnv("CHAT_AGENT_USER_ID", "ai-agent"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// Timeout returns the configured AI request timeout duration.
func (a AIConfig) Timeout() time.Duration {
	if a.TimeoutSeconds <= 0 {
		return 20 * time.Second
	}
	return time.Duration(a.TimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
