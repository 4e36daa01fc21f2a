package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the bot.
type Config struct {
	App     AppConfig
	Discord DiscordConfig
	Moddy   PostgresConfig
	Systems PostgresConfig
	Redis   RedisConfig
	Logger  LoggerConfig
	Status  StatusConfig
	Tickets TicketsConfig
	Notify  NotifyConfig
}

// AppConfig controls the health server and background loops.
type AppConfig struct {
	Name                string
	Env                 string
	Host                string
	Port                string
	Version             string
	RefreshIntervalMins int
	FlowIdleTimeoutMins int
}

// DiscordConfig holds gateway credentials and presence.
type DiscordConfig struct {
	Token    string
	Presence string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
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

// StatusConfig configures the status reporter.
type StatusConfig struct {
	ChannelID     string
	NewsChannelID string
	IncidentsFile string
	SupportURL    string
	FooterURL     string
}

// TicketsConfig configures the ticket tracker and role mentions.
type TicketsConfig struct {
	SupportChannelID string
	RoleSupportAgent string
	RoleDev          string
	RoleModerator    string
	RoleManager      string
}

// NotifyConfig holds the optional notification webhook endpoint.
type NotifyConfig struct {
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	token := os.Getenv("DISCORD_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("DISCORD_TOKEN is required")
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                getEnv("APP_NAME", "moddy-systems"),
			Env:                 getEnv("APP_ENV", "development"),
			Host:                getEnv("HTTP_HOST", "0.0.0.0"),
			Port:                getEnv("HTTP_PORT", "8080"),
			Version:             getEnv("APP_VERSION", "dev"),
			RefreshIntervalMins: getEnvAsInt("STATUS_REFRESH_INTERVAL_MINUTES", 5),
			FlowIdleTimeoutMins: getEnvAsInt("FLOW_IDLE_TIMEOUT_MINUTES", 5),
		},
		Discord: DiscordConfig{
			Token:    token,
			Presence: os.Getenv("STATUS"),
		},
		Moddy: PostgresConfig{
			DSN:            os.Getenv("MODDYDB_URL"),
			MaxConns:       int32(getEnvAsInt("MODDYDB_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("MODDYDB_MIN_CONNS", 2)),
			ConnMaxIdleSec: int32(getEnvAsInt("MODDYDB_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("MODDYDB_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Systems: PostgresConfig{
			DSN:            os.Getenv("DATABASE_URL"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Status: StatusConfig{
			ChannelID:     os.Getenv("STATUS_CHANNEL_ID"),
			NewsChannelID: os.Getenv("NEWS_CHANNEL_ID"),
			IncidentsFile: getEnv("INCIDENTS_FILE", "incidents.json"),
			SupportURL:    getEnv("SUPPORT_URL", "https://moddy.app/support"),
			FooterURL:     getEnv("OFFICIAL_MESSAGES_URL", "https://moddy.app/official_messages"),
		},
		Tickets: TicketsConfig{
			SupportChannelID: os.Getenv("SUPPORT_CHANNEL_ID"),
			RoleSupportAgent: os.Getenv("ROLE_SUPPORT_AGENT_ID"),
			RoleDev:          os.Getenv("ROLE_DEV_ID"),
			RoleModerator:    os.Getenv("ROLE_MODERATOR_ID"),
			RoleManager:      os.Getenv("ROLE_MANAGER_ID"),
		},
		Notify: NotifyConfig{
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address for the health server.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RefreshInterval returns how often non-terminal incident displays are re-rendered.
func (a AppConfig) RefreshInterval() time.Duration {
	if a.RefreshIntervalMins <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(a.RefreshIntervalMins) * time.Minute
}

// FlowIdleTimeout returns how long a multi-step ticket flow stays alive between interactions.
func (a AppConfig) FlowIdleTimeout() time.Duration {
	if a.FlowIdleTimeoutMins <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(a.FlowIdleTimeoutMins) * time.Minute
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
