package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// RelayConfig configures the relay server.
type RelayConfig struct {
	Port                 string
	AllowedOrigins       []string
	DatabaseURL          string
	DBMaxOpenConns       int
	DBMaxIdleConns       int
	DBConnMaxLifetimeMin int
	RedisURL             string
	RedisPassword        string
	JWTSecret            string
	TicketTTL            time.Duration
	RoomIdleTTL          time.Duration
	CleanupInterval      time.Duration
	LogLevel             string
}

// PeerConfig configures a headless peer. Flags override these values.
type PeerConfig struct {
	RelayURL           string
	RelayWSURL         string
	RoomCode           string
	RoomPasscode       string
	TickRate           int
	MatchDuration      time.Duration
	SnapshotEveryTicks int
	BotDifficulty      string
	DebugAddr          string
	LogLevel           string
}

// LoadEnv reads .env from the working directory or its parent. A missing file
// is not an error. logger becomes the global logger so that bad values found
// while loading config are reported; the returned func restores the previous
// one.
func LoadEnv(logger *zap.Logger) func() {
	restore := zap.ReplaceGlobals(logger)
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../.env"); err != nil {
			logger.Debug("no .env file found")
		}
	}
	return restore
}

func LoadRelayConfig() *RelayConfig {
	// Frontend & CORS
	allowedOrigins := []string{"http://localhost:5173"}
	allowedOrigins = append(allowedOrigins, splitCSV(GetEnv("ALLOWED_ORIGINS", ""))...)

	// Append simple_protocol for PgBouncer compatibility (pgx driver)
	dbURL := GetEnv("DATABASE_URL", "")
	if dbURL != "" {
		if u, err := url.Parse(dbURL); err == nil {
			q := u.Query()
			if q.Get("default_query_exec_mode") == "" {
				q.Set("default_query_exec_mode", "simple_protocol")
				u.RawQuery = q.Encode()
				dbURL = u.String()
			}
		}
	}

	return &RelayConfig{
		Port:                 GetEnv("PORT", "8080"),
		AllowedOrigins:       allowedOrigins,
		DatabaseURL:          dbURL,
		DBMaxOpenConns:       GetEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:       GetEnvAsInt("DB_MAX_IDLE_CONNS", 25),
		DBConnMaxLifetimeMin: GetEnvAsInt("DB_CONN_MAX_LIFETIME_MINUTES", 5),
		RedisURL:             GetEnv("REDIS_URL", ""),
		RedisPassword:        GetEnv("REDIS_PASSWORD", ""),
		JWTSecret:            GetEnv("JWT_SECRET", "your-secret-key-change-this-in-production"),
		TicketTTL:            time.Duration(GetEnvAsInt("TICKET_TTL_MINUTES", 30)) * time.Minute,
		RoomIdleTTL:          time.Duration(GetEnvAsInt("ROOM_IDLE_MINUTES", 10)) * time.Minute,
		CleanupInterval:      GetEnvAsDuration("CLEANUP_INTERVAL", time.Minute),
		LogLevel:             GetEnv("LOG_LEVEL", "info"),
	}
}

func LoadPeerConfig() *PeerConfig {
	return &PeerConfig{
		RelayURL:           GetEnv("RELAY_URL", "http://localhost:8080"),
		RelayWSURL:         GetEnv("RELAY_WS_URL", "ws://localhost:8080/ws"),
		RoomCode:           GetEnv("ROOM_CODE", ""),
		RoomPasscode:       GetEnv("ROOM_PASSCODE", ""),
		TickRate:           GetEnvAsInt("TICK_RATE_HZ", 60),
		MatchDuration:      time.Duration(GetEnvAsInt("MATCH_SECONDS", 60)) * time.Second,
		SnapshotEveryTicks: GetEnvAsInt("SNAPSHOT_EVERY_TICKS", 3),
		BotDifficulty:      GetEnv("BOT_DIFFICULTY", "medium"),
		DebugAddr:          GetEnv("DEBUG_ADDR", ""),
		LogLevel:           GetEnv("LOG_LEVEL", "info"),
	}
}

// NewLogger builds the process logger. Debug level gets the development
// encoder.
func NewLogger(level string) (*zap.Logger, error) {
	if strings.EqualFold(level, "debug") {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
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
		zap.L().Warn("invalid integer env value, using default",
			zap.String("key", key), zap.String("value", valueStr), zap.Int("default", defaultValue))
		return defaultValue
	}
	return value
}

func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		zap.L().Warn("invalid duration env value, using default",
			zap.String("key", key), zap.String("value", valueStr), zap.Duration("default", defaultValue))
		return defaultValue
	}
	return value
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
