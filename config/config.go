package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	Port        string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	JWTSecret   string
	Environment string

	LogLevel  string
	LogFormat string
	LogDir    string

	PriceAPIURLs       []string
	PriceAPILoginPath  string
	PriceAPILogoutPath string
	CachePath          string
	CacheTTL           time.Duration
	HistoryDays        int
	ScoreWorkers       int
	SyncAt             string
	MarketTZ           string

	RateLimitPerMinute int
}

var AppConfig *Config
var DB *gorm.DB

// LoadConfig loads environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	cacheTTL, err := time.ParseDuration(getEnv("CACHE_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL: %w", err)
	}
	historyDays, err := getEnvInt("HISTORY_DAYS", 60)
	if err != nil {
		return nil, err
	}
	workers, err := getEnvInt("SCORE_WORKERS", 8)
	if err != nil {
		return nil, err
	}
	rateLimit, err := getEnvInt("RATE_LIMIT_PER_MINUTE", 60)
	if err != nil {
		return nil, err
	}

	config := &Config{
		Port:        getEnv("PORT", "8080"),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  getEnv("DB_PASSWORD", ""),
		DBName:      getEnv("DB_NAME", "kmj_db"),
		DBSSLMode:   getEnv("DB_SSLMODE", "disable"),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		Environment: getEnv("ENVIRONMENT", "development"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
		LogDir:    getEnv("LOG_DIR", ""),

		PriceAPIURLs:       splitList(getEnv("PRICE_API_URLS", "")),
		PriceAPILoginPath:  getEnv("PRICE_API_LOGIN_PATH", ""),
		PriceAPILogoutPath: getEnv("PRICE_API_LOGOUT_PATH", ""),
		CachePath:          getEnv("CACHE_PATH", "data/price_cache.db"),
		CacheTTL:           cacheTTL,
		HistoryDays:        historyDays,
		ScoreWorkers:       workers,
		SyncAt:             getEnv("SYNC_CRON_AT", "16:00"),
		MarketTZ:           getEnv("MARKET_TZ", "Asia/Shanghai"),

		RateLimitPerMinute: rateLimit,
	}

	if config.HistoryDays < 25 {
		return nil, fmt.Errorf("HISTORY_DAYS must be at least 25, got %d", config.HistoryDays)
	}
	if config.JWTSecret == "" {
		if config.Environment == "production" {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		log.Warn().Msg("JWT_SECRET is empty, admin endpoints will reject every token")
	}
	if config.ScoreWorkers < 1 {
		config.ScoreWorkers = 1
	}
	if config.RateLimitPerMinute < 1 {
		config.RateLimitPerMinute = 1
	}

	AppConfig = config
	return config, nil
}

// Location resolves MarketTZ, falling back to UTC
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.MarketTZ)
	if err != nil {
		log.Warn().Err(err).Str("tz", c.MarketTZ).Msg("Unknown market timezone, using UTC")
		return time.UTC
	}
	return loc
}

// InitDB initializes database connection
func InitDB() (*gorm.DB, error) {
	// Log connection info (masked for security)
	log.Info().
		Str("host", maskHost(AppConfig.DBHost)).
		Str("port", AppConfig.DBPort).
		Str("user", AppConfig.DBUser).
		Str("dbname", AppConfig.DBName).
		Msg("Connecting to database")

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		AppConfig.DBHost,
		AppConfig.DBUser,
		AppConfig.DBPassword,
		AppConfig.DBName,
		AppConfig.DBPort,
		AppConfig.DBSSLMode,
		AppConfig.MarketTZ,
	)

	var logLevel logger.LogLevel
	if AppConfig.Environment == "production" {
		logLevel = logger.Error
	} else {
		logLevel = logger.Warn
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection with ping
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	log.Info().Msg("Database connection verified successfully")
	DB = db
	return db, nil
}

// maskHost masks host for logging, preserving domain structure
func maskHost(host string) string {
	if len(host) <= 3 {
		return "***"
	}
	if len(host) <= 15 {
		return host[:3] + "***"
	}
	return host[:8] + "***" + host[len(host)-10:]
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
