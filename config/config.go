package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisSessionDB int    `mapstructure:"REDIS_SESSION_DB"`
	RedisCacheDB   int    `mapstructure:"REDIS_CACHE_DB"`

	// Conversation engine knobs.
	SessionIdleMinutes int `mapstructure:"SESSION_IDLE_MINUTES"` // idle window before a session expires
	ChatHistoryCap     int `mapstructure:"CHAT_HISTORY_CAP"`     // max persisted turns per session
	WindowsPerBatch    int `mapstructure:"WINDOWS_PER_BATCH"`    // windows offered per slot-choice prompt
	BookingHorizonDays int `mapstructure:"BOOKING_HORIZON_DAYS"` // how far ahead windows are computed

	// When true, agents in "away" mode still get their next openings listed
	// for manual follow-up, even though auto-booking stays off.
	SurfaceWhenAway bool `mapstructure:"SURFACE_WHEN_AWAY"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_SESSION_DB", 0)
	viper.SetDefault("REDIS_CACHE_DB", 1)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "calibook")
	viper.SetDefault("SESSION_IDLE_MINUTES", 30)
	viper.SetDefault("CHAT_HISTORY_CAP", 50)
	viper.SetDefault("WINDOWS_PER_BATCH", 6)
	viper.SetDefault("BOOKING_HORIZON_DAYS", 14)
	viper.SetDefault("SURFACE_WHEN_AWAY", false)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
