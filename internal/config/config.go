package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	JWT       JWTConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host          string
	Port          string
	User          string
	Password      string
	Database      string
	Schema        string
	MaxOpenConns  int
	MaxIdleConns  int
	MigrationsDir string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

type JWTConfig struct {
	Secret        string
	AccessExpiry  int // in minutes
	RefreshExpiry int // in days
}

// IsDevelopment reports whether the server runs outside production.
func (c ServerConfig) IsDevelopment() bool {
	return c.Env != "production"
}

// DSN builds the pgx connection string for the configured database.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable&search_path=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.Schema,
	)
}

// Addr returns host:port for the redis client.
func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

func Load() *Config {
	// .env is optional; real environment variables take precedence
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SCHEMA", "public")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("MIGRATIONS_DIR", "migrations")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	v.SetDefault("JWT_ACCESS_EXPIRY", 15)
	v.SetDefault("JWT_REFRESH_EXPIRY", 7)

	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Env:            v.GetString("SERVER_ENV"),
			LogLevel:       v.GetString("LOG_LEVEL"),
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:          v.GetString("DB_HOST"),
			Port:          v.GetString("DB_PORT"),
			User:          v.GetString("DB_USER"),
			Password:      v.GetString("DB_PASSWORD"),
			Database:      v.GetString("DB_DATABASE"),
			Schema:        v.GetString("DB_SCHEMA"),
			MaxOpenConns:  v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:  v.GetInt("DB_MAX_IDLE_CONNS"),
			MigrationsDir: v.GetString("MIGRATIONS_DIR"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		RateLimit: RateLimitConfig{
			Requests: v.GetInt("RATE_LIMIT_REQUESTS"),
			Window:   time.Duration(v.GetInt("RATE_LIMIT_WINDOW_SECONDS")) * time.Second,
		},
		JWT: JWTConfig{
			Secret:        v.GetString("JWT_SECRET"),
			AccessExpiry:  v.GetInt("JWT_ACCESS_EXPIRY"),
			RefreshExpiry: v.GetInt("JWT_REFRESH_EXPIRY"),
		},
	}
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
