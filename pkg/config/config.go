package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"borlette/domain"

	"github.com/joho/godotenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"

	CounterDriverRedis  = "redis"
	CounterDriverMemory = "memory"
)

type Config struct {
	App       AppConfig
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Redis     RedisConfig
	Catalog   CatalogConfig
	Bootstrap BootstrapConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
	Timezone    *time.Location
}

type ServerConfig struct {
	Port             string
	CORSAllowOrigins []string
	RequestTimeout   time.Duration
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type JWTConfig struct {
	SecretKey string
	TTL       time.Duration
}

type RedisConfig struct {
	Driver        string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
}

type CatalogConfig struct {
	// Path to an optional YAML file overriding the built-in bet catalog.
	Path string
}

type BootstrapConfig struct {
	MasterUsername string
	MasterPassword string
}

// Load reads configuration from the environment, loading .env first when it
// exists. Missing secrets are reported as *domain.ConfigError.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, &domain.ConfigError{Key: "REDIS_DB", Message: "must be an integer"}
	}

	ttlHours, err := strconv.Atoi(getEnv("JWT_TTL_HOURS", "12"))
	if err != nil || ttlHours <= 0 {
		return nil, &domain.ConfigError{Key: "JWT_TTL_HOURS", Message: "must be a positive integer"}
	}

	timeoutSeconds, err := strconv.Atoi(getEnv("REQUEST_TIMEOUT_SECONDS", "10"))
	if err != nil || timeoutSeconds <= 0 {
		return nil, &domain.ConfigError{Key: "REQUEST_TIMEOUT_SECONDS", Message: "must be a positive integer"}
	}

	tz, err := time.LoadLocation(getEnv("APP_TIMEZONE", "America/Port-au-Prince"))
	if err != nil {
		return nil, &domain.ConfigError{Key: "APP_TIMEZONE", Message: err.Error()}
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Borlette Back Office"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
			Timezone:    tz,
		},
		Server: ServerConfig{
			Port:             getEnv("PORT", "8080"),
			CORSAllowOrigins: splitList(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:8080")),
			RequestTimeout:   time.Duration(timeoutSeconds) * time.Second,
		},
		Database: DatabaseConfig{
			Driver:   getEnv("STORAGE_DRIVER", StorageDriverPostgres),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "borlette"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", ""),
			TTL:       time.Duration(ttlHours) * time.Hour,
		},
		Redis: RedisConfig{
			Driver:        getEnv("COUNTER_DRIVER", CounterDriverRedis),
			RedisHost:     getEnv("REDIS_HOST", "localhost"),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       redisDB,
		},
		Catalog: CatalogConfig{
			Path: getEnv("BET_CATALOG_PATH", ""),
		},
		Bootstrap: BootstrapConfig{
			MasterUsername: getEnv("BOOTSTRAP_MASTER_USERNAME", ""),
			MasterPassword: getEnv("BOOTSTRAP_MASTER_PASSWORD", ""),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWT.SecretKey == "" {
		return &domain.ConfigError{Key: "JWT_SECRET", Message: "missing jwt secret"}
	}

	switch c.Database.Driver {
	case StorageDriverPostgres:
		if c.Database.Password == "" {
			return &domain.ConfigError{Key: "DB_PASSWORD", Message: "missing database password"}
		}
	case StorageDriverMemory:
	default:
		return &domain.ConfigError{Key: "STORAGE_DRIVER", Message: "must be postgres or memory"}
	}

	switch c.Redis.Driver {
	case CounterDriverRedis, CounterDriverMemory:
	default:
		return &domain.ConfigError{Key: "COUNTER_DRIVER", Message: "must be redis or memory"}
	}

	if (c.Bootstrap.MasterUsername == "") != (c.Bootstrap.MasterPassword == "") {
		return &domain.ConfigError{Key: "BOOTSTRAP_MASTER_PASSWORD", Message: "bootstrap username and password must be set together"}
	}

	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
