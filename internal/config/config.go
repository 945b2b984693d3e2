package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Environment string          `mapstructure:"environment"`
	Timezone    string          `mapstructure:"timezone"`
	Server      ServerConfig    `mapstructure:"server"`
	Logging     LoggingConfig   `mapstructure:"logging"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Cache       CacheConfig     `mapstructure:"cache"`
	Auth        AuthConfig      `mapstructure:"auth"`
	Reconcile   ReconcileConfig `mapstructure:"reconcile"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DatabaseConfig holds the remote store configuration. An empty URL means
// the remote store is not configured.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	PingTimeout     time.Duration `mapstructure:"ping_timeout"`
}

// CacheConfig selects and configures the local durable cache
type CacheConfig struct {
	Driver string      `mapstructure:"driver"` // sqlite | redis | memory
	Path   string      `mapstructure:"path"`
	Redis  RedisConfig `mapstructure:"redis"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig holds the demo login configuration
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	DemoUsers []DemoUser    `mapstructure:"demo_users"`
}

// DemoUser is a fixed credential for the admin, supplier and customer roles.
type DemoUser struct {
	Role       string `mapstructure:"role"`
	Email      string `mapstructure:"email"`
	Password   string `mapstructure:"password"`
	Name       string `mapstructure:"name"`
	ID         string `mapstructure:"id"`
	SupplierID string `mapstructure:"supplier_id"`
}

// ReconcileConfig controls the periodic sync pass. Zero disables it.
type ReconcileConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// Load reads configuration from .env, an optional config.yaml and the environment
func Load(path string) (Config, error) {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(path)
	v.AddConfigPath("./config")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("MILKCHAIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Legacy variable names still used by existing deployments.
	_ = v.BindEnv("database.url", "MILKCHAIN_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("server.port", "MILKCHAIN_SERVER_PORT", "APP_PORT")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to unmarshal config: %w", err)
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return Config{}, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	return cfg, nil
}

// Location resolves the configured timezone. Load has already validated it.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("timezone", "Local")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.ping_timeout", "5s")

	v.SetDefault("cache.driver", "sqlite")
	v.SetDefault("cache.path", "milkchain-cache.db")
	v.SetDefault("cache.redis.host", "localhost")
	v.SetDefault("cache.redis.port", 6379)
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)

	v.SetDefault("auth.jwt_secret", "change-me")
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("auth.demo_users", []map[string]interface{}{
		{"role": "admin", "email": "admin@milkchain.com", "password": "admin123", "name": "Admin User", "id": "admin-1"},
		{"role": "supplier", "email": "admin@puredairy.com", "password": "supplier123", "name": "Pure Dairy Farm", "id": "a0eebc99-9c0b-4ef8-bb6d-6bb9bd380a11"},
		{"role": "customer", "email": "john@example.com", "password": "customer123", "name": "John Smith", "id": "customer-1", "supplier_id": "supplier-1"},
	})

	v.SetDefault("reconcile.interval", "0s")
}
