package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server  ServerConfig
	App     AppConfig
	Store   StoreConfig
	Cache   CacheConfig
	Gateway GatewayConfig
	Oracle  OracleConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"120s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"aoe-companion-api"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Debug       bool   `envconfig:"APP_DEBUG" default:"false"`
	Version     string `envconfig:"APP_VERSION" default:"1.0.0"`
	APIKey      string `envconfig:"API_KEY" default:""` // Optional: protects /api/v1 when set
}

// StoreConfig holds document store settings.
type StoreConfig struct {
	Type string `envconfig:"STORE_TYPE" default:"sqlite"` // sqlite, mysql, or redis
	Path string `envconfig:"STORE_PATH" default:"./data/companion.db"`
	// MySQL settings
	MySQLHost     string `envconfig:"STORE_MYSQL_HOST" default:"localhost"`
	MySQLPort     int    `envconfig:"STORE_MYSQL_PORT" default:"3306"`
	MySQLName     string `envconfig:"STORE_MYSQL_NAME" default:"aoe_companion"`
	MySQLUser     string `envconfig:"STORE_MYSQL_USER" default:"root"`
	MySQLPassword string `envconfig:"STORE_MYSQL_PASS" default:""`
}

// CacheConfig holds cache settings.
type CacheConfig struct {
	Type string        `envconfig:"CACHE_TYPE" default:"memory"` // memory or redis
	TTL  time.Duration `envconfig:"CACHE_TTL" default:"5m"`

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

// GatewayConfig holds AI gateway settings.
type GatewayConfig struct {
	BaseURL      string        `envconfig:"GATEWAY_BASE_URL" default:"https://api.puter.com"`
	Timeout      time.Duration `envconfig:"GATEWAY_TIMEOUT" default:"90s"`
	DefaultModel string        `envconfig:"GATEWAY_DEFAULT_MODEL" default:"gemini-2.0-flash"`
	QuotaTTL     time.Duration `envconfig:"GATEWAY_QUOTA_TTL" default:"2m"`
}

// OracleConfig holds chat assistant settings.
type OracleConfig struct {
	HistoryLimit    int           `envconfig:"ORACLE_HISTORY_LIMIT" default:"100"`
	RefreshInterval time.Duration `envconfig:"ORACLE_QUOTA_REFRESH_INTERVAL" default:"10m"`
}

// MySQLDSN returns the MySQL data source name.
func (s *StoreConfig) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		s.MySQLUser, s.MySQLPassword, s.MySQLHost, s.MySQLPort, s.MySQLName)
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisAddress returns the Redis address in host:port format.
func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (a *AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
