package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Log       LogConfig       `mapstructure:"log"`
	Tour      TourConfig      `mapstructure:"tour"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	// MaxConns caps the pool. Nearby queries are short; a handful suffices.
	MaxConns int `mapstructure:"max_conns"`
	// StatementTimeout bounds every query sent on the pool.
	StatementTimeout time.Duration `mapstructure:"statement_timeout"`
	// Enabled switches plant queries from the CSV catalog to PostGIS.
	Enabled bool `mapstructure:"enabled"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Enabled bool   `mapstructure:"enabled"`
}

type ValkeyConfig struct {
	Addr    string `mapstructure:"addr"`
	Enabled bool   `mapstructure:"enabled"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
	// Cron is the schedule of the catalog sync workflow; empty runs it once.
	Cron string `mapstructure:"cron"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TourConfig tunes catalog loading and the live tour.
type TourConfig struct {
	// CatalogURL is fetched over HTTP. CatalogPath, when set, wins and
	// reads the catalog from disk instead.
	CatalogURL     string        `mapstructure:"catalog_url"`
	CatalogPath    string        `mapstructure:"catalog_path"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	FetchTimeout   time.Duration `mapstructure:"fetch_timeout"`
	MaxRadiusM     float64       `mapstructure:"max_radius_m"`
	Limit          int           `mapstructure:"limit"`
	UpdateInterval time.Duration `mapstructure:"update_interval"`
	MinMoveM       float64       `mapstructure:"min_move_m"`
	HeightColumn   int           `mapstructure:"height_column"`
	ModelBaseURL   string        `mapstructure:"model_base_url"`
	SessionTTL     time.Duration `mapstructure:"session_ttl"`
}

// CatalogSource names where the catalog is read from.
func (t TourConfig) CatalogSource() string {
	if t.CatalogPath != "" {
		return t.CatalogPath
	}
	return t.CatalogURL
}

// Load reads configuration from .env, file and environment variables.
func Load(service string) (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v, service)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: PLANTTOUR_TOUR_CATALOG_URL → tour.catalog_url
	v.SetEnvPrefix("PLANTTOUR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, service string) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "planttour")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "planttour")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.statement_timeout", "5s")
	v.SetDefault("database.enabled", false)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.enabled", false)
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.enabled", false)
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "catalog-sync")
	v.SetDefault("temporal.cron", "*/15 * * * *")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("tour.catalog_url", "https://raw.githubusercontent.com/abgtour/catalog/main/plants.csv")
	v.SetDefault("tour.catalog_path", "")
	v.SetDefault("tour.cache_ttl", "60s")
	v.SetDefault("tour.fetch_timeout", "15s")
	v.SetDefault("tour.max_radius_m", 10.0)
	v.SetDefault("tour.limit", 10)
	v.SetDefault("tour.update_interval", "10s")
	v.SetDefault("tour.min_move_m", 0.0)
	v.SetDefault("tour.height_column", 10)
	v.SetDefault("tour.model_base_url", "./models/")
	v.SetDefault("tour.session_ttl", "30m")
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Database.Enabled {
		if c.Database.Host == "" {
			errs = append(errs, "database.host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.User == "" {
			errs = append(errs, "database.user is required")
		}
		if c.Database.DBName == "" {
			errs = append(errs, "database.dbname is required")
		}
		if c.Database.MaxConns <= 0 {
			errs = append(errs, fmt.Sprintf("database.max_conns must be positive, got %d", c.Database.MaxConns))
		}
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Enabled && c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("log.format must be json or text, got %q", c.Log.Format))
	}
	if c.Tour.CatalogSource() == "" {
		errs = append(errs, "tour.catalog_url or tour.catalog_path is required")
	}
	if c.Tour.CacheTTL < 0 {
		errs = append(errs, "tour.cache_ttl must not be negative")
	}
	if c.Tour.FetchTimeout <= 0 {
		errs = append(errs, "tour.fetch_timeout must be positive")
	}
	if c.Tour.MaxRadiusM <= 0 {
		errs = append(errs, fmt.Sprintf("tour.max_radius_m must be positive, got %g", c.Tour.MaxRadiusM))
	}
	if c.Tour.Limit <= 0 {
		errs = append(errs, fmt.Sprintf("tour.limit must be positive, got %d", c.Tour.Limit))
	}
	if c.Tour.UpdateInterval < 0 {
		errs = append(errs, "tour.update_interval must not be negative")
	}
	if c.Tour.MinMoveM < 0 {
		errs = append(errs, "tour.min_move_m must not be negative")
	}
	if c.Tour.HeightColumn < 9 {
		errs = append(errs, fmt.Sprintf("tour.height_column must be 9 or later, got %d", c.Tour.HeightColumn))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
