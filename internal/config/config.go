// Package config loads TacnaVial configuration from defaults, an optional
// config.yaml, a .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/tacnavial/tacnavial/internal/database"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Event bus backends.
const (
	EventsLog    = "log"
	EventsPubSub = "pubsub"
	EventsNATS   = "nats"
)

// Config holds all application configuration.
type Config struct {
	Env       string          `mapstructure:"env"`
	LogLevel  string          `mapstructure:"log_level"`
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Maps      MapsConfig      `mapstructure:"maps"`
	Geocoding GeocodingConfig `mapstructure:"geocoding"`
	Routing   RoutingConfig   `mapstructure:"routing"`
	Events    EventsConfig    `mapstructure:"events"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Worker    WorkerConfig    `mapstructure:"worker"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	// RateLimit is requests per minute per client IP; 0 disables limiting.
	RateLimit  int           `mapstructure:"rate_limit"`
	RequireTLS bool          `mapstructure:"require_tls"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

type StoreConfig struct {
	Backend string `mapstructure:"backend"`
	// Seed loads the seed document into empty collections at startup.
	Seed     bool   `mapstructure:"seed"`
	SeedFile string `mapstructure:"seed_file"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// Pool converts the section into a database.Config.
func (d DatabaseConfig) Pool() database.Config {
	return database.Config{
		Host:            d.Host,
		Port:            d.Port,
		User:            d.User,
		Password:        d.Password,
		Database:        d.Name,
		SSLMode:         d.SSLMode,
		MaxConns:        d.MaxOpenConns,
		MinConns:        d.MaxIdleConns,
		MaxConnLifetime: d.ConnMaxLifetime,
	}
}

// MapsConfig is read from MAPS_API_KEY and MAPS_MAP_ID as well as the
// prefixed variables. An empty API key is not an error: map features then
// report that they are not configured.
type MapsConfig struct {
	APIKey   string `mapstructure:"api_key"`
	MapID    string `mapstructure:"map_id"`
	Zoom     int    `mapstructure:"zoom"`
	Language string `mapstructure:"language"`
}

type GeocodingConfig struct {
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`
	ValkeyAddr string        `mapstructure:"valkey_addr"`
}

type RoutingConfig struct {
	ORSAPIKey  string        `mapstructure:"ors_api_key"`
	ORSBaseURL string        `mapstructure:"ors_base_url"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`
}

type EventsConfig struct {
	Backend       string `mapstructure:"backend"`
	ProjectID     string `mapstructure:"project_id"`
	Topic         string `mapstructure:"topic"`
	Subscription  string `mapstructure:"subscription"`
	NATSURL       string `mapstructure:"nats_url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

type TelemetryConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

type WorkerConfig struct {
	// WarmAddresses are geocoded on a schedule so the first lookup of a
	// well-known place is served from cache.
	WarmAddresses []string      `mapstructure:"warm_addresses"`
	WarmInterval  time.Duration `mapstructure:"warm_interval"`
}

// Load reads configuration. Environment variables override config.yaml,
// which overrides the defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// TACNAVIAL_DATABASE_HOST -> database.host
	v.SetEnvPrefix("TACNAVIAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("maps.api_key", "TACNAVIAL_MAPS_API_KEY", "MAPS_API_KEY")
	_ = v.BindEnv("maps.map_id", "TACNAVIAL_MAPS_MAP_ID", "MAPS_MAP_ID")
	_ = v.BindEnv("routing.ors_api_key", "TACNAVIAL_ROUTING_ORS_API_KEY", "ORS_API_KEY")
	_ = v.BindEnv("telemetry.otlp_endpoint", "TACNAVIAL_TELEMETRY_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("log_level", "info")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.rate_limit", 120)
	v.SetDefault("server.require_tls", false)
	v.SetDefault("server.session_ttl", 30*time.Minute)

	v.SetDefault("store.backend", StoreMemory)
	v.SetDefault("store.seed", true)
	v.SetDefault("store.seed_file", "")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "tacnavial")
	v.SetDefault("database.password", "localdev")
	v.SetDefault("database.name", "tacnavial")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("maps.api_key", "")
	v.SetDefault("maps.map_id", "TACNA_TRANSIT_FLOW_MAP_ID")
	v.SetDefault("maps.zoom", 14)
	v.SetDefault("maps.language", "es")

	v.SetDefault("geocoding.cache_ttl", 24*time.Hour)
	v.SetDefault("geocoding.valkey_addr", "")

	v.SetDefault("routing.ors_api_key", "")
	v.SetDefault("routing.ors_base_url", "https://api.openrouteservice.org")
	v.SetDefault("routing.cache_ttl", 5*time.Minute)

	v.SetDefault("events.backend", EventsLog)
	v.SetDefault("events.project_id", "")
	v.SetDefault("events.topic", "tacnavial-events")
	v.SetDefault("events.subscription", "tacnavial-worker")
	v.SetDefault("events.nats_url", "nats://localhost:4222")
	v.SetDefault("events.subject_prefix", "tacnavial")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.otlp_endpoint", "localhost:4317")
	v.SetDefault("telemetry.sample_ratio", 1.0)

	v.SetDefault("worker.warm_addresses", []string{
		"Plaza de Armas, Tacna",
		"Terminal Terrestre Collasuyo, Tacna",
		"Hospital Hipólito Unanue, Tacna",
		"Óvalo Cusco, Tacna",
	})
	v.SetDefault("worker.warm_interval", 6*time.Hour)
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server timeouts must be positive")
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, "server.rate_limit must not be negative")
	}

	switch c.Store.Backend {
	case StoreMemory:
	case StorePostgres:
		if c.Database.Host == "" {
			errs = append(errs, "database.host is required for the postgres store")
		}
		if c.Database.Name == "" {
			errs = append(errs, "database.name is required for the postgres store")
		}
	default:
		errs = append(errs, fmt.Sprintf("store.backend must be %q or %q, got %q", StoreMemory, StorePostgres, c.Store.Backend))
	}

	switch c.Events.Backend {
	case EventsLog:
	case EventsPubSub:
		if c.Events.ProjectID == "" {
			errs = append(errs, "events.project_id is required for pubsub")
		}
		if c.Events.Topic == "" {
			errs = append(errs, "events.topic is required for pubsub")
		}
	case EventsNATS:
		if c.Events.NATSURL == "" {
			errs = append(errs, "events.nats_url is required for nats")
		}
	default:
		errs = append(errs, fmt.Sprintf("events.backend must be one of log, pubsub, nats, got %q", c.Events.Backend))
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		errs = append(errs, fmt.Sprintf("telemetry.sample_ratio must be 0-1, got %g", c.Telemetry.SampleRatio))
	}

	if c.Maps.Zoom < 0 || c.Maps.Zoom > 22 {
		errs = append(errs, fmt.Sprintf("maps.zoom must be 0-22, got %d", c.Maps.Zoom))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// MapsConfigured reports whether map features are available.
func (c *Config) MapsConfigured() bool {
	return c.Maps.APIKey != ""
}
