package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"airline_sim/internal/tiers"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the daemon
type Config struct {
	World       WorldConfig
	Push        PushConfig
	Maintenance MaintenanceConfig
	Fleet       FleetConfig
	Status      StatusConfig
	Redis       RedisConfig
	DBPath      string
	Log         LogConfig
}

// WorldConfig identifies the simulated world and its REST API
type WorldConfig struct {
	ID           string
	APIURL       string
	PollInterval time.Duration
	PollTimeout  time.Duration
}

// PushConfig selects the push channel carrying world ticks
type PushConfig struct {
	Transport   string // websocket, nats or none
	URL         string
	NATSSubject string
	// AuthToken is sent as a bearer token on the websocket handshake
	AuthToken string
}

// MaintenanceConfig selects the tier table and window policy
type MaintenanceConfig struct {
	Scheme      string
	PendingLead time.Duration
}

// FleetConfig controls the snapshot refresh
type FleetConfig struct {
	RefreshInterval time.Duration
	WindowDays      int
}

// StatusConfig controls status publishing
type StatusConfig struct {
	PublishInterval time.Duration
}

// RedisConfig holds the status cache connection. An empty address disables it.
type RedisConfig struct {
	Addr string
	TTL  time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
}

const (
	TransportWebSocket = "websocket"
	TransportNATS      = "nats"
	TransportNone      = "none"
)

// Load loads configuration from a .env file, a config file and environment
// variables. configFile overrides the search path when non-empty.
func Load(configFile string) (*Config, error) {
	// a missing .env is fine; anything else is reported
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	// Set defaults
	v.SetDefault("world.id", "")
	v.SetDefault("world.api_url", "http://localhost:3000")
	v.SetDefault("world.poll_interval", 30*time.Second)
	v.SetDefault("world.poll_timeout", 10*time.Second)
	v.SetDefault("push.transport", TransportWebSocket)
	v.SetDefault("push.url", "")
	v.SetDefault("push.nats_subject", "")
	v.SetDefault("push.auth_token", "")
	v.SetDefault("maintenance.scheme", tiers.SchemeStandard)
	v.SetDefault("maintenance.pending_lead", 24*time.Hour)
	v.SetDefault("fleet.refresh_interval", 5*time.Minute)
	v.SetDefault("fleet.window_days", 30)
	v.SetDefault("status.publish_interval", 30*time.Second)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.ttl", 10*time.Minute)
	v.SetDefault("db_path", "airline_sim.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Set config file name and type
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Set config file search paths
	v.AddConfigPath("/etc/airline_sim")
	v.AddConfigPath(".")

	if configPath := os.Getenv("AIRLINE_SIM_CONFIG_PATH"); configPath != "" {
		v.SetConfigFile(configPath)
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	// Read config file (if it exists)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// defaults + env vars; the logger isn't initialized yet
	}

	v.SetEnvPrefix("AIRLINE_SIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		World: WorldConfig{
			ID:           v.GetString("world.id"),
			APIURL:       v.GetString("world.api_url"),
			PollInterval: v.GetDuration("world.poll_interval"),
			PollTimeout:  v.GetDuration("world.poll_timeout"),
		},
		Push: PushConfig{
			Transport:   strings.ToLower(v.GetString("push.transport")),
			URL:         v.GetString("push.url"),
			NATSSubject: v.GetString("push.nats_subject"),
			AuthToken:   v.GetString("push.auth_token"),
		},
		Maintenance: MaintenanceConfig{
			Scheme:      strings.ToLower(v.GetString("maintenance.scheme")),
			PendingLead: v.GetDuration("maintenance.pending_lead"),
		},
		Fleet: FleetConfig{
			RefreshInterval: v.GetDuration("fleet.refresh_interval"),
			WindowDays:      v.GetInt("fleet.window_days"),
		},
		Status: StatusConfig{
			PublishInterval: v.GetDuration("status.publish_interval"),
		},
		Redis: RedisConfig{
			Addr: v.GetString("redis.addr"),
			TTL:  v.GetDuration("redis.ttl"),
		},
		DBPath: v.GetString("db_path"),
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	// Validate configuration
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// validate validates the configuration values
func validate(cfg *Config) error {
	if cfg.World.APIURL == "" {
		return fmt.Errorf("world.api_url is required")
	}

	if cfg.World.PollInterval <= 0 {
		return fmt.Errorf("world.poll_interval must be greater than 0")
	}

	if cfg.World.PollTimeout <= 0 {
		return fmt.Errorf("world.poll_timeout must be greater than 0")
	}

	switch cfg.Push.Transport {
	case TransportWebSocket, TransportNATS:
		if cfg.Push.URL == "" {
			return fmt.Errorf("push.url is required for transport %s", cfg.Push.Transport)
		}
	case TransportNone:
	default:
		return fmt.Errorf("invalid push transport: %s (must be websocket, nats, or none)", cfg.Push.Transport)
	}

	if _, err := tiers.Lookup(cfg.Maintenance.Scheme); err != nil {
		return err
	}

	if cfg.Maintenance.PendingLead < 0 {
		return fmt.Errorf("maintenance.pending_lead must not be negative")
	}

	if cfg.Fleet.RefreshInterval <= 0 {
		return fmt.Errorf("fleet.refresh_interval must be greater than 0")
	}

	if cfg.Fleet.WindowDays <= 0 {
		return fmt.Errorf("fleet.window_days must be greater than 0")
	}

	if cfg.Status.PublishInterval <= 0 {
		return fmt.Errorf("status.publish_interval must be greater than 0")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(cfg.Log.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", cfg.Log.Level)
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[strings.ToLower(cfg.Log.Format)] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", cfg.Log.Format)
	}

	return nil
}
