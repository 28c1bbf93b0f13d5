package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
	Matching MatchingConfig `toml:"matching"`
	Engine   EngineConfig   `toml:"engine"`
	Notify   NotifyConfig   `toml:"notify"`
	Redis    RedisConfig    `toml:"redis"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// MatchingConfig controls predicate semantics.
type MatchingConfig struct {
	// EmptySetPolicy is "wildcard" (empty facet matches anything) or "match_nothing".
	EmptySetPolicy string `toml:"empty_set_policy"`
}

// EngineConfig sizes the background matching engine.
type EngineConfig struct {
	QueueSize       int      `toml:"queue_size"`
	CycleWorkers    int      `toml:"cycle_workers"`
	DispatchWorkers int      `toml:"dispatch_workers"`
	DispatchTimeout Duration `toml:"dispatch_timeout"`
	ClaimStore      string   `toml:"claim_store"` // memory or redis
	ClaimTTL        Duration `toml:"claim_ttl"`
}

// NotifyConfig selects and configures the notification provider.
type NotifyConfig struct {
	Driver    string        `toml:"driver"` // smtp, webhook or log
	From      string        `toml:"from"`
	RateLimit float64       `toml:"rate_limit"` // sends per second, 0 disables
	SMTP      SMTPConfig    `toml:"smtp"`
	Webhook   WebhookConfig `toml:"webhook"`
}

// SMTPConfig contains SMTP relay credentials.
type SMTPConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	UseSSL   bool   `toml:"use_ssl"`
	UseTLS   bool   `toml:"use_tls"`
}

// WebhookConfig contains the HTTP notification provider endpoint.
type WebhookConfig struct {
	URL   string `toml:"url"`
	Token string `toml:"token"`
}

// RedisConfig contains the Redis connection used for claims and the listing event channel.
type RedisConfig struct {
	URL       string `toml:"url"`
	Channel   string `toml:"channel"`
	Namespace string `toml:"namespace"`
}

// Duration wraps [time.Duration] so it can be written as "10s" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: duration %q: %v", ErrInvalidConfig, string(text), err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate reports the first setting that cannot drive the engine.
func (c *Config) Validate() error {
	switch c.Matching.EmptySetPolicy {
	case "wildcard", "match_nothing":
	default:
		return fmt.Errorf("%w: matching.empty_set_policy must be wildcard or match_nothing, got %q", ErrInvalidConfig, c.Matching.EmptySetPolicy)
	}

	switch c.Engine.ClaimStore {
	case "memory":
	case "redis":
		if c.Redis.URL == "" {
			return fmt.Errorf("%w: engine.claim_store = redis requires redis.url", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: engine.claim_store must be memory or redis, got %q", ErrInvalidConfig, c.Engine.ClaimStore)
	}

	switch c.Notify.Driver {
	case "log":
	case "smtp":
		if c.Notify.SMTP.Host == "" {
			return fmt.Errorf("%w: notify.driver = smtp requires notify.smtp.host", ErrInvalidConfig)
		}
	case "webhook":
		if c.Notify.Webhook.URL == "" {
			return fmt.Errorf("%w: notify.driver = webhook requires notify.webhook.url", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: notify.driver must be smtp, webhook or log, got %q", ErrInvalidConfig, c.Notify.Driver)
	}

	if c.Engine.QueueSize <= 0 || c.Engine.CycleWorkers <= 0 || c.Engine.DispatchWorkers <= 0 {
		return fmt.Errorf("%w: engine queue_size, cycle_workers and dispatch_workers must be positive", ErrInvalidConfig)
	}
	if c.Notify.RateLimit < 0 {
		return fmt.Errorf("%w: notify.rate_limit must not be negative", ErrInvalidConfig)
	}
	return nil
}
