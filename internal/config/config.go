package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App     AppConfig
	Store   StoreConfig
	Redis   RedisConfig
	Log     LogConfig
	HTTP    HTTPConfig
	Session SessionConfig
	Sales   SalesConfig
	Receipt ReceiptConfig
}

type AppConfig struct {
	Name string
	Env  string
	Port string
}

// StoreConfig picks the storage adapter. Driver is one of
// mysql, postgres, sqlite, redis, memory.
type StoreConfig struct {
	Driver         string
	DSN            string
	ConnectRetries int
	ConnectWait    time.Duration
	Seed           bool
	KeyPrefix      string // key-value adapters only
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type LogConfig struct {
	Level  string
	Format string
	Output string
}

type HTTPConfig struct {
	CORSAllowOrigins []string
	WebDir           string // built SPA, served when non-empty
}

// SessionConfig signs the cart session tokens.
type SessionConfig struct {
	Secret string
	TTL    time.Duration
}

// SalesConfig bounds the retry of a unit of work that lost a concurrency race.
type SalesConfig struct {
	CommitRetries      int
	CommitInitialDelay time.Duration
	CommitMaxDelay     time.Duration
}

type ReceiptConfig struct {
	StoreName      string
	CurrencySymbol string
	TerminalID     string // empty means derive from the host
}

var drivers = map[string]bool{
	"mysql": true, "postgres": true, "sqlite": true, "redis": true, "memory": true,
}

// Load reads config.toml (searched in paths, then ".") and applies POS_*
// environment overrides, e.g. POS_STORE_DRIVER=sqlite.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.AddConfigPath(".")

	applyDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("POS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Store: StoreConfig{
			Driver:         strings.ToLower(v.GetString("store.driver")),
			DSN:            v.GetString("store.dsn"),
			ConnectRetries: v.GetInt("store.connect_retries"),
			ConnectWait:    v.GetDuration("store.connect_wait"),
			Seed:           v.GetBool("store.seed"),
			KeyPrefix:      v.GetString("store.key_prefix"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			WebDir:           v.GetString("http.web_dir"),
		},
		Session: SessionConfig{
			Secret: v.GetString("session.secret"),
			TTL:    v.GetDuration("session.ttl"),
		},
		Sales: SalesConfig{
			CommitRetries:      v.GetInt("sales.commit_retries"),
			CommitInitialDelay: v.GetDuration("sales.commit_initial_delay"),
			CommitMaxDelay:     v.GetDuration("sales.commit_max_delay"),
		},
		Receipt: ReceiptConfig{
			StoreName:      v.GetString("receipt.store_name"),
			CurrencySymbol: v.GetString("receipt.currency_symbol"),
			TerminalID:     v.GetString("receipt.terminal_id"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "bms-mart")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", "bms_mart.db")
	v.SetDefault("store.connect_retries", 5)
	v.SetDefault("store.connect_wait", 2*time.Second)
	v.SetDefault("store.seed", true)
	v.SetDefault("store.key_prefix", "pos:")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("http.cors_allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("session.secret", "change-me-in-production")
	v.SetDefault("session.ttl", 12*time.Hour)

	v.SetDefault("sales.commit_retries", 3)
	v.SetDefault("sales.commit_initial_delay", 20*time.Millisecond)
	v.SetDefault("sales.commit_max_delay", 500*time.Millisecond)

	v.SetDefault("receipt.store_name", "BMS MART")
	v.SetDefault("receipt.currency_symbol", "Rs.")
}

func (c *Config) validate() error {
	if !drivers[c.Store.Driver] {
		return fmt.Errorf("store.driver %q is not one of mysql, postgres, sqlite, redis, memory", c.Store.Driver)
	}
	switch c.Store.Driver {
	case "mysql", "postgres", "sqlite":
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for driver %s", c.Store.Driver)
		}
	case "redis":
		if c.Redis.Addr == "" {
			return errors.New("redis.addr is required for driver redis")
		}
	}
	if c.Store.ConnectRetries < 1 {
		return errors.New("store.connect_retries must be at least 1")
	}
	if c.Session.Secret == "" {
		return errors.New("session.secret is required")
	}
	if c.Session.TTL <= 0 {
		return errors.New("session.ttl must be positive")
	}
	if c.Sales.CommitRetries < 0 {
		return errors.New("sales.commit_retries must not be negative")
	}
	if c.IsProduction() && c.Session.Secret == "change-me-in-production" {
		return errors.New("session.secret must be set in production")
	}
	return nil
}

// IsProduction reports whether app.env is production.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
