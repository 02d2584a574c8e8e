// Package config loads and validates watcher configuration via Viper.
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"
	_ "time/tzdata" // league.timezone must resolve on hosts without zoneinfo

	"github.com/spf13/viper"

	"github.com/JakeFAU/league-watcher/internal/league"
)

// EnvPrefix prefixes every environment override, e.g. LEAGUEWATCH_TELEGRAM_TOKEN.
const EnvPrefix = "LEAGUEWATCH"

// Store drivers accepted by store.driver.
const (
	StoreLocal    = "local"
	StoreMemory   = "memory"
	StoreGCS      = "gcs"
	StorePostgres = "postgres"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	League    LeagueConfig    `mapstructure:"league"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Store     StoreConfig     `mapstructure:"store"`
	DB        DBConfig        `mapstructure:"db"`
	Notifier  NotifierConfig  `mapstructure:"notifier"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	PubSub    PubSubConfig    `mapstructure:"pubsub"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// LeagueConfig describes the league API and the leagues worth watching.
type LeagueConfig struct {
	APIBaseURL    string `mapstructure:"api_base_url"`
	SignupBaseURL string `mapstructure:"signup_base_url"`
	SportCode     string `mapstructure:"sport_code"`
	Status        string `mapstructure:"status"`
	PlayLevel     string `mapstructure:"play_level"`
	Day           string `mapstructure:"day"`
	PageSize      int    `mapstructure:"page_size"`
	Timezone      string `mapstructure:"timezone"`
}

// HTTPConfig configures the API client and its retries.
type HTTPConfig struct {
	TimeoutSeconds   int    `mapstructure:"timeout_seconds"`
	MaxAttempts      int    `mapstructure:"max_attempts"`
	BackoffInitialMs int    `mapstructure:"backoff_initial_ms"`
	UserAgent        string `mapstructure:"user_agent"`
}

// StoreConfig selects where previous results live.
type StoreConfig struct {
	Driver     string `mapstructure:"driver"`
	BaseDir    string `mapstructure:"base_dir"`
	ObjectName string `mapstructure:"object_name"`
	GCSBucket  string `mapstructure:"gcs_bucket"`
}

// DBConfig controls the Postgres snapshot store.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// NotifierConfig toggles the console notifier.
type NotifierConfig struct {
	Console bool `mapstructure:"console"`
}

// TelegramConfig holds bot credentials and delivery settings.
type TelegramConfig struct {
	Enabled            bool    `mapstructure:"enabled"`
	Token              string  `mapstructure:"token"`
	ChatID             int64   `mapstructure:"chat_id"`
	ThreadID           int     `mapstructure:"thread_id"`
	PollTimeoutSeconds int     `mapstructure:"poll_timeout_seconds"`
	RatePerSec         float64 `mapstructure:"rate_per_sec"`
}

// PubSubConfig holds metadata for announcement fan-out.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// SchedulerConfig controls the watch loop.
type SchedulerConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Cron     string        `mapstructure:"cron"`
	Warmup   time.Duration `mapstructure:"warmup"`
}

// ServerConfig controls the ops HTTP server.
type ServerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("league.api_base_url", "https://api.clevelandplays.com")
	v.SetDefault("league.signup_base_url", "https://users.clevelandplays.com")
	v.SetDefault("league.sport_code", "47")
	v.SetDefault("league.status", "sign_up")
	v.SetDefault("league.play_level", "Recreational")
	v.SetDefault("league.day", "friday")
	v.SetDefault("league.page_size", 500)
	v.SetDefault("league.timezone", "America/New_York")
	v.SetDefault("http.timeout_seconds", 10)
	v.SetDefault("http.max_attempts", 3)
	v.SetDefault("http.backoff_initial_ms", 5000)
	v.SetDefault("http.user_agent", "leaguewatch/1.0")
	v.SetDefault("store.driver", StoreLocal)
	v.SetDefault("store.base_dir", ".")
	v.SetDefault("store.object_name", "previous_results.json")
	v.SetDefault("store.gcs_bucket", "")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.table", "league_snapshots")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("notifier.console", true)
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.chat_id", 0)
	v.SetDefault("telegram.thread_id", 0)
	v.SetDefault("telegram.poll_timeout_seconds", 10)
	v.SetDefault("telegram.rate_per_sec", 1.0)
	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.topic_name", "")
	v.SetDefault("scheduler.interval", "1h")
	v.SetDefault("scheduler.cron", "")
	v.SetDefault("scheduler.warmup", "5s")
	v.SetDefault("server.enabled", true)
	v.SetDefault("server.port", 8080)
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.api_key", "")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if err := c.League.validate(); err != nil {
		return err
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.MaxAttempts < 1 {
		return fmt.Errorf("http.max_attempts must be >= 1")
	}
	if c.HTTP.BackoffInitialMs < 0 {
		return fmt.Errorf("http.backoff_initial_ms must be >= 0")
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if c.Telegram.Enabled {
		if c.Telegram.Token == "" {
			return fmt.Errorf("telegram.token must be set when telegram is enabled")
		}
		if c.Telegram.ChatID == 0 {
			return fmt.Errorf("telegram.chat_id must be set when telegram is enabled")
		}
	}
	if (c.PubSub.ProjectID == "") != (c.PubSub.TopicName == "") {
		return fmt.Errorf("pubsub.project_id and pubsub.topic_name must be set together")
	}
	if c.Scheduler.Cron == "" && c.Scheduler.Interval < time.Second {
		return fmt.Errorf("scheduler.interval must be >= 1s")
	}
	if c.Scheduler.Warmup < 0 {
		return fmt.Errorf("scheduler.warmup must be >= 0")
	}
	if c.Server.Enabled && c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	return nil
}

func (l LeagueConfig) validate() error {
	switch {
	case l.APIBaseURL == "":
		return fmt.Errorf("league.api_base_url is required")
	case l.SignupBaseURL == "":
		return fmt.Errorf("league.signup_base_url is required")
	case l.SportCode == "":
		return fmt.Errorf("league.sport_code is required")
	case l.Status == "":
		return fmt.Errorf("league.status is required")
	case strings.TrimSpace(l.PlayLevel) == "":
		return fmt.Errorf("league.play_level is required")
	case l.PageSize <= 0:
		return fmt.Errorf("league.page_size must be > 0")
	}
	if day := strings.ToLower(strings.TrimSpace(l.Day)); day != "" && !slices.Contains(league.Weekdays, day) {
		return fmt.Errorf("league.day %q is not a weekday", l.Day)
	}
	if _, err := time.LoadLocation(l.Timezone); err != nil {
		return fmt.Errorf("league.timezone: %w", err)
	}
	return nil
}

func (c Config) validateStore() error {
	switch c.Store.Driver {
	case StoreLocal, StoreMemory:
	case StoreGCS:
		if c.Store.GCSBucket == "" {
			return fmt.Errorf("store.gcs_bucket must be set for the gcs driver")
		}
	case StorePostgres:
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn must be set for the postgres driver")
		}
	default:
		return fmt.Errorf("store.driver %q is not one of local, memory, gcs, postgres", c.Store.Driver)
	}
	if c.Store.ObjectName == "" {
		return fmt.Errorf("store.object_name is required")
	}
	return nil
}

// Location returns the league timezone. Validate has already checked it loads.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.League.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Criteria returns the league filter.
func (c Config) Criteria() league.Criteria {
	return league.Criteria{PlayLevel: c.League.PlayLevel, Day: c.League.Day}
}

// RequestTimeout is the per-request budget for the league API.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// RetryBackoff is the base delay between retries.
func (c Config) RetryBackoff() time.Duration {
	return time.Duration(c.HTTP.BackoffInitialMs) * time.Millisecond
}
