package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"pump-alerts/internal/logging"
	"pump-alerts/internal/scheduler"
)

// Supported audit database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Exchange  ExchangeConfig  `mapstructure:"exchange"`
	Monitor   MonitorConfig   `mapstructure:"monitor"`
	Alerting  AlertingConfig  `mapstructure:"alerting"`
	Donation  DonationConfig  `mapstructure:"donation"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Export    ExportConfig    `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig selects the optional signal audit backend. An empty driver
// disables persistence.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig enables the optional sample mirror when Addr is set.
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// SchedulerConfig governs polling cadence.
type SchedulerConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	StartupDelay time.Duration `mapstructure:"startup_delay"`
}

// ExchangeConfig covers KuCoin REST access.
type ExchangeConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	APISecret      string        `mapstructure:"api_secret"`
	APIPassphrase  string        `mapstructure:"api_passphrase"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// MonitorConfig holds the signal horizon and symbol filter.
type MonitorConfig struct {
	MinutesToEvaluate int      `mapstructure:"minutes_to_evaluate"`
	HoursForTrend     int      `mapstructure:"hours_for_trend"`
	HistorySize       int      `mapstructure:"history_size"`
	QuoteAsset        string   `mapstructure:"quote_asset"`
	ExcludedMarkers   []string `mapstructure:"excluded_markers"`
	NotifyFetchErrors bool     `mapstructure:"notify_fetch_errors"`
}

// EvaluationPeriod returns the evaluation window length.
func (m MonitorConfig) EvaluationPeriod() time.Duration {
	return time.Duration(m.MinutesToEvaluate) * time.Minute
}

// TrendPeriod returns the trend window length.
func (m MonitorConfig) TrendPeriod() time.Duration {
	return time.Duration(m.HoursForTrend) * time.Hour
}

// AlertingConfig defines alert delivery.
type AlertingConfig struct {
	Enabled      bool           `mapstructure:"enabled"`
	QueueSize    int            `mapstructure:"queue_size"`
	SendInterval time.Duration  `mapstructure:"send_interval"`
	Telegram     TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig 描述 Telegram 告警参数。
type TelegramConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	BotToken string        `mapstructure:"bot_token"`
	ChatID   string        `mapstructure:"chat_id"`
	APIBase  string        `mapstructure:"api_base"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// DonationConfig schedules the donation broadcast.
type DonationConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Schedule   string `mapstructure:"schedule"`
	RunOnStart bool   `mapstructure:"run_on_start"`
	Message    string `mapstructure:"message"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	ListenAddr string `mapstructure:"listen_addr"`
	Path       string `mapstructure:"path"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// legacyEnv maps the environment variables of earlier deployments onto config keys.
var legacyEnv = map[string]string{
	"alerting.telegram.bot_token": "TELEGRAM_BOT_TOKEN",
	"alerting.telegram.chat_id":   "CHANNEL_ID",
	"exchange.api_key":            "API_KEY",
	"exchange.api_secret":         "API_SECRET",
	"exchange.api_passphrase":     "API_PASSPHRASE",
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PUMPALERTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range legacyEnv {
		prefixed := "PUMPALERTS_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "pumpalerts")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("database.driver", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("redis.key_prefix", "pumpalerts")

	v.SetDefault("scheduler.interval", "1s")
	v.SetDefault("scheduler.startup_delay", "0s")

	v.SetDefault("exchange.base_url", "https://api.kucoin.com")
	v.SetDefault("exchange.request_timeout", "10s")
	v.SetDefault("exchange.user_agent", "pumpalerts/1.0")

	v.SetDefault("monitor.minutes_to_evaluate", 5)
	v.SetDefault("monitor.hours_for_trend", 4)
	v.SetDefault("monitor.history_size", 1000)
	v.SetDefault("monitor.quote_asset", "USDT")
	v.SetDefault("monitor.excluded_markers", []string{"UP-", "DOWN-", "3L-", "3S-", "2L-", "2S-"})
	v.SetDefault("monitor.notify_fetch_errors", true)

	v.SetDefault("alerting.enabled", true)
	v.SetDefault("alerting.queue_size", 256)
	v.SetDefault("alerting.send_interval", "1s")
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")
	v.SetDefault("alerting.telegram.timeout", "10s")

	v.SetDefault("donation.enabled", true)
	v.SetDefault("donation.schedule", "@every 1h0m15s")
	v.SetDefault("donation.run_on_start", true)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.listen_addr", ":9102")
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("export.max_data_points", 100000)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be greater than zero")
	}
	if c.Monitor.MinutesToEvaluate <= 0 {
		return fmt.Errorf("monitor.minutes_to_evaluate must be greater than zero")
	}
	if c.Monitor.HoursForTrend <= 0 {
		return fmt.Errorf("monitor.hours_for_trend must be greater than zero")
	}
	if c.Monitor.HistorySize <= 0 {
		return fmt.Errorf("monitor.history_size must be greater than zero")
	}
	if strings.TrimSpace(c.Monitor.QuoteAsset) == "" {
		return fmt.Errorf("monitor.quote_asset is required")
	}
	if c.Alerting.SendInterval < 0 {
		return fmt.Errorf("alerting.send_interval cannot be negative")
	}
	switch strings.ToLower(c.Database.Driver) {
	case "":
	case DriverPostgres, DriverSQLite:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for driver %s", c.Database.Driver)
		}
	default:
		return fmt.Errorf("database.driver must be %q, %q or empty", DriverPostgres, DriverSQLite)
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token 必须配置")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id 必须配置")
		}
	}
	if c.Donation.Enabled {
		if err := scheduler.ValidateSpec(c.Donation.Schedule); err != nil {
			return fmt.Errorf("donation.schedule: %w", err)
		}
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
