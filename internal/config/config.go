package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "SUBREDDIT_STATS_CONFIG"
	databaseDSNEnv    = "DATABASE_DSN"
	listPathEnv       = "SUBREDDIT_LIST_PATH"
	statePathEnv      = "COLLECTION_STATE_PATH"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Collector     CollectorConfig    `yaml:"collector"`
	StatsAPI      StatsAPIConfig     `yaml:"statsApi"`
	Retry         RetryConfig        `yaml:"retry"`
	List          ListConfig         `yaml:"list"`
	State         StateConfig        `yaml:"state"`
	Sink          SinkConfig         `yaml:"sink"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Notifications NotificationConfig `yaml:"notifications"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// CollectorConfig bounds a single engine run.
type CollectorConfig struct {
	TimeBudget     string `yaml:"timeBudget"`
	BlockThreshold int    `yaml:"blockThreshold"`
	Cooldown       string `yaml:"cooldown"`
}

// Budget resolves the run time budget, falling back to the default.
func (c CollectorConfig) Budget() time.Duration {
	return parseDuration(c.TimeBudget, 4*time.Hour)
}

// CooldownWindow resolves the blocking cooldown, falling back to 24h.
func (c CollectorConfig) CooldownWindow() time.Duration {
	return parseDuration(c.Cooldown, 24*time.Hour)
}

// StatsAPIConfig describes the subredditstats.com endpoint.
type StatsAPIConfig struct {
	BaseURL        string `yaml:"baseUrl"`
	Timeout        string `yaml:"timeout"`
	UserAgent      string `yaml:"userAgent"`
	CallsPerMinute int    `yaml:"callsPerMinute"`
}

// RequestTimeout resolves the per-request timeout.
func (s StatsAPIConfig) RequestTimeout() time.Duration {
	return parseDuration(s.Timeout, 60*time.Second)
}

// RetryConfig bounds per-query re-attempts on transient failures.
type RetryConfig struct {
	Attempts int    `yaml:"attempts"`
	MinDelay string `yaml:"minDelay"`
	MaxDelay string `yaml:"maxDelay"`
}

// MinBackoff resolves the initial backoff delay.
func (r RetryConfig) MinBackoff() time.Duration {
	return parseDuration(r.MinDelay, 2*time.Second)
}

// MaxBackoff resolves the backoff cap.
func (r RetryConfig) MaxBackoff() time.Duration {
	return parseDuration(r.MaxDelay, 30*time.Second)
}

// ListConfig locates the pre-fetched subreddit list.
type ListConfig struct {
	Path string `yaml:"path"`
}

// StateConfig selects and locates the collection state store.
type StateConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// SinkConfig selects the output sink.
type SinkConfig struct {
	Backend string `yaml:"backend"`
	CSVPath string `yaml:"csvPath"`
	DSN     string `yaml:"dsn"`
}

// SchedulerConfig chooses between a single run and local loop mode.
type SchedulerConfig struct {
	Mode     string `yaml:"mode"`
	Interval string `yaml:"interval"`
}

// LoopInterval resolves the pause between loop-mode runs.
func (s SchedulerConfig) LoopInterval() time.Duration {
	return parseDuration(s.Interval, 5*time.Minute)
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Sink.DSN = v
	}

	if v := os.Getenv(listPathEnv); v != "" {
		c.List.Path = v
	}

	if v := os.Getenv(statePathEnv); v != "" {
		c.State.Path = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Collector.TimeBudget != "" {
		base.Collector.TimeBudget = override.Collector.TimeBudget
	}
	if override.Collector.BlockThreshold > 0 {
		base.Collector.BlockThreshold = override.Collector.BlockThreshold
	}
	if override.Collector.Cooldown != "" {
		base.Collector.Cooldown = override.Collector.Cooldown
	}

	if override.StatsAPI.BaseURL != "" {
		base.StatsAPI.BaseURL = override.StatsAPI.BaseURL
	}
	if override.StatsAPI.Timeout != "" {
		base.StatsAPI.Timeout = override.StatsAPI.Timeout
	}
	if override.StatsAPI.UserAgent != "" {
		base.StatsAPI.UserAgent = override.StatsAPI.UserAgent
	}
	if override.StatsAPI.CallsPerMinute > 0 {
		base.StatsAPI.CallsPerMinute = override.StatsAPI.CallsPerMinute
	}

	if override.Retry.Attempts > 0 {
		base.Retry.Attempts = override.Retry.Attempts
	}
	if override.Retry.MinDelay != "" {
		base.Retry.MinDelay = override.Retry.MinDelay
	}
	if override.Retry.MaxDelay != "" {
		base.Retry.MaxDelay = override.Retry.MaxDelay
	}

	if override.List.Path != "" {
		base.List.Path = override.List.Path
	}

	if override.State.Backend != "" {
		base.State.Backend = override.State.Backend
	}
	if override.State.Path != "" {
		base.State.Path = override.State.Path
	}

	if override.Sink.Backend != "" {
		base.Sink.Backend = override.Sink.Backend
	}
	if override.Sink.CSVPath != "" {
		base.Sink.CSVPath = override.Sink.CSVPath
	}
	if override.Sink.DSN != "" {
		base.Sink.DSN = override.Sink.DSN
	}

	if override.Scheduler.Mode != "" {
		base.Scheduler.Mode = override.Scheduler.Mode
	}
	if override.Scheduler.Interval != "" {
		base.Scheduler.Interval = override.Scheduler.Interval
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Collector: CollectorConfig{
			TimeBudget:     "4h",
			BlockThreshold: 50,
			Cooldown:       "24h",
		},
		StatsAPI: StatsAPIConfig{
			BaseURL:        "https://subredditstats.com",
			Timeout:        "60s",
			UserAgent:      "SubredditStats/1.0",
			CallsPerMinute: 30,
		},
		Retry: RetryConfig{
			Attempts: 3,
			MinDelay: "2s",
			MaxDelay: "30s",
		},
		List:      ListConfig{Path: "subreddits.json"},
		State:     StateConfig{Backend: "file", Path: "state/subreddit_subscribers.json"},
		Sink:      SinkConfig{Backend: "csv", CSVPath: "data/subscriber_counts.csv"},
		Scheduler: SchedulerConfig{Mode: "once", Interval: "5m"},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{BotToken: "", ChatID: ""},
		},
	}
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("config: invalid duration %q, using %s", value, fallback)
		return fallback
	}
	return d
}
