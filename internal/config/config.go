package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/soundcrew/houston/internal/connector/telegram"
	"github.com/soundcrew/houston/internal/ticket"
)

// Config is the top-level houston configuration.
type Config struct {
	Bot      BotConfig      `json:"bot" yaml:"bot"`
	Store    StoreConfig    `json:"store" yaml:"store"`
	API      APIConfig      `json:"api" yaml:"api"`
	Notify   NotifyConfig   `json:"notify" yaml:"notify"`
	Schedule ScheduleConfig `json:"schedule" yaml:"schedule"`
}

// BotConfig holds Telegram bot settings.
type BotConfig struct {
	Token          string  `json:"token" yaml:"token"`
	Mode           string  `json:"mode,omitempty" yaml:"mode,omitempty"` // polling (default) or webhook
	WebhookBaseURL string  `json:"webhook_base_url,omitempty" yaml:"webhook_base_url,omitempty"`
	Admins         []int64 `json:"admins,omitempty" yaml:"admins,omitempty"`         // may request reports; empty = everyone
	AllowFrom      []int64 `json:"allow_from,omitempty" yaml:"allow_from,omitempty"` // may talk to the bot; empty = everyone
}

// StoreConfig selects the ticket store.
type StoreConfig struct {
	Driver string `json:"driver,omitempty" yaml:"driver,omitempty"` // sqlite (default) or postgres
	Path   string `json:"path,omitempty" yaml:"path,omitempty"`     // sqlite database file
	DSN    string `json:"dsn,omitempty" yaml:"dsn,omitempty"`       // postgres connection string
}

// APIConfig holds HTTP server settings.
type APIConfig struct {
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port"`
	Key  string `json:"api_key" yaml:"api_key"`
}

// NotifyConfig holds optional new-ticket announcement channels.
type NotifyConfig struct {
	Slack   *SlackConfig   `json:"slack,omitempty" yaml:"slack,omitempty"`
	Discord *DiscordConfig `json:"discord,omitempty" yaml:"discord,omitempty"`
}

// SlackConfig holds Slack notifier settings.
type SlackConfig struct {
	Token   string `json:"token" yaml:"token"`
	Channel string `json:"channel" yaml:"channel"`
}

// DiscordConfig holds Discord notifier settings.
type DiscordConfig struct {
	Token     string `json:"token" yaml:"token"`
	ChannelID string `json:"channel_id" yaml:"channel_id"`
}

// ScheduleConfig holds the periodic report digest.
type ScheduleConfig struct {
	MonthlyReport string  `json:"monthly_report,omitempty" yaml:"monthly_report,omitempty"` // cron expression
	Chats         []int64 `json:"chats,omitempty" yaml:"chats,omitempty"`
}

// Load reads configuration from a JSON or YAML file, chosen by extension.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromEnv builds a config from environment variables with HOUSTON_
// prefix, after loading a .env file from the working directory if one
// exists. BOT_TOKEN, RENDER_EXTERNAL_URL, PORT and DATABASE_URL are
// honoured as fallbacks.
func LoadFromEnv() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: .env: %w", err)
	}

	cfg := &Config{
		Bot: BotConfig{
			Token:          getenv("HOUSTON_BOT_TOKEN", os.Getenv("BOT_TOKEN")),
			Mode:           os.Getenv("HOUSTON_BOT_MODE"),
			WebhookBaseURL: getenv("HOUSTON_WEBHOOK_BASE_URL", os.Getenv("RENDER_EXTERNAL_URL")),
		},
		Store: StoreConfig{
			Driver: os.Getenv("HOUSTON_STORE_DRIVER"),
			Path:   os.Getenv("HOUSTON_DB_PATH"),
			DSN:    getenv("HOUSTON_DATABASE_URL", os.Getenv("DATABASE_URL")),
		},
		API: APIConfig{
			Host: getenv("HOUSTON_API_HOST", "0.0.0.0"),
			Port: getenvInt("HOUSTON_API_PORT", getenvInt("PORT", 8080)),
			Key:  os.Getenv("HOUSTON_API_KEY"),
		},
		Schedule: ScheduleConfig{
			MonthlyReport: os.Getenv("HOUSTON_MONTHLY_REPORT"),
		},
	}

	// A public URL implies the bot is hosted behind a webhook.
	if cfg.Bot.Mode == "" && cfg.Bot.WebhookBaseURL != "" {
		cfg.Bot.Mode = telegram.ModeWebhook
	}
	if cfg.Store.Driver == "" && cfg.Store.DSN != "" {
		cfg.Store.Driver = ticket.DriverPostgres
	}

	lists := []struct {
		key string
		dst *[]int64
	}{
		{"HOUSTON_ADMINS", &cfg.Bot.Admins},
		{"HOUSTON_ALLOW_FROM", &cfg.Bot.AllowFrom},
		{"HOUSTON_REPORT_CHATS", &cfg.Schedule.Chats},
	}
	for _, l := range lists {
		if v := os.Getenv(l.key); v != "" {
			parsed, err := parseInt64List(v)
			if err != nil {
				return nil, fmt.Errorf("config: %s: %w", l.key, err)
			}
			*l.dst = parsed
		}
	}

	if token := os.Getenv("HOUSTON_SLACK_TOKEN"); token != "" {
		cfg.Notify.Slack = &SlackConfig{Token: token, Channel: os.Getenv("HOUSTON_SLACK_CHANNEL")}
	}
	if token := os.Getenv("HOUSTON_DISCORD_TOKEN"); token != "" {
		cfg.Notify.Discord = &DiscordConfig{Token: token, ChannelID: os.Getenv("HOUSTON_DISCORD_CHANNEL_ID")}
	}

	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults fills in default values.
func (c *Config) applyDefaults() {
	if c.Bot.Mode == "" {
		c.Bot.Mode = telegram.ModePolling
	}
	if c.Store.Driver == "" {
		c.Store.Driver = ticket.DriverSQLite
	}
	if c.Store.Driver == ticket.DriverSQLite && c.Store.Path == "" {
		c.Store.Path = "tickets.db"
	}
	if c.API.Host == "" {
		c.API.Host = "0.0.0.0"
	}
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
}

// WebhookURL is the public address Telegram posts updates to.
func (c *Config) WebhookURL(path string) string {
	return strings.TrimRight(c.Bot.WebhookBaseURL, "/") + path
}

// Validate checks for required fields.
func (c *Config) Validate() error {
	var errs []string

	if c.Bot.Token == "" {
		errs = append(errs, "bot.token is required")
	}
	switch c.Bot.Mode {
	case telegram.ModePolling:
	case telegram.ModeWebhook:
		if c.Bot.WebhookBaseURL == "" {
			errs = append(errs, "bot.webhook_base_url is required in webhook mode")
		}
	default:
		errs = append(errs, fmt.Sprintf("bot.mode %q must be polling or webhook", c.Bot.Mode))
	}

	switch c.Store.Driver {
	case ticket.DriverSQLite:
		if c.Store.Path == "" {
			errs = append(errs, "store.path is required for sqlite")
		}
	case ticket.DriverPostgres:
		if c.Store.DSN == "" {
			errs = append(errs, "store.dsn is required for postgres")
		}
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q must be sqlite or postgres", c.Store.Driver))
	}

	if c.API.Port < 0 || c.API.Port > 65535 {
		errs = append(errs, fmt.Sprintf("api.port %d out of range", c.API.Port))
	}

	if s := c.Notify.Slack; s != nil {
		if s.Token == "" {
			errs = append(errs, "notify.slack.token is required")
		}
		if s.Channel == "" {
			errs = append(errs, "notify.slack.channel is required")
		}
	}
	if d := c.Notify.Discord; d != nil {
		if d.Token == "" {
			errs = append(errs, "notify.discord.token is required")
		}
		if d.ChannelID == "" {
			errs = append(errs, "notify.discord.channel_id is required")
		}
	}

	if c.Schedule.MonthlyReport != "" {
		if _, err := cron.ParseStandard(c.Schedule.MonthlyReport); err != nil {
			errs = append(errs, fmt.Sprintf("schedule.monthly_report: %v", err))
		}
		if len(c.Schedule.Chats) == 0 {
			errs = append(errs, "schedule.chats is required with schedule.monthly_report")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func parseInt64List(s string) ([]int64, error) {
	parts := strings.Split(s, ",")
	result := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", p)
		}
		result = append(result, n)
	}
	return result, nil
}
