package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/soundcrew/houston/internal/connector/telegram"
	"github.com/soundcrew/houston/internal/ticket"
)

const validJSON = `{
  "bot": {
    "token": "123456:ABC",
    "mode": "webhook",
    "webhook_base_url": "https://houston.example.com/",
    "admins": [100, 200]
  },
  "store": {
    "driver": "sqlite",
    "path": "/data/tickets.db"
  },
  "notify": {
    "slack": {"token": "xoxb-1", "channel": "C123"}
  },
  "schedule": {
    "monthly_report": "0 9 1 * *",
    "chats": [-1001]
  },
  "api": {
    "host": "127.0.0.1",
    "port": 8000,
    "api_key": "export-key"
  }
}`

const validYAML = `
bot:
  token: "123456:ABC"
  allow_from: [7]
store:
  driver: postgres
  dsn: postgres://houston@localhost/houston?sslmode=disable
notify:
  discord:
    token: discord-token
    channel_id: "999"
`

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"HOUSTON_BOT_TOKEN", "BOT_TOKEN", "HOUSTON_BOT_MODE", "HOUSTON_WEBHOOK_BASE_URL", "RENDER_EXTERNAL_URL",
		"HOUSTON_STORE_DRIVER", "HOUSTON_DB_PATH", "HOUSTON_DATABASE_URL", "DATABASE_URL",
		"HOUSTON_API_HOST", "HOUSTON_API_PORT", "PORT", "HOUSTON_API_KEY",
		"HOUSTON_ADMINS", "HOUSTON_ALLOW_FROM", "HOUSTON_REPORT_CHATS", "HOUSTON_MONTHLY_REPORT",
		"HOUSTON_SLACK_TOKEN", "HOUSTON_SLACK_CHANNEL", "HOUSTON_DISCORD_TOKEN", "HOUSTON_DISCORD_CHANNEL_ID",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, "houston.json", validJSON))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Bot.Token != "123456:ABC" {
		t.Errorf("bot.token = %q", cfg.Bot.Token)
	}
	if cfg.Bot.Mode != telegram.ModeWebhook {
		t.Errorf("bot.mode = %q", cfg.Bot.Mode)
	}
	if len(cfg.Bot.Admins) != 2 || cfg.Bot.Admins[1] != 200 {
		t.Errorf("bot.admins = %v", cfg.Bot.Admins)
	}
	if got := cfg.WebhookURL("/webhook/123456:ABC"); got != "https://houston.example.com/webhook/123456:ABC" {
		t.Errorf("webhook url = %q", got)
	}
	if cfg.Store.Path != "/data/tickets.db" {
		t.Errorf("store.path = %q", cfg.Store.Path)
	}
	if cfg.Notify.Slack == nil || cfg.Notify.Slack.Channel != "C123" {
		t.Errorf("notify.slack = %+v", cfg.Notify.Slack)
	}
	if cfg.Notify.Discord != nil {
		t.Error("discord should be nil")
	}
	if cfg.Schedule.MonthlyReport != "0 9 1 * *" || len(cfg.Schedule.Chats) != 1 {
		t.Errorf("schedule = %+v", cfg.Schedule)
	}
	if cfg.API.Port != 8000 || cfg.API.Key != "export-key" {
		t.Errorf("api = %+v", cfg.API)
	}
}

func TestLoadYAML(t *testing.T) {
	cfg, err := Load(writeConfig(t, "houston.yaml", validYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Driver != ticket.DriverPostgres || !strings.HasPrefix(cfg.Store.DSN, "postgres://") {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Notify.Discord == nil || cfg.Notify.Discord.ChannelID != "999" {
		t.Errorf("notify.discord = %+v", cfg.Notify.Discord)
	}
	if len(cfg.Bot.AllowFrom) != 1 || cfg.Bot.AllowFrom[0] != 7 {
		t.Errorf("allow_from = %v", cfg.Bot.AllowFrom)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "houston.yml", "bot:\n  token: t\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Bot.Mode != telegram.ModePolling {
		t.Errorf("mode = %q", cfg.Bot.Mode)
	}
	if cfg.Store.Driver != ticket.DriverSQLite || cfg.Store.Path != "tickets.db" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.API.Host != "0.0.0.0" || cfg.API.Port != 8080 {
		t.Errorf("api = %+v", cfg.API)
	}
}

func TestDefaultDriverOpensStore(t *testing.T) {
	cfg := validConfig()
	cfg.Store.Path = filepath.Join(t.TempDir(), "tickets.db")

	store, err := ticket.Open(context.Background(), cfg.Store.Driver, cfg.Store.Path, cfg.Store.DSN)
	if err != nil {
		t.Fatalf("store rejects configured driver %q: %v", cfg.Store.Driver, err)
	}
	store.Close()
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/houston.json")
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	_, err := Load(writeConfig(t, "bad.json", "{invalid"))
	if err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "bad.yaml", "bot: [unclosed"))
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func validConfig() *Config {
	cfg := &Config{Bot: BotConfig{Token: "t"}}
	cfg.applyDefaults()
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing token", func(c *Config) { c.Bot.Token = "" }, "bot.token is required"},
		{"bad mode", func(c *Config) { c.Bot.Mode = "push" }, `bot.mode "push"`},
		{"webhook without url", func(c *Config) { c.Bot.Mode = telegram.ModeWebhook }, "bot.webhook_base_url is required"},
		{"postgres without dsn", func(c *Config) { c.Store.Driver = ticket.DriverPostgres }, "store.dsn is required"},
		{"unknown driver", func(c *Config) { c.Store.Driver = "mysql" }, `store.driver "mysql"`},
		{"slack without channel", func(c *Config) { c.Notify.Slack = &SlackConfig{Token: "x"} }, "notify.slack.channel is required"},
		{"discord without token", func(c *Config) { c.Notify.Discord = &DiscordConfig{ChannelID: "1"} }, "notify.discord.token is required"},
		{"bad cron", func(c *Config) {
			c.Schedule = ScheduleConfig{MonthlyReport: "every month", Chats: []int64{1}}
		}, "schedule.monthly_report"},
		{"schedule without chats", func(c *Config) { c.Schedule.MonthlyReport = "@monthly" }, "schedule.chats is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := &Config{Bot: BotConfig{Mode: "x"}, Store: StoreConfig{Driver: "y"}}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if n := strings.Count(err.Error(), "\n  - "); n != 3 {
		t.Errorf("expected 3 problems, got %d: %v", n, err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOUSTON_BOT_TOKEN", "tg-token")
	t.Setenv("HOUSTON_API_PORT", "9090")
	t.Setenv("HOUSTON_ADMINS", "100, 200,300")
	t.Setenv("HOUSTON_REPORT_CHATS", "-1001")
	t.Setenv("HOUSTON_MONTHLY_REPORT", "@monthly")
	t.Setenv("HOUSTON_SLACK_TOKEN", "xoxb")
	t.Setenv("HOUSTON_SLACK_CHANNEL", "C1")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}

	if cfg.Bot.Token != "tg-token" || cfg.Bot.Mode != telegram.ModePolling {
		t.Errorf("bot = %+v", cfg.Bot)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("api.port = %d", cfg.API.Port)
	}
	if len(cfg.Bot.Admins) != 3 {
		t.Errorf("admins = %v", cfg.Bot.Admins)
	}
	if cfg.Notify.Slack == nil || cfg.Notify.Slack.Channel != "C1" {
		t.Errorf("slack = %+v", cfg.Notify.Slack)
	}
	if cfg.Notify.Discord != nil {
		t.Error("discord should be nil")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("env config invalid: %v", err)
	}
}

func TestLoadFromEnvHostedFallbacks(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_TOKEN", "legacy-token")
	t.Setenv("RENDER_EXTERNAL_URL", "https://houston.onrender.com")
	t.Setenv("PORT", "10000")
	t.Setenv("DATABASE_URL", "postgres://db")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Bot.Token != "legacy-token" {
		t.Errorf("token = %q", cfg.Bot.Token)
	}
	if cfg.Bot.Mode != telegram.ModeWebhook || cfg.Bot.WebhookBaseURL != "https://houston.onrender.com" {
		t.Errorf("bot = %+v", cfg.Bot)
	}
	if cfg.API.Port != 10000 {
		t.Errorf("port = %d", cfg.API.Port)
	}
	if cfg.Store.Driver != ticket.DriverPostgres {
		t.Errorf("driver = %q", cfg.Store.Driver)
	}
}

func TestLoadFromEnvBadList(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOUSTON_ADMINS", "100,abc")
	if _, err := LoadFromEnv(); err == nil {
		t.Error("expected error for malformed admin list")
	}
}

func TestLoadFromEnvDotenv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("HOUSTON_BOT_TOKEN=from-dotenv\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Bot.Token != "from-dotenv" {
		t.Errorf("token = %q", cfg.Bot.Token)
	}
}
