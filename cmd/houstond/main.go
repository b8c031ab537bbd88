package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	apiPkg "github.com/soundcrew/houston/internal/api"
	"github.com/soundcrew/houston/internal/config"
	"github.com/soundcrew/houston/internal/connector"
	"github.com/soundcrew/houston/internal/connector/telegram"
	"github.com/soundcrew/houston/internal/conversation"
	"github.com/soundcrew/houston/internal/notify"
	"github.com/soundcrew/houston/internal/scheduler"
	"github.com/soundcrew/houston/internal/ticket"
)

func main() {
	configPath := flag.String("config", os.Getenv("HOUSTON_CONFIG"), "Path to config JSON or YAML file")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	// Set up logging
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	// Load config (2 modes: file, env)
	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
	} else {
		cfg, err = config.LoadFromEnv()
		if err == nil {
			err = cfg.Validate()
		}
	}
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("houstond starting", "mode", cfg.Bot.Mode, "store", cfg.Store.Driver)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. Open ticket store
	store, err := ticket.Open(ctx, cfg.Store.Driver, cfg.Store.Path, cfg.Store.DSN)
	if err != nil {
		logger.Error("failed to open ticket store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// 2. Telegram connector + conversation engine. The handler closure
	// references bot, which is built once the connector exists.
	var bot *conversation.Bot
	webhookPath := telegram.WebhookPath(cfg.Bot.Token)
	tgConn, err := telegram.New(
		telegram.Config{
			Token:      cfg.Bot.Token,
			Mode:       cfg.Bot.Mode,
			WebhookURL: cfg.WebhookURL(webhookPath),
			AllowFrom:  cfg.Bot.AllowFrom,
		},
		func(ctx context.Context, ev connector.Event) error {
			return bot.Handle(ctx, ev)
		},
		logger.With("connector", "telegram"),
	)
	if err != nil {
		logger.Error("failed to init telegram connector", "error", err)
		os.Exit(1)
	}

	bot = conversation.New(conversation.Config{Admins: cfg.Bot.Admins}, store, tgConn)
	bot.Logger = logger.With("component", "conversation")
	if n := buildNotifier(cfg.Notify, logger); n != nil {
		bot.Notifier = n
	}

	// 3. Scheduled report digest
	sched := scheduler.New(bot, nil, logger.With("component", "scheduler"))
	if cfg.Schedule.MonthlyReport != "" {
		if err := sched.AddMonthlyReport("monthly-report", cfg.Schedule.MonthlyReport, cfg.Schedule.Chats); err != nil {
			logger.Error("failed to schedule monthly report", "error", err)
			os.Exit(1)
		}
	}
	go safeGo(logger, "scheduler", func() { sched.Start(ctx) })

	// 4. API server, which also receives webhook updates
	apiSrv := apiPkg.NewServer(store, apiPkg.Config{
		Host: cfg.API.Host,
		Port: cfg.API.Port,
		Key:  cfg.API.Key,
	}, logger.With("component", "api"))
	if cfg.Bot.Mode == telegram.ModeWebhook {
		apiSrv.Handle("POST "+webhookPath, tgConn.WebhookHandler())
	}
	go safeGo(logger, "api-server", func() {
		if err := apiSrv.Start(ctx); err != nil {
			logger.Error("api server failed", "error", err)
		}
	})

	go safeGo(logger, "telegram", func() {
		if err := tgConn.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("telegram connector failed", "error", err)
		}
	})
	logger.Info("telegram connector started", "mode", cfg.Bot.Mode)

	// 5. Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig)
	tgConn.Stop()
	cancel()
	bot.Wait()
	logger.Info("houstond stopped")
}

// buildNotifier returns the configured announcement channels, or nil when
// none are set up.
func buildNotifier(cfg config.NotifyConfig, logger *slog.Logger) notify.Notifier {
	var multi notify.Multi
	if s := cfg.Slack; s != nil {
		multi = append(multi, notify.NewSlack(s.Token, s.Channel))
		logger.Info("slack notifier enabled", "channel", s.Channel)
	}
	if d := cfg.Discord; d != nil {
		dn, err := notify.NewDiscord(d.Token, d.ChannelID)
		if err != nil {
			logger.Warn("discord notifier disabled", "error", err)
		} else {
			multi = append(multi, dn)
			logger.Info("discord notifier enabled", "channel_id", d.ChannelID)
		}
	}
	if len(multi) == 0 {
		return nil
	}
	return multi
}

// safeGo runs fn with panic recovery.
func safeGo(logger *slog.Logger, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("goroutine panicked", "name", name, "panic", fmt.Sprintf("%v", r))
		}
	}()
	fn()
}
