package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"homework_status_bot/internal/app"
	"homework_status_bot/internal/infra/config"
	"homework_status_bot/internal/infra/logger"
	"homework_status_bot/internal/infra/practicum"
	"homework_status_bot/internal/infra/scheduler"
	"homework_status_bot/internal/infra/systemd"
	"homework_status_bot/internal/infra/telegram"

	"github.com/sirupsen/logrus"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, cfgErr := config.Load()

	log := logger.New(cfg.LogLevel, cfg.Environment)
	mainLogger := log.WithField("component", "main")

	var missing *config.MissingVariablesError
	if errors.As(cfgErr, &missing) {
		for _, name := range missing.Names {
			logger.Critical(mainLogger.WithField("variable", name), "Нет обязательных переменных окружения: ", name)
		}
		return 1
	}
	if cfgErr != nil {
		logger.Critical(mainLogger.WithError(cfgErr), "Could not load application configuration")
		return 1
	}
	mainLogger.WithFields(logrus.Fields{
		"log_level":   cfg.LogLevel,
		"environment": cfg.Environment,
		"endpoint":    cfg.Endpoint,
		"schedule":    cfg.RetrySchedule,
	}).Info("Configuration loaded")

	cycleScheduler, err := scheduler.NewCycleScheduler(cfg.RetrySchedule, log.WithField("component", "scheduler"))
	if err != nil {
		logger.Critical(mainLogger.WithError(err), "Could not parse RETRY_SCHEDULE")
		return 1
	}

	bot, err := telegram.NewBot(cfg.TelegramToken, false)
	if err != nil {
		logger.Critical(mainLogger.WithError(err), "Could not create Telegram bot")
		return 1
	}
	telegramClient := telegram.NewTelebotAdapter(bot)
	mainLogger.Info("Telegram client initialized")

	statusClient := practicum.NewClient(cfg.Endpoint, cfg.PracticumToken, cfg.RequestTimeout)

	pollService := app.NewPollService(
		statusClient,
		telegramClient,
		cycleScheduler,
		log.WithField("component", "poller"),
		app.PollConfig{
			RecipientChatID: cfg.TelegramChatID,
			StartCursor:     cfg.StartCursor(time.Now()),
		},
	)

	sd := systemd.NewNotifier(log.WithField("component", "systemd"))
	pollService.OnCycle(func(app.CycleResult) { sd.Watchdog() })

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sd.Ready()
	mainLogger.Info("Application setup complete. Poll loop is starting...")

	err = pollService.Run(ctx)
	sd.Stopping()
	if err != nil && ctx.Err() == nil {
		mainLogger.WithError(err).Error("Poll loop terminated unexpectedly")
		return 1
	}
	mainLogger.Info("Application shut down gracefully.")
	return 0
}
