package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CunXin1/fearwatch/internal/alert"
	"github.com/CunXin1/fearwatch/internal/cnn"
	"github.com/CunXin1/fearwatch/internal/config"
	"github.com/CunXin1/fearwatch/internal/logger"
	"github.com/CunXin1/fearwatch/internal/models"
	"github.com/CunXin1/fearwatch/internal/notifier"
	"github.com/CunXin1/fearwatch/internal/storage"
)

var (
	configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")
	runOnce    = flag.Bool("once", false, "Run a single daily cycle and exit (for external cron)")
	backfill   = flag.Bool("backfill", false, "Import historical data for all supported indexes and exit")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	store, err := storage.New(cfg.Storage.DBPath)
	if err != nil {
		logger.Fatal("Failed to initialize storage: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage: %v", err)
		}
	}()

	cnnClient := cnn.NewClient(
		cfg.CNN.APIURL,
		cfg.CNN.APIKey,
		cfg.CNN.Timeout,
		cfg.CNN.MaxRetries,
		cfg.CNN.RetryDelayBase,
	)

	engine := alert.NewEngine(cfg.Alerts.PanicRemindAfter)

	var mailer *notifier.Mailer
	if cfg.Email.Enabled {
		mailer = notifier.NewMailer(cfg.Email.SMTPHost, cfg.Email.SMTPPort, cfg.Email.From, cfg.Email.Password)
		logger.Info("Email delivery enabled via %s:%d", cfg.Email.SMTPHost, cfg.Email.SMTPPort)
	} else {
		logger.Debug("Email delivery disabled; decisions will only be logged")
	}

	var telegramClient *notifier.Telegram
	if cfg.Telegram.Enabled {
		telegramClient, err = notifier.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		logger.Info("Telegram operator channel initialized")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	if *backfill {
		if err := runBackfill(ctx, cnnClient, store); err != nil {
			logger.Fatal("Backfill failed: %v", err)
		}
		logger.Info("Backfill completed")
		return
	}

	consecutiveFailures := 0

	handleCycleResult := func(err error) {
		if err != nil {
			consecutiveFailures++
			logger.Error("Daily cycle failed: %v", err)
			if consecutiveFailures == 1 && telegramClient != nil {
				if sendErr := telegramClient.SendError(err); sendErr != nil {
					logger.Warn("Failed to send error notification to Telegram: %v", sendErr)
				}
			}
		} else {
			if consecutiveFailures > 0 && telegramClient != nil {
				if sendErr := telegramClient.SendRecovery(consecutiveFailures); sendErr != nil {
					logger.Warn("Failed to send recovery notification to Telegram: %v", sendErr)
				}
			}
			consecutiveFailures = 0
		}
	}

	if *runOnce {
		handleCycleResult(runDailyCycle(ctx, cnnClient, store, engine, mailer, telegramClient))
		if consecutiveFailures > 0 {
			os.Exit(1)
		}
		return
	}

	logger.Info("Starting alert service (interval: %v, panic reminder: %v)",
		cfg.Alerts.PollInterval, cfg.Alerts.PanicRemindAfter)

	ticker := time.NewTicker(cfg.Alerts.PollInterval)
	defer ticker.Stop()

	logger.Debug("Running initial daily cycle")
	handleCycleResult(runDailyCycle(ctx, cnnClient, store, engine, mailer, telegramClient))

	for {
		select {
		case <-ctx.Done():
			logger.Info("Service stopped")
			return

		case <-ticker.C:
			logger.Debug("Starting scheduled daily cycle")
			handleCycleResult(runDailyCycle(ctx, cnnClient, store, engine, mailer, telegramClient))
		}
	}
}

// runDailyCycle fetches today's readings, classifies the market, and runs the
// decision engine for every enabled subscriber. An upstream fetch failure
// aborts the whole cycle before any decision is made; per-subscriber failures
// are logged and never block the rest of the batch.
func runDailyCycle(
	ctx context.Context,
	cnnClient *cnn.Client,
	store *storage.Storage,
	engine *alert.Engine,
	mailer *notifier.Mailer,
	telegramClient *notifier.Telegram,
) error {
	startTime := time.Now()
	logger.Info("Starting daily cycle")

	readings, err := cnnClient.FetchLatest(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch sentiment data: %w", err)
	}
	logger.Info("Fetched %d index readings", len(readings))

	stored := 0
	for i := range readings {
		if err := store.UpsertReading(&readings[i]); err != nil {
			logger.Warn("Failed to store %s reading: %v", readings[i].IndexName, err)
			continue
		}
		stored++
	}
	logger.Debug("Stored %d/%d readings", stored, len(readings))

	latest, err := store.LatestReading(models.IndexFearAndGreed)
	if err != nil {
		return fmt.Errorf("no fear & greed score available: %w", err)
	}

	state := alert.Classify(latest.Score)
	logger.Info("Fear & Greed %s: score=%.2f state=%s", latest.Date, latest.Score, state)

	subs, err := store.EnabledSubscribers()
	if err != nil {
		return fmt.Errorf("failed to load subscribers: %w", err)
	}

	now := time.Now()
	emailsSent := 0

	for _, sub := range subs {
		events, updated, err := engine.Decide(sub.Alert, state, now)
		if err != nil {
			logger.Error("Skipping subscriber %s: %v", sub.Email, err)
			continue
		}
		if len(events) == 0 {
			continue
		}

		// Persist before dispatch: a lost email beats a duplicated one.
		if err := store.SaveAlertState(sub.Email, updated); err != nil {
			logger.Error("Failed to persist state for %s, skipping dispatch: %v", sub.Email, err)
			continue
		}

		for _, ev := range events {
			if ev.Type == models.EventStateChange {
				logger.Info("Subscriber %s: %s %s→%s", sub.Email, ev.Type, ev.From, ev.To)
			} else {
				logger.Info("Subscriber %s: %s", sub.Email, ev.Type)
			}
			if mailer == nil {
				continue
			}
			if err := mailer.SendEvent(sub.Email, ev, latest.Score); err != nil {
				logger.Error("Failed to deliver to %s: %v", sub.Email, err)
				continue
			}
			emailsSent++
		}
	}

	if telegramClient != nil {
		if err := telegramClient.SendDigest(latest.Score, state, len(subs), emailsSent); err != nil {
			logger.Warn("Failed to send daily digest to Telegram: %v", err)
		}
	}

	logger.Info("Daily cycle completed in %v (%d subscribers, %d emails)", time.Since(startTime), len(subs), emailsSent)
	return nil
}

// runBackfill imports historical readings for every supported index.
// Indexes without a historical endpoint are skipped.
func runBackfill(ctx context.Context, cnnClient *cnn.Client, store *storage.Storage) error {
	for _, index := range models.SupportedIndexes {
		readings, err := cnnClient.FetchHistorical(ctx, index)
		if err != nil {
			return fmt.Errorf("historical fetch for %s: %w", index, err)
		}
		if readings == nil {
			logger.Info("Index %s has no historical endpoint, skipping", index)
			continue
		}

		stored := 0
		for i := range readings {
			if err := store.UpsertReading(&readings[i]); err != nil {
				logger.Warn("Failed to store historical %s reading: %v", index, err)
				continue
			}
			stored++
		}
		logger.Info("Backfilled %d readings for %s", stored, index)
	}
	return nil
}
