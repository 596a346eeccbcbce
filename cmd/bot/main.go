package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"subscriber-relay-bot/internal/adapter/httpserver"
	telegramAdapter "subscriber-relay-bot/internal/adapter/telegram"
	"subscriber-relay-bot/internal/config"
	"subscriber-relay-bot/internal/domain"
	"subscriber-relay-bot/internal/infra/jsonfile"
	"subscriber-relay-bot/internal/infra/memory"
	redisRepo "subscriber-relay-bot/internal/infra/redis"
	sqliteRepo "subscriber-relay-bot/internal/infra/sqlite"
	"subscriber-relay-bot/internal/usecase"
)

func main() {
	cfg, err := config.Load(os.Getenv)
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("bot stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("bot stopped")
}

func run(ctx context.Context, cfg config.AppConfig, logger *slog.Logger) error {
	// The liveness endpoint runs on its own goroutine and shares nothing with the handlers.
	liveness := httpserver.New(cfg.Port, logger)
	go func() {
		if err := liveness.Run(ctx); err != nil {
			logger.Error("liveness server error", "addr", liveness.Addr(), "error", err)
		}
	}()

	registryStore, funnelRepo, closeStores, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	registry, err := usecase.LoadUserRegistry(ctx, registryStore)
	if err != nil {
		return err
	}
	logger.Info("registry loaded", "backend", cfg.Backend, "users", registry.Count())

	sessions := openSessions(ctx, cfg, logger)

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return fmt.Errorf("create bot: %w", err)
	}
	bot.Debug = false
	logger.Info("authorized", "username", bot.Self.UserName)

	notifier := usecase.NewAdminNotifier(telegramAdapter.NewSender(bot), cfg.AdminChatID, logger)
	funnel := usecase.NewFunnelUsecase(funnelRepo)
	relay := usecase.NewRelay(registry, notifier, sessions, cfg.AdminChatID, logger)
	relay.SetFunnel(funnel)

	handler := telegramAdapter.NewHandler(bot, relay, cfg.WebAppURL, logger)
	handler.SetFunnel(funnel)

	updates := bot.GetUpdatesChan(telegramAdapter.NewUpdateConfig())
	go func() {
		<-ctx.Done()
		bot.StopReceivingUpdates()
	}()

	logger.Info("bot polling started")
	handler.Run(ctx, updates)
	return nil
}

func openStores(cfg config.AppConfig) (domain.RegistryStore, domain.FunnelRepository, func(), error) {
	if cfg.Backend == config.BackendSQLite {
		db, err := sqliteRepo.Open(cfg.SQLiteDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		store, err := sqliteRepo.NewRegistryStore(db)
		if err != nil {
			db.Close()
			return nil, nil, nil, fmt.Errorf("registry sqlite init: %w", err)
		}
		funnelRepo, err := sqliteRepo.NewFunnelRepo(db)
		if err != nil {
			db.Close()
			return nil, nil, nil, fmt.Errorf("funnel sqlite init: %w", err)
		}
		return store, funnelRepo, func() { _ = db.Close() }, nil
	}
	return jsonfile.NewRegistryStore(cfg.UserDataFile), memory.NewFunnelRepo(), func() {}, nil
}

func openSessions(ctx context.Context, cfg config.AppConfig, logger *slog.Logger) domain.SessionRepository {
	if cfg.Addr != "" {
		cli := redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		if err := cli.Ping().Err(); err != nil {
			logger.Warn("redis unavailable, keeping sessions in memory", "addr", cfg.Addr, "error", err)
			_ = cli.Close()
		} else {
			logger.Info("sessions stored in redis", "addr", cfg.Addr)
			return redisRepo.NewSessionRepo(cli, cfg.SessionTTL)
		}
	}

	sessions := memory.NewSessionRepo(cfg.SessionTTL)
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := sessions.Sweep(); n > 0 {
					logger.Debug("expired sessions removed", "count", n)
				}
			}
		}
	}()
	return sessions
}
