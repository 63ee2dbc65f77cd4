package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/PoluyanbIch/quizbot/internal/config"
	"github.com/PoluyanbIch/quizbot/internal/service"
	"github.com/PoluyanbIch/quizbot/internal/storage/redis"
	"github.com/PoluyanbIch/quizbot/internal/storage/sqlite"
	"github.com/PoluyanbIch/quizbot/internal/telegram"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := newLogger("info")
		bootLogger.Fatal("load config", zap.Error(err))
	}

	logger := newLogger(cfg.LogLevel)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("bot stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	store, err := sqlite.Open(cfg.Quiz.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	bank := service.NewQuestionBank(store, logger.Named("bank"))
	ledger := service.NewScoreLedger(store, logger.Named("ledger"))

	if cfg.Quiz.QuestionsFile != "" {
		if _, err := service.SeedQuestions(ctx, bank, cfg.Quiz.QuestionsFile, logger); err != nil {
			return err
		}
	}

	var active service.ActiveStore = service.NewMemoryActiveStore()
	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			return err
		}
		defer rdb.Close()
		active = redis.NewActiveStore(rdb, logger.Named("active"))
	}

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return err
	}
	api.Debug = cfg.Telegram.Debug
	logger.Info("authorised on account", zap.String("username", api.Self.UserName))

	session := service.NewSession(bank, ledger, active, telegram.NewSender(api), service.SessionConfig{
		AdminID:          cfg.Quiz.AdminID,
		LeaderboardLimit: cfg.Quiz.LeaderboardLimit,
	}, logger.Named("session"))
	bot := telegram.NewBot(api, session, int(cfg.Telegram.PollTimeout.Seconds()), logger.Named("telegram"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("🤖 Bot is starting...")
		return bot.Start(gctx)
	})
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

func newLogger(level string) *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		config.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, _ := config.Build()
	return logger
}
