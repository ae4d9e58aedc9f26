package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Spok95/study-groups-bot/internal/api"
	"github.com/Spok95/study-groups-bot/internal/app"
	"github.com/Spok95/study-groups-bot/internal/bot/handlers"
	"github.com/Spok95/study-groups-bot/internal/config"
	"github.com/Spok95/study-groups-bot/internal/db"
	"github.com/Spok95/study-groups-bot/internal/jobs"
	"github.com/Spok95/study-groups-bot/internal/logging"
	"github.com/Spok95/study-groups-bot/internal/observability"
)

const (
	sessionGCInterval = time.Hour
	evictInterval     = 10 * time.Minute
	controllerIdle    = 2 * time.Hour
)

func main() {
	// Загрузка переменных окружения
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Println("не удалось прочитать .env:", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config: ", err)
	}

	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatal("logger: ", err)
	}
	defer lg.Closer()
	logger := lg.Base

	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, os.Getenv("RELEASE"))
	if err != nil {
		logger.Warn("sentry init failed", zap.Error(err))
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db connect failed", zap.Error(err))
	}
	defer database.Close()

	if err := db.Migrate(ctx, database); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.Fatal("telegram init failed", zap.Error(err))
	}
	bot.Debug = cfg.Env != "prod"
	logger.Info("bot started", zap.String("username", bot.Self.UserName), zap.String("api", cfg.APIBaseURL))

	handlers.SetLogger(lg.Component("bot"))
	client := api.New(cfg.APIBaseURL, cfg.APITimeout, lg.Component("api"))
	sessions := db.SessionRepo{DB: database}

	reg := app.NewRegistry(
		app.NewControllerFactory(bot, client, sessions, cfg.WarningTTL, logger),
		handlers.ResetChat,
	)
	app.StartHTTP(ctx, cfg.HTTPAddr, database)

	runner := jobs.New(ctx, logger)
	runner.Every(sessionGCInterval, "session_gc", jobs.SessionGC(sessions, cfg.SessionTTL, nil, lg.Component("jobs")))
	runner.Every(evictInterval, "registry_evict", jobs.RegistryEvict(reg, controllerIdle, nil))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)

	d := app.NewDispatcher(bot, reg, cfg.IsInstructor, lg.Component("dispatcher")).WithLocation(cfg.Location)
	go func() {
		<-ctx.Done()
		bot.StopReceivingUpdates()
	}()
	d.Run(ctx, updates)

	runner.Wait()
	logger.Info("bot stopped")
}
