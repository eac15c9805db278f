package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"siteplan/internal/auth"
	"siteplan/internal/config"
	"siteplan/internal/db"
	"siteplan/internal/email"
	httpx "siteplan/internal/http"
	"siteplan/internal/logging"
	"siteplan/internal/notify"
	"siteplan/internal/push"
	"siteplan/internal/queue"
	"siteplan/internal/store"
	"siteplan/internal/telemetry"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := telemetry.Setup(ctx, "siteplan-notifications", cfg.OTelEndpoint)
	if err != nil {
		fatal(logger, "setup tracing", err)
	}

	gdb, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		fatal(logger, "connect database", err)
	}
	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		fatal(logger, "migrate database", err)
	}

	st := &store.Store{DB: gdb}
	var prefs notify.PreferenceSource = st
	if cfg.RedisURL != "" {
		rdb, err := store.NewRedisClient(cfg.RedisURL)
		if err != nil {
			fatal(logger, "parse REDIS_URL", err)
		}
		defer rdb.Close()
		prefs = &store.PreferenceCache{Redis: rdb, Source: st, TTL: cfg.PreferenceCacheTTL, Logger: logger}
	}

	emailSender, err := newEmailSender(ctx, cfg)
	if err != nil {
		fatal(logger, "init email sender", err)
	}

	queueRepo := &queue.Repo{DB: gdb}
	proc := notify.NewProcessor(notify.Deps{
		Queue:       queueRepo,
		Users:       st,
		Preferences: prefs,
		Tokens:      st,
		Log:         st,
		Push:        push.NewClient(cfg.PushGatewayURL, cfg.PushAccessToken, cfg.GatewayTimeout, logger),
		Email:       emailSender,
	}, notify.Config{
		BatchSize:         cfg.QueueBatchSize,
		VisibilityTimeout: cfg.QueueVisibilityTimeout,
		MaxRetries:        cfg.QueueMaxRetries,
		AppURL:            cfg.AppURL,
		Location:          cfg.Location(),
	}, logger)

	// worker
	if cfg.WorkerEnabled {
		wake, err := queue.Listen(ctx, cfg.DatabaseURL, queue.DefaultChannel, logger)
		if err != nil {
			logger.Warn("queue listener unavailable, polling only", "error", err)
		}
		worker := &notify.Worker{
			Processor: proc,
			Interval:  cfg.WorkerPollInterval,
			Wake:      wake,
			Logger:    logger,
		}
		go worker.Run(ctx)
	}

	jwtSvc := auth.NewJWT(cfg.JWTSecret)
	r := httpx.NewRouter(cfg, jwtSvc, proc, queueRepo, logger)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fatal(logger, "http server", err)
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("flush traces", "error", err)
	}
}

func newEmailSender(ctx context.Context, cfg config.Config) (notify.EmailSender, error) {
	switch cfg.EmailProvider {
	case "ses":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return email.NewSESSender(awsCfg, cfg.EmailFrom), nil
	default:
		s, err := email.NewResendSender(cfg.EmailGatewayURL, cfg.EmailAPIKey, cfg.EmailFrom, cfg.GatewayTimeout)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
