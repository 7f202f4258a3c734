// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the owner authentication HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Open the selected store (PostgreSQL + migrations, or MongoDB + indexes).
//  4. Connect to Redis.
//  5. Build metrics, token service, notification and mirroring clients.
//  6. Wire the entity counter and the realtime publishers.
//  7. Wire HTTP handlers.
//  8. Run the HTTP server and the realtime bridge until a signal arrives.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/taibuivan/ownerauth/internal/api"
	"github.com/taibuivan/ownerauth/internal/common/counter"
	"github.com/taibuivan/ownerauth/internal/notify"
	"github.com/taibuivan/ownerauth/internal/platform/config"
	"github.com/taibuivan/ownerauth/internal/platform/constants"
	"github.com/taibuivan/ownerauth/internal/platform/metrics"
	redisstore "github.com/taibuivan/ownerauth/internal/platform/redis"
	"github.com/taibuivan/ownerauth/internal/platform/sec"
	"github.com/taibuivan/ownerauth/internal/provision"
	"github.com/taibuivan/ownerauth/internal/realtime"
	"github.com/taibuivan/ownerauth/internal/users/account"
	"github.com/taibuivan/ownerauth/internal/users/auth"
	"github.com/taibuivan/ownerauth/internal/users/reset"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("store", cfg.StoreDriver),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. Store ──────────────────────────────────────────────────────────
	store, err := openStores(startupCtx, cfg, log)
	must(log, err, "open store")
	defer store.close()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis_close_failed", slog.Any("error", cerr))
		}
	}()

	// ── 5. Shared services ────────────────────────────────────────────────
	collectors := metrics.New()

	tokens, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	must(log, err, "initialize jwt service")

	dispatcher := notify.NewDispatcher(emailSender(cfg, log), smsSender(cfg, log), collectors, log, cfg.NotifyTimeout)
	defer dispatcher.Wait()

	mirror := provision.NewClient(provision.Config{
		UAMasterURL:    cfg.UAMasterURL,
		ActivityURL:    cfg.ActivityServiceURL,
		MediaMasterURL: cfg.MediaMasterURL,
		ServiceToken:   cfg.ServiceToken,
	}, nil, log)

	// ── 6. Counter & Realtime ─────────────────────────────────────────────
	localCounter := counter.NewRedisStore(rdb)
	var requestCounter reset.Counter = localCounter
	if cfg.CounterAPIURL != "" {
		requestCounter = counter.NewClient(cfg.CounterAPIURL, cfg.CounterSecret, nil)
		log.Info("counter_remote_enabled", slog.String("url", cfg.CounterAPIURL))
	}

	publishers := realtime.Fanout{realtime.NewRedisPublisher(rdb)}
	if len(cfg.KafkaBrokers) > 0 {
		kafka := realtime.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer func() {
			if cerr := kafka.Close(); cerr != nil {
				log.Error("kafka_close_failed", slog.Any("error", cerr))
			}
		}()
		publishers = append(publishers, kafka)
		log.Info("kafka_publisher_enabled", slog.String("topic", cfg.KafkaTopic))
	}

	hub := realtime.NewHub(log)
	bridge := realtime.NewBridge(rdb, hub, log)

	// ── 7. Domain Wiring ──────────────────────────────────────────────────
	defaultRole, ok := sec.ParseRole(cfg.RegistrationDefaultRole)
	if !ok {
		must(log, errors.New("unknown role "+cfg.RegistrationDefaultRole), "parse REGISTRATION_DEFAULT_ROLE")
	}

	authService := auth.NewService(store.users, tokens, dispatcher, mirror, collectors, auth.Options{
		OTPValidityMinutes: cfg.OTPValidityMinutes,
		TOTPIssuer:         cfg.TOTPIssuer,
		RegistrationOpen:   cfg.RegistrationOpen,
		DefaultRole:        defaultRole,
	})

	resetService := reset.NewService(store.requests, store.users, requestCounter, dispatcher, publishers, collectors, reset.Options{
		OTPValidityHours:  cfg.ResetOTPValidityHours,
		RejectionCooldown: cfg.ResetRejectionCooldown(),
	})

	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		DatabaseName:  store.name,
		CheckDatabase: store.ping,
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      auth.NewHandler(authService),
		Users:     account.NewHandler(account.NewService(store.users)),
		Reset:     reset.NewHandler(resetService),
		Counter:   counter.NewHandler(counter.NewService(localCounter, cfg.CounterSecret)),
		Socket:    realtime.NewSocketHandler(hub, tokens, socketOrigins(cfg)),
	}

	// ── 8. Run ────────────────────────────────────────────────────────────
	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	server := api.NewServer(runCtx, cfg, log, tokens, collectors, handlers)
	group, groupCtx := errgroup.WithContext(runCtx)

	group.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		return bridge.Run(groupCtx)
	})

	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutting down server", slog.Duration("timeout", constants.ShutdownTimeout))
		return server.Shutdown(constants.ShutdownTimeout)
	})

	if err := group.Wait(); err != nil {
		log.Error("server_stopped_with_error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("app", constants.AppName))
}

// emailSender selects SendGrid when configured and the log sender otherwise.
func emailSender(cfg *config.Config, log *slog.Logger) notify.Sender {
	if cfg.SendGridAPIKey == "" {
		log.Warn("email_sender_fallback", slog.String("sender", "log"))
		return notify.NewLogSender(log)
	}
	return notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:     cfg.SendGridAPIKey,
		FromEmail:  cfg.SendGridFromEmail,
		FromName:   cfg.SendGridFromName,
		TemplateID: cfg.SendGridOTPTemplateID,
	})
}

// smsSender selects the SMS gateway when configured and the log sender otherwise.
func smsSender(cfg *config.Config, log *slog.Logger) notify.Sender {
	if cfg.SMSGatewayURL == "" {
		log.Warn("sms_sender_fallback", slog.String("sender", "log"))
		return notify.NewLogSender(log)
	}
	return notify.NewSMSSender(notify.SMSConfig{
		GatewayURL: cfg.SMSGatewayURL,
		Username:   cfg.SMSUsername,
		Password:   cfg.SMSPassword,
		SenderID:   cfg.SMSSenderID,
		APIKey:     cfg.SMSAPIKey,
		TemplateID: cfg.SMSTemplateID,
	}, nil)
}

func socketOrigins(cfg *config.Config) []string {
	if cfg.IsDevelopment() {
		return []string{"*"}
	}
	return cfg.Origins()
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned and
// handled explicitly.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
