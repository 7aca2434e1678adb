package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pribylovaa/identity-service/internal/config"
	"github.com/pribylovaa/identity-service/internal/metrics"
	"github.com/pribylovaa/identity-service/internal/password"
	"github.com/pribylovaa/identity-service/internal/secret"
	"github.com/pribylovaa/identity-service/internal/service"
	"github.com/pribylovaa/identity-service/internal/storage"
	"github.com/pribylovaa/identity-service/internal/storage/postgres"
	"github.com/pribylovaa/identity-service/internal/storage/redis"
	"github.com/pribylovaa/identity-service/internal/token"
	transport "github.com/pribylovaa/identity-service/internal/transport/http"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting application",
		slog.String("env", cfg.Env),
		slog.String("storage", cfg.Storage.Driver),
		slog.String("secret_provider", cfg.Secret.Provider),
	)

	// Корневой контекст по сигналам.
	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	// Ключ подписи: один раз на старте, без него сервис не запускается.
	secretCtx, secretCancel := context.WithTimeout(rootCtx, 30*time.Second)
	key, err := loadSigningKey(secretCtx, cfg)
	secretCancel()
	if err != nil {
		log.Error("signing_key_load_failed", slog.String("err", err.Error()))
		rootCancel()
		os.Exit(1)
	}
	log.Info("signing_key_loaded")

	tokens, err := token.New(key)
	if err != nil {
		log.Error("token_manager_init_failed", slog.String("err", err.Error()))
		rootCancel()
		os.Exit(1)
	}

	// Подключение к хранилищу c таймаутом.
	dbCtx, dbCancel := context.WithTimeout(rootCtx, 10*time.Second)
	str, err := openStorage(dbCtx, cfg)
	dbCancel()
	if err != nil {
		log.Error("storage_connect_failed",
			slog.String("driver", cfg.Storage.Driver),
			slog.String("err", err.Error()),
		)
		rootCancel()
		os.Exit(1)
	}
	log.Info("storage_connected", slog.String("driver", cfg.Storage.Driver))

	// Сервис.
	srvc := service.New(str, tokens, password.New(password.DefaultCost))
	log.Info("service_initialized")

	var ready atomic.Int32 // 0 — not ready; 1 — ready

	handler := transport.NewRouter(srvc, tokens, transport.Options{
		Logger:   log,
		Timeout:  cfg.Timeouts.Service,
		Metrics:  metrics.NewHTTP(prometheus.DefaultRegisterer),
		Gatherer: prometheus.DefaultGatherer,
		Health:   str,
		Ready:    &ready,
	})

	httpAddr := cfg.HTTP.Addr()
	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Фоновая очистка просроченных reset-токенов.
	startResetJanitor(rootCtx, srvc, log, cfg.Janitor.Period)

	serveErrCh := make(chan error, 1)
	go func() {
		log.Info("http_listen_start", slog.String("addr", httpAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	ready.Store(1)

	// Ожидание сигнала завершения или фатальной ошибки сервера.
	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case err := <-serveErrCh:
		if err != nil {
			log.Error("http_serve_failed", slog.String("err", err.Error()))
		}
	}

	ready.Store(0)

	// Graceful stop с таймаутом.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_force_stop", slog.String("err", err.Error()))
		_ = httpSrv.Close()
	} else {
		log.Info("http_stopped")
	}

	// Явная очистка перед выходом.
	shutdownCancel()
	rootCancel()
	str.Close()

	log.Info("service_stopped")
}

// Константы для определения окружения.
const (
	envLocal = config.EnvLocal
	envDev   = config.EnvDev
	envProd  = config.EnvProd
)

// setupLogger настраивает slog по окружению.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	}

	return log
}

// loadSigningKey выбирает провайдера секрета по конфигу и получает ключ
// через кэширующую обёртку с повторами.
func loadSigningKey(ctx context.Context, cfg *config.Config) ([]byte, error) {
	var provider secret.Provider

	switch cfg.Secret.Provider {
	case config.ProviderEnv:
		provider = secret.NewStatic(cfg.Secret.JWTSecret)
	case config.ProviderAWS:
		p, err := secret.NewAWS(ctx, cfg.Secret.Region)
		if err != nil {
			return nil, err
		}
		provider = p
	case config.ProviderS3:
		p, err := secret.NewObject(ctx, secret.ObjectConfig{
			Endpoint:  cfg.Secret.S3.Endpoint,
			AccessKey: cfg.Secret.S3.AccessKey,
			SecretKey: cfg.Secret.S3.SecretKey,
			Bucket:    cfg.Secret.S3.Bucket,
		})
		if err != nil {
			return nil, err
		}
		provider = p
	default:
		return nil, fmt.Errorf("unknown secret provider %q", cfg.Secret.Provider)
	}

	cached := secret.NewCached(provider, secret.WithAttempts(cfg.Secret.FetchAttempts))

	return cached.SigningSecret(ctx, cfg.Secret.Name)
}

// openStorage подключает выбранное хранилище; для postgres при необходимости
// сначала применяются миграции.
func openStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		if cfg.Storage.Migrate {
			if err := postgres.Migrate(ctx, cfg.DB.DatabaseURL); err != nil {
				return nil, err
			}
		}
		return postgres.New(ctx, cfg.DB.DatabaseURL)
	case config.DriverRedis:
		return redis.New(ctx, cfg.Redis.RedisURL, cfg.Redis.Prefix)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// startResetJanitor запускает фоновую задачу, которая периодически удаляет
// просроченные reset-токены.
func startResetJanitor(ctx context.Context, srvc *service.Service, log *slog.Logger, period time.Duration) {
	if period <= 0 {
		return
	}

	go func() {
		t := time.NewTicker(period)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				n, err := srvc.CleanupExpiredResetTokens(ctx)
				if err != nil {
					log.Error("reset_janitor_failed", slog.String("err", err.Error()))
					continue
				}
				if n > 0 {
					log.Info("reset_janitor_cleaned", slog.Int64("count", n))
				}
			}
		}
	}()
}
