package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"smart-factory/bridge/internal/auth"
	"smart-factory/bridge/internal/config"
	"smart-factory/bridge/internal/domain"
	"smart-factory/bridge/internal/logger"
	"smart-factory/bridge/internal/pipeline"
	"smart-factory/bridge/internal/store"
	transport "smart-factory/bridge/internal/transport/http"
)

type closableStore interface {
	pipeline.Store
	Close() error
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	lg, err := logger.New(cfg.LogLevel, cfg.LogFormat, "smart-factory-bridge")
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}

	if err := run(cfg, lg); err != nil {
		lg.Error("bridge stopped with error", zap.Error(err))
		_ = lg.Sync()
		os.Exit(1)
	}
	_ = lg.Sync()
}

func run(cfg *config.Config, lg *zap.Logger) error {
	ctx := context.Background()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	// nil interfaces, not typed nil pointers, when redis is off
	var (
		statePub pipeline.StatePublisher
		notifier pipeline.AlertNotifier
		lookup   auth.KeyLookup
	)
	if cfg.RedisEnabled {
		rs, err := store.NewRedisStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer rs.Close()
		statePub, notifier, lookup = rs, rs, rs
		lg.Info("redis connected", zap.String("addr", cfg.RedisAddr))
	}

	directory := domain.NewDirectory(cfg.FactoryPartitions, cfg.FactoryIDs, cfg.DefaultFactory)
	thresholds := domain.Thresholds{
		TemperatureHigh: cfg.TemperatureHigh,
		TemperatureLow:  cfg.TemperatureLow,
		BatteryLow:      cfg.BatteryLow,
		FireDetected:    cfg.FireDetected,
	}

	reconciler := pipeline.NewReconciler(st, notifier, lg)
	ingestor := pipeline.NewIngestor(directory, st, statePub, reconciler, thresholds, lg)
	handler := transport.NewHandler(ingestor, st, cfg.MaxBodyBytes, lg)

	var authMW *transport.AuthMiddleware
	if cfg.AuthEnabled {
		authMW = transport.NewAuthMiddleware(auth.NewAuthenticator(cfg, lookup))
	}

	srv := &http.Server{
		Addr:              cfg.ListenerAddr,
		Handler:           transport.NewRouter(handler, authMW),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lg.Info("bridge starting",
		zap.String("addr", cfg.ListenerAddr),
		zap.String("store", cfg.StoreKind),
		zap.String("default_factory", cfg.DefaultFactory),
		zap.Bool("redis", cfg.RedisEnabled),
		zap.Bool("auth", cfg.AuthEnabled),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		lg.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	lg.Info("bridge stopped")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (closableStore, error) {
	switch cfg.StoreKind {
	case config.StoreKindMemory:
		return memoryStore{store.NewMemoryStore()}, nil
	default:
		pg, err := store.NewPostgresStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return pg, nil
	}
}

type memoryStore struct {
	*store.MemoryStore
}

func (memoryStore) Close() error { return nil }
