package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"currency-exchange-api/internal/config"
	"currency-exchange-api/internal/exchangerate"
	"currency-exchange-api/internal/handler"
	"currency-exchange-api/internal/logger"
	"currency-exchange-api/internal/repository"
	"currency-exchange-api/internal/service"
)

const version = "1.0.0"

// accountStore is what the service and the health check need from a backend
type accountStore interface {
	service.AccountStore
	handler.Pinger
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logger.Level, cfg.Logger.Format)

	store, closeStore, err := initStore(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Store.Backend).Msg("Failed to initialize account store")
	}
	defer closeStore()

	rates := exchangerate.NewClient(cfg.NBP.BaseURL, cfg.NBP.Timeout, log)
	accountService := service.NewAccountService(store, rates, log)

	healthHandler := handler.NewHealthHandler(store, cfg.Store.Backend, version)
	accountHandler := handler.NewAccountHandler(accountService, log)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler.NewRouter(log, cfg.Server.AllowOrigins, healthHandler, accountHandler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Str("store", cfg.Store.Backend).Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		return
	}

	log.Info().Msg("Server exited")
}

func initStore(cfg *config.Config, log zerolog.Logger) (accountStore, func(), error) {
	switch cfg.Store.Backend {
	case config.StorePostgres:
		db, err := initDatabase(cfg.Database, log)
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewAccountRepository(db)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := repo.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		return repo, func() { db.Close() }, nil

	case config.StoreRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("Redis connection established")
		return repository.NewRedisAccountRepository(client), func() { client.Close() }, nil

	default:
		return repository.NewMemoryAccountRepository(), func() {}, nil
	}
}

func initDatabase(cfg config.DatabaseConfig, log zerolog.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Str("host", cfg.Host).Str("database", cfg.Database).Msg("Database connection established")
	return db, nil
}
