// Command api serves the field-scoped back-office resources over HTTP.
//
//	@title						Field Back-Office API
//	@version					1.0
//	@description				Field-scoped records for the volunteer and donation back office.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/fieldwork/backoffice-api/internal/api"
	"github.com/fieldwork/backoffice-api/internal/core/domain"
	"github.com/fieldwork/backoffice-api/internal/core/ports"
	"github.com/fieldwork/backoffice-api/internal/core/resources"
	"github.com/fieldwork/backoffice-api/internal/infrastructure/db/mongo"
	"github.com/fieldwork/backoffice-api/internal/infrastructure/db/postgres"
	"github.com/fieldwork/backoffice-api/internal/infrastructure/db/redis"
	"github.com/fieldwork/backoffice-api/internal/pkg/config"
	"github.com/fieldwork/backoffice-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(loggerOptions(cfg))

	catalog, err := resources.Load()
	if err != nil {
		return err
	}
	collections := make([]string, 0, len(catalog.All()))
	for _, def := range catalog.All() {
		collections = append(collections, def.Collection)
	}

	stores, closeStores, err := openStores(ctx, cfg, collections)
	if err != nil {
		return err
	}
	defer closeStores()
	log.Info().Str("driver", cfg.StoreDriver).Int("resources", len(collections)).Msg("record store ready")

	var rdb *goredis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()
		log.Info().Str("addr", cfg.Redis.Addr).Msg("idempotency store ready")
	} else {
		log.Warn().Msg("REDIS_ADDR is not set, Idempotency-Key is ignored")
	}

	e := api.NewRouter(api.Deps{
		Catalog:        catalog,
		StoreName:      cfg.StoreDriver,
		Stores:         stores,
		Redis:          rdb,
		IdempotencyTTL: cfg.Redis.IdempotencyTTL,
		Messages:       domain.NewMessages(cfg.MessagesLocale),
		JWTSecret:      cfg.JWTSecret,
		Logger:         log,
	})

	return serve(ctx, e, ":"+cfg.Port, log)
}

func loggerOptions(cfg *config.Config) logger.Options {
	return logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty && !cfg.IsProduction(),
		Service: "backoffice-api",
		Env:     cfg.Env,
	}
}

// openStores connects the configured record store and prepares one
// collection or table per resource.
func openStores(ctx context.Context, cfg *config.Config, collections []string) (ports.StoreProvider, func(), error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		db, err := postgres.Connect(ctx, postgres.Config{DSN: cfg.Postgres.DSN, MaxConns: cfg.Postgres.MaxConns})
		if err != nil {
			return nil, nil, err
		}
		provider := postgres.NewProvider(db)
		closeFn := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		if err := provider.EnsureTables(ctx, collections...); err != nil {
			closeFn()
			return nil, nil, err
		}
		return provider, closeFn, nil
	default:
		client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() { _ = mongo.Disconnect(context.Background(), client) }
		provider := mongo.NewProvider(client, db)
		if err := provider.EnsureIndexes(ctx, collections...); err != nil {
			closeFn()
			return nil, nil, err
		}
		return provider, closeFn, nil
	}
}

type server interface {
	Start(address string) error
	Shutdown(ctx context.Context) error
}

func serve(ctx context.Context, srv server, addr string, log zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("http server listening")
		if err := srv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
