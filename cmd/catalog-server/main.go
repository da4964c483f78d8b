package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tuanvumaihuynh/catalog-service/internal/config"
	"github.com/tuanvumaihuynh/catalog-service/internal/event"
	"github.com/tuanvumaihuynh/catalog-service/internal/http"
	"github.com/tuanvumaihuynh/catalog-service/internal/log"
	"github.com/tuanvumaihuynh/catalog-service/internal/relay"
	"github.com/tuanvumaihuynh/catalog-service/internal/repository"
	"github.com/tuanvumaihuynh/catalog-service/internal/service"
	"github.com/tuanvumaihuynh/catalog-service/internal/storage/cache"
	"github.com/tuanvumaihuynh/catalog-service/internal/storage/db"
	"github.com/tuanvumaihuynh/catalog-service/internal/storage/mq"
	"github.com/tuanvumaihuynh/catalog-service/internal/storage/objectstore"
	"github.com/tuanvumaihuynh/catalog-service/internal/telemetry"
	"github.com/tuanvumaihuynh/catalog-service/pkg/cmdutil"
	"github.com/tuanvumaihuynh/catalog-service/pkg/validator"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("error running catalog server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	time.Local = time.UTC

	type Config struct {
		Log         config.Log
		Postgres    config.Postgres
		Redis       config.Redis
		ObjectStore config.ObjectStore
		HTTP        config.HTTP
		Catalog     config.Catalog
		Relay       config.Relay
		Kafka       config.Kafka
		Otel        config.Otel
	}
	cfg, err := config.New[Config]()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logger := log.NewSlogLogger(cfg.Log)

	cleanupTracer, err := telemetry.InitTracer(ctx, cfg.Otel)
	if err != nil {
		return fmt.Errorf("error initializing tracer: %w", err)
	}
	defer func() {
		if err := cleanupTracer(ctx); err != nil {
			logger.ErrorContext(ctx, "error cleaning up tracer", slog.Any("error", err))
		}
	}()

	pgxPool, err := db.NewPgxPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("error creating pgx pool: %w", err)
	}
	defer pgxPool.Close()

	dbClient := db.NewClient(pgxPool)
	checks := map[string]db.HealthChecker{"postgres": dbClient}

	var categoryCache cache.Cache = cache.Noop{}
	if cfg.Redis.Addr != "" {
		rds, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("error creating redis client: %w", err)
		}
		defer rds.Close()

		redisCache := cache.NewRedisCache(rds)
		categoryCache = redisCache
		checks["redis"] = redisCache
	} else {
		logger.WarnContext(ctx, "redis address is not set, category cache is disabled")
	}

	store, err := objectstore.NewMinioStore(ctx, cfg.ObjectStore)
	if err != nil {
		return fmt.Errorf("error creating object store: %w", err)
	}
	checks["objectstore"] = store

	kafkaProducer, err := mq.NewKafkaProducer(ctx, cfg.Kafka)
	if err != nil {
		return fmt.Errorf("error creating kafka producer: %w", err)
	}
	defer kafkaProducer.Close()

	kafkaConsumer, err := mq.NewKafkaConsumer(ctx, cfg.Kafka, logger)
	if err != nil {
		return fmt.Errorf("error creating kafka consumer: %w", err)
	}
	defer kafkaConsumer.Close()

	v, err := validator.NewDefaultValidator()
	if err != nil {
		return fmt.Errorf("error creating validator: %w", err)
	}

	productRepository := repository.NewProductRepository(dbClient)
	categoryRepository := repository.NewCategoryRepository(dbClient)
	priceRepository := repository.NewPriceRepository(dbClient)
	inventoryRepository := repository.NewInventoryRepository(dbClient)
	imageRepository := repository.NewImageRepository(dbClient)
	outboxMsgRepository := repository.NewOutboxMsgRepository(dbClient)

	services := http.Services{
		Category: service.NewCategoryService(cfg.Catalog, logger, dbClient, v, categoryCache,
			categoryRepository, productRepository, outboxMsgRepository),
		Product: service.NewProductService(cfg.Catalog, logger, dbClient, v, store,
			productRepository, categoryRepository, priceRepository, inventoryRepository, imageRepository, outboxMsgRepository),
		Price: service.NewPriceService(cfg.Catalog, logger, dbClient, v,
			productRepository, priceRepository, outboxMsgRepository),
		Inventory: service.NewInventoryService(logger, dbClient, inventoryRepository, outboxMsgRepository),
		Image:     service.NewImageService(logger, dbClient, v, store, productRepository, imageRepository),
	}

	interruptChan := cmdutil.InterruptChan()
	var wg sync.WaitGroup

	wg.Go(func() {
		svc := event.New(logger, kafkaConsumer)
		cleanup, err := svc.Run(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "error running event service", slog.Any("error", err))
			cancel()
			return
		}
		logger.InfoContext(ctx, "event service started")

		select {
		case <-interruptChan:
		case <-ctx.Done():
		}

		logger.InfoContext(ctx, "event service is shutting down")
		cleanup()

		logger.InfoContext(ctx, "event service is stopped")
	})

	wg.Go(func() {
		svc := http.New(cfg.HTTP, logger, prometheus.DefaultRegisterer, services, checks)
		cleanup, err := svc.Run(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "error running http service", slog.Any("error", err))
			cancel()
			return
		}

		logger.InfoContext(ctx, "http service started", slog.String("address", fmt.Sprintf(":%d", cfg.HTTP.Port)))

		select {
		case <-interruptChan:
		case <-ctx.Done():
		}

		logger.InfoContext(ctx, "http service is shutting down")
		if err := cleanup(context.WithoutCancel(ctx)); err != nil {
			logger.ErrorContext(ctx, "error shutting down http service", slog.Any("error", err))
		}

		logger.InfoContext(ctx, "http service is stopped")
	})

	wg.Go(func() {
		svc := relay.NewService(cfg.Relay, logger, dbClient, outboxMsgRepository, kafkaProducer)
		cleanup := svc.Run(ctx)
		logger.InfoContext(ctx, "relay service started")

		select {
		case <-interruptChan:
		case <-ctx.Done():
		}

		logger.InfoContext(ctx, "relay service is shutting down")
		cleanup()

		logger.InfoContext(ctx, "relay service is stopped")
	})

	wg.Wait()

	return nil
}
