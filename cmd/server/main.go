package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"github.com/yazedalasad/bloodbank/internal/donation"
	"github.com/yazedalasad/bloodbank/internal/donor"
	"github.com/yazedalasad/bloodbank/internal/inventory"
	invmetrics "github.com/yazedalasad/bloodbank/internal/inventory/metrics"
	"github.com/yazedalasad/bloodbank/internal/platform/config"
	"github.com/yazedalasad/bloodbank/internal/platform/httpserver"
	"github.com/yazedalasad/bloodbank/internal/platform/logger"
	"github.com/yazedalasad/bloodbank/internal/platform/metrics"
	"github.com/yazedalasad/bloodbank/internal/platform/middleware"
	"github.com/yazedalasad/bloodbank/internal/platform/redis"
	"github.com/yazedalasad/bloodbank/internal/request"
	"github.com/yazedalasad/bloodbank/internal/seed"
	httpapi "github.com/yazedalasad/bloodbank/internal/transport/http"
	"github.com/yazedalasad/bloodbank/pkg/platform/events"
)

func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg := config.FromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Stores: postgres when a DSN is configured, in-memory otherwise.
	var (
		donorStore    donor.Store
		donationStore donation.Store
		requestStore  request.Store
	)
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		donorStore = donor.NewPostgresStore(db)
		donationStore = donation.NewPostgresStore(db)
		requestStore = request.NewPostgresStore(db)
		log.Info("using postgres stores")
	} else {
		donorStore = donor.NewInMemoryStore()
		donationStore = donation.NewInMemoryStore()
		requestStore = request.NewInMemoryStore()
		log.Info("using in-memory stores")
	}

	var emergencyStore request.EmergencyStore
	redisClient, err := redis.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		emergencyStore = request.NewRedisEmergencyStore(redisClient, config.EmergencyRequestTTL)
		log.Info("using redis emergency request store")
	} else {
		emergencyStore = request.NewInMemoryEmergencyStore()
	}

	// Event pipeline: synchronous store, best-effort kafka delivery.
	publisher := events.NewPublisher(events.NewInMemoryStore(), 256)
	kafkaSink, err := events.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
	if err != nil {
		return err
	}
	if kafkaSink != nil {
		defer kafkaSink.Close()
		log.Info("publishing events to kafka", "topic", cfg.KafkaTopic)
	}

	platformMetrics := metrics.New()
	inventoryMetrics := invmetrics.New()

	donors := donor.NewService(donorStore,
		donor.WithLogger(log),
		donor.WithEventPublisher(publisher),
		donor.WithMetrics(platformMetrics),
	)
	donations := donation.NewService(donationStore, donors,
		donation.WithLogger(log),
		donation.WithEventPublisher(publisher),
		donation.WithMetrics(platformMetrics),
	)
	engine := inventory.NewEngine(donationStore,
		inventory.WithLogger(log),
		inventory.WithMetrics(inventoryMetrics),
	)
	allocator := inventory.NewAllocator(donorStore, donationStore,
		inventory.WithAllocatorLogger(log),
		inventory.WithAllocatorPublisher(publisher),
		inventory.WithAllocatorMetrics(inventoryMetrics),
	)
	requests := request.NewService(requestStore, emergencyStore, engine,
		request.WithLogger(log),
		request.WithEventPublisher(publisher),
		request.WithMetrics(platformMetrics),
	)

	if cfg.SeedDemoData && cfg.PostgresDSN == "" {
		if err := seed.Demo(ctx, donorStore, donationStore, time.Now()); err != nil {
			return err
		}
		log.Info("seeded demo data")
	}

	handler := httpapi.NewHandler(log,
		middleware.NewHMACValidator(cfg.JWTSigningKey),
		donors, donations, requests, allocator, donationStore,
	)
	server := httpserver.New(cfg.Addr, httpapi.NewRouter(handler))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if kafkaSink != nil {
		worker := events.NewWorker(kafkaSink, publisher.Outbox(), log)
		g.Go(func() error {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
