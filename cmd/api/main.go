package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/lockerlend-backend/api/controllers"
	"github.com/angelmondragon/lockerlend-backend/api/routes"
	"github.com/angelmondragon/lockerlend-backend/internal/lockers"
	"github.com/angelmondragon/lockerlend-backend/internal/notifications"
	"github.com/angelmondragon/lockerlend-backend/internal/payments"
	"github.com/angelmondragon/lockerlend-backend/internal/rentals"
	"github.com/angelmondragon/lockerlend-backend/internal/wallet"
	"github.com/angelmondragon/lockerlend-backend/pkg/bank"
	"github.com/angelmondragon/lockerlend-backend/pkg/config"
	"github.com/angelmondragon/lockerlend-backend/pkg/db"
	"github.com/angelmondragon/lockerlend-backend/pkg/logger"
	"github.com/angelmondragon/lockerlend-backend/pkg/metrics"
	"github.com/angelmondragon/lockerlend-backend/pkg/migrate"
	"github.com/angelmondragon/lockerlend-backend/pkg/pubsub"
	"github.com/angelmondragon/lockerlend-backend/pkg/redis"
	"github.com/angelmondragon/lockerlend-backend/pkg/storage/gcs"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rentalMetrics := metrics.NewRentalMetrics(registry)

	checks := []controllers.ReadinessCheck{
		{Name: "database", Pinger: dbClient},
		{Name: "redis", Pinger: redisClient},
	}

	var bankClient bank.Client
	if cfg.Bank.IsSandbox() {
		bankClient = bank.NewSandbox(cfg.Bank.CurrencyExponent, logg)
	} else {
		httpBank, err := bank.NewHTTPClient(cfg.Bank, metrics.NewBreakerMetrics(registry), logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create bank client", err)
			os.Exit(1)
		}
		bankClient = httpBank
	}

	var images rentals.ObjectChecker
	if cfg.GCS.BucketName != "" {
		gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap gcs", err)
			os.Exit(1)
		}
		images = gcsClient
		logg.Info(logg.WithField(context.Background(), "bucket", gcsClient.Bucket()), "return photo validation enabled")
		checks = append(checks, controllers.ReadinessCheck{Name: "gcs", Pinger: gcsClient})
	}

	var publisher notifications.Publisher
	if cfg.PubSub.NotificationTopic != "" {
		pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()
		if p := notifications.NewPubSubPublisher(pubsubClient.NotificationPublisher()); p != nil {
			publisher = p
		}
		checks = append(checks, controllers.ReadinessCheck{Name: "pubsub", Pinger: pubsubClient})
	}

	svc, err := buildServices(cfg, logg, dbClient, bankClient, images, publisher, rentalMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, registry, redisClient, checks, svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
		logg.Info(ctx, "api server shut down gracefully")
	}
}

func buildServices(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	bankClient bank.Client,
	images rentals.ObjectChecker,
	publisher notifications.Publisher,
	rentalMetrics *metrics.RentalMetrics,
) (routes.Services, error) {
	conn := dbClient.DB()

	lockerService, err := lockers.NewService(lockers.NewRepository(conn), dbClient)
	if err != nil {
		return routes.Services{}, err
	}
	walletService, err := wallet.NewService(wallet.NewRepository(conn), dbClient)
	if err != nil {
		return routes.Services{}, err
	}
	paymentService, err := payments.NewService(payments.ServiceParams{
		Repo:    payments.NewRepository(conn),
		Wallets: walletService,
		Bank:    bankClient,
		Tx:      dbClient,
		Logger:  logg,
		Metrics: rentalMetrics,
	})
	if err != nil {
		return routes.Services{}, err
	}
	notificationService, err := notifications.NewService(notifications.ServiceParams{
		Repo:      notifications.NewRepository(conn),
		Publisher: publisher,
		Logger:    logg,
	})
	if err != nil {
		return routes.Services{}, err
	}
	rentalService, err := rentals.NewService(rentals.ServiceParams{
		Repo:     rentals.NewRepository(conn),
		Lockers:  lockerService,
		Payments: paymentService,
		Tx:       dbClient,
		Notifier: notificationService,
		Images:   images,
		Logger:   logg,
		Metrics:  rentalMetrics,
		Fees: rentals.Fees{
			LockerRenter: cfg.Rental.LockerFeeRenter,
			LockerOwner:  cfg.Rental.LockerFeeOwner,
		},
		CurrencyExponent: cfg.Bank.CurrencyExponent,
	})
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Rentals:       rentalService,
		Lockers:       lockerService,
		Wallet:        walletService,
		Payments:      paymentService,
		Notifications: notificationService,
	}, nil
}
