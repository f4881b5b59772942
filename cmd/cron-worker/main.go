package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/lockerlend-backend/internal/cron"
	"github.com/angelmondragon/lockerlend-backend/internal/notifications"
	"github.com/angelmondragon/lockerlend-backend/internal/rentals"
	"github.com/angelmondragon/lockerlend-backend/pkg/config"
	"github.com/angelmondragon/lockerlend-backend/pkg/db"
	"github.com/angelmondragon/lockerlend-backend/pkg/logger"
	"github.com/angelmondragon/lockerlend-backend/pkg/metrics"
	"github.com/angelmondragon/lockerlend-backend/pkg/migrate"
	"github.com/angelmondragon/lockerlend-backend/pkg/pubsub"
	"github.com/angelmondragon/lockerlend-backend/pkg/redis"
)

func main() {
	once := flag.Bool("once", false, "run a single sweep and exit")
	jobName := flag.String("job", "", "with -once, run only this job (rental-overdue|rental-deadline-notice)")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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
	}

	notificationService, err := notifications.NewService(notifications.ServiceParams{
		Repo:      notifications.NewRepository(dbClient.DB()),
		Publisher: publisher,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notification service", err)
		os.Exit(1)
	}

	rentalMetrics := metrics.NewRentalMetrics(prometheus.DefaultRegisterer)
	rentalRepo := rentals.NewRepository(dbClient.DB())

	overdueJob, err := cron.NewRentalOverdueJob(cron.RentalOverdueJobParams{
		Logger:     logg,
		Repo:       rentalRepo,
		Notifier:   notificationService,
		Metrics:    rentalMetrics,
		BatchSize:  cfg.Rental.SweepBatchSize,
		MaxRentals: cfg.Rental.SweepMaxRentals,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create overdue job", err)
		os.Exit(1)
	}

	noticeJob, err := cron.NewRentalDeadlineNoticeJob(cron.RentalDeadlineNoticeJobParams{
		Logger:     logg,
		Repo:       rentalRepo,
		Notifier:   notificationService,
		Metrics:    rentalMetrics,
		BatchSize:  cfg.Rental.SweepBatchSize,
		MaxRentals: cfg.Rental.SweepMaxRentals,
		LeadDays:   cfg.Rental.ReminderLeadDays,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create deadline notice job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, lockKey(redisClient, cfg.App.Env), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	registry, err := cron.NewRegistry(overdueJob, noticeJob)
	if err != nil {
		logg.Error(context.Background(), "failed to register cron jobs", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})

	if *once {
		var names []string
		if *jobName != "" {
			names = append(names, *jobName)
		}
		logg.Info(logg.WithField(ctx, "jobs", names), "running single cron sweep")
		if err := service.RunOnce(ctx, names...); err != nil {
			logg.Error(ctx, "cron sweep failed", err)
			os.Exit(1)
		}
		return
	}

	logg.Info(ctx, "starting cron worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(client *redis.Client, env string) string {
	if env == "" {
		env = "local"
	}
	return client.LockKey("cron-worker:" + env)
}
