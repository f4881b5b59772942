package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/lockerlend-backend/api/controllers"
	"github.com/angelmondragon/lockerlend-backend/api/middleware"
	"github.com/angelmondragon/lockerlend-backend/internal/lockers"
	"github.com/angelmondragon/lockerlend-backend/internal/notifications"
	"github.com/angelmondragon/lockerlend-backend/internal/payments"
	"github.com/angelmondragon/lockerlend-backend/internal/rentals"
	"github.com/angelmondragon/lockerlend-backend/internal/wallet"
	"github.com/angelmondragon/lockerlend-backend/pkg/config"
	"github.com/angelmondragon/lockerlend-backend/pkg/logger"
	"github.com/angelmondragon/lockerlend-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/lockerlend-backend/pkg/redis"
)

// Services bundles the domain services exposed over HTTP.
type Services struct {
	Rentals       rentals.Service
	Lockers       lockers.Service
	Wallet        wallet.Service
	Payments      payments.Service
	Notifications notifications.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	registry *prometheus.Registry,
	idempotencyStore pkgredis.IdempotencyStore,
	checks []controllers.ReadinessCheck,
	svc Services,
) http.Handler {
	var httpMetrics *metrics.HTTPMetrics
	if registry != nil {
		httpMetrics = metrics.NewHTTPMetrics(registry)
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(),
		middleware.Logging(logg, httpMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, checks...))
	})
	if registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Route("/rentals", func(r chi.Router) {
			r.Post("/", controllers.RequestRental(svc.Rentals, logg))
			r.Get("/", controllers.ListRentals(svc.Rentals, logg))
			r.Route("/{rentalId}", func(r chi.Router) {
				r.Get("/", controllers.GetRental(svc.Rentals, logg))
				r.Post("/approve", controllers.ApproveRental(svc.Rentals, logg))
				r.Post("/reject", controllers.RejectRental(svc.Rentals, logg))
				r.Post("/cancel", controllers.CancelRental(svc.Rentals, logg))
				r.Post("/drop-off", controllers.DropOffRental(svc.Rentals, logg))
				r.Post("/pick-up", controllers.PickUpRental(svc.Rentals, logg))
				r.Post("/return", controllers.ReturnRental(svc.Rentals, logg))
				r.Post("/retrieve", controllers.RetrieveRental(svc.Rentals, logg))
			})
		})

		r.Route("/lockers", func(r chi.Router) {
			r.Get("/", controllers.ListLockers(svc.Lockers, logg))
			r.Get("/{lockerId}", controllers.GetLocker(svc.Lockers, logg))
		})

		r.Route("/wallet", func(r chi.Router) {
			r.Get("/", controllers.GetWallet(svc.Wallet, logg))
			r.Post("/", controllers.OpenWallet(svc.Wallet, logg))
			r.Post("/top-up", controllers.TopUpWallet(svc.Payments, logg))
			r.Post("/withdraw", controllers.WithdrawWallet(svc.Payments, logg))
		})

		r.Route("/payments", func(r chi.Router) {
			r.Get("/", controllers.ListPayments(svc.Payments, logg))
			r.Get("/{paymentId}", controllers.GetPayment(svc.Payments, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(svc.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(svc.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(svc.Notifications, logg))
		})
	})

	return r
}
