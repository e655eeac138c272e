package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fixmate-lk/fixmate-backend/api/controllers"
	"github.com/fixmate-lk/fixmate-backend/api/middleware"
	"github.com/fixmate-lk/fixmate-backend/internal/addresses"
	"github.com/fixmate-lk/fixmate-backend/internal/auth"
	"github.com/fixmate-lk/fixmate-backend/internal/bookings"
	"github.com/fixmate-lk/fixmate-backend/internal/catalog"
	"github.com/fixmate-lk/fixmate-backend/internal/dashboard"
	"github.com/fixmate-lk/fixmate-backend/internal/notifications"
	"github.com/fixmate-lk/fixmate-backend/internal/technicians"
	"github.com/fixmate-lk/fixmate-backend/internal/users"
	"github.com/fixmate-lk/fixmate-backend/pkg/auth/session"
	"github.com/fixmate-lk/fixmate-backend/pkg/config"
	"github.com/fixmate-lk/fixmate-backend/pkg/db"
	"github.com/fixmate-lk/fixmate-backend/pkg/enums"
	"github.com/fixmate-lk/fixmate-backend/pkg/logger"
	"github.com/fixmate-lk/fixmate-backend/pkg/metrics"
)

// Deps bundles everything NewRouter mounts. The metrics registry and
// uploads dir are optional; the rest is required for a working API.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	Sessions    session.AccessSessionChecker
	HTTPMetrics *metrics.HTTPMetrics
	Registry    *prometheus.Registry
	Pingers     []db.Pinger

	Auth          auth.Service
	Users         users.Service
	Addresses     addresses.Service
	Catalog       catalog.Service
	Bookings      bookings.Service
	Technicians   technicians.Service
	Notifications notifications.Service
	Dashboard     dashboard.Service
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(d.HTTPMetrics),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.Pingers...))
	})

	if d.Registry != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(d.Registry))
	}

	if cfg.Uploads.Dir != "" {
		fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.Uploads.Dir)))
		r.Method(http.MethodGet, "/uploads/*", fs)
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", controllers.AuthRegister(d.Auth, logg))
		r.Post("/verify-email", controllers.AuthVerifyEmail(d.Auth, logg))
		r.Post("/login", controllers.AuthLogin(d.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(d.Auth, logg))
		r.Post("/forgot-password", controllers.AuthForgotPassword(d.Auth, logg))
		r.Post("/reset-password", controllers.AuthResetPassword(d.Auth, logg))
	})

	// Public catalog browsing does not require a session.
	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Get("/categories", controllers.CatalogCategories(d.Catalog, logg))
		r.Get("/services", controllers.CatalogServices(d.Catalog, logg))
		r.Get("/services/{serviceID}", controllers.CatalogGetService(d.Catalog, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))

		r.Post("/auth/logout", controllers.AuthLogout(d.Auth, logg))
		r.Post("/auth/change-password", controllers.AuthChangePassword(d.Auth, logg))

		r.Route("/me", func(r chi.Router) {
			r.Get("/", controllers.UserProfile(d.Users, logg))
			r.Patch("/", controllers.UserUpdateProfile(d.Users, logg))
			r.Post("/avatar", controllers.UserUploadAvatar(d.Users, logg))

			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", controllers.AddressList(d.Addresses, logg))
				r.Post("/", controllers.AddressCreate(d.Addresses, logg))
				r.Delete("/{addressID}", controllers.AddressDelete(d.Addresses, logg))
				r.Post("/{addressID}/default", controllers.AddressSetDefault(d.Addresses, logg))
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.NotificationFeed(d.Notifications, logg))
				r.Post("/read-all", controllers.NotificationMarkAllRead(d.Notifications, logg))
				r.Post("/{notificationID}/read", controllers.NotificationMarkRead(d.Notifications, logg))
			})
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Get("/{bookingID}", controllers.BookingGet(d.Bookings, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(enums.UserRoleCustomer.String(), logg))
				r.Post("/", controllers.BookingCreate(d.Bookings, logg))
				r.Get("/", controllers.BookingListMine(d.Bookings, logg))
				r.Post("/{bookingID}/cancel", controllers.BookingCancel(d.Bookings, logg))
				r.Post("/{bookingID}/reference-image", controllers.BookingAttachReferenceImage(d.Bookings, logg))
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(enums.UserRoleTechnician.String(), logg))
				r.Get("/available", controllers.BookingListAvailable(d.Bookings, logg))
				r.Get("/assigned", controllers.BookingListAssigned(d.Bookings, logg))
				r.Post("/{bookingID}/accept", controllers.BookingAccept(d.Bookings, logg))
				r.Post("/{bookingID}/status", controllers.BookingUpdateStatus(d.Bookings, logg))
			})
		})

		r.Route("/technician", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRoleTechnician.String(), logg))
			r.Get("/profile", controllers.TechnicianProfile(d.Technicians, logg))
			r.Patch("/profile", controllers.TechnicianUpdateProfile(d.Technicians, logg))
			r.Post("/documents", controllers.TechnicianUploadDocument(d.Technicians, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRoleAdmin.String(), logg))

			r.Get("/bookings", controllers.BookingListAll(d.Bookings, logg))

			r.Route("/users", func(r chi.Router) {
				r.Get("/", controllers.AdminUserList(d.Users, logg))
				r.Post("/{userID}/status", controllers.AdminUserSetStatus(d.Users, logg))
			})

			r.Route("/catalog", func(r chi.Router) {
				r.Post("/categories", controllers.CatalogCreateCategory(d.Catalog, logg))
				r.Post("/services", controllers.CatalogCreateService(d.Catalog, logg))
				r.Patch("/services/{serviceID}", controllers.CatalogUpdateService(d.Catalog, logg))
			})

			r.Route("/verifications", func(r chi.Router) {
				r.Get("/", controllers.TechnicianPendingVerifications(d.Technicians, logg))
				r.Get("/{technicianID}", controllers.TechnicianVerificationRequest(d.Technicians, logg))
				r.Post("/{technicianID}/approve", controllers.TechnicianApprove(d.Technicians, logg))
				r.Post("/{technicianID}/reject", controllers.TechnicianReject(d.Technicians, logg))
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.NotificationAdminList(d.Notifications, logg))
				r.Post("/", controllers.NotificationCreate(d.Notifications, logg))
			})

			r.Route("/dashboard", func(r chi.Router) {
				r.Get("/stats", controllers.DashboardStats(d.Dashboard, logg))
				r.Get("/activity", controllers.DashboardActivity(d.Dashboard, logg))
				r.Get("/trends", controllers.DashboardTrends(d.Dashboard, logg))
			})
		})
	})

	return r
}
