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
	"go.uber.org/multierr"

	"github.com/fixmate-lk/fixmate-backend/api/routes"
	"github.com/fixmate-lk/fixmate-backend/internal/addresses"
	"github.com/fixmate-lk/fixmate-backend/internal/auth"
	"github.com/fixmate-lk/fixmate-backend/internal/bookings"
	"github.com/fixmate-lk/fixmate-backend/internal/catalog"
	"github.com/fixmate-lk/fixmate-backend/internal/dashboard"
	"github.com/fixmate-lk/fixmate-backend/internal/notifications"
	"github.com/fixmate-lk/fixmate-backend/internal/notifier"
	"github.com/fixmate-lk/fixmate-backend/internal/technicians"
	"github.com/fixmate-lk/fixmate-backend/internal/users"
	"github.com/fixmate-lk/fixmate-backend/pkg/auth/session"
	"github.com/fixmate-lk/fixmate-backend/pkg/config"
	"github.com/fixmate-lk/fixmate-backend/pkg/db"
	"github.com/fixmate-lk/fixmate-backend/pkg/logger"
	"github.com/fixmate-lk/fixmate-backend/pkg/mailer"
	"github.com/fixmate-lk/fixmate-backend/pkg/metrics"
	"github.com/fixmate-lk/fixmate-backend/pkg/migrate"
	"github.com/fixmate-lk/fixmate-backend/pkg/redis"
	"github.com/fixmate-lk/fixmate-backend/pkg/storage/local"
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
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api exited with error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx := context.Background()

	dbClient, dbErr := db.New(ctx, cfg.DB, logg)
	if dbErr != nil {
		return dbErr
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if migErr := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); migErr != nil {
		return migErr
	}

	redisClient, redisErr := redis.New(ctx, cfg.Redis, logg)
	if redisErr != nil {
		return redisErr
	}
	defer func() {
		err = multierr.Append(err, redisClient.Close())
	}()

	sessions, sessErr := session.NewManager(redisClient, cfg.JWT)
	if sessErr != nil {
		return sessErr
	}

	uploads, upErr := local.New(cfg.Uploads.Dir, cfg.App.BaseURL+"/uploads")
	if upErr != nil {
		return upErr
	}

	mail := mailer.FromConfig(cfg.SMTP, logg)

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)
	domainMetrics := metrics.NewDomainMetrics(registry)

	gdb := dbClient.DB()
	usersRepo := users.NewRepository(gdb)
	addressesRepo := addresses.NewRepository(gdb)
	catalogRepo := catalog.NewRepository(gdb)
	bookingsRepo := bookings.NewRepository(gdb)
	techniciansRepo := technicians.NewRepository(gdb)
	notificationsRepo := notifications.NewRepository(gdb)
	tokensRepo := auth.NewRepository(gdb)

	usersService, err := users.NewService(usersRepo, uploads)
	if err != nil {
		return err
	}
	addressesService, err := addresses.NewService(addressesRepo, dbClient)
	if err != nil {
		return err
	}
	catalogService, err := catalog.NewService(catalogRepo)
	if err != nil {
		return err
	}
	notificationsService, err := notifications.NewService(notificationsRepo, dbClient, domainMetrics)
	if err != nil {
		return err
	}
	appNotifier, err := notifier.New(notificationsService, logg)
	if err != nil {
		return err
	}
	techniciansService, err := technicians.NewService(
		techniciansRepo,
		usersRepo,
		uploads,
		appNotifier,
		mail,
		dbClient,
		logg,
	)
	if err != nil {
		return err
	}
	bookingsService, err := bookings.NewService(
		bookingsRepo,
		catalogRepo,
		addressesRepo,
		techniciansRepo,
		appNotifier,
		uploads,
		dbClient,
		logg,
		domainMetrics,
	)
	if err != nil {
		return err
	}
	authService, err := auth.NewService(auth.Deps{
		Tokens:      tokensRepo,
		Users:       usersRepo,
		Technicians: techniciansRepo,
		Sessions:    sessions,
		Limiter:     redisClient,
		Mail:        mail,
		Notifier:    appNotifier,
		Tx:          dbClient,
		Logger:      logg,
		JWT:         cfg.JWT,
		Password:    cfg.Password,
		RateLimits:  cfg.AuthRateLimit,
		BaseURL:     cfg.App.BaseURL,
	})
	if err != nil {
		return err
	}
	dashboardService, err := dashboard.NewService(bookingsRepo, usersRepo, techniciansRepo, catalogRepo)
	if err != nil {
		return err
	}

	router := routes.NewRouter(routes.Deps{
		Config:        cfg,
		Logger:        logg,
		Sessions:      sessions,
		HTTPMetrics:   httpMetrics,
		Registry:      registry,
		Pingers:       []db.Pinger{dbClient, redisClient},
		Auth:          authService,
		Users:         usersService,
		Addresses:     addressesService,
		Catalog:       catalogService,
		Bookings:      bookingsService,
		Technicians:   techniciansService,
		Notifications: notificationsService,
		Dashboard:     dashboardService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	startCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(startCtx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	notifyCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case e := <-serveErr:
		if e != nil && !errors.Is(e, http.ErrServerClosed) {
			return e
		}
		return nil
	case <-notifyCtx.Done():
	}

	logg.Info(startCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if e := server.Shutdown(shutdownCtx); e != nil {
		return e
	}
	return nil
}
