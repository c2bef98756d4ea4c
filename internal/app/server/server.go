package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"agencyops/internal/domain/auth"
	"agencyops/internal/domain/calendar"
	"agencyops/internal/domain/catalog"
	"agencyops/internal/domain/crm"
	"agencyops/internal/domain/employees"
	"agencyops/internal/domain/finance"
	"agencyops/internal/domain/identity"
	"agencyops/internal/domain/notifications"
	"agencyops/internal/domain/worksession"
	"agencyops/internal/platform/config"
	"agencyops/internal/platform/db"
	"agencyops/internal/platform/email"
	"agencyops/internal/platform/jobs"
	"agencyops/internal/platform/metrics"
	adminhandler "agencyops/internal/transport/http/handlers/admin"
	authhandler "agencyops/internal/transport/http/handlers/auth"
	calendarhandler "agencyops/internal/transport/http/handlers/calendar"
	cataloghandler "agencyops/internal/transport/http/handlers/catalog"
	crmhandler "agencyops/internal/transport/http/handlers/crm"
	employeeshandler "agencyops/internal/transport/http/handlers/employees"
	financehandler "agencyops/internal/transport/http/handlers/finance"
	notificationshandler "agencyops/internal/transport/http/handlers/notifications"
	portalhandler "agencyops/internal/transport/http/handlers/portal"
	worksessionhandler "agencyops/internal/transport/http/handlers/worksession"
	"agencyops/internal/transport/http/middleware"
)

const idempotencyTTL = 24 * time.Hour

// Deps are the long-lived resources the router is built from.
type Deps struct {
	Config    config.Config
	Logger    *slog.Logger
	DB        *pgxpool.Pool
	Redis     *redis.Client
	Jobs      jobs.Enqueuer
	Metrics   *metrics.Collector
	Mailer    email.Mailer
	Readiness func(ctx context.Context) error
}

func NewLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// Run connects every backend, applies migrations and seed data when enabled,
// and serves until ctx is cancelled.
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err = rdb.Ping(pingCtx).Err()
	cancel()
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}

	jobCtx, stopJobs := context.WithCancel(context.Background())
	queue := jobs.New(256)
	queue.Start(jobCtx)

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.New()
	}

	router := NewRouter(Deps{
		Config:  cfg,
		Logger:  logger,
		DB:      pool,
		Redis:   rdb,
		Jobs:    queue,
		Metrics: collector,
		Mailer:  email.New(cfg),
		Readiness: func(ctx context.Context) error {
			if err := pool.Ping(ctx); err != nil {
				return fmt.Errorf("db: %w", err)
			}
			if err := rdb.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
			return nil
		},
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "addr", cfg.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		stopJobs()
		return err
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()
	logger.Info("http server shutting down")
	err = srv.Shutdown(shutdownCtx)

	stopJobs()
	select {
	case <-queue.Done():
	case <-shutdownCtx.Done():
		logger.Warn("job queue did not drain before shutdown timeout")
	}
	return err
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	sessions := identity.NewRedisStore(d.Redis, cfg.SessionTTL)
	idem := middleware.NewIdempotencyStore(d.Redis, idempotencyTTL)

	authService := auth.NewService(auth.NewStore(d.DB), sessions, d.Mailer, d.Jobs, auth.Options{
		Secret:     cfg.JWTSecret,
		SessionTTL: cfg.SessionTTL,
		BaseURL:    cfg.AppBaseURL,
		From:       cfg.EmailFrom,
		InviteTTL:  cfg.InviteExpiry,
		ResetTTL:   cfg.PasswordResetTTL,
	})
	crmService := crm.NewService(crm.NewStore(d.DB), d.Metrics)
	financeStore := finance.NewStore(d.DB)
	financeService := finance.NewService(
		financeStore,
		finance.NewRateCache(financeStore, d.Redis, cfg.RatesCacheTTL),
		d.Metrics,
		finance.Options{DefaultCurrency: cfg.DefaultCurrency, PDFDir: cfg.InvoicePDFDir},
	)
	notificationService := notifications.New(notifications.NewStore(d.DB), d.Mailer, d.Jobs, cfg.EmailFrom)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(chimw.RealIP)
	router.Use(middleware.Logger(d.Logger, d.Metrics))
	router.Use(chimw.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.IdempotencyHeader},
		ExposedHeaders:   []string{"X-Request-ID", "X-Unread-Count", "X-Total-Count", "Idempotent-Replayed"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Session(cfg.JWTSecret, sessions))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.Readiness != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := d.Readiness(ctx); err != nil {
				d.Logger.Warn("readiness check failed", "err", err)
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	if d.Metrics != nil {
		router.Handle("/metrics", d.Metrics.Handler())
	}

	router.Route("/api", func(r chi.Router) {
		authhandler.NewHandler(authService, sessions, middleware.LoginRateLimit(cfg.LoginRateLimit, time.Minute)).RegisterRoutes(r)
		adminhandler.NewHandler(authService, sessions).RegisterRoutes(r)
		crmhandler.NewHandler(crmService, authService, sessions).RegisterRoutes(r)
		cataloghandler.NewHandler(catalog.NewService(catalog.NewStore(d.DB), cfg.DefaultCurrency), authService, sessions).RegisterRoutes(r)
		employeeshandler.NewHandler(employees.NewService(employees.NewStore(d.DB), cfg.DefaultCurrency), authService, sessions).RegisterRoutes(r)
		financehandler.NewHandler(financeService, authService, sessions, idem).RegisterRoutes(r)
		worksessionhandler.NewHandler(worksession.NewService(worksession.NewStore(d.DB)), authService, sessions).RegisterRoutes(r)
		calendarhandler.NewHandler(calendar.NewService(calendar.NewStore(d.DB), notificationService), authService, sessions).RegisterRoutes(r)
		notificationshandler.NewHandler(notificationService, authService, sessions).RegisterRoutes(r)
		portalhandler.NewHandler(crmService, financeService).RegisterRoutes(r)
	})

	return router
}
