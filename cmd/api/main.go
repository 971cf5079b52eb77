package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/clinic-attendance-go/internal/config"
	appHTTP "github.com/cmlabs-hris/clinic-attendance-go/internal/handler/http"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/pkg/cron"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/pkg/database"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/pkg/ratelimit"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/pkg/sse"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/clinic-attendance-go/internal/service/attendance"
	notificationService "github.com/cmlabs-hris/clinic-attendance-go/internal/service/notification"
	rosterService "github.com/cmlabs-hris/clinic-attendance-go/internal/service/roster"
	verificationService "github.com/cmlabs-hris/clinic-attendance-go/internal/service/verification"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.App.LogLevel),
	})))

	policy, err := config.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		return err
	}

	dsn := cfg.DatabaseURL()
	if err := database.RunMigrations(dsn); err != nil {
		return fmt.Errorf("error running migrations: %w", err)
	}

	db, err := database.NewPostgreSQLDB(dsn, database.PoolConfig{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}
	defer db.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	tx := postgresql.NewTransactor(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	workerRepo := postgresql.NewWorkerRepository(db)
	clinicRepo := postgresql.NewClinicRepository(db)
	rosterRepo := postgresql.NewRosterRepository(db)
	leaveLookup := postgresql.NewLeaveLookup(db)
	templateRepo := postgresql.NewTemplateRepository(db)
	networkRepo := postgresql.NewNetworkRepository(db)
	notificationRepo := postgresql.NewNotificationRepository(db)

	JWTService, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	if err != nil {
		return err
	}

	hub := sse.NewHub(appMetrics)
	notifSvc := notificationService.NewNotificationService(notificationRepo, hub, notificationService.Config{
		BatchSize:     cfg.Notification.BatchSize,
		FlushInterval: cfg.Notification.FlushInterval,
		WorkerCount:   cfg.Notification.Workers,
		QueueSize:     cfg.Notification.QueueSize,
	}, appMetrics)
	defer notifSvc.Stop()

	gateway := verificationService.NewGateway(
		templateRepo,
		verificationService.NewCosineVerifier(),
		verificationService.NewWhitelistValidator(networkRepo),
		cfg.Verification.EnforceLocation,
		appMetrics,
	)

	attendanceSvc := attendanceService.NewAttendanceService(
		tx,
		attendanceRepo,
		workerRepo,
		clinicRepo,
		rosterRepo,
		leaveLookup,
		gateway,
		policy,
		attendanceService.WithNotifier(notifSvc),
		attendanceService.WithMetrics(appMetrics),
	)
	reconciler := rosterService.NewReconciliationService(
		tx,
		attendanceRepo,
		rosterRepo,
		workerRepo,
		clinicRepo,
		leaveLookup,
		policy,
		rosterService.WithNotifier(notifSvc),
		rosterService.WithMetrics(appMetrics),
	)

	limiterCfg := ratelimit.Config{Requests: cfg.RateLimit.Requests, Window: cfg.RateLimit.Window}
	var limiter ratelimit.Limiter = ratelimit.NewLocalLimiter(limiterCfg)
	if cfg.Redis.Addr != "" {
		rdb, err := ratelimit.NewRedisClient(context.Background(), cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			slog.Warn("redis unavailable, using in-process rate limiter", "error", err)
		} else {
			defer rdb.Close()
			limiter = ratelimit.NewRedisLimiter(rdb, "clinic-attendance", limiterCfg)
		}
	}

	scheduler := cron.NewScheduler(cfg.Cron.JobTimeout)
	if cfg.Cron.Enabled {
		jobs := cron.NewAttendanceJobs(reconciler, cron.JobsConfig{
			Location:          cfg.Location(),
			ReconcileInterval: cfg.Cron.ReconcileInterval,
			ResetHour:         cfg.Cron.ResetHour,
		})
		jobs.RegisterJobs(scheduler)
		scheduler.Start()
		defer scheduler.Stop()
	}

	router := appHTTP.NewRouter(appHTTP.RouterConfig{
		Env:             cfg.App.Env,
		AllowedOrigins:  cfg.App.AllowedOrigins,
		JWTService:      JWTService,
		Limiter:         limiter,
		Metrics:         appMetrics,
		MetricsRegistry: registry,
		Attendance:      appHTTP.NewAttendanceHandler(attendanceSvc),
		Roster:          appHTTP.NewRosterHandler(reconciler, cfg.Location()),
		Notification:    appHTTP.NewNotificationHandler(notifSvc, JWTService),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server running", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
