package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/study-planner/api/swagger"
	"github.com/noah-isme/study-planner/internal/client"
	"github.com/noah-isme/study-planner/internal/handler"
	"github.com/noah-isme/study-planner/internal/repository"
	"github.com/noah-isme/study-planner/internal/service"
	"github.com/noah-isme/study-planner/internal/session"
	"github.com/noah-isme/study-planner/pkg/cache"
	"github.com/noah-isme/study-planner/pkg/config"
	"github.com/noah-isme/study-planner/pkg/database"
	"github.com/noah-isme/study-planner/pkg/jobs"
	"github.com/noah-isme/study-planner/pkg/logger"
	"github.com/noah-isme/study-planner/pkg/secret"
)

// @title Study Planner API
// @version 1.0.0
// @description Local API over the auth and records services with a live deadline dashboard
// @BasePath /api/v1
// @schemes http

const (
	shutdownTimeout = 10 * time.Second
	forgetTimeout   = 2 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("study planner stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	metrics := service.NewMetricsService()
	validate := validator.New()
	checks := map[string]handler.Pinger{}

	box, err := secret.NewBox(cfg.Session.Secret)
	if err != nil {
		return fmt.Errorf("session secret: %w", err)
	}
	sessions, err := repository.OpenSessionRepository(cfg.Session.StorePath, box)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer sessions.Close() //nolint:errcheck

	redisClient := connectRedis(ctx, cfg, logr)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck
	if cacheRepo.Enabled() {
		checks["redis"] = cacheRepo
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Snapshot.CacheTTL, logr, cacheRepo.Enabled())

	var transitions *repository.TransitionRepository
	if cfg.Transitions.Enabled {
		db, err := connectPostgres(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close() //nolint:errcheck
		transitions = repository.NewTransitionRepository(db)
		checks["postgres"] = transitions
	}

	holder := session.NewHolder()
	authClient := client.NewAuthClient(client.Options{
		BaseURL:  cfg.Upstream.AuthURL,
		Timeout:  cfg.Upstream.Timeout,
		Observer: metrics,
		Logger:   logr,
	})
	recordsClient := client.NewRecordsClient(client.Options{
		BaseURL:    cfg.Upstream.RecordsURL,
		Timeout:    cfg.Upstream.Timeout,
		Credential: holder,
		Observer:   metrics,
		Logger:     logr,
	})

	authSvc := service.NewAuthService(service.AuthServiceParams{
		Client:    authClient,
		Store:     sessions,
		Holder:    holder,
		Validator: validate,
		Logger:    logr,
	})

	notifications := newNotificationService(transitions, metrics, logr)
	queue := jobs.NewQueue("transitions", notifications.Handle, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		MaxRetries: cfg.Notifications.Retries,
		Logger:     logr,
	})

	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Records: recordsClient,
		Cache:   cacheSvc,
		Metrics: metrics,
		Scope:   holder,
		Logger:  logr,
		Config: service.DashboardServiceConfig{
			UpcomingLimit: cfg.Dashboard.UpcomingLimit,
			SubjectLimit:  cfg.Dashboard.SubjectLimit,
			SnapshotTTL:   cfg.Snapshot.CacheTTL,
		},
	})
	refresher := service.NewDashboardRefresher(service.DashboardRefresherParams{
		Source:    dashboardSvc,
		Scope:     holder,
		Publisher: queue,
		Metrics:   metrics,
		Logger:    logr,
		Config: service.RefresherConfig{
			TickInterval:    cfg.Dashboard.TickInterval,
			RefetchInterval: cfg.Dashboard.RefetchInterval,
		},
	})
	holder.OnClear(func(int) { refresher.Reset() })
	holder.OnClear(func(userID int) {
		forgetCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), forgetTimeout)
		defer cancel()
		dashboardSvc.Forget(forgetCtx, userID)
	})

	subjectSvc := service.NewSubjectService(recordsClient, refresher, validate, logr)
	assessmentSvc := service.NewAssessmentService(recordsClient, refresher, validate, logr)
	exportSvc := service.NewExportService(refresher, nil, nil, logr)

	info := authSvc.Restore(ctx)
	logr.Info("session state", zap.Bool("authenticated", info.Authenticated), zap.Bool("verified", info.Verified))

	queue.Start(ctx)
	defer queue.Stop()
	go refresher.Run(ctx)
	refresher.NotifyChange()

	router := newRouter(cfg, logr, routerDeps{
		metrics:     metrics,
		holder:      holder,
		checks:      checks,
		auth:        handler.NewAuthHandler(authSvc),
		subjects:    handler.NewSubjectHandler(subjectSvc),
		assessments: handler.NewAssessmentHandler(assessmentSvc),
		dashboard:   handler.NewDashboardHandler(refresher, dashboardSvc, exportSvc),
		transitions: handler.NewTransitionHandler(notifications),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// connectRedis returns nil when the snapshot cache is disabled or unreachable.
func connectRedis(ctx context.Context, cfg *config.Config, logr *zap.Logger) *redis.Client {
	if !cfg.Snapshot.Enabled {
		return nil
	}
	client, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("snapshot cache unavailable, continuing without it", zap.Error(err))
		return nil
	}
	return client
}

func connectPostgres(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}
	return db, nil
}

// newNotificationService avoids handing a typed nil repository to the service.
func newNotificationService(repo *repository.TransitionRepository, metrics *service.MetricsService, logr *zap.Logger) *service.NotificationService {
	if repo == nil {
		return service.NewNotificationService(nil, metrics, logr)
	}
	return service.NewNotificationService(repo, metrics, logr)
}
