package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"movecrm_backend/internal/adapters/storage"
	"movecrm_backend/internal/audit"
	"movecrm_backend/internal/auth"
	authadapter "movecrm_backend/internal/auth/adapter"
	authrepo "movecrm_backend/internal/auth/repository"
	"movecrm_backend/internal/estimator"
	"movecrm_backend/internal/events"
	apphttp "movecrm_backend/internal/http"
	"movecrm_backend/internal/http/router"
	"movecrm_backend/internal/leads"
	"movecrm_backend/internal/leads/ports"
	leadrepo "movecrm_backend/internal/leads/repository"
	"movecrm_backend/internal/scheduler"
	"movecrm_backend/migrations"
	"movecrm_backend/platform/config"
	"movecrm_backend/platform/db"
	"movecrm_backend/platform/logger"
	"movecrm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.NewWithFile(cfg.Env, cfg)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	if err := db.RunMigrations(ctx, pool, migrations.FS); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	closeScheduler := initReminderScheduler(cfg, eventBus, log)
	defer closeScheduler()

	// Shared validator instance for dependency injection
	val := validator.New()

	media := initMediaStore(ctx, cfg, log)
	vision := initEstimator(ctx, cfg, log)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	userRepo := authrepo.New(pool)
	authModule, err := auth.NewModule(userRepo, cfg, val, log)
	if err != nil {
		log.Error("failed to initialize auth module", "error", err)
		panic("failed to initialize auth module: " + err.Error())
	}
	if cfg.GetSeedUsers() {
		if err := authModule.Service().SeedDefaultUsers(ctx, cfg.GetSeedPassword()); err != nil {
			log.Error("failed to seed default users", "error", err)
			panic("failed to seed default users: " + err.Error())
		}
	}

	leadsModule, err := leads.NewModule(leads.Deps{
		Store:     leadrepo.New(pool),
		Users:     authadapter.NewUserProviderAdapter(userRepo),
		Estimator: vision,
		Fallback:  estimator.Simulated,
		Media:     media,
		EventBus:  eventBus,
		Validator: val,
		AITimeout: cfg.GetAITimeout(),
		Logger:    log,
	})
	if err != nil {
		log.Error("failed to initialize leads module", "error", err)
		panic("failed to initialize leads module: " + err.Error())
	}

	auditModule := audit.NewModule(pool, eventBus, val, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:  cfg,
		Logger:  log,
		Health:  db.NewPoolAdapter(pool),
		Modules: []apphttp.Module{
			authModule,
			leadsModule,
			auditModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		eventBus.Wait()
		return err
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
	}
}

// initMediaStore returns nil when MinIO is not configured; intake then keeps
// photos only for the estimate.
func initMediaStore(ctx context.Context, cfg *config.Config, log *logger.Logger) ports.MediaStore {
	if !cfg.IsMinIOEnabled() {
		log.Warn("MINIO_ENDPOINT not configured; lead media will not be stored")
		return nil
	}

	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}
	if err := withRetry(ctx, log, "ensure lead media bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", storageSvc.Bucket())
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
	log.Info("storage service initialized", "leadMediaBucket", storageSvc.Bucket())
	return storageSvc
}

// initEstimator returns nil when no Gemini key is configured; every
// assessment then gets the simulated estimate.
func initEstimator(ctx context.Context, cfg *config.Config, log *logger.Logger) ports.Estimator {
	pricing, err := estimator.LoadPricing(cfg.GetPricingTablePath())
	if err != nil {
		log.Error("failed to load pricing table", "error", err)
		panic("failed to load pricing table: " + err.Error())
	}
	if !cfg.IsAIEnabled() {
		log.Warn("GEMINI_API_KEY not configured; assessments use the simulated estimate")
		return nil
	}

	vision, err := estimator.NewVision(ctx, cfg, pricing, log)
	if err != nil {
		log.CollaboratorFailed("estimator", err)
		return nil
	}
	log.Info("vision estimator initialized", "model", cfg.GetGeminiModel())
	return vision
}

func initReminderScheduler(cfg config.SchedulerConfig, bus events.Bus, log *logger.Logger) func() {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; follow-up reminders disabled")
		return func() {}
	}

	reminderClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize reminder scheduler client", "error", err)
		return func() {}
	}
	scheduler.NewReminderSubscriber(reminderClient, log).Subscribe(bus)

	return func() {
		_ = reminderClient.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
