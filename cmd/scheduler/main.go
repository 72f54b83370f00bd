package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	authadapter "movecrm_backend/internal/auth/adapter"
	authrepo "movecrm_backend/internal/auth/repository"
	"movecrm_backend/internal/email"
	"movecrm_backend/internal/events"
	"movecrm_backend/internal/leads"
	leadrepo "movecrm_backend/internal/leads/repository"
	"movecrm_backend/internal/scheduler"
	"movecrm_backend/platform/config"
	"movecrm_backend/platform/db"
	"movecrm_backend/platform/logger"
	"movecrm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.NewWithFile(cfg.Env, cfg)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	users := authadapter.NewUserProviderAdapter(authrepo.New(pool))

	// The worker only reads leads; the module is built for its service.
	leadsModule, err := leads.NewModule(leads.Deps{
		Store:     leadrepo.New(pool),
		Users:     users,
		EventBus:  events.NewInMemoryBus(log),
		Validator: validator.New(),
		Logger:    log,
	})
	if err != nil {
		log.Error("failed to initialize leads module", "error", err)
		panic("failed to initialize leads module: " + err.Error())
	}

	handlers := scheduler.NewReminderHandler(leadsModule.Service(), users, email.NewSender(cfg, log), log)

	worker, err := scheduler.NewWorker(cfg, handlers, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
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
