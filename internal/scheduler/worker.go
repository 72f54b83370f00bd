package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"movecrm_backend/internal/email"
	"movecrm_backend/internal/leads"
	"movecrm_backend/internal/leads/domain"
	"movecrm_backend/internal/leads/ports"
	"movecrm_backend/platform/apperr"
	"movecrm_backend/platform/config"
	"movecrm_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	handlers *ReminderHandler
	log      *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, handlers *ReminderHandler, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:   server,
		mux:      mux,
		handlers: handlers,
		log:      log,
	}

	mux.HandleFunc(TaskFollowUpReminder, handlers.HandleFollowUpReminder)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// ReminderHandler emails the assignee when a follow-up falls due.
type ReminderHandler struct {
	leads  leads.ReminderLookup
	users  ports.UserProvider
	sender email.Sender
	log    *logger.Logger
}

func NewReminderHandler(lookup leads.ReminderLookup, users ports.UserProvider, sender email.Sender, log *logger.Logger) *ReminderHandler {
	return &ReminderHandler{leads: lookup, users: users, sender: sender, log: log}
}

// HandleFollowUpReminder skips follow-ups that were completed in the meantime
// and leads without an assignee. Malformed payloads are not retried.
func (h *ReminderHandler) HandleFollowUpReminder(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseFollowUpReminderPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	followUpID, err := uuid.Parse(payload.FollowUpID)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	lead, fu, err := h.leads.FollowUpForReminder(ctx, leadID, followUpID)
	if apperr.Is(err, apperr.KindNotFound) {
		h.log.Info("follow-up reminder skipped", "leadId", leadID, "followUpId", followUpID, "reason", "not found")
		return nil
	}
	if err != nil {
		return err
	}

	if fu.Status != domain.FollowUpPending {
		return nil
	}
	if lead.AssignedTo == nil {
		h.log.Info("follow-up reminder skipped", "leadId", leadID, "followUpId", followUpID, "reason", "unassigned")
		return nil
	}

	assignee, err := h.users.GetUserByID(ctx, *lead.AssignedTo)
	if errors.Is(err, ports.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !assignee.Active || assignee.Email == "" {
		return nil
	}

	return h.sender.SendFollowUpReminder(ctx, assignee.Email, email.FollowUpReminder{
		AssigneeName: assignee.Name,
		CustomerName: strings.TrimSpace(lead.FirstName + " " + lead.LastName),
		Phone:        lead.Phone,
		ScheduledAt:  fu.ScheduledAt,
		Note:         fu.Note,
		LeadStatus:   string(lead.Status),
	})
}
