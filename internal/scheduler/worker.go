package scheduler

import (
	"context"
	"errors"
	"fmt"

	"crm_pipeline_backend/internal/email"
	"crm_pipeline_backend/internal/leads/transport"
	"crm_pipeline_backend/internal/tasks"
	"crm_pipeline_backend/internal/users"
	"crm_pipeline_backend/platform/config"
	"crm_pipeline_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Worker processes due follow-up reminders. It re-reads the task at delivery
// time so reminders for tasks completed or deleted in the meantime are
// silently dropped.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	tasks  *tasks.Repository
	users  *users.Repository
	leads  LeadTitleReader
	mail   email.Sender
	log    *logger.Logger
}

// LeadTitleReader resolves a lead's title for reminder mail. Nil lead
// references render without one.
type LeadTitleReader interface {
	TitleByID(ctx context.Context, id uuid.UUID) (string, error)
}

func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, leads LeadTitleReader, mail email.Sender, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		tasks:  tasks.NewRepository(pool),
		users:  users.NewRepository(pool),
		leads:  leads,
		mail:   mail,
		log:    log,
	}

	mux.HandleFunc(TaskFollowupReminder, w.handleFollowupReminder)

	return w, nil
}

func (w *Worker) handleFollowupReminder(ctx context.Context, asynqTask *asynq.Task) error {
	payload, err := ParseFollowupReminderPayload(asynqTask)
	if err != nil {
		return err
	}

	taskID, err := uuid.Parse(payload.TaskID)
	if err != nil {
		return err
	}

	task, err := w.tasks.GetByID(ctx, taskID)
	if errors.Is(err, tasks.ErrNotFound) {
		w.log.Info("skipping reminder for deleted task", "taskId", taskID)
		return nil
	}
	if err != nil {
		return err
	}
	if tasks.Finished(task.Status) {
		return nil
	}

	owner, err := w.users.GetByID(ctx, task.OwnerID)
	if errors.Is(err, users.ErrNotFound) {
		w.log.Info("skipping reminder for removed owner", "taskId", taskID, "ownerId", task.OwnerID)
		return nil
	}
	if err != nil {
		return err
	}

	leadTitle := ""
	if task.LeadID != nil && w.leads != nil {
		title, err := w.leads.TitleByID(ctx, *task.LeadID)
		if err != nil {
			w.log.Error("failed to resolve lead title for reminder", "error", err, "leadId", *task.LeadID)
		} else {
			leadTitle = title
		}
	}

	dueDate := ""
	if task.DueDate != nil {
		dueDate = task.DueDate.Format(transport.DateLayout)
	}
	if err := w.mail.SendTaskReminderEmail(ctx, owner.Email, owner.Name, task.Title, leadTitle, dueDate); err != nil {
		return fmt.Errorf("send reminder for task %s: %w", taskID, err)
	}

	w.log.Info("followup reminder sent", "taskId", taskID, "ownerId", task.OwnerID)
	return nil
}

// Run starts the worker and blocks until the context is cancelled.
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
