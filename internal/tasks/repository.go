// Package tasks manages follow-up work items. Rows arrive from two writers:
// the lead lifecycle engine's generated follow-ups and manual entry here.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"crm_pipeline_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no task matches the lookup.
var ErrNotFound = errors.New("task not found")

const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
	StatusCancelled  = "cancelled"
)

// KnownStatus reports whether status is one of the task states. Transitions
// between them are free-form, there is no state machine here.
func KnownStatus(status string) bool {
	switch status {
	case StatusPending, StatusInProgress, StatusDone, StatusCancelled:
		return true
	}
	return false
}

// Finished reports whether a status means the task needs no further work.
func Finished(status string) bool {
	return status == StatusDone || status == StatusCancelled
}

// Task is a stored task row. DueDate is nullable; a task without one never
// matches due-date filters and gets no reminder.
type Task struct {
	ID          uuid.UUID
	Title       string
	Description string
	DueDate     *time.Time
	Status      string
	Priority    domain.Priority
	OwnerID     uuid.UUID
	LeadID      *uuid.UUID
	ClientID    *uuid.UUID
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const taskColumns = `id, title, description, due_date, status, priority, owner_id, lead_id, client_id, completed_at, created_at, updated_at`

func scanTask(row pgx.Row) (Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.DueDate, &t.Status, &t.Priority,
		&t.OwnerID, &t.LeadID, &t.ClientID, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	return t, err
}

// CreateParams holds a manually entered task.
type CreateParams struct {
	Title       string
	Description string
	DueDate     *time.Time
	Priority    domain.Priority
	OwnerID     uuid.UUID
	LeadID      *uuid.UUID
	ClientID    *uuid.UUID
}

// Create inserts a pending task and returns the stored row.
func (r *Repository) Create(ctx context.Context, params CreateParams) (Task, error) {
	return scanTask(r.pool.QueryRow(ctx, `
		INSERT INTO tasks (id, title, description, due_date, status, priority, owner_id, lead_id, client_id)
		VALUES ($1, $2, $3, $4, 'pending', $5, $6, $7, $8)
		RETURNING `+taskColumns,
		uuid.New(), params.Title, params.Description, params.DueDate, params.Priority,
		params.OwnerID, params.LeadID, params.ClientID))
}

// Filter narrows the task listing. Zero values leave the predicate off.
type Filter struct {
	Status     string
	Unfinished bool
	OwnerID    *uuid.UUID
	LeadID     *uuid.UUID
	DueBy      *time.Time
}

// List returns tasks matching the filter, earliest due first.
func (r *Repository) List(ctx context.Context, filter Filter) ([]Task, error) {
	var conds []string
	var args []interface{}

	add := func(cond string, value interface{}) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.Unfinished {
		conds = append(conds, "status IN ('pending', 'in_progress')")
	}
	if filter.OwnerID != nil {
		add("owner_id = $%d", *filter.OwnerID)
	}
	if filter.LeadID != nil {
		add("lead_id = $%d", *filter.LeadID)
	}
	if filter.DueBy != nil {
		add("due_date <= $%d", *filter.DueBy)
	}

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY due_date ASC, created_at ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// GetByID returns one task.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Task, error) {
	return scanTask(r.pool.QueryRow(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE id = $1`, id))
}

// UpdateStatus sets a task's status. The completion timestamp is stamped
// when the task becomes done and cleared otherwise; completing an already
// done task keeps the original timestamp.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (Task, error) {
	task, err := scanTask(r.pool.QueryRow(ctx, `
		UPDATE tasks
		SET status = $2,
		    completed_at = CASE WHEN $2 = 'done' THEN COALESCE(completed_at, NOW()) ELSE NULL END,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+taskColumns, id, status))
	if err != nil {
		return Task{}, err
	}
	return task, nil
}

// Complete marks a task done.
func (r *Repository) Complete(ctx context.Context, id uuid.UUID) (Task, error) {
	return r.UpdateStatus(ctx, id, StatusDone)
}

// Delete removes a task.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
