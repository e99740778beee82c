package repository

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

var ErrNotFound = errors.New("lead not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Lead struct {
	ID                uuid.UUID
	Title             string
	Description       string
	Value             *float64
	Status            domain.LeadStatus
	Priority          domain.Priority
	Source            string
	ExpectedCloseDate *time.Time
	ClientID          *uuid.UUID
	OwnerID           uuid.UUID
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

const leadColumns = `id, title, description, value, status, priority, source,
	expected_close_date, client_id, owner_id, created_at, updated_at`

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	err := row.Scan(
		&lead.ID, &lead.Title, &lead.Description, &lead.Value, &lead.Status,
		&lead.Priority, &lead.Source, &lead.ExpectedCloseDate, &lead.ClientID,
		&lead.OwnerID, &lead.CreatedAt, &lead.UpdatedAt,
	)
	return lead, err
}

type CreateLeadParams struct {
	ID                uuid.UUID
	Title             string
	Description       string
	Value             *float64
	Status            domain.LeadStatus
	Priority          domain.Priority
	Source            string
	ExpectedCloseDate *time.Time
	ClientID          *uuid.UUID
	OwnerID           uuid.UUID
}

// TaskRecord is a follow-up task row written alongside a lead mutation.
type TaskRecord struct {
	ID          uuid.UUID
	Title       string
	Description string
	DueAt       time.Time
	Priority    domain.Priority
	OwnerID     uuid.UUID
	LeadID      uuid.UUID
	ClientID    *uuid.UUID
}

// TaskFailure reports one follow-up task that could not be written. These are
// collected, never escalated: the enclosing operation still commits.
type TaskFailure struct {
	Title string
	Err   error
}

// InteractionRecord is the audit interaction written with a status change.
type InteractionRecord struct {
	ID          uuid.UUID
	Type        string
	Subject     string
	Description string
	ClientID    *uuid.UUID
	LeadID      uuid.UUID
	UserID      uuid.UUID
	Date        time.Time
}

// GetByID returns a lead or ErrNotFound.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// TitleByID returns just the lead's title.
func (r *Repository) TitleByID(ctx context.Context, id uuid.UUID) (string, error) {
	var title string
	err := r.pool.QueryRow(ctx, `SELECT title FROM leads WHERE id = $1`, id).Scan(&title)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return title, err
}

// TitlesSimilar reports whether two lead titles match by case-insensitive
// containment in either direction. The SQL predicate built by
// similarLeadsQuery expresses the same rule with ILIKE; this helper is the
// reference form of it.
func TitlesSimilar(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	return strings.Contains(la, lb) || strings.Contains(lb, la)
}

// similarLeadsQuery builds the duplicate probe. The client restriction is
// applied only when the candidate lead names a client; a client-less
// candidate is checked against the whole population.
func similarLeadsQuery(title string, clientID *uuid.UUID) (string, []interface{}) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM leads
			WHERE (title ILIKE '%' || $1 || '%' OR $1 ILIKE '%' || title || '%')
	`
	args := []interface{}{title}
	if clientID != nil {
		query += ` AND client_id = $2`
		args = append(args, *clientID)
	}
	query += `)`
	return query, args
}

// ExistsSimilar reports whether an existing lead title matches the candidate
// title per TitlesSimilar, scoped to the candidate's client when one is set.
func (r *Repository) ExistsSimilar(ctx context.Context, title string, clientID *uuid.UUID) (bool, error) {
	query, args := similarLeadsQuery(title, clientID)

	var exists bool
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// CreateWithFollowups inserts the lead and its initial follow-up tasks in one
// transaction. Each task insert runs under its own savepoint so a failed task
// rolls back alone; the lead creation itself must never be blocked by
// task-creation failure.
func (r *Repository) CreateWithFollowups(ctx context.Context, params CreateLeadParams, tasks []TaskRecord) (Lead, []TaskFailure, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Lead{}, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	lead, err := scanLead(tx.QueryRow(ctx, `
		INSERT INTO leads (id, title, description, value, status, priority, source,
			expected_close_date, client_id, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+leadColumns+`
	`,
		params.ID, params.Title, params.Description, params.Value, params.Status,
		params.Priority, params.Source, params.ExpectedCloseDate, params.ClientID, params.OwnerID,
	))
	if err != nil {
		return Lead{}, nil, fmt.Errorf("failed to insert lead: %w", err)
	}

	failures := insertTasksBestEffort(ctx, tx, tasks)

	if err := tx.Commit(ctx); err != nil {
		return Lead{}, nil, fmt.Errorf("failed to commit lead creation: %w", err)
	}
	return lead, failures, nil
}

// StatusChangeParams is the write batch for one lifecycle transition: the new
// status, the audit interaction, and the generated follow-up tasks.
type StatusChangeParams struct {
	LeadID      uuid.UUID
	NewStatus   domain.LeadStatus
	Interaction InteractionRecord
	Tasks       []TaskRecord
}

// ApplyStatusChange updates the lead status, writes the audit interaction and
// the follow-up tasks atomically. The lead update and the interaction are the
// required phase; task inserts are best-effort under savepoints.
func (r *Repository) ApplyStatusChange(ctx context.Context, params StatusChangeParams) ([]TaskFailure, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE leads
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`, params.LeadID, params.NewStatus)
	if err != nil {
		return nil, fmt.Errorf("failed to update lead status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}

	in := params.Interaction
	if _, err := tx.Exec(ctx, `
		INSERT INTO interactions (id, type, subject, description, client_id, lead_id, user_id, date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, in.ID, in.Type, in.Subject, in.Description, in.ClientID, in.LeadID, in.UserID, in.Date); err != nil {
		return nil, fmt.Errorf("failed to insert audit interaction: %w", err)
	}

	failures := insertTasksBestEffort(ctx, tx, params.Tasks)

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit status change: %w", err)
	}
	return failures, nil
}

// insertTasksBestEffort writes each task under a nested transaction
// (savepoint). A failing insert rolls back only its own savepoint and is
// reported as a TaskFailure; the remaining tasks still commit.
func insertTasksBestEffort(ctx context.Context, tx pgx.Tx, tasks []TaskRecord) []TaskFailure {
	var failures []TaskFailure
	for _, task := range tasks {
		inner, err := tx.Begin(ctx)
		if err != nil {
			failures = append(failures, TaskFailure{Title: task.Title, Err: err})
			continue
		}

		_, err = inner.Exec(ctx, `
			INSERT INTO tasks (id, title, description, due_date, status, priority, owner_id, lead_id, client_id)
			VALUES ($1, $2, $3, $4, 'pending', $5, $6, $7, $8)
		`, task.ID, task.Title, task.Description, task.DueAt, task.Priority, task.OwnerID, task.LeadID, task.ClientID)
		if err != nil {
			_ = inner.Rollback(ctx)
			failures = append(failures, TaskFailure{Title: task.Title, Err: err})
			continue
		}

		if err := inner.Commit(ctx); err != nil {
			failures = append(failures, TaskFailure{Title: task.Title, Err: err})
		}
	}
	return failures
}

// Filter selects a lead population for the analytics and forecast engines.
// Zero values leave the corresponding predicate off.
type Filter struct {
	Statuses         []domain.LeadStatus
	OwnerID          *uuid.UUID
	CreatedAfter     *time.Time
	RequireCloseDate bool
	CloseBefore      *time.Time // inclusive upper bound on expected_close_date
	CloseStrictlyBy  *time.Time // exclusive upper bound on expected_close_date
	RequireValue     bool
}

// ListByFilter returns the matching leads ordered by creation time descending.
// Engine-specific orderings are applied by the callers.
func (r *Repository) ListByFilter(ctx context.Context, filter Filter) ([]Lead, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + leadColumns + ` FROM leads WHERE 1=1`)
	var args []interface{}

	if len(filter.Statuses) > 0 {
		args = append(args, filter.Statuses)
		fmt.Fprintf(&sb, " AND status = ANY($%d)", len(args))
	}
	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		fmt.Fprintf(&sb, " AND owner_id = $%d", len(args))
	}
	if filter.CreatedAfter != nil {
		args = append(args, *filter.CreatedAfter)
		fmt.Fprintf(&sb, " AND created_at >= $%d", len(args))
	}
	if filter.RequireCloseDate {
		sb.WriteString(" AND expected_close_date IS NOT NULL")
	}
	if filter.CloseBefore != nil {
		args = append(args, *filter.CloseBefore)
		fmt.Fprintf(&sb, " AND expected_close_date <= $%d", len(args))
	}
	if filter.CloseStrictlyBy != nil {
		args = append(args, *filter.CloseStrictlyBy)
		fmt.Fprintf(&sb, " AND expected_close_date < $%d", len(args))
	}
	if filter.RequireValue {
		sb.WriteString(" AND value IS NOT NULL")
	}
	sb.WriteString(" ORDER BY created_at DESC")

	rows, err := r.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

type UpdateLeadParams struct {
	Title             *string
	Description       *string
	Value             *float64
	ValueSet          bool
	Priority          *domain.Priority
	Source            *string
	ExpectedCloseDate *time.Time
	CloseDateSet      bool
	ClientID          *uuid.UUID
	ClientIDSet       bool
	OwnerID           *uuid.UUID
}

// Update applies a partial update to lead fields outside the status machine.
// Status changes go through ApplyStatusChange only.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, params UpdateLeadParams) (Lead, error) {
	var sets []string
	var args []interface{}

	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if params.Title != nil {
		add("title", *params.Title)
	}
	if params.Description != nil {
		add("description", *params.Description)
	}
	if params.ValueSet {
		add("value", params.Value)
	}
	if params.Priority != nil {
		add("priority", *params.Priority)
	}
	if params.Source != nil {
		add("source", *params.Source)
	}
	if params.CloseDateSet {
		add("expected_close_date", params.ExpectedCloseDate)
	}
	if params.ClientIDSet {
		add("client_id", params.ClientID)
	}
	if params.OwnerID != nil {
		add("owner_id", *params.OwnerID)
	}

	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE leads
		SET %s, updated_at = NOW()
		WHERE id = $%d
		RETURNING `+leadColumns, strings.Join(sets, ", "), len(args))

	lead, err := scanLead(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// Delete removes a lead. Tasks and interactions referencing it keep their
// rows with the reference nulled by the schema's ON DELETE SET NULL.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
