// Package dashboard serves the landing-page counters glanced at on sign-in.
package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LeadSummary is the trimmed lead row shown in the recent-leads panel.
type LeadSummary struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	Value     *float64  `json:"value,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// TaskSummary is the trimmed task row shown in the upcoming-tasks panel.
type TaskSummary struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	DueDate  time.Time `json:"dueDate"`
	Priority string    `json:"priority"`
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CountLeadsByStatus returns open and total lead counts per status.
func (r *Repository) CountLeadsByStatus(ctx context.Context, ownerID *uuid.UUID) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM leads`
	var args []interface{}
	if ownerID != nil {
		query += ` WHERE owner_id = $1`
		args = append(args, *ownerID)
	}
	query += ` GROUP BY status`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// PipelineValue sums the value of open leads.
func (r *Repository) PipelineValue(ctx context.Context, ownerID *uuid.UUID) (float64, error) {
	query := `
		SELECT COALESCE(SUM(value), 0)
		FROM leads
		WHERE status IN ('new', 'qualified', 'proposal', 'negotiation')`
	var args []interface{}
	if ownerID != nil {
		query += ` AND owner_id = $1`
		args = append(args, *ownerID)
	}

	var total float64
	err := r.pool.QueryRow(ctx, query, args...).Scan(&total)
	return total, err
}

// CountPendingTasks returns pending and overdue task counts.
func (r *Repository) CountPendingTasks(ctx context.Context, ownerID *uuid.UUID) (pending, overdue int, err error) {
	query := `
		SELECT COUNT(*) FILTER (WHERE status = 'pending'),
		       COUNT(*) FILTER (WHERE status = 'pending' AND due_date < CURRENT_DATE)
		FROM tasks`
	var args []interface{}
	if ownerID != nil {
		query += ` WHERE owner_id = $1`
		args = append(args, *ownerID)
	}

	err = r.pool.QueryRow(ctx, query, args...).Scan(&pending, &overdue)
	return pending, overdue, err
}

// CountClients returns the total client count.
func (r *Repository) CountClients(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM clients`).Scan(&count)
	return count, err
}

// RecentLeads returns the five newest leads.
func (r *Repository) RecentLeads(ctx context.Context, ownerID *uuid.UUID) ([]LeadSummary, error) {
	query := `SELECT id, title, status, value, created_at FROM leads`
	var args []interface{}
	if ownerID != nil {
		query += ` WHERE owner_id = $1`
		args = append(args, *ownerID)
	}
	query += ` ORDER BY created_at DESC LIMIT 5`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []LeadSummary
	for rows.Next() {
		var l LeadSummary
		if err := rows.Scan(&l.ID, &l.Title, &l.Status, &l.Value, &l.CreatedAt); err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

// UpcomingTasks returns up to five pending tasks due within the next week.
func (r *Repository) UpcomingTasks(ctx context.Context, ownerID *uuid.UUID) ([]TaskSummary, error) {
	query := `
		SELECT id, title, due_date, priority
		FROM tasks
		WHERE status IN ('pending', 'in_progress')
		  AND due_date >= CURRENT_DATE
		  AND due_date <= CURRENT_DATE + INTERVAL '7 days'`
	var args []interface{}
	if ownerID != nil {
		query += ` AND owner_id = $1`
		args = append(args, *ownerID)
	}
	query += ` ORDER BY due_date ASC LIMIT 5`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []TaskSummary
	for rows.Next() {
		var t TaskSummary
		if err := rows.Scan(&t.ID, &t.Title, &t.DueDate, &t.Priority); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// RecentInteractions returns how many interactions were logged in the last
// seven days.
func (r *Repository) RecentInteractions(ctx context.Context, ownerID *uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM interactions
		WHERE date >= NOW() - INTERVAL '7 days'`
	var args []interface{}
	if ownerID != nil {
		query += ` AND user_id = $1`
		args = append(args, *ownerID)
	}

	var count int
	err := r.pool.QueryRow(ctx, query, args...).Scan(&count)
	return count, err
}
