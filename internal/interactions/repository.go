// Package interactions records contact history with clients and leads.
// User-authored entries arrive here; system audit entries are written by the
// lead lifecycle engine into the same table.
package interactions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no interaction matches the lookup.
var ErrNotFound = errors.New("interaction not found")

// Interaction is a stored contact history row.
type Interaction struct {
	ID          uuid.UUID
	Type        string
	Subject     string
	Description string
	ClientID    *uuid.UUID
	LeadID      *uuid.UUID
	UserID      uuid.UUID
	Date        time.Time
	CreatedAt   time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const interactionColumns = `id, type, subject, description, client_id, lead_id, user_id, date, created_at`

func scanInteraction(row pgx.Row) (Interaction, error) {
	var i Interaction
	err := row.Scan(&i.ID, &i.Type, &i.Subject, &i.Description, &i.ClientID, &i.LeadID, &i.UserID, &i.Date, &i.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Interaction{}, ErrNotFound
	}
	return i, err
}

// CreateParams holds a user-authored interaction.
type CreateParams struct {
	Type        string
	Subject     string
	Description string
	ClientID    *uuid.UUID
	LeadID      *uuid.UUID
	UserID      uuid.UUID
	Date        time.Time
}

// Create inserts an interaction and returns the stored row.
func (r *Repository) Create(ctx context.Context, params CreateParams) (Interaction, error) {
	return scanInteraction(r.pool.QueryRow(ctx, `
		INSERT INTO interactions (id, type, subject, description, client_id, lead_id, user_id, date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+interactionColumns,
		uuid.New(), params.Type, params.Subject, params.Description,
		params.ClientID, params.LeadID, params.UserID, params.Date))
}

// Filter narrows the interaction listing.
type Filter struct {
	LeadID   *uuid.UUID
	ClientID *uuid.UUID
	Type     string
}

// List returns interactions matching the filter, most recent first.
func (r *Repository) List(ctx context.Context, filter Filter) ([]Interaction, error) {
	var conds []string
	var args []interface{}

	add := func(cond string, value interface{}) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.LeadID != nil {
		add("lead_id = $%d", *filter.LeadID)
	}
	if filter.ClientID != nil {
		add("client_id = $%d", *filter.ClientID)
	}
	if filter.Type != "" {
		add("type = $%d", filter.Type)
	}

	query := `SELECT ` + interactionColumns + ` FROM interactions`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY date DESC, created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var interactions []Interaction
	for rows.Next() {
		interaction, err := scanInteraction(rows)
		if err != nil {
			return nil, err
		}
		interactions = append(interactions, interaction)
	}
	return interactions, rows.Err()
}

// Delete removes a user-authored interaction. System audit rows stay
// immutable.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM interactions WHERE id = $1 AND type <> 'system'`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
