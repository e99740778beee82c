// Package clients manages the companies and contacts leads are sold to.
package clients

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

// ErrNotFound is returned when no client matches the lookup.
var ErrNotFound = errors.New("client not found")

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusProspect = "prospect"
)

// KnownStatus reports whether status is one of the client states.
func KnownStatus(status string) bool {
	switch status {
	case StatusActive, StatusInactive, StatusProspect:
		return true
	}
	return false
}

// Client is a stored client row.
type Client struct {
	ID        uuid.UUID
	Name      string
	Company   string
	Email     string
	Phone     string
	Status    string
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const clientColumns = `id, name, company, email, phone, status, notes, created_at, updated_at`

func scanClient(row pgx.Row) (Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.Name, &c.Company, &c.Email, &c.Phone, &c.Status, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Client{}, ErrNotFound
	}
	return c, err
}

// CreateParams holds a new client.
type CreateParams struct {
	Name    string
	Company string
	Email   string
	Phone   string
	Status  string
	Notes   string
}

// Create inserts a client and returns the stored row.
func (r *Repository) Create(ctx context.Context, params CreateParams) (Client, error) {
	return scanClient(r.pool.QueryRow(ctx, `
		INSERT INTO clients (id, name, company, email, phone, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+clientColumns,
		uuid.New(), params.Name, params.Company, params.Email, params.Phone, params.Status, params.Notes))
}

// Filter narrows the client listing. Zero values leave the predicate off.
type Filter struct {
	Search string
	Status string
}

// List returns clients newest first, optionally filtered by a name or
// company substring and by status.
func (r *Repository) List(ctx context.Context, filter Filter) ([]Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients`
	var conds []string
	var args []interface{}
	if filter.Search != "" {
		args = append(args, filter.Search)
		conds = append(conds, `(name ILIKE '%' || $1 || '%' OR company ILIKE '%' || $1 || '%')`)
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}
	return clients, rows.Err()
}

// GetByID returns one client.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Client, error) {
	return scanClient(r.pool.QueryRow(ctx, `
		SELECT `+clientColumns+`
		FROM clients
		WHERE id = $1`, id))
}

// UpdateParams holds a partial client update.
type UpdateParams struct {
	Name    *string
	Company *string
	Email   *string
	Phone   *string
	Status  *string
	Notes   *string
}

// Update applies a partial update and returns the stored row.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (Client, error) {
	client, err := r.GetByID(ctx, id)
	if err != nil {
		return Client{}, err
	}

	if params.Name != nil {
		client.Name = *params.Name
	}
	if params.Company != nil {
		client.Company = *params.Company
	}
	if params.Email != nil {
		client.Email = *params.Email
	}
	if params.Phone != nil {
		client.Phone = *params.Phone
	}
	if params.Status != nil {
		client.Status = *params.Status
	}
	if params.Notes != nil {
		client.Notes = *params.Notes
	}

	return scanClient(r.pool.QueryRow(ctx, `
		UPDATE clients
		SET name = $1, company = $2, email = $3, phone = $4, status = $5, notes = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING `+clientColumns,
		client.Name, client.Company, client.Email, client.Phone, client.Status, client.Notes, id))
}

// Delete removes a client. Leads referencing it keep their rows with the
// reference nulled by the schema's ON DELETE SET NULL.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
