// Package users manages the seller directory the rest of the pipeline
// resolves names and ownership against.
package users

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no user matches the lookup.
var ErrNotFound = errors.New("user not found")

// ErrDuplicateEmail is returned when the email is already registered.
var ErrDuplicateEmail = errors.New("email already registered")

// User is a directory row. The password hash never leaves the repository
// layer except through the auth module's own credential lookup.
type User struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Role      string
	Active    bool
	TeamID    *uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Team is a grouping label for sellers. Teams are reference data; nothing in
// the pipeline mutates them outside of admin user management.
type Team struct {
	ID          uuid.UUID
	Name        string
	Description string
	CreatedAt   time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, name, email, role, active, team_id, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.Active, &u.TeamID, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

// CreateParams holds a new directory entry plus its credential hash.
type CreateParams struct {
	Name         string
	Email        string
	PasswordHash string
	Role         string
	TeamID       *uuid.UUID
}

// Create inserts a user and returns the stored row.
func (r *Repository) Create(ctx context.Context, params CreateParams) (User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, active, team_id)
		VALUES ($1, $2, $3, $4, $5, TRUE, $6)
		RETURNING `+userColumns,
		uuid.New(), params.Name, params.Email, params.PasswordHash, params.Role, params.TeamID))
	if err != nil && isUniqueViolation(err) {
		return User{}, ErrDuplicateEmail
	}
	return user, err
}

// List returns all users, active first, newest within each group.
func (r *Repository) List(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		ORDER BY active DESC, created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// GetByID returns one user.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1`, id))
}

// SetActive toggles whether a user can sign in and receive leads.
func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET active = $1, updated_at = NOW() WHERE id = $2`, active, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// NamesByIDs resolves display names for a set of user IDs. Unknown IDs are
// simply absent from the result.
func (r *Repository) NamesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, name FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}

// ListTeams returns all teams ordered by name.
func (r *Repository) ListTeams(ctx context.Context) ([]Team, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, created_at
		FROM teams
		ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []Team
	for rows.Next() {
		var t Team
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.CreatedAt); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr interface{ SQLState() string }
	return errors.As(err, &pgErr) && pgErr.SQLState() == "23505"
}
