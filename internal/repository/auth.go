// Package repository provides PostgreSQL persistence for user accounts and
// calculator configurations.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/loancalc/internal/common"
	"github.com/atinyakov/loancalc/internal/models"
	"github.com/lib/pq"
)

// uniqueViolation is the PostgreSQL error code for a violated unique constraint.
const uniqueViolation = "23505"

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// wrapWriteErr reports unique-constraint violations as common.ErrConflict.
func wrapWriteErr(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", op, common.ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// PostgresAuthRepository stores user accounts in a PostgreSQL database.
type PostgresAuthRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresAuthRepository creates a new PostgresAuthRepository with the given database connection.
// db must be a valid *sql.DB connected to a PostgreSQL instance.
func NewPostgresAuthRepository(db *sql.DB) *PostgresAuthRepository {
	return &PostgresAuthRepository{DB: db}
}

const userColumns = `id, name, email, password_hash, role, created_at`

// UserExists checks whether a user with the specified email exists in the database.
// It returns true if the user exists, false otherwise.
// If an error occurs during the query, it is returned.
func (r *PostgresAuthRepository) UserExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`,
		email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("UserExists: %w", err)
	}
	return exists, nil
}

// CreateUser inserts a new user. A duplicate email is reported as
// common.ErrConflict.
func (r *PostgresAuthRepository) CreateUser(ctx context.Context, u *models.User) error {
	_, err := r.DB.ExecContext(
		ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Name, u.Email, u.PasswordHash, string(u.Role), u.CreatedAt,
	)
	if err != nil {
		return wrapWriteErr("CreateUser", err)
	}
	return nil
}

// GetUserByEmail fetches a user by email, or common.ErrNotFound.
func (r *PostgresAuthRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("GetUserByEmail: %w", err)
	}
	return u, nil
}

// GetUserByID fetches a user by id, or common.ErrNotFound.
func (r *PostgresAuthRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("GetUserByID: %w", err)
	}
	return u, nil
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u    models.User
		role string
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	return &u, nil
}
